package service

import (
	"context"
	"strings"

	"gavel/internal/audit"
	kycmodels "gavel/internal/kyc/models"
	"gavel/pkg/domain"
	dErrors "gavel/pkg/domain-errors"
	"gavel/pkg/requestcontext"
)

// Approve marks a pending submission APPROVED and unlocks bidding by
// mirroring APPROVED onto the account record.
func (s *Service) Approve(ctx context.Context, principal domain.Principal, submissionID domain.SubmissionID) (*kycmodels.Submission, error) {
	return s.review(ctx, principal, submissionID, domain.KYCApproved, "")
}

// Reject marks a pending submission REJECTED. reason is required and is what
// the account holder sees.
func (s *Service) Reject(ctx context.Context, principal domain.Principal, submissionID domain.SubmissionID, reason string) (*kycmodels.Submission, error) {
	return s.review(ctx, principal, submissionID, domain.KYCRejected, reason)
}

// RequestMoreInfo sends a pending submission back to the holder. reason is
// required and names what is missing.
func (s *Service) RequestMoreInfo(ctx context.Context, principal domain.Principal, submissionID domain.SubmissionID, reason string) (*kycmodels.Submission, error) {
	return s.review(ctx, principal, submissionID, domain.KYCNeedsMoreInfo, reason)
}

// review is the shared decision path. The submission transition and the
// account mirror run in one tx.Runner unit: the submission's conditional
// write decides which reviewer wins, and only the winner's outcome reaches
// the account row. A failed mirror rolls the submission back. Re-reviewing a
// decided submission fails with a conflict; there is no silent "already done"
// path.
func (s *Service) review(ctx context.Context, principal domain.Principal, submissionID domain.SubmissionID, outcome domain.KYCStatus, reason string) (*kycmodels.Submission, error) {
	if err := s.authorize(principal); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if outcome.RequiresReason() && reason == "" {
		return nil, dErrors.Newf(dErrors.CodeBadRequest, "a reason is required to mark a submission %s", outcome)
	}

	var reviewed *kycmodels.Submission
	err := s.txr.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		reviewed, err = s.submissions.Execute(ctx, submissionID,
			func(sub *kycmodels.Submission) error { return sub.CanReview() },
			func(sub *kycmodels.Submission) {
				sub.ApplyReview(outcome, principal.ID, reason, requestcontext.Now(ctx))
			},
		)
		if err != nil {
			return wrapStoreErr(err)
		}
		return s.mirrorAccountStatus(ctx, reviewed.AccountID, outcome)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementKYCReview(strings.ToLower(string(outcome)))
	s.emitAudit(ctx, audit.Event{
		Action:       reviewAction(outcome),
		AccountID:    reviewed.AccountID.String(),
		SubmissionID: submissionID.String(),
		ActorID:      principal.ID.String(),
		Reason:       reason,
	})
	s.logger.InfoContext(ctx, "kyc submission reviewed",
		"submission_id", submissionID.String(),
		"account_id", reviewed.AccountID.String(),
		"outcome", string(outcome),
		"actor_id", principal.ID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)

	return reviewed, nil
}

func reviewAction(outcome domain.KYCStatus) audit.Action {
	switch outcome {
	case domain.KYCApproved:
		return audit.ActionKYCApproved
	case domain.KYCRejected:
		return audit.ActionKYCRejected
	default:
		return audit.ActionKYCMoreInfoRequested
	}
}

// Delete is the administrative override: it hard-removes the submission from
// any status. The account's moderation status is untouched; its kyc_status
// resets to NOT_SUBMITTED so the holder can start over.
func (s *Service) Delete(ctx context.Context, principal domain.Principal, submissionID domain.SubmissionID) error {
	if err := s.authorize(principal); err != nil {
		return err
	}

	var submission *kycmodels.Submission
	err := s.txr.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		submission, err = s.submissions.FindByID(ctx, submissionID)
		if err != nil {
			return wrapStoreErr(err)
		}
		if err := s.submissions.Delete(ctx, submissionID); err != nil {
			return wrapStoreErr(err)
		}
		return s.mirrorAccountStatus(ctx, submission.AccountID, domain.KYCNotSubmitted)
	})
	if err != nil {
		return err
	}

	s.emitAudit(ctx, audit.Event{
		Action:       audit.ActionKYCDeleted,
		AccountID:    submission.AccountID.String(),
		SubmissionID: submissionID.String(),
		ActorID:      principal.ID.String(),
	})
	s.logger.InfoContext(ctx, "kyc submission deleted",
		"submission_id", submissionID.String(),
		"account_id", submission.AccountID.String(),
		"actor_id", principal.ID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}
