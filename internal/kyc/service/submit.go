package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"gavel/internal/audit"
	kycmodels "gavel/internal/kyc/models"
	"gavel/pkg/domain"
	dErrors "gavel/pkg/domain-errors"
	"gavel/pkg/platform/sentinel"
	"gavel/pkg/requestcontext"
)

// Submit records the account holder's document set and moves the submission
// to PENDING. It creates the account's submission record on first use and
// doubles as resubmission after REJECTED or NEEDS_MORE_INFO. Ungated:
// ownership of the account is enforced at the transport layer, not here.
func (s *Service) Submit(ctx context.Context, accountID domain.AccountID, documentURLs []string) (*kycmodels.Submission, error) {
	if accountID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "account ID required")
	}
	if len(documentURLs) == 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "at least one document is required")
	}

	var submission *kycmodels.Submission
	err := s.txr.RunInTx(ctx, func(ctx context.Context) error {
		existing, err := s.submissions.FindByAccount(ctx, accountID)
		switch {
		case err == nil:
			if err := existing.CanSubmit(); err != nil {
				return wrapStoreErr(err)
			}
		case errors.Is(err, sentinel.ErrNotFound):
			existing = nil
		default:
			return wrapStoreErr(err)
		}

		// Mirror first: the account row also validates the account exists.
		if err := s.mirrorAccountStatus(ctx, accountID, domain.KYCPending); err != nil {
			return err
		}

		if existing == nil {
			submission = kycmodels.NewSubmission(domain.SubmissionID(uuid.New()), accountID, requestcontext.Now(ctx))
			submission.ApplySubmission(documentURLs, requestcontext.Now(ctx))
			if err := s.submissions.Create(ctx, submission); err != nil {
				return wrapStoreErr(err)
			}
			return nil
		}
		submission, err = s.submissions.Execute(ctx, existing.ID,
			func(sub *kycmodels.Submission) error { return sub.CanSubmit() },
			func(sub *kycmodels.Submission) {
				sub.ApplySubmission(documentURLs, requestcontext.Now(ctx))
			},
		)
		if err != nil {
			return wrapStoreErr(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emitAudit(ctx, audit.Event{
		Action:       audit.ActionKYCSubmitted,
		AccountID:    accountID.String(),
		SubmissionID: submission.ID.String(),
	})
	s.logger.InfoContext(ctx, "kyc documents submitted",
		"submission_id", submission.ID.String(),
		"account_id", accountID.String(),
		"documents", len(documentURLs),
		"request_id", requestcontext.RequestID(ctx),
	)

	return submission, nil
}
