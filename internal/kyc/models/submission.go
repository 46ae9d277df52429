package models

import (
	"time"

	"gavel/pkg/domain"
	dErrors "gavel/pkg/domain-errors"
)

// Submission is an account's KYC record. Exactly one per account; review
// outcomes are mirrored onto the account record, which is what the bidding
// gate actually reads.
//
// Invariants:
//   - Status in {REJECTED, NEEDS_MORE_INFO} implies RejectionReason non-empty
//   - reviews are only valid from PENDING; re-reviewing a decided submission
//     is a conflict, never a silent success
type Submission struct {
	ID        domain.SubmissionID `json:"id"`
	AccountID domain.AccountID    `json:"account_id"`
	Status    domain.KYCStatus    `json:"status"`
	// RejectionReason carries "why rejected" for REJECTED and "what is
	// needed" for NEEDS_MORE_INFO.
	RejectionReason *string             `json:"rejection_reason,omitempty"`
	ReviewedBy      *domain.PrincipalID `json:"reviewed_by,omitempty"`
	DocumentURLs    []string            `json:"document_urls"`
	Version         int64               `json:"version"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// NewSubmission creates the account's submission record before any documents
// are submitted.
func NewSubmission(submissionID domain.SubmissionID, accountID domain.AccountID, now time.Time) *Submission {
	return &Submission{
		ID:        submissionID,
		AccountID: accountID,
		Status:    domain.KYCNotSubmitted,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CanSubmit checks whether the holder may (re)submit documents for review.
// PENDING blocks a duplicate submission while review is in flight; APPROVED
// is final.
func (s *Submission) CanSubmit() error {
	if !s.Status.CanResubmit() {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "submission is %s and cannot be resubmitted", s.Status)
	}
	return nil
}

// ApplySubmission moves the submission to PENDING with a fresh document set,
// clearing any previous review outcome.
// Call CanSubmit first to validate the transition.
func (s *Submission) ApplySubmission(documentURLs []string, now time.Time) {
	s.Status = domain.KYCPending
	s.DocumentURLs = append([]string(nil), documentURLs...)
	s.RejectionReason = nil
	s.ReviewedBy = nil
	s.UpdatedAt = now
}

// CanReview checks that the submission is awaiting review.
func (s *Submission) CanReview() error {
	if s.Status != domain.KYCPending {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "submission is %s, not pending review", s.Status)
	}
	return nil
}

// ApplyReview records a reviewer's decision. reason is required for REJECTED
// and NEEDS_MORE_INFO and ignored for APPROVED.
// Call CanReview first to validate the transition.
func (s *Submission) ApplyReview(outcome domain.KYCStatus, reviewer domain.PrincipalID, reason string, now time.Time) {
	s.Status = outcome
	s.ReviewedBy = &reviewer
	if outcome.RequiresReason() {
		s.RejectionReason = &reason
	} else {
		s.RejectionReason = nil
	}
	s.UpdatedAt = now
}

// Clone returns a deep copy so store callers never share mutable state.
func (s *Submission) Clone() *Submission {
	clone := *s
	if s.RejectionReason != nil {
		reason := *s.RejectionReason
		clone.RejectionReason = &reason
	}
	if s.ReviewedBy != nil {
		reviewer := *s.ReviewedBy
		clone.ReviewedBy = &reviewer
	}
	clone.DocumentURLs = append([]string(nil), s.DocumentURLs...)
	return &clone
}
