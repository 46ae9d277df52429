package domain

import (
	dErrors "gavel/pkg/domain-errors"
)

// KYCStatus is the review state of a KYC submission, mirrored onto the
// account record where the bidding gate reads it.
//
// Usage: construct via ParseKYCStatus at trust boundaries to enforce the
// closed set; direct casting bypasses validation.
type KYCStatus string

const (
	KYCNotSubmitted  KYCStatus = "NOT_SUBMITTED"
	KYCPending       KYCStatus = "PENDING"
	KYCApproved      KYCStatus = "APPROVED"
	KYCRejected      KYCStatus = "REJECTED"
	KYCNeedsMoreInfo KYCStatus = "NEEDS_MORE_INFO"
)

var kycStatuses = map[KYCStatus]struct{}{
	KYCNotSubmitted:  {},
	KYCPending:       {},
	KYCApproved:      {},
	KYCRejected:      {},
	KYCNeedsMoreInfo: {},
}

// ParseKYCStatus validates and returns a KYCStatus.
func ParseKYCStatus(s string) (KYCStatus, error) {
	status := KYCStatus(s)
	if _, ok := kycStatuses[status]; !ok {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown kyc status: %s", s)
	}
	return status, nil
}

func (s KYCStatus) String() string {
	return string(s)
}

// RequiresReason reports whether the status must carry a rejection reason.
// REJECTED and NEEDS_MORE_INFO share the reason field: "why rejected" for the
// former, "what is needed" for the latter.
func (s KYCStatus) RequiresReason() bool {
	return s == KYCRejected || s == KYCNeedsMoreInfo
}

// IsReviewOutcome reports whether the status is one a reviewer can assign.
func (s KYCStatus) IsReviewOutcome() bool {
	return s == KYCApproved || s == KYCRejected || s == KYCNeedsMoreInfo
}

// CanResubmit reports whether the account holder may resubmit from this state.
func (s KYCStatus) CanResubmit() bool {
	return s == KYCNotSubmitted || s == KYCRejected || s == KYCNeedsMoreInfo
}
