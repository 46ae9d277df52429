package models

import (
	"time"

	"gavel/pkg/domain"
	dErrors "gavel/pkg/domain-errors"
)

// Account is the platform-side record of a marketplace account. It is the
// authoritative source for the "may this account transact" decision; the
// external identity provider only mirrors suspension at the login edge.
//
// Invariants:
//   - TerminatedPermanently implies Status == TERMINATED, and no transition
//     out of TERMINATED is permitted once set
//   - Status == ACTIVE implies SuspensionReason == nil
//   - Version increases by one on every moderation write (first write wins,
//     concurrent writers observe a conflict)
//
// Accounts are created on first authentication via the identity provider and
// are never physically deleted: permanent termination retains the record for
// audit.
type Account struct {
	ID                    domain.AccountID `json:"id"`
	Email                 string           `json:"email"`
	ExternalIdentityID    *string          `json:"external_identity_id,omitempty"`
	Status                Status           `json:"status"`
	KYCStatus             domain.KYCStatus `json:"kyc_status"`
	SuspensionReason      *string          `json:"suspension_reason,omitempty"`
	TerminatedPermanently bool             `json:"terminated_permanently"`
	Version               int64            `json:"version"`
	CreatedAt             time.Time        `json:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at"`
}

// New creates an active account as it exists right after first login.
func New(accountID domain.AccountID, email string, externalIdentityID *string, now time.Time) *Account {
	return &Account{
		ID:                 accountID,
		Email:              email,
		ExternalIdentityID: externalIdentityID,
		Status:             StatusActive,
		KYCStatus:          domain.KYCNotSubmitted,
		Version:            1,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

func (a *Account) IsActive() bool {
	return a.Status == StatusActive
}

// CanTerminate checks whether the account can be terminated (again).
// Escalating a reversible termination to a permanent one is allowed; a
// permanent termination is a terminal sink.
func (a *Account) CanTerminate() error {
	if a.TerminatedPermanently {
		return dErrors.New(dErrors.CodeInvariantViolation, "account is already permanently terminated")
	}
	return nil
}

// ApplyTermination transitions the account to TERMINATED.
// Call CanTerminate first to validate the transition.
func (a *Account) ApplyTermination(reason string, permanent bool, now time.Time) {
	a.Status = StatusTerminated
	a.SuspensionReason = &reason
	a.TerminatedPermanently = permanent
	a.UpdatedAt = now
}

// CanSuspend checks whether the account can be suspended. Terminated accounts
// cannot be suspended; termination is the stronger state.
func (a *Account) CanSuspend() error {
	if a.TerminatedPermanently {
		return dErrors.New(dErrors.CodeInvariantViolation, "account is already permanently terminated")
	}
	if a.Status == StatusTerminated {
		return dErrors.New(dErrors.CodeInvariantViolation, "account is terminated")
	}
	return nil
}

// ApplySuspension transitions the account to SUSPENDED.
// Call CanSuspend first to validate the transition.
func (a *Account) ApplySuspension(reason string, now time.Time) {
	a.Status = StatusSuspended
	a.SuspensionReason = &reason
	a.UpdatedAt = now
}

// CanReactivate checks whether the account can return to ACTIVE. Permanent
// terminations never can: this is the hard edge that keeps the identity
// provider and the local store agreeing about reversibility.
func (a *Account) CanReactivate() error {
	if a.TerminatedPermanently {
		return dErrors.New(dErrors.CodeInvariantViolation, "cannot reactivate a permanent termination")
	}
	if a.Status == StatusActive {
		return dErrors.New(dErrors.CodeInvariantViolation, "account is already active")
	}
	return nil
}

// ApplyReactivation transitions the account to ACTIVE and clears the
// suspension reason, restoring the ACTIVE invariant.
// Call CanReactivate first to validate the transition.
func (a *Account) ApplyReactivation(now time.Time) {
	a.Status = StatusActive
	a.SuspensionReason = nil
	a.TerminatedPermanently = false
	a.UpdatedAt = now
}

// ApplyKYCStatus mirrors a review outcome onto the account record, where the
// bid-placement collaborator reads it.
func (a *Account) ApplyKYCStatus(status domain.KYCStatus, now time.Time) {
	a.KYCStatus = status
	a.UpdatedAt = now
}

// Clone returns a deep copy so store callers never share mutable state.
func (a *Account) Clone() *Account {
	clone := *a
	if a.SuspensionReason != nil {
		reason := *a.SuspensionReason
		clone.SuspensionReason = &reason
	}
	if a.ExternalIdentityID != nil {
		identity := *a.ExternalIdentityID
		clone.ExternalIdentityID = &identity
	}
	return &clone
}
