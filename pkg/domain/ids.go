// Package domain holds the typed identifiers shared across features.
//
// IDs are distinct named UUID types so the compiler rejects cross-assignment
// (an AccountID can never be passed where a SubmissionID is expected).
// Construct them via the Parse* functions at trust boundaries; direct casting
// bypasses validation.
package domain

import (
	"github.com/google/uuid"

	dErrors "gavel/pkg/domain-errors"
)

// AccountID identifies a marketplace account.
type AccountID uuid.UUID

// SubmissionID identifies a KYC submission.
type SubmissionID uuid.UUID

// PrincipalID identifies the acting principal (staff or account holder).
type PrincipalID uuid.UUID

func (id AccountID) String() string    { return uuid.UUID(id).String() }
func (id SubmissionID) String() string { return uuid.UUID(id).String() }
func (id PrincipalID) String() string  { return uuid.UUID(id).String() }

func (id AccountID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id SubmissionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id PrincipalID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }

// ParseAccountID validates and returns an AccountID.
func ParseAccountID(s string) (AccountID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return AccountID{}, err
	}
	return AccountID(u), nil
}

// ParseSubmissionID validates and returns a SubmissionID.
func ParseSubmissionID(s string) (SubmissionID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return SubmissionID{}, err
	}
	return SubmissionID(u), nil
}

// ParsePrincipalID validates and returns a PrincipalID.
func ParsePrincipalID(s string) (PrincipalID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return PrincipalID{}, err
	}
	return PrincipalID(u), nil
}

// parseUUID enforces the shared invariant: IDs must be valid, non-nil UUIDs.
func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must be a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil UUID")
	}
	return u, nil
}
