package idp

import "fmt"

// SyncError is the single error variant the adapter returns. Every failure to
// mirror a moderation action at the identity provider is recoverable: the
// orchestrator logs it for reconciliation and never fails the operation on it.
// Carrying operation and identity here is what makes that log entry useful.
type SyncError struct {
	Operation  string
	IdentityID string
	StatusCode int // zero when the request never got a response
	Err        error
}

func (e *SyncError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("idp %s for identity %s: status %d", e.Operation, e.IdentityID, e.StatusCode)
	}
	return fmt.Sprintf("idp %s for identity %s: %v", e.Operation, e.IdentityID, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }
