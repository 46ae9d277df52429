package audit

import (
	"time"

	"github.com/google/uuid"
)

// Action names a moderation fact worth keeping.
type Action string

const (
	ActionAccountTerminated    Action = "account_terminated"
	ActionAccountSuspended     Action = "account_suspended"
	ActionAccountReactivated   Action = "account_reactivated"
	ActionIdentitySyncFailed   Action = "identity_sync_failed"
	ActionKYCSubmitted         Action = "kyc_submitted"
	ActionKYCApproved          Action = "kyc_approved"
	ActionKYCRejected          Action = "kyc_rejected"
	ActionKYCMoreInfoRequested Action = "kyc_more_info_requested"
	ActionKYCDeleted           Action = "kyc_deleted"
)

// Event is emitted from domain logic to capture key moderation actions. Keep
// it transport-agnostic so stores and sinks can fan out.
//
// identity_sync_failed events double as the reconciliation queue: Operation,
// IdentityID and Error carry everything a sweep needs to replay the sync.
type Event struct {
	ID           uuid.UUID `json:"id"`
	Action       Action    `json:"action"`
	Timestamp    time.Time `json:"timestamp"`
	AccountID    string    `json:"account_id,omitempty"`
	SubmissionID string    `json:"submission_id,omitempty"`
	// ActorID is the principal who performed the action, never the account
	// being moderated.
	ActorID    string `json:"actor_id,omitempty"`
	Operation  string `json:"operation,omitempty"`
	IdentityID string `json:"identity_id,omitempty"`
	Reason     string `json:"reason,omitempty"`
	Error      string `json:"error,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
	ClientIP   string `json:"client_ip,omitempty"`
	UserAgent  string `json:"user_agent,omitempty"`
}
