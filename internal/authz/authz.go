// Package authz is the permission gate. Every mutating operation in the
// moderation and KYC services calls Authorize before any side effect; a Denied
// decision aborts the operation with no partial authorization.
package authz

import (
	"gavel/pkg/domain"
)

// Capability is a named permission checked before a mutating operation.
type Capability string

const (
	CapManageAccounts    Capability = "manage:accounts"
	CapTerminateAccounts Capability = "terminate:accounts"
	CapManageCategories  Capability = "manage:categories"
	CapManageProducts    Capability = "manage:products"
	CapApproveKYC        Capability = "approve:kyc"
)

// Decision is the tagged result of an authorization check. Reason is only set
// when the check is denied.
type Decision struct {
	Allowed bool
	Reason  string
}

// Allowed is the affirmative decision.
func Allowed() Decision {
	return Decision{Allowed: true}
}

// Denied carries the reason a check failed.
func Denied(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// Authorizer decides whether a principal holds a capability. One
// implementation per auth provider; services depend on the interface only.
type Authorizer interface {
	Authorize(principal domain.Principal, capability Capability) Decision
}

// CapabilityAuthorizer grants based on the capability list carried by the
// principal's access token.
type CapabilityAuthorizer struct{}

func NewCapabilityAuthorizer() *CapabilityAuthorizer {
	return &CapabilityAuthorizer{}
}

func (a *CapabilityAuthorizer) Authorize(principal domain.Principal, capability Capability) Decision {
	if principal.IsNil() {
		return Denied("unauthenticated")
	}
	if !principal.HasCapability(string(capability)) {
		return Denied("missing capability " + string(capability))
	}
	return Allowed()
}
