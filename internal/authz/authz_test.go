package authz

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"gavel/pkg/domain"
)

func TestCapabilityAuthorizer(t *testing.T) {
	gate := NewCapabilityAuthorizer()
	moderator := domain.Principal{
		ID:           domain.PrincipalID(uuid.New()),
		Capabilities: []string{"manage:accounts", "approve:kyc"},
	}

	t.Run("allows granted capability", func(t *testing.T) {
		d := gate.Authorize(moderator, CapManageAccounts)
		assert.True(t, d.Allowed)
		assert.Empty(t, d.Reason)
	})

	t.Run("denies missing capability", func(t *testing.T) {
		d := gate.Authorize(moderator, CapTerminateAccounts)
		assert.False(t, d.Allowed)
		assert.Contains(t, d.Reason, "terminate:accounts")
	})

	t.Run("denies unauthenticated principal", func(t *testing.T) {
		d := gate.Authorize(domain.Principal{}, CapApproveKYC)
		assert.False(t, d.Allowed)
		assert.Equal(t, "unauthenticated", d.Reason)
	})
}
