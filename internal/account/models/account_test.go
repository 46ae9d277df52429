package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gavel/pkg/domain"
	dErrors "gavel/pkg/domain-errors"
)

func newActiveAccount() *Account {
	identity := "idp|user-1"
	return New(domain.AccountID(uuid.New()), "bidder@example.com", &identity, time.Now())
}

func TestTerminationTransitions(t *testing.T) {
	now := time.Now()

	t.Run("active account can be terminated", func(t *testing.T) {
		acc := newActiveAccount()
		require.NoError(t, acc.CanTerminate())

		acc.ApplyTermination("fraud", false, now)
		assert.Equal(t, StatusTerminated, acc.Status)
		assert.Equal(t, "fraud", *acc.SuspensionReason)
		assert.False(t, acc.TerminatedPermanently)
	})

	t.Run("reversible termination can escalate to permanent", func(t *testing.T) {
		acc := newActiveAccount()
		acc.ApplyTermination("fraud", false, now)

		require.NoError(t, acc.CanTerminate())
		acc.ApplyTermination("repeat fraud", true, now)
		assert.True(t, acc.TerminatedPermanently)
	})

	t.Run("permanent termination is a terminal sink", func(t *testing.T) {
		acc := newActiveAccount()
		acc.ApplyTermination("policy violation", true, now)

		err := acc.CanTerminate()
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func TestReactivationTransitions(t *testing.T) {
	now := time.Now()

	t.Run("reversible termination can be reactivated", func(t *testing.T) {
		acc := newActiveAccount()
		acc.ApplyTermination("fraud", false, now)

		require.NoError(t, acc.CanReactivate())
		acc.ApplyReactivation(now)
		assert.Equal(t, StatusActive, acc.Status)
		assert.Nil(t, acc.SuspensionReason, "ACTIVE implies no suspension reason")
	})

	t.Run("permanent termination cannot be reactivated", func(t *testing.T) {
		acc := newActiveAccount()
		acc.ApplyTermination("policy violation", true, now)

		err := acc.CanReactivate()
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
		assert.Equal(t, StatusTerminated, acc.Status, "failed check leaves state unchanged")
	})

	t.Run("active account is already active", func(t *testing.T) {
		acc := newActiveAccount()
		require.Error(t, acc.CanReactivate())
	})
}

func TestSuspensionTransitions(t *testing.T) {
	now := time.Now()

	t.Run("active account can be suspended and reactivated", func(t *testing.T) {
		acc := newActiveAccount()
		require.NoError(t, acc.CanSuspend())
		acc.ApplySuspension("chargeback review", now)
		assert.Equal(t, StatusSuspended, acc.Status)

		require.NoError(t, acc.CanReactivate())
		acc.ApplyReactivation(now)
		assert.Equal(t, StatusActive, acc.Status)
	})

	t.Run("terminated account cannot be suspended", func(t *testing.T) {
		acc := newActiveAccount()
		acc.ApplyTermination("fraud", false, now)
		require.Error(t, acc.CanSuspend())
	})
}

func TestParseStatus(t *testing.T) {
	status, err := ParseStatus("SUSPENDED")
	require.NoError(t, err)
	assert.Equal(t, StatusSuspended, status)

	_, err = ParseStatus("suspended")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestClone(t *testing.T) {
	acc := newActiveAccount()
	acc.ApplySuspension("review", time.Now())

	clone := acc.Clone()
	*clone.SuspensionReason = "mutated"
	clone.Status = StatusTerminated

	assert.Equal(t, "review", *acc.SuspensionReason)
	assert.Equal(t, StatusSuspended, acc.Status)
}
