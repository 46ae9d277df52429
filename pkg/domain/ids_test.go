package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "gavel/pkg/domain-errors"
)

// TestParseAccountID_Invariants validates the parsing invariant:
// IDs must be valid, non-empty, non-nil UUIDs.
func TestParseAccountID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseAccountID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseAccountID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseAccountID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		valid := uuid.New()
		id, err := ParseAccountID(valid.String())
		require.NoError(t, err)
		assert.Equal(t, AccountID(valid), id)
	})
}

// TestTypeDistinction verifies the compiler enforces type safety between ID
// kinds. If this compiles, the invariant holds.
func TestTypeDistinction(t *testing.T) {
	accountID := AccountID(uuid.New())
	submissionID := SubmissionID(uuid.New())

	// These would fail to compile if the types were interchangeable:
	// var _ AccountID = submissionID   // compile error
	// var _ SubmissionID = accountID   // compile error

	assert.NotEqual(t, uuid.UUID(accountID), uuid.UUID(submissionID))
}

func TestPrincipalCapabilities(t *testing.T) {
	p := Principal{
		ID:           PrincipalID(uuid.New()),
		Capabilities: []string{"manage:accounts", "approve:kyc"},
	}

	assert.True(t, p.HasCapability("approve:kyc"))
	assert.False(t, p.HasCapability("terminate:accounts"))
	assert.False(t, Principal{}.HasCapability("manage:accounts"))
	assert.True(t, Principal{}.IsNil())
	assert.False(t, p.IsNil())
}
