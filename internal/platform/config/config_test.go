package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Store.Timeout)
	assert.False(t, cfg.IdP.Configured())
	assert.Equal(t, "gavel.moderation.audit", cfg.Kafka.AuditTopic)
}

func TestLoadFailsFastOnPartialIdPCredentials(t *testing.T) {
	t.Setenv("IDP_DOMAIN", "https://auth.example.com")
	t.Setenv("IDP_M2M_CLIENT_ID", "client")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IDP_M2M_CLIENT_SECRET")
}

func TestLoadIdPConfigured(t *testing.T) {
	t.Setenv("IDP_DOMAIN", "https://auth.example.com/")
	t.Setenv("IDP_M2M_CLIENT_ID", "client")
	t.Setenv("IDP_M2M_CLIENT_SECRET", "secret")
	t.Setenv("IDP_TIMEOUT", "1500ms")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IdP.Configured())
	assert.Equal(t, "https://auth.example.com", cfg.IdP.Domain, "trailing slash stripped")
	assert.Equal(t, 1500*time.Millisecond, cfg.IdP.Timeout)
}

func TestKafkaBrokersSplit(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "broker-1:9092, broker-2:9092,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.Kafka.Brokers)
}
