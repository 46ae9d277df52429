package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures all environment-provided settings. main calls Load once and
// hands sub-structs to the components that need them.
type Config struct {
	Server ServerConfig
	Store  StoreConfig
	Redis  RedisConfig
	Kafka  KafkaConfig
	IdP    IdPConfig
}

// ServerConfig captures HTTP server level configuration.
type ServerConfig struct {
	Addr          string
	JWTSigningKey string
	AdminToken    string
}

// StoreConfig configures the account/KYC store backend. An empty URL selects
// the in-memory stores (dev and test only).
type StoreConfig struct {
	PostgresURL string
	Timeout     time.Duration
}

// RedisConfig configures the account view cache. Empty URL disables it.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the moderation audit publisher. Empty brokers keep
// audit events on the local store only.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

// IdPConfig configures the external identity provider management API.
// Domain empty means no IdP is wired (sync calls become no-ops); a configured
// domain without M2M credentials is a deployment mistake and fails startup.
type IdPConfig struct {
	Domain       string
	ClientID     string
	ClientSecret string
	Audience     string
	Timeout      time.Duration
}

// Configured reports whether an identity provider is wired at all.
func (c IdPConfig) Configured() bool {
	return c.Domain != ""
}

// Load builds Config from environment variables so main stays lean.
// It fails fast on configurations that would only surface as runtime errors
// mid-operation, like a configured IdP with missing credentials.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Addr:          envOr("GAVEL_ADDR", ":8080"),
			JWTSigningKey: envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			AdminToken:    os.Getenv("ADMIN_TOKEN"),
		},
		Store: StoreConfig{
			PostgresURL: os.Getenv("POSTGRES_URL"),
			Timeout:     envDuration("STORE_TIMEOUT", 5*time.Second),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:    splitNonEmpty(os.Getenv("KAFKA_BROKERS")),
			AuditTopic: envOr("KAFKA_AUDIT_TOPIC", "gavel.moderation.audit"),
		},
		IdP: IdPConfig{
			Domain:       strings.TrimRight(os.Getenv("IDP_DOMAIN"), "/"),
			ClientID:     os.Getenv("IDP_M2M_CLIENT_ID"),
			ClientSecret: os.Getenv("IDP_M2M_CLIENT_SECRET"),
			Audience:     os.Getenv("IDP_AUDIENCE"),
			// Deliberately shorter than the store timeout: the IdP call is
			// best-effort and must not stretch the request.
			Timeout: envDuration("IDP_TIMEOUT", 3*time.Second),
		},
	}

	if cfg.IdP.Configured() && (cfg.IdP.ClientID == "" || cfg.IdP.ClientSecret == "") {
		return Config{}, fmt.Errorf("IDP_DOMAIN is set but IDP_M2M_CLIENT_ID/IDP_M2M_CLIENT_SECRET are missing")
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
