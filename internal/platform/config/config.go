// Package config builds service configuration from the environment so main
// stays lean. A .env file is honored when present (dev convenience).
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config captures everything the server needs to wire itself.
type Config struct {
	Addr string

	// PostgresURL selects the durable stores. Empty means in-memory stores
	// (dev and unit-test wiring).
	PostgresURL string

	// RedisURL enables the tally cache. Empty disables caching; tallies are
	// always recomputable without it.
	RedisURL string

	// KafkaBrokers enables the kafka audit sink. Empty keeps audit events on
	// the in-process store only.
	KafkaBrokers []string
	AuditTopic   string

	JWTSigningKey string

	// VoteHashSecret keys the HMAC over vote receipts. Must be stable across
	// restarts or previously issued receipts stop verifying.
	VoteHashSecret string

	AuditBuffer int

	// SeedAdminUserID bootstraps the first admin so role assignment is not a
	// chicken-and-egg problem on a fresh deployment.
	SeedAdminUserID string

	ShutdownTimeout time.Duration
}

// FromEnv builds a Config from environment variables, loading .env first if
// one exists.
func FromEnv() Config {
	_ = godotenv.Load()

	cfg := Config{
		Addr:            envOr("CIVITAS_ADDR", ":8080"),
		PostgresURL:     os.Getenv("CIVITAS_POSTGRES_URL"),
		RedisURL:        os.Getenv("CIVITAS_REDIS_URL"),
		AuditTopic:      envOr("CIVITAS_AUDIT_TOPIC", "civitas.audit"),
		JWTSigningKey:   envOr("CIVITAS_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		VoteHashSecret:  envOr("CIVITAS_VOTE_HASH_SECRET", "dev-vote-hash-secret"),
		AuditBuffer:     envIntOr("CIVITAS_AUDIT_BUFFER", 256),
		SeedAdminUserID: os.Getenv("CIVITAS_SEED_ADMIN_USER_ID"),
		ShutdownTimeout: 10 * time.Second,
	}
	if brokers := os.Getenv("CIVITAS_KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
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
