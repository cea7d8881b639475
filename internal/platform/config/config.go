package config

import (
	"os"
	"strings"
	"time"
)

// Server captures environment-driven configuration so main stays lean.
type Server struct {
	Addr          string
	JWTSigningKey string

	// DatabaseURL selects the PostgreSQL store; empty means in-memory stores
	// (development and tests only).
	DatabaseURL string

	// RedisURL enables the verification-code lookup cache; empty disables it.
	RedisURL string

	// KafkaBrokers enables the async verification-log pipeline; empty
	// disables Kafka publishing and log entries are persisted directly.
	KafkaBrokers []string
	KafkaTopic   string

	StoreTimeout time.Duration
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	cfg := Server{
		Addr:          getenv("CERTVERIFY_ADDR", ":8080"),
		JWTSigningKey: getenv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),
		KafkaTopic:    getenv("KAFKA_AUDIT_TOPIC", "certverify.verification-logs"),
		StoreTimeout:  5 * time.Second,
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	if timeout := os.Getenv("STORE_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.StoreTimeout = d
		}
	}

	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
