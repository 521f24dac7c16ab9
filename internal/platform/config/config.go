package config

import (
	"os"
	"strings"
	"time"
)

// Config captures process-level configuration. All fields are optional except
// Addr; unset backends disable the corresponding integration (memory stores,
// no cache, no audit stream).
type Config struct {
	Addr          string
	PostgresDSN   string
	RedisURL      string
	KafkaBrokers  []string
	AuditTopic    string
	CircuitDir    string
	JWTSigningKey string
}

// RequestTTL bounds the lifetime of a verification request handshake.
var RequestTTL = 10 * time.Minute

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	addr := os.Getenv("PROOF_GATEWAY_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	topic := os.Getenv("AUDIT_TOPIC")
	if topic == "" {
		topic = "proof-gateway.audit"
	}

	circuitDir := os.Getenv("CIRCUIT_DIR")
	if circuitDir == "" {
		circuitDir = "circuits"
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}

	return Config{
		Addr:          addr,
		PostgresDSN:   os.Getenv("POSTGRES_DSN"),
		RedisURL:      os.Getenv("REDIS_URL"),
		KafkaBrokers:  brokers,
		AuditTopic:    topic,
		CircuitDir:    circuitDir,
		JWTSigningKey: os.Getenv("JWT_SIGNING_KEY"),
	}
}
