// Package config provides environment variable-based configuration loading.
//
// Purpose:
//
//	Defines the identity-stub configuration structure and loads it from
//	environment variables using envconfig. The dcauth CLI has its own
//	viper-backed configuration; this package covers the server side only.
//
// Thread Safety:
//   - Config struct is read-only after loading (safe for concurrent read access)
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Config represents runtime configuration for the identity stub.
// All fields are populated from environment variables with defaults where
// specified.
type Config struct {
	// ServiceName is emitted in logs and metrics.
	ServiceName string `envconfig:"SERVICE_NAME" default:"identity-stub"`
	// HTTPPort is the port the HTTP server listens on.
	HTTPPort int `envconfig:"HTTP_PORT" default:"8089"`
	// LogLevel controls zap verbosity (debug, info, warn, error).
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	// Environment describes the current deployment environment.
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	// JWTSecret signs the access tokens the stub issues. A built-in
	// development secret is used when unset.
	JWTSecret string `envconfig:"JWT_SECRET" default:"datacendia-dev-secret-do-not-use-in-prod"`
	// AccessTokenTTLMinutes is the lifetime of issued access tokens.
	AccessTokenTTLMinutes int `envconfig:"ACCESS_TOKEN_TTL_MINUTES" default:"60"`
	// SeedUsers enables the built-in demo accounts.
	SeedUsers bool `envconfig:"SEED_USERS" default:"true"`
	// KafkaBrokers is a comma-separated list of Kafka broker addresses.
	// If empty, audit events are written to the log instead of Kafka.
	KafkaBrokers string `envconfig:"KAFKA_BROKERS" default:""`
	// KafkaTopic is the Kafka topic name for audit events.
	KafkaTopic string `envconfig:"KAFKA_TOPIC" default:"audit.identity"`
	// KafkaClientID is the client ID used when connecting to Kafka.
	KafkaClientID string `envconfig:"KAFKA_CLIENT_ID" default:"identity-stub"`
}

// BrokerList splits KafkaBrokers into individual addresses.
func (c *Config) BrokerList() []string {
	if c.KafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.KafkaBrokers, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}

// Load reads environment variables into Config, applying defaults where
// necessary.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: process env: %w", err)
	}
	return &cfg, nil
}

// MustLoad returns Config or exits the process.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}
