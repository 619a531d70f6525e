// Package config provides configuration management for the dcauth CLI.
//
// Purpose:
//
//	Load configuration from environment variables and a config file using
//	Viper, with precedence: flags > environment variables > config file >
//	defaults.
//
// Configuration Sources:
//   - Environment variables: DCAUTH_* prefix (e.g., DCAUTH_API_ENDPOINT)
//   - Config file: ~/.datacendia/config.yaml (or explicit path)
//   - Command-line flags: take precedence over all other sources
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Session backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

// Config holds all CLI configuration.
type Config struct {
	// APIEndpoint is the base URL of the authentication service.
	APIEndpoint string

	// SessionBackend selects where tokens are persisted: "file" (default)
	// or "redis" for sessions shared across hosts.
	SessionBackend string
	// SessionDir is the directory for file-backed sessions.
	SessionDir string

	// Redis settings, used when SessionBackend is "redis".
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisNamespace string

	// Output settings.
	OutputFormat string // table, json
	LogLevel     string

	// ConfigFile is the resolved config file path, if one was read.
	ConfigFile string
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.APIEndpoint == "" {
		return fmt.Errorf("api endpoint is required")
	}
	switch c.SessionBackend {
	case BackendFile, BackendRedis:
	default:
		return fmt.Errorf("unknown session backend %q (expected %q or %q)", c.SessionBackend, BackendFile, BackendRedis)
	}
	switch c.OutputFormat {
	case "table", "json":
	default:
		return fmt.Errorf("unknown output format %q (expected table or json)", c.OutputFormat)
	}
	return nil
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("api.endpoint", "http://localhost:8089")
	v.SetDefault("session.backend", BackendFile)
	v.SetDefault("session.dir", "")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.namespace", "datacendia")
	v.SetDefault("defaults.output-format", "table")
	v.SetDefault("defaults.log-level", "warn")
}

// Load loads configuration from all sources with proper precedence.
func Load() (*Config, error) {
	v := viper.New()
	applyDefaults(v)

	v.SetEnvPrefix("DCAUTH")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".datacendia"))
	}
	v.AddConfigPath(".")
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{
		APIEndpoint:    v.GetString("api.endpoint"),
		SessionBackend: v.GetString("session.backend"),
		SessionDir:     v.GetString("session.dir"),
		RedisAddr:      v.GetString("redis.addr"),
		RedisPassword:  v.GetString("redis.password"),
		RedisDB:        v.GetInt("redis.db"),
		RedisNamespace: v.GetString("redis.namespace"),
		OutputFormat:   v.GetString("defaults.output-format"),
		LogLevel:       v.GetString("defaults.log-level"),
		ConfigFile:     v.ConfigFileUsed(),
	}
	return cfg, nil
}
