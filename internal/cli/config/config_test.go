package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir()) // isolate from a real ~/.datacendia/config.yaml

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8089", cfg.APIEndpoint)
	assert.Equal(t, BackendFile, cfg.SessionBackend)
	assert.Equal(t, "table", cfg.OutputFormat)
	assert.Equal(t, "datacendia", cfg.RedisNamespace)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("DCAUTH_API_ENDPOINT", "https://api.datacendia.com")
	t.Setenv("DCAUTH_SESSION_BACKEND", "redis")
	t.Setenv("DCAUTH_REDIS_ADDR", "redis.internal:6380")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://api.datacendia.com", cfg.APIEndpoint)
	assert.Equal(t, BackendRedis, cfg.SessionBackend)
	assert.Equal(t, "redis.internal:6380", cfg.RedisAddr)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"missing endpoint", func(c *Config) { c.APIEndpoint = "" }, "endpoint"},
		{"unknown backend", func(c *Config) { c.SessionBackend = "s3" }, "backend"},
		{"unknown format", func(c *Config) { c.OutputFormat = "xml" }, "format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				APIEndpoint:    "http://localhost:8089",
				SessionBackend: BackendFile,
				OutputFormat:   "table",
			}
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
