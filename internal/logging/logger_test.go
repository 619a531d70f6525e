package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{"valid config", Config{ServiceName: "dcauth", Environment: "development", LogLevel: "info", OutputPath: "stderr"}},
		{"default config", DefaultConfig().WithServiceName("dcauth")},
		{"invalid log level defaults to info", Config{ServiceName: "dcauth", LogLevel: "loud", OutputPath: "stderr"}},
		{"production json", Config{ServiceName: "identity-stub", Environment: "production", LogLevel: "warn", OutputPath: "stdout"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.config)
			require.NoError(t, err)
			require.NotNil(t, logger)
			_ = logger.Sync()
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"DEBUG", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"invalid", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLogLevel(tt.input), "parseLogLevel(%q)", tt.input)
	}
}

func TestNewRejectsUnwritableOutput(t *testing.T) {
	_, err := New(Config{ServiceName: "dcauth", OutputPath: "/proc/definitely/not/writable"})
	assert.Error(t, err)
}
