// Command identity-stub runs the development identity service.
//
// Purpose:
//
//	A self-contained stand-in for the platform authentication service,
//	serving the /auth envelope contract with an in-memory user store.
//	Intended for local development and integration testing of dcauth and
//	SDK consumers; it holds no durable state.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/zap"

	"github.com/datacendia/datacendia-go/internal/audit"
	"github.com/datacendia/datacendia-go/internal/config"
	"github.com/datacendia/datacendia-go/internal/logging"
	"github.com/datacendia/datacendia-go/internal/stub"
)

func main() {
	cfg := config.MustLoad()

	logger := logging.MustNew(logging.DefaultConfig().
		WithServiceName(cfg.ServiceName).
		WithLogLevel(cfg.LogLevel))
	defer logger.Sync() //nolint:errcheck

	emitter, cleanup := buildEmitter(cfg, logger)
	defer cleanup()

	users := stub.NewUserStore()
	if cfg.SeedUsers {
		if err := users.Seed(); err != nil {
			logger.Fatal("seed users", zap.Error(err))
		}
		logger.Info("demo accounts seeded", zap.Int("count", users.Count()))
	}

	tokens := stub.NewTokenIssuer(cfg.JWTSecret, time.Duration(cfg.AccessTokenTTLMinutes)*time.Minute)

	server := stub.NewServer(stub.Options{
		Logger:  logger,
		Users:   users,
		Tokens:  tokens,
		Auditor: emitter,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	logger.Info("identity stub listening", zap.String("addr", addr))
	if err := server.ListenAndServe(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server failed", zap.Error(err))
	}
	logger.Info("identity stub stopped")
}

// buildEmitter selects the audit backend: Kafka when brokers are configured,
// the structured log otherwise.
func buildEmitter(cfg *config.Config, logger *zap.Logger) (audit.Emitter, func()) {
	brokers := cfg.BrokerList()
	if len(brokers) == 0 {
		zl := zerolog.New(os.Stderr).With().Timestamp().Logger()
		return audit.NewLoggerEmitter(zl), func() {}
	}

	emitter := audit.NewKafkaEmitter(audit.KafkaConfig{
		Brokers:  brokers,
		Topic:    cfg.KafkaTopic,
		ClientID: cfg.KafkaClientID,
	})
	logger.Info("audit events routed to kafka",
		zap.Strings("brokers", brokers),
		zap.String("topic", cfg.KafkaTopic))
	return emitter, func() {
		if err := emitter.Close(); err != nil {
			logger.Warn("close kafka emitter", zap.Error(err))
		}
	}
}
