// Package commands implements the dcauth subcommands.
//
// Every command follows the same shape: load configuration, apply flag
// overrides, open the session store, wire the controller, run one operation,
// and render the result as a table or JSON.
package commands

import (
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/datacendia/datacendia-go/internal/cli/config"
	clierrors "github.com/datacendia/datacendia-go/internal/cli/errors"
	"github.com/datacendia/datacendia-go/internal/logging"
	"github.com/datacendia/datacendia-go/pkg/authapi"
	"github.com/datacendia/datacendia-go/pkg/authsession"
	"github.com/datacendia/datacendia-go/pkg/sessionstore"
)

// commonFlags are the overrides accepted by every subcommand.
type commonFlags struct {
	endpoint string
	format   string
}

// runtime bundles the pieces a command needs to run one operation.
type runtime struct {
	cfg        *config.Config
	store      sessionstore.Store
	controller *authsession.Controller
	logger     *zap.Logger
}

// close releases the controller and store in dependency order.
func (rt *runtime) close() {
	rt.controller.Close()
	if err := rt.store.Close(); err != nil {
		rt.logger.Debug("close session store", zap.Error(err))
	}
	_ = rt.logger.Sync()
}

// loadConfig loads the CLI configuration and applies flag overrides.
func loadConfig(flags commonFlags) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, clierrors.NewOperationError(
			fmt.Sprintf("failed to load configuration: %v", err),
			"Check ~/.datacendia/config.yaml and DCAUTH_* environment variables.",
		)
	}
	if flags.endpoint != "" {
		cfg.APIEndpoint = flags.endpoint
	}
	if flags.format != "" {
		cfg.OutputFormat = flags.format
	}
	if err := cfg.Validate(); err != nil {
		return nil, clierrors.NewValidationError(err.Error(), "Fix the configuration value and retry.")
	}
	return cfg, nil
}

// openStore opens the configured session backend.
func openStore(cfg *config.Config) (sessionstore.Store, error) {
	switch cfg.SessionBackend {
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		store, err := sessionstore.NewRedisStore(client, cfg.RedisNamespace)
		if err != nil {
			_ = client.Close()
			return nil, clierrors.NewServiceUnavailableError(cfg.RedisAddr)
		}
		return store, nil
	default:
		dir := cfg.SessionDir
		if dir == "" {
			var err error
			dir, err = sessionstore.DefaultDir()
			if err != nil {
				return nil, clierrors.NewOperationError(
					fmt.Sprintf("cannot resolve session directory: %v", err),
					"Set session.dir in the config file or DCAUTH_SESSION_DIR.",
				)
			}
		}
		store, err := sessionstore.NewFileStore(dir)
		if err != nil {
			return nil, clierrors.NewOperationError(
				fmt.Sprintf("cannot open session store in %s: %v", dir, err),
				"Check directory permissions.",
			)
		}
		return store, nil
	}
}

// newRuntime assembles store, API client, and controller from configuration.
func newRuntime(flags commonFlags) (*runtime, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(logging.DefaultConfig().
		WithServiceName("dcauth").
		WithLogLevel(cfg.LogLevel))
	if err != nil {
		return nil, clierrors.NewOperationError(fmt.Sprintf("cannot initialize logging: %v", err), "")
	}

	store, err := openStore(cfg)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}

	client := authapi.NewClient(cfg.APIEndpoint, store)
	controller := authsession.New(client, store, authsession.WithLogger(logger))

	return &runtime{cfg: cfg, store: store, controller: controller, logger: logger}, nil
}

// readSecret reads a value from the environment variable or, failing that,
// prompts on stdin. Used for passwords so they never have to appear in shell
// history.
func readSecret(envVar, prompt string) (string, error) {
	if v := os.Getenv(envVar); v != "" {
		return v, nil
	}
	fmt.Fprint(os.Stderr, prompt)
	var value string
	if _, err := fmt.Fscanln(os.Stdin, &value); err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return value, nil
}
