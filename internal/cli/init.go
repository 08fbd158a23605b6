// Package cli provides common CLI initialization utilities shared by
// cmd/igreja, cmd/igreja-worker and cmd/igrejactl.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"igreja/internal/backend"
	"igreja/internal/config"
	"igreja/internal/ledger"
	"igreja/internal/log"
	"igreja/internal/services"
)

// SetupLogger initializes structured logging from LOG_FORMAT and LOG_LEVEL
// style settings and sets it as the default logger.
func SetupLogger(format, level string) *log.Logger {
	return SetupLoggerTo(os.Stdout, format, level)
}

// SetupLoggerTo is SetupLogger writing to w. Command line tools log to
// stderr so their output stays clean.
func SetupLoggerTo(w io.Writer, format, level string) *log.Logger {
	logger := log.New(log.Config{
		Component: log.ComponentApp,
		Handler:   log.NewHandler(w, format, log.ParseLevel(level)),
	})
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration, sets up logging from it and
// validates it. Exits the process on validation failure.
func LoadAndValidateConfig() (*config.Config, *log.Logger) {
	cfg := config.Load()
	logger := SetupLogger(cfg.LogFormat, cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg, logger
}

// OpenLedgers creates the configured backend and a loaded ledger service.
// Load errors are logged; a degraded ledger does not stop the process.
func OpenLedgers(ctx context.Context, cfg *config.Config, logger *log.Logger, opts services.Options) (*services.LedgerService, backend.CleanupFunc, error) {
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	res, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, bc)
	if err != nil {
		return nil, nil, fmt.Errorf("create %s backend: %w", bc.Type, err)
	}

	if opts.Logger == nil {
		opts.Logger = logger
	}
	if opts.Year == 0 {
		opts.Year = cfg.ReportYear
	}
	store := ledger.NewStore(res.Backend, backend.RosterFromAppConfig(cfg), logger)
	svc := services.NewLedgerService(store, opts)
	if err := svc.Load(ctx); err != nil {
		logger.ErrorContext(ctx, "Ledger loaded in degraded mode", log.FieldError, err, log.FieldBackend, bc.Type.String())
	}

	cleanup := func() error {
		var errs []error
		if err := svc.Close(); err != nil {
			errs = append(errs, err)
		}
		if res.Cleanup != nil {
			if err := res.Cleanup(); err != nil {
				errs = append(errs, err)
			}
		}
		if len(errs) > 0 {
			return fmt.Errorf("close ledgers: %v", errs)
		}
		return nil
	}
	return svc, cleanup, nil
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *slog.Logger, timeout time.Duration, cleanup func()) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()

		if cleanup != nil {
			cleanup()
		}

		select {
		case <-shutdownCtx.Done():
			logger.Warn("Shutdown timeout reached")
		default:
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
