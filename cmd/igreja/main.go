package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"igreja/internal/auth"
	"igreja/internal/backend"
	"igreja/internal/cache"
	"igreja/internal/cli"
	"igreja/internal/config"
	apphttp "igreja/internal/http"
	"igreja/internal/log"
	"igreja/internal/metrics"
	"igreja/internal/middleware/ratelimit"
	"igreja/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig()

	authn, err := newAuthenticator(cfg)
	if err != nil {
		logger.Error("Failed to initialize admin access", log.FieldError, err)
		os.Exit(1)
	}
	if !authn.Enabled() {
		logger.Warn("No admin code configured, editing is disabled")
	}

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}

	cacheManager := cache.NewManager()
	cacheManager.StartCleanup(10 * time.Minute)

	opts := services.Options{Purger: cacheManager, Metrics: m, Logger: logger}
	if pub := backend.NewFactory(logger.Logger).CreatePublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue); pub != nil {
		opts.Publisher = pub
	}

	ledgers, closeLedgers, err := cli.OpenLedgers(context.Background(), cfg, logger, opts)
	if err != nil {
		logger.Error("Failed to open ledgers", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}

	srv := apphttp.NewServer(apphttp.Options{
		Addr:          ":" + cfg.Port,
		Ledgers:       ledgers,
		Auth:          authn,
		Metrics:       m,
		Logger:        logger,
		Cache:         cacheManager,
		Year:          cfg.ReportYear,
		TitheWindow:   cfg.TitheWindow,
		RollingWindow: cfg.RollingWindow,
		SecureCookie:  cfg.CookieSecure,
		LoginLimit:    ratelimit.DefaultConfig(),

		TrustedProxies: cfg.TrustedProxies,
	})
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger.Logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cacheManager.Stop()
		if err := closeLedgers(); err != nil {
			logger.Error("Failed to close ledgers", log.FieldError, err)
		}
	})

	logger.Info("Starting igreja server",
		"port", cfg.Port,
		log.FieldBackend, cfg.DataBackend,
		log.FieldYear, cfg.ReportYear,
		"admin", authn.Enabled(),
		"events", opts.Publisher != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}

// newAuthenticator prefers the stored hash; a plaintext ADMIN_CODE is
// hashed at startup so it is never compared directly.
func newAuthenticator(cfg *config.Config) (*auth.Authenticator, error) {
	hash := cfg.AdminCodeHash
	if hash == "" && cfg.AdminCode != "" {
		h, err := auth.HashCode(cfg.AdminCode)
		if err != nil {
			return nil, err
		}
		hash = h
	}
	return auth.New(hash, []byte(cfg.SessionSecret), cfg.SessionTTL)
}
