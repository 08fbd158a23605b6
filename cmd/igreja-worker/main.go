package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"igreja/internal/amqp"
	"igreja/internal/backend"
	"igreja/internal/cli"
	"igreja/internal/log"
	"igreja/internal/metrics"
	"igreja/internal/worker"
)

// The worker mirrors the primary ledger store to Google Sheets. It reacts
// to ledger.saved events and runs a full mirror at startup and on every
// SYNC_INTERVAL tick as a backstop for lost messages.
func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig()
	logger = logger.WithComponent(log.ComponentWorker)
	logger.Info("Starting igreja-worker")

	if cfg.GoogleSpreadsheetID == "" {
		logger.Error("GOOGLE_SPREADSHEET_ID is required for the mirror worker")
		os.Exit(1)
	}
	if cfg.DataBackend == string(backend.SheetsBackend) {
		logger.Error("Primary backend is already Google Sheets, nothing to mirror")
		os.Exit(1)
	}

	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	factory := backend.NewFactory(logger.Logger)

	ctx, done := cli.GracefulShutdown(logger.Logger, 30*time.Second, nil)

	source, err := factory.CreateBackend(ctx, bc)
	if err != nil {
		logger.Error("Failed to open primary backend", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if source.Cleanup != nil {
			_ = source.Cleanup()
		}
	}()

	mirror, err := factory.CreateSheetsClient(ctx, bc)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Google Sheets mirror initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
		go serveMetrics(ctx, logger, ":"+cfg.Port, m)
	}

	w := worker.NewMirrorWorker(source.Backend, mirror, logger, m)

	logger.Info("Performing startup mirror")
	if err := w.MirrorAll(ctx); err != nil {
		// keep running: the periodic mirror retries
		logger.Error("Startup mirror failed", log.FieldError, err)
	}

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer client.Close()

		go func() {
			err := client.ConsumeLedgerSaved(ctx, w.HandleLedgerSaved)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", log.FieldError, err)
			}
		}()
	} else {
		logger.Info("AMQP_URL not set, relying on periodic mirror only")
	}

	go w.RunPeriodic(ctx, cfg.SyncInterval)

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}

func serveMetrics(ctx context.Context, logger *log.Logger, addr string, m *metrics.Metrics) {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Warn("Metrics server stopped", log.FieldError, err)
	}
}
