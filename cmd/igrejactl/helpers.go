package main

import (
	"context"
	"fmt"
	"os"

	"igreja/internal/backend"
	"igreja/internal/cli"
	"igreja/internal/config"
	"igreja/internal/log"
	"igreja/internal/services"
)

type session struct {
	cfg     *config.Config
	logger  *log.Logger
	ledgers *services.LedgerService
	close   func() error
}

// openLedgers loads the configured ledgers. A degraded ledger is reported
// on stderr but reads still work.
func openLedgers(ctx context.Context) (*session, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := cli.SetupLoggerTo(os.Stderr, cfg.LogFormat, logLevel)

	opts := services.Options{Logger: logger}
	if pub := backend.NewFactory(logger.Logger).CreatePublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue); pub != nil {
		opts.Publisher = pub
	}
	ledgers, closeFn, err := cli.OpenLedgers(ctx, cfg, logger, opts)
	if err != nil {
		return nil, err
	}
	for name, cause := range ledgers.Degraded() {
		fmt.Fprintf(os.Stderr, "warning: %s is read-only: %v\n", name, cause)
	}
	return &session{cfg: cfg, logger: logger, ledgers: ledgers, close: closeFn}, nil
}

func (s *session) Close() {
	if err := s.close(); err != nil {
		s.logger.Error("Failed to close ledgers", log.FieldError, err)
	}
}
