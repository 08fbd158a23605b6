package backend

import (
	"context"
	"fmt"
	"log/slog"

	"igreja/internal/amqp"
	"igreja/internal/ledger/csvfile"
	gsheet "igreja/internal/ledger/google"
	"igreja/internal/ledger/memory"
	"igreja/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) *DefaultFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

var _ Factory = (*DefaultFactory)(nil)

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case CSVBackend:
		return f.createCSVBackend(config)
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case SheetsBackend:
		return f.createSheetsBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createCSVBackend(config Config) (*BackendResult, error) {
	store := csvfile.New(config.TitheFile, config.AttendanceFile)

	tithePath, attendancePath := store.Paths()
	f.logger.Info("Initialized CSV backend",
		"tithe_file", tithePath,
		"attendance_file", attendancePath)

	return &BackendResult{Backend: store}, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	sqliteRepo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Backend: sqliteRepo,
		Cleanup: sqliteRepo.Close,
	}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	cli, err := f.CreateSheetsClient(ctx, config)
	if err != nil {
		return nil, err
	}

	titheSheet, attendanceSheet := cli.SheetNames()
	f.logger.Info("Initialized Google Sheets backend",
		"spreadsheet_id", config.GoogleSpreadsheetID,
		"tithe_sheet", titheSheet,
		"attendance_sheet", attendanceSheet)

	return &BackendResult{Backend: cli}, nil
}

// CreateSheetsClient returns the spreadsheet store, used both as a primary
// backend and as the worker's mirror.
func (f *DefaultFactory) CreateSheetsClient(ctx context.Context, config Config) (*gsheet.Client, error) {
	cli, err := gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:   config.GoogleSpreadsheetID,
		TitheSheet:      config.GoogleTitheSheet,
		AttendanceSheet: config.GoogleAttendanceSheet,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	return cli, nil
}

func (f *DefaultFactory) createMemoryBackend() (*BackendResult, error) {
	f.logger.Warn("Initialized memory backend, ledgers are lost on exit")
	return &BackendResult{Backend: memory.New()}, nil
}

// CreatePublisher connects to the broker when url is set. A broker that
// cannot be reached is logged and yields nil: events are optional.
func (f *DefaultFactory) CreatePublisher(url, exchange, queue string) *amqp.Client {
	if url == "" {
		return nil
	}
	client, err := amqp.NewClient(url, exchange, queue)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
		return nil
	}
	f.logger.Info("Initialized AMQP client",
		"exchange", exchange,
		"queue", queue)
	return client
}
