package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"igreja/internal/amqp"
	"igreja/internal/ledger"
	"igreja/internal/log"
	"igreja/internal/metrics"
)

var ErrUnknownLedger = errors.New("unknown ledger")

// MirrorWorker copies ledgers from the primary store to a mirror, usually
// the Google Sheets spreadsheet. It never writes to the primary store.
type MirrorWorker struct {
	source  ledger.Backend
	mirror  ledger.Backend
	logger  *log.Logger
	metrics *metrics.Metrics
}

func NewMirrorWorker(source, mirror ledger.Backend, logger *log.Logger, m *metrics.Metrics) *MirrorWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &MirrorWorker{
		source:  source,
		mirror:  mirror,
		logger:  logger.WithComponent(log.ComponentWorker),
		metrics: m,
	}
}

// HandleLedgerSaved processes a single ledger.saved message from AMQP
func (w *MirrorWorker) HandleLedgerSaved(ctx context.Context, msg *amqp.LedgerSavedMessage) error {
	w.logger.InfoContext(ctx, "Processing ledger saved message",
		log.FieldEventID, msg.ID,
		log.FieldLedger, msg.Ledger,
		log.FieldOperation, msg.Operation)

	err := w.MirrorLedger(ctx, ledger.Name(msg.Ledger))
	w.metrics.Event("consume", err)
	return err
}

// MirrorLedger copies the current content of one ledger. A ledger the
// primary store never wrote is skipped; an unreadable one is reported and
// the mirror is left as it is.
func (w *MirrorWorker) MirrorLedger(ctx context.Context, name ledger.Name) error {
	var (
		rows int
		err  error
	)
	switch name {
	case ledger.Tithes:
		rows, err = w.mirrorTithes(ctx)
	case ledger.Attendance:
		rows, err = w.mirrorAttendance(ctx)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownLedger, name)
	}

	if errors.Is(err, ledger.ErrNotFound) {
		w.logger.InfoContext(ctx, "Ledger not written yet, nothing to mirror", log.FieldLedger, string(name))
		return nil
	}
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to mirror ledger", log.FieldLedger, string(name), log.FieldError, err)
		return fmt.Errorf("mirror %s: %w", name, err)
	}

	w.logger.InfoContext(ctx, "Mirrored ledger", log.FieldLedger, string(name), log.FieldRows, rows)
	return nil
}

func (w *MirrorWorker) mirrorTithes(ctx context.Context) (int, error) {
	rows, err := w.source.ReadTithes(ctx)
	if err != nil {
		return 0, err
	}
	return len(rows), w.mirror.WriteTithes(ctx, rows)
}

func (w *MirrorWorker) mirrorAttendance(ctx context.Context) (int, error) {
	rows, err := w.source.ReadAttendance(ctx)
	if err != nil {
		return 0, err
	}
	return len(rows), w.mirror.WriteAttendance(ctx, rows)
}

// MirrorAll copies both ledgers concurrently. It is the startup check and
// the periodic backstop for lost messages.
func (w *MirrorWorker) MirrorAll(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, name := range ledger.Names() {
		g.Go(func() error {
			return w.MirrorLedger(gctx, name)
		})
	}
	return g.Wait()
}

// RunPeriodic calls MirrorAll every interval until ctx ends. Failures are
// logged and retried on the next tick.
func (w *MirrorWorker) RunPeriodic(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.MirrorAll(ctx); err != nil {
				w.logger.WarnContext(ctx, "Periodic mirror failed", log.FieldError, err)
			}
		}
	}
}
