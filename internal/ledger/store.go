package ledger

import (
	"context"
	"errors"

	"igreja/internal/core"
	"igreja/internal/log"
)

// Store loads ledgers from a backend, synthesizing defaults where the
// backend has nothing usable.
type Store struct {
	backend Backend
	roster  Roster
	logger  *log.Logger
}

func NewStore(backend Backend, roster Roster, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Store{backend: backend, roster: roster, logger: logger.WithComponent(log.ComponentLedger)}
}

func (s *Store) Backend() Backend { return s.backend }

func (s *Store) Roster() Roster { return s.roster }

// LoadTithes returns the stored tithe rows as they are. A ledger that was
// never written yields the default roster. Any other read failure returns
// the defaults together with the error; the caller must not persist them
// over the unreadable ledger.
func (s *Store) LoadTithes(ctx context.Context) ([]core.TitheRecord, error) {
	rows, err := s.backend.ReadTithes(ctx)
	switch {
	case err == nil:
		s.logger.InfoContext(ctx, "Tithe ledger loaded", log.FieldRows, len(rows))
		return rows, nil
	case errors.Is(err, ErrNotFound):
		rows = DefaultTithes(s.roster)
		s.logger.InfoContext(ctx, "Tithe ledger not found, using defaults", log.FieldRows, len(rows))
		return rows, nil
	default:
		s.logger.ErrorContext(ctx, "Tithe ledger unreadable, serving defaults read-only",
			log.FieldError, err, log.FieldLedger, string(Tithes))
		return DefaultTithes(s.roster), err
	}
}

// LoadAttendance returns the stored attendance rows as they are. A
// missing ledger or one with the old layout is replaced by the full cross
// product, which is written back immediately. Other failures behave as in
// LoadTithes.
func (s *Store) LoadAttendance(ctx context.Context) ([]core.AttendanceRecord, error) {
	rows, err := s.backend.ReadAttendance(ctx)
	switch {
	case err == nil:
		s.logger.InfoContext(ctx, "Attendance ledger loaded", log.FieldRows, len(rows))
		return rows, nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrSchemaMismatch):
		rows = DefaultAttendance(s.roster)
		s.logger.InfoContext(ctx, "Attendance ledger missing or outdated, synthesizing",
			log.FieldRows, len(rows), "reason", err.Error())
		if werr := s.backend.WriteAttendance(ctx, rows); werr != nil {
			s.logger.WarnContext(ctx, "Failed to persist synthesized attendance", log.FieldError, werr)
		}
		return rows, nil
	default:
		s.logger.ErrorContext(ctx, "Attendance ledger unreadable, serving defaults read-only",
			log.FieldError, err, log.FieldLedger, string(Attendance))
		return DefaultAttendance(s.roster), err
	}
}
