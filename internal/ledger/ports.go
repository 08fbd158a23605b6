// Package ledger holds the record store for the tithe and attendance
// ledgers: the backend port, the tabular codec shared by every backend,
// default synthesis and the natural-key merge.
package ledger

import (
	"context"

	"igreja/internal/core"
)

// Name identifies one of the two ledgers.
type Name string

const (
	Tithes     Name = "tithes"
	Attendance Name = "attendance"
)

// Names lists both ledgers in load order.
func Names() []Name { return []Name{Tithes, Attendance} }

func (n Name) Valid() bool { return n == Tithes || n == Attendance }

// Ports for backing stores. Writes always replace the whole ledger.
type (
	TitheStore interface {
		ReadTithes(ctx context.Context) ([]core.TitheRecord, error)
		WriteTithes(ctx context.Context, rows []core.TitheRecord) error
	}

	AttendanceStore interface {
		ReadAttendance(ctx context.Context) ([]core.AttendanceRecord, error)
		WriteAttendance(ctx context.Context, rows []core.AttendanceRecord) error
	}

	// Backend stores both ledgers. Reads return ErrNotFound when the ledger
	// was never written, a *ParseError when its content is unusable and
	// ErrSchemaMismatch when the attendance layout predates the discipler
	// column.
	Backend interface {
		TitheStore
		AttendanceStore
	}
)
