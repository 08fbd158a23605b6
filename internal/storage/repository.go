package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"igreja/internal/core"
	"igreja/internal/ledger"

	_ "modernc.org/sqlite"
)

// SQLiteRepository stores both ledgers in a SQLite database. Each write
// replaces the ledger inside one transaction.
type SQLiteRepository struct {
	db *sql.DB
}

var _ ledger.Backend = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection keeps writes serialized.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) written(ctx context.Context, name ledger.Name) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT row_count FROM ledger_writes WHERE ledger = ?`, string(name)).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query ledger_writes: %w", err)
	}
	return true, nil
}

// ReadTithes implements ledger.TitheStore
func (r *SQLiteRepository) ReadTithes(ctx context.Context) ([]core.TitheRecord, error) {
	ok, err := r.written(ctx, ledger.Tithes)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ledger.ErrNotFound
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT position, month, leader, amount_cents, paid FROM tithes ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query tithes: %w", err)
	}
	defer rows.Close()

	var out []core.TitheRecord
	for rows.Next() {
		var (
			pos   int
			month int
			rec   core.TitheRecord
			paid  string
		)
		if err := rows.Scan(&pos, &month, &rec.Leader, &rec.Amount.Cents, &paid); err != nil {
			return nil, fmt.Errorf("scan tithe: %w", err)
		}
		rec.Month = core.Month(month)
		rec.Paid = core.PaidStatus(paid)
		if err := rec.Validate(); err != nil {
			return nil, &ledger.ParseError{Ledger: ledger.Tithes, Line: pos + 1, Err: err}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tithes: %w", err)
	}
	return out, nil
}

// WriteTithes implements ledger.TitheStore
func (r *SQLiteRepository) WriteTithes(ctx context.Context, recs []core.TitheRecord) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM tithes`); err != nil {
			return fmt.Errorf("clear tithes: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO tithes (position, month, leader, amount_cents, paid) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare tithe insert: %w", err)
		}
		defer stmt.Close()
		for i, rec := range recs {
			if _, err := stmt.ExecContext(ctx, i+1, int(rec.Month), rec.Leader, rec.Amount.Cents, string(rec.Paid)); err != nil {
				return fmt.Errorf("insert tithe %d: %w", i+1, err)
			}
		}
		return markWritten(ctx, tx, ledger.Tithes, len(recs))
	})
}

// ReadAttendance implements ledger.AttendanceStore
func (r *SQLiteRepository) ReadAttendance(ctx context.Context) ([]core.AttendanceRecord, error) {
	ok, err := r.written(ctx, ledger.Attendance)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ledger.ErrNotFound
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT a.position, a.month, a.discipler, a.session_type,
		       COALESCE(s.slot, 0), COALESCE(s.members, 0), COALESCE(s.active, 0), COALESCE(s.visitors, 0)
		FROM attendance a
		LEFT JOIN attendance_slots s ON s.attendance_position = a.position
		ORDER BY a.position, s.slot`)
	if err != nil {
		return nil, fmt.Errorf("query attendance: %w", err)
	}
	defer rows.Close()

	var (
		out     []core.AttendanceRecord
		lastPos = -1
	)
	for rows.Next() {
		var (
			pos, month, slot int
			discipler, typ   string
			s                core.Slot
		)
		if err := rows.Scan(&pos, &month, &discipler, &typ, &slot, &s.Members, &s.Active, &s.Visitors); err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		if pos != lastPos {
			out = append(out, core.AttendanceRecord{
				Month:     core.Month(month),
				Discipler: discipler,
				Type:      core.SessionType(typ),
			})
			lastPos = pos
		}
		if slot >= 1 && slot <= core.SlotsPerMonth {
			out[len(out)-1].Slots[slot-1] = s
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance: %w", err)
	}
	for i, rec := range out {
		if err := rec.Validate(); err != nil {
			return nil, &ledger.ParseError{Ledger: ledger.Attendance, Line: i + 2, Err: err}
		}
	}
	return out, nil
}

// WriteAttendance implements ledger.AttendanceStore
func (r *SQLiteRepository) WriteAttendance(ctx context.Context, recs []core.AttendanceRecord) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM attendance_slots`); err != nil {
			return fmt.Errorf("clear attendance slots: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM attendance`); err != nil {
			return fmt.Errorf("clear attendance: %w", err)
		}
		rowStmt, err := tx.PrepareContext(ctx,
			`INSERT INTO attendance (position, month, discipler, session_type) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare attendance insert: %w", err)
		}
		defer rowStmt.Close()
		slotStmt, err := tx.PrepareContext(ctx,
			`INSERT INTO attendance_slots (attendance_position, slot, members, active, visitors) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare slot insert: %w", err)
		}
		defer slotStmt.Close()

		for i, rec := range recs {
			pos := i + 1
			if _, err := rowStmt.ExecContext(ctx, pos, int(rec.Month), rec.Discipler, string(rec.Type)); err != nil {
				return fmt.Errorf("insert attendance %d: %w", pos, err)
			}
			for j, s := range rec.Slots {
				if _, err := slotStmt.ExecContext(ctx, pos, j+1, s.Members, s.Active, s.Visitors); err != nil {
					return fmt.Errorf("insert slot %d/%d: %w", pos, j+1, err)
				}
			}
		}
		return markWritten(ctx, tx, ledger.Attendance, len(recs))
	})
}

func markWritten(ctx context.Context, tx *sql.Tx, name ledger.Name, n int) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO ledger_writes (ledger, row_count, written_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(ledger) DO UPDATE SET row_count = excluded.row_count, written_at = excluded.written_at`,
		string(name), n)
	if err != nil {
		return fmt.Errorf("mark %s written: %w", name, err)
	}
	slog.DebugContext(ctx, "Ledger written to SQLite", "ledger", string(name), "rows", n)
	return nil
}

func (r *SQLiteRepository) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
