package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"igreja/internal/core"
	"igreja/internal/ledger"
)

func newRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "igreja.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestUnwrittenLedgersAreNotFound(t *testing.T) {
	repo := newRepo(t)
	if _, err := repo.ReadTithes(context.Background()); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.ReadAttendance(context.Background()); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTithesRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	rows := ledger.DefaultTithes(ledger.DefaultRoster(7))
	rows[10].Amount = core.Money{Cents: 4999}
	rows[10].Paid = core.Paid
	if err := repo.WriteTithes(ctx, rows); err != nil {
		t.Fatalf("write: %v", err)
	}
	// overwrite with a shorter ledger: nothing from the first write survives
	if err := repo.WriteTithes(ctx, rows[:3]); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	got, err := repo.ReadTithes(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(got))
	}
	for i := range got {
		if got[i] != rows[i] {
			t.Fatalf("row %d differs: %+v vs %+v", i, got[i], rows[i])
		}
	}

	// empty but written ledger is not "not found"
	if err := repo.WriteTithes(ctx, nil); err != nil {
		t.Fatalf("write empty: %v", err)
	}
	got, err = repo.ReadTithes(ctx)
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty ledger, got %v err=%v", got, err)
	}
}

func TestAttendanceRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	rows := ledger.DefaultAttendance(ledger.DefaultRoster(7))
	rows[7].Slots[0] = core.Slot{Members: 12, Active: 9, Visitors: 4}
	rows[7].Slots[4] = core.Slot{Members: 1}
	if err := repo.WriteAttendance(ctx, rows); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := repo.ReadAttendance(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != len(rows) {
		t.Fatalf("expected %d rows, got %d", len(rows), len(got))
	}
	for i := range rows {
		if got[i] != rows[i] {
			t.Fatalf("row %d differs: %+v vs %+v", i, got[i], rows[i])
		}
	}
}

func TestCorruptRowIsParseError(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	if err := repo.WriteTithes(ctx, ledger.DefaultTithes(ledger.DefaultRoster(1))); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := repo.db.ExecContext(ctx, `UPDATE tithes SET paid = 'Talvez' WHERE position = 2`); err != nil {
		t.Fatalf("corrupt: %v", err)
	}
	_, err := repo.ReadTithes(ctx)
	if !errors.Is(err, ledger.ErrParse) || !errors.Is(err, core.ErrInvalidPaid) {
		t.Fatalf("expected parse error, got %v", err)
	}
}
