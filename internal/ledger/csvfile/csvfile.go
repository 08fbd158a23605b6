// Package csvfile stores the ledgers as two CSV files on disk.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"igreja/internal/core"
	"igreja/internal/ledger"
)

// Store reads and overwrites the tithe and attendance CSV files. Writes
// are atomic (temp file, fsync, rename) and serialized within the process;
// a single writer process is assumed.
type Store struct {
	mu             sync.Mutex
	tithePath      string
	attendancePath string
}

var _ ledger.Backend = (*Store)(nil)

func New(tithePath, attendancePath string) *Store {
	return &Store{tithePath: tithePath, attendancePath: attendancePath}
}

// Paths returns the tithe and attendance file paths.
func (s *Store) Paths() (string, string) { return s.tithePath, s.attendancePath }

func (s *Store) ReadTithes(ctx context.Context) ([]core.TitheRecord, error) {
	table, err := s.read(ctx, s.tithePath, ledger.Tithes)
	if err != nil {
		return nil, err
	}
	return ledger.DecodeTithes(table)
}

func (s *Store) WriteTithes(ctx context.Context, rows []core.TitheRecord) error {
	return s.write(ctx, s.tithePath, ledger.EncodeTithes(rows))
}

func (s *Store) ReadAttendance(ctx context.Context) ([]core.AttendanceRecord, error) {
	table, err := s.read(ctx, s.attendancePath, ledger.Attendance)
	if err != nil {
		return nil, err
	}
	return ledger.DecodeAttendance(table)
}

func (s *Store) WriteAttendance(ctx context.Context, rows []core.AttendanceRecord) error {
	return s.write(ctx, s.attendancePath, ledger.EncodeAttendance(rows))
}

func (s *Store) read(ctx context.Context, path string, name ledger.Name) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	table, err := r.ReadAll()
	if err != nil {
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			return nil, &ledger.ParseError{Ledger: name, Line: perr.Line, Err: perr.Err}
		}
		return nil, &ledger.ParseError{Ledger: name, Err: err}
	}
	return table, nil
}

func (s *Store) write(ctx context.Context, path string, table [][]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.WriteAll(table); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
