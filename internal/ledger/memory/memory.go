package memory

import (
	"context"
	"sync"

	"igreja/internal/core"
	"igreja/internal/ledger"
)

// Store keeps both ledgers as encoded tables in memory, so reads go
// through the same decoding as the file backends.
type Store struct {
	mu         sync.Mutex
	tithes     [][]string
	attendance [][]string
	writes     int
}

var _ ledger.Backend = (*Store)(nil)

func New() *Store { return &Store{} }

// NewFromTables seeds the store with raw tables; nil means not written.
func NewFromTables(tithes, attendance [][]string) *Store {
	return &Store{tithes: cloneTable(tithes), attendance: cloneTable(attendance)}
}

func (s *Store) ReadTithes(_ context.Context) ([]core.TitheRecord, error) {
	s.mu.Lock()
	t := s.tithes
	s.mu.Unlock()
	if t == nil {
		return nil, ledger.ErrNotFound
	}
	return ledger.DecodeTithes(t)
}

func (s *Store) WriteTithes(_ context.Context, rows []core.TitheRecord) error {
	t := ledger.EncodeTithes(rows)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tithes = t
	s.writes++
	return nil
}

func (s *Store) ReadAttendance(_ context.Context) ([]core.AttendanceRecord, error) {
	s.mu.Lock()
	t := s.attendance
	s.mu.Unlock()
	if t == nil {
		return nil, ledger.ErrNotFound
	}
	return ledger.DecodeAttendance(t)
}

func (s *Store) WriteAttendance(_ context.Context, rows []core.AttendanceRecord) error {
	t := ledger.EncodeAttendance(rows)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attendance = t
	s.writes++
	return nil
}

// Writes reports how many overwrites the store has received.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// Table returns a copy of the raw table of the named ledger.
func (s *Store) Table(name ledger.Name) [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name == ledger.Attendance {
		return cloneTable(s.attendance)
	}
	return cloneTable(s.tithes)
}

func cloneTable(in [][]string) [][]string {
	if in == nil {
		return nil
	}
	out := make([][]string, len(in))
	for i, r := range in {
		out[i] = append([]string(nil), r...)
	}
	return out
}
