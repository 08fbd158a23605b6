// Package services holds the application state of the ledger web app:
// the two ledgers in memory, their degraded flags and every mutation.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"igreja/internal/amqp"
	"igreja/internal/core"
	"igreja/internal/ledger"
	"igreja/internal/log"
	"igreja/internal/metrics"
	"igreja/internal/report"
)

var (
	ErrLedgerDegraded = errors.New("ledger is read-only: stored content could not be parsed")
	ErrInvalidEdit    = errors.New("invalid edit")
	ErrLeaderExists   = errors.New("leader already exists")
	ErrLeaderNotFound = errors.New("leader not found")
)

// Operation names reported in events, metrics and logs.
const (
	OpSaveMonth    = "save_month"
	OpSaveSelected = "save_selection"
	OpAddLeader    = "add_leader"
	OpRemoveLeader = "remove_leader"
	OpRenameLeader = "rename_leader"
)

// EventPublisher announces ledger overwrites. *amqp.Client implements it.
type EventPublisher interface {
	PublishLedgerSaved(ctx context.Context, msg *amqp.LedgerSavedMessage) error
}

// Purger drops every cached view. *cache.Manager implements it.
type Purger interface {
	PurgeAll() int
}

type Options struct {
	Publisher EventPublisher
	Purger    Purger
	Metrics   *metrics.Metrics
	Logger    *log.Logger
	// Year fixes the Saturday calendar; zero means the current year.
	Year int
}

// LedgerService owns both ledgers for the lifetime of the process. All
// operations run to completion under one lock.
type LedgerService struct {
	mu         sync.Mutex
	store      *ledger.Store
	tithes     []core.TitheRecord
	attendance []core.AttendanceRecord
	degraded   map[ledger.Name]error
	year       int

	publisher EventPublisher
	purger    Purger
	metrics   *metrics.Metrics
	logger    *log.Logger
}

func NewLedgerService(store *ledger.Store, opts Options) *LedgerService {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	year := opts.Year
	if year == 0 {
		year = time.Now().Year()
	}
	return &LedgerService{
		store:     store,
		degraded:  make(map[ledger.Name]error),
		year:      year,
		publisher: opts.Publisher,
		purger:    opts.Purger,
		metrics:   opts.Metrics,
		logger:    logger.WithComponent(log.ComponentLedger),
	}
}

// Load reads both ledgers. Unreadable ledgers are served from defaults and
// flagged degraded; their errors are returned joined, but the service is
// usable either way.
func (s *LedgerService) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tithes, terr := s.store.LoadTithes(ctx)
	attendance, aerr := s.store.LoadAttendance(ctx)

	s.tithes, s.attendance = tithes, attendance
	s.setDegraded(ledger.Tithes, terr)
	s.setDegraded(ledger.Attendance, aerr)

	s.metrics.LedgerLoaded(string(ledger.Tithes), len(tithes), terr != nil)
	s.metrics.LedgerLoaded(string(ledger.Attendance), len(attendance), aerr != nil)
	s.metrics.PaidTotal(report.SumPaid(tithes).Cents)
	s.purge()

	return errors.Join(terr, aerr)
}

func (s *LedgerService) setDegraded(name ledger.Name, err error) {
	if err == nil {
		delete(s.degraded, name)
		return
	}
	s.degraded[name] = err
}

// Degraded returns the load error of every ledger served read-only.
func (s *LedgerService) Degraded() map[ledger.Name]error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[ledger.Name]error, len(s.degraded))
	for k, v := range s.degraded {
		out[k] = v
	}
	return out
}

// Roster is the shape used for synthesized rows.
func (s *LedgerService) Roster() ledger.Roster { return s.store.Roster() }

// Tithes returns a copy of the whole tithe ledger.
func (s *LedgerService) Tithes() []core.TitheRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.TitheRecord(nil), s.tithes...)
}

// Attendance returns a copy of the whole attendance ledger.
func (s *LedgerService) Attendance() []core.AttendanceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.AttendanceRecord(nil), s.attendance...)
}

// TitheMonth returns the editable subset for one month.
func (s *LedgerService) TitheMonth(month core.Month) []core.TitheRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ledger.SelectTithes(s.tithes, ledger.TitheMonth(month))
}

// AttendanceSelection returns the editable subset for one month and a set
// of disciplers; an empty set is the whole month.
func (s *LedgerService) AttendanceSelection(month core.Month, disciplers []string) []core.AttendanceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ledger.SelectAttendance(s.attendance, ledger.AttendanceSelection(month, disciplers))
}

func (s *LedgerService) Leaders() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return report.Leaders(s.tithes)
}

func (s *LedgerService) Disciplers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return report.Disciplers(s.attendance)
}

// SaveTitheMonth replaces the rows of month with edited, matched by leader.
func (s *LedgerService) SaveTitheMonth(ctx context.Context, month core.Month, edited []core.TitheRecord) error {
	if err := month.Validate(); err != nil {
		return s.reject(ledger.Tithes, fmt.Errorf("%w: %w", ErrInvalidEdit, err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writable(ledger.Tithes); err != nil {
		return err
	}
	merged, err := ledger.MergeTithes(s.tithes, ledger.TitheMonth(month), edited)
	if err != nil {
		return s.reject(ledger.Tithes, fmt.Errorf("%w: %w", ErrInvalidEdit, err))
	}
	return s.commitTithes(ctx, merged, OpSaveMonth)
}

// SaveAttendance replaces the rows of month for the given disciplers with
// edited, matched by (month, discipler, type). Slots past the month's
// Saturdays keep their stored values.
func (s *LedgerService) SaveAttendance(ctx context.Context, month core.Month, disciplers []string, edited []core.AttendanceRecord) error {
	if err := month.Validate(); err != nil {
		return s.reject(ledger.Attendance, fmt.Errorf("%w: %w", ErrInvalidEdit, err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writable(ledger.Attendance); err != nil {
		return err
	}
	edited = append([]core.AttendanceRecord(nil), edited...)
	keepUnusedSlots(edited, s.attendance, core.ValidSlots(month, s.year))
	merged, err := ledger.MergeAttendance(s.attendance, ledger.AttendanceSelection(month, disciplers), edited)
	if err != nil {
		return s.reject(ledger.Attendance, fmt.Errorf("%w: %w", ErrInvalidEdit, err))
	}
	return s.commitAttendance(ctx, merged, OpSaveSelected)
}

func keepUnusedSlots(edited, current []core.AttendanceRecord, valid int) {
	stored := make(map[core.AttendanceKey]core.AttendanceRecord, len(current))
	for _, r := range current {
		stored[r.Key()] = r
	}
	for i := range edited {
		prev, ok := stored[edited[i].Key()]
		if !ok {
			continue
		}
		for j := valid; j < core.SlotsPerMonth; j++ {
			edited[i].Slots[j] = prev.Slots[j]
		}
	}
}

// AddLeader appends one zero, unpaid row per window month.
func (s *LedgerService) AddLeader(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return s.reject(ledger.Tithes, fmt.Errorf("%w: %w", ErrInvalidEdit, core.ErrEmptyLeader))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writable(ledger.Tithes); err != nil {
		return err
	}
	if s.hasLeader(name) {
		return s.reject(ledger.Tithes, fmt.Errorf("%w: %q", ErrLeaderExists, name))
	}

	rows := append(append([]core.TitheRecord(nil), s.tithes...), core.NewTitheRows(name, s.store.Roster().Window)...)
	return s.commitTithes(ctx, rows, OpAddLeader)
}

// RemoveLeader drops every row of the leader.
func (s *LedgerService) RemoveLeader(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writable(ledger.Tithes); err != nil {
		return err
	}
	if !s.hasLeader(name) {
		return s.reject(ledger.Tithes, fmt.Errorf("%w: %q", ErrLeaderNotFound, name))
	}

	rows := make([]core.TitheRecord, 0, len(s.tithes))
	for _, r := range s.tithes {
		if r.Leader != name {
			rows = append(rows, r)
		}
	}
	return s.commitTithes(ctx, rows, OpRemoveLeader)
}

// RenameLeader moves every row of oldName to newName in place.
func (s *LedgerService) RenameLeader(ctx context.Context, oldName, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return s.reject(ledger.Tithes, fmt.Errorf("%w: %w", ErrInvalidEdit, core.ErrEmptyLeader))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writable(ledger.Tithes); err != nil {
		return err
	}
	if !s.hasLeader(oldName) {
		return s.reject(ledger.Tithes, fmt.Errorf("%w: %q", ErrLeaderNotFound, oldName))
	}
	if newName == oldName {
		return nil
	}
	if s.hasLeader(newName) {
		return s.reject(ledger.Tithes, fmt.Errorf("%w: %q", ErrLeaderExists, newName))
	}

	rows := append([]core.TitheRecord(nil), s.tithes...)
	for i := range rows {
		if rows[i].Leader == oldName {
			rows[i].Leader = newName
		}
	}
	return s.commitTithes(ctx, rows, OpRenameLeader)
}

func (s *LedgerService) hasLeader(name string) bool {
	for _, r := range s.tithes {
		if r.Leader == name {
			return true
		}
	}
	return false
}

func (s *LedgerService) writable(name ledger.Name) error {
	if cause, ok := s.degraded[name]; ok {
		s.metrics.LedgerSaveFailed(string(name), "degraded")
		return fmt.Errorf("%w: %s: %v", ErrLedgerDegraded, name, cause)
	}
	return nil
}

func (s *LedgerService) reject(name ledger.Name, err error) error {
	s.metrics.LedgerSaveFailed(string(name), "validation")
	return err
}

func (s *LedgerService) commitTithes(ctx context.Context, rows []core.TitheRecord, op string) error {
	if err := s.store.Backend().WriteTithes(ctx, rows); err != nil {
		s.metrics.LedgerSaveFailed(string(ledger.Tithes), "write")
		s.logger.ErrorContext(ctx, "Failed to persist tithe ledger", log.FieldError, err, log.FieldOperation, op)
		return fmt.Errorf("write tithes: %w", err)
	}
	s.tithes = rows
	s.metrics.PaidTotal(report.SumPaid(rows).Cents)
	s.saved(ctx, ledger.Tithes, op, len(rows))
	return nil
}

func (s *LedgerService) commitAttendance(ctx context.Context, rows []core.AttendanceRecord, op string) error {
	if err := s.store.Backend().WriteAttendance(ctx, rows); err != nil {
		s.metrics.LedgerSaveFailed(string(ledger.Attendance), "write")
		s.logger.ErrorContext(ctx, "Failed to persist attendance ledger", log.FieldError, err, log.FieldOperation, op)
		return fmt.Errorf("write attendance: %w", err)
	}
	s.attendance = rows
	s.saved(ctx, ledger.Attendance, op, len(rows))
	return nil
}

// saved runs the post-write steps. Publishing is best effort: the ledger
// is already persisted.
func (s *LedgerService) saved(ctx context.Context, name ledger.Name, op string, rows int) {
	s.purge()
	s.metrics.LedgerSaved(string(name), op, rows)
	log.NewStructuredLogger(s.logger).LogLedgerSaved(ctx, string(name), op, rows)

	if s.publisher == nil {
		return
	}
	err := s.publisher.PublishLedgerSaved(ctx, amqp.NewLedgerSavedMessage(string(name), op, rows))
	s.metrics.Event("publish", err)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish ledger saved message",
			log.FieldLedger, string(name), log.FieldError, err)
	}
}

func (s *LedgerService) purge() {
	if s.purger != nil {
		s.purger.PurgeAll()
	}
}

// Close releases the publisher connection, if any.
func (s *LedgerService) Close() error {
	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("close publisher: %w", err)
		}
	}
	return nil
}
