package core

import (
	"errors"
	"fmt"
	"strings"
)

const (
	Paid    PaidStatus = "Sim"
	NotPaid PaidStatus = "Não"

	Cell         SessionType = "Célula"
	YouthService SessionType = "Culto de Jovens"

	Members  CounterKind = "ME"
	Active   CounterKind = "FA"
	Visitors CounterKind = "VI"
)

// SlotsPerMonth is the fixed number of weekly slots stored per attendance row.
const SlotsPerMonth = 5

// MaxCounter bounds a single attendance counter.
const MaxCounter = 1<<31 - 1

type (
	PaidStatus  string
	SessionType string
	CounterKind string

	// TitheRecord is one leader's tithe for one month. Key: (Month, Leader).
	TitheRecord struct {
		Month  Month      `json:"month"`
		Leader string     `json:"leader"`
		Amount Money      `json:"amount"`
		Paid   PaidStatus `json:"paid"`
	}

	// Slot holds the three weekly counters.
	Slot struct {
		Members  int `json:"members"`
		Active   int `json:"active"`
		Visitors int `json:"visitors"`
	}

	// AttendanceRecord is one (month, discipler, session type) row with five
	// weekly slots. Slots past the month's Saturday count are kept but unused.
	AttendanceRecord struct {
		Month     Month               `json:"month"`
		Discipler string              `json:"discipler"`
		Type      SessionType         `json:"type"`
		Slots     [SlotsPerMonth]Slot `json:"slots"`
	}

	TitheKey struct {
		Month  Month
		Leader string
	}

	AttendanceKey struct {
		Month     Month
		Discipler string
		Type      SessionType
	}
)

var (
	ErrInvalidPaid        = errors.New("invalid paid status")
	ErrInvalidSessionType = errors.New("invalid session type")
	ErrInvalidCounter     = errors.New("invalid counter value")
	ErrEmptyLeader        = errors.New("empty leader name")
	ErrEmptyDiscipler     = errors.New("empty discipler name")
)

// PaidStatuses lists the paid values in display order.
func PaidStatuses() []PaidStatus { return []PaidStatus{Paid, NotPaid} }

// SessionTypes lists the session types in display order.
func SessionTypes() []SessionType { return []SessionType{Cell, YouthService} }

// CounterKinds lists the counters of a slot in column order.
func CounterKinds() []CounterKind { return []CounterKind{Members, Active, Visitors} }

// ParsePaid accepts "Sim"/"Não" and a few lenient spellings.
func ParsePaid(s string) (PaidStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sim", "s", "yes", "true":
		return Paid, nil
	case "não", "nao", "n", "no", "false":
		return NotPaid, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPaid, s)
}

func (p PaidStatus) Validate() error {
	if p != Paid && p != NotPaid {
		return fmt.Errorf("%w: %q", ErrInvalidPaid, string(p))
	}
	return nil
}

func ParseSessionType(s string) (SessionType, error) {
	t := SessionType(strings.TrimSpace(s))
	if err := t.Validate(); err != nil {
		return "", err
	}
	return t, nil
}

func (t SessionType) Validate() error {
	if t != Cell && t != YouthService {
		return fmt.Errorf("%w: %q", ErrInvalidSessionType, string(t))
	}
	return nil
}

// Value returns the counter of the given kind.
func (s Slot) Value(kind CounterKind) int {
	switch kind {
	case Members:
		return s.Members
	case Active:
		return s.Active
	case Visitors:
		return s.Visitors
	}
	return 0
}

// Total is the sum of the three counters.
func (s Slot) Total() int { return s.Members + s.Active + s.Visitors }

func (s Slot) Validate() error {
	for _, v := range [...]int{s.Members, s.Active, s.Visitors} {
		if v < 0 || v > MaxCounter {
			return ErrInvalidCounter
		}
	}
	return nil
}

func (r TitheRecord) Key() TitheKey { return TitheKey{Month: r.Month, Leader: r.Leader} }

func (r TitheRecord) Validate() error {
	if err := r.Month.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(r.Leader) == "" {
		return ErrEmptyLeader
	}
	if r.Amount.Cents < 0 {
		return ErrInvalidAmount
	}
	return r.Paid.Validate()
}

func (r AttendanceRecord) Key() AttendanceKey {
	return AttendanceKey{Month: r.Month, Discipler: r.Discipler, Type: r.Type}
}

func (r AttendanceRecord) Validate() error {
	if err := r.Month.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(r.Discipler) == "" {
		return ErrEmptyDiscipler
	}
	if err := r.Type.Validate(); err != nil {
		return err
	}
	for i, s := range r.Slots {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("slot S%d: %w", i+1, err)
		}
	}
	return nil
}

// NewTitheRows returns one zero, unpaid record per month for the leader.
func NewTitheRows(leader string, window []Month) []TitheRecord {
	rows := make([]TitheRecord, 0, len(window))
	for _, m := range window {
		rows = append(rows, TitheRecord{Month: m, Leader: leader, Paid: NotPaid})
	}
	return rows
}
