package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Month is a calendar month, 1 (Janeiro) to 12 (Dezembro).
type Month int

var ErrInvalidMonth = errors.New("invalid month")

// monthNames is positional and never locale driven.
var monthNames = [12]string{
	"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
	"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
}

// Months returns all twelve months in canonical order.
func Months() []Month { return Window(12) }

// Window returns the first n months of the year, the reporting window.
func Window(n int) []Month {
	if n < 0 {
		n = 0
	}
	if n > 12 {
		n = 12
	}
	out := make([]Month, n)
	for i := range out {
		out[i] = Month(i + 1)
	}
	return out
}

// ParseMonth resolves a Portuguese month name. Matching ignores case and
// surrounding whitespace; "Marco" is accepted for "Março".
func ParseMonth(name string) (Month, error) {
	n := strings.TrimSpace(name)
	for i, mn := range monthNames {
		if strings.EqualFold(n, mn) {
			return Month(i + 1), nil
		}
	}
	if strings.EqualFold(n, "Marco") {
		return 3, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidMonth, name)
}

func (m Month) Validate() error {
	if m < 1 || m > 12 {
		return fmt.Errorf("%w: %d", ErrInvalidMonth, int(m))
	}
	return nil
}

func (m Month) String() string {
	if m.Validate() != nil {
		return fmt.Sprintf("Month(%d)", int(m))
	}
	return monthNames[m-1]
}

func (m Month) MarshalText() ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return []byte(m.String()), nil
}

func (m *Month) UnmarshalText(b []byte) error {
	v, err := ParseMonth(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// SaturdaysInMonth returns the Saturdays of the month as zero padded
// "DD/MM" labels in ascending order. A month always has 4 or 5.
func SaturdaysInMonth(m Month, year int) []string {
	if m.Validate() != nil {
		return nil
	}
	first := time.Date(year, time.Month(m), 1, 0, 0, 0, 0, time.UTC)
	offset := (int(time.Saturday) - int(first.Weekday()) + 7) % 7
	var out []string
	for d := first.AddDate(0, 0, offset); d.Month() == time.Month(m); d = d.AddDate(0, 0, 7) {
		out = append(out, fmt.Sprintf("%02d/%02d", d.Day(), int(m)))
	}
	return out
}

// SaturdaysByName is SaturdaysInMonth keyed by the month name.
func SaturdaysByName(name string, year int) ([]string, error) {
	m, err := ParseMonth(name)
	if err != nil {
		return nil, err
	}
	return SaturdaysInMonth(m, year), nil
}

// ValidSlots is the number of attendance slots in use for the month.
func ValidSlots(m Month, year int) int {
	return len(SaturdaysInMonth(m, year))
}
