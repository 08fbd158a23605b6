package ledger

import (
	"fmt"

	"igreja/internal/core"
)

// mergeByKey replaces the rows of full selected by keep with edited,
// matching on the natural key. Rows outside the selection are untouched and
// replaced rows keep their position. The result is a new slice.
func mergeByKey[R any, K comparable](full []R, keep func(R) bool, edited []R, key func(R) K) ([]R, error) {
	selected := make(map[K]int)
	for i, r := range full {
		if !keep(r) {
			continue
		}
		k := key(r)
		if _, dup := selected[k]; dup {
			return nil, fmt.Errorf("%w: %v", ErrDuplicateKey, k)
		}
		selected[k] = i
	}
	if len(edited) != len(selected) {
		return nil, fmt.Errorf("%w: selected %d, got %d", ErrCardinalityMismatch, len(selected), len(edited))
	}

	out := append([]R(nil), full...)
	seen := make(map[K]struct{}, len(edited))
	for _, e := range edited {
		k := key(e)
		i, ok := selected[k]
		if !ok {
			return nil, fmt.Errorf("%w: %v", ErrUnknownKey, k)
		}
		if _, dup := seen[k]; dup {
			return nil, fmt.Errorf("%w: %v", ErrDuplicateKey, k)
		}
		seen[k] = struct{}{}
		out[i] = e
	}
	return out, nil
}

// MergeTithes replaces the rows of full matching filter with edited.
// Every edited row must be valid and key into the selection.
func MergeTithes(full []core.TitheRecord, filter func(core.TitheRecord) bool, edited []core.TitheRecord) ([]core.TitheRecord, error) {
	for _, e := range edited {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("%v: %w", e.Key(), err)
		}
	}
	return mergeByKey(full, filter, edited, core.TitheRecord.Key)
}

// MergeAttendance replaces the rows of full matching filter with edited.
func MergeAttendance(full []core.AttendanceRecord, filter func(core.AttendanceRecord) bool, edited []core.AttendanceRecord) ([]core.AttendanceRecord, error) {
	for _, e := range edited {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("%v: %w", e.Key(), err)
		}
	}
	return mergeByKey(full, filter, edited, core.AttendanceRecord.Key)
}

// TitheMonth selects the tithe rows of one month.
func TitheMonth(m core.Month) func(core.TitheRecord) bool {
	return func(r core.TitheRecord) bool { return r.Month == m }
}

// AttendanceSelection selects the attendance rows of one month whose
// discipler is in the set. An empty set selects the whole month.
func AttendanceSelection(m core.Month, disciplers []string) func(core.AttendanceRecord) bool {
	set := make(map[string]struct{}, len(disciplers))
	for _, d := range disciplers {
		set[d] = struct{}{}
	}
	return func(r core.AttendanceRecord) bool {
		if r.Month != m {
			return false
		}
		if len(set) == 0 {
			return true
		}
		_, ok := set[r.Discipler]
		return ok
	}
}

// SelectTithes returns the rows matching filter in ledger order.
func SelectTithes(rows []core.TitheRecord, filter func(core.TitheRecord) bool) []core.TitheRecord {
	out := make([]core.TitheRecord, 0)
	for _, r := range rows {
		if filter(r) {
			out = append(out, r)
		}
	}
	return out
}

// SelectAttendance returns the rows matching filter in ledger order.
func SelectAttendance(rows []core.AttendanceRecord, filter func(core.AttendanceRecord) bool) []core.AttendanceRecord {
	out := make([]core.AttendanceRecord, 0)
	for _, r := range rows {
		if filter(r) {
			out = append(out, r)
		}
	}
	return out
}
