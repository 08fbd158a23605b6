// Package report derives the chart and summary views of the ledgers.
// Everything here is pure: inputs are never modified and nothing is
// persisted.
package report

import (
	"math"

	"igreja/internal/core"
)

// SlotCount tells how many weekly slots of a month are in use.
type SlotCount func(core.Month) int

// CalendarSlots counts the Saturdays of each month of year.
func CalendarSlots(year int) SlotCount {
	return func(m core.Month) int { return core.ValidSlots(m, year) }
}

func (sc SlotCount) valid(m core.Month) int {
	if sc == nil {
		return core.SlotsPerMonth
	}
	n := sc(m)
	if n < 0 {
		return 0
	}
	if n > core.SlotsPerMonth {
		return core.SlotsPerMonth
	}
	return n
}

// SumPaid totals the amounts of the paid rows.
func SumPaid(rows []core.TitheRecord) core.Money {
	var total core.Money
	for _, r := range rows {
		if r.Paid == core.Paid {
			total = total.Add(r.Amount)
		}
	}
	return total
}

// MonthlySeries returns the paid total of every window month in canonical
// order. Months without paid rows report zero.
func MonthlySeries(rows []core.TitheRecord, window []core.Month) []core.MonthTotal {
	byMonth := make(map[core.Month]core.Money, len(window))
	for _, r := range rows {
		if r.Paid == core.Paid {
			byMonth[r.Month] = byMonth[r.Month].Add(r.Amount)
		}
	}
	out := make([]core.MonthTotal, 0, len(window))
	for _, m := range window {
		out = append(out, core.MonthTotal{Month: m, Total: byMonth[m]})
	}
	return out
}

// StatusSplit counts the rows of month by paid status. Both statuses are
// always present.
func StatusSplit(rows []core.TitheRecord, month core.Month) map[core.PaidStatus]int {
	out := make(map[core.PaidStatus]int, 2)
	for _, p := range core.PaidStatuses() {
		out[p] = 0
	}
	for _, r := range rows {
		if r.Month == month {
			out[r.Paid]++
		}
	}
	return out
}

// FlattenAttendance turns attendance rows into one observation per
// (Saturday, session type, counter kind), summing across rows. Only the
// slots that have a Saturday label are read. Every key is present, ordered
// by Saturday, then session type, then counter kind.
func FlattenAttendance(rows []core.AttendanceRecord, saturdays []string) []core.Observation {
	n := len(saturdays)
	if n > core.SlotsPerMonth {
		n = core.SlotsPerMonth
	}
	type key struct {
		slot int
		typ  core.SessionType
		kind core.CounterKind
	}
	sums := make(map[key]int)
	for _, r := range rows {
		for i := 0; i < n; i++ {
			for _, k := range core.CounterKinds() {
				sums[key{i, r.Type, k}] += r.Slots[i].Value(k)
			}
		}
	}

	out := make([]core.Observation, 0, n*len(core.SessionTypes())*len(core.CounterKinds()))
	for i := 0; i < n; i++ {
		for _, t := range core.SessionTypes() {
			for _, k := range core.CounterKinds() {
				out = append(out, core.Observation{
					Saturday: saturdays[i],
					Type:     t,
					Kind:     k,
					Value:    sums[key{i, t, k}],
				})
			}
		}
	}
	return out
}

// TotalsByType sums one counter over the valid slots of every row.
func TotalsByType(rows []core.AttendanceRecord, kind core.CounterKind, slots SlotCount) int {
	total := 0
	for _, r := range rows {
		n := slots.valid(r.Month)
		for i := 0; i < n; i++ {
			total += r.Slots[i].Value(kind)
		}
	}
	return total
}

// SlotTotals sums every counter over the valid slots, per session type.
func SlotTotals(rows []core.AttendanceRecord, slots SlotCount) map[core.SessionType]core.Slot {
	out := make(map[core.SessionType]core.Slot, 2)
	for _, t := range core.SessionTypes() {
		sel := filterType(rows, t)
		out[t] = core.Slot{
			Members:  TotalsByType(sel, core.Members, slots),
			Active:   TotalsByType(sel, core.Active, slots),
			Visitors: TotalsByType(sel, core.Visitors, slots),
		}
	}
	return out
}

// RollingParams selects the groups and months of a rolling average.
type RollingParams struct {
	Current core.Month
	// Window is the number of months ending at Current, clipped at Janeiro.
	Window int
	// Disciplers defaults to every discipler in the rows, in row order.
	Disciplers []string
	// Types defaults to both session types.
	Types []core.SessionType
	Slots SlotCount
}

// DefaultRollingWindow is the number of months averaged by default.
const DefaultRollingWindow = 4

// RollingWindowAverage computes, for each month of the window and each
// selected discipler and session type, the total attendance (all three
// counters) over the valid slots divided by the number of valid slots,
// rounded to one decimal. A month without valid slots averages 0.
func RollingWindowAverage(rows []core.AttendanceRecord, p RollingParams) []core.RollingAverage {
	if p.Current.Validate() != nil {
		return nil
	}
	window := p.Window
	if window <= 0 {
		window = DefaultRollingWindow
	}
	start := p.Current - core.Month(window-1)
	if start < 1 {
		start = 1
	}
	disciplers := p.Disciplers
	if len(disciplers) == 0 {
		disciplers = Disciplers(rows)
	}
	types := p.Types
	if len(types) == 0 {
		types = core.SessionTypes()
	}

	index := make(map[core.AttendanceKey]core.AttendanceRecord, len(rows))
	for _, r := range rows {
		index[r.Key()] = r
	}

	out := make([]core.RollingAverage, 0, int(p.Current-start+1)*len(disciplers)*len(types))
	for m := start; m <= p.Current; m++ {
		valid := p.Slots.valid(m)
		for _, d := range disciplers {
			for _, t := range types {
				avg := 0.0
				if r, ok := index[core.AttendanceKey{Month: m, Discipler: d, Type: t}]; ok && valid > 0 {
					sum := 0
					for i := 0; i < valid; i++ {
						sum += r.Slots[i].Total()
					}
					avg = round1(float64(sum) / float64(valid))
				}
				out = append(out, core.RollingAverage{Month: m, Discipler: d, Type: t, Average: avg})
			}
		}
	}
	return out
}

// Disciplers lists the distinct disciplers in row order.
func Disciplers(rows []core.AttendanceRecord) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range rows {
		if _, ok := seen[r.Discipler]; ok {
			continue
		}
		seen[r.Discipler] = struct{}{}
		out = append(out, r.Discipler)
	}
	return out
}

// Leaders lists the distinct leaders in row order.
func Leaders(rows []core.TitheRecord) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range rows {
		if _, ok := seen[r.Leader]; ok {
			continue
		}
		seen[r.Leader] = struct{}{}
		out = append(out, r.Leader)
	}
	return out
}

func filterType(rows []core.AttendanceRecord, t core.SessionType) []core.AttendanceRecord {
	var out []core.AttendanceRecord
	for _, r := range rows {
		if r.Type == t {
			out = append(out, r)
		}
	}
	return out
}

func round1(x float64) float64 { return math.Round(x*10) / 10 }
