package report

import "igreja/internal/core"

// TitheOverview bundles the accumulated paid total, the monthly series of
// the window and the paid status split of month.
func TitheOverview(rows []core.TitheRecord, window []core.Month, month core.Month) core.TitheOverview {
	return core.TitheOverview{
		Total:  SumPaid(rows),
		Series: MonthlySeries(rows, window),
		Month:  month,
		Status: StatusSplit(rows, month),
	}
}

// AttendanceQuery narrows the attendance overview.
type AttendanceQuery struct {
	Month      core.Month
	Year       int
	Disciplers []string
	// Type restricts the observations and rolling averages when set.
	Type          core.SessionType
	RollingWindow int
}

// AttendanceOverview bundles the Saturday labels, the long-form
// observations and the per-type totals of the selected month, and the
// rolling averages ending at that month.
func AttendanceOverview(rows []core.AttendanceRecord, q AttendanceQuery) core.AttendanceOverview {
	slots := CalendarSlots(q.Year)
	saturdays := core.SaturdaysInMonth(q.Month, q.Year)

	selected := make(map[string]struct{}, len(q.Disciplers))
	for _, d := range q.Disciplers {
		selected[d] = struct{}{}
	}
	inGroup := func(r core.AttendanceRecord) bool {
		if len(selected) > 0 {
			if _, ok := selected[r.Discipler]; !ok {
				return false
			}
		}
		return q.Type == "" || r.Type == q.Type
	}

	var month, groups []core.AttendanceRecord
	for _, r := range rows {
		if !inGroup(r) {
			continue
		}
		groups = append(groups, r)
		if r.Month == q.Month {
			month = append(month, r)
		}
	}

	obs := FlattenAttendance(month, saturdays)
	if q.Type != "" {
		kept := obs[:0]
		for _, o := range obs {
			if o.Type == q.Type {
				kept = append(kept, o)
			}
		}
		obs = kept
	}

	var types []core.SessionType
	if q.Type != "" {
		types = []core.SessionType{q.Type}
	}

	return core.AttendanceOverview{
		Month:        q.Month,
		Saturdays:    saturdays,
		Observations: obs,
		Totals:       SlotTotals(month, slots),
		Rolling: RollingWindowAverage(groups, RollingParams{
			Current:    q.Month,
			Window:     q.RollingWindow,
			Disciplers: q.Disciplers,
			Types:      types,
			Slots:      slots,
		}),
	}
}
