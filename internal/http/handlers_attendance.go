package http

import (
	"net/http"
	"strconv"

	"igreja/internal/core"
	"igreja/internal/report"
)

// cacheKey quotes every name so no discipler can collide with a separator.
func (q MonthQuery) cacheKey() string {
	key := strconv.Itoa(int(q.Month)) + "|" + strconv.Quote(string(q.Type))
	for _, d := range q.Disciplers {
		key += "|" + strconv.Quote(d)
	}
	return key
}

func (s *Server) attendanceOverview(q MonthQuery) (core.AttendanceOverview, error) {
	ov, hit, err := s.attendanceViews.GetOrLoad(q.cacheKey(), func() (core.AttendanceOverview, error) {
		return report.AttendanceOverview(s.ledgers.Attendance(), report.AttendanceQuery{
			Month:         q.Month,
			Year:          s.year,
			Disciplers:    q.Disciplers,
			Type:          q.Type,
			RollingWindow: s.rollingWindow,
		}), nil
	})
	s.metrics.CacheLookup(hit)
	return ov, err
}

// handleAttendanceOverview returns the Saturdays, observations, totals by
// type and rolling averages of the selection.
func (s *Server) handleAttendanceOverview(w http.ResponseWriter, r *http.Request) {
	q, err := ParseMonthQuery(r.URL.Query(), s.currentMonth())
	if err != nil {
		writeError(w, r, err)
		return
	}
	ov, err := s.attendanceOverview(q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ov)
}

// handleListAttendance returns the rows of the month for the selected
// disciplers, all of them when none is given.
func (s *Server) handleListAttendance(w http.ResponseWriter, r *http.Request) {
	q, err := ParseMonthQuery(r.URL.Query(), s.currentMonth())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ledgers.AttendanceSelection(q.Month, q.Disciplers))
}

// handleSaveAttendance replaces the counters of the selected rows.
func (s *Server) handleSaveAttendance(w http.ResponseWriter, r *http.Request) {
	q, err := ParseMonthQuery(r.URL.Query(), s.currentMonth())
	if err != nil {
		writeError(w, r, err)
		return
	}
	var rows []core.AttendanceRecord
	if err := decodeJSON(w, r, &rows); err != nil {
		writeError(w, r, err)
		return
	}
	for i := range rows {
		if rows[i].Month == 0 {
			rows[i].Month = q.Month
		}
		rows[i].Discipler = sanitizeInput(rows[i].Discipler)
	}
	if err := s.ledgers.SaveAttendance(r.Context(), q.Month, q.Disciplers, rows); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ledgers.AttendanceSelection(q.Month, q.Disciplers))
}
