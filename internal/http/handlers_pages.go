package http

import (
	"bytes"
	"net/http"
	"sort"

	"igreja/internal/auth"
	"igreja/internal/core"
	"igreja/internal/log"
)

type seriesBar struct {
	Month  core.Month
	Amount string
	Width  int
}

type statusCount struct {
	Status core.PaidStatus
	Count  int
}

// Page carries what the layout needs on every page.
type Page struct {
	Title    string
	Year     int
	Admin    bool
	Degraded []string
	Months   []core.Month
	Month    core.Month
}

func (s *Server) page(r *http.Request, title string, month core.Month) Page {
	var names []string
	for name := range s.ledgers.Degraded() {
		names = append(names, string(name))
	}
	sort.Strings(names)
	return Page{
		Title:    title,
		Year:     s.year,
		Admin:    auth.AdminFromContext(r.Context()),
		Degraded: names,
		Months:   core.Months(),
		Month:    month,
	}
}

// handleDashboard renders the tithe dashboard for the selected month.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	month, err := parseMonth(r.URL.Query(), s.currentMonth())
	if err != nil {
		writeError(w, r, err)
		return
	}
	ov, err := s.titheOverview(month)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var max int64
	for _, p := range ov.Series {
		if p.Total.Cents > max {
			max = p.Total.Cents
		}
	}
	bars := make([]seriesBar, 0, len(ov.Series))
	for _, p := range ov.Series {
		bars = append(bars, seriesBar{Month: p.Month, Amount: formatReais(p.Total), Width: barWidth(p.Total.Cents, max)})
	}
	split := make([]statusCount, 0, 2)
	for _, st := range core.PaidStatuses() {
		split = append(split, statusCount{Status: st, Count: ov.Status[st]})
	}

	data := struct {
		Page
		Total  string
		Series []seriesBar
		Split  []statusCount
		Rows   []core.TitheRecord
	}{
		Page:   s.page(r, "Dízimos", month),
		Total:  formatReais(ov.Total),
		Series: bars,
		Split:  split,
		Rows:   s.ledgers.TitheMonth(month),
	}
	s.render(w, r, "dashboard.html", data)
}

// handleAttendancePage renders the attendance summary for the selected
// month and disciplers.
func (s *Server) handleAttendancePage(w http.ResponseWriter, r *http.Request) {
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

	type typeTotal struct {
		Type core.SessionType
		core.Slot
	}
	totals := make([]typeTotal, 0, len(ov.Totals))
	for _, t := range core.SessionTypes() {
		if sl, ok := ov.Totals[t]; ok {
			totals = append(totals, typeTotal{Type: t, Slot: sl})
		}
	}

	selected := make(map[string]bool, len(q.Disciplers))
	for _, d := range q.Disciplers {
		selected[d] = true
	}

	data := struct {
		Page
		Saturdays  []string
		Disciplers []string
		Selected   map[string]bool
		Type       core.SessionType
		Types      []core.SessionType
		Totals     []typeTotal
		Rows       []core.AttendanceRecord
		Rolling    []core.RollingAverage
	}{
		Page:       s.page(r, "Presença", q.Month),
		Saturdays:  ov.Saturdays,
		Disciplers: s.ledgers.Disciplers(),
		Selected:   selected,
		Type:       q.Type,
		Types:      core.SessionTypes(),
		Totals:     totals,
		Rows:       s.ledgers.AttendanceSelection(q.Month, q.Disciplers),
		Rolling:    ov.Rolling,
	}
	s.render(w, r, "presenca.html", data)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Templates not loaded", log.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.FromContext(r.Context()).WithComponent(log.ComponentTemplate).ErrorContext(r.Context(),
			"Template execution failed", log.FieldError, err, "template", name)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
