package http

import (
	"net/http"
	"strconv"

	"igreja/internal/core"
	"igreja/internal/report"
)

func (s *Server) titheOverview(month core.Month) (core.TitheOverview, error) {
	ov, hit, err := s.titheViews.GetOrLoad(strconv.Itoa(int(month)), func() (core.TitheOverview, error) {
		return report.TitheOverview(s.ledgers.Tithes(), core.Window(s.titheWindow), month), nil
	})
	s.metrics.CacheLookup(hit)
	return ov, err
}

// handleTitheOverview returns the paid total, the monthly series and the
// paid status split of the selected month.
func (s *Server) handleTitheOverview(w http.ResponseWriter, r *http.Request) {
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
	writeJSON(w, http.StatusOK, ov)
}

// handleListTithes returns the rows of one month, the editable subset.
func (s *Server) handleListTithes(w http.ResponseWriter, r *http.Request) {
	month, err := parseMonth(r.URL.Query(), s.currentMonth())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ledgers.TitheMonth(month))
}

// handleSaveTithes replaces the rows of one month. Rows without a month
// take the month of the query.
func (s *Server) handleSaveTithes(w http.ResponseWriter, r *http.Request) {
	month, err := parseMonth(r.URL.Query(), s.currentMonth())
	if err != nil {
		writeError(w, r, err)
		return
	}
	var rows []core.TitheRecord
	if err := decodeJSON(w, r, &rows); err != nil {
		writeError(w, r, err)
		return
	}
	for i := range rows {
		if rows[i].Month == 0 {
			rows[i].Month = month
		}
		rows[i].Leader = sanitizeInput(rows[i].Leader)
	}
	if err := s.ledgers.SaveTitheMonth(r.Context(), month, rows); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ledgers.TitheMonth(month))
}
