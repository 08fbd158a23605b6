package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"igreja/internal/export"
	"igreja/internal/log"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// handleExportWorkbook sends both ledgers as one workbook.
func (s *Server) handleExportWorkbook(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := export.WriteWorkbook(&buf, s.ledgers.Tithes(), s.ledgers.Attendance()); err != nil {
		writeError(w, r, fmt.Errorf("export workbook: %w", err))
		return
	}
	s.sendFile(w, r, xlsxContentType, fmt.Sprintf("igreja-%d.xlsx", s.year), buf.Bytes())
}

// handleExportTithesPDF sends the tithe report of one month.
func (s *Server) handleExportTithesPDF(w http.ResponseWriter, r *http.Request) {
	month, err := parseMonth(r.URL.Query(), s.currentMonth())
	if err != nil {
		writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteTithesPDF(&buf, s.ledgers.TitheMonth(month), month, s.year); err != nil {
		writeError(w, r, fmt.Errorf("export pdf: %w", err))
		return
	}
	s.sendFile(w, r, "application/pdf", fmt.Sprintf("dizimos-%02d-%d.pdf", int(month), s.year), buf.Bytes())
}

func (s *Server) sendFile(w http.ResponseWriter, r *http.Request, contentType, name string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write(body); err != nil {
		log.FromContext(r.Context()).WithComponent(log.ComponentExport).WarnContext(r.Context(),
			"Export write failed", log.FieldError, err)
	}
}
