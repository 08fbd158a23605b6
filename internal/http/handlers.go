package http

import (
	"net/http"
	"sort"
	"time"

	"igreja/internal/auth"
	"igreja/internal/core"
	"igreja/internal/log"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": s.now().Format(time.RFC3339),
	})
}

// handleReady reports 503 while a ledger is served read-only from
// defaults, naming the ledger and the load error.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)
	status, code := "ready", http.StatusOK

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status, code = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	degraded := s.ledgers.Degraded()
	names := make([]string, 0, len(degraded))
	for name, err := range degraded {
		checks["ledger:"+string(name)] = "degraded: " + err.Error()
		names = append(names, string(name))
	}
	sort.Strings(names)
	if len(names) > 0 {
		status, code = "not_ready", http.StatusServiceUnavailable
	}

	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": s.now().Format(time.RFC3339),
		"degraded":  names,
		"checks":    checks,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	fields, err := formValues(w, r, "code")
	if err != nil {
		writeError(w, r, err)
		return
	}
	token, exp, err := s.auth.Login(fields["code"])
	s.metrics.Login(err == nil)
	if err != nil {
		log.FromContext(r.Context()).WithComponent(log.ComponentAuth).WarnContext(r.Context(), "Admin login failed",
			log.FieldClientIP, s.detector.ExtractClientIP(r), log.FieldError, err)
		writeError(w, r, err)
		return
	}
	auth.SetCookie(w, token, exp, s.secureCookie)
	writeJSON(w, http.StatusOK, map[string]any{"admin": true, "expires": exp.Format(time.RFC3339)})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearCookie(w, s.secureCookie)
	writeJSON(w, http.StatusOK, map[string]any{"admin": false})
}

func (s *Server) currentMonth() core.Month {
	return core.Month(s.now().Month())
}
