package http

import (
	"fmt"
	"net/http"

	"igreja/internal/services"
)

func (s *Server) handleListLeaders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ledgers.Leaders())
}

func (s *Server) handleAddLeader(w http.ResponseWriter, r *http.Request) {
	fields, err := formValues(w, r, "name")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.ledgers.AddLeader(r.Context(), fields["name"]); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.ledgers.Leaders())
}

func (s *Server) handleRenameLeader(w http.ResponseWriter, r *http.Request) {
	fields, err := formValues(w, r, "old", "new")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.ledgers.RenameLeader(r.Context(), fields["old"], fields["new"]); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ledgers.Leaders())
}

// handleRemoveLeader deletes every row of a leader. The removal is
// irreversible, so confirm must repeat the name exactly.
func (s *Server) handleRemoveLeader(w http.ResponseWriter, r *http.Request) {
	name := sanitizeInput(r.URL.Query().Get("name"))
	confirm := sanitizeInput(r.URL.Query().Get("confirm"))
	if name == "" || confirm != name {
		writeError(w, r, fmt.Errorf("%w: confirm must equal the leader name", services.ErrInvalidEdit))
		return
	}
	if err := s.ledgers.RemoveLeader(r.Context(), name); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ledgers.Leaders())
}
