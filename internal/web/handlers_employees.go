package web

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/JonMunkholm/rrhh/internal/core"
	"github.com/JonMunkholm/rrhh/internal/grid"
)

// syncSaved pushes a stored record into the caller's loaded grids so the
// next render shows it without a reload.
func (s *Server) syncSaved(r *http.Request, rec core.Record) {
	s.grids.each(sessionOf(r).SessionID, func(g *grid.Grid) { g.Replace(rec) })
}

// syncDeleted drops a deleted record from the caller's loaded grids.
func (s *Server) syncDeleted(r *http.Request, id int64) {
	s.grids.each(sessionOf(r).SessionID, func(g *grid.Grid) { g.Remove(id) })
}

// decodeEmployee reads a JSON employee body.
func (s *Server) decodeEmployee(w http.ResponseWriter, r *http.Request) (core.EmployeeInput, error) {
	var in core.EmployeeInput
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		return core.EmployeeInput{}, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return in, nil
}

func (s *Server) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	recs, err := s.service.ListEmployees(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, recs)
}

func (s *Server) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	rec, err := s.service.GetEmployee(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, rec)
}

func (s *Server) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	in, err := s.decodeEmployee(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	rec, err := s.service.CreateEmployee(r.Context(), in)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.syncSaved(r, rec)
	w.Header().Set("Location", fmt.Sprintf("/api/formularios/%d", rec.ID))
	writeJSONStatus(w, http.StatusCreated, rec)
}

func (s *Server) handleUpdateEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	in, err := s.decodeEmployee(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	rec, err := s.service.UpdateEmployee(r.Context(), id, in)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.syncSaved(r, rec)
	writeJSON(w, rec)
}

func (s *Server) handleDeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.service.DeleteEmployee(r.Context(), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.syncDeleted(r, id)
	w.WriteHeader(http.StatusNoContent)
}
