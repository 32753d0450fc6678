package web

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/rrhh/internal/core"
	"github.com/JonMunkholm/rrhh/internal/grid"
	"github.com/JonMunkholm/rrhh/internal/web/templates"
)

// Flash notices carried across redirects in the aviso query parameter.
var notices = map[string]string{
	"creado":      "Empleado registrado",
	"actualizado": "Empleado actualizado",
	"eliminado":   "Empleado eliminado",
}

// renderPage writes an HTML component with status.
func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		reqLogger(r).Error("render page", "path", r.URL.Path, "error", err)
	}
}

// gridPage renders page from the session grid. errMsg, when set, is shown
// above the table.
func (s *Server) gridPage(w http.ResponseWriter, r *http.Request, page string, status int, errMsg string) {
	g, err := s.sessionGrid(r, page)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	v := templates.GridView{
		Page:   page,
		User:   sessionOf(r).Correo,
		Notice: notices[r.URL.Query().Get("aviso")],
		Error:  errMsg,
		Snap:   g.Snapshot(),
	}
	if r.URL.Query().Get("aviso") == "sin_registros" {
		v.Error = core.FormatUserError(grid.ErrNothingToSend)
	}

	if page == "dashboard" {
		s.renderPage(w, r, status, templates.DashboardPage(v))
		return
	}
	s.renderPage(w, r, status, templates.EmpleadosPage(v))
}

func (s *Server) handleGridPage(page string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.gridPage(w, r, page, http.StatusOK, "")
	}
}

// handlePageAction applies a posted grid action and redirects back to the
// page. Rejected input re-renders the page with the message.
func (s *Server) handlePageAction(w http.ResponseWriter, r *http.Request) {
	page := chi.URLParam(r, "page")
	g, err := s.sessionGrid(r, page)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxBodyBytes)
	a, err := gridActionFromForm(r)
	if err == nil {
		err = s.applyGridAction(r.Context(), g, chi.URLParam(r, "action"), a)
	}
	if err != nil {
		if status := statusFor(err); status < http.StatusInternalServerError {
			reqLogger(r).Info("grid action rejected", "page", page, "error", err)
			s.gridPage(w, r, page, status, core.FormatUserError(err))
			return
		}
		s.respondError(w, r, err)
		return
	}
	http.Redirect(w, r, "/"+page, http.StatusSeeOther)
}

// handlePageExport sends the export file, or returns to the page with a
// notice when there is nothing to send.
func (s *Server) handlePageExport(w http.ResponseWriter, r *http.Request) {
	page := chi.URLParam(r, "page")
	g, err := s.sessionGrid(r, page)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.exportGrid(w, r, g); err != nil {
		if errors.Is(err, grid.ErrNothingToSend) {
			http.Redirect(w, r, "/"+page+"?aviso=sin_registros", http.StatusSeeOther)
			return
		}
		s.respondError(w, r, err)
	}
}

func (s *Server) handleEmployeeDetail(w http.ResponseWriter, r *http.Request) {
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
	s.renderPage(w, r, http.StatusOK, templates.EmployeeDetail(sessionOf(r).Correo, rec, s.layouts["completo"].Columns))
}

func (s *Server) createForm(r *http.Request) templates.FormView {
	return templates.FormView{
		User:   sessionOf(r).Correo,
		Title:  "Registrar empleado",
		Action: "/form",
		Submit: "Guardar",
	}
}

func (s *Server) editForm(r *http.Request, id int64) templates.FormView {
	return templates.FormView{
		User:   sessionOf(r).Correo,
		Title:  "Editar empleado",
		Action: fmt.Sprintf("/empleados/%d/editar", id),
		Submit: "Guardar cambios",
	}
}

func (s *Server) handleCreateForm(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, http.StatusOK, templates.EmployeeForm(s.createForm(r)))
}

func (s *Server) handleCreateSubmit(w http.ResponseWriter, r *http.Request) {
	in, err := s.parseEmployeeForm(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	rec, err := s.service.CreateEmployee(r.Context(), in)
	if err != nil {
		s.formError(w, r, s.createForm(r), in, err)
		return
	}
	s.syncSaved(r, rec)
	http.Redirect(w, r, "/empleados?aviso=creado", http.StatusSeeOther)
}

func (s *Server) handleEditForm(w http.ResponseWriter, r *http.Request) {
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
	v := s.editForm(r, id)
	v.Input = core.InputFromRecord(rec)
	s.renderPage(w, r, http.StatusOK, templates.EmployeeForm(v))
}

func (s *Server) handleEditSubmit(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	in, err := s.parseEmployeeForm(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	rec, err := s.service.UpdateEmployee(r.Context(), id, in)
	if err != nil {
		s.formError(w, r, s.editForm(r, id), in, err)
		return
	}
	s.syncSaved(r, rec)
	http.Redirect(w, r, "/empleados?aviso=actualizado", http.StatusSeeOther)
}

func (s *Server) handleDeleteSubmit(w http.ResponseWriter, r *http.Request) {
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
	http.Redirect(w, r, "/empleados?aviso=eliminado", http.StatusSeeOther)
}

func (s *Server) parseEmployeeForm(w http.ResponseWriter, r *http.Request) (core.EmployeeInput, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxBodyBytes)
	if err := r.ParseForm(); err != nil {
		return core.EmployeeInput{}, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return core.InputFromValues(r.PostForm.Get), nil
}

// formError re-renders a form with the posted values for failures the
// user can fix. Anything else goes to the error page.
func (s *Server) formError(w http.ResponseWriter, r *http.Request, v templates.FormView, in core.EmployeeInput, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError || status == http.StatusNotFound {
		s.respondError(w, r, err)
		return
	}

	reqLogger(r).Info("form rejected", "path", r.URL.Path, "error", err)
	v.Input = in
	v.Message = core.FormatUserError(err)
	var verr *core.ValidationError
	if errors.As(err, &verr) {
		v.Errors = verr.FieldMessages()
	}
	s.renderPage(w, r, status, templates.EmployeeForm(v))
}
