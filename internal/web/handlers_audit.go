package web

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/JonMunkholm/rrhh/internal/core"
	"github.com/JonMunkholm/rrhh/internal/grid"
)

const auditPageSize = 50

// AuditLogResponse is one page of the audit log.
type AuditLogResponse struct {
	Entries    []core.AuditEntry `json:"entries"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
	TotalPages int               `json:"totalPages"`
}

// parseAuditFilter reads accion, severidad, desde and hasta. Dates are
// whole days; hasta includes the full day.
func parseAuditFilter(r *http.Request) core.AuditFilter {
	q := r.URL.Query()
	f := core.AuditFilter{
		Action:   core.AuditAction(q.Get("accion")),
		Severity: core.AuditSeverity(q.Get("severidad")),
	}
	if t, ok := core.ParseDate(q.Get("desde")); ok {
		f.From = t
	}
	if t, ok := core.ParseDate(q.Get("hasta")); ok {
		f.To = t.Add(24*time.Hour - time.Second)
	}
	return f
}

func parseIntParam(r *http.Request, name string, defaultVal int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v < 1 {
		return defaultVal
	}
	return v
}

// handleAuditLog returns a filtered page of the audit log.
func (s *Server) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	page := parseIntParam(r, "pagina", 1)
	f := parseAuditFilter(r)
	f.Limit = auditPageSize
	f.Offset = (page - 1) * auditPageSize

	entries, err := s.service.GetAuditLog(r.Context(), f)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	total, err := s.service.CountAuditLog(r.Context(), f)
	if err != nil {
		total = int64(len(entries))
	}

	totalPages := int((total + auditPageSize - 1) / auditPageSize)
	if totalPages < 1 {
		totalPages = 1
	}
	if entries == nil {
		entries = []core.AuditEntry{}
	}
	writeJSON(w, AuditLogResponse{
		Entries:    entries,
		Total:      total,
		Page:       page,
		PageSize:   auditPageSize,
		TotalPages: totalPages,
	})
}

// handleAuditLogExport streams matching entries as CSV, fetching them in
// batches so the whole log is never held in memory.
func (s *Server) handleAuditLogExport(w http.ResponseWriter, r *http.Request) {
	f := parseAuditFilter(r)
	const batch = 500

	// Fetch the first batch before committing to a 200.
	f.Limit = batch
	entries, err := s.service.GetAuditLog(r.Context(), f)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	filename := fmt.Sprintf("auditoria_%s.csv", s.service.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"ID", "Fecha", "Acción", "Severidad", "Usuario", "Correo",
		"IP", "Empleado", "Detalle",
	}); err != nil {
		return
	}

	rows := 0
	for len(entries) > 0 {
		for _, e := range entries {
			if err := cw.Write(auditCSVRow(e)); err != nil {
				reqLogger(r).Warn("audit export aborted", "rows", rows, "error", err)
				return
			}
			rows++
		}
		cw.Flush()
		if len(entries) < batch {
			break
		}
		f.Offset += batch
		entries, err = s.service.GetAuditLog(r.Context(), f)
		if err != nil {
			reqLogger(r).Error("audit export aborted", "rows", rows, "error", err)
			return
		}
	}
	cw.Flush()
	reqLogger(r).Info("audit export sent", "file", filename, "rows", rows)
}

func auditCSVRow(e core.AuditEntry) []string {
	detail := ""
	if len(e.Detail) > 0 {
		detail = fmt.Sprint(e.Detail)
	}
	return []string{
		strconv.FormatInt(e.ID, 10),
		e.CreatedAt.Format(time.RFC3339),
		string(e.Action),
		string(e.Severity),
		optionalID(e.UserID),
		grid.SanitizeCell(e.UserEmail),
		e.IPAddress,
		optionalID(e.EmployeeID),
		grid.SanitizeCell(detail),
	}
}

func optionalID(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}
