package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/JonMunkholm/rrhh/internal/logging"
)

// AuditAction represents the type of action being audited.
type AuditAction string

const (
	ActionEmployeeCreate AuditAction = "employee_create"
	ActionEmployeeUpdate AuditAction = "employee_update"
	ActionEmployeeDelete AuditAction = "employee_delete"
	ActionLogin          AuditAction = "login"
	ActionLoginFailed    AuditAction = "login_failed"
	ActionExport         AuditAction = "export"
)

// AuditSeverity represents the severity level of an audit entry.
type AuditSeverity string

const (
	SeverityLow      AuditSeverity = "low"
	SeverityMedium   AuditSeverity = "medium"
	SeverityHigh     AuditSeverity = "high"
	SeverityCritical AuditSeverity = "critical"
)

// AuditEntry represents a single audit log entry.
type AuditEntry struct {
	ID         int64          `json:"id"`
	Action     AuditAction    `json:"action"`
	Severity   AuditSeverity  `json:"severity"`
	UserID     int64          `json:"userId,omitempty"`
	UserEmail  string         `json:"userEmail,omitempty"`
	IPAddress  string         `json:"ipAddress,omitempty"`
	UserAgent  string         `json:"userAgent,omitempty"`
	EmployeeID int64          `json:"employeeId,omitempty"`
	Detail     map[string]any `json:"detail,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// AuditFilter narrows an audit log query. Zero fields match everything.
type AuditFilter struct {
	Action   AuditAction
	Severity AuditSeverity
	From     time.Time
	To       time.Time
	Limit    int
	Offset   int
}

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

// normalized clamps the page size.
func (f AuditFilter) normalized() AuditFilter {
	if f.Limit <= 0 {
		f.Limit = defaultAuditLimit
	}
	if f.Limit > maxAuditLimit {
		f.Limit = maxAuditLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// Matches reports whether e passes the filter, ignoring paging.
func (f AuditFilter) Matches(e AuditEntry) bool {
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if f.Severity != "" && e.Severity != f.Severity {
		return false
	}
	if !f.From.IsZero() && e.CreatedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && e.CreatedAt.After(f.To) {
		return false
	}
	return true
}

// determineSeverity returns the appropriate severity for an action.
func determineSeverity(action AuditAction) AuditSeverity {
	switch action {
	case ActionEmployeeDelete:
		return SeverityHigh
	case ActionLoginFailed:
		return SeverityCritical
	case ActionLogin, ActionExport:
		return SeverityLow
	default:
		return SeverityMedium
	}
}

// newAuditEntry fills actor, IP and user agent from the request context.
func newAuditEntry(ctx context.Context, action AuditAction, employeeID int64, detail map[string]any, now time.Time) AuditEntry {
	actor := ActorFromContext(ctx)
	return AuditEntry{
		Action:     action,
		Severity:   determineSeverity(action),
		UserID:     actor.UserID,
		UserEmail:  actor.Correo,
		IPAddress:  GetIPAddressFromContext(ctx),
		UserAgent:  GetUserAgentFromContext(ctx),
		EmployeeID: employeeID,
		Detail:     detail,
		CreatedAt:  now,
	}
}

// audit records an entry. Failures are logged and never returned: the
// change the entry describes has already been committed.
func (s *Service) audit(ctx context.Context, action AuditAction, employeeID int64, detail map[string]any) {
	entry := newAuditEntry(ctx, action, employeeID, detail, s.now())
	if err := s.store.InsertAudit(ctx, entry); err != nil {
		logging.FromContext(ctx).Warn("audit write failed",
			slog.String("action", string(action)),
			slog.Int64("employee_id", employeeID),
			slog.String("error", err.Error()),
		)
	}
}

// LogExport records a grid export. Exports read data only, so they are
// audited separately from the write path.
func (s *Service) LogExport(ctx context.Context, mode, format string, rows int) {
	s.audit(ctx, ActionExport, 0, map[string]any{
		"mode":   mode,
		"format": format,
		"rows":   rows,
	})
}

// GetAuditLog returns audit entries matching f, newest first.
func (s *Service) GetAuditLog(ctx context.Context, f AuditFilter) ([]AuditEntry, error) {
	entries, err := s.store.ListAudit(ctx, f.normalized())
	if err != nil {
		return nil, fmt.Errorf("list audit: %w", err)
	}
	return entries, nil
}

// CountAuditLog returns how many entries match f.
func (s *Service) CountAuditLog(ctx context.Context, f AuditFilter) (int64, error) {
	n, err := s.store.CountAudit(ctx, f)
	if err != nil {
		return 0, fmt.Errorf("count audit: %w", err)
	}
	return n, nil
}
