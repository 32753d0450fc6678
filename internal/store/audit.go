package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/rrhh/internal/core"
)

// whereBuilder assembles a parameterized WHERE clause.
type whereBuilder struct {
	conds []string
	args  []any
}

// add appends "column = $n" when value is non-empty.
func (b *whereBuilder) add(column, value string) {
	if value == "" {
		return
	}
	b.args = append(b.args, value)
	b.conds = append(b.conds, fmt.Sprintf("%s = $%d", column, len(b.args)))
}

// addTime appends "column op $n" when t is set.
func (b *whereBuilder) addTime(column, op string, t time.Time) {
	if t.IsZero() {
		return
	}
	b.args = append(b.args, t)
	b.conds = append(b.conds, fmt.Sprintf("%s %s $%d", column, op, len(b.args)))
}

func (b *whereBuilder) build() (string, []any) {
	if len(b.conds) == 0 {
		return "", b.args
	}
	return " WHERE " + strings.Join(b.conds, " AND "), b.args
}

func (b *whereBuilder) next() int {
	return len(b.args) + 1
}

func auditWhere(f core.AuditFilter) *whereBuilder {
	wb := &whereBuilder{}
	wb.add("action", string(f.Action))
	wb.add("severity", string(f.Severity))
	wb.addTime("created_at", ">=", f.From)
	wb.addTime("created_at", "<=", f.To)
	return wb
}

type auditRow struct {
	ID         int64
	Action     string
	Severity   string
	UserID     *int64
	UserEmail  *string
	IPAddress  *string
	UserAgent  *string
	EmployeeID *int64
	Detail     []byte
	CreatedAt  time.Time
}

func (r auditRow) entry() core.AuditEntry {
	e := core.AuditEntry{
		ID:        r.ID,
		Action:    core.AuditAction(r.Action),
		Severity:  core.AuditSeverity(r.Severity),
		CreatedAt: r.CreatedAt,
	}
	if r.UserID != nil {
		e.UserID = *r.UserID
	}
	if r.EmployeeID != nil {
		e.EmployeeID = *r.EmployeeID
	}
	e.UserEmail = deref(r.UserEmail)
	e.IPAddress = deref(r.IPAddress)
	e.UserAgent = deref(r.UserAgent)
	if len(r.Detail) > 0 {
		// a malformed detail column still yields the entry
		_ = json.Unmarshal(r.Detail, &e.Detail)
	}
	return e
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ListAudit returns matching entries, newest first.
func (s *Postgres) ListAudit(ctx context.Context, f core.AuditFilter) ([]core.AuditEntry, error) {
	wb := auditWhere(f)
	where, args := wb.build()
	query := `SELECT id, action, severity, user_id, user_email, ip_address, user_agent,
		employee_id, detail, created_at
		FROM auditoria` + where +
		fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", wb.next(), wb.next()+1)
	args = append(args, f.Limit, f.Offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query auditoria: %w", err)
	}
	found, err := pgx.CollectRows(rows, pgx.RowToStructByPos[auditRow])
	if err != nil {
		return nil, fmt.Errorf("scan auditoria: %w", err)
	}

	entries := make([]core.AuditEntry, 0, len(found))
	for _, r := range found {
		entries = append(entries, r.entry())
	}
	return entries, nil
}

// CountAudit returns the number of matching entries.
func (s *Postgres) CountAudit(ctx context.Context, f core.AuditFilter) (int64, error) {
	where, args := auditWhere(f).build()
	var n int64
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM auditoria"+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count auditoria: %w", err)
	}
	return n, nil
}
