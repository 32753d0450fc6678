package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/rrhh/internal/core"
)

// employeeColumns is the select list for formularios. EPS and ARL are
// quoted so the row maps keep the upper-case keys.
const employeeColumns = `id, nombre, tipo_documento, documento, sexo, fecha_nacimiento, cargo,
	fecha_afiliacion, fecha_retiro, salario, telefono, correo, direccion_residencia,
	"EPS", "ARL", fondo_pension, caja_compensacion, info_adicional, activo`

// Postgres implements core.Store on a pgx pool.
type Postgres struct {
	pool *pgxpool.Pool
}

var _ core.Store = (*Postgres)(nil)

// NewPostgres wraps an open pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Ping checks database connectivity for the health endpoint.
func (s *Postgres) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}

// ListEmployees returns every row of formularios in id order.
func (s *Postgres) ListEmployees(ctx context.Context) ([]core.RawRecord, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+employeeColumns+` FROM formularios ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query formularios: %w", err)
	}
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("scan formularios: %w", err)
	}

	out := make([]core.RawRecord, len(maps))
	for i, m := range maps {
		out[i] = core.RawRecord(m)
	}
	return out, nil
}

// GetEmployee returns one row by id.
func (s *Postgres) GetEmployee(ctx context.Context, id int64) (core.RawRecord, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+employeeColumns+` FROM formularios WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("query formularios: %w", err)
	}
	return collectOne(rows)
}

// InsertEmployee stores a validated employee and returns the new row.
func (s *Postgres) InsertEmployee(ctx context.Context, p core.EmployeeParams) (core.RawRecord, error) {
	rows, err := s.pool.Query(ctx, `
		INSERT INTO formularios (
			nombre, tipo_documento, documento, sexo, fecha_nacimiento, cargo,
			fecha_afiliacion, fecha_retiro, salario, telefono, correo, direccion_residencia,
			"EPS", "ARL", fondo_pension, caja_compensacion, info_adicional, activo
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING `+employeeColumns, employeeArgs(p)...)
	if err != nil {
		return nil, fmt.Errorf("insert formularios: %w", err)
	}
	return collectOne(rows)
}

// UpdateEmployee replaces every writable column of one row.
func (s *Postgres) UpdateEmployee(ctx context.Context, id int64, p core.EmployeeParams) (core.RawRecord, error) {
	args := append(employeeArgs(p), id)
	rows, err := s.pool.Query(ctx, `
		UPDATE formularios SET
			nombre = $1, tipo_documento = $2, documento = $3, sexo = $4,
			fecha_nacimiento = $5, cargo = $6, fecha_afiliacion = $7, fecha_retiro = $8,
			salario = $9, telefono = $10, correo = $11, direccion_residencia = $12,
			"EPS" = $13, "ARL" = $14, fondo_pension = $15, caja_compensacion = $16,
			info_adicional = $17, activo = $18, updated_at = now()
		WHERE id = $19
		RETURNING `+employeeColumns, args...)
	if err != nil {
		return nil, fmt.Errorf("update formularios: %w", err)
	}
	return collectOne(rows)
}

// DeleteEmployee removes one row.
func (s *Postgres) DeleteEmployee(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM formularios WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete formularios: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

// FindUserByEmail looks up a staff account, ignoring e-mail case.
func (s *Postgres) FindUserByEmail(ctx context.Context, email string) (core.User, error) {
	var u core.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, nombre, correo, contrasena FROM usuario WHERE lower(correo) = lower($1)`, email,
	).Scan(&u.ID, &u.Nombre, &u.Correo, &u.Password)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.User{}, core.ErrUserNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("query usuario: %w", err)
	}
	return u, nil
}

// CreateUser adds a staff account. hash must already be a bcrypt hash.
func (s *Postgres) CreateUser(ctx context.Context, nombre, correo, hash string) (core.User, error) {
	u := core.User{Nombre: nombre, Correo: correo}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO usuario (nombre, correo, contrasena) VALUES ($1, $2, $3) RETURNING id`,
		nombre, correo, hash,
	).Scan(&u.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return core.User{}, fmt.Errorf("user %s: duplicate key: %w", correo, err)
		}
		return core.User{}, fmt.Errorf("insert usuario: %w", err)
	}
	return u, nil
}

// InsertAudit appends an audit entry.
func (s *Postgres) InsertAudit(ctx context.Context, e core.AuditEntry) error {
	var detail []byte
	if e.Detail != nil {
		var err error
		detail, err = json.Marshal(e.Detail)
		if err != nil {
			detail = nil
		}
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO auditoria (action, severity, user_id, user_email, ip_address, user_agent, employee_id, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		string(e.Action),
		string(e.Severity),
		nullableID(e.UserID),
		core.ToPgText(e.UserEmail),
		core.ToPgText(e.IPAddress),
		core.ToPgText(e.UserAgent),
		nullableID(e.EmployeeID),
		detail,
		e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert auditoria: %w", err)
	}
	return nil
}

func employeeArgs(p core.EmployeeParams) []any {
	return []any{
		p.Nombre,
		p.TipoDocumento,
		p.Documento,
		p.Sexo,
		core.ToPgDate(&p.FechaNacimiento),
		p.Cargo,
		core.ToPgDate(&p.FechaAfiliacion),
		core.ToPgDate(p.FechaRetiro),
		core.ToPgNumeric(p.Salario),
		p.Telefono,
		core.ToPgText(p.Correo),
		core.ToPgText(p.DireccionResidencia),
		core.ToPgText(p.EPS),
		core.ToPgText(p.ARL),
		core.ToPgText(p.FondoPension),
		core.ToPgText(p.CajaCompensacion),
		core.ToPgText(p.InfoAdicional),
		core.ToPgInt2(p.Activo),
	}
}

func collectOne(rows pgx.Rows) (core.RawRecord, error) {
	m, err := pgx.CollectExactlyOneRow(rows, pgx.RowToMap)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan formularios: %w", err)
	}
	return core.RawRecord(m), nil
}

func nullableID(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}
