package core

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Sentinel errors returned by the store and service.
var (
	ErrNotFound           = errors.New("employee not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidID          = errors.New("invalid id")
)

// Store is the record store the service reads from and writes to.
// Implementations return ErrNotFound for unknown employee ids and
// ErrUserNotFound for unknown e-mails.
type Store interface {
	ListEmployees(ctx context.Context) ([]RawRecord, error)
	GetEmployee(ctx context.Context, id int64) (RawRecord, error)
	InsertEmployee(ctx context.Context, p EmployeeParams) (RawRecord, error)
	UpdateEmployee(ctx context.Context, id int64, p EmployeeParams) (RawRecord, error)
	DeleteEmployee(ctx context.Context, id int64) error
	FindUserByEmail(ctx context.Context, email string) (User, error)
	InsertAudit(ctx context.Context, entry AuditEntry) error
	ListAudit(ctx context.Context, f AuditFilter) ([]AuditEntry, error)
	CountAudit(ctx context.Context, f AuditFilter) (int64, error)
}

// User is an HR staff account allowed to sign in.
type User struct {
	ID       int64  `json:"id"`
	Nombre   string `json:"nombre"`
	Correo   string `json:"correo"`
	Password string `json:"-"` // bcrypt hash, or a legacy plaintext value
}

// EmployeeParams is a validated write payload. Produced only by
// EmployeeInput.Validate, so stores can trust every field.
type EmployeeParams struct {
	Nombre              string
	TipoDocumento       string
	Documento           string
	Sexo                string
	FechaNacimiento     time.Time
	Cargo               string
	FechaAfiliacion     time.Time
	FechaRetiro         *time.Time
	Salario             decimal.Decimal
	Telefono            string
	Correo              string
	DireccionResidencia string
	EPS                 string
	ARL                 string
	FondoPension        string
	CajaCompensacion    string
	InfoAdicional       string
	Activo              int
}
