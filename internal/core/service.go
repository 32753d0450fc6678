package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Service provides the employee and login operations on top of a Store.
type Service struct {
	store Store
	now   func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithClock overrides the clock used for derived fields and audit times.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService creates a new Service instance.
func NewService(store Store, opts ...ServiceOption) *Service {
	s := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the service clock's current time.
func (s *Service) Now() time.Time {
	return s.now()
}

// FetchRaw returns the unnormalized snapshot. Grids load through this so
// that they normalize against their own clock.
func (s *Service) FetchRaw(ctx context.Context) ([]RawRecord, error) {
	raws, err := s.store.ListEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	return raws, nil
}

// ListEmployees returns every employee, normalized.
func (s *Service) ListEmployees(ctx context.Context) ([]Record, error) {
	raws, err := s.FetchRaw(ctx)
	if err != nil {
		return nil, err
	}
	return NormalizeAll(raws, s.now()), nil
}

// GetEmployee returns one employee by id.
func (s *Service) GetEmployee(ctx context.Context, id int64) (Record, error) {
	if id <= 0 {
		return Record{}, ErrInvalidID
	}
	raw, err := s.store.GetEmployee(ctx, id)
	if err != nil {
		return Record{}, fmt.Errorf("get employee %d: %w", id, err)
	}
	return Normalize(raw, s.now()), nil
}

// CreateEmployee validates and stores a new employee.
func (s *Service) CreateEmployee(ctx context.Context, in EmployeeInput) (Record, error) {
	p, err := in.Validate()
	if err != nil {
		return Record{}, err
	}
	raw, err := s.store.InsertEmployee(ctx, p)
	if err != nil {
		return Record{}, fmt.Errorf("insert employee: %w", err)
	}
	rec := Normalize(raw, s.now())
	s.audit(ctx, ActionEmployeeCreate, rec.ID, map[string]any{"nombre": rec.Nombre})
	return rec, nil
}

// UpdateEmployee replaces an employee's fields. activo is derived from
// fecha_retiro on every write. On failure the stored row is unchanged.
func (s *Service) UpdateEmployee(ctx context.Context, id int64, in EmployeeInput) (Record, error) {
	if id <= 0 {
		return Record{}, ErrInvalidID
	}
	p, err := in.Validate()
	if err != nil {
		return Record{}, err
	}
	raw, err := s.store.UpdateEmployee(ctx, id, p)
	if err != nil {
		return Record{}, fmt.Errorf("update employee %d: %w", id, err)
	}
	rec := Normalize(raw, s.now())
	s.audit(ctx, ActionEmployeeUpdate, id, map[string]any{"activo": rec.Activo})
	return rec, nil
}

// DeleteEmployee removes an employee.
func (s *Service) DeleteEmployee(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidID
	}
	if err := s.store.DeleteEmployee(ctx, id); err != nil {
		return fmt.Errorf("delete employee %d: %w", id, err)
	}
	s.audit(ctx, ActionEmployeeDelete, id, nil)
	return nil
}

// Authenticate checks credentials against the usuario table. Unknown
// e-mails and wrong passwords both return ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		v := &validator{}
		if email == "" {
			v.fail("email", "", "required field is empty")
		}
		if password == "" {
			v.fail("password", "", "required field is empty")
		}
		return User{}, &ValidationError{Fields: v.errs}
	}

	u, err := s.store.FindUserByEmail(ctx, email)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return User{}, fmt.Errorf("find user: %w", err)
	}
	if err != nil || !CheckPassword(u.Password, password) {
		s.audit(ContextWithActor(ctx, Actor{Correo: email}), ActionLoginFailed, 0, nil)
		return User{}, ErrInvalidCredentials
	}

	s.audit(ContextWithActor(ctx, Actor{UserID: u.ID, Correo: u.Correo}), ActionLogin, 0, nil)
	u.Password = ""
	return u, nil
}
