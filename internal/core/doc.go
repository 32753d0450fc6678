// Package core provides the business logic for the RRHH employee records.
//
// This package holds the domain independent of any UI or transport layer. It
// can be used by web handlers, the operator CLI, or tests without modification.
//
// # Records
//
// Employee rows arrive from the record store as [RawRecord] values (loosely
// typed maps). [Normalize] is the only place raw data enters the typed domain:
// it produces a [Record] with the derived age (edad) and active flag (activo)
// recomputed against a supplied clock.
//
//	rec := core.Normalize(raw, time.Now())
//	if rec.Edad != nil {
//	    fmt.Println(rec.Nombre, *rec.Edad)
//	}
//
// # Field Catalog
//
// [Fields] lists every canonical column with its [FieldType]. The grid
// package uses the type to pick a comparator (text, numeric or date) and the
// web layer uses it to render inputs.
//
// # Service
//
// [Service] wraps a [Store] and adds payload validation, derived-field rules
// (activo follows fecha_retiro on every write) and audit logging:
//
//	svc := core.NewService(store)
//	rec, err := svc.UpdateEmployee(ctx, id, input)
//	var verr *core.ValidationError
//	if errors.As(err, &verr) {
//	    // show verr.Fields next to the form inputs
//	}
//
// # Error Handling
//
// Technical errors are mapped to user-facing messages using [MapError]. Each
// category has a code support staff can look up:
//
//   - AUTH001-AUTH003: login and session errors
//   - VAL000-VAL005: payload validation errors
//   - EMP001: employee not found
//   - DB001-DB006: database errors (duplicates, connections, timeouts)
//   - RATE001: too many requests
package core
