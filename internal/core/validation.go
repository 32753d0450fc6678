package core

// validation.go checks employee write payloads before they reach the store.
//
// Every field is checked and all problems are collected, so a form can show
// each message next to its input. Nothing is written unless the payload is
// fully valid.

import (
	"encoding/json"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// FieldError is a validation failure for a single field.
type FieldError struct {
	Field   string `json:"field"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ValidationError collects every field failure of one payload.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 1 {
		return "validation failed: " + e.Fields[0].Error()
	}
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Error()
	}
	return fmt.Sprintf("validation failed (%d fields): %s", len(e.Fields), strings.Join(parts, "; "))
}

// FieldMessages returns field -> first message, for form rendering.
func (e *ValidationError) FieldMessages() map[string]string {
	out := make(map[string]string, len(e.Fields))
	for _, f := range e.Fields {
		if _, ok := out[f.Field]; !ok {
			out[f.Field] = f.Message
		}
	}
	return out
}

// FlexString accepts a JSON string, number, bool or null. Forms post
// salario and documento as either, depending on the input type.
type FlexString string

func (s *FlexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*s = ""
		return nil
	}
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		*s = FlexString(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err == nil {
		*s = FlexString(IdentifierString(num))
		return nil
	}
	var flag bool
	if err := json.Unmarshal(b, &flag); err == nil {
		if flag {
			*s = "1"
		} else {
			*s = "0"
		}
		return nil
	}
	return fmt.Errorf("invalid value %s", string(b))
}

func (s FlexString) trimmed() string { return strings.TrimSpace(string(s)) }

// EmployeeInput is an unvalidated create/update payload, decoded from JSON
// or from an HTML form.
type EmployeeInput struct {
	Nombre              FlexString `json:"nombre"`
	TipoDocumento       FlexString `json:"tipo_documento"`
	Documento           FlexString `json:"documento"`
	Sexo                FlexString `json:"sexo"`
	FechaNacimiento     FlexString `json:"fecha_nacimiento"`
	Cargo               FlexString `json:"cargo"`
	FechaAfiliacion     FlexString `json:"fecha_afiliacion"`
	FechaRetiro         FlexString `json:"fecha_retiro"`
	Salario             FlexString `json:"salario"`
	Telefono            FlexString `json:"telefono"`
	Correo              FlexString `json:"correo"`
	DireccionResidencia FlexString `json:"direccion_residencia"`
	EPS                 FlexString `json:"EPS"`
	ARL                 FlexString `json:"ARL"`
	FondoPension        FlexString `json:"fondo_pension"`
	CajaCompensacion    FlexString `json:"caja_compensacion"`
	InfoAdicional       FlexString `json:"info_adicional"`
}

// InputFromValues builds an input from form-style key/value pairs.
func InputFromValues(get func(key string) string) EmployeeInput {
	return EmployeeInput{
		Nombre:              FlexString(get(KeyNombre)),
		TipoDocumento:       FlexString(get(KeyTipoDocumento)),
		Documento:           FlexString(get(KeyDocumento)),
		Sexo:                FlexString(get(KeySexo)),
		FechaNacimiento:     FlexString(get(KeyFechaNacimiento)),
		Cargo:               FlexString(get(KeyCargo)),
		FechaAfiliacion:     FlexString(get(KeyFechaAfiliacion)),
		FechaRetiro:         FlexString(get(KeyFechaRetiro)),
		Salario:             FlexString(get(KeySalario)),
		Telefono:            FlexString(get(KeyTelefono)),
		Correo:              FlexString(get(KeyCorreo)),
		DireccionResidencia: FlexString(get(KeyDireccionResidencia)),
		EPS:                 FlexString(get(KeyEPS)),
		ARL:                 FlexString(get(KeyARL)),
		FondoPension:        FlexString(get(KeyFondoPension)),
		CajaCompensacion:    FlexString(get(KeyCajaCompensacion)),
		InfoAdicional:       FlexString(get(KeyInfoAdicional)),
	}
}

// InputFromRecord prefills an input from a stored record, for edit forms.
func InputFromRecord(r Record) EmployeeInput {
	return InputFromValues(r.Text)
}

// Get returns the raw value posted for key, for re-rendering a form.
func (in EmployeeInput) Get(key string) string {
	switch key {
	case KeyNombre:
		return string(in.Nombre)
	case KeyTipoDocumento:
		return string(in.TipoDocumento)
	case KeyDocumento:
		return string(in.Documento)
	case KeySexo:
		return string(in.Sexo)
	case KeyFechaNacimiento:
		return string(in.FechaNacimiento)
	case KeyCargo:
		return string(in.Cargo)
	case KeyFechaAfiliacion:
		return string(in.FechaAfiliacion)
	case KeyFechaRetiro:
		return string(in.FechaRetiro)
	case KeySalario:
		return string(in.Salario)
	case KeyTelefono:
		return string(in.Telefono)
	case KeyCorreo:
		return string(in.Correo)
	case KeyDireccionResidencia:
		return string(in.DireccionResidencia)
	case KeyEPS:
		return string(in.EPS)
	case KeyARL:
		return string(in.ARL)
	case KeyFondoPension:
		return string(in.FondoPension)
	case KeyCajaCompensacion:
		return string(in.CajaCompensacion)
	case KeyInfoAdicional:
		return string(in.InfoAdicional)
	}
	return ""
}

// RequiredFields lists the keys Validate rejects when empty.
var RequiredFields = map[string]bool{
	KeyNombre:          true,
	KeyTipoDocumento:   true,
	KeyDocumento:       true,
	KeySexo:            true,
	KeyFechaNacimiento: true,
	KeyCargo:           true,
	KeyFechaAfiliacion: true,
	KeySalario:         true,
	KeyTelefono:        true,
}

type validator struct {
	errs []FieldError
}

func (v *validator) fail(field, value, msg string) {
	v.errs = append(v.errs, FieldError{Field: field, Value: value, Message: msg})
}

func (v *validator) text(field string, s FlexString, min, max int) string {
	val := s.trimmed()
	n := utf8.RuneCountInString(val)
	switch {
	case n == 0 && min > 0:
		v.fail(field, val, "required field is empty")
	case n < min:
		v.fail(field, val, fmt.Sprintf("value out of range: at least %d characters", min))
	case max > 0 && n > max:
		v.fail(field, val, fmt.Sprintf("value out of range: at most %d characters", max))
	}
	return val
}

func (v *validator) date(field string, s FlexString, required bool) *time.Time {
	val := s.trimmed()
	if val == "" {
		if required {
			v.fail(field, val, "required field is empty")
		}
		return nil
	}
	t, err := time.Parse(DateLayout, val)
	if err != nil {
		v.fail(field, val, "invalid date: expected YYYY-MM-DD")
		return nil
	}
	return &t
}

// Validate checks the payload and returns store-ready parameters. On failure
// the error is a *ValidationError listing every invalid field.
func (in EmployeeInput) Validate() (EmployeeParams, error) {
	v := &validator{}
	p := EmployeeParams{
		Nombre:              v.text(KeyNombre, in.Nombre, 1, 200),
		TipoDocumento:       v.text(KeyTipoDocumento, in.TipoDocumento, 1, 10),
		Documento:           v.text(KeyDocumento, in.Documento, 4, 0),
		Sexo:                v.text(KeySexo, in.Sexo, 1, 0),
		Cargo:               v.text(KeyCargo, in.Cargo, 1, 120),
		Telefono:            v.text(KeyTelefono, in.Telefono, 7, 20),
		DireccionResidencia: in.DireccionResidencia.trimmed(),
		EPS:                 in.EPS.trimmed(),
		ARL:                 in.ARL.trimmed(),
		FondoPension:        in.FondoPension.trimmed(),
		CajaCompensacion:    in.CajaCompensacion.trimmed(),
		InfoAdicional:       in.InfoAdicional.trimmed(),
	}

	if t := v.date(KeyFechaNacimiento, in.FechaNacimiento, true); t != nil {
		p.FechaNacimiento = *t
	}
	if t := v.date(KeyFechaAfiliacion, in.FechaAfiliacion, true); t != nil {
		p.FechaAfiliacion = *t
	}
	p.FechaRetiro = v.date(KeyFechaRetiro, in.FechaRetiro, false)

	salario := in.Salario.trimmed()
	switch d, ok := ParseDecimal(salario); {
	case salario == "":
		v.fail(KeySalario, salario, "required field is empty")
	case !ok:
		v.fail(KeySalario, salario, "invalid number")
	case d.LessThan(decimal.Zero):
		v.fail(KeySalario, salario, "value out of range: must not be negative")
	default:
		p.Salario = d
	}

	if correo := in.Correo.trimmed(); correo != "" {
		addr, err := mail.ParseAddress(correo)
		if err != nil || addr.Address != correo {
			v.fail(KeyCorreo, correo, "invalid email address")
		} else {
			p.Correo = correo
		}
	}

	if p.FechaRetiro != nil {
		p.Activo = 0
	} else {
		p.Activo = 1
	}

	if len(v.errs) > 0 {
		return EmployeeParams{}, &ValidationError{Fields: v.errs}
	}
	return p, nil
}
