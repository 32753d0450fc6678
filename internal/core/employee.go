package core

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Canonical field keys. EPS and ARL keep the upper-case spelling used by
// the forms and exports.
const (
	KeyID                  = "id"
	KeyNombre              = "nombre"
	KeyTipoDocumento       = "tipo_documento"
	KeyDocumento           = "documento"
	KeySexo                = "sexo"
	KeyFechaNacimiento     = "fecha_nacimiento"
	KeyEdad                = "edad"
	KeyCargo               = "cargo"
	KeyFechaAfiliacion     = "fecha_afiliacion"
	KeyFechaRetiro         = "fecha_retiro"
	KeySalario             = "salario"
	KeyTelefono            = "telefono"
	KeyCorreo              = "correo"
	KeyDireccionResidencia = "direccion_residencia"
	KeyEPS                 = "EPS"
	KeyARL                 = "ARL"
	KeyFondoPension        = "fondo_pension"
	KeyCajaCompensacion    = "caja_compensacion"
	KeyInfoAdicional       = "info_adicional"
	KeyActivo              = "activo"
)

// MaxAge is the largest age accepted as plausible.
const MaxAge = 120

// FieldType represents how a field's values compare and render.
type FieldType int

const (
	FieldText FieldType = iota
	FieldEnum
	FieldDate
	FieldNumeric
	FieldBool
)

func (t FieldType) String() string {
	switch t {
	case FieldEnum:
		return "enum"
	case FieldDate:
		return "date"
	case FieldNumeric:
		return "numeric"
	case FieldBool:
		return "bool"
	default:
		return "text"
	}
}

// FieldSpec describes one canonical employee field.
type FieldSpec struct {
	Key        string    // Canonical key, also the JSON name
	Label      string    // Default display label
	Type       FieldType // Comparison and input type
	Derived    bool      // Computed by Normalize, never written
	EnumValues []string  // Allowed values for FieldEnum
}

// Fields is the field catalog in registration form order.
var Fields = []FieldSpec{
	{Key: KeyID, Label: "ID", Type: FieldNumeric, Derived: true},
	{Key: KeyNombre, Label: "Nombre", Type: FieldText},
	{Key: KeyTipoDocumento, Label: "Tipo Doc.", Type: FieldEnum, EnumValues: []string{"CC", "CE", "TI", "PA", "PEP"}},
	{Key: KeyDocumento, Label: "Documento", Type: FieldNumeric},
	{Key: KeySexo, Label: "Sexo", Type: FieldEnum, EnumValues: []string{"M", "F", "Otro"}},
	{Key: KeyFechaNacimiento, Label: "Fecha Nacimiento", Type: FieldDate},
	{Key: KeyEdad, Label: "Edad", Type: FieldNumeric, Derived: true},
	{Key: KeyCargo, Label: "Cargo", Type: FieldText},
	{Key: KeyFechaAfiliacion, Label: "Fecha Afiliación", Type: FieldDate},
	{Key: KeyFechaRetiro, Label: "Fecha Retiro", Type: FieldDate},
	{Key: KeySalario, Label: "Salario", Type: FieldNumeric},
	{Key: KeyTelefono, Label: "Teléfono", Type: FieldNumeric},
	{Key: KeyCorreo, Label: "Correo", Type: FieldText},
	{Key: KeyDireccionResidencia, Label: "Dirección", Type: FieldText},
	{Key: KeyEPS, Label: "EPS", Type: FieldText},
	{Key: KeyARL, Label: "ARL", Type: FieldText},
	{Key: KeyFondoPension, Label: "Fondo Pensión", Type: FieldText},
	{Key: KeyCajaCompensacion, Label: "Caja Compensación", Type: FieldText},
	{Key: KeyInfoAdicional, Label: "Info. Adicional", Type: FieldText},
	{Key: KeyActivo, Label: "Estado", Type: FieldBool, Derived: true},
}

var fieldIndex = func() map[string]FieldSpec {
	m := make(map[string]FieldSpec, len(Fields))
	for _, f := range Fields {
		m[f.Key] = f
	}
	return m
}()

// LookupField returns the catalog entry for key.
func LookupField(key string) (FieldSpec, bool) {
	f, ok := fieldIndex[key]
	return f, ok
}

// RawRecord is an employee row as delivered by the store: arbitrary keys,
// loosely typed values.
type RawRecord map[string]any

// lookup finds key exactly, then case-insensitively. PostgreSQL folds
// unquoted identifiers, so EPS arrives as "eps".
func (r RawRecord) lookup(key string) (any, bool) {
	if v, ok := r[key]; ok {
		return v, true
	}
	for k, v := range r {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

func (r RawRecord) text(key string) string {
	v, ok := r.lookup(key)
	if !ok {
		return ""
	}
	return IdentifierString(v)
}

func (r RawRecord) date(key string) string {
	v, ok := r.lookup(key)
	if !ok || v == nil {
		return ""
	}
	if t, ok := ParseDate(v); ok {
		return t.Format(DateLayout)
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// Record is a normalized employee.
type Record struct {
	ID                  int64            `json:"id"`
	Nombre              string           `json:"nombre"`
	TipoDocumento       string           `json:"tipo_documento"`
	Documento           string           `json:"documento"`
	Sexo                string           `json:"sexo"`
	FechaNacimiento     string           `json:"fecha_nacimiento"`
	Edad                *int             `json:"edad"`
	Cargo               string           `json:"cargo"`
	FechaAfiliacion     string           `json:"fecha_afiliacion"`
	FechaRetiro         string           `json:"fecha_retiro"`
	Salario             *decimal.Decimal `json:"salario"`
	Telefono            string           `json:"telefono"`
	Correo              string           `json:"correo"`
	DireccionResidencia string           `json:"direccion_residencia"`
	EPS                 string           `json:"EPS"`
	ARL                 string           `json:"ARL"`
	FondoPension        string           `json:"fondo_pension"`
	CajaCompensacion    string           `json:"caja_compensacion"`
	InfoAdicional       string           `json:"info_adicional"`
	Activo              int              `json:"activo"`
}

// Normalize maps a raw store row to a Record. Edad is computed against now
// and activo follows fecha_retiro unless the row carries an explicit flag.
// The raw map is not modified.
func Normalize(raw RawRecord, now time.Time) Record {
	rec := Record{
		Nombre:              raw.text(KeyNombre),
		TipoDocumento:       raw.text(KeyTipoDocumento),
		Documento:           raw.text(KeyDocumento),
		Sexo:                raw.text(KeySexo),
		FechaNacimiento:     raw.date(KeyFechaNacimiento),
		Cargo:               raw.text(KeyCargo),
		FechaAfiliacion:     raw.date(KeyFechaAfiliacion),
		FechaRetiro:         raw.date(KeyFechaRetiro),
		Telefono:            raw.text(KeyTelefono),
		Correo:              raw.text(KeyCorreo),
		DireccionResidencia: raw.text(KeyDireccionResidencia),
		EPS:                 raw.text(KeyEPS),
		ARL:                 raw.text(KeyARL),
		FondoPension:        raw.text(KeyFondoPension),
		CajaCompensacion:    raw.text(KeyCajaCompensacion),
		InfoAdicional:       raw.text(KeyInfoAdicional),
	}

	if v, ok := raw.lookup(KeyID); ok {
		rec.ID, _ = ParseInt64(v)
	}
	if v, ok := raw.lookup(KeySalario); ok {
		if d, ok := ParseDecimal(v); ok {
			rec.Salario = &d
		}
	}
	if v, ok := raw.lookup(KeyFechaNacimiento); ok {
		if birth, ok := ParseDate(v); ok {
			rec.Edad = AgeAt(birth, now)
		}
	}

	if v, ok := raw.lookup(KeyActivo); ok && v != nil {
		rec.Activo = coerceFlag(v)
	} else if rec.FechaRetiro != "" {
		rec.Activo = 0
	} else {
		rec.Activo = 1
	}

	return rec
}

// NormalizeAll normalizes a snapshot, preserving order.
func NormalizeAll(raws []RawRecord, now time.Time) []Record {
	out := make([]Record, 0, len(raws))
	for _, raw := range raws {
		out = append(out, Normalize(raw, now))
	}
	return out
}

// AgeAt returns completed years between birth and now, or nil when the
// result falls outside [0, MaxAge].
func AgeAt(birth, now time.Time) *int {
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	if age < 0 || age > MaxAge {
		return nil
	}
	return &age
}

// coerceFlag maps bools, numbers and common strings to 0/1.
func coerceFlag(v any) int {
	switch val := v.(type) {
	case bool:
		if val {
			return 1
		}
		return 0
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "true", "t", "si", "sí", "yes", "activo":
			return 1
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil && f != 0 {
			return 1
		}
		return 0
	default:
		if d, ok := ParseDecimal(v); ok && !d.IsZero() {
			return 1
		}
		return 0
	}
}

// IsActive reports whether the employee belongs to the active partition.
func (r Record) IsActive() bool {
	return !r.IsHistorical()
}

// IsHistorical reports whether the employee is retired: activo is 0 or a
// retirement date is recorded.
func (r Record) IsHistorical() bool {
	return r.Activo == 0 || r.FechaRetiro != ""
}

// Status returns the display label for activo.
func (r Record) Status() string {
	if r.IsHistorical() {
		return "Retirado"
	}
	return "Activo"
}

// Value returns the field value for key, with nil for absent optionals.
func (r Record) Value(key string) any {
	switch key {
	case KeyID:
		return r.ID
	case KeyEdad:
		if r.Edad == nil {
			return nil
		}
		return *r.Edad
	case KeySalario:
		if r.Salario == nil {
			return nil
		}
		return *r.Salario
	case KeyActivo:
		return r.Activo
	}
	s := r.Text(key)
	if s == "" {
		return nil
	}
	return s
}

// Text returns the raw string form of a field; absent values are "".
func (r Record) Text(key string) string {
	switch key {
	case KeyID:
		return strconv.FormatInt(r.ID, 10)
	case KeyNombre:
		return r.Nombre
	case KeyTipoDocumento:
		return r.TipoDocumento
	case KeyDocumento:
		return r.Documento
	case KeySexo:
		return r.Sexo
	case KeyFechaNacimiento:
		return r.FechaNacimiento
	case KeyEdad:
		if r.Edad == nil {
			return ""
		}
		return strconv.Itoa(*r.Edad)
	case KeyCargo:
		return r.Cargo
	case KeyFechaAfiliacion:
		return r.FechaAfiliacion
	case KeyFechaRetiro:
		return r.FechaRetiro
	case KeySalario:
		if r.Salario == nil {
			return ""
		}
		return r.Salario.String()
	case KeyTelefono:
		return r.Telefono
	case KeyCorreo:
		return r.Correo
	case KeyDireccionResidencia:
		return r.DireccionResidencia
	case KeyEPS:
		return r.EPS
	case KeyARL:
		return r.ARL
	case KeyFondoPension:
		return r.FondoPension
	case KeyCajaCompensacion:
		return r.CajaCompensacion
	case KeyInfoAdicional:
		return r.InfoAdicional
	case KeyActivo:
		return strconv.Itoa(r.Activo)
	}
	return ""
}

// NumberOf coerces a field to float64 for numeric comparison.
func (r Record) NumberOf(key string) (float64, bool) {
	switch key {
	case KeyEdad:
		if r.Edad == nil {
			return 0, false
		}
		return float64(*r.Edad), true
	case KeySalario:
		if r.Salario == nil {
			return 0, false
		}
		return r.Salario.InexactFloat64(), true
	}
	s := strings.TrimSpace(r.Text(key))
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// DateOf parses a date field.
func (r Record) DateOf(key string) (time.Time, bool) {
	return ParseDate(r.Text(key))
}
