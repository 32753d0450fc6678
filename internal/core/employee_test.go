package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func date(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestNormalize_AgeBoundary(t *testing.T) {
	raw := RawRecord{"id": 1, "fecha_nacimiento": "2000-06-15"}

	tests := []struct {
		now  string
		want int
	}{
		{"2024-06-14", 23},
		{"2024-06-15", 24},
		{"2024-12-31", 24},
		{"2025-01-01", 24},
	}

	for _, tt := range tests {
		t.Run(tt.now, func(t *testing.T) {
			rec := Normalize(raw, date(tt.now))
			if rec.Edad == nil {
				t.Fatal("Edad = nil, want a value")
			}
			if *rec.Edad != tt.want {
				t.Errorf("Edad = %d, want %d", *rec.Edad, tt.want)
			}
		})
	}
}

func TestNormalize_AgeRejected(t *testing.T) {
	now := date("2024-06-15")

	tests := []struct {
		name  string
		birth any
	}{
		{"missing", nil},
		{"empty", ""},
		{"garbage", "not a date"},
		{"future", "2030-01-01"},
		{"too old", "1850-01-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := RawRecord{"id": 1}
			if tt.birth != nil {
				raw["fecha_nacimiento"] = tt.birth
			}
			rec := Normalize(raw, now)
			if rec.Edad != nil {
				t.Errorf("Edad = %d, want nil", *rec.Edad)
			}
		})
	}
}

func TestNormalize_Activo(t *testing.T) {
	now := date("2024-06-15")

	tests := []struct {
		name string
		raw  RawRecord
		want int
	}{
		{"no retirement", RawRecord{}, 1},
		{"retired", RawRecord{"fecha_retiro": "2023-01-31"}, 0},
		{"empty retirement", RawRecord{"fecha_retiro": ""}, 1},
		{"explicit zero wins", RawRecord{"activo": 0}, 0},
		{"explicit one wins over retirement", RawRecord{"activo": 1, "fecha_retiro": "2023-01-31"}, 1},
		{"bool false", RawRecord{"activo": false}, 0},
		{"string true", RawRecord{"activo": "true"}, 1},
		{"string zero", RawRecord{"activo": "0"}, 0},
		{"float", RawRecord{"activo": float64(1)}, 1},
		{"null falls back", RawRecord{"activo": nil, "fecha_retiro": "2023-01-31"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.raw, now).Activo; got != tt.want {
				t.Errorf("Activo = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNormalize_Coercion(t *testing.T) {
	raw := RawRecord{
		"id":               float64(7),
		"nombre":           "  Ana Pérez ",
		"documento":        float64(1023456789),
		"telefono":         json.Number("3001234567"),
		"salario":          "2500000",
		"fecha_afiliacion": time.Date(2020, 2, 3, 15, 4, 5, 0, time.UTC),
		"fecha_retiro":     "31/01/2023",
		"eps":              "Sura",
		"ARL":              "Positiva",
	}

	rec := Normalize(raw, date("2024-06-15"))

	if rec.ID != 7 {
		t.Errorf("ID = %d, want 7", rec.ID)
	}
	if rec.Nombre != "Ana Pérez" {
		t.Errorf("Nombre = %q, want %q", rec.Nombre, "Ana Pérez")
	}
	if rec.Documento != "1023456789" {
		t.Errorf("Documento = %q, want %q", rec.Documento, "1023456789")
	}
	if rec.Telefono != "3001234567" {
		t.Errorf("Telefono = %q, want %q", rec.Telefono, "3001234567")
	}
	if rec.Salario == nil || !rec.Salario.Equal(decimal.NewFromInt(2500000)) {
		t.Errorf("Salario = %v, want 2500000", rec.Salario)
	}
	if rec.FechaAfiliacion != "2020-02-03" {
		t.Errorf("FechaAfiliacion = %q, want %q", rec.FechaAfiliacion, "2020-02-03")
	}
	// Unparseable dates are kept verbatim and still count as retired.
	if rec.FechaRetiro != "31/01/2023" {
		t.Errorf("FechaRetiro = %q, want verbatim", rec.FechaRetiro)
	}
	if rec.Activo != 0 {
		t.Errorf("Activo = %d, want 0", rec.Activo)
	}
	if rec.EPS != "Sura" {
		t.Errorf("EPS = %q, want case-insensitive key lookup", rec.EPS)
	}
	if rec.ARL != "Positiva" {
		t.Errorf("ARL = %q, want %q", rec.ARL, "Positiva")
	}
}

func TestNormalize_InvalidSalario(t *testing.T) {
	for _, v := range []any{"abc", "", nil, "2.500.000"} {
		rec := Normalize(RawRecord{"salario": v}, time.Now())
		if rec.Salario != nil {
			t.Errorf("salario %v: got %v, want nil", v, rec.Salario)
		}
	}
}

func TestNormalize_DoesNotMutateRaw(t *testing.T) {
	raw := RawRecord{"fecha_nacimiento": "2000-06-15", "fecha_retiro": "2023-01-31"}
	_ = Normalize(raw, date("2024-06-15"))

	if len(raw) != 2 {
		t.Errorf("raw record gained keys: %v", raw)
	}
	if _, ok := raw["edad"]; ok {
		t.Error("raw record should not carry edad")
	}
}

func TestRecord_Accessors(t *testing.T) {
	age := 30
	sal := decimal.NewFromInt(1000)
	rec := Record{ID: 3, Nombre: "Luis", Edad: &age, Salario: &sal, FechaNacimiento: "1994-01-01", Activo: 1}

	if got := rec.Text(KeyID); got != "3" {
		t.Errorf("Text(id) = %q, want %q", got, "3")
	}
	if got := rec.Text(KeyCorreo); got != "" {
		t.Errorf("Text(correo) = %q, want empty", got)
	}
	if got := rec.Value(KeyCorreo); got != nil {
		t.Errorf("Value(correo) = %v, want nil", got)
	}
	if n, ok := rec.NumberOf(KeySalario); !ok || n != 1000 {
		t.Errorf("NumberOf(salario) = %v, %v", n, ok)
	}
	if _, ok := rec.NumberOf(KeyTelefono); ok {
		t.Error("NumberOf(telefono) should fail for empty value")
	}
	if d, ok := rec.DateOf(KeyFechaNacimiento); !ok || d.Year() != 1994 {
		t.Errorf("DateOf(fecha_nacimiento) = %v, %v", d, ok)
	}
	if rec.Status() != "Activo" {
		t.Errorf("Status() = %q, want Activo", rec.Status())
	}
}

func TestRecord_IsHistorical(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		want bool
	}{
		{"active", Record{Activo: 1}, false},
		{"inactive flag", Record{Activo: 0}, true},
		{"retired with stale flag", Record{Activo: 1, FechaRetiro: "2023-01-01"}, true},
	}
	for _, tt := range tests {
		if got := tt.rec.IsHistorical(); got != tt.want {
			t.Errorf("%s: IsHistorical() = %v, want %v", tt.name, got, tt.want)
		}
		if tt.rec.IsActive() == tt.want {
			t.Errorf("%s: IsActive() should be the complement", tt.name)
		}
	}
}

func TestFieldsCatalog(t *testing.T) {
	seen := make(map[string]bool)
	for _, f := range Fields {
		if seen[f.Key] {
			t.Errorf("duplicate field key %q", f.Key)
		}
		seen[f.Key] = true
	}

	for _, key := range []string{KeyFechaNacimiento, KeyFechaAfiliacion, KeyFechaRetiro} {
		if f, _ := LookupField(key); f.Type != FieldDate {
			t.Errorf("%s type = %v, want date", key, f.Type)
		}
	}
	for _, key := range []string{KeyEdad, KeySalario, KeyDocumento, KeyTelefono} {
		if f, _ := LookupField(key); f.Type != FieldNumeric {
			t.Errorf("%s type = %v, want numeric", key, f.Type)
		}
	}
	if _, ok := LookupField("unknown"); ok {
		t.Error("LookupField(unknown) should fail")
	}
}
