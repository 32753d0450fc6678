// Package importer loads employee records from spreadsheet files.
//
// Rows are matched to fields by header, cleaned, normalized to the
// canonical date and amount formats, and created one at a time. Rows that
// fail are collected with their reason so the operator can fix and
// re-import just those.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/JonMunkholm/rrhh/internal/core"
)

var (
	ErrNoHeader        = errors.New("no header row found")
	ErrUnsupportedFile = errors.New("unsupported file type")
)

// TwoDigitYearPivot decides the century of two-digit years: a year more
// than this far in the future belongs to the previous century.
// With pivot=20 in 2025: "46" is 1946, "24" is 2024.
var TwoDigitYearPivot = 20

// ContextCheckInterval is how often, in rows, cancellation is checked.
var ContextCheckInterval = 100

// headerScanRows bounds the search for the header row.
const headerScanRows = 20

// Day-first layouts, as Colombian spreadsheets write them.
var (
	twoDigitYearLayouts = []string{
		"2/1/06", "02/01/06", "2-1-06", "2.1.06", "02.01.06",
	}
	fourDigitYearLayouts = []string{
		core.DateLayout, "2006/01/02", "2006.01.02",
		"2/1/2006", "02/01/2006", "2-1-2006", "02-01-2006", "2.1.2006", "02.01.2006",
		"20060102",
	}
)

var (
	dotGrouped   = regexp.MustCompile(`^\d{1,3}(\.\d{3})+(,\d+)?$`)
	commaGrouped = regexp.MustCompile(`^\d{1,3}(,\d{3})+(\.\d+)?$`)
)

// Creator stores one validated employee.
type Creator interface {
	CreateEmployee(ctx context.Context, in core.EmployeeInput) (core.Record, error)
}

// HeaderIndex maps a field key to its column position.
type HeaderIndex map[string]int

var headerAliases = map[string]string{
	"tipo_doc":         core.KeyTipoDocumento,
	"tipo":             core.KeyTipoDocumento,
	"cedula":           core.KeyDocumento,
	"numero_documento": core.KeyDocumento,
	"genero":           core.KeySexo,
	"fecha_ingreso":    core.KeyFechaAfiliacion,
	"fecha_salida":     core.KeyFechaRetiro,
	"direccion":        core.KeyDireccionResidencia,
	"email":            core.KeyCorreo,
	"celular":          core.KeyTelefono,
	"pension":          core.KeyFondoPension,
	"caja":             core.KeyCajaCompensacion,
	"info_adicional":   core.KeyInfoAdicional,
	"observaciones":    core.KeyInfoAdicional,
}

var accentFolder = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u", "ñ", "n",
)

// CleanHeader turns a header cell into a lookup key: lower case, no
// accents, words joined by underscores.
func CleanHeader(h string) string {
	h = accentFolder.Replace(strings.ToLower(CleanCell(h)))
	h = strings.NewReplacer(".", " ", "-", " ", "/", " ").Replace(h)
	return strings.Join(strings.Fields(h), "_")
}

// CleanCell strips spreadsheet artifacts: surrounding space, a formula
// prefix such as ="123", and surrounding quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(strings.TrimPrefix(s, "\ufeff"))
	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}
	return strings.TrimSpace(strings.Trim(s, `"'`))
}

var headerKeys = func() map[string]string {
	m := make(map[string]string, len(core.Fields)*2+len(headerAliases))
	for _, f := range core.Fields {
		if f.Derived {
			continue
		}
		m[CleanHeader(f.Key)] = f.Key
		m[CleanHeader(f.Label)] = f.Key
	}
	for alias, key := range headerAliases {
		m[alias] = key
	}
	return m
}()

// MakeHeaderIndex maps recognized header cells to field keys. Unknown
// columns are ignored; the first occurrence of a field wins.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		key, ok := headerKeys[CleanHeader(h)]
		if !ok {
			continue
		}
		if _, seen := idx[key]; !seen {
			idx[key] = i
		}
	}
	return idx
}

// FindHeaderRow returns the first row, among the leading rows, that names
// every required field. Title rows above the table are skipped.
func FindHeaderRow(rows [][]string) (int, HeaderIndex, error) {
	var best []string
	for i := 0; i < len(rows) && i < headerScanRows; i++ {
		idx := MakeHeaderIndex(rows[i])
		missing := missingRequired(idx)
		if len(missing) == 0 {
			return i, idx, nil
		}
		if best == nil || len(missing) < len(best) {
			best = missing
		}
	}
	if best == nil {
		return -1, nil, ErrNoHeader
	}
	return -1, nil, fmt.Errorf("%w: missing columns %s", ErrNoHeader, strings.Join(best, ", "))
}

func missingRequired(idx HeaderIndex) []string {
	var missing []string
	for _, f := range core.Fields {
		if !core.RequiredFields[f.Key] {
			continue
		}
		if _, ok := idx[f.Key]; !ok {
			missing = append(missing, f.Key)
		}
	}
	return missing
}

// NormalizeDate rewrites a spreadsheet date as YYYY-MM-DD. Values that do
// not parse are returned unchanged so validation reports them.
func NormalizeDate(s string, now time.Time) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	if t, ok := core.ParseDate(s); ok {
		return t.Format(core.DateLayout)
	}
	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(core.DateLayout)
		}
	}

	pivotYear := now.Year() + TwoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		// time.Parse puts 69-99 in the 1900s and 00-68 in the 2000s
		if t.Year() > pivotYear {
			t = t.AddDate(-100, 0, 0)
		} else if t.Year() < pivotYear-100 {
			t = t.AddDate(100, 0, 0)
		}
		return t.Format(core.DateLayout)
	}
	return s
}

// NormalizeAmount strips a currency marker and thousands grouping.
// "$ 2.500.000" and "2,500,000.50" become "2500000" and "2500000.50".
func NormalizeAmount(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(s, "$"), "COP"))
	s = strings.TrimSpace(strings.TrimPrefix(s, "$"))
	s = strings.ReplaceAll(s, " ", "")
	switch {
	case dotGrouped.MatchString(s):
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case commaGrouped.MatchString(s):
		s = strings.ReplaceAll(s, ",", "")
	}
	return s
}

// Result summarizes an import.
type Result struct {
	Created int
	Empty   int
	// Failed holds rejected rows, each prefixed by the reason. The first
	// entry is the header.
	Failed [][]string
}

// FailedCount returns the number of rejected rows.
func (r Result) FailedCount() int {
	if len(r.Failed) == 0 {
		return 0
	}
	return len(r.Failed) - 1
}

// WriteFailures writes the rejected rows as CSV, BOM first so spreadsheet
// programs detect UTF-8.
func (r Result) WriteFailures(w io.Writer) error {
	if _, err := io.WriteString(w, "\ufeff"); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(r.Failed); err != nil {
		return fmt.Errorf("write failures: %w", err)
	}
	return nil
}

// Import creates one employee per data row. Row-level failures are
// collected in the result; only cancellation and a missing header abort.
func Import(ctx context.Context, c Creator, rows [][]string, now time.Time) (Result, error) {
	headerIdx, idx, err := FindHeaderRow(rows)
	if err != nil {
		return Result{}, err
	}

	res := Result{Failed: [][]string{append([]string{"Estado"}, rows[headerIdx]...)}}
	for i, row := range rows[headerIdx+1:] {
		// 1-indexed line number for display
		line := headerIdx + i + 2

		if i%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return res, fmt.Errorf("import cancelled at line %d: %w", line, err)
			}
		}

		if isEmpty(row) {
			res.Empty++
			continue
		}

		in := buildInput(row, idx, now)
		if _, err := c.CreateEmployee(ctx, in); err != nil {
			if ctx.Err() != nil {
				return res, fmt.Errorf("import cancelled at line %d: %w", line, ctx.Err())
			}
			res.Failed = append(res.Failed, rowFailed(fmt.Sprintf("línea %d: %s", line, failureReason(err)), row))
			continue
		}
		res.Created++
	}
	return res, nil
}

func buildInput(row []string, idx HeaderIndex, now time.Time) core.EmployeeInput {
	return core.InputFromValues(func(key string) string {
		pos, ok := idx[key]
		if !ok || pos >= len(row) {
			return ""
		}
		v := CleanCell(row[pos])
		spec, _ := core.LookupField(key)
		switch {
		case spec.Type == core.FieldDate:
			return NormalizeDate(v, now)
		case key == core.KeySalario:
			return NormalizeAmount(v)
		case spec.Type == core.FieldEnum:
			for _, allowed := range spec.EnumValues {
				if strings.EqualFold(v, allowed) {
					return allowed
				}
			}
		}
		return v
	})
}

func failureReason(err error) string {
	var verr *core.ValidationError
	if errors.As(err, &verr) {
		return verr.Error()
	}
	return core.FormatUserError(err)
}

func isEmpty(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func rowFailed(reason string, row []string) []string {
	return append([]string{reason}, row...)
}
