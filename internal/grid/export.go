package grid

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"html"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/rrhh/internal/core"
)

// Mode selects which records an export contains.
type Mode string

const (
	// ModeAll exports the whole normalized set, ignoring view and filters.
	ModeAll Mode = "all"
	// ModeCurrent exports the selected records, or the current view when
	// nothing is selected.
	ModeCurrent Mode = "current"
)

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLS  Format = "xls"
	FormatXLSX Format = "xlsx"
)

var (
	ErrInvalidMode   = errors.New("invalid export mode")
	ErrInvalidFormat = errors.New("invalid export format")
	ErrNothingToSend = errors.New("no records to export")
)

// ParseMode accepts "all"/"todos" and "current"/"filtered"/"vista_actual".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "all", "todos":
		return ModeAll, nil
	case "", "current", "filtered", "vista_actual":
		return ModeCurrent, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// ParseFormat accepts csv, xls and xlsx. Empty means xls.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatXLS, nil
	case FormatCSV, FormatXLS, FormatXLSX:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidFormat, s)
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/vnd.ms-excel; charset=utf-8"
	}
}

// FileName builds empleados_<todos|vista_actual>_<YYYYMMDD_HHMMSS>.<ext>.
func FileName(mode Mode, format Format, at time.Time) string {
	label := "vista_actual"
	if mode == ModeAll {
		label = "todos"
	}
	return fmt.Sprintf("empleados_%s_%s.%s", label, at.Format("20060102_150405"), format)
}

// SanitizeCell neutralizes spreadsheet formulas: values starting with
// =, +, - or @ get a leading apostrophe.
func SanitizeCell(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@':
		return "'" + s
	}
	return s
}

// Rows renders recs through the column formatters, sanitized for export.
func Rows(cols []Column, recs []core.Record) [][]string {
	out := make([][]string, len(recs))
	for i, rec := range recs {
		row := make([]string, len(cols))
		for j, c := range cols {
			row[j] = SanitizeCell(c.Render(rec))
		}
		out[i] = row
	}
	return out
}

func headers(cols []Column) []string {
	h := make([]string, len(cols))
	for i, c := range cols {
		h[i] = SanitizeCell(c.Label)
	}
	return h
}

// Write encodes recs with the given columns in format f.
func Write(w io.Writer, f Format, cols []Column, recs []core.Record) error {
	rows := Rows(cols, recs)
	switch f {
	case FormatCSV:
		return writeCSV(w, headers(cols), rows)
	case FormatXLS:
		return writeHTMLTable(w, headers(cols), rows)
	case FormatXLSX:
		return writeXLSX(w, headers(cols), rows)
	}
	return fmt.Errorf("%w: %q", ErrInvalidFormat, f)
}

// utf8BOM makes spreadsheet apps detect UTF-8 in CSV files.
const utf8BOM = "\ufeff"

func writeCSV(w io.Writer, header []string, rows [][]string) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	return nil
}

// writeHTMLTable produces the HTML-table-as-spreadsheet file Excel opens
// as .xls.
func writeHTMLTable(w io.Writer, header []string, rows [][]string) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(`<html><head><meta charset="utf-8"></head><body><table><thead><tr>`)
	for _, h := range header {
		bw.WriteString("<th>")
		bw.WriteString(html.EscapeString(h))
		bw.WriteString("</th>")
	}
	bw.WriteString("</tr></thead><tbody>")
	for _, row := range rows {
		bw.WriteString("<tr>")
		for _, cell := range row {
			bw.WriteString("<td>")
			bw.WriteString(html.EscapeString(cell))
			bw.WriteString("</td>")
		}
		bw.WriteString("</tr>")
	}
	bw.WriteString("</tbody></table></body></html>")
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write xls: %w", err)
	}
	return nil
}

const xlsxSheet = "Empleados"

func writeXLSX(w io.Writer, header []string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("write xlsx style: %w", err)
	}

	sw, err := f.NewStreamWriter(xlsxSheet)
	if err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}

	headerRow := make([]any, len(header))
	for i, h := range header {
		headerRow[i] = excelize.Cell{StyleID: bold, Value: h}
	}
	if err := sw.SetRow("A1", headerRow); err != nil {
		return fmt.Errorf("write xlsx header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("write xlsx row %d: %w", i+1, err)
		}
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := sw.SetRow(cell, values); err != nil {
			return fmt.Errorf("write xlsx row %d: %w", i+1, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
