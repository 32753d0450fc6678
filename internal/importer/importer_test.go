package importer

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/rrhh/internal/core"
)

var importNow = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

// fakeCreator validates like the service and records what it stored.
type fakeCreator struct {
	created []core.EmployeeParams
	failOn  string
}

func (f *fakeCreator) CreateEmployee(_ context.Context, in core.EmployeeInput) (core.Record, error) {
	p, err := in.Validate()
	if err != nil {
		return core.Record{}, err
	}
	if f.failOn != "" && p.Documento == f.failOn {
		return core.Record{}, errors.New(`duplicate key value violates unique constraint "empleado_documento_key"`)
	}
	f.created = append(f.created, p)
	return core.Record{ID: int64(len(f.created)), Nombre: p.Nombre}, nil
}

const header = "Nombre,Tipo Doc.,Documento,Sexo,Fecha Nacimiento,Cargo,Fecha Ingreso,Salario,Teléfono,Correo"

func sheet(lines ...string) [][]string {
	rows, err := ReadCSV(strings.NewReader(strings.Join(lines, "\n")))
	if err != nil {
		panic(err)
	}
	return rows
}

func TestCleanHeader(t *testing.T) {
	tests := map[string]string{
		"Teléfono":           "telefono",
		"  Fecha Afiliación": "fecha_afiliacion",
		"Tipo Doc.":          "tipo_doc",
		`="EPS"`:             "eps",
		"Info. Adicional":    "info_adicional",
		"\ufeffNombre":       "nombre",
	}
	for in, want := range tests {
		assert.Equal(t, want, CleanHeader(in), in)
	}
}

func TestMakeHeaderIndex(t *testing.T) {
	idx := MakeHeaderIndex([]string{"Nombre", "Color", "cedula", "Fecha Salida", "nombre"})
	assert.Equal(t, HeaderIndex{
		core.KeyNombre:      0,
		core.KeyDocumento:   2,
		core.KeyFechaRetiro: 3,
	}, idx)
}

func TestFindHeaderRow(t *testing.T) {
	rows := sheet(
		"Reporte de personal,,",
		"Generado 2025-02-28,,",
		header,
		"Ana,CC,1012345678,F,1990-05-04,Analista,2020-01-15,2500000,3001234567,ana@empresa.com",
	)
	i, idx, err := FindHeaderRow(rows)
	require.NoError(t, err)
	assert.Equal(t, 2, i)
	assert.Equal(t, 7, idx[core.KeySalario])

	_, _, err = FindHeaderRow(sheet("Nombre,Documento", "Ana,123"))
	require.ErrorIs(t, err, ErrNoHeader)
	assert.Contains(t, err.Error(), "cargo")

	_, _, err = FindHeaderRow(nil)
	assert.ErrorIs(t, err, ErrNoHeader)
}

func TestNormalizeDate(t *testing.T) {
	tests := map[string]string{
		"2020-01-15": "2020-01-15",
		"15/01/2020": "2020-01-15",
		"5/1/2020":   "2020-01-05",
		"15-01-2020": "2020-01-15",
		"2020/01/15": "2020-01-15",
		"20200115":   "2020-01-15",
		"15/01/20":   "2020-01-15",
		"04/05/90":   "1990-05-04",
		"04/05/46":   "1946-05-04",
		"":           "",
		"ayer":       "ayer",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeDate(in, importNow), in)
	}
}

func TestNormalizeAmount(t *testing.T) {
	tests := map[string]string{
		"2500000":       "2500000",
		"$ 2.500.000":   "2500000",
		"2.500.000 COP": "2500000",
		"1.234.567,50":  "1234567.50",
		"2,500,000.75":  "2500000.75",
		"$2500000.5":    "2500000.5",
		"2 500 000":     "2500000",
		"no aplica":     "noaplica",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeAmount(in), in)
	}
}

func TestImport(t *testing.T) {
	rows := sheet(
		header,
		"Ana,cc,1012345678,F,04/05/1990,Analista,15/01/2020,$ 2.500.000,3001234567,ana@empresa.com",
		",,,,,,,,,",
		"Luis,CC,,M,1985-02-01,Auxiliar,2019-03-01,1800000,3109876543,",
		"Marta,CE,99887766,F,1992-11-30,Contadora,2021-07-01,3200000,3205551234,correo-malo",
		"Pedro,CC,55443322,M,1980-01-01,Gerente,2015-01-01,9000000,3001112233,",
	)

	c := &fakeCreator{failOn: "55443322"}
	res, err := Import(context.Background(), c, rows, importNow)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Empty)
	assert.Equal(t, 3, res.FailedCount())

	require.Len(t, c.created, 1)
	ana := c.created[0]
	assert.Equal(t, "CC", ana.TipoDocumento)
	assert.Equal(t, "1990-05-04", ana.FechaNacimiento.Format(core.DateLayout))
	assert.Equal(t, "2500000", ana.Salario.String())

	assert.Equal(t, "Estado", res.Failed[0][0])
	assert.Contains(t, res.Failed[1][0], "línea 4")
	assert.Contains(t, res.Failed[1][0], core.KeyDocumento)
	assert.Contains(t, res.Failed[2][0], core.KeyCorreo)
	assert.Contains(t, res.Failed[3][0], "línea 6")
	assert.Equal(t, "Pedro", res.Failed[3][1])
}

func TestImport_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rows := sheet(header, "Ana,CC,1012345678,F,1990-05-04,Analista,2020-01-15,2500000,3001234567,")
	res, err := Import(ctx, &fakeCreator{}, rows, importNow)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, res.Created)
}

func TestResult_WriteFailures(t *testing.T) {
	res := Result{Failed: [][]string{{"Estado", "Nombre"}, {"línea 2: validation failed", "Luis"}}}

	var buf bytes.Buffer
	require.NoError(t, res.WriteFailures(&buf))
	assert.True(t, strings.HasPrefix(buf.String(), "\ufeff"))

	records, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(buf.String(), "\ufeff"))).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, res.Failed, records)
}

func TestReadCSV(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader("\ufeffNombre;Documento\nAna;123\n"))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Nombre", "Documento"}, {"Ana", "123"}}, rows)

	rows, err = ReadCSV(strings.NewReader("Nombre,Cargo\n\"Ana\",\"Analista, senior\"\n"))
	require.NoError(t, err)
	assert.Equal(t, "Analista, senior", rows[1][1])
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()

	xlsx := filepath.Join(dir, "empleados.xlsx")
	wb := excelize.NewFile()
	require.NoError(t, wb.SetSheetRow("Sheet1", "A1", &[]any{"Nombre", "Documento"}))
	require.NoError(t, wb.SetSheetRow("Sheet1", "A2", &[]any{"Ana", "1012345678"}))
	require.NoError(t, wb.SaveAs(xlsx))
	require.NoError(t, wb.Close())

	rows, err := ReadFile(xlsx)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Nombre", "Documento"}, {"Ana", "1012345678"}}, rows)

	csvPath := filepath.Join(dir, "empleados.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("Nombre,Documento\nLuis,99\n"), 0o644))
	rows, err = ReadFile(csvPath)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	pdf := filepath.Join(dir, "empleados.pdf")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF"), 0o644))
	_, err = ReadFile(pdf)
	assert.ErrorIs(t, err, ErrUnsupportedFile)
}
