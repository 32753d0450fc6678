package grid

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/rrhh/internal/core"
)

func sampleRecords() []core.Record {
	raws := []core.RawRecord{
		{"id": 1, "nombre": "ana pérez", "cargo": "Analista", "documento": "1023", "fecha_afiliacion": "2020-02-01", "salario": 2500000, "fecha_nacimiento": "1990-04-12"},
		{"id": 2, "nombre": "Beto Ruiz", "cargo": "auxiliar", "documento": "98", "fecha_afiliacion": "bad", "salario": nil},
		{"id": 3, "nombre": "Ana María", "cargo": "Gerente", "documento": "abc", "fecha_afiliacion": "2018-11-30", "salario": "1800000"},
		{"id": 4, "nombre": "Carlos", "cargo": "Analista", "documento": "5000", "salario": 1800000, "fecha_retiro": "2023-01-31"},
		{"id": 5, "nombre": "beto", "cargo": "", "documento": "7", "fecha_afiliacion": "2021-07-15", "salario": 900000},
	}
	return core.NormalizeAll(raws, testNow)
}

func TestFilter_SubsetProperty(t *testing.T) {
	src := sampleRecords()
	rng := rand.New(rand.NewSource(1))
	keys := []string{core.KeyNombre, core.KeyCargo, core.KeyDocumento, core.KeyFechaAfiliacion}
	alphabet := []string{"a", "an", "be", "0", "2", "ANA", "x", "li", "", "ana ", " ", "to "}

	for i := 0; i < 200; i++ {
		f := Filters{}
		for _, k := range keys {
			if rng.Intn(2) == 0 {
				f[k] = alphabet[rng.Intn(len(alphabet))]
			}
		}

		got := Filter(src, f)
		require.LessOrEqual(t, len(got), len(src))
		for _, rec := range got {
			assert.Contains(t, ids(src), rec.ID)
			for k, q := range f {
				if q == "" {
					continue
				}
				assert.Contains(t, strings.ToLower(rec.Text(k)), strings.ToLower(q), "filters %v", f)
			}
		}
	}
}

func TestFilter_EmptyQueriesKeepAll(t *testing.T) {
	src := sampleRecords()
	assert.Equal(t, ids(src), ids(Filter(src, nil)))
	assert.Equal(t, ids(src), ids(Filter(src, Filters{core.KeyNombre: ""})))
}

func TestFilter_SpacesAreSignificant(t *testing.T) {
	recs := core.NormalizeAll([]core.RawRecord{
		{"id": 1, "nombre": "Mariana"},
		{"id": 2, "nombre": "Ana Perez"},
	}, testNow)

	assert.Equal(t, []int64{2}, ids(Filter(recs, Filters{core.KeyNombre: "ana "})))
	assert.Equal(t, []int64{2}, ids(Filter(recs, Filters{core.KeyNombre: " "})))
	assert.Equal(t, []int64{1, 2}, ids(Filter(recs, Filters{core.KeyNombre: "ana"})))
}

func TestFilter_CaseInsensitiveAndAND(t *testing.T) {
	src := sampleRecords()
	got := Filter(src, Filters{core.KeyNombre: "ANA", core.KeyCargo: "analista"})
	assert.Equal(t, []int64{1}, ids(got))

	got = Filter(src, Filters{core.KeyEdad: "34"})
	assert.Equal(t, []int64{1}, ids(got), "derived age is filterable")
}

func TestSort_Idempotent(t *testing.T) {
	src := sampleRecords()
	for _, f := range core.Fields {
		for _, dir := range []Direction{DirAsc, DirDesc} {
			state := SortState{Column: f.Key, Dir: dir}
			once := Sort(src, state)
			twice := Sort(once, state)
			assert.Equal(t, ids(once), ids(twice), "%s %s", f.Key, dir)
		}
	}
}

func TestSort_ColumnKinds(t *testing.T) {
	src := sampleRecords()

	tests := []struct {
		name  string
		state SortState
		want  []int64
	}{
		{"text ignores case", SortState{core.KeyNombre, DirAsc}, []int64{3, 1, 5, 2, 4}},
		{"numeric with uncoercible first", SortState{core.KeyDocumento, DirAsc}, []int64{3, 5, 2, 1, 4}},
		{"salario nulls first", SortState{core.KeySalario, DirAsc}, []int64{2, 5, 3, 4, 1}},
		{"salario desc is stable", SortState{core.KeySalario, DirDesc}, []int64{1, 3, 4, 5, 2}},
		{"dates with invalid as epoch", SortState{core.KeyFechaAfiliacion, DirAsc}, []int64{2, 4, 3, 1, 5}},
		{"unsorted keeps order", SortState{}, []int64{1, 2, 3, 4, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Sort(src, tt.state)))
		})
	}
}

func TestSort_NullSalarioFirst(t *testing.T) {
	recs := core.NormalizeAll([]core.RawRecord{
		{"id": 1, "salario": nil},
		{"id": 2, "salario": 1000},
	}, testNow)
	assert.Equal(t, []int64{1, 2}, ids(Sort(recs, SortState{Column: core.KeySalario, Dir: DirAsc})))
}

func TestSort_MissingDateAsEpoch(t *testing.T) {
	recs := core.NormalizeAll([]core.RawRecord{
		{"id": 1, "fecha_nacimiento": "1965-03-01"},
		{"id": 2},
		{"id": 3, "fecha_nacimiento": "1990-01-01"},
		{"id": 4, "fecha_nacimiento": "no sabe"},
	}, testNow)

	asc := Sort(recs, SortState{Column: core.KeyFechaNacimiento, Dir: DirAsc})
	assert.Equal(t, []int64{1, 2, 4, 3}, ids(asc))

	desc := Sort(recs, SortState{Column: core.KeyFechaNacimiento, Dir: DirDesc})
	assert.Equal(t, []int64{3, 2, 4, 1}, ids(desc))
}

func TestSort_DoesNotMutateInput(t *testing.T) {
	src := sampleRecords()
	before := ids(src)
	_ = Sort(src, SortState{Column: core.KeyNombre, Dir: DirDesc})
	assert.Equal(t, before, ids(src))
}

func TestSortState_Toggle(t *testing.T) {
	var s SortState
	s = s.Toggle("nombre")
	assert.Equal(t, SortState{"nombre", DirAsc}, s)
	s = s.Toggle("nombre")
	assert.Equal(t, SortState{"nombre", DirDesc}, s)
	s = s.Toggle("cargo")
	assert.Equal(t, SortState{"cargo", DirAsc}, s, "another column restarts ascending")
	s = s.Toggle("cargo")
	s = s.Toggle("cargo")
	assert.Equal(t, SortState{}, s)
}

func TestParseSort(t *testing.T) {
	s, err := ParseSort("salario", "DESC")
	require.NoError(t, err)
	assert.Equal(t, SortState{"salario", DirDesc}, s)

	s, err = ParseSort("", "asc")
	require.NoError(t, err)
	assert.False(t, s.Sorted())

	_, err = ParseSort("nope", "asc")
	assert.ErrorIs(t, err, ErrUnknownColumn)
	_, err = ParseSort("salario", "up")
	assert.Error(t, err)
}

func TestSelection_TriState(t *testing.T) {
	s := NewSelection()
	visible := []int64{1, 2, 3}

	assert.Equal(t, Unchecked, s.State(visible))
	s.Set(2, true)
	assert.Equal(t, Indeterminate, s.State(visible))
	s.SetAll(visible, true)
	assert.Equal(t, Checked, s.State(visible))
	assert.Equal(t, Unchecked, s.State(nil))

	s.Set(9, true)
	s.SetAll(visible, false)
	assert.Equal(t, []int64{9}, s.IDs())
	assert.False(t, s.Toggle(9))
	assert.Zero(t, s.Len())
}

func TestColumns_DefaultLayouts(t *testing.T) {
	layouts, err := DefaultLayouts()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"dashboard", "empleados", "completo"}, LayoutNames())

	dash := layouts["dashboard"]
	assert.Equal(t, "dashboard", dash.Name)
	assert.False(t, dash.HasSearch())
	assert.Equal(t, core.KeyNombre, dash.Columns[0].Key)

	_, err = LayoutByName("missing")
	assert.ErrorIs(t, err, ErrUnknownLayout)
}

func TestParseLayouts_Invalid(t *testing.T) {
	tests := map[string]string{
		"unknown column": "layouts:\n  x:\n    columns:\n      - {key: sueldo, label: S}\n",
		"bad format":     "layouts:\n  x:\n    columns:\n      - {key: salario, label: S, format: money}\n",
		"duplicate":      "layouts:\n  x:\n    columns:\n      - {key: nombre, label: A}\n      - {key: nombre, label: B}\n",
		"no columns":     "layouts:\n  x:\n    title: empty\n",
		"bad search":     "layouts:\n  x:\n    search: [sueldo]\n    columns:\n      - {key: nombre, label: A}\n",
		"empty":          "layouts: {}\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseLayouts([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestColumn_Render(t *testing.T) {
	rec := sampleRecords()[0]
	retired := sampleRecords()[3]

	assert.Equal(t, "$ 2.500.000", Column{Key: core.KeySalario, Format: FormatCurrency}.Render(rec))
	assert.Equal(t, "", Column{Key: core.KeySalario, Format: FormatCurrency}.Render(sampleRecords()[1]))
	assert.Equal(t, "34", Column{Key: core.KeyEdad, Format: FormatAge}.Render(rec))
	assert.Equal(t, "2020-02-01", Column{Key: core.KeyFechaAfiliacion, Format: FormatDate}.Render(rec))
	assert.Equal(t, "bad", Column{Key: core.KeyFechaAfiliacion, Format: FormatDate}.Render(sampleRecords()[1]))
	assert.Equal(t, "Activo", Column{Key: core.KeyActivo, Format: FormatStatus}.Render(rec))
	assert.Equal(t, "Retirado", Column{Key: core.KeyActivo, Format: FormatStatus}.Render(retired))
	assert.Equal(t, "ana pérez", Column{Key: core.KeyNombre}.Render(rec))
}

func TestSanitizeCell(t *testing.T) {
	for in, want := range map[string]string{
		"=cmd|' /C calc'!A0": "'=cmd|' /C calc'!A0",
		"+57 300":            "'+57 300",
		"-5":                 "'-5",
		"@SUM(A1)":           "'@SUM(A1)",
		"Ana":                "Ana",
		"":                   "",
		" =x":                " =x",
	} {
		assert.Equal(t, want, SanitizeCell(in), in)
	}
}

func injectionRecord() []core.Record {
	return core.NormalizeAll([]core.RawRecord{
		{"id": 1, "nombre": "=cmd|' /C calc'!A0", "cargo": `Jefe "A", <b>&</b>`},
	}, testNow)
}

func TestWrite_CSV(t *testing.T) {
	cols := []Column{{Key: core.KeyNombre, Label: "Nombre"}, {Key: core.KeyCargo, Label: "Cargo"}}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatCSV, cols, injectionRecord()))
	require.True(t, strings.HasPrefix(buf.String(), utf8BOM))

	rows, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(buf.String(), utf8BOM))).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Nombre", "Cargo"}, rows[0])
	assert.Equal(t, "'=cmd|' /C calc'!A0", rows[1][0])
	assert.Equal(t, `Jefe "A", <b>&</b>`, rows[1][1])
	assert.Contains(t, buf.String(), `"Jefe ""A"", <b>&</b>"`, "quotes are doubled")
}

func TestWrite_XLS(t *testing.T) {
	cols := []Column{{Key: core.KeyNombre, Label: "Nombre"}, {Key: core.KeyCargo, Label: "Cargo"}}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatXLS, cols, injectionRecord()))
	out := buf.String()

	assert.Contains(t, out, "<th>Nombre</th><th>Cargo</th>")
	assert.Contains(t, out, "<td>&#39;=cmd|&#39; /C calc&#39;!A0</td>")
	assert.Contains(t, out, "<td>Jefe &#34;A&#34;, &lt;b&gt;&amp;&lt;/b&gt;</td>")
	assert.NotContains(t, out, "<b>")
}

func TestWrite_XLSX(t *testing.T) {
	layout := testLayout(t, "empleados")
	recs := sampleRecords()

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatXLSX, layout.Columns, recs))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(xlsxSheet)
	require.NoError(t, err)
	require.Len(t, rows, len(recs)+1)
	assert.Equal(t, "Nombre", rows[0][0])
	assert.Equal(t, "Estado", rows[0][len(layout.Columns)-1])
	assert.Equal(t, "ana pérez", rows[1][0])
	assert.Equal(t, "$ 2.500.000", rows[1][5])
}

func TestWrite_UnknownFormat(t *testing.T) {
	err := Write(&bytes.Buffer{}, Format("pdf"), nil, nil)
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestFileName(t *testing.T) {
	at := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	assert.Equal(t, "empleados_todos_20240309_140507.csv", FileName(ModeAll, FormatCSV, at))
	assert.Equal(t, "empleados_vista_actual_20240309_140507.xls", FileName(ModeCurrent, FormatXLS, at))
}

func TestParseModeAndFormat(t *testing.T) {
	for in, want := range map[string]Mode{"all": ModeAll, "todos": ModeAll, "filtered": ModeCurrent, "": ModeCurrent} {
		got, err := ParseMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseMode("some")
	assert.ErrorIs(t, err, ErrInvalidMode)

	for in, want := range map[string]Format{"CSV": FormatCSV, "": FormatXLS, "xlsx": FormatXLSX} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err = ParseFormat("pdf")
	assert.ErrorIs(t, err, ErrInvalidFormat)
	assert.Equal(t, "text/csv; charset=utf-8", FormatCSV.ContentType())
}

func ExampleSort() {
	recs := core.NormalizeAll([]core.RawRecord{
		{"id": 1, "nombre": "Beto"},
		{"id": 2, "nombre": "ana"},
	}, time.Now())
	for _, r := range Sort(recs, SortState{Column: core.KeyNombre, Dir: DirAsc}) {
		fmt.Println(r.ID, r.Nombre)
	}
	// Output:
	// 2 ana
	// 1 Beto
}
