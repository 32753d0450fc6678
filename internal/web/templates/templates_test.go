package templates

import (
	"bytes"
	"context"
	"testing"

	"github.com/a-h/templ"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/rrhh/internal/core"
	"github.com/JonMunkholm/rrhh/internal/grid"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func TestLoginPage_EscapesInput(t *testing.T) {
	out := render(t, LoginPage(`"><script>x</script>`, "Correo o contraseña incorrectos"))

	assert.Contains(t, out, `action="/login"`)
	assert.Contains(t, out, "Correo o contraseña incorrectos")
	assert.NotContains(t, out, "<script>x</script>")
	assert.NotContains(t, out, `href="/dashboard"`, "no navigation before sign-in")
}

func TestErrorPage(t *testing.T) {
	out := render(t, ErrorPage("rrhh@example.com", core.MapError(core.ErrNotFound), 404))

	assert.Contains(t, out, "Error 404")
	assert.Contains(t, out, "EMP001")
	assert.Contains(t, out, "rrhh@example.com")
}

func loadedGrid(t *testing.T, page string) *grid.Grid {
	t.Helper()
	layout, err := grid.LayoutByName(page)
	require.NoError(t, err)
	g := grid.New(layout)
	gen := g.BeginLoad()
	require.True(t, g.CompleteLoad(gen, []core.RawRecord{
		{"id": 1, "nombre": "Ana <b>", "cargo": "Analista", "salario": 2500000, "activo": 1},
		{"id": 2, "nombre": "Luis", "cargo": "Auxiliar", "fecha_retiro": "2023-05-01"},
	}, nil))
	return g
}

func TestDashboardPage(t *testing.T) {
	g := loadedGrid(t, "dashboard")
	g.SetSelected(1, true)
	_, err := g.ToggleSort("nombre")
	require.NoError(t, err)

	out := render(t, DashboardPage(GridView{Page: "dashboard", User: "rrhh@example.com", Snap: g.Snapshot()}))

	assert.Contains(t, out, "Ana &lt;b&gt;")
	assert.Contains(t, out, `name="filtro_cargo"`)
	assert.Contains(t, out, `action="/acciones/dashboard/view"`)
	assert.Contains(t, out, `href="/exportar/dashboard?mode=todos&amp;format=csv"`)
	assert.Contains(t, out, "Nombre ▲")
	assert.Contains(t, out, `data-indeterminate="true"`, "one of two visible rows selected")
	assert.Contains(t, out, `data-api="/api/grid/dashboard/select"`)
	assert.Contains(t, out, `data-api="/api/grid/dashboard/select-all"`)
	assert.Contains(t, out, "Mostrando 2 de 2 empleados registrados. Seleccionados: 1.")
	assert.NotContains(t, out, "/eliminar")
}

func TestEmpleadosPage(t *testing.T) {
	g := loadedGrid(t, "empleados")
	g.SetSearch("luis")

	out := render(t, EmpleadosPage(GridView{Page: "empleados", User: "u", Notice: "Empleado eliminado", Snap: g.Snapshot()}))

	assert.Contains(t, out, `name="term"`)
	assert.Contains(t, out, `value="luis"`)
	assert.Contains(t, out, `action="/empleados/2/eliminar"`)
	assert.NotContains(t, out, `href="/empleados/1"`, "Ana does not match the search")
	assert.Contains(t, out, "Retirado")
	assert.Contains(t, out, "Empleado eliminado")
}

func TestEmptyTable(t *testing.T) {
	layout, err := grid.LayoutByName("dashboard")
	require.NoError(t, err)
	out := render(t, DashboardPage(GridView{Page: "dashboard", Snap: grid.New(layout).Snapshot()}))
	assert.Contains(t, out, "No hay empleados para mostrar.")
}

func TestEmployeeDetail(t *testing.T) {
	salario := decimal.NewFromInt(2500000)
	rec := core.Record{ID: 7, Nombre: "Ana", Salario: &salario, Activo: 1}
	layout, err := grid.LayoutByName("completo")
	require.NoError(t, err)

	out := render(t, EmployeeDetail("u", rec, layout.Columns))
	assert.Contains(t, out, "$ 2.500.000")
	assert.Contains(t, out, "Activo")
	assert.Contains(t, out, `href="/empleados/7/editar"`)
}

func TestEmployeeForm_ShowsErrors(t *testing.T) {
	in := core.EmployeeInput{Nombre: "Ana", Sexo: "F", FechaNacimiento: "15/06/2000"}
	_, err := in.Validate()
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)

	out := render(t, EmployeeForm(FormView{
		Title:   "Registrar empleado",
		Action:  "/form",
		Submit:  "Guardar",
		Input:   in,
		Errors:  verr.FieldMessages(),
		Message: core.FormatUserError(err),
	}))

	assert.Contains(t, out, `value="Ana"`)
	assert.Contains(t, out, `<option value="F" selected>F</option>`)
	assert.Contains(t, out, `type="date" id="fecha_nacimiento"`)
	assert.Contains(t, out, "Formato de fecha inválido")
	assert.Contains(t, out, "Falta un campo obligatorio")
	assert.NotContains(t, out, `name="edad"`, "derived fields are not editable")
	assert.NotContains(t, out, `name="id"`)
}
