package templates

import (
	"github.com/a-h/templ"

	"github.com/JonMunkholm/rrhh/internal/grid"
)

// GridView is what a grid page needs to render.
type GridView struct {
	Page   string // route segment: dashboard or empleados
	User   string
	Notice string
	Error  string
	Snap   grid.Snapshot
}

func (v GridView) actionURL(action string) string {
	return "/acciones/" + v.Page + "/" + action
}

// apiURL is the JSON endpoint for action, used by the page script.
func (v GridView) apiURL(action string) string {
	return "/api/grid/" + v.Page + "/" + action
}

func (v GridView) exportURL(mode, format string) string {
	return "/exportar/" + v.Page + "?mode=" + mode + "&format=" + format
}

// DashboardPage shows partition stats, per-column filters, the selectable
// table and the export controls.
func DashboardPage(v GridView) templ.Component {
	body := component(func(h *htmlWriter) {
		s := v.Snap
		h.raw(`<h1>Panel de empleados</h1>`)
		h.render(Notice("ok", v.Notice))
		h.render(Notice("error", v.Error))

		h.raw(`<section class="stats">`)
		stat(h, "Total", s.Stats.Total)
		stat(h, "Activos", s.Stats.Active)
		stat(h, "Históricos", s.Stats.Historical)
		h.raw(`</section>`)

		h.raw(`<section class="toolbar">`)
		viewToggle(h, v)
		reloadButton(h, v)
		h.raw(`</section>`)

		filterForm(h, v)
		exportBar(h, v)
		table(h, v, false)
	})
	return Page("Panel", v.User, "/dashboard", body)
}

// EmpleadosPage is the management table with global search and row
// actions.
func EmpleadosPage(v GridView) templ.Component {
	body := component(func(h *htmlWriter) {
		s := v.Snap
		h.raw(`<h1>Gestión de empleados</h1>`)
		h.render(Notice("ok", v.Notice))
		h.render(Notice("error", v.Error))

		h.raw(`<section class="toolbar"><form method="post" class="search"`)
		h.attr("action", v.actionURL("search"))
		h.raw(`><input type="search" name="term" placeholder="Buscar por nombre, documento, cargo, correo o teléfono"`)
		h.attr("value", s.Search)
		h.raw(`><button type="submit">Buscar</button></form>`)
		reloadButton(h, v)
		h.raw(`<a class="button" href="/form">Nuevo empleado</a></section>`)

		exportBar(h, v)
		table(h, v, true)
	})
	return Page("Empleados", v.User, "/empleados", body)
}

func stat(h *htmlWriter, label string, n int) {
	h.raw(`<div class="stat"><span class="value">`)
	h.text(itoa(n))
	h.raw(`</span><span class="label">`)
	h.text(label)
	h.raw(`</span></div>`)
}

func viewToggle(h *htmlWriter, v GridView) {
	views := []struct {
		view  grid.View
		label string
	}{
		{grid.ViewAll, "Todos"},
		{grid.ViewActive, "Activos"},
		{grid.ViewHistorical, "Históricos"},
	}
	h.raw(`<form method="post" class="view-toggle"`)
	h.attr("action", v.actionURL("view"))
	h.raw(`>`)
	for _, item := range views {
		h.raw(`<button type="submit" name="view"`)
		h.attr("value", string(item.view))
		if v.Snap.View == item.view {
			h.attr("class", "active")
			h.attr("aria-pressed", "true")
		}
		h.raw(`>`)
		h.text(item.label)
		h.raw(`</button>`)
	}
	h.raw(`</form>`)
}

func reloadButton(h *htmlWriter, v GridView) {
	h.raw(`<form method="post"`)
	h.attr("action", v.actionURL("reload"))
	h.raw(`><button type="submit">Recargar</button></form>`)
}

func filterForm(h *htmlWriter, v GridView) {
	h.raw(`<form method="post" class="filters" data-autosubmit`)
	h.attr("action", v.actionURL("filter"))
	h.raw(`>`)
	for _, col := range v.Snap.Columns {
		if !col.Filter {
			continue
		}
		h.raw(`<label>`)
		h.text(col.Label)
		h.raw(`<input type="text"`)
		h.attr("name", "filtro_"+col.Key)
		h.attr("value", v.Snap.Filters[col.Key])
		h.raw(`></label>`)
	}
	h.raw(`<button type="submit">Filtrar</button></form>`)
}

func exportBar(h *htmlWriter, v GridView) {
	h.raw(`<section class="export"><span>Exportar:</span>`)
	for _, mode := range []struct{ value, label string }{
		{"todos", "Todos"},
		{"vista_actual", "Selección / vista actual"},
	} {
		for _, format := range []string{"xls", "csv", "xlsx"} {
			h.raw(`<a class="button"`)
			h.attr("href", v.exportURL(mode.value, format))
			h.raw(`>`)
			h.text(mode.label + " (" + format + ")")
			h.raw(`</a>`)
		}
	}
	h.raw(`</section>`)
}

func sortIndicator(s grid.SortState, key string) string {
	if s.Column != key {
		return ""
	}
	switch s.Dir {
	case grid.DirAsc:
		return " ▲"
	case grid.DirDesc:
		return " ▼"
	}
	return ""
}

func table(h *htmlWriter, v GridView, withActions bool) {
	s := v.Snap
	h.raw(`<table class="grid"><thead><tr><th class="select">`)

	// Select-all acts on the visible rows only; checked turns them off.
	h.raw(`<form method="post" data-autosubmit data-select-all`)
	h.attr("action", v.actionURL("select-all"))
	h.attr("data-api", v.apiURL("select-all"))
	h.raw(`><input type="hidden" name="selected"`)
	h.attr("value", boolString(s.SelectAll != grid.Checked))
	h.raw(`><input type="checkbox" aria-label="Seleccionar visibles"`)
	h.flag("checked", s.SelectAll == grid.Checked)
	if s.SelectAll == grid.Indeterminate {
		h.attr("data-indeterminate", "true")
	}
	h.raw(`></form></th>`)

	for _, col := range s.Columns {
		h.raw(`<th><form method="post"`)
		h.attr("action", v.actionURL("sort"))
		h.raw(`><button type="submit" class="sort" name="column"`)
		h.attr("value", col.Key)
		h.raw(`>`)
		h.text(col.Label + sortIndicator(s.Sort, col.Key))
		h.raw(`</button></form></th>`)
	}
	if withActions {
		h.raw(`<th>Acciones</th>`)
	}
	h.raw(`</tr></thead><tbody>`)

	for _, rec := range s.Rows {
		id := idString(rec.ID)
		selected := s.IsSelected(rec.ID)
		h.raw(`<tr`)
		if selected {
			h.attr("class", "selected")
		}
		h.raw(`><td class="select"><form method="post" data-autosubmit`)
		h.attr("action", v.actionURL("select"))
		h.attr("data-api", v.apiURL("select"))
		h.raw(`><input type="hidden" name="id"`)
		h.attr("value", id)
		h.raw(`><input type="hidden" name="selected"`)
		h.attr("value", boolString(!selected))
		h.raw(`><input type="checkbox"`)
		h.attr("aria-label", "Seleccionar "+rec.Nombre)
		h.flag("checked", selected)
		h.raw(`></form></td>`)

		for _, col := range s.Columns {
			h.raw(`<td>`)
			h.text(col.Render(rec))
			h.raw(`</td>`)
		}

		if withActions {
			h.raw(`<td class="actions"><a`)
			h.attr("href", "/empleados/"+id)
			h.raw(`>Ver</a> <a`)
			h.attr("href", "/empleados/"+id+"/editar")
			h.raw(`>Editar</a> <form method="post" class="inline"`)
			h.attr("action", "/empleados/"+id+"/eliminar")
			h.attr("data-confirm", "¿Eliminar a "+rec.Nombre+"?")
			h.raw(`><button type="submit" class="danger">Eliminar</button></form></td>`)
		}
		h.raw(`</tr>`)
	}
	if len(s.Rows) == 0 {
		span := len(s.Columns) + 1
		if withActions {
			span++
		}
		h.raw(`<tr class="empty"><td`)
		h.attr("colspan", itoa(span))
		h.raw(`>No hay empleados para mostrar.</td></tr>`)
	}
	h.raw(`</tbody></table><p class="summary" data-summary`)
	if s.Error != "" {
		h.attr("role", "alert")
	}
	h.raw(`>`)
	h.text(s.Summary())
	h.raw(`</p>`)
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
