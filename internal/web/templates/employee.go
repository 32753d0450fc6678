package templates

import (
	"github.com/a-h/templ"

	"github.com/JonMunkholm/rrhh/internal/core"
	"github.com/JonMunkholm/rrhh/internal/grid"
)

// EmployeeDetail lists every column of rec.
func EmployeeDetail(user string, rec core.Record, cols []grid.Column) templ.Component {
	body := component(func(h *htmlWriter) {
		id := idString(rec.ID)
		h.raw(`<section class="detail"><h1>`)
		h.text(rec.Nombre)
		h.raw(`</h1><span`)
		if rec.IsActive() {
			h.attr("class", "badge badge-active")
		} else {
			h.attr("class", "badge badge-retired")
		}
		h.raw(`>`)
		h.text(rec.Status())
		h.raw(`</span><dl>`)
		for _, col := range cols {
			h.raw(`<dt>`)
			h.text(col.Label)
			h.raw(`</dt><dd>`)
			if v := col.Render(rec); v != "" {
				h.text(v)
			} else {
				h.raw(`&mdash;`)
			}
			h.raw(`</dd>`)
		}
		h.raw(`</dl><p class="actions"><a class="button"`)
		h.attr("href", "/empleados/"+id+"/editar")
		h.raw(`>Editar</a> <a href="/empleados">Volver</a></p></section>`)
	})
	return Page(rec.Nombre, user, "/empleados", body)
}

// FormView is the state of a create or edit form.
type FormView struct {
	User    string
	Title   string
	Action  string
	Submit  string
	Input   core.EmployeeInput
	Errors  map[string]string
	Message string
}

// EmployeeForm renders the registration and edit form. Field order and
// input types follow the field catalog.
func EmployeeForm(v FormView) templ.Component {
	body := component(func(h *htmlWriter) {
		h.raw(`<section class="form"><h1>`)
		h.text(v.Title)
		h.raw(`</h1>`)
		h.render(Notice("error", v.Message))
		h.raw(`<form method="post" novalidate`)
		h.attr("action", v.Action)
		h.raw(`>`)
		for _, f := range core.Fields {
			if f.Derived {
				continue
			}
			field(h, f, v.Input.Get(f.Key), v.Errors[f.Key])
		}
		h.raw(`<p class="actions"><button type="submit">`)
		h.text(v.Submit)
		h.raw(`</button> <a href="/empleados">Cancelar</a></p></form></section>`)
	})
	return Page(v.Title, v.User, "/form", body)
}

func field(h *htmlWriter, f core.FieldSpec, value, errMsg string) {
	required := core.RequiredFields[f.Key]
	h.raw(`<div`)
	if errMsg != "" {
		h.attr("class", "field invalid")
	} else {
		h.attr("class", "field")
	}
	h.raw(`><label`)
	h.attr("for", f.Key)
	h.raw(`>`)
	h.text(f.Label)
	if required {
		h.raw(` <span class="required">*</span>`)
	}
	h.raw(`</label>`)

	switch {
	case f.Type == core.FieldEnum:
		h.raw(`<select`)
		h.attr("id", f.Key)
		h.attr("name", f.Key)
		h.flag("required", required)
		h.raw(`><option value="">Seleccione</option>`)
		for _, opt := range f.EnumValues {
			h.raw(`<option`)
			h.attr("value", opt)
			h.flag("selected", opt == value)
			h.raw(`>`)
			h.text(opt)
			h.raw(`</option>`)
		}
		h.raw(`</select>`)
	case f.Key == core.KeyInfoAdicional:
		h.raw(`<textarea rows="3"`)
		h.attr("id", f.Key)
		h.attr("name", f.Key)
		h.raw(`>`)
		h.text(value)
		h.raw(`</textarea>`)
	default:
		h.raw(`<input`)
		h.attr("type", inputType(f))
		h.attr("id", f.Key)
		h.attr("name", f.Key)
		h.attr("value", value)
		if f.Key == core.KeySalario {
			h.raw(` min="0" step="0.01"`)
		}
		h.flag("required", required)
		h.raw(`>`)
	}

	if errMsg != "" {
		h.raw(`<p class="field-error">`)
		h.text(fieldMessage(errMsg))
		h.raw(`</p>`)
	}
	h.raw(`</div>`)
}

func inputType(f core.FieldSpec) string {
	switch {
	case f.Type == core.FieldDate:
		return "date"
	case f.Key == core.KeySalario:
		return "number"
	case f.Key == core.KeyCorreo:
		return "email"
	case f.Key == core.KeyTelefono:
		return "tel"
	}
	return "text"
}

// fieldMessage shows the mapped user message for a validation failure.
func fieldMessage(msg string) string {
	return core.MapError(&core.ValidationError{Fields: []core.FieldError{{Message: msg}}}).Message
}
