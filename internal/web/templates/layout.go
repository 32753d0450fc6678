package templates

import (
	"github.com/a-h/templ"

	"github.com/JonMunkholm/rrhh/internal/core"
)

// Nav entries shown to signed-in users.
var navItems = []struct{ Href, Label string }{
	{"/dashboard", "Panel"},
	{"/empleados", "Empleados"},
	{"/form", "Registrar empleado"},
}

// Page wraps body in the document shell. user is the signed-in e-mail;
// empty hides the navigation.
func Page(title, user, active string, body templ.Component) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw(`<!DOCTYPE html><html lang="es"><head><meta charset="utf-8">`,
			`<meta name="viewport" content="width=device-width, initial-scale=1">`,
			`<title>`)
		h.text(title)
		h.raw(` · RRHH</title><link rel="stylesheet" href="/static/app.css">`,
			`<script src="/static/app.js" defer></script></head><body>`)

		if user != "" {
			h.raw(`<header class="topbar"><nav>`)
			for _, item := range navItems {
				h.raw(`<a`)
				h.attr("href", item.Href)
				if item.Href == active {
					h.attr("class", "active")
				}
				h.raw(`>`)
				h.text(item.Label)
				h.raw(`</a>`)
			}
			h.raw(`</nav><div class="user"><span>`)
			h.text(user)
			h.raw(`</span><form method="post" action="/logout"><button type="submit">Salir</button></form></div></header>`)
		}

		h.raw(`<main>`)
		h.render(body)
		h.raw(`</main></body></html>`)
	})
}

// Notice renders a dismissible message box. kind is "ok" or "error".
func Notice(kind, message string) templ.Component {
	return component(func(h *htmlWriter) {
		if message == "" {
			return
		}
		h.raw(`<div role="status"`)
		h.attr("class", "notice notice-"+kind)
		h.raw(`>`)
		h.text(message)
		h.raw(`</div>`)
	})
}

// LoginPage is the sign-in form.
func LoginPage(correo, errMsg string) templ.Component {
	body := component(func(h *htmlWriter) {
		h.raw(`<section class="login"><h1>Recursos Humanos</h1>`)
		h.render(Notice("error", errMsg))
		h.raw(`<form method="post" action="/login">`,
			`<label>Correo<input type="email" name="correo" required autocomplete="username"`)
		h.attr("value", correo)
		h.raw(`></label>`,
			`<label>Contraseña<input type="password" name="contrasena" required autocomplete="current-password"></label>`,
			`<button type="submit">Ingresar</button></form></section>`)
	})
	return Page("Ingreso", "", "", body)
}

// ErrorPage shows a mapped error with its support code.
func ErrorPage(user string, msg core.UserMessage, status int) templ.Component {
	body := component(func(h *htmlWriter) {
		h.raw(`<section class="error-page"><h1>Error `)
		h.text(itoa(status))
		h.raw(`</h1><p class="message">`)
		h.text(msg.Message)
		h.raw(`</p>`)
		if msg.Action != "" {
			h.raw(`<p class="action">`)
			h.text(msg.Action)
			h.raw(`</p>`)
		}
		h.raw(`<p class="code">Código: `)
		h.text(msg.Code)
		h.raw(`</p><p><a href="/dashboard">Volver al panel</a></p></section>`)
	})
	return Page("Error", user, "", body)
}
