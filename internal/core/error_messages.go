package core

// # Error Codes Reference
//
// User-facing messages carry a code support staff can look up. Known
// sentinel errors are matched first with errors.Is/errors.As; anything else
// falls through to case-insensitive pattern matching on the error text.
//
// # Authentication (AUTH001-AUTH099)
//
//	AUTH001 - Invalid credentials ("invalid credentials")
//	AUTH002 - Session missing or expired ("session")
//	AUTH003 - Account not found ("user not found")
//
// # Validation (VAL001-VAL099)
//
//	VAL001 - Invalid date ("invalid date")
//	VAL002 - Invalid number ("invalid number")
//	VAL003 - Required field ("required field")
//	VAL004 - Invalid e-mail ("invalid email")
//	VAL005 - Value out of range ("out of range")
//
// # Employees (EMP001-EMP099)
//
//	EMP001 - Employee not found ("employee not found", "invalid id")
//
// # Grid and export (GRID001-GRID099)
//
//	GRID001 - Nothing to export ("no records to export")
//	GRID002 - Bad export option ("invalid export mode", "invalid export format")
//	GRID003 - Bad grid input ("unknown column", "invalid view", "unknown action")
//
// # Requests (REQ001-REQ099)
//
//	REQ001 - Malformed request ("invalid request")
//	REQ002 - Unknown page ("page not found")
//
// # Database (DB001-DB099)
//
//	DB001 - Duplicate key ("duplicate key")
//	DB002 - Unique constraint ("unique constraint", "violates unique")
//	DB003 - Foreign key ("foreign key")
//	DB004 - Connection refused ("connection refused")
//	DB005 - Connection reset ("connection reset")
//	DB006 - Timeout ("timeout", "context deadline exceeded")
//
// # Rate Limiting (RATE001-RATE099)
//
//	RATE001 - Too many requests ("rate limit")
//
// # Default (ERR000)
//
// Fallback when nothing matches. Check the server logs for the original
// error when a user reports ERR000.

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSessionExpired is returned when a request carries no valid session.
var ErrSessionExpired = errors.New("session missing or expired")

// ErrRateLimited is returned when a client exceeds its request budget.
var ErrRateLimited = errors.New("rate limit exceeded")

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var (
	msgInvalidCredentials = UserMessage{
		Message: "Correo o contraseña incorrectos",
		Action:  "Verifica tus datos e intenta de nuevo",
		Code:    "AUTH001",
	}
	msgSession = UserMessage{
		Message: "Tu sesión expiró",
		Action:  "Inicia sesión nuevamente",
		Code:    "AUTH002",
	}
	msgUserNotFound = UserMessage{
		Message: "La cuenta no existe",
		Action:  "Verifica el correo ingresado",
		Code:    "AUTH003",
	}
	msgNotFound = UserMessage{
		Message: "Empleado no encontrado",
		Action:  "Recarga la lista; es posible que haya sido eliminado",
		Code:    "EMP001",
	}
	msgValidation = UserMessage{
		Message: "Hay campos con errores",
		Action:  "Revisa los campos marcados",
		Code:    "VAL000",
	}
	msgRateLimited = UserMessage{
		Message: "Demasiadas solicitudes",
		Action:  "Espera un momento antes de intentar de nuevo",
		Code:    "RATE001",
	}
)

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user
// messages. The first matching pattern wins, so specific patterns come
// before general ones.
var errorPatterns = []errorPattern{
	// Authentication
	{pattern: "invalid credentials", msg: msgInvalidCredentials},
	{pattern: "session", msg: msgSession},
	{pattern: "user not found", msg: msgUserNotFound},

	// Employees
	{pattern: "employee not found", msg: msgNotFound},
	{pattern: "invalid id", msg: msgNotFound},

	// Validation
	{
		pattern: "invalid date",
		msg: UserMessage{
			Message: "Formato de fecha inválido",
			Action:  "Usa el formato AAAA-MM-DD",
			Code:    "VAL001",
		},
	},
	{
		pattern: "invalid number",
		msg: UserMessage{
			Message: "Número inválido",
			Action:  "Escribe solo dígitos, sin separadores de miles",
			Code:    "VAL002",
		},
	},
	{
		pattern: "required field",
		msg: UserMessage{
			Message: "Falta un campo obligatorio",
			Action:  "Completa todos los campos obligatorios",
			Code:    "VAL003",
		},
	},
	{
		pattern: "invalid email",
		msg: UserMessage{
			Message: "Correo electrónico inválido",
			Action:  "Usa una dirección como nombre@empresa.com o deja el campo vacío",
			Code:    "VAL004",
		},
	},
	{
		pattern: "out of range",
		msg: UserMessage{
			Message: "Valor fuera del rango permitido",
			Action:  "Revisa la longitud o el valor del campo",
			Code:    "VAL005",
		},
	},

	// Grid and export
	{
		pattern: "no records to export",
		msg: UserMessage{
			Message: "No hay registros para exportar",
			Action:  "Ajusta los filtros o selecciona empleados",
			Code:    "GRID001",
		},
	},
	{
		pattern: "invalid export",
		msg: UserMessage{
			Message: "Opción de exportación no válida",
			Action:  "Elige todos o vista actual, en formato csv, xls o xlsx",
			Code:    "GRID002",
		},
	},
	{
		pattern: "unknown column",
		msg: UserMessage{
			Message: "La tabla no reconoce la operación solicitada",
			Action:  "Recarga la página e intenta de nuevo",
			Code:    "GRID003",
		},
	},
	{
		pattern: "invalid view",
		msg: UserMessage{
			Message: "La tabla no reconoce la operación solicitada",
			Action:  "Recarga la página e intenta de nuevo",
			Code:    "GRID003",
		},
	},
	{
		pattern: "unknown action",
		msg: UserMessage{
			Message: "La tabla no reconoce la operación solicitada",
			Action:  "Recarga la página e intenta de nuevo",
			Code:    "GRID003",
		},
	},

	// Requests
	{
		pattern: "invalid request",
		msg: UserMessage{
			Message: "La solicitud no es válida",
			Action:  "Revisa los datos enviados",
			Code:    "REQ001",
		},
	},
	{
		pattern: "page not found",
		msg: UserMessage{
			Message: "La página no existe",
			Action:  "Vuelve al panel principal",
			Code:    "REQ002",
		},
	},

	// Database
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "Ya existe un registro con ese identificador",
			Action:  "Verifica que el empleado no esté registrado",
			Code:    "DB001",
		},
	},
	{
		pattern: "unique constraint",
		msg: UserMessage{
			Message: "El valor ya existe y debe ser único",
			Action:  "Revisa los datos duplicados",
			Code:    "DB002",
		},
	},
	{
		pattern: "violates unique",
		msg: UserMessage{
			Message: "El valor ya existe y debe ser único",
			Action:  "Revisa los datos duplicados",
			Code:    "DB002",
		},
	},
	{
		pattern: "foreign key",
		msg: UserMessage{
			Message: "El registro relacionado no existe",
			Action:  "Recarga la página e intenta de nuevo",
			Code:    "DB003",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "No fue posible conectar con la base de datos",
			Action:  "Intenta de nuevo en unos momentos",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Se interrumpió la conexión con la base de datos",
			Action:  "Intenta de nuevo",
			Code:    "DB005",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "La operación tardó demasiado",
			Action:  "Intenta de nuevo más tarde",
			Code:    "DB006",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "La operación tardó demasiado",
			Action:  "Intenta de nuevo más tarde",
			Code:    "DB006",
		},
	},

	// Rate limiting
	{pattern: "rate limit", msg: msgRateLimited},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "Ocurrió un error inesperado",
	Action:  "Intenta de nuevo o contacta a soporte",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
//
// Example:
//
//	msg := MapError(fmt.Errorf("get employee 7: %w", ErrNotFound))
//	// msg.Code == "EMP001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return msgInvalidCredentials
	case errors.Is(err, ErrSessionExpired):
		return msgSession
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidID):
		return msgNotFound
	case errors.Is(err, ErrRateLimited):
		return msgRateLimited
	}

	var verr *ValidationError
	if errors.As(err, &verr) {
		if len(verr.Fields) == 0 {
			return msgValidation
		}
		// The first field decides the code; the form shows the rest.
		if m := matchPattern(verr.Fields[0].Message); m != nil {
			return *m
		}
		return msgValidation
	}

	if m := matchPattern(err.Error()); m != nil {
		return *m
	}
	return defaultMessage
}

func matchPattern(s string) *UserMessage {
	s = strings.ToLower(s)
	for i := range errorPatterns {
		if strings.Contains(s, errorPatterns[i].pattern) {
			return &errorPatterns[i].msg
		}
	}
	return nil
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Código: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Código: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError creates a UserError by mapping a technical error to a
// user-friendly message. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
