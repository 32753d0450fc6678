package web

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/rrhh/internal/auth"
	"github.com/JonMunkholm/rrhh/internal/core"
	"github.com/JonMunkholm/rrhh/internal/logging"
)

// reqLogger returns the request-scoped logger.
func reqLogger(r *http.Request) *slog.Logger {
	return logging.FromContext(r.Context())
}

func logDefault() *slog.Logger {
	return slog.Default()
}

// sessionOf returns the verified claims. Routes behind the session guards
// always have them.
func sessionOf(r *http.Request) *auth.Claims {
	c, _ := auth.ClaimsFromContext(r.Context())
	if c == nil {
		return &auth.Claims{}
	}
	return c
}

// parseID reads the {id} URL parameter.
func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, core.ErrInvalidID
	}
	return id, nil
}

// parseBool accepts the values HTML forms and JSON clients send.
func parseBool(s string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "on", "yes", "si", "sí":
		return true
	case "0", "false", "off", "no":
		return false
	}
	return fallback
}
