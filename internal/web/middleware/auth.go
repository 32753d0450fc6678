package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/rrhh/internal/auth"
	"github.com/JonMunkholm/rrhh/internal/core"
	"github.com/JonMunkholm/rrhh/internal/logging"
)

// Session verifies the session cookie when present and stores the claims,
// the audit actor and the user's log fields in the request context.
// Requests without a valid session pass through unauthenticated; the
// guards below decide what that means for a route.
func Session(m *auth.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := m.FromRequest(r)
			if err != nil {
				if !errors.Is(err, auth.ErrNoSession) {
					slog.Debug("session: rejected token", "path", r.URL.Path, "error", err)
					m.ClearCookie(w)
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx := auth.ContextWithClaims(r.Context(), claims)
			ctx = core.ContextWithActor(ctx, core.Actor{UserID: claims.UserID(), Correo: claims.Correo})
			ctx = logging.WithFields(ctx, "user_id", claims.UserID())
			annotateUser(ctx, claims.UserID())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSession rejects API requests without a session with 401 and an
// AUTH002 body.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.ClaimsFromContext(r.Context()); ok {
			next.ServeHTTP(w, r)
			return
		}

		msg := core.MapError(core.ErrSessionExpired)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error":   msg.Message,
			"message": msg.Message,
			"action":  msg.Action,
			"code":    msg.Code,
		})
	})
}

// GuardPage redirects page requests without a session to the login page.
func GuardPage(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.ClaimsFromContext(r.Context()); ok {
			next.ServeHTTP(w, r)
			return
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
	})
}
