// Package web provides the HTTP server, pages and JSON API for the
// employee records application.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/rrhh/internal/auth"
	"github.com/JonMunkholm/rrhh/internal/config"
	"github.com/JonMunkholm/rrhh/internal/core"
	"github.com/JonMunkholm/rrhh/internal/grid"
	mw "github.com/JonMunkholm/rrhh/internal/web/middleware"
)

//go:embed static
var staticFiles embed.FS

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the HTTP server for the employee records application.
type Server struct {
	service  *core.Service
	sessions *auth.Manager
	grids    *gridRegistry
	layouts  map[string]grid.Layout
	cfg      *config.Config
	health   Pinger

	router *chi.Mux
	server *http.Server

	apiLimiter   *mw.RateLimiter
	loginLimiter *mw.RateLimiter
}

// Option configures a Server.
type Option func(*Server)

// WithHealthCheck sets the dependency /healthz pings.
func WithHealthCheck(p Pinger) Option {
	return func(s *Server) { s.health = p }
}

// NewServer creates a new Server instance. Close must be called to stop
// the rate limiters if the server is never started.
func NewServer(service *core.Service, sessions *auth.Manager, cfg *config.Config, opts ...Option) (*Server, error) {
	layouts, err := grid.DefaultLayouts()
	if err != nil {
		return nil, fmt.Errorf("load column layouts: %w", err)
	}

	s := &Server{
		service:  service,
		sessions: sessions,
		layouts:  layouts,
		cfg:      cfg,
		router:   chi.NewRouter(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.grids = newGridRegistry(cfg.Grid.MaxSessions, cfg.Session.TTL, layouts, grid.WithClock(service.Now))
	if cfg.Rate.Enabled {
		s.apiLimiter = mw.NewRateLimiter("api", cfg.Rate.RequestsPerMinute, time.Minute)
		s.loginLimiter = mw.NewRateLimiter("login", cfg.Rate.LoginAttempts, cfg.Rate.LoginWindow)
	}

	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("static files: %w", err)
	}

	s.setupMiddleware()
	s.setupRoutes(staticFS)
	return s, nil
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(mw.Metrics)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))

	// Security hardening
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	s.router.Use(mw.Session(s.sessions))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes(staticFS fs.FS) {
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	// Sign-in
	s.router.Get("/", s.handleLoginPage)
	s.router.With(s.limit(s.loginLimiter)).Post("/login", s.handleLoginForm)
	s.router.Post("/logout", s.handleLogoutForm)

	// Pages
	s.router.Group(func(r chi.Router) {
		r.Use(mw.GuardPage)
		r.Get("/dashboard", s.handleGridPage("dashboard"))
		r.Get("/empleados", s.handleGridPage("empleados"))
		r.Get("/empleados/{id}", s.handleEmployeeDetail)
		r.Get("/empleados/{id}/editar", s.handleEditForm)
		r.Post("/empleados/{id}/editar", s.handleEditSubmit)
		r.Post("/empleados/{id}/eliminar", s.handleDeleteSubmit)
		r.Get("/form", s.handleCreateForm)
		r.Post("/form", s.handleCreateSubmit)
		r.Post("/acciones/{page}/{action}", s.handlePageAction)
		r.Get("/exportar/{page}", s.handlePageExport)
	})

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		r.Use(s.limit(s.apiLimiter))

		r.With(s.limit(s.loginLimiter)).Post("/login", s.handleAPILogin)
		r.Post("/logout", s.handleAPILogout)

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireSession)

			// Employees
			r.Get("/formularios", s.handleListEmployees)
			r.Post("/formularios", s.handleCreateEmployee)
			r.Get("/formularios/{id}", s.handleGetEmployee)
			r.Put("/formularios/{id}", s.handleUpdateEmployee)
			r.Delete("/formularios/{id}", s.handleDeleteEmployee)

			// Session grids
			r.Get("/grid/{page}", s.handleGridSnapshot)
			r.Get("/grid/{page}/export", s.handleGridExport)
			r.Post("/grid/{page}/{action}", s.handleGridAction)
		})
	})
}

// limit applies rl when rate limiting is enabled.
func (s *Server) limit(rl *mw.RateLimiter) func(http.Handler) http.Handler {
	if rl == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return rl.Handler
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("server listening", "addr", s.server.Addr)
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server and its background workers.
func (s *Server) Shutdown(ctx context.Context) error {
	defer s.Close()
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Close stops the rate limiter cleanup goroutines.
func (s *Server) Close() {
	if s.apiLimiter != nil {
		s.apiLimiter.Stop()
	}
	if s.loginLimiter != nil {
		s.loginLimiter.Stop()
	}
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{"status": "ok", "grids": s.grids.len()}
	if s.health != nil {
		if err := s.health.Ping(r.Context()); err != nil {
			reqLogger(r).Warn("health check failed", "error", err)
			status["status"] = "degraded"
			status["database"] = "unreachable"
			writeJSONStatus(w, http.StatusServiceUnavailable, status)
			return
		}
		status["database"] = "ok"
	}
	writeJSON(w, status)
}

// securityHeaders adds security headers to all responses.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Prevent MIME type sniffing
			w.Header().Set("X-Content-Type-Options", "nosniff")

			// Prevent clickjacking
			w.Header().Set("X-Frame-Options", "DENY")

			// Pages and scripts come from this origin only
			if enableCSP {
				w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self'; img-src 'self' data:; form-action 'self'; frame-ancestors 'none'")
			}

			// Control referrer information
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			next.ServeHTTP(w, r)
		})
	}
}
