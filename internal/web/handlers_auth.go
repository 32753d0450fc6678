package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/JonMunkholm/rrhh/internal/auth"
	"github.com/JonMunkholm/rrhh/internal/core"
	"github.com/JonMunkholm/rrhh/internal/web/templates"
)

type loginRequest struct {
	Correo     string `json:"correo"`
	Contrasena string `json:"contrasena"`
}

type loginResponse struct {
	User      core.User `json:"user"`
	ExpiresAt string    `json:"expiresAt"`
}

// signIn checks the credentials and sets the session cookie.
func (s *Server) signIn(w http.ResponseWriter, r *http.Request, correo, password string) (core.User, *auth.Claims, error) {
	user, err := s.service.Authenticate(r.Context(), correo, password)
	if err != nil {
		return core.User{}, nil, err
	}
	token, claims, err := s.sessions.Issue(user.ID, user.Correo)
	if err != nil {
		return core.User{}, nil, fmt.Errorf("issue session: %w", err)
	}
	s.sessions.SetCookie(w, token)
	reqLogger(r).Info("signed in", "user_id", user.ID)
	return user, claims, nil
}

// signOut drops the session's grids and clears the cookie.
func (s *Server) signOut(w http.ResponseWriter, r *http.Request) {
	if c, ok := auth.ClaimsFromContext(r.Context()); ok {
		s.grids.drop(c.SessionID)
		reqLogger(r).Info("signed out")
	}
	s.sessions.ClearCookie(w)
}

// --- Pages ---

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.ClaimsFromContext(r.Context()); ok {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	s.renderPage(w, r, http.StatusOK, templates.LoginPage("", ""))
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxBodyBytes)
	if err := r.ParseForm(); err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	correo := r.PostForm.Get("correo")

	if _, _, err := s.signIn(w, r, correo, r.PostForm.Get("contrasena")); err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.respondError(w, r, err)
			return
		}
		reqLogger(r).Info("sign-in rejected", "error", err)
		s.renderPage(w, r, status, templates.LoginPage(correo, core.MapError(err).Message))
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *Server) handleLogoutForm(w http.ResponseWriter, r *http.Request) {
	s.signOut(w, r)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// --- API ---

func (s *Server) handleAPILogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.respondError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	user, claims, err := s.signIn(w, r, req.Correo, req.Contrasena)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, loginResponse{
		User:      user,
		ExpiresAt: claims.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleAPILogout(w http.ResponseWriter, r *http.Request) {
	s.signOut(w, r)
	w.WriteHeader(http.StatusNoContent)
}
