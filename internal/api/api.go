// Package api exposes the services over a JSON HTTP API.
//
// Every response uses the envelope {"success": bool, "data": ..., "error": "..."}.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmynk/weighttrack/internal/auth"
	"github.com/mmynk/weighttrack/internal/middleware"
	"github.com/mmynk/weighttrack/internal/service"
)

var errForbidden = errors.New("forbidden")

// Server holds the handlers' dependencies.
type Server struct {
	users    *service.UserService
	entries  *service.EntryService
	settings *service.SettingsService
	water    *service.WaterService

	sessions      *auth.SessionManager
	authn         *middleware.Authenticator
	secureCookies bool
	now           func() time.Time
}

// Config wires a Server.
type Config struct {
	Users    *service.UserService
	Entries  *service.EntryService
	Settings *service.SettingsService
	Water    *service.WaterService

	Sessions *auth.SessionManager
	Authn    *middleware.Authenticator

	// SecureCookies marks the session cookie Secure; enable behind TLS.
	SecureCookies bool
	// Now defaults to time.Now.
	Now func() time.Time
}

// New creates a Server.
func New(cfg Config) *Server {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Server{
		users:         cfg.Users,
		entries:       cfg.Entries,
		settings:      cfg.Settings,
		water:         cfg.Water,
		sessions:      cfg.Sessions,
		authn:         cfg.Authn,
		secureCookies: cfg.SecureCookies,
		now:           now,
	}
}

// Register adds every API route to mux.
func (s *Server) Register(mux *http.ServeMux) {
	user := func(h http.HandlerFunc) http.Handler { return s.authn.RequireAuth(h) }
	admin := func(h http.HandlerFunc) http.Handler { return s.authn.RequireAdmin(h) }

	mux.HandleFunc("POST /api/auth/login", s.login)
	mux.HandleFunc("POST /api/auth/logout", s.logout)
	mux.HandleFunc("GET /api/auth/me", s.me)
	mux.Handle("POST /api/auth/change-password", user(s.changePassword))
	mux.Handle("POST /api/auth/change-nickname", user(s.changeNickname))

	mux.Handle("GET /api/entries", user(s.listEntries))
	mux.Handle("POST /api/entries", user(s.addEntry))
	mux.Handle("PATCH /api/entries/{id}", user(s.updateEntry))
	mux.Handle("DELETE /api/entries/{id}", user(s.deleteEntry))

	mux.Handle("GET /api/settings", user(s.getSettings))
	mux.Handle("PUT /api/settings", user(s.updateSettings))

	mux.Handle("GET /api/water", user(s.getWater))
	mux.Handle("POST /api/water", user(s.addWater))
	mux.Handle("DELETE /api/water", user(s.resetWater))
	mux.Handle("PATCH /api/water", user(s.setWater))

	mux.Handle("GET /api/summary", user(s.summary))

	mux.Handle("GET /api/users", admin(s.listUsers))
	mux.Handle("POST /api/users", admin(s.createUser))
	mux.Handle("GET /api/users/{username}", admin(s.getUser))
	mux.Handle("PATCH /api/users/{username}", admin(s.updateUser))
	mux.Handle("DELETE /api/users/{username}", admin(s.deleteUser))

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeData(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

// Handler returns a mux serving only the API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.Register(mux)
	return mux
}

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeData(w http.ResponseWriter, code int, data any) {
	writeJSON(w, code, envelope{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, envelope{Success: false, Error: msg})
}

// fail maps a service error to its status code.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrAuth):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, errForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		slog.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// decode reads a JSON body into v.
func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &service.ValidationError{Reason: "invalid JSON body: " + err.Error()}
	}
	return nil
}

// caller returns the authenticated username. Only valid behind RequireAuth.
func caller(r *http.Request) string {
	u, _ := middleware.GetUser(r.Context())
	return u.Username
}
