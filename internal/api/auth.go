package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/mmynk/weighttrack/internal/auth"
	"github.com/mmynk/weighttrack/internal/middleware"
	"github.com/mmynk/weighttrack/internal/models"
	"github.com/mmynk/weighttrack/internal/service"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	u, err := s.users.ValidateUser(r.Context(), req.Username, req.Password)
	if errors.Is(err, service.ErrNotFound) {
		slog.Warn("Login failed", "username", req.Username)
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	if err != nil {
		fail(w, r, err)
		return
	}

	if err := s.startSession(w, *u); err != nil {
		fail(w, r, err)
		return
	}
	slog.Info("User logged in", "username", u.Username)
	writeData(w, http.StatusOK, u)
}

func (s *Server) startSession(w http.ResponseWriter, u models.PublicUser) error {
	token, err := s.sessions.Generate(u)
	if err != nil {
		return err
	}
	http.SetCookie(w, s.sessions.Cookie(token, s.secureCookies))
	return nil
}

func (s *Server) logout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, s.sessions.ClearCookie(s.secureCookies))
	writeJSON(w, http.StatusOK, envelope{Success: true})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	u, err := s.authn.Resolve(r)
	if errors.Is(err, middleware.ErrUnauthenticated) {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	if err != nil {
		fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, u)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (s *Server) changePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := decode(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "Current and new password are required")
		return
	}
	if err := s.users.UpdateUserPassword(r.Context(), caller(r), req.CurrentPassword, req.NewPassword); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true})
}

type changeNicknameRequest struct {
	Nickname string `json:"nickname"`
}

func (s *Server) changeNickname(w http.ResponseWriter, r *http.Request) {
	var req changeNicknameRequest
	if err := decode(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	u, err := s.users.UpdateUser(r.Context(), caller(r), models.UserPatch{Nickname: &req.Nickname})
	if err != nil {
		fail(w, r, err)
		return
	}

	// API key callers have no session to refresh.
	if _, cerr := r.Cookie(auth.CookieName); cerr == nil {
		if err := s.startSession(w, *u); err != nil {
			fail(w, r, err)
			return
		}
	}
	writeData(w, http.StatusOK, u)
}
