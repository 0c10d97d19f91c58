package api

import (
	"fmt"
	"net/http"

	"github.com/mmynk/weighttrack/internal/middleware"
	"github.com/mmynk/weighttrack/internal/models"
)

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.GetUsersWithoutPasswords(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, users)
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var in models.NewUser
	if err := decode(r, &in); err != nil {
		fail(w, r, err)
		return
	}
	u, err := s.users.CreateUser(r.Context(), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, u)
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	u, err := s.users.GetUser(r.Context(), r.PathValue("username"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, u)
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	var patch models.UserPatch
	if err := decode(r, &patch); err != nil {
		fail(w, r, err)
		return
	}
	target := r.PathValue("username")
	self, _ := middleware.GetUser(r.Context())
	if target == self.Username && patch.Role != nil && *patch.Role != models.RoleAdmin {
		fail(w, r, fmt.Errorf("cannot remove your own admin role: %w", errForbidden))
		return
	}

	u, err := s.users.UpdateUser(r.Context(), target, patch)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, u)
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	target := r.PathValue("username")
	self, _ := middleware.GetUser(r.Context())
	if target == self.Username {
		fail(w, r, fmt.Errorf("cannot delete your own account: %w", errForbidden))
		return
	}
	if err := s.users.DeleteUser(r.Context(), target); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true})
}
