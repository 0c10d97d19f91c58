package api

import (
	"net/http"

	"github.com/mmynk/weighttrack/internal/models"
)

func (s *Server) getSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.settings.GetSettings(r.Context(), caller(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, settings)
}

func (s *Server) updateSettings(w http.ResponseWriter, r *http.Request) {
	var patch models.SettingsPatch
	if err := decode(r, &patch); err != nil {
		fail(w, r, err)
		return
	}
	settings, err := s.settings.UpdateSettings(r.Context(), patch, caller(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, settings)
}
