package api

import (
	"net/http"

	"github.com/mmynk/weighttrack/internal/models"
)

func (s *Server) listEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := s.entries.GetEntries(r.Context(), caller(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, entries)
}

func (s *Server) addEntry(w http.ResponseWriter, r *http.Request) {
	var in models.NewEntry
	if err := decode(r, &in); err != nil {
		fail(w, r, err)
		return
	}
	e, err := s.entries.AddEntry(r.Context(), in, caller(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, e)
}

func (s *Server) updateEntry(w http.ResponseWriter, r *http.Request) {
	var patch models.EntryPatch
	if err := decode(r, &patch); err != nil {
		fail(w, r, err)
		return
	}
	e, err := s.entries.UpdateEntry(r.Context(), r.PathValue("id"), patch, caller(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	if e == nil {
		writeError(w, http.StatusNotFound, "Entry not found")
		return
	}
	writeData(w, http.StatusOK, e)
}

func (s *Server) deleteEntry(w http.ResponseWriter, r *http.Request) {
	ok, err := s.entries.DeleteEntry(r.Context(), r.PathValue("id"), caller(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "Entry not found")
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true})
}
