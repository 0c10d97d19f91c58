package api

import (
	"net/http"

	"github.com/mmynk/weighttrack/internal/models"
	"github.com/mmynk/weighttrack/internal/stats"
)

type summaryResponse struct {
	Filter stats.TimeFilter  `json:"filter"`
	Unit   models.WeightUnit `json:"unit"`
	Stats  stats.Summary     `json:"stats"`
	Today  stats.Recap       `json:"today"`
	Water  string            `json:"water"`
}

// summary reports weight statistics over ?filter= plus today's recap.
// Weights are returned as stored and labeled with the caller's unit; water
// is formatted in the caller's water unit.
func (s *Server) summary(w http.ResponseWriter, r *http.Request) {
	filter, err := stats.ParseTimeFilter(r.URL.Query().Get("filter"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	userID := caller(r)
	settings, err := s.settings.GetSettings(ctx, userID)
	if err != nil {
		fail(w, r, err)
		return
	}
	entries, err := s.entries.GetEntries(ctx, userID)
	if err != nil {
		fail(w, r, err)
		return
	}
	today, err := s.water.GetTodayWater(ctx, userID)
	if err != nil {
		fail(w, r, err)
		return
	}

	now := s.now()
	recap := stats.TodayRecap(entries, today, now)
	writeData(w, http.StatusOK, summaryResponse{
		Filter: filter,
		Unit:   settings.Unit,
		Stats:  stats.Summarize(stats.Filter(entries, filter, now), settings.TargetWeight),
		Today:  recap,
		Water:  stats.FormatWater(recap.WaterML, settings.WaterUnit),
	})
}
