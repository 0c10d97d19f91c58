package api

import (
	"net/http"

	"github.com/mmynk/weighttrack/internal/models"
	"github.com/mmynk/weighttrack/internal/stats"
)

// getWater serves ?all=true (every entry), ?date=YYYY-MM-DD (one day) or
// today's entry. A day without an entry is reported as zero.
func (s *Server) getWater(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID := caller(r)

	if q.Get("all") == "true" {
		entries, err := s.water.GetWaterEntries(r.Context(), userID)
		if err != nil {
			fail(w, r, err)
			return
		}
		writeData(w, http.StatusOK, entries)
		return
	}

	date := q.Get("date")
	if date == "" {
		date = s.water.Today()
	}
	e, err := s.water.GetWaterEntry(r.Context(), userID, date)
	if err != nil {
		fail(w, r, err)
		return
	}
	if e == nil {
		e = &models.WaterEntry{Author: userID, Date: date}
	}
	writeData(w, http.StatusOK, e)
}

// Amounts are milliliters unless unit is "oz".
type addWaterRequest struct {
	Amount float64          `json:"amount"`
	Unit   models.WaterUnit `json:"unit,omitempty"`
}

// toML converts amount to milliliters. An empty unit means milliliters.
func toML(w http.ResponseWriter, amount float64, unit models.WaterUnit) (float64, bool) {
	switch unit {
	case "", models.WaterML, models.WaterOz:
		return stats.ToML(amount, unit), true
	default:
		writeError(w, http.StatusBadRequest, "Unit must be ml or oz")
		return 0, false
	}
}

func (s *Server) addWater(w http.ResponseWriter, r *http.Request) {
	var req addWaterRequest
	if err := decode(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	ml, ok := toML(w, req.Amount, req.Unit)
	if !ok {
		return
	}
	e, err := s.water.AddWater(r.Context(), caller(r), ml)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, e)
}

func (s *Server) resetWater(w http.ResponseWriter, r *http.Request) {
	e, err := s.water.ResetTodayWater(r.Context(), caller(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, e)
}

type setWaterRequest struct {
	Date   string           `json:"date"`
	Amount float64          `json:"amount"`
	Unit   models.WaterUnit `json:"unit,omitempty"`
}

func (s *Server) setWater(w http.ResponseWriter, r *http.Request) {
	var req setWaterRequest
	if err := decode(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	if req.Date == "" {
		writeError(w, http.StatusBadRequest, "Date is required")
		return
	}
	ml, ok := toML(w, req.Amount, req.Unit)
	if !ok {
		return
	}
	e, err := s.water.SetWaterAmount(r.Context(), caller(r), req.Date, ml)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, e)
}
