package models

import "time"

// DateLayout is the calendar date format used to key water entries.
const DateLayout = "2006-01-02"

// MLPerOz converts US fluid ounces to milliliters.
const MLPerOz = 29.5735

// WaterEntry is the total water intake of one user on one calendar date.
// There is at most one entry per date.
type WaterEntry struct {
	ID     string `json:"id"`
	Author string `json:"author"`

	// Date is the calendar date in DateLayout.
	Date string `json:"date"`

	// Amount is the total intake in milliliters. Always stored in ml
	// regardless of the user's display unit.
	Amount float64 `json:"amount"`

	UpdatedAt time.Time `json:"updatedAt"`
}
