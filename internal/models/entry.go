package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// SleepQuality rates the previous night: 0 good, 1 fair, 2 poor.
type SleepQuality int

const (
	SleepGood SleepQuality = iota
	SleepFair
	SleepPoor
)

// ActivityID references a CustomActivity in the owner's settings.
// It decodes from a JSON string or, for entries written by older releases,
// from a JSON number.
type ActivityID string

// UnmarshalJSON accepts "weights" as well as 1.
func (a *ActivityID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = ActivityID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("activity id must be a string or number: %w", err)
	}
	i, err := n.Int64()
	if err != nil {
		return fmt.Errorf("activity id must be an integer: %w", err)
	}
	*a = ActivityID(strconv.FormatInt(i, 10))
	return nil
}

// Trimmed returns a without surrounding whitespace.
func (a ActivityID) Trimmed() ActivityID {
	return ActivityID(strings.TrimSpace(string(a)))
}

// WeightEntry is a single body weight measurement.
type WeightEntry struct {
	// ID is unique within the owner's entries.
	ID string `json:"id"`

	// Author is the username that owns the entry.
	Author string `json:"author"`

	// Weight is the number the user entered. The owner's settings unit is
	// only a display label; stored weights are never converted.
	Weight float64 `json:"weight"`

	// Training is the activity performed that day.
	Training ActivityID `json:"training"`

	// Sleep is the sleep quality of the previous night.
	Sleep SleepQuality `json:"sleep"`

	// Timestamp is when the measurement was taken.
	Timestamp time.Time `json:"timestamp"`
}

// NewEntry holds the fields accepted when logging a measurement.
// Sleep is required; a zero Timestamp means "now".
type NewEntry struct {
	Weight    float64       `json:"weight" validate:"gt=0"`
	Training  ActivityID    `json:"training" validate:"required"`
	Sleep     *SleepQuality `json:"sleep" validate:"omitnil,min=0,max=2"`
	Timestamp time.Time     `json:"timestamp"`
}

// EntryPatch is a partial update of a WeightEntry. Nil fields are left unchanged.
// ID and Author cannot be changed.
type EntryPatch struct {
	Weight    *float64      `json:"weight,omitempty" validate:"omitnil,gt=0"`
	Training  *ActivityID   `json:"training,omitempty" validate:"omitnil,min=1"`
	Sleep     *SleepQuality `json:"sleep,omitempty" validate:"omitnil,min=0,max=2"`
	Timestamp *time.Time    `json:"timestamp,omitempty"`
}

// TrimTraining strips surrounding whitespace from the training id.
func (p *EntryPatch) TrimTraining() {
	if p.Training != nil {
		trimmed := p.Training.Trimmed()
		p.Training = &trimmed
	}
}

// Apply merges the non-nil fields of p into e.
func (e *WeightEntry) Apply(p EntryPatch) {
	if p.Weight != nil {
		e.Weight = *p.Weight
	}
	if p.Training != nil {
		e.Training = *p.Training
	}
	if p.Sleep != nil {
		e.Sleep = *p.Sleep
	}
	if p.Timestamp != nil {
		e.Timestamp = *p.Timestamp
	}
}

// SortEntriesNewestFirst orders entries by descending timestamp.
func SortEntriesNewestFirst(entries []WeightEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
}
