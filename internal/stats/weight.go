// Package stats derives chart and dashboard figures from stored entries.
package stats

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/samber/lo"

	"github.com/mmynk/weighttrack/internal/models"
)

// TimeFilter selects how far back the weight chart reaches.
type TimeFilter string

const (
	FilterAll        TimeFilter = "all"
	FilterOneMonth   TimeFilter = "1m"
	FilterThreeMonth TimeFilter = "3m"
	FilterSixMonth   TimeFilter = "6m"
)

var filterMonths = map[TimeFilter]int{
	FilterOneMonth:   1,
	FilterThreeMonth: 3,
	FilterSixMonth:   6,
}

// ParseTimeFilter accepts all, 1m, 3m and 6m. The empty string means all.
func ParseTimeFilter(s string) (TimeFilter, error) {
	f := TimeFilter(s)
	if s == "" || f == FilterAll {
		return FilterAll, nil
	}
	if _, ok := filterMonths[f]; !ok {
		return "", fmt.Errorf("unknown time filter %q", s)
	}
	return f, nil
}

// Cutoff returns the instant entries must be after, and false for FilterAll.
func (f TimeFilter) Cutoff(now time.Time) (time.Time, bool) {
	months, ok := filterMonths[f]
	if !ok {
		return time.Time{}, false
	}
	return now.AddDate(0, -months, 0), true
}

// Filter returns the entries inside f, oldest first.
func Filter(entries []models.WeightEntry, f TimeFilter, now time.Time) []models.WeightEntry {
	out := slices.Clone(entries)
	if cutoff, ok := f.Cutoff(now); ok {
		out = lo.Filter(out, func(e models.WeightEntry, _ int) bool {
			return e.Timestamp.After(cutoff)
		})
	}
	slices.SortStableFunc(out, func(a, b models.WeightEntry) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return out
}

// Summary describes a series of weight entries.
// Weights are in the unit the entries were recorded in.
type Summary struct {
	Count int `json:"count"`

	First  float64 `json:"first"`
	Latest float64 `json:"latest"`
	// Change is Latest minus First.
	Change float64 `json:"change"`

	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Average float64 `json:"average"` // rounded to one decimal

	LatestAt time.Time `json:"latestAt,omitzero"`

	// ToTarget is Latest minus the target weight, when one is set.
	ToTarget *float64 `json:"toTarget,omitempty"`
}

// Summarize computes the summary of entries, which may be in any order.
// An empty slice yields a zero Summary.
func Summarize(entries []models.WeightEntry, target *float64) Summary {
	if len(entries) == 0 {
		return Summary{}
	}
	sorted := Filter(entries, FilterAll, time.Time{})
	weights := lo.Map(sorted, func(e models.WeightEntry, _ int) float64 { return e.Weight })

	first, latest := sorted[0], sorted[len(sorted)-1]
	s := Summary{
		Count:    len(sorted),
		First:    first.Weight,
		Latest:   latest.Weight,
		Change:   round1(latest.Weight - first.Weight),
		Min:      lo.Min(weights),
		Max:      lo.Max(weights),
		Average:  round1(lo.Sum(weights) / float64(len(weights))),
		LatestAt: latest.Timestamp,
	}
	if target != nil {
		s.ToTarget = lo.ToPtr(round1(latest.Weight - *target))
	}
	return s
}

// Recap is the "today" card: today's weight if one was logged, otherwise the
// most recent one, plus today's water.
type Recap struct {
	TodayWeight  *float64   `json:"todayWeight"`
	LastWeight   *float64   `json:"lastWeight"`
	LastWeightAt *time.Time `json:"lastWeightAt"`
	WaterML      float64    `json:"waterMl"`
}

// TodayRecap builds the Recap as of now. todayWater may be nil.
func TodayRecap(entries []models.WeightEntry, todayWater *models.WaterEntry, now time.Time) Recap {
	var r Recap
	if todayWater != nil {
		r.WaterML = todayWater.Amount
	}
	if len(entries) == 0 {
		return r
	}

	latest := lo.MaxBy(entries, func(a, b models.WeightEntry) bool {
		return a.Timestamp.After(b.Timestamp)
	})
	if sameDay(latest.Timestamp, now) {
		r.TodayWeight = lo.ToPtr(latest.Weight)
		return r
	}
	r.LastWeight = lo.ToPtr(latest.Weight)
	r.LastWeightAt = lo.ToPtr(latest.Timestamp)
	return r
}

func sameDay(a, b time.Time) bool {
	a = a.In(b.Location())
	return a.Format(models.DateLayout) == b.Format(models.DateLayout)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
