package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"

	"github.com/mmynk/weighttrack/internal/models"
	"github.com/mmynk/weighttrack/internal/storage"
)

const waterIDPrefix = "water"

// WaterService manages daily water intake, one entry per user and date.
type WaterService struct {
	base
}

// NewWaterService creates a new WaterService with the given storage backend.
func NewWaterService(store storage.Store, opts ...Option) *WaterService {
	s := &WaterService{}
	s.init(store, opts)
	return s
}

// Today returns the current local date in models.DateLayout.
func (s *WaterService) Today() string {
	return s.now().Format(models.DateLayout)
}

// load must be called with the user's water lock held.
func (s *WaterService) load(ctx context.Context, userID string) ([]models.WaterEntry, error) {
	if err := storage.ValidateKey(userID); err != nil {
		return nil, &ValidationError{Field: "userId", Reason: err.Error()}
	}
	if err := s.store.EnsureLayout(ctx); err != nil {
		return nil, err
	}
	entries := []models.WaterEntry{}
	if _, err := s.read(ctx, storage.DomainWater, userID, &entries); err != nil {
		return nil, fmt.Errorf("failed to read water of %s: %w", userID, err)
	}
	if entries == nil {
		entries = []models.WaterEntry{}
	}
	return entries, nil
}

// GetWaterEntries returns every water entry of userID in stored order.
func (s *WaterService) GetWaterEntries(ctx context.Context, userID string) ([]models.WaterEntry, error) {
	unlock := s.locks.Lock(storage.DomainWater, userID)
	defer unlock()
	return s.load(ctx, userID)
}

// GetWaterEntry returns the entry for date, or nil when nothing was logged that day.
func (s *WaterService) GetWaterEntry(ctx context.Context, userID, date string) (*models.WaterEntry, error) {
	if err := validateDate(date); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(storage.DomainWater, userID)
	defer unlock()

	entries, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	e, ok := lo.Find(entries, func(e models.WaterEntry) bool { return e.Date == date })
	if !ok {
		return nil, nil
	}
	return &e, nil
}

// GetTodayWater returns today's entry, or nil when nothing was logged yet.
func (s *WaterService) GetTodayWater(ctx context.Context, userID string) (*models.WaterEntry, error) {
	return s.GetWaterEntry(ctx, userID, s.Today())
}

// AddWater adds amount milliliters to today's entry, creating it if needed.
func (s *WaterService) AddWater(ctx context.Context, userID string, amount float64) (*models.WaterEntry, error) {
	if amount <= 0 {
		return nil, invalid("amount", "must be greater than 0")
	}
	return s.upsert(ctx, userID, s.Today(), func(current float64) float64 {
		return current + amount
	})
}

// ResetTodayWater sets today's amount to zero, creating the entry if needed.
func (s *WaterService) ResetTodayWater(ctx context.Context, userID string) (*models.WaterEntry, error) {
	return s.upsert(ctx, userID, s.Today(), func(float64) float64 { return 0 })
}

// SetWaterAmount sets the amount logged on date, which may be any day.
func (s *WaterService) SetWaterAmount(ctx context.Context, userID, date string, amount float64) (*models.WaterEntry, error) {
	if amount < 0 {
		return nil, invalid("amount", "must not be negative")
	}
	if err := validateDate(date); err != nil {
		return nil, err
	}
	return s.upsert(ctx, userID, date, func(float64) float64 { return amount })
}

// upsert replaces the amount of the entry for date with update(amount),
// creating the entry from zero when absent.
func (s *WaterService) upsert(ctx context.Context, userID, date string, update func(float64) float64) (*models.WaterEntry, error) {
	unlock := s.locks.Lock(storage.DomainWater, userID)
	defer unlock()

	entries, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	_, i, ok := lo.FindIndexOf(entries, func(e models.WaterEntry) bool { return e.Date == date })
	if !ok {
		entries = append(entries, models.WaterEntry{
			ID:     s.ids.NextWithPrefix(waterIDPrefix),
			Author: userID,
			Date:   date,
		})
		i = len(entries) - 1
	}
	entries[i].Amount = update(entries[i].Amount)
	entries[i].UpdatedAt = now

	if err := s.write(ctx, storage.DomainWater, userID, entries); err != nil {
		return nil, fmt.Errorf("failed to write water of %s: %w", userID, err)
	}

	slog.Info("Water updated", "user", userID, "date", date, "amount", entries[i].Amount)
	e := entries[i]
	return &e, nil
}

func validateDate(date string) error {
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return invalid("date", "must be a YYYY-MM-DD date")
	}
	return nil
}
