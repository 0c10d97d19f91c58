package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mmynk/weighttrack/internal/models"
	"github.com/mmynk/weighttrack/internal/storage"
)

// SettingsService manages the per-user settings document.
type SettingsService struct {
	base
}

// NewSettingsService creates a new SettingsService with the given storage backend.
func NewSettingsService(store storage.Store, opts ...Option) *SettingsService {
	s := &SettingsService{}
	s.init(store, opts)
	return s
}

// GetSettings returns the fully populated settings of userID. A user without
// a document gets the defaults, which are persisted. Fields missing from an
// older document are filled in the returned value and persisted by the next
// update.
func (s *SettingsService) GetSettings(ctx context.Context, userID string) (*models.UserSettings, error) {
	unlock := s.locks.Lock(storage.DomainSettings, userID)
	defer unlock()
	return s.load(ctx, userID)
}

// load must be called with the user's settings lock held.
func (s *SettingsService) load(ctx context.Context, userID string) (*models.UserSettings, error) {
	if err := s.prepareUser(ctx, userID); err != nil {
		return nil, err
	}

	var settings models.UserSettings
	found, err := s.read(ctx, storage.DomainSettings, userID, &settings)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings of %s: %w", userID, err)
	}
	if !found {
		settings = models.DefaultSettings(userID, s.now())
		if err := s.save(ctx, &settings); err != nil {
			return nil, err
		}
		slog.Info("Default settings created", "user", userID)
		return &settings, nil
	}

	if settings.Normalize(userID) {
		slog.Debug("Settings backfilled with defaults", "user", userID)
	}
	return &settings, nil
}

func (s *SettingsService) save(ctx context.Context, settings *models.UserSettings) error {
	if err := s.write(ctx, storage.DomainSettings, settings.UserID, settings); err != nil {
		return fmt.Errorf("failed to write settings of %s: %w", settings.UserID, err)
	}
	return nil
}

// UpdateSettings applies patch, stamps UpdatedAt and returns the stored document.
// UserID and CreatedAt never change.
func (s *SettingsService) UpdateSettings(ctx context.Context, patch models.SettingsPatch, userID string) (*models.UserSettings, error) {
	if err := ValidateSettingsPatch(patch); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(storage.DomainSettings, userID)
	defer unlock()

	settings, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	settings.Apply(patch)
	settings.UserID = userID
	settings.Normalize(userID)
	settings.UpdatedAt = s.now()

	if err := s.save(ctx, settings); err != nil {
		return nil, err
	}
	slog.Info("Settings updated", "user", userID)
	return settings, nil
}
