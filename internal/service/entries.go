package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/samber/lo"

	"github.com/mmynk/weighttrack/internal/models"
	"github.com/mmynk/weighttrack/internal/storage"
)

// EntryService manages weight entries, one document per user.
type EntryService struct {
	base
}

// NewEntryService creates a new EntryService with the given storage backend.
func NewEntryService(store storage.Store, opts ...Option) *EntryService {
	s := &EntryService{}
	s.init(store, opts)
	return s
}

// load must be called with the user's entries lock held.
func (s *EntryService) load(ctx context.Context, userID string) ([]models.WeightEntry, error) {
	if err := s.prepareUser(ctx, userID); err != nil {
		return nil, err
	}
	entries := []models.WeightEntry{}
	if _, err := s.read(ctx, storage.DomainEntries, userID, &entries); err != nil {
		return nil, fmt.Errorf("failed to read entries of %s: %w", userID, err)
	}
	if entries == nil {
		entries = []models.WeightEntry{}
	}
	return entries, nil
}

func (s *EntryService) save(ctx context.Context, userID string, entries []models.WeightEntry) error {
	if err := s.write(ctx, storage.DomainEntries, userID, entries); err != nil {
		return fmt.Errorf("failed to write entries of %s: %w", userID, err)
	}
	return nil
}

// GetEntries returns the entries of userID, newest first.
// A user without a document gets an empty list and no document is created.
func (s *EntryService) GetEntries(ctx context.Context, userID string) ([]models.WeightEntry, error) {
	unlock := s.locks.Lock(storage.DomainEntries, userID)
	defer unlock()

	entries, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	models.SortEntriesNewestFirst(entries)
	slog.Debug("Entries loaded", "user", userID, "count", len(entries))
	return entries, nil
}

// AddEntry stores a new entry authored by userID and returns it with its id.
func (s *EntryService) AddEntry(ctx context.Context, in models.NewEntry, userID string) (*models.WeightEntry, error) {
	in.Training = in.Training.Trimmed()
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if in.Sleep == nil {
		return nil, invalid("sleep", "is required")
	}

	unlock := s.locks.Lock(storage.DomainEntries, userID)
	defer unlock()

	entries, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	ts := in.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}
	entry := models.WeightEntry{
		ID:        s.ids.Next(),
		Author:    userID,
		Weight:    in.Weight,
		Training:  in.Training,
		Sleep:     *in.Sleep,
		Timestamp: ts,
	}
	if err := s.save(ctx, userID, append(entries, entry)); err != nil {
		return nil, err
	}

	slog.Info("Entry added", "user", userID, "entry_id", entry.ID)
	return &entry, nil
}

// UpdateEntry merges patch into the entry with the given id.
// It returns nil, without error, when userID has no such entry; the
// document is then left untouched.
func (s *EntryService) UpdateEntry(ctx context.Context, id string, patch models.EntryPatch, userID string) (*models.WeightEntry, error) {
	patch.TrimTraining()
	if err := validateStruct(patch); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(storage.DomainEntries, userID)
	defer unlock()

	entries, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	_, i, ok := lo.FindIndexOf(entries, func(e models.WeightEntry) bool { return e.ID == id })
	if !ok {
		slog.Debug("Entry not found", "user", userID, "entry_id", id)
		return nil, nil
	}

	entries[i].Apply(patch)
	if err := s.save(ctx, userID, entries); err != nil {
		return nil, err
	}

	slog.Info("Entry updated", "user", userID, "entry_id", id)
	updated := entries[i]
	return &updated, nil
}

// DeleteEntry removes the entry with the given id and reports whether one was removed.
func (s *EntryService) DeleteEntry(ctx context.Context, id, userID string) (bool, error) {
	unlock := s.locks.Lock(storage.DomainEntries, userID)
	defer unlock()

	entries, err := s.load(ctx, userID)
	if err != nil {
		return false, err
	}
	i := slices.IndexFunc(entries, func(e models.WeightEntry) bool { return e.ID == id })
	if i < 0 {
		return false, nil
	}

	if err := s.save(ctx, userID, slices.Delete(entries, i, i+1)); err != nil {
		return false, err
	}
	slog.Info("Entry deleted", "user", userID, "entry_id", id)
	return true, nil
}
