// Package migrate moves documents from the legacy flat-file layout into the
// current per-domain layout.
//
// Legacy layout (version 1), all files directly under the data root:
//
//	users.json
//	entries-<user>.json
//	settings-<user>.json
//
// Version 2 is whatever the configured storage.Store holds. A domain is at
// version 1 for a key when its legacy file exists and the store has no
// document for that key. Migration copies the legacy bytes into the store and
// then removes the legacy file; once the store has a document the legacy file
// is never consulted again.
package migrate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"

	"github.com/mmynk/weighttrack/internal/metrics"
	"github.com/mmynk/weighttrack/internal/models"
	"github.com/mmynk/weighttrack/internal/storage"
)

// Shim performs lazy, idempotent migrations for one data root.
type Shim struct {
	mu      sync.Mutex
	fs      afero.Fs
	root    string
	store   storage.Store
	metrics *metrics.Metrics
}

// Option configures a Shim.
type Option func(*Shim)

// WithMetrics counts migrated documents.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Shim) { s.metrics = m }
}

// New returns a Shim reading legacy files from root on fsys and writing into store.
func New(fsys afero.Fs, root string, store storage.Store, opts ...Option) *Shim {
	s := &Shim{fs: fsys, root: root, store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LegacyPath returns the version 1 file for (domain, key).
// Water has no legacy layout and reports false.
func LegacyPath(root string, domain storage.Domain, key string) (string, bool) {
	switch domain {
	case storage.DomainUsers:
		return filepath.Join(root, "users.json"), true
	case storage.DomainEntries:
		return filepath.Join(root, "entries-"+key+".json"), true
	case storage.DomainSettings:
		return filepath.Join(root, "settings-"+key+".json"), true
	default:
		return "", false
	}
}

// Upgrade converts a version 1 document into version 2.
// The two versions share their JSON shape, so the bytes are returned verbatim
// once they are known to decode; a document that does not decode aborts the
// migration.
func Upgrade(domain storage.Domain, v1 []byte) ([]byte, error) {
	var target any
	switch domain {
	case storage.DomainUsers:
		target = &[]models.User{}
	case storage.DomainEntries:
		target = &[]models.WeightEntry{}
	case storage.DomainSettings:
		target = &models.UserSettings{}
	default:
		return nil, fmt.Errorf("no legacy format for domain %q", domain)
	}
	if err := json.Unmarshal(v1, target); err != nil {
		return nil, fmt.Errorf("failed to decode legacy %s document: %w", domain, err)
	}
	return v1, nil
}

// MigrateUsers moves the legacy users file if needed.
func (s *Shim) MigrateUsers(ctx context.Context) error {
	_, err := s.migrate(ctx, storage.DomainUsers, storage.UsersKey)
	return err
}

// MigrateUser moves the legacy entries and settings files of userID if needed.
func (s *Shim) MigrateUser(ctx context.Context, userID string) error {
	if err := storage.ValidateKey(userID); err != nil {
		return err
	}
	for _, d := range []storage.Domain{storage.DomainEntries, storage.DomainSettings} {
		if _, err := s.migrate(ctx, d, userID); err != nil {
			return err
		}
	}
	return nil
}

// Report summarizes a MigrateAll run.
type Report struct {
	Migrated []string // legacy files moved
	Skipped  []string // legacy files left alone because the store already had the document
}

// MigrateAll migrates every legacy file found directly under the root.
func (s *Shim) MigrateAll(ctx context.Context) (Report, error) {
	var report Report

	files, err := afero.ReadDir(s.fs, s.root)
	if err != nil {
		return report, fmt.Errorf("failed to list %s: %w", s.root, err)
	}

	for _, f := range files {
		if f.IsDir() {
			continue
		}
		domain, key, ok := parseLegacyName(f.Name())
		if !ok {
			continue
		}
		moved, err := s.migrate(ctx, domain, key)
		if err != nil {
			return report, err
		}
		if moved {
			report.Migrated = append(report.Migrated, f.Name())
		} else {
			report.Skipped = append(report.Skipped, f.Name())
		}
	}
	return report, nil
}

func parseLegacyName(name string) (storage.Domain, string, bool) {
	if name == "users.json" {
		return storage.DomainUsers, storage.UsersKey, true
	}
	base, ok := strings.CutSuffix(name, ".json")
	if !ok {
		return "", "", false
	}
	for _, d := range []storage.Domain{storage.DomainEntries, storage.DomainSettings} {
		if key, ok := strings.CutPrefix(base, string(d)+"-"); ok && storage.ValidateKey(key) == nil {
			return d, key, true
		}
	}
	return "", "", false
}

// migrate performs the single state transition: legacy present and current
// absent → copy, then delete legacy. Every other combination is a no-op.
// It reports whether a document was moved.
func (s *Shim) migrate(ctx context.Context, domain storage.Domain, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	legacy, ok := LegacyPath(s.root, domain, key)
	if !ok {
		return false, nil
	}

	legacyExists, err := afero.Exists(s.fs, legacy)
	if err != nil {
		return false, fmt.Errorf("failed to check %s: %w", legacy, err)
	}
	if !legacyExists {
		return false, nil
	}

	_, err = s.store.Get(ctx, domain, key)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return false, err
	}

	v1, err := afero.ReadFile(s.fs, legacy)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", legacy, err)
	}
	v2, err := Upgrade(domain, v1)
	if err != nil {
		return false, fmt.Errorf("%s: %w", legacy, err)
	}
	if err := s.store.EnsureLayout(ctx); err != nil {
		return false, err
	}
	if err := s.store.Put(ctx, domain, key, v2); err != nil {
		return false, err
	}
	// The store now wins; a failed removal only leaves a file that will be ignored.
	if err := s.fs.Remove(legacy); err != nil {
		return true, fmt.Errorf("migrated %s but failed to remove it: %w", legacy, err)
	}

	slog.Info("Migrated legacy document", "domain", domain, "key", key, "from", legacy)
	s.metrics.MigrationDone(domain)
	return true, nil
}
