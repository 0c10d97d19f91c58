// Package service implements the user, entry, settings and water operations
// on top of a storage.Store.
//
// Every operation makes sure the storage layout exists and that any legacy
// document for the target has been migrated before it reads. Read-modify-write
// sequences hold a per-(domain, key) lock for their whole duration.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mmynk/weighttrack/internal/ident"
	"github.com/mmynk/weighttrack/internal/storage"
)

// Migrator moves legacy documents into the store. *migrate.Shim implements it.
type Migrator interface {
	MigrateUsers(ctx context.Context) error
	MigrateUser(ctx context.Context, userID string) error
}

type noMigration struct{}

func (noMigration) MigrateUsers(context.Context) error        { return nil }
func (noMigration) MigrateUser(context.Context, string) error { return nil }

// Option configures a service.
type Option func(*base)

// WithClock sets the time source used for timestamps, ids and "today".
func WithClock(now func() time.Time) Option {
	return func(b *base) { b.now = now }
}

// WithIDs sets the identifier generator.
func WithIDs(g *ident.Generator) Option {
	return func(b *base) { b.ids = g }
}

// WithMigrator runs m before reading documents.
func WithMigrator(m Migrator) Option {
	return func(b *base) { b.migrator = m }
}

// base is the plumbing shared by all services.
type base struct {
	store    storage.Store
	migrator Migrator
	locks    storage.KeyedMutex
	now      func() time.Time
	ids      *ident.Generator
}

func (b *base) init(store storage.Store, opts []Option) {
	b.store = store
	b.migrator = noMigration{}
	b.now = time.Now
	for _, opt := range opts {
		opt(b)
	}
	if b.ids == nil {
		b.ids = ident.WithClock(b.now)
	}
}

// prepareUser ensures the layout exists and userID's legacy documents are migrated.
func (b *base) prepareUser(ctx context.Context, userID string) error {
	if err := storage.ValidateKey(userID); err != nil {
		return &ValidationError{Field: "userId", Reason: err.Error()}
	}
	if err := b.store.EnsureLayout(ctx); err != nil {
		return err
	}
	return b.migrator.MigrateUser(ctx, userID)
}

// read decodes the document at (domain, key) into v.
// It reports false, without error, when there is no document.
func (b *base) read(ctx context.Context, domain storage.Domain, key string, v any) (bool, error) {
	data, err := b.store.Get(ctx, domain, key)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, &storage.IOError{Op: "decode", Domain: domain, Key: key, Err: err}
	}
	return true, nil
}

// write stores v as indented JSON.
func (b *base) write(ctx context.Context, domain storage.Domain, key string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s/%s: %w", domain, key, err)
	}
	return b.store.Put(ctx, domain, key, data)
}
