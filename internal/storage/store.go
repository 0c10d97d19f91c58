// Package storage provides abstractions for persistent document storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Domain is one of the data categories, each stored separately per user.
type Domain string

const (
	DomainUsers    Domain = "users"
	DomainEntries  Domain = "entries"
	DomainSettings Domain = "settings"
	DomainWater    Domain = "water"
)

// Domains lists every domain, in layout order.
var Domains = []Domain{DomainUsers, DomainEntries, DomainSettings, DomainWater}

// UsersKey is the key of the single document holding all users.
const UsersKey = "users"

var (
	// ErrNotFound is returned by Get when no document exists for the key.
	ErrNotFound = errors.New("document not found")

	// ErrInvalidKey is returned for keys that cannot name a document.
	ErrInvalidKey = errors.New("invalid document key")

	// ErrInvalidDomain is returned for domains outside Domains.
	ErrInvalidDomain = errors.New("invalid document domain")
)

// Store defines the interface for document storage operations.
// A document is an opaque JSON blob addressed by (domain, key); for every
// domain except users the key is the owning username.
//
// This abstraction allows swapping storage backends (flat files, SQLite,
// BadgerDB) without changing the service layer.
type Store interface {
	// EnsureLayout prepares the backend (directories, schema).
	// It is safe to call repeatedly.
	EnsureLayout(ctx context.Context) error

	// Get returns the document stored under (domain, key).
	// Returns an error wrapping ErrNotFound if there is none.
	Get(ctx context.Context, domain Domain, key string) ([]byte, error)

	// Put replaces the document stored under (domain, key).
	Put(ctx context.Context, domain Domain, key string, data []byte) error

	// Close releases any resources held by the store.
	Close() error
}

// IOError wraps a backend failure other than a missing document.
type IOError struct {
	Op     string
	Domain Domain
	Key    string
	Err    error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("storage %s %s/%s: %v", e.Op, e.Domain, e.Key, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// NotFound returns an error wrapping ErrNotFound for (domain, key).
func NotFound(domain Domain, key string) error {
	return fmt.Errorf("%s/%s: %w", domain, key, ErrNotFound)
}

// ValidateKey rejects keys that are empty or could escape their domain.
func ValidateKey(key string) error {
	if key == "" || key == "." || key == ".." ||
		strings.ContainsAny(key, `/\`) || strings.ContainsRune(key, 0) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// ValidDomain reports whether d is a known domain.
func ValidDomain(d Domain) bool {
	for _, known := range Domains {
		if d == known {
			return true
		}
	}
	return false
}

// ValidateDoc checks that (domain, key) can address a document.
// Backends call it at the top of Get and Put.
func ValidateDoc(domain Domain, key string) error {
	if !ValidDomain(domain) {
		return fmt.Errorf("%w: %q", ErrInvalidDomain, domain)
	}
	return ValidateKey(key)
}
