// Package cached wraps a storage.Store with an in-process read cache.
package cached

import (
	"context"
	"log/slog"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/mmynk/weighttrack/internal/storage"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// Store caches document bodies read from or written to the wrapped store.
// Writes go through to the backend first and only then refresh the cache, so a
// failed Put never leaves a cached value the backend does not have.
//
// Documents modified behind the store's back (for example by editing the JSON
// files by hand) become visible once their entry expires.
type Store struct {
	next  storage.Store
	cache *gocache.Cache
}

// New wraps next with a cache whose entries live for ttl.
func New(next storage.Store, ttl time.Duration) *Store {
	return &Store{
		next:  next,
		cache: gocache.New(ttl, 2*ttl),
	}
}

func cacheKey(domain storage.Domain, key string) string {
	return string(domain) + "/" + key
}

// EnsureLayout delegates to the wrapped store.
func (s *Store) EnsureLayout(ctx context.Context) error {
	return s.next.EnsureLayout(ctx)
}

// Get serves from the cache when possible. Misses are not cached.
func (s *Store) Get(ctx context.Context, domain storage.Domain, key string) ([]byte, error) {
	ck := cacheKey(domain, key)
	if v, found := s.cache.Get(ck); found {
		if data, ok := v.([]byte); ok {
			slog.Debug("Cache hit", "domain", domain, "key", key)
			return clone(data), nil
		}
	}

	data, err := s.next.Get(ctx, domain, key)
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(ck, clone(data))
	return data, nil
}

// Put writes through and refreshes the cached copy.
func (s *Store) Put(ctx context.Context, domain storage.Domain, key string, data []byte) error {
	ck := cacheKey(domain, key)
	if err := s.next.Put(ctx, domain, key, data); err != nil {
		s.cache.Delete(ck)
		return err
	}
	s.cache.SetDefault(ck, clone(data))
	return nil
}

// Close flushes the cache and closes the wrapped store.
func (s *Store) Close() error {
	s.cache.Flush()
	return s.next.Close()
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}
