package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/weighttrack/internal/migrate"
	"github.com/mmynk/weighttrack/internal/storage"
	"github.com/mmynk/weighttrack/internal/storage/filestore"
)

const dataRoot = "/data"

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// testEnv is a file store on an in-memory filesystem with migration enabled.
type testEnv struct {
	fs    afero.Fs
	store *filestore.Store
	clock *fakeClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	fsys := afero.NewMemMapFs()
	return &testEnv{
		fs:    fsys,
		store: filestore.New(fsys, dataRoot),
		clock: &fakeClock{t: time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)},
	}
}

func (e *testEnv) opts() []Option {
	return []Option{
		WithClock(e.clock.Now),
		WithMigrator(migrate.New(e.fs, dataRoot, e.store)),
	}
}

// readDoc returns the raw bytes of a stored document.
func (e *testEnv) readDoc(t *testing.T, domain storage.Domain, key string) []byte {
	t.Helper()
	data, err := afero.ReadFile(e.fs, e.store.PathFor(domain, key))
	require.NoError(t, err)
	return data
}

// putDoc writes a document as a previous release would have left it.
func (e *testEnv) putDoc(t *testing.T, domain storage.Domain, key, content string) {
	t.Helper()
	require.NoError(t, e.store.Put(context.Background(), domain, key, []byte(content)))
}

func (e *testEnv) exists(t *testing.T, path string) bool {
	t.Helper()
	ok, err := afero.Exists(e.fs, path)
	require.NoError(t, err)
	return ok
}

func (e *testEnv) writeLegacy(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(e.fs, path, []byte(content), 0o644))
}
