package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/afero"

	"github.com/mmynk/weighttrack/internal/config"
	"github.com/mmynk/weighttrack/internal/metrics"
	"github.com/mmynk/weighttrack/internal/migrate"
	"github.com/mmynk/weighttrack/internal/storage"
	"github.com/mmynk/weighttrack/internal/storage/badger"
	"github.com/mmynk/weighttrack/internal/storage/cached"
	"github.com/mmynk/weighttrack/internal/storage/filestore"
	"github.com/mmynk/weighttrack/internal/storage/sqlite"
)

// openStore opens the configured backend, wraps it with the optional read
// cache and instrumentation, and returns it together with the legacy
// migration shim reading from the data directory.
func openStore(cfg *config.Config, m *metrics.Metrics) (storage.Store, *migrate.Shim, error) {
	var (
		store storage.Store
		err   error
	)
	switch cfg.Storage.Backend {
	case config.BackendFile:
		files := filestore.NewOS(cfg.DataDir)
		if err := files.EnsureDirectories(); err != nil {
			return nil, nil, err
		}
		store = files
	case config.BackendSQLite:
		store, err = sqlite.New(cfg.Storage.SQLitePath)
	case config.BackendBadger:
		bcfg := badger.DefaultConfig(cfg.Storage.BadgerPath)
		bcfg.Logger = slog.Default().With("component", "badger")
		store, err = badger.Open(bcfg)
	default:
		err = fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	slog.Info("Storage initialized", "backend", cfg.Storage.Backend)

	if cfg.Storage.CacheTTL > 0 {
		store = cached.New(store, cfg.Storage.CacheTTL)
		slog.Debug("Read cache enabled", "ttl", cfg.Storage.CacheTTL)
	}
	store = metrics.InstrumentStore(store, cfg.Storage.Backend, m)

	shim := migrate.New(afero.NewOsFs(), cfg.DataDir, store, migrate.WithMetrics(m))
	return store, shim, nil
}
