package internal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/starford/letterbox/internal/letters"
	"github.com/starford/letterbox/internal/storage"
)

// openStore opens the configured backend. The returned close function is
// never nil.
func openStore(cfg StorageConfig) (storage.Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Driver {
	case DriverMemory:
		return storage.NewMemory(), noop, nil

	case DriverSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, noop, fmt.Errorf("create sqlite dir: %w", err)
		}
		db, err := storage.OpenSQLite(cfg.Path)
		if err != nil {
			return nil, noop, fmt.Errorf("init sqlite store: %w", err)
		}
		return db, db.Close, nil

	case DriverFS:
		if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
			return nil, noop, fmt.Errorf("create store dir: %w", err)
		}
		fs, err := storage.NewFS(cfg.Path)
		if err != nil {
			return nil, noop, fmt.Errorf("init fs store: %w", err)
		}
		return fs, noop, nil
	}
	return nil, noop, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}

// setup resolves the store (configured or injected) and loads the letters.
func (a *application) setup(logger *slog.Logger) (storage.Store, *letters.Repository, func() error, error) {
	cfg := a.config

	base, closeStore := a.store, func() error { return nil }
	if base == nil {
		var err error
		base, closeStore, err = openStore(cfg.Storage)
		if err != nil {
			return nil, nil, closeStore, err
		}
	}

	adapter := storage.NewLetterAdapter(storage.NewQuota(base, cfg.Storage.QuotaBytes), cfg.Letters.StorageKey)
	repo, err := letters.New(adapter,
		letters.WithDateLayout(cfg.Letters.DateLayout),
		letters.WithLogger(logger),
	)
	if err != nil {
		_ = closeStore()
		return nil, nil, func() error { return nil }, fmt.Errorf("load letters: %w", err)
	}

	logger.Info("Letters loaded",
		slog.String("key", adapter.Key()),
		slog.Int("count", repo.Count()))

	return base, repo, closeStore, nil
}
