// Package app provides the application context and dependency wiring
// for the openshelf CLI: configuration, logging, and lazy construction
// of the import pipeline and its catalog store.
package app

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/openshelf/openshelf"
	"github.com/openshelf/openshelf/pkg/errors"
	"github.com/openshelf/openshelf/pkg/store"
	"github.com/openshelf/openshelf/pkg/store/memory"
	"github.com/openshelf/openshelf/pkg/store/postgres"
)

// App holds the CLI's dependencies.
type App struct {
	version string
	commit  string
	date    string

	config *Config
	logger *zerolog.Logger

	mu    sync.Mutex
	store store.Store
	shelf openshelf.Openshelf
}

// New creates an App with the given version information, loading
// configuration from env, .env files and the config file.
func New(version, commit, date string) (*App, error) {
	config, err := LoadConfig()
	if err != nil {
		return nil, errors.NewConfigError("app", "loading configuration", err)
	}

	logger := NewLogger(config)
	return &App{
		version: version,
		commit:  commit,
		date:    date,
		config:  config,
		logger:  &logger,
	}, nil
}

// Version returns the version string.
func (a *App) Version() string { return a.version }

// Commit returns the git commit hash.
func (a *App) Commit() string { return a.commit }

// Date returns the build date.
func (a *App) Date() string { return a.date }

// Config returns the application configuration.
func (a *App) Config() *Config { return a.config }

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger { return a.logger }

// Openshelf returns the import pipeline, creating it and its store
// lazily. Thread-safe; only one instance is ever created.
func (a *App) Openshelf(ctx context.Context) (openshelf.Openshelf, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.shelf != nil {
		return a.shelf, nil
	}

	s, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	shelf, err := openshelf.New(
		openshelf.WithStore(s),
		openshelf.WithLogger(a.logger),
	)
	if err != nil {
		return nil, err
	}
	a.store = s
	a.shelf = shelf
	return shelf, nil
}

// openStore selects the catalog backend: --store-dsn wins, then
// --store-file, then an empty in-memory catalog.
func (a *App) openStore(ctx context.Context) (store.Store, error) {
	if a.config.StoreDSN != "" {
		s, err := postgres.New(ctx, a.config.StoreDSN)
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, s); err != nil {
			postgres.Close(s)
			return nil, err
		}
		return s, nil
	}
	if a.config.StoreFile != "" {
		data, err := os.ReadFile(a.config.StoreFile)
		if err != nil {
			return nil, errors.WrapIO("read", a.config.StoreFile, err)
		}
		return memory.New(memory.WithSnapshot(data))
	}
	return memory.New()
}

// Shutdown persists the memory store back to --store-file when one was
// loaded, and releases database connections.
func (a *App) Shutdown() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.store == nil {
		return
	}
	if a.config.StoreDSN != "" {
		postgres.Close(a.store)
		return
	}
	if a.config.StoreFile != "" {
		data, err := memory.Snapshot(a.store)
		if err != nil {
			a.logger.Error().Err(err).Msg("snapshot failed")
			return
		}
		if err := os.WriteFile(a.config.StoreFile, data, 0o644); err != nil {
			a.logger.Error().Err(err).Str("path", a.config.StoreFile).Msg("writing store file failed")
		}
	}
}

// ExitOnError prints the error to stderr and exits with status 1.
func ExitOnError(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
