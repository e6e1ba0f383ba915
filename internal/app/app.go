package app

import (
	"context"
	"fmt"
	"path/filepath"

	"dnsjumper/internal/config"
	"dnsjumper/internal/netconf"
	"dnsjumper/internal/paths"
	"dnsjumper/internal/profile"
	"dnsjumper/internal/storage"
	"dnsjumper/internal/storage/sqlite"
)

// App represents the application context
type App struct {
	Config   *config.Manager
	Profiles *profile.Store
	Storage  storage.Storage
	Applier  *netconf.Applier
	Flusher  *netconf.Flusher
}

// New creates a new application instance
func New() (*App, error) {
	configDir, err := paths.ConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config directory: %w", err)
	}
	dataDir, err := paths.DataDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory: %w", err)
	}

	cfg := config.NewManager(filepath.Join(configDir, "config.yaml"))
	if err := cfg.Load(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	profiles, err := profile.Open(filepath.Join(configDir, "profiles.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to load profiles: %w", err)
	}

	store, err := sqlite.New(filepath.Join(dataDir, "dnsjumper.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	configurator := netconf.NewNMCli()
	applier, err := netconf.NewApplier(context.Background(), configurator, store)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &App{
		Config:   cfg,
		Profiles: profiles,
		Storage:  store,
		Applier:  applier,
		Flusher:  netconf.NewFlusher(configurator),
	}, nil
}

// Close closes the application and releases resources
func (a *App) Close() error {
	if a.Storage != nil {
		return a.Storage.Close()
	}
	return nil
}
