package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/dori/tasksync/internal/config"
	"github.com/dori/tasksync/internal/engine"
	"github.com/dori/tasksync/internal/logging"
	"github.com/dori/tasksync/internal/remote"
	"github.com/dori/tasksync/internal/state"
	"github.com/dori/tasksync/internal/store"
	"github.com/dori/tasksync/internal/syncer"
)

// LockFileName is the single-instance lock in the data directory
const LockFileName = "tasksync.lock"

// ErrAlreadyRunning is returned when another process holds the data directory
var ErrAlreadyRunning = errors.New("another instance of tasksync is already running")

// App holds the application state and dependencies
type App struct {
	Config  *config.Config
	Store   store.Persistence
	Remote  *remote.Client
	Logger  *slog.Logger
	DataDir string

	lockFile *flock.Flock
	logFile  *os.File
}

// New creates a new application instance
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	dataDir, err := cfg.DataDir()
	if err != nil {
		return nil, err
	}

	// Ensure data directory exists
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	app := &App{
		Config:  cfg,
		DataDir: dataDir,
	}

	// Acquire lock to ensure single instance
	if err := app.acquireLock(); err != nil {
		return nil, err
	}

	logger, logFile, err := logging.OpenFile(dataDir, cfg.Log.Level)
	if err != nil {
		app.releaseLock()
		return nil, err
	}
	app.Logger = logger
	app.logFile = logFile

	persistence, err := store.Open(store.Options{
		Backend: cfg.Storage.Backend,
		DataDir: dataDir,
		Key:     cfg.Storage.Key,
	})
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	app.Store = persistence

	client, err := remote.NewClient(remote.Config{
		BaseURL: cfg.Server.URL,
		Timeout: cfg.Server.Timeout,
		Logger:  logger,
	})
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Remote = client

	logger.Info("tasksync started",
		"data_dir", dataDir,
		"backend", cfg.Storage.Backend,
		"key", cfg.Storage.Key,
		"server", client.TasksURL(),
		"interval", cfg.Sync.Interval)

	return app, nil
}

// LoadState builds the task list from the store. A missing list starts
// empty.
func (a *App) LoadState(ctx context.Context) (*state.State, error) {
	entries, ok, err := a.Store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load entries: %w", err)
	}
	if !ok {
		a.Logger.Info("no saved entries, starting empty", "key", a.Config.Storage.Key)
	}
	return state.New(entries), nil
}

// NewEngine wires the state, the sync controller and the store into an
// engine ready to run.
func (a *App) NewEngine(ctx context.Context) (*engine.Engine, error) {
	st, err := a.LoadState(ctx)
	if err != nil {
		return nil, err
	}

	ctrl := syncer.New(a.Remote,
		syncer.WithLogger(a.Logger),
		syncer.WithInterval(a.Config.Sync.Interval))

	opts := []engine.Option{engine.WithLogger(a.Logger)}
	if !a.Config.Sync.PullOnStart {
		opts = append(opts, engine.WithoutPull())
	}
	return engine.New(st, ctrl, a.Store, opts...), nil
}

// acquireLock acquires an exclusive file lock to prevent multiple instances
func (a *App) acquireLock() error {
	lockPath := filepath.Join(a.DataDir, LockFileName)
	a.lockFile = flock.New(lockPath)

	locked, err := a.lockFile.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}

	if !locked {
		return ErrAlreadyRunning
	}

	return nil
}

// releaseLock releases the file lock
func (a *App) releaseLock() {
	if a.lockFile != nil {
		a.lockFile.Unlock()
	}
}

// Close cleans up application resources
func (a *App) Close() error {
	var errs []error

	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close store: %w", err))
		}
	}

	a.releaseLock()

	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close log: %w", err))
		}
	}

	return errors.Join(errs...)
}
