// Package app wires the engine together: config, store, clipboard backend,
// watcher and controller are constructed once here and passed by reference.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"clipvault/internal/clipboard"
	"clipvault/internal/config"
	"clipvault/internal/database"
	"clipvault/internal/history"
)

// Version is set at build time via -ldflags "-X clipvault/internal/app.Version=x.y.z".
var Version = "dev"

// App is the clipboard-history engine: everything behind the presentation
// layer's read/fetch/action contract.
type App struct {
	cfg        *config.Config
	repository *database.Repository
	backend    clipboard.Backend
	watcher    *clipboard.Watcher
	controller *history.Controller
}

// New builds the engine on the system clipboard backend.
func New(cfg *config.Config) (*App, error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	backend, err := clipboard.NewSystemBackend(cfg.PollInterval())
	if err != nil {
		return nil, err
	}
	return NewWithBackend(cfg, backend)
}

// NewWithBackend builds the engine on an explicit backend, letting tests and
// headless runs substitute a fake clipboard.
func NewWithBackend(cfg *config.Config, backend clipboard.Backend) (*App, error) {
	repository, err := database.NewRepository(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	watcher := clipboard.NewWatcher(backend, cfg.PollInterval(), cfg.MaxItemSize)
	writer := clipboard.NewWriter(backend, watcher)
	controller := history.NewController(repository, writer, cfg.PageSize)

	return &App{
		cfg:        cfg,
		repository: repository,
		backend:    backend,
		watcher:    watcher,
		controller: controller,
	}, nil
}

// Controller exposes the external contract for the presentation layer.
func (a *App) Controller() *history.Controller {
	return a.controller
}

// Run starts the watcher and consumes captures until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	defer a.cleanup()

	if err := a.watcher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start clipboard watcher: %w", err)
	}

	if err := a.controller.ResetPagination(ctx); err != nil {
		slog.Warn("initial page load failed", "err", err)
	}

	go a.retentionLoop(ctx)

	slog.Info("clipvault started", "version", Version, "db", a.cfg.DatabasePath())

	a.controller.Run(ctx, a.watcher.Events())
	return nil
}

// SaveConfig writes the effective config back on first run so users have a
// file to edit.
func (a *App) SaveConfig() {
	path := filepath.Join(a.cfg.DataDir, "config.json")
	if _, err := os.Stat(path); err == nil {
		return
	}
	if err := a.cfg.Save(path); err != nil {
		slog.Warn("failed to save default config", "err", err)
	}
}

func (a *App) retentionLoop(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := a.repository.CleanupOldEntries(ctx, a.cfg.MaxHistoryDays, a.cfg.MaxHistoryItems)
			if err != nil {
				slog.Warn("retention sweep failed", "err", err)
			}
		}
	}
}

func (a *App) cleanup() {
	slog.Info("shutting down")
	a.backend.Close()
	if err := a.repository.Close(); err != nil {
		slog.Warn("failed to close database", "err", err)
	}
}
