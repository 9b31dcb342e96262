// Package internal wires the catalog, the search index and logging into the
// long-running parts of the application.
package internal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/starford/readmana/internal/index"
	"github.com/starford/readmana/internal/storage"
)

// NewLogger returns a structured JSON logger writing to w.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

// OpenIndex opens the search index named by cfg and syncs it with the record
// and archive directories.
func OpenIndex(cfg *Config, logger *slog.Logger) (*index.DB, []index.Source, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("index config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.IndexPath), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create index dir: %w", err)
	}

	records, err := storage.NewFS(cfg.RecordDir)
	if err != nil {
		return nil, nil, fmt.Errorf("init storage: %w", err)
	}
	archive, err := storage.NewFS(cfg.ArchiveDir)
	if err != nil {
		return nil, nil, fmt.Errorf("init storage: %w", err)
	}
	sources := []index.Source{
		{Store: records},
		{Store: archive, Archived: true},
	}

	db, err := index.Open(cfg.IndexPath)
	if err != nil {
		return nil, nil, fmt.Errorf("init index: %w", err)
	}

	for _, src := range sources {
		if err := index.Sync(db, src, logger); err != nil {
			logger.Warn("initial sync failed",
				slog.String("root", src.Store.Root()),
				slog.String("error", err.Error()))
		}
	}
	return db, sources, nil
}

// Run keeps the search index in step with the record directories until ctx
// is cancelled or the process receives SIGINT or SIGTERM.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	if app.logger == nil {
		app.logger = slog.Default()
	}

	cfg := app.config
	logger := app.logger

	logger.Info("Configuration loaded",
		slog.String("record_dir", cfg.RecordDir),
		slog.String("archive_dir", cfg.ArchiveDir),
		slog.String("index_path", cfg.IndexPath),
		slog.String("log_level", cfg.LogLevel.String()))

	db, sources, err := OpenIndex(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)

	// Start file watcher.
	g.Go(func() error {
		defer cancel()
		return index.Watch(gCtx, db, sources, logger, app.onEvent)
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
			cancel()
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Watcher stopped successfully")
	return nil
}
