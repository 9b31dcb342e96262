package index

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/readmana/internal/record"
	"github.com/starford/readmana/internal/storage"
)

// Event kinds passed to EventCallback.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

// EventCallback is called after a watcher-driven index change.
// kind is one of EventCreated, EventUpdated, EventDeleted.
type EventCallback func(kind string, path string)

const reconcileDelay = 200 * time.Millisecond

// Watch starts an fsnotify watcher on every source directory and processes
// record file changes until ctx is cancelled. It calls cb (if non-nil) after
// each successful index mutation.
//
// Source directories are watched non-recursively, matching how the catalog
// scans them. Rename events trigger a reconciliation pass over all sources,
// which also picks up files moved between the record and archive directories.
func Watch(ctx context.Context, db *DB, sources []Source, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	byDir := make(map[string]Source, len(sources))
	for _, src := range sources {
		if err := w.Add(src.Store.Root()); err != nil {
			return err
		}
		byDir[src.Store.Root()] = src
		logger.Info("watcher: started", slog.String("root", src.Store.Root()), slog.Bool("archived", src.Archived))
	}

	// reconcileTimer is used to debounce rename reconciliation.
	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(reconcileDelay)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(reconcileDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			for _, src := range sources {
				reconcile(db, src, logger, cb)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			absPath := ev.Name
			src, known := byDir[filepath.Dir(absPath)]
			if !known || !storage.HasExt(absPath, record.Extension) {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				kind, err := indexPath(db, src, absPath)
				if err != nil {
					if errors.Is(err, os.ErrNotExist) {
						continue
					}
					logger.Warn("watcher: index failed", slog.String("path", absPath), slog.String("error", err.Error()))
					continue
				}
				if ev.Op&fsnotify.Create != 0 {
					kind = EventCreated
				}
				logger.Debug("watcher: indexed", slog.String("path", absPath), slog.String("op", kind))
				if cb != nil {
					cb(kind, absPath)
				}

			case ev.Op&fsnotify.Remove != 0:
				if delErr := db.DeleteRecord(absPath); delErr != nil {
					logger.Warn("watcher: delete failed", slog.String("path", absPath), slog.String("error", delErr.Error()))
					continue
				}
				logger.Debug("watcher: deleted", slog.String("path", absPath))
				if cb != nil {
					cb(EventDeleted, absPath)
				}

			case ev.Op&fsnotify.Rename != 0:
				// fsnotify fires Rename on the OLD path only. The new
				// path arrives as a separate Create event when it stays in
				// a watched directory.
				if delErr := db.DeleteRecord(absPath); delErr != nil {
					logger.Warn("watcher: rename delete failed", slog.String("path", absPath), slog.String("error", delErr.Error()))
				} else {
					logger.Debug("watcher: rename old deleted", slog.String("path", absPath))
					if cb != nil {
						cb(EventDeleted, absPath)
					}
				}
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// indexPath reads one record file and upserts it. The returned kind tells
// whether the row was new or replaced.
func indexPath(db *DB, src Source, absPath string) (string, error) {
	rel, err := filepath.Rel(src.Store.Root(), absPath)
	if err != nil {
		return "", err
	}
	data, err := src.Store.Read(rel)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return "", err
	}
	prev, err := db.GetChecksum(absPath)
	if err != nil {
		return "", err
	}
	if err := indexFile(db, src, absPath, data, info.ModTime()); err != nil {
		return "", err
	}
	if prev == "" {
		return EventCreated, nil
	}
	return EventUpdated, nil
}

// reconcile does a lightweight sync of one source using batch lookups:
// finds index entries without a corresponding file on disk and removes them,
// and finds on-disk files that are not indexed (or changed) and indexes them.
func reconcile(db *DB, src Source, logger *slog.Logger, cb EventCallback) {
	checksums, err := db.AllChecksums(src.Archived)
	if err != nil {
		logger.Warn("reconcile: all checksums failed", slog.String("error", err.Error()))
		return
	}

	metas, err := src.Store.List(record.Extension)
	if err != nil {
		logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]storage.FileInfo, len(metas))
	for _, m := range metas {
		abs, err := src.Store.Abs(m.Path)
		if err != nil {
			continue
		}
		disk[abs] = m
	}

	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if delErr := db.DeleteRecord(p); delErr == nil {
				logger.Debug("reconcile: removed stale", slog.String("path", p))
				if cb != nil {
					cb(EventDeleted, p)
				}
			}
		}
	}

	for p, m := range disk {
		if checksums[p] == m.Checksum {
			continue
		}
		data, readErr := src.Store.Read(m.Path)
		if readErr != nil {
			continue
		}
		if idxErr := indexFile(db, src, p, data, m.UpdatedAt); idxErr == nil {
			logger.Debug("reconcile: indexed", slog.String("path", p))
			if cb != nil {
				cb(EventCreated, p)
			}
		}
	}
}
