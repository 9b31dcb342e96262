// Package catalog keeps the in-memory view of a record directory and its
// archive: scanning, ordering, aggregate queries and archiving.
//
// A Catalog is not safe for concurrent use.
package catalog

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/starford/readmana/internal/apperr"
	"github.com/starford/readmana/internal/record"
	"github.com/starford/readmana/internal/storage"
)

// Catalog holds the active and archived records of one library.
type Catalog struct {
	cfg      *Config
	noteDir  string
	records  *storage.FS
	archive  *storage.FS
	active   []*record.Record
	archived []*record.Record
	logger   *slog.Logger
	clock    func() time.Time
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Catalog) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock sets the clock handed to every record the catalog builds.
func WithClock(now func() time.Time) Option {
	return func(c *Catalog) {
		c.clock = now
	}
}

// Load reads the configuration at configPath and opens the catalog.
func Load(configPath string, opts ...Option) (*Catalog, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	return Open(cfg, opts...)
}

// Open builds a catalog from a resolved configuration, creating the archive
// directory when needed, and scans both directories. Unreadable record files
// are logged and left out.
func Open(cfg *Config, opts ...Option) (*Catalog, error) {
	if cfg == nil {
		return nil, fmt.Errorf("catalog: open: %w", apperr.ErrSchema)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("catalog: open: %w", err)
	}

	c := &Catalog{cfg: cfg, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}

	if err := requireDir(cfg.NoteDir); err != nil {
		return nil, fmt.Errorf("catalog: note dir: %w", err)
	}
	noteDir, err := filepath.Abs(cfg.NoteDir)
	if err != nil {
		return nil, fmt.Errorf("catalog: note dir: %w", err)
	}
	c.noteDir = noteDir
	if err := requireDir(cfg.RecordDir); err != nil {
		return nil, fmt.Errorf("catalog: record dir: %w", err)
	}
	if err := os.MkdirAll(cfg.ArchiveDir, 0o755); err != nil {
		return nil, fmt.Errorf("catalog: create archive dir: %w", err)
	}

	if c.records, err = storage.NewFS(cfg.RecordDir); err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	if c.archive, err = storage.NewFS(cfg.ArchiveDir); err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}

	if err := c.Scan(); err != nil {
		c.logger.Warn("some records could not be loaded", slog.String("error", err.Error()))
	}

	c.logger.Debug("catalog opened",
		slog.String("record_dir", c.records.Root()),
		slog.String("archive_dir", c.archive.Root()),
		slog.Int("active", len(c.active)),
		slog.Int("archived", len(c.archived)))
	return c, nil
}

func requireDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s: %w", path, apperr.ErrNotFound)
		}
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory: %w", path, apperr.ErrNotFound)
	}
	return nil
}

func (c *Catalog) recordOptions() []record.Option {
	if c.clock == nil {
		return nil
	}
	return []record.Option{record.WithClock(c.clock)}
}

// Scan rebuilds both lists from disk, discarding unpersisted edits, and
// applies the default ordering. Files that disappear while scanning are
// skipped. Malformed files are skipped too and reported in the returned
// error; the records that did load are kept.
func (c *Catalog) Scan() error {
	active, errActive := c.loadDir(c.records)
	archived, errArchived := c.loadDir(c.archive)
	c.active, c.archived = active, archived
	c.sort(SortModified)
	return errors.Join(errActive, errArchived)
}

func (c *Catalog) loadDir(store *storage.FS) ([]*record.Record, error) {
	files, err := store.List(record.Extension)
	if err != nil {
		return nil, fmt.Errorf("catalog: scan %s: %w", store.Root(), err)
	}

	out := make([]*record.Record, 0, len(files))
	var errs []error
	for _, f := range files {
		abs, err := store.Abs(f.Path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		r, err := record.Load(abs, c.recordOptions()...)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				c.logger.Debug("record vanished during scan", slog.String("path", abs))
				continue
			}
			errs = append(errs, err)
			continue
		}
		out = append(out, r)
	}
	return out, errors.Join(errs...)
}

// Active returns the active records in display order.
func (c *Catalog) Active() []*record.Record { return slices.Clone(c.active) }

// Archived returns the archived records in display order.
func (c *Catalog) Archived() []*record.Record { return slices.Clone(c.archived) }

// Record returns the active record at index i.
func (c *Catalog) Record(i int) (*record.Record, error) {
	return at(c.active, i)
}

// ArchivedRecord returns the archived record at index i.
func (c *Catalog) ArchivedRecord(i int) (*record.Record, error) {
	return at(c.archived, i)
}

func at(list []*record.Record, i int) (*record.Record, error) {
	if i < 0 || i >= len(list) {
		return nil, fmt.Errorf("catalog: index %d out of range [0,%d): %w", i, len(list), apperr.ErrValidation)
	}
	return list[i], nil
}

// AddNew appends r to the active list.
func (c *Catalog) AddNew(r *record.Record) error {
	if r == nil {
		return fmt.Errorf("catalog: add: nil record: %w", apperr.ErrValidation)
	}
	if c.contains(r.Path()) {
		return fmt.Errorf("catalog: add %s: %w", r.Path(), apperr.ErrDuplicateKey)
	}
	c.active = append(c.active, r)
	return nil
}

func (c *Catalog) contains(path string) bool {
	match := func(r *record.Record) bool { return r.Path() == path }
	return slices.ContainsFunc(c.active, match) || slices.ContainsFunc(c.archived, match)
}

// CreateRecord starts a record named name in the record directory, dated
// today, and appends it to the active list. The extension is added when
// missing. Nothing is written until the record is persisted.
func (c *Catalog) CreateRecord(name string) (*record.Record, error) {
	name = strings.TrimSpace(name)
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return nil, fmt.Errorf("catalog: create: invalid name %q: %w", name, apperr.ErrValidation)
	}
	if !storage.HasExt(name, record.Extension) {
		name += record.Extension
	}
	abs, err := c.records.Abs(name)
	if err != nil {
		return nil, fmt.Errorf("catalog: create: %w", err)
	}

	r, err := record.CreateNew(abs, c.recordOptions()...)
	if err != nil {
		return nil, fmt.Errorf("catalog: create: %w", err)
	}
	if _, err := r.UpdateDate(record.DateAdded, ""); err != nil {
		return nil, fmt.Errorf("catalog: create: %w", err)
	}
	if err := c.AddNew(r); err != nil {
		return nil, err
	}
	return r, nil
}

// PersistAll writes every dirty record, active and archived.
func (c *Catalog) PersistAll() error {
	var errs []error
	for _, list := range [][]*record.Record{c.active, c.archived} {
		for _, r := range list {
			if err := r.Persist(false); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Refresh persists all records and rescans.
func (c *Catalog) Refresh() error {
	if err := c.PersistAll(); err != nil {
		return fmt.Errorf("catalog: refresh: %w", err)
	}
	return c.Scan()
}

// Config returns the resolved configuration.
func (c *Catalog) Config() Config { return *c.cfg }

// Openers returns the extension to opener mapping. An empty application
// means the OS default.
func (c *Catalog) Openers() map[string]string {
	out := make(map[string]string, len(c.cfg.Openers))
	for k, v := range c.cfg.Openers {
		out[k] = v
	}
	return out
}

// Opener returns the application configured for ext, or "".
func (c *Catalog) Opener(ext string) string {
	return c.cfg.Openers[normalizeExt(ext)]
}

// NoteDir returns the note root.
func (c *Catalog) NoteDir() string { return c.noteDir }

// RecordDir returns the active record directory.
func (c *Catalog) RecordDir() string { return c.records.Root() }

// ArchiveDir returns the archive directory.
func (c *Catalog) ArchiveDir() string { return c.archive.Root() }
