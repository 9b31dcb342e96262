// Package record implements a single library item: its schema-enforced tag
// set, dirty tracking, progress arithmetic and backup-safe persistence.
//
// A Record is not safe for concurrent use.
package record

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"time"

	"github.com/starford/readmana/internal/apperr"
	"github.com/starford/readmana/internal/storage"
)

// Layouts used for stored dates and timestamps.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "2006-01-02 15:04:05"
)

// Extension is the file extension of record documents.
const Extension = ".json"

// Absent marks a key that a record does not carry, where a value slot is required.
var Absent = absentValue{} //nolint:gochecknoglobals // sentinel

type absentValue struct{}

func (absentValue) String() string { return "<absent>" }

// Record is one library item backed by a file.
type Record struct {
	path  string
	tags  Tags
	dirty bool
	clock func() time.Time
}

// Option configures a Record.
type Option func(*Record)

// WithClock sets the source of "now" used for dates and timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Record) {
		if now != nil {
			r.clock = now
		}
	}
}

func newRecord(path string, opts []Option) (*Record, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("record: resolve %s: %w", path, err)
	}
	r := &Record{path: abs, clock: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Load reads the record stored at path. Missing required keys are filled
// from the schema defaults, which leaves the record dirty.
func Load(path string, opts ...Option) (*Record, error) {
	r, err := newRecord(path, opts)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("record: load %s: %w", r.path, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("record: load %s: %w", r.path, err)
	}
	tags, filled, err := decodeTags(data)
	if err != nil {
		return nil, fmt.Errorf("record: load %s: %w", r.path, err)
	}
	r.tags = tags
	r.dirty = filled
	return r, nil
}

// CreateNew starts a record for a path that must not exist yet. Nothing is
// written until Persist.
func CreateNew(path string, opts ...Option) (*Record, error) {
	r, err := newRecord(path, opts)
	if err != nil {
		return nil, err
	}
	if _, err := os.Lstat(r.path); err == nil {
		return nil, fmt.Errorf("record: create %s: %w", r.path, apperr.ErrAlreadyExists)
	}
	r.tags = DefaultTags()
	r.dirty = true
	return r, nil
}

// Path returns the absolute path of the backing file.
func (r *Record) Path() string { return r.path }

// Relocate changes the backing path after the file was moved externally.
func (r *Record) Relocate(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("record: relocate %s: %w", path, err)
	}
	r.path = abs
	return nil
}

// Dirty reports whether the tag set differs from the file.
func (r *Record) Dirty() bool { return r.dirty }

// Has reports whether key is present.
func (r *Record) Has(key string) bool {
	_, ok := r.tags.value(key)
	return ok
}

// Get returns a copy of the value stored under key. The boolean is false
// when the key is absent. A present null value is returned as nil.
func (r *Record) Get(key string) (any, bool) {
	return r.tags.value(key)
}

// Snapshot returns a deep copy of the tag set.
func (r *Record) Snapshot() Tags { return r.tags.Clone() }

// Set replaces the value of an existing key. Setting an equal value is a
// no-op. Otherwise the record becomes dirty and timeLastMod is stamped,
// except when the key is one of the timestamps itself.
func (r *Record) Set(key string, value any) error {
	switch key {
	case KeyLog, KeyTag, KeyRemark:
		return fmt.Errorf("record: set %q: use the dedicated update: %w", key, apperr.ErrKeyNotSupported)
	}
	changed, err := r.assign(key, value)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	r.dirty = true
	if key != KeyTimeLastMod && key != KeyTimeLastRead {
		r.touch()
	}
	return nil
}

func (r *Record) assign(key string, value any) (bool, error) {
	if f, ok := r.tags.stringField(key); ok {
		var next *string
		switch v := value.(type) {
		case nil:
			if key == KeyDateAdded || key == KeyDatePlan {
				return false, fmt.Errorf("record: set %q: date cannot be null: %w", key, apperr.ErrValidation)
			}
		case string:
			next = &v
		default:
			return false, fmt.Errorf("record: set %q: want string, got %T: %w", key, value, apperr.ErrValidation)
		}
		if (*f == nil && next == nil) || (*f != nil && next != nil && **f == *next) {
			return false, nil
		}
		*f = next
		return true, nil
	}

	if f, ok := r.tags.intField(key); ok {
		n, ok := toInt(value)
		if !ok {
			return false, fmt.Errorf("record: set %q: want integer, got %T: %w", key, value, apperr.ErrValidation)
		}
		if err := r.checkPages(key, n); err != nil {
			return false, err
		}
		if *f == n {
			return false, nil
		}
		*f = n
		return true, nil
	}

	old, ok := r.tags.Extra[key]
	if !ok {
		return false, fmt.Errorf("record: set %q: %w", key, apperr.ErrKeyNotFound)
	}
	if n, isInt := toInt(value); isInt {
		value = n
	}
	if reflect.DeepEqual(old, value) {
		return false, nil
	}
	r.tags.Extra[key] = cloneValue(value)
	return true, nil
}

// checkPages enforces 0 ≤ pageCurrent ≤ pageTotal.
func (r *Record) checkPages(key string, n int) error {
	switch key {
	case KeyPageCurrent:
		if n < 0 || n > r.tags.PageTotal {
			return fmt.Errorf("record: pageCurrent %d outside [0, %d]: %w", n, r.tags.PageTotal, apperr.ErrValidation)
		}
	case KeyPageTotal:
		if n < 0 {
			return fmt.Errorf("record: pageTotal %d is negative: %w", n, apperr.ErrValidation)
		}
		if n < r.tags.PageCurrent {
			return fmt.Errorf("record: pageTotal %d below pageCurrent %d: %w", n, r.tags.PageCurrent, apperr.ErrValidation)
		}
	}
	return nil
}

// Add inserts a key that is not present yet.
func (r *Record) Add(key string, value any) error {
	if r.Has(key) {
		return fmt.Errorf("record: add %q: %w", key, apperr.ErrDuplicateKey)
	}
	if key == "" {
		return fmt.Errorf("record: add: empty key: %w", apperr.ErrValidation)
	}
	if n, isInt := toInt(value); isInt {
		value = n
	}
	if r.tags.Extra == nil {
		r.tags.Extra = map[string]any{}
	}
	r.tags.Extra[key] = cloneValue(value)
	r.dirty = true
	return nil
}

// Title returns the title, or "" when unset.
func (r *Record) Title() string { return deref(r.tags.Title) }

// DisplayTitle returns titleShort when short is set and a short title exists.
func (r *Record) DisplayTitle(short bool) string {
	if short {
		if s, ok := r.tags.Extra[KeyTitleShort].(string); ok && s != "" {
			return s
		}
	}
	return r.Title()
}

// Author returns the author, or "" when unset.
func (r *Record) Author() string { return deref(r.tags.Author) }

// PageTotal returns the total page count.
func (r *Record) PageTotal() int { return r.tags.PageTotal }

// PageCurrent returns the current page.
func (r *Record) PageCurrent() int { return r.tags.PageCurrent }

// NoteLocation returns the note directory and whether it is set.
func (r *Record) NoteLocation() (string, bool) {
	return deref(r.tags.NoteLocation), r.tags.NoteLocation != nil
}

// NoteType returns the note file extension and whether it is set.
func (r *Record) NoteType() (string, bool) {
	return deref(r.tags.NoteType), r.tags.NoteType != nil
}

// Source returns the local source file path and whether it is set.
func (r *Record) Source() (string, bool) {
	return deref(r.tags.BookLocalSource), r.tags.BookLocalSource != nil
}

// SourceExt returns the lower-cased extension of the local source without
// the dot, or "" when there is none.
func (r *Record) SourceExt() string {
	src, ok := r.Source()
	if !ok {
		return ""
	}
	ext := filepath.Ext(src)
	if ext == "" {
		return ""
	}
	return Fold(ext[1:])
}

// Tags returns the labels in display form.
func (r *Record) Tags() []string { return r.tags.Tag.Values() }

// HasTag reports whether the record carries name, ignoring case.
func (r *Record) HasTag(name string) bool { return r.tags.Tag.Contains(name) }

// TimeLastMod parses the last-modified stamp.
func (r *Record) TimeLastMod() (time.Time, bool) { return parseStamp(r.tags.TimeLastMod) }

// TimeLastRead parses the last-read stamp.
func (r *Record) TimeLastRead() (time.Time, bool) { return parseStamp(r.tags.TimeLastRead) }

func parseStamp(p *string) (time.Time, bool) {
	if p == nil {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(TimeLayout, *p, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func (r *Record) now() time.Time { return r.clock() }

func (r *Record) today() string { return r.now().Format(DateLayout) }

func (r *Record) touch() {
	r.tags.TimeLastMod = ptr(r.now().Format(TimeLayout))
}

// Persist writes the record when dirty. An existing file is first copied to
// the backup path unless overwrite is set.
func (r *Record) Persist(overwrite bool) error {
	if !r.dirty {
		return nil
	}
	data, err := encodeTags(r.tags)
	if err != nil {
		return fmt.Errorf("record: encode %s: %w", r.path, err)
	}
	if !overwrite && storage.FileExists(r.path) {
		if err := storage.CopyFile(r.path, BackupPath(r.path)); err != nil {
			return fmt.Errorf("record: backup %s: %w", r.path, err)
		}
	}
	if err := storage.WriteFile(r.path, data); err != nil {
		return fmt.Errorf("record: persist %s: %w", r.path, err)
	}
	r.dirty = false
	return nil
}

// BackupSuffix is appended to a record path to name its single backup copy.
const BackupSuffix = "_bak"

// BackupPath returns the backup location for a record file.
func BackupPath(path string) string { return path + BackupSuffix }
