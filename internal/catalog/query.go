package catalog

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/starford/readmana/internal/apperr"
	"github.com/starford/readmana/internal/record"
	"github.com/starford/readmana/internal/storage"
)

// NotePrefix marks a note location relative to the note directory.
const NotePrefix = "-/"

// FileState describes an optional file reference.
type FileState int

// File states.
const (
	FileAbsent  FileState = iota // reference not set
	FilePresent                  // set and the file exists
	FileMissing                  // set but nothing on disk
)

func (s FileState) String() string {
	switch s {
	case FilePresent:
		return "present"
	case FileMissing:
		return "missing"
	default:
		return "absent"
	}
}

// AggregateValues returns the value of key for every active record, with
// record.Absent where a record lacks it. For "tag" it returns the
// case-insensitive union of all tags instead.
func (c *Catalog) AggregateValues(key string) ([]any, error) {
	switch key {
	case record.KeyLog, record.KeyRemark:
		return nil, fmt.Errorf("catalog: aggregate %q: %w", key, apperr.ErrKeyNotSupported)
	case record.KeyTag:
		tags := c.AllTags()
		out := make([]any, len(tags))
		for i, t := range tags {
			out[i] = t
		}
		return out, nil
	}

	out := make([]any, len(c.active))
	for i, r := range c.active {
		v, ok := r.Get(key)
		if !ok {
			out[i] = record.Absent
			continue
		}
		out[i] = v
	}
	return out, nil
}

// AllTags returns the union of active record tags, first-seen casing, in
// list order.
func (c *Catalog) AllTags() []string {
	var all []string
	for _, r := range c.active {
		all = append(all, r.Tags()...)
	}
	return record.NewTagList(all...).Values()
}

// ProgressAll computes progress for every active record, in list order.
func (c *Catalog) ProgressAll() ([]record.Progress, error) {
	out := make([]record.Progress, len(c.active))
	for i, r := range c.active {
		p, err := r.ComputeProgress()
		if err != nil {
			return nil, fmt.Errorf("catalog: progress of %s: %w", r.Path(), err)
		}
		out[i] = p
	}
	return out, nil
}

// NotePath resolves the note file of the active record at index i. The
// boolean is false when the record has no note location or type.
func (c *Catalog) NotePath(i int) (string, bool, error) {
	r, err := c.Record(i)
	if err != nil {
		return "", false, err
	}
	p, ok := c.NotePathOf(r)
	return p, ok, nil
}

// NotePathOf resolves the note file of any record, active or archived.
func (c *Catalog) NotePathOf(r *record.Record) (string, bool) {
	loc, ok := r.NoteLocation()
	if !ok {
		return "", false
	}
	typ, ok := r.NoteType()
	if !ok {
		return "", false
	}
	p := filepath.Join(expandUser(loc), filepath.Base(loc)) + "." + typ
	if rest, found := strings.CutPrefix(filepath.ToSlash(p), NotePrefix); found {
		p = filepath.Join(c.noteDir, filepath.FromSlash(rest))
	}
	return p, true
}

// SourcePath returns the local source of the active record at index i.
func (c *Catalog) SourcePath(i int) (string, bool, error) {
	r, err := c.Record(i)
	if err != nil {
		return "", false, err
	}
	p, ok := SourcePathOf(r)
	return p, ok, nil
}

// SourcePathOf returns the local source of r with "~" expanded.
func SourcePathOf(r *record.Record) (string, bool) {
	src, ok := r.Source()
	if !ok {
		return "", false
	}
	return expandUser(src), true
}

// NoteAndSourceState reports whether the note and local source of the
// active record at index i are set and present on disk.
func (c *Catalog) NoteAndSourceState(i int) (FileState, FileState, error) {
	r, err := c.Record(i)
	if err != nil {
		return FileAbsent, FileAbsent, err
	}
	note, src := c.FileStates(r)
	return note, src, nil
}

// FileStates reports the note and source state of any record.
func (c *Catalog) FileStates(r *record.Record) (note, source FileState) {
	notePath, hasNote := c.NotePathOf(r)
	srcPath, hasSrc := SourcePathOf(r)
	return stateOf(notePath, hasNote), stateOf(srcPath, hasSrc)
}

func stateOf(path string, set bool) FileState {
	switch {
	case !set:
		return FileAbsent
	case storage.FileExists(path):
		return FilePresent
	default:
		return FileMissing
	}
}
