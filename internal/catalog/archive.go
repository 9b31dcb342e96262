package catalog

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/starford/readmana/internal/apperr"
	"github.com/starford/readmana/internal/record"
	"github.com/starford/readmana/internal/storage"
)

// ArchiveOp is the direction of an Archive call.
type ArchiveOp string

// Archive directions.
const (
	OpArchive   ArchiveOp = "archive"   // active to archived
	OpUnarchive ArchiveOp = "unarchive" // archived to active
)

// Archive moves the records at indices between the active and archived
// lists and their directories. Indices refer to the active list for
// OpArchive and to the archived list for OpUnarchive. All indices are
// checked before any file moves; a record whose file does not exist is
// ErrNotFound. Moved records keep their relative order and
// are appended to the target list. If a move fails, the records moved so far
// stay moved and the error is returned.
func (c *Catalog) Archive(indices []int, op ArchiveOp) error {
	var (
		src, dst *[]*record.Record
		from, to *storage.FS
	)
	switch op {
	case OpArchive:
		src, dst, from, to = &c.active, &c.archived, c.records, c.archive
	case OpUnarchive:
		src, dst, from, to = &c.archived, &c.active, c.archive, c.records
	default:
		return fmt.Errorf("catalog: archive op %q: %w", op, apperr.ErrKeyNotSupported)
	}

	picked := slices.Clone(indices)
	slices.Sort(picked)
	picked = slices.Compact(picked)
	for _, i := range picked {
		r, err := at(*src, i)
		if err != nil {
			return fmt.Errorf("catalog: %s: %w", op, err)
		}
		if !storage.FileExists(r.Path()) {
			return fmt.Errorf("catalog: %s: record file %s: %w", op, r.Path(), apperr.ErrNotFound)
		}
	}

	moved := make(map[int]bool, len(picked))
	var moveErr error
	for _, i := range picked {
		r := (*src)[i]
		if err := c.move(r, from, to); err != nil {
			moveErr = fmt.Errorf("catalog: %s: %w", op, err)
			break
		}
		moved[i] = true
	}

	kept := (*src)[:0:0]
	for i, r := range *src {
		if moved[i] {
			*dst = append(*dst, r)
			continue
		}
		kept = append(kept, r)
	}
	*src = kept
	return moveErr
}

func (c *Catalog) move(r *record.Record, from, to *storage.FS) error {
	rel, err := filepath.Rel(from.Root(), r.Path())
	if err != nil {
		return err
	}
	if err := from.MoveTo(rel, to, rel); err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%s: %w", rel, apperr.ErrAlreadyExists)
		}
		return err
	}
	dest, err := to.Abs(rel)
	if err != nil {
		return err
	}
	if err := r.Relocate(dest); err != nil {
		return err
	}
	c.logger.Info("record moved",
		slog.String("from", from.Root()),
		slog.String("to", to.Root()),
		slog.String("name", rel))
	return nil
}
