package index

import (
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/starford/readmana/internal/checksum"
	"github.com/starford/readmana/internal/record"
	"github.com/starford/readmana/internal/storage"
)

// Source is one directory of record files fed into the index.
type Source struct {
	Store    storage.Provider
	Archived bool
}

// Sync walks the source directory and brings its part of the index up to date:
//   - new/changed record files are parsed and upserted
//   - files removed from disk are deleted from the index
func Sync(db *DB, src Source, logger *slog.Logger) error {
	metas, err := src.Store.List(record.Extension)
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums(src.Archived)
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		abs, err := src.Store.Abs(m.Path)
		if err != nil {
			continue
		}
		disk[abs] = struct{}{}

		if checksums[abs] == m.Checksum {
			continue
		}

		data, err := src.Store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", abs), slog.String("error", err.Error()))
			continue
		}
		if err := indexFile(db, src, abs, data, m.UpdatedAt); err != nil {
			logger.Warn("sync: index failed", slog.String("path", abs), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", abs))
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteRecord(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// indexFile parses data and upserts it into the DB.
func indexFile(db *DB, src Source, abs string, data []byte, updated time.Time) error {
	tags, err := record.Parse(data)
	if err != nil {
		return err
	}
	return db.UpsertRecord(rowFromTags(abs, tags, src.Archived, checksum.Sum(data), updated))
}

func rowFromTags(abs string, tags record.Tags, archived bool, cs string, updated time.Time) RecordRow {
	deref := func(p *string) string {
		if p == nil {
			return ""
		}
		return *p
	}

	dates := make([]string, 0, len(tags.Remark))
	for d := range tags.Remark {
		dates = append(dates, d)
	}
	slices.Sort(dates)
	var remarks []string
	for _, d := range dates {
		remarks = append(remarks, tags.Remark[d]...)
	}

	return RecordRow{
		Path:        abs,
		Title:       deref(tags.Title),
		Author:      deref(tags.Author),
		Tags:        tags.Tag.Values(),
		Remarks:     strings.Join(remarks, "\n"),
		PageCurrent: tags.PageCurrent,
		PageTotal:   tags.PageTotal,
		Archived:    archived,
		Checksum:    cs,
		UpdatedAt:   updated,
	}
}
