package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// RecordRow represents a row in the records table.
type RecordRow struct {
	Path        string // absolute path of the record file
	Title       string
	Author      string
	Tags        []string
	Remarks     string // all remark texts, newline separated
	PageCurrent int
	PageTotal   int
	Archived    bool
	Checksum    string
	UpdatedAt   time.Time
}

// SearchResult represents one search hit.
type SearchResult struct {
	Path     string
	Title    string
	Author   string
	Archived bool
	Snippet  string
}

// UpsertRecord inserts or replaces a record and its FTS entry within a transaction.
func (db *DB) UpsertRecord(r RecordRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, _ := json.Marshal(tags)

	_, err = tx.Exec(`
		INSERT INTO records (path, title, author, tags, remarks, page_current, page_total, archived, checksum, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title        = excluded.title,
			author       = excluded.author,
			tags         = excluded.tags,
			remarks      = excluded.remarks,
			page_current = excluded.page_current,
			page_total   = excluded.page_total,
			archived     = excluded.archived,
			checksum     = excluded.checksum,
			updated_at   = excluded.updated_at
	`, r.Path, r.Title, r.Author, string(tagsJSON), r.Remarks, r.PageCurrent, r.PageTotal,
		r.Archived, r.Checksum, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert record: %w", err)
	}

	// FTS upsert (no-op when FTS5 tag is absent).
	if err := ftsUpsert(tx, r); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteRecord removes a record and its FTS entry.
func (db *DB) DeleteRecord(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	if _, err := tx.Exec(`DELETE FROM records WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete record: %w", err)
	}

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a record, or empty string if not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM records WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: checksum: %w", err)
	}
	return cs, nil
}

// GetRecord returns the indexed row for path, or nil when it is not indexed.
func (db *DB) GetRecord(path string) (*RecordRow, error) {
	var (
		r        RecordRow
		tagsJSON string
	)
	err := db.conn.QueryRow(`
		SELECT path, title, author, tags, remarks, page_current, page_total, archived, checksum, updated_at
		FROM records WHERE path = ?
	`, path).Scan(&r.Path, &r.Title, &r.Author, &tagsJSON, &r.Remarks, &r.PageCurrent, &r.PageTotal,
		&r.Archived, &r.Checksum, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("index: get record: %w", err)
	}
	if err := json.Unmarshal([]byte(tagsJSON), &r.Tags); err != nil {
		return nil, fmt.Errorf("index: decode tags of %s: %w", path, err)
	}
	return &r, nil
}

// AllChecksums returns path → checksum for every indexed record in the
// active or the archived set.
func (db *DB) AllChecksums(archived bool) (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM records WHERE archived = ?`, archived)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}
