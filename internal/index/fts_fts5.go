//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS records_fts USING fts5(
			path UNINDEXED,
			title,
			author,
			tags,
			remarks,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, r RecordRow) error {
	_, _ = tx.Exec(`DELETE FROM records_fts WHERE path = ?`, r.Path)
	_, err := tx.Exec(`INSERT INTO records_fts (path, title, author, tags, remarks) VALUES (?, ?, ?, ?, ?)`,
		r.Path, r.Title, r.Author, strings.Join(r.Tags, " "), r.Remarks)
	if err != nil {
		return fmt.Errorf("index: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, path string) {
	_, _ = tx.Exec(`DELETE FROM records_fts WHERE path = ?`, path)
}

// Search performs an FTS5 full-text search and returns matching results with snippets.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT f.path,
		       f.title,
		       r.author,
		       r.archived,
		       snippet(records_fts, 4, '<b>', '</b>', '...', 64)
		FROM records_fts f
		JOIN records r ON r.path = f.path
		WHERE records_fts MATCH ?
		ORDER BY bm25(records_fts)
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Path, &r.Title, &r.Author, &r.Archived, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
