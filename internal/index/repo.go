package index

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rebuildup/my-web-2025-sub004/internal/models"
)

// FileRow represents a row in the files table.
type FileRow struct {
	Path        string             `json:"path"`
	ContentType models.ContentType `json:"contentType"`
	ContentID   string             `json:"contentId"`
	Title       string             `json:"title"`
	Checksum    string             `json:"checksum"`
	Size        int64              `json:"size"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

// SearchResult represents one search hit.
type SearchResult struct {
	Path        string             `json:"path"`
	ContentType models.ContentType `json:"contentType"`
	Title       string             `json:"title"`
	Snippet     string             `json:"snippet"`
}

// DefaultSearchLimit applies when SearchQuery.Limit is not positive.
const DefaultSearchLimit = 20

// SearchQuery narrows a full-text search. An empty Type searches every
// content type.
type SearchQuery struct {
	Text  string
	Type  models.ContentType
	Limit int
}

func (q SearchQuery) limit() int {
	if q.Limit <= 0 {
		return DefaultSearchLimit
	}
	return q.Limit
}

// EmbedUse locates one embed token that references a media entry.
type EmbedUse struct {
	Path   string `json:"path"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

// Upsert inserts or replaces a file row, its FTS entry and its embed
// references within a transaction.
func (db *DB) Upsert(row FileRow, body string, refs []models.EmbedReference) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	_, err = tx.Exec(`
		INSERT INTO files (path, content_type, content_id, title, checksum, size, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			content_type = excluded.content_type,
			content_id   = excluded.content_id,
			title        = excluded.title,
			checksum     = excluded.checksum,
			size         = excluded.size,
			body         = excluded.body,
			updated_at   = excluded.updated_at
	`, row.Path, string(row.ContentType), row.ContentID, row.Title, row.Checksum, row.Size, body, row.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("index: upsert file: %w", err)
	}

	if err := ftsUpsert(tx, row.Path, row.Title, body); err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM embeds WHERE path = ?`, row.Path); err != nil {
		return fmt.Errorf("index: clear embeds: %w", err)
	}
	if len(refs) > 0 {
		stmt, err := tx.Prepare(`INSERT INTO embeds (path, kind, idx, line, col) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare embed insert: %w", err)
		}
		defer stmt.Close()
		for _, r := range refs {
			if _, err := stmt.Exec(row.Path, string(r.Kind), r.Index, r.Line, r.Column); err != nil {
				return fmt.Errorf("index: insert embed: %w", err)
			}
		}
	}

	return tx.Commit()
}

// Delete removes a file row, its FTS entry and its embeds.
func (db *DB) Delete(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	if _, err := tx.Exec(`DELETE FROM embeds WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete embeds: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM files WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete file: %w", err)
	}
	return tx.Commit()
}

// Get returns the row for path, or nil when it is not indexed.
func (db *DB) Get(path string) (*FileRow, error) {
	var (
		r  FileRow
		ct string
	)
	err := db.conn.QueryRow(`
		SELECT path, content_type, content_id, title, checksum, size, updated_at
		FROM files WHERE path = ?
	`, path).Scan(&r.Path, &ct, &r.ContentID, &r.Title, &r.Checksum, &r.Size, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("index: get file: %w", err)
	}
	r.ContentType = models.ContentType(ct)
	return &r, nil
}

// GetChecksum returns the stored checksum for path, or "" when not indexed.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM files WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// AllChecksums maps every indexed path to its checksum.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM files`)
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

// EmbedUsage lists the files that embed entry idx of the kind array, in
// path and line order.
func (db *DB) EmbedUsage(kind models.EmbedKind, idx int) ([]EmbedUse, error) {
	rows, err := db.conn.Query(`
		SELECT path, line, col FROM embeds
		WHERE kind = ? AND idx = ?
		ORDER BY path, line, col
	`, string(kind), idx)
	if err != nil {
		return nil, fmt.Errorf("index: embed usage: %w", err)
	}
	defer rows.Close()

	out := []EmbedUse{}
	for rows.Next() {
		var u EmbedUse
		if err := rows.Scan(&u.Path, &u.Line, &u.Column); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func scanResults(rows *sql.Rows) ([]SearchResult, error) {
	defer rows.Close()
	out := []SearchResult{}
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Path, &r.ContentType, &r.Title, &r.Snippet); err != nil {
			return nil, fmt.Errorf("index: scan search row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
