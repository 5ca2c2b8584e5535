//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
)

// The fts table mirrors title and body of every row in files; metadata such
// as the content type is joined back from files at query time.
const ftsSchemaSQL = `
CREATE VIRTUAL TABLE IF NOT EXISTS files_fts USING fts5(
	path UNINDEXED,
	title,
	body,
	tokenize = 'unicode61 remove_diacritics 2'
);
`

const ftsSearchSQL = `
SELECT f.path, f.content_type, f.title,
       snippet(files_fts, 2, '<b>', '</b>', '...', 64)
FROM files_fts
JOIN files f ON f.path = files_fts.path
WHERE files_fts MATCH ? AND (? = '' OR f.content_type = ?)
ORDER BY bm25(files_fts, 0.0, 5.0, 1.0)
LIMIT ?
`

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(ftsSchemaSQL)
	return err
}

func ftsUpsert(tx *sql.Tx, path, title, body string) error {
	ftsDelete(tx, path)
	if _, err := tx.Exec(`INSERT INTO files_fts (path, title, body) VALUES (?, ?, ?)`, path, title, body); err != nil {
		return fmt.Errorf("index: fts insert %s: %w", path, err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, path string) {
	_, _ = tx.Exec(`DELETE FROM files_fts WHERE path = ?`, path)
}

// Search ranks matches with bm25, weighting title hits above body hits, and
// returns a highlighted body snippet per file.
func (db *DB) Search(q SearchQuery) ([]SearchResult, error) {
	ct := string(q.Type)
	rows, err := db.conn.Query(ftsSearchSQL, q.Text, ct, ct, q.limit())
	if err != nil {
		return nil, fmt.Errorf("index: search %q: %w", q.Text, err)
	}
	return scanResults(rows)
}
