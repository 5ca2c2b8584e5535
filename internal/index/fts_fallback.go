//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"
)

const likeSearchSQL = `
SELECT path, content_type, title, substr(body, 1, 200)
FROM files
WHERE (title LIKE ? ESCAPE '\' OR body LIKE ? ESCAPE '\')
  AND (? = '' OR content_type = ?)
ORDER BY (title LIKE ? ESCAPE '\') DESC, path
LIMIT ?
`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Without FTS5 the body column of files is scanned with LIKE.
func initFTS(*sql.DB) error { return nil }

func ftsUpsert(*sql.Tx, string, string, string) error { return nil }

func ftsDelete(*sql.Tx, string) {}

// Search matches the text as a literal substring of titles and bodies. Title
// matches sort first.
func (db *DB) Search(q SearchQuery) ([]SearchResult, error) {
	pattern := "%" + likeEscaper.Replace(q.Text) + "%"
	ct := string(q.Type)
	rows, err := db.conn.Query(likeSearchSQL, pattern, pattern, ct, ct, pattern, q.limit())
	if err != nil {
		return nil, fmt.Errorf("index: search %q: %w", q.Text, err)
	}
	return scanResults(rows)
}
