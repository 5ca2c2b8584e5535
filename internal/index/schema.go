// Package index keeps a SQLite catalog of the markdown files and the embed
// references they contain, with optional FTS5 full-text search.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS files (
	path         TEXT PRIMARY KEY,
	content_type TEXT NOT NULL,
	content_id   TEXT NOT NULL,
	title        TEXT NOT NULL DEFAULT '',
	checksum     TEXT NOT NULL DEFAULT '',
	size         INTEGER NOT NULL DEFAULT 0,
	body         TEXT NOT NULL DEFAULT '',
	updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_files_type ON files(content_type);

CREATE TABLE IF NOT EXISTS embeds (
	path TEXT NOT NULL,
	kind TEXT NOT NULL,
	idx  INTEGER NOT NULL,
	line INTEGER NOT NULL,
	col  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_embeds_path ON embeds(path);
CREATE INDEX IF NOT EXISTS idx_embeds_ref ON embeds(kind, idx);
`

// DB is the SQLite-backed FileIndex.
type DB struct {
	conn *sql.DB
}

// Open opens or creates the index database at path and brings its schema up
// to date. WAL mode lets the watcher write while API requests read.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("index: open %s: %w", path, err)
	}
	steps := []struct {
		name  string
		apply func(*sql.DB) error
	}{
		{"ping", (*sql.DB).Ping},
		{"core schema", func(c *sql.DB) error { _, err := c.Exec(coreSchemaSQL); return err }},
		{"fts schema", initFTS},
	}
	for _, step := range steps {
		if err := step.apply(conn); err != nil {
			conn.Close()
			return nil, fmt.Errorf("index: %s: %w", step.name, err)
		}
	}
	return &DB{conn: conn}, nil
}

// Close releases the database handle.
func (db *DB) Close() error {
	return db.conn.Close()
}
