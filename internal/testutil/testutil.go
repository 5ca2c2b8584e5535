// Package testutil provides shared test helpers for setting up content
// trees, stores and index databases.
package testutil

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/rebuildup/my-web-2025-sub004/internal/dirs"
	"github.com/rebuildup/my-web-2025-sub004/internal/index"
	"github.com/rebuildup/my-web-2025-sub004/internal/models"
	"github.com/rebuildup/my-web-2025-sub004/internal/pathgen"
	"github.com/rebuildup/my-web-2025-sub004/internal/storage"
)

// Env is a temporary content tree: {Root}/content holds legacy JSON and
// {Root}/content/markdown the markdown base.
type Env struct {
	Root    string
	DataDir string
	Base    string
	Paths   *pathgen.Generator
	Dirs    *dirs.Manager
	Store   *storage.Store
}

// TestDB creates a temporary SQLite index that is closed on cleanup.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	db, err := index.Open(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestEnv creates an initialised content tree with the default directory table.
func TestEnv(t *testing.T) *Env {
	t.Helper()
	root := t.TempDir()
	dataDir := filepath.Join(root, "content")
	base := filepath.Join(dataDir, "markdown")
	table := models.DefaultDirectoryTable()

	pg, err := pathgen.New(base, table)
	if err != nil {
		t.Fatal(err)
	}
	dm, err := dirs.New(base, table, Logger())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := dm.Initialize(); err != nil {
		t.Fatal(err)
	}
	return &Env{
		Root:    root,
		DataDir: dataDir,
		Base:    pg.Base(),
		Paths:   pg,
		Dirs:    dm,
		Store:   storage.New(pg, dm, storage.DefaultPolicy(), Logger()),
	}
}

// WriteLegacy writes a legacy JSON index file into the data directory.
func (e *Env) WriteLegacy(t *testing.T, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(e.DataDir, name), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

// Logger returns a logger that only reports errors.
func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}
