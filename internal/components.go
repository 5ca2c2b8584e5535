package internal

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/rebuildup/my-web-2025-sub004/internal/contentservice"
	"github.com/rebuildup/my-web-2025-sub004/internal/dirs"
	"github.com/rebuildup/my-web-2025-sub004/internal/embed"
	"github.com/rebuildup/my-web-2025-sub004/internal/index"
	"github.com/rebuildup/my-web-2025-sub004/internal/migration"
	"github.com/rebuildup/my-web-2025-sub004/internal/pathgen"
	"github.com/rebuildup/my-web-2025-sub004/internal/storage"
)

var errConfigRequired = errors.New("config is required")

// Components are the domain services built from one Config. They share a
// single directory table.
type Components struct {
	Config   *Config
	Logger   *slog.Logger
	Paths    *pathgen.Generator
	Dirs     *dirs.Manager
	Store    *storage.Store
	Embeds   *embed.Validator
	Migrator *migration.Service
}

// Build wires the domain services. It does not touch the filesystem.
func Build(cfg *Config, logger *slog.Logger) (*Components, error) {
	if cfg == nil {
		return nil, errConfigRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	table, err := cfg.Markdown.DirectoryTable()
	if err != nil {
		return nil, fmt.Errorf("directory table: %w", err)
	}
	paths, err := pathgen.New(cfg.Markdown.BasePath, table,
		pathgen.WithMaxFilenameLength(cfg.Markdown.MaxFilenameLength))
	if err != nil {
		return nil, err
	}
	dm, err := dirs.New(paths.Base(), table, logger)
	if err != nil {
		return nil, err
	}
	store := storage.New(paths, dm, cfg.Markdown.Policy(), logger)
	migrator, err := migration.New(store, paths, migration.Config{
		DataDir:     cfg.Legacy.DataDir,
		BatchSize:   cfg.Migration.BatchSize,
		BatchDelay:  cfg.Migration.BatchDelay.Std(),
		Concurrency: cfg.Migration.Concurrency,
		LockFile:    cfg.Migration.LockFile,
	}, logger)
	if err != nil {
		return nil, err
	}
	return &Components{
		Config:   cfg,
		Logger:   logger,
		Paths:    paths,
		Dirs:     dm,
		Store:    store,
		Embeds:   embed.NewValidator(cfg.Markdown.AllowedEmbedHosts),
		Migrator: migrator,
	}, nil
}

// OpenIndex creates the type directories, opens the SQLite index and runs
// an initial sync. A failed sync is logged, not returned.
func (c *Components) OpenIndex() (*index.DB, error) {
	if _, err := c.Dirs.Initialize(); err != nil {
		return nil, fmt.Errorf("init directories: %w", err)
	}
	db, err := index.Open(c.Config.Index.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}
	if err := index.Sync(db, c.Store, c.Logger); err != nil {
		c.Logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}
	return db, nil
}

// Content returns the edit-time coordinator over db, publishing to pub
// when non-nil.
func (c *Components) Content(db index.FileIndex, pub contentservice.Publisher) *contentservice.Service {
	opts := []contentservice.Option{contentservice.WithLogger(c.Logger)}
	if db != nil {
		opts = append(opts, contentservice.WithIndex(db))
	}
	if pub != nil {
		opts = append(opts, contentservice.WithPublisher(pub))
	}
	return contentservice.New(c.Store, c.Paths, c.Embeds, opts...)
}
