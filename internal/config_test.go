package internal

import (
	"strings"
	"testing"
	"time"

	"github.com/rebuildup/my-web-2025-sub004/internal/models"
)

func TestDefaultConfigValid(t *testing.T) {
	if err := NewDefaultConfig().Validate(); err != nil {
		t.Fatalf("default config should pass: %v", err)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"port", func(c *Config) { c.App.HTTP.Port = 0 }, "Port"},
		{"log format", func(c *Config) { c.App.LogFormat = "xml" }, "LogFormat"},
		{"base path", func(c *Config) { c.Markdown.BasePath = "" }, "markdown"},
		{"file size", func(c *Config) { c.Markdown.MaxFileSize = 0 }, "markdown"},
		{"data dir", func(c *Config) { c.Legacy.DataDir = "" }, "legacy"},
		{"batch size", func(c *Config) { c.Migration.BatchSize = 0 }, "migration"},
		{"negative delay", func(c *Config) { c.Migration.BatchDelay = Duration(-time.Second) }, "migration"},
		{"sqlite path", func(c *Config) { c.Index.SQLitePath = "" }, "index"},
		{"unknown type", func(c *Config) { c.Markdown.ContentTypes = map[string]string{"video": "videos"} }, "unknown content type"},
		{"duplicate dir", func(c *Config) { c.Markdown.ContentTypes = map[string]string{"blog": "page"} }, "used by both"},
		{"nested dir", func(c *Config) { c.Markdown.ContentTypes = map[string]string{"blog": "a/b"} }, "invalid directory"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestDirectoryTableOverrides(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Markdown.ContentTypes = map[string]string{"blog": "posts", "Portfolio": "works"}
	table, err := cfg.Markdown.DirectoryTable()
	if err != nil {
		t.Fatal(err)
	}
	if d, _ := table.Dir(models.ContentTypeBlog); d != "posts" {
		t.Errorf("blog dir = %q, want posts", d)
	}
	if d, _ := table.Dir(models.ContentTypePortfolio); d != "works" {
		t.Errorf("portfolio dir = %q, want works", d)
	}
	if d, _ := table.Dir(models.ContentTypeTool); d != "tool" {
		t.Errorf("tool dir = %q, want tool", d)
	}
}

func TestDurationText(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte("250ms")); err != nil {
		t.Fatal(err)
	}
	if d.Std() != 250*time.Millisecond {
		t.Errorf("duration = %v", d.Std())
	}
	if err := d.UnmarshalText([]byte("soon")); err == nil {
		t.Error("expected parse error")
	}
}

func TestBuild(t *testing.T) {
	cfg := NewDefaultConfig()
	root := t.TempDir()
	cfg.Legacy.DataDir = root
	cfg.Markdown.BasePath = root + "/markdown"
	cfg.Markdown.ContentTypes = map[string]string{"blog": "posts"}
	cfg.Index.SQLitePath = root + "/index.db"

	c, err := Build(cfg, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	db, err := c.OpenIndex()
	if err != nil {
		t.Fatalf("OpenIndex: %v", err)
	}
	defer db.Close()

	if missing := c.Dirs.Validate(); len(missing) != 0 {
		t.Errorf("missing dirs after OpenIndex: %v", missing)
	}
	path, err := c.Store.Create("hello", models.ContentTypeBlog, "# Hello")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(path, "/markdown/posts/hello.md") {
		t.Errorf("path = %q", path)
	}
	if c.Migrator.DataDir() != root {
		t.Errorf("data dir = %q, want %q", c.Migrator.DataDir(), root)
	}
}

func TestBuildRequiresConfig(t *testing.T) {
	if _, err := Build(nil, nil); err == nil {
		t.Error("expected error for nil config")
	}
}
