package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/rebuildup/my-web-2025-sub004/internal/models"
	"github.com/rebuildup/my-web-2025-sub004/internal/pathgen"
	"github.com/rebuildup/my-web-2025-sub004/internal/storage"
)

// Log formats.
const (
	LogFormatJSON = "json"
	LogFormatText = "text"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app" toml:"app"`
	Markdown  MarkdownConfig    `yaml:"markdown" toml:"markdown"`
	Legacy    LegacyConfig      `yaml:"legacy" toml:"legacy"`
	Migration MigrationConfig   `yaml:"migration" toml:"migration"`
	Index     IndexConfig       `yaml:"index" toml:"index"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := c.Markdown.Validate(); err != nil {
		return fmt.Errorf("markdown: %w", err)
	}
	if err := c.Legacy.Validate(); err != nil {
		return fmt.Errorf("legacy: %w", err)
	}
	if err := c.Migration.Validate(); err != nil {
		return fmt.Errorf("migration: %w", err)
	}
	if err := c.Index.Validate(); err != nil {
		return fmt.Errorf("index: %w", err)
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel  slog.Level `yaml:"log_level" toml:"log_level"`
	LogFormat string     `yaml:"log_format" toml:"log_format"`
	HTTP      HTTPConfig `yaml:"http" toml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.LogFormat, validation.In(LogFormatJSON, LogFormatText)),
	); err != nil {
		return err
	}
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port" toml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// MarkdownConfig describes the markdown storage tree.
type MarkdownConfig struct {
	BasePath          string `yaml:"base_path" toml:"base_path"`
	MaxFileSize       int64  `yaml:"max_file_size" toml:"max_file_size"`
	MaxFilenameLength int    `yaml:"max_filename_length" toml:"max_filename_length"`
	// ContentTypes overrides the directory of individual content types.
	ContentTypes      map[string]string `yaml:"content_types" toml:"content_types"`
	AllowedEmbedHosts []string          `yaml:"allowed_embed_hosts" toml:"allowed_embed_hosts"`
}

// Validate validates the markdown configuration.
func (c *MarkdownConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.BasePath, validation.Required),
		validation.Field(&c.MaxFileSize, validation.Required, validation.Min(int64(1))),
		validation.Field(&c.MaxFilenameLength, validation.Required, validation.Min(8), validation.Max(pathgen.DefaultMaxFilenameLength)),
		validation.Field(&c.AllowedEmbedHosts, validation.Each(validation.Required)),
	); err != nil {
		return err
	}
	_, err := c.DirectoryTable()
	return err
}

// DirectoryTable builds the content type table: the identity mapping with
// ContentTypes applied on top.
func (c *MarkdownConfig) DirectoryTable() (models.DirectoryTable, error) {
	table := models.DefaultDirectoryTable()
	for name, dir := range c.ContentTypes {
		ct, ok := models.ParseContentType(name)
		if !ok {
			return nil, fmt.Errorf("content_types: unknown content type %q", name)
		}
		table[ct] = dir
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}

// Policy returns the content safety policy.
func (c *MarkdownConfig) Policy() storage.Policy {
	return storage.Policy{MaxSize: c.MaxFileSize}
}

// LegacyConfig locates the legacy JSON index files.
type LegacyConfig struct {
	DataDir string `yaml:"data_dir" toml:"data_dir"`
}

// Validate validates the legacy configuration.
func (c *LegacyConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.DataDir, validation.Required),
	)
}

// MigrationConfig tunes migration runs.
type MigrationConfig struct {
	BatchSize   int      `yaml:"batch_size" toml:"batch_size"`
	BatchDelay  Duration `yaml:"batch_delay" toml:"batch_delay"`
	Concurrency int      `yaml:"concurrency" toml:"concurrency"`
	LockFile    string   `yaml:"lock_file" toml:"lock_file"`
}

// Validate validates the migration configuration.
func (c *MigrationConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BatchSize, validation.Required, validation.Min(1), validation.Max(1000)),
		validation.Field(&c.BatchDelay, validation.By(nonNegative)),
		validation.Field(&c.Concurrency, validation.Required, validation.Min(1), validation.Max(64)),
	)
}

// IndexConfig holds the SQLite file index configuration.
type IndexConfig struct {
	SQLitePath string `yaml:"sqlite_path" toml:"sqlite_path"`
	Watch      bool   `yaml:"watch" toml:"watch"`
}

// Validate validates the index configuration.
func (c *IndexConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.SQLitePath, validation.Required),
	)
}

// Duration is a time.Duration read from strings such as "100ms".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func nonNegative(v any) error {
	if d, ok := v.(Duration); ok && d < 0 {
		return errors.New("must not be negative")
	}
	return nil
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel:  slog.LevelInfo,
			LogFormat: LogFormatJSON,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Markdown: MarkdownConfig{
			BasePath:          "public/data/content/markdown",
			MaxFileSize:       storage.DefaultMaxFileSize,
			MaxFilenameLength: pathgen.DefaultMaxFilenameLength,
		},
		Legacy: LegacyConfig{
			DataDir: "public/data/content",
		},
		Migration: MigrationConfig{
			BatchSize:   10,
			BatchDelay:  Duration(100 * time.Millisecond),
			Concurrency: 1,
		},
		Index: IndexConfig{
			SQLitePath: "./mdcore.db",
			Watch:      true,
		},
	}
}
