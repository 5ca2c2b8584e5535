// Package dirs owns the on-disk directory taxonomy: one subdirectory per
// content type under the markdown base path.
package dirs

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rebuildup/my-web-2025-sub004/internal/apperr"
	"github.com/rebuildup/my-web-2025-sub004/internal/fileutil"
	"github.com/rebuildup/my-web-2025-sub004/internal/models"
)

// BackupPrefix names markdown snapshot directories.
const BackupPrefix = "markdown-backup-"

// TimestampLayout formats backup directory suffixes. It avoids ':' so the
// names are portable.
const TimestampLayout = "2006-01-02T15-04-05.000Z"

// TypeStats summarises one content type directory.
type TypeStats struct {
	FileCount    int       `json:"fileCount"`
	TotalSize    int64     `json:"totalSize"`
	LastModified time.Time `json:"lastModified"`
}

// Manager creates, inspects and snapshots the content type directories.
type Manager struct {
	base   string
	table  models.DirectoryTable
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Manager for base. A nil logger uses slog.Default().
func New(base string, table models.DirectoryTable, logger *slog.Logger) (*Manager, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, apperr.Classify(err, base)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{base: abs, table: table, logger: logger, now: time.Now}, nil
}

// Base returns the absolute markdown base directory.
func (m *Manager) Base() string { return m.base }

// Initialize creates the base and every type directory that is absent and
// returns the directories it created. Calling it again is a no-op.
func (m *Manager) Initialize() ([]string, error) {
	var created []string
	for _, dir := range append([]string{m.base}, m.typeDirs()...) {
		made, err := ensureDir(dir)
		if err != nil {
			return created, err
		}
		if made {
			created = append(created, dir)
		}
	}
	if len(created) > 0 {
		m.logger.Info("content directories created", slog.Int("count", len(created)))
	}
	return created, nil
}

// EnsureTypeDir makes sure the directory for ct exists and returns it.
func (m *Manager) EnsureTypeDir(ct models.ContentType) (string, error) {
	dir, ok := m.table.Dir(ct)
	if !ok {
		return "", apperr.Newf(apperr.KindUnsupportedType, "", "unsupported content type %q", ct)
	}
	abs := filepath.Join(m.base, dir)
	if _, err := ensureDir(abs); err != nil {
		return "", err
	}
	return abs, nil
}

// Validate returns the directories that are missing. It has no side effects.
func (m *Manager) Validate() []string {
	var missing []string
	for _, dir := range append([]string{m.base}, m.typeDirs()...) {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			missing = append(missing, dir)
		}
	}
	return missing
}

// Stats reports file counts and sizes per content type. Unreadable or
// missing directories report zero values instead of failing the call.
func (m *Manager) Stats() map[models.ContentType]TypeStats {
	out := make(map[models.ContentType]TypeStats, len(m.table))
	for _, ct := range m.table.Types() {
		dir, _ := m.table.Dir(ct)
		st, err := dirStats(filepath.Join(m.base, dir))
		if err != nil {
			m.logger.Warn("directory stats unavailable",
				slog.String("type", string(ct)),
				slog.String("error", err.Error()),
			)
			st = TypeStats{}
		}
		out[ct] = st
	}
	return out
}

func dirStats(dir string) (TypeStats, error) {
	var st TypeStats
	entries, err := os.ReadDir(dir)
	if err != nil {
		return TypeStats{}, err
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return TypeStats{}, err
		}
		st.FileCount++
		st.TotalSize += info.Size()
		if info.ModTime().After(st.LastModified) {
			st.LastModified = info.ModTime()
		}
	}
	return st, nil
}

// CleanupEmpty removes every content type directory that holds no entries
// and returns the removed paths.
func (m *Manager) CleanupEmpty() ([]string, error) {
	var removed []string
	for _, dir := range m.typeDirs() {
		entries, err := os.ReadDir(dir)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return removed, apperr.Classify(err, dir)
		}
		if len(entries) > 0 {
			continue
		}
		if err := os.Remove(dir); err != nil {
			return removed, apperr.Classify(err, dir)
		}
		removed = append(removed, dir)
	}
	if len(removed) > 0 {
		m.logger.Info("empty content directories removed", slog.Int("count", len(removed)))
	}
	return removed, nil
}

// Backup copies every .md file into {target}/markdown-backup-{timestamp},
// keeping the per-type layout, and returns the snapshot directory. An empty
// target means the parent of the base directory.
func (m *Manager) Backup(target string) (string, error) {
	if target == "" {
		target = filepath.Dir(m.base)
	}
	snapshot := filepath.Join(target, BackupPrefix+m.now().UTC().Format(TimestampLayout))
	if err := os.MkdirAll(snapshot, 0o755); err != nil {
		return "", apperr.Classify(err, snapshot)
	}

	copied := 0
	for _, ct := range m.table.Types() {
		dir, _ := m.table.Dir(ct)
		src := filepath.Join(m.base, dir)
		entries, err := os.ReadDir(src)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return snapshot, apperr.Classify(err, src)
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
				continue
			}
			from := filepath.Join(src, e.Name())
			if err := fileutil.CopyFile(from, filepath.Join(snapshot, dir, e.Name())); err != nil {
				return snapshot, apperr.Classify(err, from)
			}
			copied++
		}
	}
	m.logger.Info("markdown backup written",
		slog.String("dir", snapshot),
		slog.Int("files", copied),
	)
	return snapshot, nil
}

func (m *Manager) typeDirs() []string {
	out := make([]string, 0, len(m.table))
	for _, ct := range m.table.Types() {
		dir, _ := m.table.Dir(ct)
		out = append(out, filepath.Join(m.base, dir))
	}
	return out
}

// ensureDir is stat-then-mkdir; a concurrent initializer may win the race,
// which MkdirAll tolerates.
func ensureDir(dir string) (bool, error) {
	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return false, apperr.New(apperr.KindInvalidPath, dir, "exists but is not a directory")
		}
		return false, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return false, apperr.Classify(err, dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, apperr.Classify(err, dir)
	}
	return true, nil
}
