package migration

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"github.com/rebuildup/my-web-2025-sub004/internal/apperr"
	"github.com/rebuildup/my-web-2025-sub004/internal/checksum"
	"github.com/rebuildup/my-web-2025-sub004/internal/fileutil"
	"github.com/rebuildup/my-web-2025-sub004/internal/models"
)

const (
	// TagsFile is never scanned for content.
	TagsFile = "tags.json"
	// BackupFilePrefix marks JSON files that are themselves backups.
	BackupFilePrefix = "backup-"
	// BackupDirName holds JSON snapshots under the data directory.
	BackupDirName = "backup"
	// DefaultLockFile is created in the data directory while a run mutates it.
	DefaultLockFile = ".migration.lock"

	backupLayout = "2006-01-02T15-04-05.000Z"
)

// isLegacyFile reports whether name is a legacy content index.
func isLegacyFile(name string) bool {
	return strings.HasSuffix(name, ".json") &&
		name != TagsFile &&
		!strings.HasPrefix(name, BackupFilePrefix)
}

// listLegacyFiles returns the legacy index file names in dir, sorted.
func listLegacyFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, apperr.Classify(err, dir)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !isLegacyFile(e.Name()) {
			continue
		}
		out = append(out, e.Name())
	}
	return out, nil
}

func readRecords(path string) ([]models.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperr.Classify(err, path)
	}
	recs, err := models.DecodeRecords(data)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInvalidContent, path, "legacy index is not a JSON array of objects", err)
	}
	return recs, nil
}

// writeRecords replaces the whole file in one atomic rename.
func writeRecords(path string, recs []models.Record) error {
	data, err := models.EncodeRecords(recs)
	if err != nil {
		return apperr.Wrap(apperr.KindMigration, path, "encode legacy index", err)
	}
	perm := fs.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}
	if err := fileutil.WriteFileAtomic(path, data, perm); err != nil {
		return apperr.Classify(err, path)
	}
	return nil
}

// backupFiles copies names from dataDir into dataDir/backup/<stamp>/.
func backupFiles(dataDir string, names []string, stamp string) (string, error) {
	dst := filepath.Join(dataDir, BackupDirName, stamp)
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return "", apperr.Classify(err, dst)
	}
	for _, name := range names {
		src := filepath.Join(dataDir, name)
		copied := filepath.Join(dst, name)
		if err := fileutil.CopyFile(src, copied); err != nil {
			return dst, apperr.Classify(err, src)
		}
		same, err := checksum.Same(src, copied)
		if err != nil {
			return dst, apperr.Classify(err, copied)
		}
		if !same {
			return dst, apperr.New(apperr.KindMigration, copied, "backup copy does not match the original")
		}
	}
	return dst, nil
}

// runLock is the single-writer guard for mutating runs.
type runLock struct {
	fl *flock.Flock
}

func acquireLock(path string) (*runLock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, apperr.Classify(err, path)
	}
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperr.Classify(err, path)
		}
		return nil, apperr.Wrap(apperr.KindLocked, path, "acquire migration lock", err)
	}
	if !ok {
		return nil, apperr.New(apperr.KindLocked, path, "another migration is running")
	}
	return &runLock{fl: fl}, nil
}

func (l *runLock) release() {
	_ = l.fl.Unlock()
}
