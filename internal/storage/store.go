package storage

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/rebuildup/my-web-2025-sub004/internal/apperr"
	"github.com/rebuildup/my-web-2025-sub004/internal/checksum"
	"github.com/rebuildup/my-web-2025-sub004/internal/dirs"
	"github.com/rebuildup/my-web-2025-sub004/internal/fileutil"
	"github.com/rebuildup/my-web-2025-sub004/internal/models"
	"github.com/rebuildup/my-web-2025-sub004/internal/pathgen"
)

// BackupSuffix is appended to a file name by Update's WithBackup.
const BackupSuffix = ".bak"

const filePerm = 0o644

// Store implements Provider on the local file system.
type Store struct {
	paths  *pathgen.Generator
	dirs   *dirs.Manager
	policy Policy
	logger *slog.Logger
}

var _ Provider = (*Store)(nil)

// New creates a Store. paths and dirs must share the same base directory.
func New(paths *pathgen.Generator, dm *dirs.Manager, policy Policy, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{paths: paths, dirs: dm, policy: policy, logger: logger}
}

// Paths returns the path generator the store resolves against.
func (s *Store) Paths() *pathgen.Generator { return s.paths }

// Policy returns the content safety policy.
func (s *Store) Policy() Policy { return s.policy }

// Create writes content to the canonical path of (id, ct) and returns it.
// An existing file fails with KindAlreadyExists unless WithOverwrite is
// given. The existence check and the write are not atomic together.
func (s *Store) Create(id string, ct models.ContentType, content string, opts ...WriteOption) (string, error) {
	o := collect(opts)
	if err := models.ValidateContentID(id); err != nil {
		return "", apperr.Newf(apperr.KindValidation, "", "invalid content id %q: %v", id, err)
	}
	path, err := s.paths.Generate(id, ct, pathgen.Options{})
	if err != nil {
		return "", err
	}
	if err := s.check(path, content); err != nil {
		return "", err
	}
	if _, err := s.dirs.EnsureTypeDir(ct); err != nil {
		return "", err
	}

	_, statErr := os.Stat(path)
	switch {
	case statErr == nil && !o.overwrite:
		return "", apperr.New(apperr.KindAlreadyExists, path, "")
	case statErr != nil && !errors.Is(statErr, fs.ErrNotExist):
		return "", apperr.Classify(statErr, path)
	}

	if err := fileutil.WriteFileAtomic(path, []byte(content), filePerm); err != nil {
		return "", apperr.Classify(err, path)
	}
	s.logger.Debug("markdown file created",
		slog.String("path", path),
		slog.Int("bytes", len(content)),
	)
	return path, nil
}

// Read returns the content of the file at path.
func (s *Store) Read(path string) (string, error) {
	abs, err := s.paths.Resolve(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return "", apperr.Classify(err, abs)
	}
	return string(data), nil
}

// Update overwrites an existing file. With WithBackup the previous content
// is first copied to <file>.bak.
func (s *Store) Update(path, content string, opts ...WriteOption) error {
	o := collect(opts)
	abs, err := s.paths.Resolve(path)
	if err != nil {
		return err
	}
	if err := s.requireFile(abs); err != nil {
		return err
	}
	if err := s.check(abs, content); err != nil {
		return err
	}
	if o.backup {
		if err := fileutil.CopyFile(abs, abs+BackupSuffix); err != nil {
			return apperr.Classify(err, abs+BackupSuffix)
		}
	}
	if err := fileutil.WriteFileAtomic(abs, []byte(content), filePerm); err != nil {
		return apperr.Classify(err, abs)
	}
	s.logger.Debug("markdown file updated", slog.String("path", abs), slog.Bool("backup", o.backup))
	return nil
}

// Delete removes the file. Empty parent directories are left in place.
func (s *Store) Delete(path string) error {
	abs, err := s.paths.Resolve(path)
	if err != nil {
		return err
	}
	if err := s.requireFile(abs); err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		return apperr.Classify(err, abs)
	}
	s.logger.Debug("markdown file deleted", slog.String("path", abs))
	return nil
}

// Exists reports whether path is a valid store path naming a regular file.
func (s *Store) Exists(path string) bool {
	abs, err := s.paths.Resolve(path)
	if err != nil {
		return false
	}
	info, err := os.Stat(abs)
	return err == nil && info.Mode().IsRegular()
}

// Metadata stats and hashes the file at path.
func (s *Store) Metadata(path string) (models.FileMetadata, error) {
	abs, err := s.paths.Resolve(path)
	if err != nil {
		return models.FileMetadata{}, err
	}
	return s.metadata(abs)
}

func (s *Store) metadata(abs string) (models.FileMetadata, error) {
	info, err := os.Stat(abs)
	if err != nil {
		return models.FileMetadata{}, apperr.Classify(err, abs)
	}
	sum, err := checksum.File(abs)
	if err != nil {
		return models.FileMetadata{}, apperr.Classify(err, abs)
	}
	rel, err := s.paths.ToRelative(abs)
	if err != nil {
		return models.FileMetadata{}, err
	}
	parsed := s.paths.Parse(abs)
	return models.FileMetadata{
		ID:          parsed.ContentID,
		ContentType: parsed.ContentType,
		FilePath:    rel,
		CreatedAt:   info.ModTime(),
		UpdatedAt:   info.ModTime(),
		Size:        info.Size(),
		Checksum:    sum,
	}, nil
}

// List returns metadata for every markdown file of ct, sorted by path. A
// missing type directory yields an empty slice.
func (s *Store) List(ct models.ContentType) ([]models.FileMetadata, error) {
	dir, err := s.paths.TypeDir(ct)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []models.FileMetadata{}, nil
	}
	if err != nil {
		return nil, apperr.Classify(err, dir)
	}

	out := make([]models.FileMetadata, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || fileutil.IsTemp(e.Name()) {
			continue
		}
		abs := filepath.Join(dir, e.Name())
		if !s.paths.Parse(abs).IsValid {
			continue
		}
		md, err := s.metadata(abs)
		if err != nil {
			if apperr.Is(err, apperr.KindFileNotFound) {
				continue // removed while listing
			}
			return nil, err
		}
		out = append(out, md)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FilePath < out[j].FilePath })
	return out, nil
}

// ListAll lists every content type.
func (s *Store) ListAll() ([]models.FileMetadata, error) {
	var out []models.FileMetadata
	for _, ct := range s.paths.Table().Types() {
		files, err := s.List(ct)
		if err != nil {
			return nil, err
		}
		out = append(out, files...)
	}
	return out, nil
}

// ToRelative converts path to the storage-relative form persisted in JSON.
func (s *Store) ToRelative(path string) (string, error) { return s.paths.ToRelative(path) }

// ToAbsolute converts a storage-relative path to an absolute one.
func (s *Store) ToAbsolute(path string) (string, error) { return s.paths.ToAbsolute(path) }

// CheckContent reports whether content passes the safety policy.
func (s *Store) CheckContent(content string) error { return s.policy.Check(content) }

func (s *Store) check(path, content string) error {
	if err := s.policy.Check(content); err != nil {
		var e *apperr.Error
		if errors.As(err, &e) {
			e.Path = path
		}
		return err
	}
	return nil
}

func (s *Store) requireFile(abs string) error {
	info, err := os.Stat(abs)
	if err != nil {
		return apperr.Classify(err, abs)
	}
	if !info.Mode().IsRegular() {
		return apperr.New(apperr.KindInvalidPath, abs, "not a regular file")
	}
	return nil
}
