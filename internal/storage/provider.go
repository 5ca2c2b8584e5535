// Package storage is the content file store: CRUD on individual markdown
// files laid out as {base}/{typeDir}/{contentId}.md.
package storage

import "github.com/rebuildup/my-web-2025-sub004/internal/models"

// Provider is the set of file operations consumers depend on. Paths may be
// absolute or storage-relative; returned paths are absolute.
type Provider interface {
	Create(id string, ct models.ContentType, content string, opts ...WriteOption) (string, error)
	Read(path string) (string, error)
	Update(path, content string, opts ...WriteOption) error
	Delete(path string) error
	Exists(path string) bool
	Metadata(path string) (models.FileMetadata, error)
	List(ct models.ContentType) ([]models.FileMetadata, error)
	ToRelative(path string) (string, error)
	ToAbsolute(path string) (string, error)
	// CheckContent applies the content safety policy without writing.
	CheckContent(content string) error
}

// WriteOption tunes Create and Update.
type WriteOption func(*writeOptions)

type writeOptions struct {
	overwrite bool
	backup    bool
}

// WithOverwrite lets Create replace an existing file.
func WithOverwrite() WriteOption {
	return func(o *writeOptions) { o.overwrite = true }
}

// WithBackup makes Update copy the previous file to <file>.bak first.
func WithBackup() WriteOption {
	return func(o *writeOptions) { o.backup = true }
}

func collect(opts []WriteOption) writeOptions {
	var o writeOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
