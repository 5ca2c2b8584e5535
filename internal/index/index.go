package index

import "github.com/rebuildup/my-web-2025-sub004/internal/models"

// FileIndex is the catalog consumers depend on.
type FileIndex interface {
	Upsert(row FileRow, body string, refs []models.EmbedReference) error
	Delete(path string) error
	Get(path string) (*FileRow, error)
	GetChecksum(path string) (string, error)
	AllChecksums() (map[string]string, error)
	Search(q SearchQuery) ([]SearchResult, error)
	EmbedUsage(kind models.EmbedKind, idx int) ([]EmbedUse, error)
	Close() error
}

var _ FileIndex = (*DB)(nil)
