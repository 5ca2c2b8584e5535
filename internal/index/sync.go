package index

import (
	"log/slog"

	"github.com/rebuildup/my-web-2025-sub004/internal/embed"
	"github.com/rebuildup/my-web-2025-sub004/internal/models"
	"github.com/rebuildup/my-web-2025-sub004/internal/parser"
)

// Source is the read side of the content file store.
type Source interface {
	ListAll() ([]models.FileMetadata, error)
	Read(path string) (string, error)
	Metadata(path string) (models.FileMetadata, error)
	ToRelative(path string) (string, error)
}

// Sync brings the index up to date with the store: new or changed files are
// parsed and upserted, files gone from disk are removed.
func Sync(db FileIndex, src Source, logger *slog.Logger) error {
	metas, err := src.ListAll()
	if err != nil {
		return err
	}
	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	indexed := 0
	for _, m := range metas {
		disk[m.FilePath] = struct{}{}
		if checksums[m.FilePath] == m.Checksum {
			continue
		}
		content, err := src.Read(m.FilePath)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.FilePath), slog.String("error", err.Error()))
			continue
		}
		if err := IndexFile(db, m, content); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.FilePath), slog.String("error", err.Error()))
			continue
		}
		indexed++
	}

	removed := 0
	for p := range checksums {
		if _, ok := disk[p]; ok {
			continue
		}
		if err := db.Delete(p); err != nil {
			logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		removed++
	}

	logger.Info("index synced",
		slog.Int("files", len(metas)),
		slog.Int("indexed", indexed),
		slog.Int("removed", removed),
	)
	return nil
}

// IndexFile parses content and upserts it with its embed references.
func IndexFile(db FileIndex, md models.FileMetadata, content string) error {
	res := parser.Parse([]byte(content))
	row := FileRow{
		Path:        md.FilePath,
		ContentType: md.ContentType,
		ContentID:   md.ID,
		Title:       res.Title,
		Checksum:    md.Checksum,
		Size:        md.Size,
		UpdatedAt:   md.UpdatedAt,
	}
	return db.Upsert(row, res.Body, embed.ExtractReferences(content))
}
