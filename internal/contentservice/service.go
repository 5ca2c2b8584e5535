// Package contentservice coordinates edit-time operations: it writes through
// the content file store, checks embeds, keeps the index current and
// publishes change events.
package contentservice

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/rebuildup/my-web-2025-sub004/internal/apperr"
	"github.com/rebuildup/my-web-2025-sub004/internal/embed"
	"github.com/rebuildup/my-web-2025-sub004/internal/index"
	"github.com/rebuildup/my-web-2025-sub004/internal/models"
	"github.com/rebuildup/my-web-2025-sub004/internal/parser"
	"github.com/rebuildup/my-web-2025-sub004/internal/pathgen"
	"github.com/rebuildup/my-web-2025-sub004/internal/storage"
)

// Publisher receives file change notifications.
type Publisher interface {
	PublishFileEvent(kind, path string)
}

// FileDetail is the full representation of one markdown file.
type FileDetail struct {
	Path        string             `json:"path"`
	ID          string             `json:"id"`
	ContentType models.ContentType `json:"contentType"`
	Title       string             `json:"title"`
	Content     string             `json:"content"`
	Frontmatter map[string]any     `json:"frontmatter,omitempty"`
	Checksum    string             `json:"checksum"`
	Size        int64              `json:"size"`
	UpdatedAt   time.Time          `json:"updatedAt"`
	Warnings    []embed.Issue      `json:"warnings,omitempty"`
}

// PathInfo is the result of GeneratePath.
type PathInfo struct {
	Path     string `json:"path"`
	Absolute string `json:"absolute"`
	Exists   bool   `json:"exists"`
}

// CreateInput describes a new file.
type CreateInput struct {
	ID          string
	ContentType models.ContentType
	Content     string
	// Media, when set, is used to reject out-of-range embeds.
	Media     *models.MediaReferenceSet
	Overwrite bool
}

// UpdateInput describes a change to an existing file.
type UpdateInput struct {
	Path    string
	Content string
	Media   *models.MediaReferenceSet
	Backup  bool
}

// Service is the edit-time coordinator.
type Service struct {
	store  storage.Provider
	paths  *pathgen.Generator
	embeds *embed.Validator
	db     index.FileIndex
	pub    Publisher
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithIndex keeps db in step with every write.
func WithIndex(db index.FileIndex) Option { return func(s *Service) { s.db = db } }

// WithPublisher publishes file events to p.
func WithPublisher(p Publisher) Option { return func(s *Service) { s.pub = p } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(s *Service) { s.logger = l } }

// New creates a Service. A nil validator uses the default iframe hosts.
func New(store storage.Provider, paths *pathgen.Generator, v *embed.Validator, opts ...Option) *Service {
	if v == nil {
		v = embed.NewValidator(nil)
	}
	s := &Service{store: store, paths: paths, embeds: v, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Paths returns the path generator.
func (s *Service) Paths() *pathgen.Generator { return s.paths }

// GeneratePath computes the canonical path for (id, ct). With unique set, a
// numeric suffix is added until the path is free.
func (s *Service) GeneratePath(_ context.Context, id string, ct models.ContentType, opts pathgen.Options, unique bool) (*PathInfo, error) {
	var (
		abs string
		err error
	)
	if unique {
		existing, lerr := s.store.List(ct)
		if lerr != nil {
			return nil, lerr
		}
		taken := make([]string, len(existing))
		for i, md := range existing {
			taken[i] = md.FilePath
		}
		abs, err = s.paths.GenerateUnique(id, ct, taken, opts)
	} else {
		abs, err = s.paths.Generate(id, ct, opts)
	}
	if err != nil {
		return nil, err
	}
	rel, err := s.paths.ToRelative(abs)
	if err != nil {
		return nil, err
	}
	return &PathInfo{Path: rel, Absolute: abs, Exists: s.store.Exists(abs)}, nil
}

// Create writes a new file, indexes it and publishes file.created.
func (s *Service) Create(_ context.Context, in CreateInput) (*FileDetail, error) {
	var warnings []embed.Issue
	if in.Media != nil {
		res := s.embeds.Validate(in.Content, *in.Media)
		if err := embedError("", res); err != nil {
			return nil, err
		}
		warnings = res.Warnings
	}

	var wopts []storage.WriteOption
	if in.Overwrite {
		wopts = append(wopts, storage.WithOverwrite())
	}
	path, err := s.store.Create(in.ID, in.ContentType, in.Content, wopts...)
	if err != nil {
		return nil, err
	}
	detail, err := s.afterWrite(path, in.Content, "created")
	if err != nil {
		return nil, err
	}
	detail.Warnings = warnings
	return detail, nil
}

// Read returns the file at path with its parsed title and metadata.
func (s *Service) Read(_ context.Context, path string) (*FileDetail, error) {
	content, err := s.store.Read(path)
	if err != nil {
		return nil, err
	}
	md, err := s.store.Metadata(path)
	if err != nil {
		return nil, err
	}
	return detailOf(md, content), nil
}

// Update overwrites an existing file. Embed errors against in.Media reject
// the edit with KindEmbed before anything is written.
func (s *Service) Update(_ context.Context, in UpdateInput) (*FileDetail, error) {
	var warnings []embed.Issue
	if in.Media != nil {
		res := s.embeds.Validate(in.Content, *in.Media)
		if err := embedError(in.Path, res); err != nil {
			return nil, err
		}
		warnings = res.Warnings
	}

	var wopts []storage.WriteOption
	if in.Backup {
		wopts = append(wopts, storage.WithBackup())
	}
	if err := s.store.Update(in.Path, in.Content, wopts...); err != nil {
		return nil, err
	}
	detail, err := s.afterWrite(in.Path, in.Content, "updated")
	if err != nil {
		return nil, err
	}
	detail.Warnings = warnings
	return detail, nil
}

// Delete removes the file, drops it from the index and publishes
// file.deleted.
func (s *Service) Delete(_ context.Context, path string) error {
	rel, err := s.store.ToRelative(path)
	if err != nil {
		return err
	}
	if err := s.store.Delete(path); err != nil {
		return err
	}
	if s.db != nil {
		if err := s.db.Delete(rel); err != nil {
			s.logger.Warn("index delete failed", slog.String("path", rel), slog.String("error", err.Error()))
		}
	}
	s.publish("deleted", rel)
	return nil
}

// Exists reports whether path names an existing file.
func (s *Service) Exists(_ context.Context, path string) bool {
	return s.store.Exists(path)
}

// List returns the files of one content type.
func (s *Service) List(_ context.Context, ct models.ContentType) ([]models.FileMetadata, error) {
	return s.store.List(ct)
}

// ValidateEmbeds checks content against media without touching disk.
func (s *Service) ValidateEmbeds(_ context.Context, content string, media models.MediaReferenceSet) embed.Result {
	return s.embeds.Validate(content, media)
}

// ExtractEmbeds lists the embed tokens in content.
func (s *Service) ExtractEmbeds(_ context.Context, content string) []models.EmbedReference {
	return s.embeds.ExtractReferences(content)
}

// Search runs a full-text query against the index. A non-empty q.Type must
// be a known content type.
func (s *Service) Search(_ context.Context, q index.SearchQuery) ([]index.SearchResult, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, apperr.New(apperr.KindValidation, "", "search text is required")
	}
	if q.Type != "" && !q.Type.Known() {
		return nil, apperr.Newf(apperr.KindUnsupportedType, "", "unsupported content type %q", q.Type)
	}
	if s.db == nil {
		return []index.SearchResult{}, nil
	}
	return s.db.Search(q)
}

// EmbedUsage lists files embedding entry idx of the kind array.
func (s *Service) EmbedUsage(_ context.Context, kind models.EmbedKind, idx int) ([]index.EmbedUse, error) {
	if s.db == nil {
		return []index.EmbedUse{}, nil
	}
	return s.db.EmbedUsage(kind, idx)
}

func (s *Service) afterWrite(path, content, kind string) (*FileDetail, error) {
	md, err := s.store.Metadata(path)
	if err != nil {
		return nil, err
	}
	if s.db != nil {
		if err := index.IndexFile(s.db, md, content); err != nil {
			s.logger.Warn("index update failed", slog.String("path", md.FilePath), slog.String("error", err.Error()))
		}
	}
	s.publish(kind, md.FilePath)
	s.logger.Info("markdown file "+kind, slog.String("path", md.FilePath), slog.Int64("size", md.Size))
	return detailOf(md, content), nil
}

func (s *Service) publish(kind, rel string) {
	if s.pub != nil {
		s.pub.PublishFileEvent(kind, rel)
	}
}

func embedError(path string, res embed.Result) error {
	if res.IsValid {
		return nil
	}
	first := res.Errors[0]
	return apperr.Newf(apperr.KindEmbed, path, "%d invalid embed reference(s); first at line %d, column %d: %s",
		len(res.Errors), first.Line, first.Column, first.Message)
}

func detailOf(md models.FileMetadata, content string) *FileDetail {
	res := parser.Parse([]byte(content))
	return &FileDetail{
		Path:        md.FilePath,
		ID:          md.ID,
		ContentType: md.ContentType,
		Title:       res.Title,
		Content:     content,
		Frontmatter: res.Frontmatter,
		Checksum:    md.Checksum,
		Size:        md.Size,
		UpdatedAt:   md.UpdatedAt,
	}
}
