package api

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/rebuildup/my-web-2025-sub004/internal/contentservice"
	"github.com/rebuildup/my-web-2025-sub004/internal/dirs"
	"github.com/rebuildup/my-web-2025-sub004/internal/models"
	"github.com/rebuildup/my-web-2025-sub004/internal/pathgen"
)

var knownType = validation.By(func(v any) error {
	s, _ := v.(string)
	if _, ok := models.ParseContentType(s); !ok {
		return errors.New("must be a supported content type")
	}
	return nil
})

// GeneratePathRequest is the request body for POST /paths.
type GeneratePathRequest struct {
	ID            string `json:"id" example:"hello-world"`
	ContentType   string `json:"contentType" example:"blog"`
	SanitizeNames bool   `json:"sanitizeNames"`
	AddTimestamp  bool   `json:"addTimestamp"`
	MaxLength     int    `json:"maxLength"`
	Unique        bool   `json:"unique"`
}

// Validate checks the request fields.
func (r *GeneratePathRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ID, validation.Required),
		validation.Field(&r.ContentType, validation.Required, knownType),
		validation.Field(&r.MaxLength, validation.Min(0), validation.Max(pathgen.DefaultMaxFilenameLength)),
	)
}

// CreateFileRequest is the request body for POST /files.
type CreateFileRequest struct {
	ID          string                    `json:"id" example:"hello-world"`
	ContentType string                    `json:"contentType" example:"blog"`
	Content     string                    `json:"content" example:"# Hello"`
	Media       *models.MediaReferenceSet `json:"media,omitempty"`
	Overwrite   bool                      `json:"overwrite"`
}

// Validate checks the request fields.
func (r *CreateFileRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ID, validation.Required, validation.Length(1, models.MaxContentIDLength)),
		validation.Field(&r.ContentType, validation.Required, knownType),
		validation.Field(&r.Content, validation.Required),
	)
}

// UpdateFileRequest is the request body for PUT /files/*.
type UpdateFileRequest struct {
	Content string                    `json:"content" example:"# Updated"`
	Media   *models.MediaReferenceSet `json:"media,omitempty"`
	Backup  bool                      `json:"backup"`
}

// Validate checks the request fields.
func (r *UpdateFileRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Content, validation.Required),
	)
}

// ValidateEmbedsRequest is the request body for POST /embeds/validate.
type ValidateEmbedsRequest struct {
	Content string                   `json:"content"`
	Media   models.MediaReferenceSet `json:"media"`
}

// Validate accepts any content, including empty.
func (r *ValidateEmbedsRequest) Validate() error { return nil }

// MigrationRunRequest is the request body for POST /migration/run. File,
// when set, limits the run to one legacy index file.
type MigrationRunRequest struct {
	File              string `json:"file,omitempty" example:"blog.json"`
	DryRun            bool   `json:"dryRun"`
	BackupOriginal    bool   `json:"backupOriginal"`
	OverwriteExisting bool   `json:"overwriteExisting"`
	BatchSize         int    `json:"batchSize"`
	Concurrency       int    `json:"concurrency"`
}

// Validate checks the request fields.
func (r *MigrationRunRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.BatchSize, validation.Min(0), validation.Max(1000)),
		validation.Field(&r.Concurrency, validation.Min(0), validation.Max(64)),
	)
}

// RollbackRequest is the request body for POST /migration/rollback.
type RollbackRequest struct {
	IDs []string `json:"ids"`
}

// Validate checks the request fields.
func (r *RollbackRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.IDs, validation.Required, validation.Each(validation.Required)),
	)
}

// FileDetail is the full file response type (aliased from the domain layer).
type FileDetail = contentservice.FileDetail

// FileListResponse wraps the files of one content type.
type FileListResponse struct {
	ContentType models.ContentType    `json:"contentType"`
	Files       []models.FileMetadata `json:"files"`
}

// DirectoriesResponse reports the directory taxonomy.
type DirectoriesResponse struct {
	Base    string                                `json:"base"`
	Missing []string                              `json:"missing"`
	Stats   map[models.ContentType]dirs.TypeStats `json:"stats"`
}
