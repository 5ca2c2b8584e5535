package api

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rebuildup/my-web-2025-sub004/internal/apperr"
	"github.com/rebuildup/my-web-2025-sub004/internal/contentservice"
	"github.com/rebuildup/my-web-2025-sub004/internal/dirs"
	"github.com/rebuildup/my-web-2025-sub004/internal/events"
	"github.com/rebuildup/my-web-2025-sub004/internal/index"
	"github.com/rebuildup/my-web-2025-sub004/internal/migration"
	"github.com/rebuildup/my-web-2025-sub004/internal/models"
	"github.com/rebuildup/my-web-2025-sub004/internal/pathgen"
)

// Publisher receives migration run events.
type Publisher interface {
	Publish(events.Event)
	MigrationProgress(runID string) func(models.MigrationResult)
}

// Handler holds API route handlers.
type Handler struct {
	content  *contentservice.Service
	migrator *migration.Service
	dirs     *dirs.Manager
	pub      Publisher
	logger   *slog.Logger
}

// filePath extracts the file path from the URL (everything after /api/files/).
// Encoded slashes (blog%2Fpost.md) are accepted.
func filePath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

func (h *Handler) requirePath(w http.ResponseWriter, r *http.Request) (string, bool) {
	path := filePath(r)
	if path == "" {
		h.writeError(w, r, apperr.New(apperr.KindInvalidPath, "", "path is required"))
		return "", false
	}
	return path, true
}

// GeneratePath handles POST /api/paths.
//
//	@Summary	Compute the canonical markdown path for a content item
//	@Tags		paths
//	@Accept		json
//	@Produce	json
//	@Param		body	body		GeneratePathRequest	true	"Item to place"
//	@Success	200		{object}	contentservice.PathInfo
//	@Failure	400		{object}	errResponse
//	@Router		/paths [post]
func (h *Handler) GeneratePath(w http.ResponseWriter, r *http.Request) {
	var req GeneratePathRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	ct, _ := models.ParseContentType(req.ContentType)
	opts := pathgen.Options{
		SanitizeNames: req.SanitizeNames,
		AddTimestamp:  req.AddTimestamp,
		MaxLength:     req.MaxLength,
	}
	info, err := h.content.GeneratePath(r.Context(), req.ID, ct, opts, req.Unique)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// CreateFile handles POST /api/files.
//
//	@Summary	Create a markdown file for a content item
//	@Tags		files
//	@Accept		json
//	@Produce	json
//	@Param		body	body		CreateFileRequest	true	"File to create"
//	@Success	201		{object}	FileDetail
//	@Failure	400		{object}	errResponse
//	@Failure	409		{object}	errResponse
//	@Failure	422		{object}	errResponse
//	@Router		/files [post]
func (h *Handler) CreateFile(w http.ResponseWriter, r *http.Request) {
	var req CreateFileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	ct, _ := models.ParseContentType(req.ContentType)
	detail, err := h.content.Create(r.Context(), contentservice.CreateInput{
		ID:          req.ID,
		ContentType: ct,
		Content:     req.Content,
		Media:       req.Media,
		Overwrite:   req.Overwrite,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, detail)
}

// GetFile handles GET /api/files/*.
//
//	@Summary	Read a markdown file
//	@Tags		files
//	@Produce	json
//	@Param		path	path		string	true	"Storage-relative path"
//	@Success	200		{object}	FileDetail
//	@Failure	404		{object}	errResponse
//	@Router		/files/{path} [get]
func (h *Handler) GetFile(w http.ResponseWriter, r *http.Request) {
	path, ok := h.requirePath(w, r)
	if !ok {
		return
	}
	detail, err := h.content.Read(r.Context(), path)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// HeadFile handles HEAD /api/files/*: 200 when the file exists, 404 otherwise.
func (h *Handler) HeadFile(w http.ResponseWriter, r *http.Request) {
	path := filePath(r)
	if path == "" || !h.content.Exists(r.Context(), path) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// UpdateFile handles PUT /api/files/*.
//
//	@Summary	Overwrite an existing markdown file
//	@Tags		files
//	@Accept		json
//	@Produce	json
//	@Param		path	path		string				true	"Storage-relative path"
//	@Param		body	body		UpdateFileRequest	true	"New content"
//	@Success	200		{object}	FileDetail
//	@Failure	404		{object}	errResponse
//	@Failure	422		{object}	errResponse
//	@Router		/files/{path} [put]
func (h *Handler) UpdateFile(w http.ResponseWriter, r *http.Request) {
	path, ok := h.requirePath(w, r)
	if !ok {
		return
	}
	var req UpdateFileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	detail, err := h.content.Update(r.Context(), contentservice.UpdateInput{
		Path:    path,
		Content: req.Content,
		Media:   req.Media,
		Backup:  req.Backup,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// DeleteFile handles DELETE /api/files/*.
//
//	@Summary	Delete a markdown file
//	@Tags		files
//	@Param		path	path	string	true	"Storage-relative path"
//	@Success	204		"File deleted"
//	@Failure	404		{object}	errResponse
//	@Router		/files/{path} [delete]
func (h *Handler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	path, ok := h.requirePath(w, r)
	if !ok {
		return
	}
	if err := h.content.Delete(r.Context(), path); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListFiles handles GET /api/types/{type}/files.
//
//	@Summary	List the markdown files of one content type
//	@Tags		files
//	@Produce	json
//	@Param		type	path		string	true	"Content type"
//	@Success	200		{object}	FileListResponse
//	@Failure	400		{object}	errResponse
//	@Router		/types/{type}/files [get]
func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "type")
	ct, ok := models.ParseContentType(raw)
	if !ok {
		h.writeError(w, r, apperr.Newf(apperr.KindUnsupportedType, "", "unsupported content type %q", raw))
		return
	}
	files, err := h.content.List(r.Context(), ct)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, FileListResponse{ContentType: ct, Files: files})
}

// ValidateEmbeds handles POST /api/embeds/validate.
//
//	@Summary	Check embed references against an item's media arrays
//	@Tags		embeds
//	@Accept		json
//	@Produce	json
//	@Param		body	body		ValidateEmbedsRequest	true	"Content and media"
//	@Success	200		{object}	embed.Result
//	@Router		/embeds/validate [post]
func (h *Handler) ValidateEmbeds(w http.ResponseWriter, r *http.Request) {
	var req ValidateEmbedsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.content.ValidateEmbeds(r.Context(), req.Content, req.Media))
}

// EmbedUsage handles GET /api/embeds/usage?type=image&index=0.
func (h *Handler) EmbedUsage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	kind := models.EmbedKind(q.Get("type"))
	switch kind {
	case models.EmbedImage, models.EmbedVideo, models.EmbedLink:
	default:
		h.writeError(w, r, apperr.New(apperr.KindValidation, "", "type must be image, video or link"))
		return
	}
	idx, err := strconv.Atoi(q.Get("index"))
	if err != nil || idx < 0 {
		h.writeError(w, r, apperr.New(apperr.KindValidation, "", "index must be a non-negative integer"))
		return
	}
	uses, err := h.content.EmbedUsage(r.Context(), kind, idx)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"uses": uses})
}

// Search handles GET /api/search.
//
//	@Summary	Full-text search across markdown files
//	@Tags		search
//	@Produce	json
//	@Param		q		query		string	true	"Search query"
//	@Param		type	query		string	false	"Restrict to one content type"
//	@Param		limit	query		int		false	"Max results"
//	@Success	200		{object}	map[string]any
//	@Failure	400		{object}	errResponse
//	@Router		/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	q := params.Get("q")
	if q == "" {
		h.writeError(w, r, apperr.New(apperr.KindValidation, "", "query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(params.Get("limit"))
	results, err := h.content.Search(r.Context(), index.SearchQuery{
		Text:  q,
		Type:  models.ContentType(params.Get("type")),
		Limit: limit,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// Directories handles GET /api/directories.
func (h *Handler) Directories(w http.ResponseWriter, _ *http.Request) {
	missing := h.dirs.Validate()
	if missing == nil {
		missing = []string{}
	}
	writeJSON(w, http.StatusOK, DirectoriesResponse{
		Base:    h.dirs.Base(),
		Missing: missing,
		Stats:   h.dirs.Stats(),
	})
}

// RunMigration handles POST /api/migration/run.
//
//	@Summary	Migrate legacy JSON content into markdown files
//	@Tags		migration
//	@Accept		json
//	@Produce	json
//	@Param		body	body		MigrationRunRequest	true	"Run options"
//	@Success	200		{object}	models.MigrationSummary
//	@Failure	423		{object}	errResponse
//	@Router		/migration/run [post]
func (h *Handler) RunMigration(w http.ResponseWriter, r *http.Request) {
	var req MigrationRunRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	opts := migration.Options{
		DryRun:            req.DryRun,
		BackupOriginal:    req.BackupOriginal,
		OverwriteExisting: req.OverwriteExisting,
		BatchSize:         req.BatchSize,
		Concurrency:       req.Concurrency,
		RunID:             uuid.NewString(),
	}
	if h.pub != nil {
		opts.Progress = h.pub.MigrationProgress(opts.RunID)
		h.pub.Publish(events.Event{Type: events.TypeMigrationStarted, Data: map[string]any{
			"runId":  opts.RunID,
			"dryRun": opts.DryRun,
		}})
	}

	var (
		sum *models.MigrationSummary
		err error
	)
	if req.File != "" {
		sum, err = h.migrator.MigrateFile(r.Context(), req.File, opts)
	} else {
		sum, err = h.migrator.MigrateAll(r.Context(), opts)
	}
	if h.pub != nil && sum != nil {
		h.pub.Publish(events.Event{Type: events.TypeMigrationFinished, Data: sum})
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// MigrationStatus handles GET /api/migration/status.
//
//	@Summary	Report migrated and pending items per legacy index file
//	@Tags		migration
//	@Produce	json
//	@Success	200	{object}	models.MigrationStatus
//	@Router		/migration/status [get]
func (h *Handler) MigrationStatus(w http.ResponseWriter, r *http.Request) {
	st, err := h.migrator.Status()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// RollbackMigration handles POST /api/migration/rollback.
//
//	@Summary	Undo the migration of the given items
//	@Tags		migration
//	@Accept		json
//	@Produce	json
//	@Param		body	body		RollbackRequest	true	"Item ids"
//	@Success	200		{object}	models.MigrationSummary
//	@Failure	423		{object}	errResponse
//	@Router		/migration/rollback [post]
func (h *Handler) RollbackMigration(w http.ResponseWriter, r *http.Request) {
	var req RollbackRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	sum, err := h.migrator.Rollback(r.Context(), req.IDs)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
