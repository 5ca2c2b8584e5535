package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rebuildup/my-web-2025-sub004/internal/contentservice"
	"github.com/rebuildup/my-web-2025-sub004/internal/dirs"
	"github.com/rebuildup/my-web-2025-sub004/internal/migration"
)

// Deps are the components the API exposes.
type Deps struct {
	Content   *contentservice.Service
	Migration *migration.Service
	Dirs      *dirs.Manager
	// Publisher, if non-nil, receives migration events.
	Publisher Publisher
	// Events, if non-nil, is mounted at GET /events.
	Events http.Handler
	Logger *slog.Logger
}

// NewRouter creates a chi router with all API routes mounted.
func NewRouter(d Deps) chi.Router {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		content:  d.Content,
		migrator: d.Migration,
		dirs:     d.Dirs,
		pub:      d.Publisher,
		logger:   logger,
	}

	r := chi.NewRouter()

	r.Post("/paths", h.GeneratePath)

	// Files CRUD.
	r.Post("/files", h.CreateFile)
	r.Get("/files/*", h.GetFile)
	r.Head("/files/*", h.HeadFile)
	r.Put("/files/*", h.UpdateFile)
	r.Delete("/files/*", h.DeleteFile)
	r.Get("/types/{type}/files", h.ListFiles)

	// Embeds.
	r.Post("/embeds/validate", h.ValidateEmbeds)
	r.Get("/embeds/usage", h.EmbedUsage)

	r.Get("/search", h.Search)
	r.Get("/directories", h.Directories)

	// Migration.
	r.Post("/migration/run", h.RunMigration)
	r.Get("/migration/status", h.MigrationStatus)
	r.Post("/migration/rollback", h.RollbackMigration)

	if d.Events != nil {
		r.Get("/events", d.Events.ServeHTTP)
	}

	return r
}
