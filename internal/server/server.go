// Package server exposes the HTTP surface around the pipeline: document
// upload, run triggering, run/document inspection, the audit log, and a
// read-only admin surface.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"impactscan/internal/config"
	"impactscan/internal/core"
	"impactscan/internal/docloader"
	"impactscan/internal/logger"
	"impactscan/internal/persistence"
	"impactscan/internal/pipeline"
)

// adminActor is the actor recorded on audit entries. The admin API is a
// single shared-secret surface with no per-user identity.
const adminActor = "admin"

// Server holds the collaborators the HTTP surface depends on.
type Server struct {
	router     chi.Router
	documents  persistence.DocumentRepository
	runs       persistence.RunRepository
	audit      persistence.AuditRepository
	cacheAdmin persistence.CacheAdmin
	driver     *pipeline.Driver
	dataDir    string
}

// New constructs a Server and wires its routes.
func New(
	cfg *config.Config,
	documents persistence.DocumentRepository,
	runs persistence.RunRepository,
	audit persistence.AuditRepository,
	cacheAdmin persistence.CacheAdmin,
	driver *pipeline.Driver,
) *Server {
	s := &Server{
		router:     chi.NewRouter(),
		documents:  documents,
		runs:       runs,
		audit:      audit,
		cacheAdmin: cacheAdmin,
		driver:     driver,
		dataDir:    cfg.App.DataDir,
	}

	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)

	if cfg.Server.CORS.Enabled {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.Server.CORS.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "DELETE"},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
		}))
	}

	s.router.Group(func(r chi.Router) {
		r.Use(requireAdminAPI(cfg.Server.AdminAPIKey))

		r.Post("/documents", s.handleUploadDocument)
		r.Get("/documents", s.handleListDocuments)
		r.Delete("/documents/{id}", s.handleDeleteDocument)
		r.Post("/documents/{id}/runs", s.handleCreateRun)
		r.Get("/runs/{id}", s.handleGetRun)

		r.Get("/audit", s.handleListAudit)
		r.Get("/admin/documents", s.handleAdminDocuments)
		r.Get("/admin/embedding-cache", s.handleAdminEmbeddingCache)
	})

	return s
}

// Router returns the underlying chi router for use by an http.Server.
func (s *Server) Router() http.Handler {
	return s.router
}

// recordAudit writes an audit entry for an action that already happened. A
// recording failure is logged, never surfaced: the audit trail must not be
// able to abort the action it describes.
func (s *Server) recordAudit(r *http.Request, action, referenceID, description string, properties map[string]any) {
	entry := core.AuditEntry{
		ID:          uuid.NewString(),
		Actor:       adminActor,
		Action:      action,
		ReferenceID: referenceID,
		Description: description,
		Properties:  properties,
		Timestamp:   time.Now(),
	}
	if err := s.audit.Record(r.Context(), entry); err != nil {
		logger.Warn("failed to record audit entry", "action", action, "reference_id", referenceID, "error", err)
	}
}

func docLoaderFor(filename string) docloader.Loader {
	return docloader.ForExtension(extOf(filename))
}

func extOf(filename string) string {
	for i := len(filename) - 1; i >= 0; i-- {
		if filename[i] == '.' {
			return filename[i:]
		}
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
