package server

import (
	"fmt"
	"net/http"
	"strconv"

	"impactscan/internal/core"
	"impactscan/internal/persistence"
)

// adminDocument is one row of the admin document listing: the tracked
// document plus its latest run's outcome.
type adminDocument struct {
	Document        core.TrackedDocument `json:"document"`
	LatestRunID     string               `json:"latest_run_id,omitempty"`
	LatestRunStatus string               `json:"latest_run_status,omitempty"`
	BillsImpacted   int                  `json:"bills_impacted"`
}

// adminCacheEntry is one row of the embedding-cache listing. Only the hash
// prefix is exposed; full hashes add noise without aiding inspection.
type adminCacheEntry struct {
	TextHashPrefix string `json:"text_hash_prefix"`
	ModelName      string `json:"model_name"`
	Dimension      int    `json:"dimension"`
	CreatedAt      string `json:"created_at"`
}

func (s *Server) handleListAudit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := persistence.AuditFilter{
		ReferenceID: q.Get("reference_id"),
		Actor:       q.Get("actor"),
		Action:      q.Get("action"),
		Offset:      intParam(q.Get("offset"), 0),
		Limit:       intParam(q.Get("limit"), 100),
	}

	entries, err := s.audit.List(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("list audit entries: %s", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"audit_entries": entries})
}

func (s *Server) handleAdminDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.documents.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("list documents: %s", err))
		return
	}

	out := make([]adminDocument, 0, len(docs))
	for _, doc := range docs {
		row := adminDocument{Document: doc}
		run, ok, err := s.runs.LatestForDocument(r.Context(), doc.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("load latest run for %s: %s", doc.ID, err))
			return
		}
		if ok {
			row.LatestRunID = run.ID
			row.LatestRunStatus = run.Status
			row.BillsImpacted = len(run.BillImpacts)
		}
		out = append(out, row)
	}

	writeJSON(w, http.StatusOK, map[string]any{"documents": out})
}

func (s *Server) handleAdminEmbeddingCache(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	total, err := s.cacheAdmin.CacheCount(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("count embedding cache entries: %s", err))
		return
	}

	entries, err := s.cacheAdmin.CacheEntries(r.Context(), intParam(q.Get("limit"), 100), intParam(q.Get("offset"), 0))
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("list embedding cache entries: %s", err))
		return
	}

	rows := make([]adminCacheEntry, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, adminCacheEntry{
			TextHashPrefix: hashPrefix(e.TextHash),
			ModelName:      e.ModelName,
			Dimension:      e.Dimension,
			CreatedAt:      e.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"total": total, "entries": rows})
}

func hashPrefix(hash string) string {
	if len(hash) <= 16 {
		return hash
	}
	return hash[:16] + "..."
}

func intParam(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
