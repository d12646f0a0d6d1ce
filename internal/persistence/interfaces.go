// Package persistence implements the ambient persistence layer: the
// embedding cache repository (consumed by internal/embedding) and the
// TrackedDocument / AnalysisRun repositories consumed by the HTTP surface.
package persistence

import (
	"context"

	"impactscan/internal/core"
	"impactscan/internal/embedding"
)

// EmbeddingCacheRepository is the persistent, content-addressed embedding
// cache store. Keyed by (text_hash, model_name); inserts are idempotent
// under conflict. Satisfies embedding.Cache.
type EmbeddingCacheRepository interface {
	GetMany(ctx context.Context, hashes []string, model string) (map[string][]float64, error)
	BulkInsert(ctx context.Context, entries []embedding.CacheEntry) error
}

// DocumentRepository tracks uploaded corporate documents.
type DocumentRepository interface {
	Create(ctx context.Context, doc core.TrackedDocument) error
	Get(ctx context.Context, id string) (core.TrackedDocument, error)
	List(ctx context.Context) ([]core.TrackedDocument, error)
	UpdateStatus(ctx context.Context, id, status string) error
}

// RunRepository tracks PipelineDriver executions against a TrackedDocument.
type RunRepository interface {
	Create(ctx context.Context, run core.AnalysisRun) error
	Update(ctx context.Context, run core.AnalysisRun) error
	Get(ctx context.Context, id string) (core.AnalysisRun, error)
	LatestForDocument(ctx context.Context, documentID string) (core.AnalysisRun, bool, error)
}

// AuditFilter narrows an audit-log listing. Zero-valued fields match
// everything; Limit defaults to 100 when <= 0.
type AuditFilter struct {
	ReferenceID string
	Actor       string
	Action      string
	Offset      int
	Limit       int
}

// AuditRepository records and lists actions taken through the HTTP surface
// and CLI. Recording failures are the caller's to tolerate; they must never
// abort the action being audited.
type AuditRepository interface {
	Record(ctx context.Context, entry core.AuditEntry) error
	List(ctx context.Context, filter AuditFilter) ([]core.AuditEntry, error)
}
