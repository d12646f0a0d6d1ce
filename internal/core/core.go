// Package core defines the domain types shared across the conflict-detection
// and impact-synthesis pipeline.
package core

import "time"

// Article is a single numbered provision of a Bill. It is immutable once
// loaded from the bill store.
type Article struct {
	Number              int    `json:"number"`               // Article number within its Bill
	Kind                string `json:"kind"`                 // e.g. "articulo", "disposicion_transitoria"
	Text                string `json:"text"`                 // Verbatim legal passage surfaced to the LLM
	SemanticDescription string `json:"semantic_description"` // Plain-language summary used as the embedding target
}

// Valid reports whether the article's semantic description is usable as an
// embedding target (non-empty after trimming).
func (a Article) Valid() bool {
	return trimmedNonEmpty(a.SemanticDescription)
}

// Bill is a proposed legislative text and its ordered Articles. Immutable
// during a pipeline run.
type Bill struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Source   string    `json:"source,omitempty"`   // e.g. originating legislature or docket reference
	Stage    string    `json:"stage,omitempty"`    // e.g. "committee", "floor", "enacted"
	Articles []Article `json:"articles"`
}

// DocumentPage is one page of the corporate document being analyzed, indexed
// by its original (0-based) page number. The index is never renumbered, even
// when some pages are dropped as invalid.
type DocumentPage struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// Valid reports whether the page has usable text (non-empty after trimming).
func (p DocumentPage) Valid() bool {
	return trimmedNonEmpty(p.Text)
}

// ArticleRef is a back-reference from a flattened Article to its owning Bill,
// carried alongside the Article through the similarity-matching stage.
type ArticleRef struct {
	BillID    string
	BillTitle string
	Article   Article
}

// CandidatePair is a transient (page, article) pair whose embeddings passed
// the similarity threshold. Never persisted.
type CandidatePair struct {
	BillID      string
	BillTitle   string
	ArticleRef  Article
	PageIndex   int
	Similarity  float64
	PageText    string
	ArticleText string
}

// RawImpact is the structured response extracted from the LLM for a single
// CandidatePair, before it is paired with its originating article number.
type RawImpact struct {
	InternalExcerpt   string `json:"extracto_interno"`
	ArticleExcerpt    string `json:"extracto_articulo"`
	Relevance         int    `json:"nivel_relevancia"`
	ImpactDescription string `json:"descripcion_impacto"`
}

// ArticleImpact pairs a RawImpact with the article number it was extracted
// against.
type ArticleImpact struct {
	ArticleNumber     int    `json:"article_number"`
	InternalExcerpt   string `json:"internal_excerpt"`
	ArticleExcerpt    string `json:"article_excerpt"`
	Relevance         int    `json:"relevance"`
	ImpactDescription string `json:"impact_description"`
}

// BillImpact is the final, per-bill synthesis of every surviving
// ArticleImpact triggered against it.
type BillImpact struct {
	BillID                  string          `json:"bill_id"`
	BillTitle               string          `json:"bill_title"`
	Impacts                 []ArticleImpact `json:"impacts"`
	MaxRelevance            int             `json:"max_relevance"`
	ConsolidatedDescription string          `json:"consolidated_description"`
}

// EmbeddingCacheEntry is a row in the persistent, content-addressed embedding
// cache. Rows are only ever inserted, never updated.
type EmbeddingCacheEntry struct {
	TextHash  string    `json:"text_hash"`  // hex SHA-256 of the UTF-8 source text
	Vector    []float64 `json:"vector"`
	ModelName string    `json:"model_name"`
	Dimension int       `json:"dimension"`
	CreatedAt time.Time `json:"created_at"`
}

// TrackedDocument is an ambient persistence row used by the HTTP surface to
// track an uploaded corporate document and its lifecycle. The core pipeline
// never references it directly.
type TrackedDocument struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	SourceKind string    `json:"source_kind"` // "pdf" | "text"
	UploadedAt time.Time `json:"uploaded_at"`
	Status     string    `json:"status"` // "pending" | "analyzed" | "discarded"
}

// AnalysisRun is an ambient persistence row recording one PipelineDriver
// execution against a TrackedDocument.
type AnalysisRun struct {
	ID          string       `json:"id"`
	DocumentID  string       `json:"document_id"`
	StartedAt   time.Time    `json:"started_at"`
	FinishedAt  time.Time    `json:"finished_at"`
	BillImpacts []BillImpact `json:"bill_impacts"`
	Status      string       `json:"status"` // "running" | "succeeded" | "failed"
	Error       string       `json:"error,omitempty"`
}

// AuditEntry is one recorded action against a tracked document, run, or
// cache, written by the HTTP surface and CLI and never consulted by the
// pipeline itself.
type AuditEntry struct {
	ID          string         `json:"id"`
	Actor       string         `json:"actor"`
	Action      string         `json:"action"`       // e.g. "document_uploaded", "run_started"
	ReferenceID string         `json:"reference_id"` // id of the document, run, or cache acted on
	Description string         `json:"description,omitempty"`
	Properties  map[string]any `json:"properties,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
}

func trimmedNonEmpty(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return true
		}
	}
	return false
}
