// Package embedding implements the EmbeddingService: a text-to-vector
// stage backed by a persistent, content-addressed cache so repeated runs
// over the same text never re-hit the provider.
package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"impactscan/internal/logger"
)

// Provider is the external embedding collaborator: a batch call preserving
// input order.
type Provider interface {
	GenerateEmbeddings(ctx context.Context, texts []string) ([][]float64, error)
}

// Cache is the persistent embedding cache collaborator. Keyed by
// (text_hash, model_name); inserts are idempotent under conflict.
type Cache interface {
	GetMany(ctx context.Context, hashes []string, model string) (map[string][]float64, error)
	BulkInsert(ctx context.Context, entries []CacheEntry) error
}

// CacheEntry is a row to upsert into the persistent cache.
type CacheEntry struct {
	TextHash  string
	Vector    []float64
	ModelName string
	Dimension int
}

const placeholderText = " "

// Service is the EmbeddingService described by the pipeline's component
// design: validity classification, hashing, cache lookup, batched provider
// calls for misses, and order-preserving reassembly.
type Service struct {
	provider  Provider
	cache     Cache
	model     string
	batchSize int
}

// New constructs an embedding Service. batchSize defaults to 100 when <= 0.
func New(provider Provider, cache Cache, model string, batchSize int) *Service {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Service{provider: provider, cache: cache, model: model, batchSize: batchSize}
}

// Embed embeds an ordered sequence of texts, preserving index alignment.
// Invalid (empty-after-trim) entries are replaced with a placeholder before
// hashing so the output sequence has the same length as the input.
func (s *Service) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	normalized := make([]string, len(texts))
	hashes := make([]string, len(texts))
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			normalized[i] = placeholderText
		} else {
			normalized[i] = t
		}
		hashes[i] = hashText(normalized[i])
	}

	cached, err := s.cache.GetMany(ctx, hashes, s.model)
	if err != nil {
		return nil, fmt.Errorf("embedding cache lookup: %w", err)
	}

	out := make([][]float64, len(texts))
	var missIdx []int
	for i, h := range hashes {
		if v, ok := cached[h]; ok {
			out[i] = v
		} else {
			missIdx = append(missIdx, i)
		}
	}

	logger.Info("embedding cache lookup complete", "total", len(texts), "hits", len(texts)-len(missIdx), "misses", len(missIdx))

	if len(missIdx) == 0 {
		return out, nil
	}

	var newEntries []CacheEntry
	for batchStart := 0; batchStart < len(missIdx); batchStart += s.batchSize {
		batchEnd := batchStart + s.batchSize
		if batchEnd > len(missIdx) {
			batchEnd = len(missIdx)
		}
		batchPositions := missIdx[batchStart:batchEnd]

		batchTexts := make([]string, len(batchPositions))
		for i, pos := range batchPositions {
			batchTexts[i] = normalized[pos]
		}

		vectors, err := s.provider.GenerateEmbeddings(ctx, batchTexts)
		if err != nil {
			return nil, fmt.Errorf("embedding provider batch call: %w", err)
		}
		if len(vectors) != len(batchTexts) {
			return nil, fmt.Errorf("embedding provider returned %d vectors for %d inputs", len(vectors), len(batchTexts))
		}

		for i, pos := range batchPositions {
			out[pos] = vectors[i]
			newEntries = append(newEntries, CacheEntry{
				TextHash:  hashes[pos],
				Vector:    vectors[i],
				ModelName: s.model,
				Dimension: len(vectors[i]),
			})
		}
	}

	if err := s.cache.BulkInsert(ctx, newEntries); err != nil {
		return nil, fmt.Errorf("embedding cache bulk insert: %w", err)
	}

	return out, nil
}

func hashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
