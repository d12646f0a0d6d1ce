package persistence

import (
	"context"
	"fmt"
	"time"

	"impactscan/internal/core"
)

// CacheAdmin exposes maintenance and inspection operations on the embedding
// cache, used by the CLI's "cache stats"/"cache clear" subcommands and the
// HTTP admin surface.
type CacheAdmin interface {
	CacheCount(ctx context.Context) (int, error)
	CacheClear(ctx context.Context) (int, error)
	CacheEntries(ctx context.Context, limit, offset int) ([]core.EmbeddingCacheEntry, error)
}

// CacheCount returns the number of rows in the embedding cache.
func (p *Postgres) CacheCount(ctx context.Context) (int, error) {
	var n int
	err := p.db.QueryRowContext(ctx, `SELECT count(*) FROM embedding_cache`).Scan(&n)
	return n, err
}

// CacheClear deletes every row in the embedding cache and reports how many
// were removed.
func (p *Postgres) CacheClear(ctx context.Context) (int, error) {
	n, err := p.CacheCount(ctx)
	if err != nil {
		return 0, err
	}
	_, err = p.db.ExecContext(ctx, `DELETE FROM embedding_cache`)
	return n, err
}

// CacheEntries lists embedding cache rows newest first, metadata only (the
// vectors themselves are omitted).
func (p *Postgres) CacheEntries(ctx context.Context, limit, offset int) ([]core.EmbeddingCacheEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := p.db.QueryContext(ctx,
		`SELECT text_hash, model_name, dimension, created_at FROM embedding_cache
		 ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list embedding cache entries: %w", err)
	}
	defer rows.Close()

	var entries []core.EmbeddingCacheEntry
	for rows.Next() {
		var e core.EmbeddingCacheEntry
		if err := rows.Scan(&e.TextHash, &e.ModelName, &e.Dimension, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan embedding cache entry row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CacheCount returns the number of rows in the embedding cache.
func (s *SQLite) CacheCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM embedding_cache`).Scan(&n)
	return n, err
}

// CacheClear deletes every row in the embedding cache and reports how many
// were removed.
func (s *SQLite) CacheClear(ctx context.Context) (int, error) {
	n, err := s.CacheCount(ctx)
	if err != nil {
		return 0, err
	}
	_, err = s.db.ExecContext(ctx, `DELETE FROM embedding_cache`)
	return n, err
}

// CacheEntries lists embedding cache rows newest first, metadata only.
func (s *SQLite) CacheEntries(ctx context.Context, limit, offset int) ([]core.EmbeddingCacheEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT text_hash, model_name, dimension, created_at FROM embedding_cache
		 ORDER BY created_at DESC LIMIT ? OFFSET ?`, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list embedding cache entries: %w", err)
	}
	defer rows.Close()

	var entries []core.EmbeddingCacheEntry
	for rows.Next() {
		var e core.EmbeddingCacheEntry
		var createdAt string
		if err := rows.Scan(&e.TextHash, &e.ModelName, &e.Dimension, &createdAt); err != nil {
			return nil, fmt.Errorf("scan embedding cache entry row: %w", err)
		}
		if t, err := time.Parse("2006-01-02 15:04:05", createdAt); err == nil {
			e.CreatedAt = t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
