package persistence

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"impactscan/internal/embedding"
)

// GetMany looks up every (hash, model) pair and returns the subset found,
// keyed by hash.
func (p *Postgres) GetMany(ctx context.Context, hashes []string, model string) (map[string][]float64, error) {
	if len(hashes) == 0 {
		return nil, nil
	}

	rows, err := p.db.QueryContext(ctx,
		`SELECT text_hash, vector FROM embedding_cache WHERE model_name = $1 AND text_hash = ANY($2)`,
		model, pq.Array(hashes),
	)
	if err != nil {
		return nil, fmt.Errorf("query embedding cache: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]float64)
	for rows.Next() {
		var hash string
		var vec pq.Float64Array
		if err := rows.Scan(&hash, &vec); err != nil {
			return nil, fmt.Errorf("scan embedding cache row: %w", err)
		}
		out[hash] = []float64(vec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate embedding cache rows: %w", err)
	}

	return out, nil
}

// BulkInsert inserts every entry, ignoring conflicts on the (text_hash,
// model_name) primary key.
func (p *Postgres) BulkInsert(ctx context.Context, entries []embedding.CacheEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin embedding cache insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO embedding_cache (text_hash, model_name, vector, dimension)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (text_hash, model_name) DO NOTHING`,
	)
	if err != nil {
		return fmt.Errorf("prepare embedding cache insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.TextHash, e.ModelName, pq.Array(e.Vector), e.Dimension); err != nil {
			return fmt.Errorf("insert embedding cache entry %q: %w", e.TextHash, err)
		}
	}

	return tx.Commit()
}
