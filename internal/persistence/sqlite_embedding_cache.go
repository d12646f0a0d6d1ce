package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"impactscan/internal/embedding"
)

// GetMany looks up every (hash, model) pair and returns the subset found,
// keyed by hash. Vectors are stored as JSON arrays since SQLite has no
// native array type.
func (s *SQLite) GetMany(ctx context.Context, hashes []string, model string) (map[string][]float64, error) {
	if len(hashes) == 0 {
		return nil, nil
	}

	placeholders := make([]byte, 0, len(hashes)*2)
	args := make([]any, 0, len(hashes)+1)
	args = append(args, model)
	for i, h := range hashes {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
		args = append(args, h)
	}

	query := fmt.Sprintf(
		`SELECT text_hash, vector FROM embedding_cache WHERE model_name = ? AND text_hash IN (%s)`,
		string(placeholders),
	)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query embedding cache: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]float64)
	for rows.Next() {
		var hash, vecJSON string
		if err := rows.Scan(&hash, &vecJSON); err != nil {
			return nil, fmt.Errorf("scan embedding cache row: %w", err)
		}
		var vec []float64
		if err := json.Unmarshal([]byte(vecJSON), &vec); err != nil {
			return nil, fmt.Errorf("unmarshal cached vector for %q: %w", hash, err)
		}
		out[hash] = vec
	}
	return out, rows.Err()
}

// BulkInsert inserts every entry, ignoring conflicts on the (text_hash,
// model_name) primary key.
func (s *SQLite) BulkInsert(ctx context.Context, entries []embedding.CacheEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin embedding cache insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO embedding_cache (text_hash, model_name, vector, dimension) VALUES (?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare embedding cache insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		vecJSON, err := json.Marshal(e.Vector)
		if err != nil {
			return fmt.Errorf("marshal vector for %q: %w", e.TextHash, err)
		}
		if _, err := stmt.ExecContext(ctx, e.TextHash, e.ModelName, string(vecJSON), e.Dimension); err != nil {
			return fmt.Errorf("insert embedding cache entry %q: %w", e.TextHash, err)
		}
	}

	return tx.Commit()
}
