package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"impactscan/internal/core"
)

// pgAuditRepo implements AuditRepository against a Postgres pool.
type pgAuditRepo struct{ db *sql.DB }

// Audit returns the AuditRepository backed by this store.
func (p *Postgres) Audit() AuditRepository { return pgAuditRepo{db: p.db} }

func (r pgAuditRepo) Record(ctx context.Context, entry core.AuditEntry) error {
	props, err := json.Marshal(entry.Properties)
	if err != nil {
		return fmt.Errorf("marshal audit properties for %q: %w", entry.ID, err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO audit_log (id, actor, action, reference_id, description, properties, recorded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.Actor, entry.Action, entry.ReferenceID, entry.Description, props, entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry %q: %w", entry.ID, err)
	}
	return nil
}

func (r pgAuditRepo) List(ctx context.Context, filter AuditFilter) ([]core.AuditEntry, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT id, actor, action, reference_id, description, properties, recorded_at
	          FROM audit_log WHERE 1=1`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.ReferenceID != "" {
		query += ` AND reference_id = ` + arg(filter.ReferenceID)
	}
	if filter.Actor != "" {
		query += ` AND actor = ` + arg(filter.Actor)
	}
	if filter.Action != "" {
		query += ` AND action = ` + arg(filter.Action)
	}
	query += ` ORDER BY recorded_at DESC LIMIT ` + arg(limit) + ` OFFSET ` + arg(filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []core.AuditEntry
	for rows.Next() {
		var e core.AuditEntry
		var props []byte
		if err := rows.Scan(&e.ID, &e.Actor, &e.Action, &e.ReferenceID, &e.Description, &props, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit entry row: %w", err)
		}
		if len(props) > 0 {
			if err := json.Unmarshal(props, &e.Properties); err != nil {
				return nil, fmt.Errorf("unmarshal audit properties for %q: %w", e.ID, err)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
