package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"impactscan/internal/core"
)

// sqliteAuditRepo implements AuditRepository against the SQLite backend.
// Timestamps are stored as RFC 3339 strings.
type sqliteAuditRepo struct{ store *SQLite }

// Audit returns the AuditRepository backed by this store.
func (s *SQLite) Audit() AuditRepository { return sqliteAuditRepo{store: s} }

func (r sqliteAuditRepo) Record(ctx context.Context, entry core.AuditEntry) error {
	props, err := json.Marshal(entry.Properties)
	if err != nil {
		return fmt.Errorf("marshal audit properties for %q: %w", entry.ID, err)
	}

	_, err = r.store.db.ExecContext(ctx,
		`INSERT INTO audit_log (id, actor, action, reference_id, description, properties, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Actor, entry.Action, entry.ReferenceID, entry.Description,
		string(props), entry.Timestamp.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert audit entry %q: %w", entry.ID, err)
	}
	return nil
}

func (r sqliteAuditRepo) List(ctx context.Context, filter AuditFilter) ([]core.AuditEntry, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT id, actor, action, reference_id, description, properties, recorded_at
	          FROM audit_log WHERE 1=1`
	var args []any

	if filter.ReferenceID != "" {
		query += ` AND reference_id = ?`
		args = append(args, filter.ReferenceID)
	}
	if filter.Actor != "" {
		query += ` AND actor = ?`
		args = append(args, filter.Actor)
	}
	if filter.Action != "" {
		query += ` AND action = ?`
		args = append(args, filter.Action)
	}
	query += ` ORDER BY recorded_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, filter.Offset)

	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []core.AuditEntry
	for rows.Next() {
		var e core.AuditEntry
		var props, recordedAt string
		if err := rows.Scan(&e.ID, &e.Actor, &e.Action, &e.ReferenceID, &e.Description, &props, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry row: %w", err)
		}
		if props != "" && props != "null" {
			if err := json.Unmarshal([]byte(props), &e.Properties); err != nil {
				return nil, fmt.Errorf("unmarshal audit properties for %q: %w", e.ID, err)
			}
		}
		if e.Timestamp, err = time.Parse(time.RFC3339Nano, recordedAt); err != nil {
			return nil, fmt.Errorf("parse audit timestamp for %q: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
