package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"impactscan/internal/core"
)

// ErrNotFound is returned when a document or run lookup finds no row.
var ErrNotFound = errors.New("persistence: not found")

// pgDocumentRepo implements DocumentRepository against a Postgres pool.
type pgDocumentRepo struct{ db *sql.DB }

// Documents returns the DocumentRepository backed by this store.
func (p *Postgres) Documents() DocumentRepository { return pgDocumentRepo{db: p.db} }

// Runs returns the RunRepository backed by this store.
func (p *Postgres) Runs() RunRepository { return pgRunRepo{db: p.db} }

func (r pgDocumentRepo) Create(ctx context.Context, doc core.TrackedDocument) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tracked_documents (id, name, source_kind, uploaded_at, status)
		 VALUES ($1, $2, $3, $4, $5)`,
		doc.ID, doc.Name, doc.SourceKind, doc.UploadedAt, doc.Status,
	)
	if err != nil {
		return fmt.Errorf("insert tracked document %q: %w", doc.ID, err)
	}
	return nil
}

func (r pgDocumentRepo) Get(ctx context.Context, id string) (core.TrackedDocument, error) {
	var doc core.TrackedDocument
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, source_kind, uploaded_at, status FROM tracked_documents WHERE id = $1`, id,
	).Scan(&doc.ID, &doc.Name, &doc.SourceKind, &doc.UploadedAt, &doc.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return core.TrackedDocument{}, ErrNotFound
	}
	if err != nil {
		return core.TrackedDocument{}, fmt.Errorf("get tracked document %q: %w", id, err)
	}
	return doc, nil
}

func (r pgDocumentRepo) List(ctx context.Context) ([]core.TrackedDocument, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, source_kind, uploaded_at, status FROM tracked_documents ORDER BY uploaded_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list tracked documents: %w", err)
	}
	defer rows.Close()

	var docs []core.TrackedDocument
	for rows.Next() {
		var doc core.TrackedDocument
		if err := rows.Scan(&doc.ID, &doc.Name, &doc.SourceKind, &doc.UploadedAt, &doc.Status); err != nil {
			return nil, fmt.Errorf("scan tracked document row: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (r pgDocumentRepo) UpdateStatus(ctx context.Context, id, status string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE tracked_documents SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("update tracked document %q status: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// pgRunRepo implements RunRepository against a Postgres pool.
type pgRunRepo struct{ db *sql.DB }

func (r pgRunRepo) Create(ctx context.Context, run core.AnalysisRun) error {
	impacts, err := json.Marshal(run.BillImpacts)
	if err != nil {
		return fmt.Errorf("marshal bill impacts for run %q: %w", run.ID, err)
	}

	var finishedAt sql.NullTime
	if !run.FinishedAt.IsZero() {
		finishedAt = sql.NullTime{Time: run.FinishedAt, Valid: true}
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO analysis_runs (id, document_id, started_at, finished_at, bill_impacts, status, error)
		 VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''))`,
		run.ID, run.DocumentID, run.StartedAt, finishedAt, impacts, run.Status, run.Error,
	)
	if err != nil {
		return fmt.Errorf("insert analysis run %q: %w", run.ID, err)
	}
	return nil
}

func (r pgRunRepo) Update(ctx context.Context, run core.AnalysisRun) error {
	impacts, err := json.Marshal(run.BillImpacts)
	if err != nil {
		return fmt.Errorf("marshal bill impacts for run %q: %w", run.ID, err)
	}

	var finishedAt sql.NullTime
	if !run.FinishedAt.IsZero() {
		finishedAt = sql.NullTime{Time: run.FinishedAt, Valid: true}
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE analysis_runs SET finished_at = $1, bill_impacts = $2, status = $3, error = NULLIF($4, '')
		 WHERE id = $5`,
		finishedAt, impacts, run.Status, run.Error, run.ID,
	)
	if err != nil {
		return fmt.Errorf("update analysis run %q: %w", run.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r pgRunRepo) Get(ctx context.Context, id string) (core.AnalysisRun, error) {
	var run core.AnalysisRun
	var impacts []byte
	var finishedAt sql.NullTime
	var errText sql.NullString

	err := r.db.QueryRowContext(ctx,
		`SELECT id, document_id, started_at, finished_at, bill_impacts, status, error
		 FROM analysis_runs WHERE id = $1`, id,
	).Scan(&run.ID, &run.DocumentID, &run.StartedAt, &finishedAt, &impacts, &run.Status, &errText)
	if errors.Is(err, sql.ErrNoRows) {
		return core.AnalysisRun{}, ErrNotFound
	}
	if err != nil {
		return core.AnalysisRun{}, fmt.Errorf("get analysis run %q: %w", id, err)
	}

	if finishedAt.Valid {
		run.FinishedAt = finishedAt.Time
	}
	run.Error = errText.String

	if err := json.Unmarshal(impacts, &run.BillImpacts); err != nil {
		return core.AnalysisRun{}, fmt.Errorf("unmarshal bill impacts for run %q: %w", id, err)
	}

	return run, nil
}

func (r pgRunRepo) LatestForDocument(ctx context.Context, documentID string) (core.AnalysisRun, bool, error) {
	var id string
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM analysis_runs WHERE document_id = $1 ORDER BY started_at DESC LIMIT 1`, documentID,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.AnalysisRun{}, false, nil
	}
	if err != nil {
		return core.AnalysisRun{}, false, fmt.Errorf("find latest run for document %q: %w", documentID, err)
	}

	run, err := r.Get(ctx, id)
	if err != nil {
		return core.AnalysisRun{}, false, err
	}
	return run, true, nil
}
