package persistence

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// Postgres is the Postgres-backed implementation of every repository
// interface in this package, sharing a single connection pool.
type Postgres struct {
	db *sql.DB
}

// NewPostgres opens a connection pool against connStr, applies the embedded
// migrations, and returns a ready Postgres store.
func NewPostgres(connStr string, maxConns, idleConns int) (*Postgres, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}

	if maxConns > 0 {
		db.SetMaxOpenConns(maxConns)
	}
	if idleConns > 0 {
		db.SetMaxIdleConns(idleConns)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if err := MigratePostgres(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate postgres: %w", err)
	}

	return &Postgres{db: db}, nil
}

// Close releases the underlying connection pool.
func (p *Postgres) Close() error {
	return p.db.Close()
}
