package persistence

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
)

//go:embed migrations/postgres/*.sql
var postgresMigrations embed.FS

//go:embed migrations/sqlite/*.sql
var sqliteMigrations embed.FS

// migrate applies every embedded *.sql file under dir, in filename order,
// inside a single transaction. Each file is expected to be idempotent
// (CREATE TABLE IF NOT EXISTS) so repeated startups are safe.
func migrate(db *sql.DB, fsys embed.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("read embedded migrations %q: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin migration transaction: %w", err)
	}
	defer tx.Rollback()

	for _, name := range names {
		data, err := fs.ReadFile(fsys, dir+"/"+name)
		if err != nil {
			return fmt.Errorf("read migration %q: %w", name, err)
		}
		if _, err := tx.Exec(string(data)); err != nil {
			return fmt.Errorf("apply migration %q: %w", name, err)
		}
	}

	return tx.Commit()
}

// MigratePostgres applies the Postgres migration set.
func MigratePostgres(db *sql.DB) error {
	return migrate(db, postgresMigrations, "migrations/postgres")
}

// MigrateSQLite applies the SQLite migration set.
func MigrateSQLite(db *sql.DB) error {
	return migrate(db, sqliteMigrations, "migrations/sqlite")
}
