package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/anhthuvo/storefront/internal/storage/migrations"
	"github.com/pressly/goose/v3"
)

// RunMigrations applies the embedded schema migrations to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// Open opens (or creates) the local sqlite database at dsn, applies
// migrations, and returns it together with a ready Repository.
func Open(ctx context.Context, dsn string) (*sql.DB, Repository, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	return db, NewSQLiteRepository(db), nil
}
