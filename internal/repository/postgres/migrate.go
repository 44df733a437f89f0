package postgres

import (
	"context"
	"crypto/sha256"
	"database/sql"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var schema string

// ApplySchema applies the embedded schema once, recording its hash in a
// migrations table so restarts with an unchanged schema are no-ops.
func ApplySchema(ctx context.Context, db *sql.DB) error {
	if err := ensureMigrationTable(ctx, db); err != nil {
		return err
	}

	hash := fmt.Sprintf("%x", sha256.Sum256([]byte(schema)))
	applied, err := isHashApplied(ctx, db, hash)
	if err != nil {
		return err
	}
	if applied {
		return nil
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	_, err = db.ExecContext(ctx, `INSERT INTO migrations (name, hash) VALUES ($1, $2)`, "schema.sql", hash)
	return err
}

func ensureMigrationTable(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS migrations (
	id SERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	hash TEXT NOT NULL,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE UNIQUE INDEX IF NOT EXISTS migrations_name_hash_idx ON migrations (name, hash);
`)
	return err
}

func isHashApplied(ctx context.Context, db *sql.DB, hash string) (bool, error) {
	var exists bool
	err := db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM migrations WHERE name = $1 AND hash = $2)`, "schema.sql", hash).Scan(&exists)
	return exists, err
}
