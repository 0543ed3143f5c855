package migration

import (
	"context"

	"bookingeda/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations. The schema sticks to
// types that SQLite and PostgreSQL both accept.
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order. Every
// statement is idempotent.
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createRunsTable(ctx, db); err != nil {
		return errors.StorageError("failed to create eda_runs table", err)
	}

	if err := r.createPeriodsTable(ctx, db); err != nil {
		return errors.StorageError("failed to create eda_periods table", err)
	}

	if err := r.createTransformsTable(ctx, db); err != nil {
		return errors.StorageError("failed to create eda_transforms table", err)
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.StorageError("failed to create indexes", err)
	}

	return nil
}

func (r *MigrationRunner) createRunsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS eda_runs (
			id VARCHAR(64) PRIMARY KEY,
			source TEXT NOT NULL DEFAULT '',
			group_column VARCHAR(255) NOT NULL DEFAULT '',
			has_measure BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP NOT NULL
		)
	`)
	return err
}

func (r *MigrationRunner) createPeriodsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS eda_periods (
			run_id VARCHAR(64) NOT NULL REFERENCES eda_runs(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			period VARCHAR(10) NOT NULL,
			group_value TEXT NOT NULL DEFAULT '',
			total_bookings INTEGER NOT NULL,
			canceled_bookings INTEGER NOT NULL,
			cancel_rate DOUBLE PRECISION NOT NULL,
			avg_adr DOUBLE PRECISION,
			PRIMARY KEY (run_id, seq)
		)
	`)
	return err
}

func (r *MigrationRunner) createTransformsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS eda_transforms (
			id VARCHAR(64) PRIMARY KEY,
			fingerprint VARCHAR(64) NOT NULL,
			payload TEXT NOT NULL,
			fitted_at TIMESTAMP NOT NULL,
			created_at TIMESTAMP NOT NULL
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_eda_runs_created_at ON eda_runs(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_eda_transforms_fingerprint ON eda_transforms(fingerprint)`,
	}
	for _, stmt := range indexes {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
