// Package store persists time-series summaries and fitted model-matrix
// transforms in SQLite or PostgreSQL through sqlx.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"bookingeda/domain/core"
	"bookingeda/domain/table"
	"bookingeda/internal"
	"bookingeda/internal/errors"
	"bookingeda/internal/migration"
	"bookingeda/internal/modelmatrix"
	"bookingeda/internal/timeseries"
)

// Supported drivers
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Store is the repository for summaries and transforms
type Store struct {
	db       *sqlx.DB
	migrator migration.Migrator
}

// Open connects to the database and verifies the connection
func Open(driver, dsn string) (*Store, error) {
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, errors.StorageError(fmt.Sprintf("failed to connect to %s", driver), err)
	}
	if driver == DriverSQLite {
		// an in-memory database lives and dies with its connection
		db.SetMaxOpenConns(1)
	}
	return New(db), nil
}

// New wraps an existing connection
func New(db *sqlx.DB) *Store {
	return &Store{db: db, migrator: migration.NewRunner()}
}

// DB exposes the underlying connection
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Close closes the connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the schema if it does not exist
func (s *Store) Migrate(ctx context.Context) error {
	internal.DefaultLogger.With("store").Debug("running migrations version %s", s.migrator.Version())
	return s.migrator.Run(ctx, s.db)
}

type runRow struct {
	ID          string    `db:"id"`
	Source      string    `db:"source"`
	GroupColumn string    `db:"group_column"`
	HasMeasure  bool      `db:"has_measure"`
	CreatedAt   time.Time `db:"created_at"`
}

type periodRow struct {
	RunID            string          `db:"run_id"`
	Seq              int             `db:"seq"`
	Period           string          `db:"period"`
	GroupValue       string          `db:"group_value"`
	TotalBookings    int             `db:"total_bookings"`
	CanceledBookings int             `db:"canceled_bookings"`
	CancelRate       float64         `db:"cancel_rate"`
	AvgADR           sql.NullFloat64 `db:"avg_adr"`
}

type transformRow struct {
	ID          string    `db:"id"`
	Fingerprint string    `db:"fingerprint"`
	Payload     string    `db:"payload"`
	FittedAt    time.Time `db:"fitted_at"`
	CreatedAt   time.Time `db:"created_at"`
}

// SaveSummary stores a summary under id in one transaction. source is a
// free-form label such as the input file name.
func (s *Store) SaveSummary(ctx context.Context, id core.RunID, source string, summary *timeseries.Summary) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.StorageError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	run := runRow{
		ID:          id.String(),
		Source:      source,
		GroupColumn: summary.GroupColumn,
		HasMeasure:  summary.HasMeasure,
		CreatedAt:   time.Now().UTC(),
	}
	_, err = tx.NamedExecContext(ctx, `INSERT INTO eda_runs (id, source, group_column, has_measure, created_at)
		VALUES (:id, :source, :group_column, :has_measure, :created_at)`, run)
	if err != nil {
		return errors.StorageError(fmt.Sprintf("failed to save run %s", id), err)
	}

	stmt, err := tx.PrepareNamedContext(ctx, `INSERT INTO eda_periods (
		run_id, seq, period, group_value, total_bookings, canceled_bookings, cancel_rate, avg_adr
	) VALUES (
		:run_id, :seq, :period, :group_value, :total_bookings, :canceled_bookings, :cancel_rate, :avg_adr
	)`)
	if err != nil {
		return errors.StorageError("failed to prepare period insert", err)
	}
	defer stmt.Close()

	for i, p := range summary.Periods {
		row := periodRow{
			RunID:            run.ID,
			Seq:              i,
			Period:           p.Date.Format(table.DateLayout),
			GroupValue:       p.Group,
			TotalBookings:    p.TotalBookings,
			CanceledBookings: p.CanceledBookings,
			CancelRate:       p.CancelRate,
			AvgADR:           sql.NullFloat64{Float64: p.AvgADR, Valid: !math.IsNaN(p.AvgADR)},
		}
		if _, err := stmt.ExecContext(ctx, row); err != nil {
			return errors.StorageError(fmt.Sprintf("failed to save period %d of run %s", i, id), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.StorageError("failed to commit summary", err)
	}
	internal.DefaultLogger.With("store").Debug("saved run %s (%d periods)", id, len(summary.Periods))
	return nil
}

// LoadSummary restores the summary saved under id
func (s *Store) LoadSummary(ctx context.Context, id core.RunID) (*timeseries.Summary, error) {
	var run runRow
	err := s.db.GetContext(ctx, &run, s.db.Rebind(
		`SELECT id, source, group_column, has_measure, created_at FROM eda_runs WHERE id = ?`), id.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.WithCode(errors.CodeNotFound, fmt.Errorf("run %s: %w", id, core.ErrSummaryNotFound))
		}
		return nil, errors.StorageError(fmt.Sprintf("failed to load run %s", id), err)
	}

	var rows []periodRow
	err = s.db.SelectContext(ctx, &rows, s.db.Rebind(`SELECT
		run_id, seq, period, group_value, total_bookings, canceled_bookings, cancel_rate, avg_adr
	FROM eda_periods WHERE run_id = ? ORDER BY seq`), id.String())
	if err != nil {
		return nil, errors.StorageError(fmt.Sprintf("failed to load periods of run %s", id), err)
	}

	summary := &timeseries.Summary{
		GroupColumn: run.GroupColumn,
		HasMeasure:  run.HasMeasure,
		Periods:     make([]timeseries.Period, 0, len(rows)),
	}
	for _, r := range rows {
		date, err := time.Parse(table.DateLayout, r.Period)
		if err != nil {
			return nil, errors.StorageError(fmt.Sprintf("run %s period %d has bad date %q", id, r.Seq, r.Period), err)
		}
		p := timeseries.Period{
			Date:             date,
			Group:            r.GroupValue,
			TotalBookings:    r.TotalBookings,
			CanceledBookings: r.CanceledBookings,
			CancelRate:       r.CancelRate,
			AvgADR:           math.NaN(),
		}
		if r.AvgADR.Valid {
			p.AvgADR = r.AvgADR.Float64
		}
		summary.Periods = append(summary.Periods, p)
	}
	return summary, nil
}

// SaveTransform stores a fitted transform as its JSON payload, keyed by
// the transform ID
func (s *Store) SaveTransform(ctx context.Context, tr *modelmatrix.Transform) error {
	payload, err := json.Marshal(tr)
	if err != nil {
		return errors.Wrap(err, "failed to marshal transform")
	}
	row := transformRow{
		ID:          tr.ID().String(),
		Fingerprint: tr.Fingerprint().String(),
		Payload:     string(payload),
		FittedAt:    tr.FittedAt(),
		CreatedAt:   time.Now().UTC(),
	}
	_, err = s.db.NamedExecContext(ctx, `INSERT INTO eda_transforms (id, fingerprint, payload, fitted_at, created_at)
		VALUES (:id, :fingerprint, :payload, :fitted_at, :created_at)`, row)
	if err != nil {
		return errors.StorageError(fmt.Sprintf("failed to save transform %s", row.ID), err)
	}
	return nil
}

// LoadTransform restores a transform and verifies its fingerprint
func (s *Store) LoadTransform(ctx context.Context, id core.TransformID) (*modelmatrix.Transform, error) {
	var row transformRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(
		`SELECT id, fingerprint, payload, fitted_at, created_at FROM eda_transforms WHERE id = ?`), id.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.WithCode(errors.CodeNotFound, fmt.Errorf("transform %s: %w", id, core.ErrTransformNotFound))
		}
		return nil, errors.StorageError(fmt.Sprintf("failed to load transform %s", id), err)
	}

	var tr modelmatrix.Transform
	if err := json.Unmarshal([]byte(row.Payload), &tr); err != nil {
		return nil, errors.Wrapf(err, "stored transform %s is invalid", id)
	}
	if tr.Fingerprint().String() != row.Fingerprint {
		return nil, errors.InvalidInput(fmt.Sprintf("stored transform %s fingerprint mismatch", id))
	}
	return &tr, nil
}
