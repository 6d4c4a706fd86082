package run

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

const schema = `
CREATE TABLE IF NOT EXISTS sync_runs (
	id                    UUID PRIMARY KEY,
	status                TEXT NOT NULL,
	dry_run               BOOLEAN NOT NULL DEFAULT FALSE,
	filter_model          TEXT NOT NULL DEFAULT '',
	groups_total          INTEGER NOT NULL DEFAULT 0,
	saved                 INTEGER NOT NULL DEFAULT 0,
	not_found             INTEGER NOT NULL DEFAULT 0,
	skipped               INTEGER NOT NULL DEFAULT 0,
	changed               INTEGER NOT NULL DEFAULT 0,
	reconciliation_errors INTEGER NOT NULL DEFAULT 0,
	quantity_warnings     INTEGER NOT NULL DEFAULT 0,
	error                 TEXT NOT NULL DEFAULT '',
	started_at            TIMESTAMPTZ NOT NULL,
	finished_at           TIMESTAMPTZ
)`

type postgresRepo struct{ db *sql.DB }

// NewPostgresRepository stores run history in PostgreSQL.
func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

// Migrate creates the sync_runs table when missing.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate sync_runs: %w", err)
	}
	return nil
}

func (r *postgresRepo) Create(ctx context.Context, run *Run) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sync_runs
		  (id, status, dry_run, filter_model, started_at)
		VALUES ($1,$2,$3,$4,$5)`,
		run.ID, run.Status, run.DryRun, run.FilterModel, run.StartedAt)
	return err
}

func (r *postgresRepo) Update(ctx context.Context, run *Run) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE sync_runs SET
		  status=$1, groups_total=$2, saved=$3, not_found=$4, skipped=$5, changed=$6,
		  reconciliation_errors=$7, quantity_warnings=$8, error=$9, finished_at=$10
		WHERE id=$11`,
		run.Status, run.Groups, run.Saved, run.NotFound, run.Skipped, run.Changed,
		run.ReconciliationErrors, run.QuantityWarnings, run.Error, run.FinishedAt, run.ID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, run.ID)
	}
	return nil
}

const selectColumns = `id, status, dry_run, filter_model, groups_total, saved, not_found, skipped, changed,
	reconciliation_errors, quantity_warnings, error, started_at, finished_at`

func scanRun(scan func(...interface{}) error) (*Run, error) {
	run := &Run{}
	var finished sql.NullTime
	err := scan(&run.ID, &run.Status, &run.DryRun, &run.FilterModel, &run.Groups, &run.Saved,
		&run.NotFound, &run.Skipped, &run.Changed, &run.ReconciliationErrors, &run.QuantityWarnings,
		&run.Error, &run.StartedAt, &finished)
	if err != nil {
		return nil, err
	}
	if finished.Valid {
		t := finished.Time
		run.FinishedAt = &t
	}
	return run, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*Run, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM sync_runs WHERE id=$1`, uid)
	run, err := scanRun(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return run, err
}

func (r *postgresRepo) ListRecent(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM sync_runs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows.Scan)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
