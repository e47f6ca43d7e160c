package ingest

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepo struct {
	db *pgxpool.Pool
}

func NewPostgresRepo(db *pgxpool.Pool) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) CreateRun(ctx context.Context, run *Run) error {
	const sql = `
		INSERT INTO sync_runs (id, trigger, status, started_at)
		VALUES ($1, $2, $3, $4)`

	id := uuid.NewString()
	if _, err := r.db.Exec(ctx, sql, id, run.Trigger, run.Status, run.StartedAt); err != nil {
		return err
	}
	run.ID = id
	return nil
}

func (r *PostgresRepo) UpdateRun(ctx context.Context, run *Run) error {
	const sql = `
		UPDATE sync_runs SET
			finished_at = $1,
			status = $2,
			processed = $3,
			succeeded = $4,
			failed = $5,
			skipped = $6,
			error = $7
		WHERE id = $8`

	_, err := r.db.Exec(ctx, sql, run.FinishedAt, run.Status, run.Processed, run.Succeeded, run.Failed, run.Skipped, run.Error, run.ID)
	return err
}

func (r *PostgresRepo) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, trigger, started_at, finished_at, status, processed, succeeded, failed, skipped, error
		FROM sync_runs
		ORDER BY started_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Trigger, &run.StartedAt, &run.FinishedAt, &run.Status,
			&run.Processed, &run.Succeeded, &run.Failed, &run.Skipped, &run.Error); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
