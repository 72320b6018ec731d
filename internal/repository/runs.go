// Package repository persists pipeline runs in PostgreSQL.
package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/atinyakov/researchhive/internal/models"
	"github.com/lib/pq"
)

// DefaultRecentLimit caps Recent when limit <= 0.
const DefaultRecentLimit = 20

// PostgresRunRepository journals pipeline runs.
type PostgresRunRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresRunRepository returns a repository over db.
func NewPostgresRunRepository(db *sql.DB) *PostgresRunRepository {
	return &PostgresRunRepository{DB: db}
}

// Record inserts run, or overwrites the row with the same ID.
func (r *PostgresRunRepository) Record(ctx context.Context, run models.Run) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO pipeline_runs (id, username, input_kind, stage, error, video_present, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			stage = EXCLUDED.stage,
			error = EXCLUDED.error,
			video_present = EXCLUDED.video_present,
			finished_at = EXCLUDED.finished_at
	`, run.ID, run.Username, string(run.InputKind), run.Stage, run.Error, run.VideoPresent, run.StartedAt, run.FinishedAt)
	if err != nil {
		return fmt.Errorf("record run %s: %w", run.ID, err)
	}
	return nil
}

// Recent returns the latest runs of username, newest first.
func (r *PostgresRunRepository) Recent(ctx context.Context, username string, limit int) ([]models.Run, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, username, input_kind, stage, error, video_present, started_at, finished_at
		FROM pipeline_runs WHERE username = $1 ORDER BY finished_at DESC LIMIT $2
	`, username, limit)
	if err != nil {
		return nil, fmt.Errorf("recent runs: %w", err)
	}
	defer rows.Close()

	var runs []models.Run
	for rows.Next() {
		var (
			run  models.Run
			kind string
		)
		if err := rows.Scan(&run.ID, &run.Username, &kind, &run.Stage, &run.Error, &run.VideoPresent, &run.StartedAt, &run.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		run.InputKind = models.InputKind(kind)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("recent runs: %w", err)
	}
	return runs, nil
}

// Forget deletes the given runs of username and returns how many went.
func (r *PostgresRunRepository) Forget(ctx context.Context, username string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.DB.ExecContext(ctx,
		`DELETE FROM pipeline_runs WHERE username = $1 AND id = ANY($2)`,
		username, pq.Array(ids),
	)
	if err != nil {
		return 0, fmt.Errorf("forget runs: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
