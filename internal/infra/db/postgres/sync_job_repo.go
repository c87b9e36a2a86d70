package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/PsyDak-Meng/Dukira-web-hook/internal/domain"
	"github.com/PsyDak-Meng/Dukira-web-hook/internal/domain/model"
	"github.com/PsyDak-Meng/Dukira-web-hook/internal/domain/ports/repository"
)

var _ repository.SyncJobRepository = (*syncJobRepo)(nil)

type syncJobRepo struct {
	pool *pgxpool.Pool
}

func NewSyncJobRepo(pool *pgxpool.Pool) *syncJobRepo {
	return &syncJobRepo{pool: pool}
}

func (r *syncJobRepo) Save(ctx context.Context, tx repository.Tx, job *model.SyncJob) error {
	const q = `
INSERT INTO sync_jobs (id, store_id, job_type, started_at, completed_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE SET
  completed_at = EXCLUDED.completed_at;`

	_, err := execSQL(ctx, r.pool, tx, q,
		job.ID, job.StoreID, string(job.Type), job.StartedAt, job.CompletedAt, job.CreatedAt)
	return err
}

func (r *syncJobRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.SyncJob, error) {
	const q = `
SELECT id, store_id, job_type, started_at, completed_at, created_at
FROM sync_jobs WHERE id = $1;`

	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}

	var job model.SyncJob
	var jobType string
	if err := row.Scan(&job.ID, &job.StoreID, &jobType, &job.StartedAt, &job.CompletedAt, &job.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	job.Type = model.JobType(jobType)
	return &job, nil
}

func (r *syncJobRepo) LastCompletedAt(ctx context.Context, tx repository.Tx, storeID string) (time.Time, error) {
	const q = `
SELECT completed_at FROM sync_jobs
WHERE store_id = $1 AND completed_at IS NOT NULL
ORDER BY completed_at DESC
LIMIT 1;`

	row, err := pickRow(ctx, r.pool, tx, q, storeID)
	if err != nil {
		return time.Time{}, err
	}

	var completed time.Time
	if err := row.Scan(&completed); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, nil // never synced
		}
		return time.Time{}, domain.ErrReadDatabaseRow
	}
	return completed, nil
}
