package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/PsyDak-Meng/Dukira-web-hook/internal/domain"
	"github.com/PsyDak-Meng/Dukira-web-hook/internal/domain/model"
	"github.com/PsyDak-Meng/Dukira-web-hook/internal/domain/ports/repository"
)

var _ repository.ImageTaskRepository = (*imageTaskRepo)(nil)

type imageTaskRepo struct {
	pool       *pgxpool.Pool
	tm         repository.TransactionManager
	staleAfter time.Duration
}

// NewImageTaskRepo builds the task repository. staleAfter bounds how long a
// task may sit in processing before the claim query reclaims it; it should
// be at least the pipeline task budget.
func NewImageTaskRepo(pool *pgxpool.Pool, tm repository.TransactionManager, staleAfter time.Duration) *imageTaskRepo {
	if staleAfter <= 0 {
		staleAfter = 5 * time.Minute
	}
	return &imageTaskRepo{pool: pool, tm: tm, staleAfter: staleAfter}
}

const imageTaskColumns = `
id, job_id, store_id, product_id, image_ref, platform_image_id,
status, reject_reason, content_hash, width, height, file_size, content_type,
score, analysis, storage_locator, duplicate_of, attempts, last_error,
created_at, updated_at`

func (r *imageTaskRepo) Save(ctx context.Context, tx repository.Tx, task *model.ImageTask) error {
	task.UpdatedAt = time.Now()

	analysis, err := json.Marshal(task.Analysis)
	if err != nil {
		return err
	}

	const q = `
INSERT INTO image_tasks (` + imageTaskColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
ON CONFLICT (id) DO UPDATE SET
  job_id = EXCLUDED.job_id,
  status = EXCLUDED.status,
  reject_reason = EXCLUDED.reject_reason,
  content_hash = EXCLUDED.content_hash,
  width = EXCLUDED.width,
  height = EXCLUDED.height,
  file_size = EXCLUDED.file_size,
  content_type = EXCLUDED.content_type,
  score = EXCLUDED.score,
  analysis = EXCLUDED.analysis,
  storage_locator = EXCLUDED.storage_locator,
  duplicate_of = EXCLUDED.duplicate_of,
  attempts = EXCLUDED.attempts,
  last_error = EXCLUDED.last_error,
  updated_at = EXCLUDED.updated_at;`

	_, err = execSQL(ctx, r.pool, tx, q,
		task.ID, task.JobID, task.StoreID, task.ProductID, task.ImageRef, task.PlatformImageID,
		string(task.Status), string(task.RejectReason), task.ContentHash,
		task.Width, task.Height, task.FileSize, task.ContentType,
		task.Score, analysis, task.StorageLocator, task.DuplicateOf,
		task.Attempts, task.LastError, task.CreatedAt, task.UpdatedAt)
	return err
}

func (r *imageTaskRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.ImageTask, error) {
	const q = `SELECT ` + imageTaskColumns + ` FROM image_tasks WHERE id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanImageTask(row)
}

func (r *imageTaskRepo) FindByImageRef(ctx context.Context, tx repository.Tx, storeID, imageRef string) (*model.ImageTask, error) {
	const q = `SELECT ` + imageTaskColumns + ` FROM image_tasks WHERE store_id = $1 AND image_ref = $2;`
	row, err := pickRow(ctx, r.pool, tx, q, storeID, imageRef)
	if err != nil {
		return nil, err
	}
	return scanImageTask(row)
}

func (r *imageTaskRepo) FindByProduct(ctx context.Context, tx repository.Tx, productID string) ([]*model.ImageTask, error) {
	const q = `SELECT ` + imageTaskColumns + ` FROM image_tasks WHERE product_id = $1 ORDER BY created_at;`
	rows, err := pickRows(ctx, r.pool, tx, q, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.ImageTask
	for rows.Next() {
		task, err := scanImageTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

// FetchAndMarkProcessing atomically claims the oldest pending task. SKIP
// LOCKED keeps concurrent pollers from blocking on each other's claim.
// Processing rows whose updated_at is older than staleAfter are eligible
// again, so a worker crash after a claim never strands its task.
func (r *imageTaskRepo) FetchAndMarkProcessing(ctx context.Context) (*model.ImageTask, error) {
	var task *model.ImageTask
	cutoff := time.Now().Add(-r.staleAfter)

	err := r.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		const q = `
SELECT ` + imageTaskColumns + `
FROM image_tasks
WHERE status = 'pending'
   OR (status = 'processing' AND updated_at < $1)
ORDER BY id
LIMIT 1
FOR UPDATE SKIP LOCKED;`

		row, err := pickRow(ctx, r.pool, tx, q, cutoff)
		if err != nil {
			return err
		}
		claimed, err := scanImageTask(row)
		if err != nil {
			return err
		}

		claimed.Status = model.ImageStatusProcessing
		if err := r.Save(ctx, tx, claimed); err != nil {
			return err
		}
		task = claimed
		return nil
	})
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrNotFound
	}
	return task, err
}

func (r *imageTaskRepo) CountByStatus(ctx context.Context, tx repository.Tx, jobID string) (model.JobCounts, error) {
	q := `SELECT status, COUNT(*) FROM image_tasks GROUP BY status;`
	args := []interface{}{}
	if jobID != "" {
		q = `SELECT status, COUNT(*) FROM image_tasks WHERE job_id = $1 GROUP BY status;`
		args = append(args, jobID)
	}

	rows, err := pickRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		return model.JobCounts{}, err
	}
	defer rows.Close()

	var counts model.JobCounts
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return model.JobCounts{}, domain.ErrReadDatabaseRow
		}
		switch model.ImageStatus(status) {
		case model.ImageStatusPending:
			counts.Pending = n
		case model.ImageStatusProcessing:
			counts.Processing = n
		case model.ImageStatusApproved:
			counts.Approved = n
		case model.ImageStatusRejected:
			counts.Rejected = n
		case model.ImageStatusStored:
			counts.Stored = n
		}
	}
	return counts, rows.Err()
}

// scanImageTask reads one task row from either a pgx.Row or pgx.Rows.
func scanImageTask(row pgx.Row) (*model.ImageTask, error) {
	var t model.ImageTask
	var status, reason string
	var analysis []byte

	err := row.Scan(
		&t.ID, &t.JobID, &t.StoreID, &t.ProductID, &t.ImageRef, &t.PlatformImageID,
		&status, &reason, &t.ContentHash, &t.Width, &t.Height, &t.FileSize, &t.ContentType,
		&t.Score, &analysis, &t.StorageLocator, &t.DuplicateOf, &t.Attempts, &t.LastError,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	t.Status = model.ImageStatus(status)
	t.RejectReason = model.RejectReason(reason)
	if len(analysis) > 0 {
		if err := json.Unmarshal(analysis, &t.Analysis); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
	}
	return &t, nil
}
