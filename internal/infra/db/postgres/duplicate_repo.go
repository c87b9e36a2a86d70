package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/PsyDak-Meng/Dukira-web-hook/internal/domain"
	"github.com/PsyDak-Meng/Dukira-web-hook/internal/domain/ports/repository"
)

var _ repository.DuplicateIndex = (*duplicateRepo)(nil)

// duplicateRepo is the durable duplicate index keyed by content hash.
// content_hash is the primary key, so concurrent Record calls for the same
// bytes are resolved by the database: exactly one insert lands, everyone
// reads back the winning row.
type duplicateRepo struct {
	pool *pgxpool.Pool
}

func NewDuplicateRepo(pool *pgxpool.Pool) *duplicateRepo {
	return &duplicateRepo{pool: pool}
}

func (r *duplicateRepo) Lookup(ctx context.Context, contentHash string) (*repository.DuplicateEntry, error) {
	const q = `
SELECT content_hash, storage_locator, task_id
FROM image_duplicates WHERE content_hash = $1;`

	var entry repository.DuplicateEntry
	err := r.pool.QueryRow(ctx, q, contentHash).Scan(&entry.ContentHash, &entry.StorageLocator, &entry.TaskID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &entry, nil
}

func (r *duplicateRepo) Record(ctx context.Context, contentHash, locator, taskID string) (*repository.DuplicateEntry, bool, error) {
	const q = `
INSERT INTO image_duplicates (content_hash, storage_locator, task_id, created_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (content_hash) DO NOTHING;`

	tag, err := r.pool.Exec(ctx, q, contentHash, locator, taskID)
	if err != nil {
		return nil, false, err
	}
	created := tag.RowsAffected() == 1

	// Read back the winning row: ours when the insert landed, the earlier
	// writer's otherwise.
	entry, err := r.Lookup(ctx, contentHash)
	if err != nil {
		return nil, false, err
	}
	return entry, created, nil
}
