package repository

import (
	"context"
	"time"

	"github.com/PsyDak-Meng/Dukira-web-hook/internal/domain/model"
)

type SyncJobRepository interface {
	Save(ctx context.Context, tx Tx, job *model.SyncJob) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.SyncJob, error)
	// LastCompletedAt returns the completion time of the most recent finished
	// job for the store; the zero time when the store has never synced.
	// Incremental syncs enumerate changes after this point.
	LastCompletedAt(ctx context.Context, tx Tx, storeID string) (time.Time, error)
}
