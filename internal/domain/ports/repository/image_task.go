package repository

import (
	"context"

	"github.com/PsyDak-Meng/Dukira-web-hook/internal/domain/model"
)

type ImageTaskRepository interface {
	Save(ctx context.Context, tx Tx, task *model.ImageTask) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.ImageTask, error)
	// FindByImageRef resolves a task by its source identity. The dispatcher
	// uses it to keep task creation idempotent across re-enumerations.
	FindByImageRef(ctx context.Context, tx Tx, storeID, imageRef string) (*model.ImageTask, error)
	FindByProduct(ctx context.Context, tx Tx, productID string) ([]*model.ImageTask, error)
	// FetchAndMarkProcessing atomically claims the oldest pending task and
	// marks it processing so no other worker picks it up. Returns
	// domain.ErrNotFound when nothing is pending.
	FetchAndMarkProcessing(ctx context.Context) (*model.ImageTask, error)
	// CountByStatus aggregates task statuses, globally when jobID is empty
	// or scoped to one job otherwise. Always a full re-scan.
	CountByStatus(ctx context.Context, tx Tx, jobID string) (model.JobCounts, error)
}
