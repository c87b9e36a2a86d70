package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/PsyDak-Meng/Dukira-web-hook/internal/domain"
	"github.com/PsyDak-Meng/Dukira-web-hook/internal/domain/model"
	"github.com/PsyDak-Meng/Dukira-web-hook/internal/domain/ports/adapter"
	"github.com/PsyDak-Meng/Dukira-web-hook/internal/domain/ports/repository"
	"github.com/PsyDak-Meng/Dukira-web-hook/internal/infra/metrics"
)

// Compile-time check
var _ DispatcherUseCase = (*dispatcherUC)(nil)

// DispatcherUseCase turns sync triggers and verified webhook events into
// pending image tasks. It never mutates a task past enqueueing and never
// waits for pipeline completion: job progress is derived by re-scanning
// task statuses.
type DispatcherUseCase interface {
	Sync(ctx context.Context, storeID string, jobType model.JobType) (*model.SyncJob, error)
	HandleWebhook(ctx context.Context, event adapter.WebhookEvent) (*model.SyncJob, error)
	JobStatus(ctx context.Context, jobID string) (*model.SyncJob, model.JobCounts, error)
}

type dispatcherUC struct {
	tasks   repository.ImageTaskRepository
	jobs    repository.SyncJobRepository
	catalog adapter.PlatformCatalog
	log     *zerolog.Logger
}

func NewDispatcherUseCase(
	tasks repository.ImageTaskRepository,
	jobs repository.SyncJobRepository,
	catalog adapter.PlatformCatalog,
	logger *zerolog.Logger,
) *dispatcherUC {
	l := logger.With().Str("component", "Dispatcher").Logger()
	return &dispatcherUC{tasks: tasks, jobs: jobs, catalog: catalog, log: &l}
}

func (d *dispatcherUC) Sync(ctx context.Context, storeID string, jobType model.JobType) (*model.SyncJob, error) {
	if storeID == "" {
		return nil, domain.ErrInvalidArgument
	}

	var refs []adapter.ProductImageRef
	var err error
	switch jobType {
	case model.JobTypeFullSync:
		refs, err = d.catalog.ListProductImages(ctx, storeID)
	case model.JobTypeIncremental:
		var since time.Time
		since, err = d.jobs.LastCompletedAt(ctx, repository.NoTX, storeID)
		if err != nil {
			return nil, err
		}
		refs, err = d.catalog.ListProductImagesSince(ctx, storeID, since)
	default:
		// Webhook jobs carry their own references; see HandleWebhook.
		return nil, fmt.Errorf("%w: job type %q", domain.ErrInvalidArgument, jobType)
	}
	if err != nil {
		return nil, fmt.Errorf("enumerate images for store %s: %w", storeID, err)
	}

	return d.dispatch(ctx, storeID, jobType, refs)
}

func (d *dispatcherUC) HandleWebhook(ctx context.Context, event adapter.WebhookEvent) (*model.SyncJob, error) {
	if event.StoreID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return d.dispatch(ctx, event.StoreID, model.JobTypeWebhook, event.Images)
}

// dispatch creates the job and one pending task per reference, idempotently
// by image_ref identity. It returns as soon as tasks are persisted; workers
// pick them up asynchronously.
func (d *dispatcherUC) dispatch(ctx context.Context, storeID string, jobType model.JobType, refs []adapter.ProductImageRef) (*model.SyncJob, error) {
	job := model.NewSyncJob(storeID, jobType)
	if err := d.jobs.Save(ctx, repository.NoTX, job); err != nil {
		return nil, err
	}
	metrics.IncSyncJob(string(jobType))

	created, retried, skipped := 0, 0, 0
	for _, ref := range refs {
		disposition, err := d.enqueue(ctx, job, storeID, ref)
		if err != nil {
			// One bad reference must not sink its siblings.
			d.log.Error().Err(err).Str("job_id", job.ID).Str("image_ref", ref.URL).Msg("failed to enqueue image task")
			continue
		}
		metrics.IncTaskEnqueued(disposition)
		switch disposition {
		case "created":
			created++
		case "retried":
			retried++
		default:
			skipped++
		}
	}

	if created+retried == 0 {
		// Nothing enqueued: the job is complete the moment it starts.
		job.Complete(time.Now())
		if err := d.jobs.Save(ctx, repository.NoTX, job); err != nil {
			return nil, err
		}
	}

	d.log.Info().
		Str("job_id", job.ID).
		Str("store_id", storeID).
		Str("type", string(jobType)).
		Int("created", created).
		Int("retried", retried).
		Int("skipped", skipped).
		Msg("sync job dispatched")
	return job, nil
}

func (d *dispatcherUC) enqueue(ctx context.Context, job *model.SyncJob, storeID string, ref adapter.ProductImageRef) (string, error) {
	existing, err := d.tasks.FindByImageRef(ctx, repository.NoTX, storeID, ref.URL)
	switch {
	case err == nil:
		if existing.Status == model.ImageStatusRejected {
			// Retried in place: same identity, new job.
			existing.ResetForRetry(job.ID)
			if err := d.tasks.Save(ctx, repository.NoTX, existing); err != nil {
				return "", err
			}
			return "retried", nil
		}
		// Stored or still in flight: re-enumeration is a no-op.
		return "skipped", nil
	case err == domain.ErrNotFound:
		task := model.NewImageTask(job.ID, storeID, ref.ProductID, ref.URL, ref.PlatformImageID)
		if err := d.tasks.Save(ctx, repository.NoTX, task); err != nil {
			return "", err
		}
		return "created", nil
	default:
		return "", err
	}
}

func (d *dispatcherUC) JobStatus(ctx context.Context, jobID string) (*model.SyncJob, model.JobCounts, error) {
	job, err := d.jobs.FindByID(ctx, repository.NoTX, jobID)
	if err != nil {
		return nil, model.JobCounts{}, err
	}
	counts, err := d.tasks.CountByStatus(ctx, repository.NoTX, jobID)
	if err != nil {
		return nil, model.JobCounts{}, err
	}
	if counts.Done() && job.CompletedAt == nil {
		job.Complete(time.Now())
		if err := d.jobs.Save(ctx, repository.NoTX, job); err != nil {
			return nil, model.JobCounts{}, err
		}
	}
	return job, counts, nil
}
