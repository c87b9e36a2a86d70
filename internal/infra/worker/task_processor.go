package worker

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/PsyDak-Meng/Dukira-web-hook/internal/domain"
	"github.com/PsyDak-Meng/Dukira-web-hook/internal/domain/ports/repository"
	"github.com/PsyDak-Meng/Dukira-web-hook/internal/infra/logging"
	"github.com/PsyDak-Meng/Dukira-web-hook/internal/usecase"
)

// TaskProcessor pulls pending image tasks from the repository and runs them
// through the pipeline. Claiming happens row by row so any number of
// processors and workers can share one queue safely.
type TaskProcessor struct {
	tasks    repository.ImageTaskRepository
	pipeline usecase.PipelineUseCase
	interval time.Duration
	claims   int
	log      *zerolog.Logger
}

func NewTaskProcessor(
	tasks repository.ImageTaskRepository,
	pipeline usecase.PipelineUseCase,
	pollInterval time.Duration,
	claimsPerTick int,
	logger *zerolog.Logger,
) *TaskProcessor {
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	if claimsPerTick <= 0 {
		claimsPerTick = 1
	}
	l := logger.With().Str("component", "TaskProcessor").Logger()
	return &TaskProcessor{
		tasks:    tasks,
		pipeline: pipeline,
		interval: pollInterval,
		claims:   claimsPerTick,
		log:      &l,
	}
}

// Start runs the poll loop. This should be run in a goroutine.
func (p *TaskProcessor) Start(ctx context.Context, pool *Pool) {
	p.log.Info().Dur("poll_interval", p.interval).Msg("task processor started")
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Info().Msg("task processor stopping")
			return
		case <-ticker.C:
			// One claim attempt per worker per tick; Submit blocks when the
			// pool is saturated, which paces polling to actual throughput.
			for i := 0; i < p.claims; i++ {
				if err := pool.Submit(ctx, func(ctx context.Context) error {
					p.processOne(ctx)
					return nil
				}); err != nil {
					return
				}
			}
		}
	}
}

func (p *TaskProcessor) processOne(ctx context.Context) {
	task, err := p.tasks.FetchAndMarkProcessing(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			p.log.Error().Err(err).Msg("failed to claim image task")
		}
		return // queue empty, or claim failed
	}

	ctx = logging.WithTaskID(ctx, task.ID)
	ctx = logging.WithStoreID(ctx, task.StoreID)
	ctx = logging.WithProductID(ctx, task.ProductID)
	log := logging.With(ctx, p.log)

	log.Info().Str("job_id", task.JobID).Msg("processing image task")
	start := time.Now()

	err = p.pipeline.ProcessTask(ctx, task)
	latency := time.Since(start)

	if err != nil {
		log.Error().Err(err).Msg("image task run failed")
		return
	}

	log.Info().
		Str("status", string(task.Status)).
		Dur("duration_ms", latency).
		Msg("image task finished")
}
