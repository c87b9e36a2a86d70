package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/PsyDak-Meng/Dukira-web-hook/internal/config"
	"github.com/PsyDak-Meng/Dukira-web-hook/internal/domain"
	"github.com/PsyDak-Meng/Dukira-web-hook/internal/domain/model"
	"github.com/PsyDak-Meng/Dukira-web-hook/internal/domain/ports/adapter"
	"github.com/PsyDak-Meng/Dukira-web-hook/internal/domain/ports/repository"
	"github.com/PsyDak-Meng/Dukira-web-hook/internal/infra/hash"
	"github.com/PsyDak-Meng/Dukira-web-hook/internal/infra/logging"
	"github.com/PsyDak-Meng/Dukira-web-hook/internal/infra/metrics"
)

// Compile-time check
var _ PipelineUseCase = (*pipelineUC)(nil)

// PipelineUseCase runs one claimed image task to its terminal status:
// fetch -> hash -> duplicate check -> score -> decision -> upload.
// It is the unit of retry; the returned error is informational, the task
// itself always lands in exactly one terminal state.
type PipelineUseCase interface {
	ProcessTask(ctx context.Context, task *model.ImageTask) error
}

type pipelineUC struct {
	tasks   repository.ImageTaskRepository
	dups    repository.DuplicateIndex
	fetcher adapter.ImageFetcher
	scorer  adapter.QualityScorer
	store   adapter.ObjectStore

	cfg       config.PipelineConfig
	threshold float64

	log *zerolog.Logger
}

func NewPipelineUseCase(
	tasks repository.ImageTaskRepository,
	dups repository.DuplicateIndex,
	fetcher adapter.ImageFetcher,
	scorer adapter.QualityScorer,
	store adapter.ObjectStore,
	cfg config.PipelineConfig,
	threshold float64,
	logger *zerolog.Logger,
) *pipelineUC {
	l := logger.With().Str("component", "Pipeline").Logger()
	return &pipelineUC{
		tasks:     tasks,
		dups:      dups,
		fetcher:   fetcher,
		scorer:    scorer,
		store:     store,
		cfg:       cfg,
		threshold: threshold,
		log:       &l,
	}
}

// retryExhaustedError marks a transient failure that survived the full
// attempt budget for its stage.
type retryExhaustedError struct {
	stage domain.Stage
	err   error
}

func (e *retryExhaustedError) Error() string {
	return fmt.Sprintf("%s retries exhausted: %v", e.stage, e.err)
}

func (e *retryExhaustedError) Unwrap() error { return e.err }

func (p *pipelineUC) ProcessTask(ctx context.Context, task *model.ImageTask) error {
	log := p.log.With().Str("task_id", task.ID).Str("product_id", task.ProductID).Logger()
	defer logging.TraceDuration(&log, "Pipeline.ProcessTask")()

	if task.Status != model.ImageStatusProcessing {
		return domain.ErrTaskNotClaimed
	}

	// Overall wall-clock budget: stage timeouts plus backoff must fit here,
	// otherwise the task is forced terminal instead of retried forever.
	runCtx, cancel := context.WithTimeout(ctx, p.cfg.TaskBudget)
	defer cancel()

	err := p.run(runCtx, &log, task)
	if err == nil {
		return nil
	}

	if reason, ok := p.terminalReason(runCtx, err); ok {
		rejErr := p.reject(&log, task, reason, err)
		if rejErr == nil {
			return nil
		}
		// The verdict could not be persisted; fall through so the task is
		// reclaimed instead of stranded in processing.
		err = rejErr
	}
	return p.returnToPending(&log, task, err)
}

// returnToPending hands a task back to the queue after an internal failure
// (persistence, index): the failure is not a verdict on the image, so a
// later claim retries it in place.
func (p *pipelineUC) returnToPending(log *zerolog.Logger, task *model.ImageTask, cause error) error {
	task.Status = model.ImageStatusPending
	if saveErr := p.tasks.Save(context.Background(), repository.NoTX, task); saveErr != nil {
		log.Error().Err(saveErr).Msg("failed to return task to pending")
	}
	log.Error().Err(cause).Msg("task processing failed, returned to pending")
	return cause
}

func (p *pipelineUC) run(ctx context.Context, log *zerolog.Logger, task *model.ImageTask) error {
	// Stage 1: fetch and validate.
	var img *adapter.FetchedImage
	err := p.retryStage(ctx, domain.StageFetch, task, func(ctx context.Context) error {
		var ferr error
		img, ferr = p.fetcher.Fetch(ctx, task.ImageRef)
		return ferr
	})
	if err != nil {
		return err
	}
	task.Width = img.Width
	task.Height = img.Height
	task.FileSize = len(img.Data)
	task.ContentType = img.ContentType

	// Stage 2: fingerprint, then consult the duplicate index before any
	// scoring or storage work is spent on bytes already handled.
	task.ContentHash = hash.Fingerprint(img.Data)
	if err := p.tasks.Save(ctx, repository.NoTX, task); err != nil {
		return err
	}

	entry, err := p.dups.Lookup(ctx, task.ContentHash)
	if err == nil {
		// Duplicates are not re-scored; score/analysis stay empty.
		if entry.TaskID != task.ID {
			task.DuplicateOf = entry.TaskID
		}
		metrics.IncDedupeHit()
		log.Info().Str("duplicate_of", entry.TaskID).Msg("duplicate content, adopting stored locator")
		return p.storeTerminal(log, task, entry.StorageLocator)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	// Stage 3: quality scoring.
	var verdict adapter.Score
	err = p.retryStage(ctx, domain.StageScore, task, func(ctx context.Context) error {
		var serr error
		verdict, serr = p.scorer.Score(ctx, img.Data, adapter.ImageMeta{
			TaskID:      task.ID,
			ProductID:   task.ProductID,
			SourceURL:   task.ImageRef,
			ContentType: task.ContentType,
			Width:       task.Width,
			Height:      task.Height,
		})
		return serr
	})
	if err != nil {
		return err
	}
	score := verdict.Value
	task.Score = &score
	task.Analysis = verdict.Analysis

	// Decision: a low score is the expected non-approval outcome, recorded
	// with its score and analysis, never an error.
	if score < p.threshold {
		return p.reject(log, task, model.RejectScoreLow,
			fmt.Errorf("score %.4f below threshold %.4f", score, p.threshold))
	}
	task.Status = model.ImageStatusApproved
	if err := p.tasks.Save(ctx, repository.NoTX, task); err != nil {
		return err
	}

	// Stage 4: upload. Fetch and score results are kept; only the write is
	// retried.
	var locator string
	err = p.retryStage(ctx, domain.StageUpload, task, func(ctx context.Context) error {
		var uerr error
		locator, uerr = p.store.Put(ctx, task.StorageKey(), img.Data, task.ContentType)
		return uerr
	})
	if err != nil {
		metrics.IncUpload(uploadOutcome(err))
		return err
	}
	metrics.IncUpload("ok")

	// First successful writer wins the index; a racing task that stored the
	// same bytes first supplies the locator we adopt.
	entry, created, err := p.dups.Record(ctx, task.ContentHash, locator, task.ID)
	if err != nil {
		return err
	}
	if !created && entry.TaskID != task.ID {
		task.DuplicateOf = entry.TaskID
		log.Info().Str("duplicate_of", entry.TaskID).Msg("lost upload race, adopting winning locator")
	}
	return p.storeTerminal(log, task, entry.StorageLocator)
}

// retryStage runs fn with exponential backoff up to the attempt budget.
// Non-transient errors abort immediately; an exceeded task budget surfaces
// as the context error.
func (p *pipelineUC) retryStage(ctx context.Context, stage domain.Stage, task *model.ImageTask, fn func(ctx context.Context) error) error {
	backoff := p.cfg.RetryBackoff
	var lastErr error

	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		start := time.Now()
		err := fn(ctx)
		metrics.ObserveStage(string(stage), int(time.Since(start)/time.Millisecond), err == nil)
		if err == nil {
			return nil
		}
		task.Attempts++
		lastErr = err

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !domain.IsTransient(err) {
			return err
		}
		if attempt == p.cfg.MaxAttempts {
			break
		}

		metrics.IncStageRetry(string(stage))
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff *= 2
	}
	return &retryExhaustedError{stage: stage, err: lastErr}
}

// terminalReason maps a run error to its terminal rejection reason. The
// second return is false for internal errors that should not consume the
// task.
func (p *pipelineUC) terminalReason(ctx context.Context, err error) (model.RejectReason, bool) {
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() != nil {
		return model.RejectTimeout, true
	}

	var exhausted *retryExhaustedError
	if errors.As(err, &exhausted) {
		switch exhausted.stage {
		case domain.StageFetch:
			return model.RejectFetchExhausted, true
		case domain.StageScore:
			return model.RejectScoreExhausted, true
		case domain.StageUpload:
			return model.RejectUploadExhausted, true
		}
	}

	var se *domain.StageError
	if errors.As(err, &se) {
		switch {
		case se.Kind == domain.KindInvalid:
			return model.RejectValidationFailed, true
		case se.Kind == domain.KindFatal:
			// Escalated but still terminal: approved-but-unstored images are
			// never reported as stored.
			return model.RejectUploadExhausted, true
		}
	}
	return "", false
}

func (p *pipelineUC) reject(log *zerolog.Logger, task *model.ImageTask, reason model.RejectReason, cause error) error {
	task.MarkRejected(reason, cause.Error())
	if err := p.tasks.Save(context.Background(), repository.NoTX, task); err != nil {
		log.Error().Err(err).Msg("failed to persist rejected task")
		return err
	}
	metrics.IncTaskProcessed(string(model.ImageStatusRejected))
	metrics.IncTaskRejected(string(reason))
	log.Info().Str("reason", string(reason)).Err(cause).Msg("task rejected")
	return nil
}

func (p *pipelineUC) storeTerminal(log *zerolog.Logger, task *model.ImageTask, locator string) error {
	if err := task.MarkStored(locator); err != nil {
		return err
	}
	if err := p.tasks.Save(context.Background(), repository.NoTX, task); err != nil {
		log.Error().Err(err).Msg("failed to persist stored task")
		return err
	}
	metrics.IncTaskProcessed(string(model.ImageStatusStored))
	log.Info().Str("locator", locator).Msg("task stored")
	return nil
}

func uploadOutcome(err error) string {
	var se *domain.StageError
	if errors.As(err, &se) && se.Kind == domain.KindFatal {
		return "fatal_error"
	}
	return "transient_error"
}
