package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/PsyDak-Meng/Dukira-web-hook/internal/domain/model"
	"github.com/PsyDak-Meng/Dukira-web-hook/internal/usecase"
)

// AutoSyncWorker periodically starts an incremental sync for the configured
// stores, so catalogs stay current without webhook coverage.
type AutoSyncWorker struct {
	interval   time.Duration
	storeIDs   []string
	dispatcher usecase.DispatcherUseCase
	log        *zerolog.Logger
}

func NewAutoSyncWorker(interval time.Duration, storeIDs []string, dispatcher usecase.DispatcherUseCase, logger *zerolog.Logger) *AutoSyncWorker {
	syncLog := logger.With().Str("component", "AutoSyncWorker").Logger()
	return &AutoSyncWorker{
		interval:   interval,
		storeIDs:   storeIDs,
		dispatcher: dispatcher,
		log:        &syncLog,
	}
}

func (w *AutoSyncWorker) Run(ctx context.Context) error {
	if w.interval <= 0 || len(w.storeIDs) == 0 {
		w.log.Info().Msg("auto sync disabled")
		return nil
	}
	w.log.Info().Dur("interval", w.interval).Int("stores", len(w.storeIDs)).Msg("starting auto sync worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("stopping auto sync worker")
			return ctx.Err()
		case <-ticker.C:
			for _, storeID := range w.storeIDs {
				job, err := w.dispatcher.Sync(ctx, storeID, model.JobTypeIncremental)
				if err != nil {
					// One failing store must not stop the sweep.
					w.log.Error().Err(err).Str("store_id", storeID).Msg("auto sync failed")
					continue
				}
				w.log.Info().Str("store_id", storeID).Str("job_id", job.ID).Msg("auto sync dispatched")
			}
		}
	}
}
