package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/PsyDak-Meng/Dukira-web-hook/internal/domain/model"
	"github.com/PsyDak-Meng/Dukira-web-hook/internal/domain/ports/repository"
)

// Compile-time check
var _ StatsUseCase = (*statsUC)(nil)

// StatsUseCase is the read surface consumed by the API layer. Counts are
// recomputed by scanning task state on every call; nothing is incrementally
// maintained.
type StatsUseCase interface {
	Totals(ctx context.Context) (model.JobCounts, error)
	ImagesForProduct(ctx context.Context, productID string) ([]*model.ImageTask, error)
}

type statsUC struct {
	tasks repository.ImageTaskRepository
	log   *zerolog.Logger
}

func NewStatsUseCase(tasks repository.ImageTaskRepository, logger *zerolog.Logger) *statsUC {
	l := logger.With().Str("component", "Stats").Logger()
	return &statsUC{tasks: tasks, log: &l}
}

func (s *statsUC) Totals(ctx context.Context) (model.JobCounts, error) {
	return s.tasks.CountByStatus(ctx, repository.NoTX, "")
}

func (s *statsUC) ImagesForProduct(ctx context.Context, productID string) ([]*model.ImageTask, error) {
	return s.tasks.FindByProduct(ctx, repository.NoTX, productID)
}
