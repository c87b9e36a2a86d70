//go:build !integration

package usecase_test

import (
	"context"
	"testing"

	"github.com/PsyDak-Meng/Dukira-web-hook/internal/domain/model"
	"github.com/PsyDak-Meng/Dukira-web-hook/internal/domain/ports/repository"
	"github.com/PsyDak-Meng/Dukira-web-hook/internal/usecase"
)

func TestStatsUseCase(t *testing.T) {
	ctx := context.Background()

	seed := func(tasks *memTaskRepo) {
		stored := model.NewImageTask("job-1", "store-1", "prod-1", "http://img/1.png", "img-1")
		_ = stored.MarkStored("mem://products/prod-1/images/img-1.jpg")
		rejected := model.NewImageTask("job-1", "store-1", "prod-1", "http://img/2.png", "img-2")
		rejected.MarkRejected(model.RejectScoreLow, "score 0.4 below threshold")
		pending := model.NewImageTask("job-2", "store-1", "prod-2", "http://img/3.png", "img-3")
		for _, task := range []*model.ImageTask{stored, rejected, pending} {
			_ = tasks.Save(ctx, repository.NoTX, task)
		}
	}

	t.Run("should count tasks across all jobs", func(t *testing.T) {
		tasks := newMemTaskRepo()
		seed(tasks)
		uc := usecase.NewStatsUseCase(tasks, newTestLogger())

		counts, err := uc.Totals(ctx)
		if err != nil {
			t.Fatalf("Totals returned an error: %v", err)
		}
		if counts.Stored != 1 || counts.Rejected != 1 || counts.Pending != 1 {
			t.Errorf("unexpected counts: %+v", counts)
		}
		if counts.Total() != 3 {
			t.Errorf("expected 3 tasks total, got %d", counts.Total())
		}
	})

	t.Run("should list the tasks of one product only", func(t *testing.T) {
		tasks := newMemTaskRepo()
		seed(tasks)
		uc := usecase.NewStatsUseCase(tasks, newTestLogger())

		images, err := uc.ImagesForProduct(ctx, "prod-1")
		if err != nil {
			t.Fatalf("ImagesForProduct returned an error: %v", err)
		}
		if len(images) != 2 {
			t.Fatalf("expected 2 tasks for prod-1, got %d", len(images))
		}
		for _, img := range images {
			if img.ProductID != "prod-1" {
				t.Errorf("unexpected product %s in result", img.ProductID)
			}
		}

		none, err := uc.ImagesForProduct(ctx, "prod-unknown")
		if err != nil {
			t.Fatalf("ImagesForProduct returned an error: %v", err)
		}
		if len(none) != 0 {
			t.Errorf("expected no tasks for unknown product, got %d", len(none))
		}
	})
}
