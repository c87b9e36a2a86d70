//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/PsyDak-Meng/Dukira-web-hook/internal/domain"
	"github.com/PsyDak-Meng/Dukira-web-hook/internal/domain/model"
	"github.com/PsyDak-Meng/Dukira-web-hook/internal/domain/ports/repository"
)

func TestSyncJobRepo(t *testing.T) {
	cleanup(t)
	ctx := context.Background()
	repo := NewSyncJobRepo(testPool)

	job := model.NewSyncJob("store-1", model.JobTypeFullSync)
	if err := repo.Save(ctx, repository.NoTX, job); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := repo.FindByID(ctx, repository.NoTX, job.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if got.StoreID != "store-1" || got.Type != model.JobTypeFullSync || got.CompletedAt != nil {
		t.Errorf("round trip mismatch: %+v", got)
	}

	if _, err := repo.FindByID(ctx, repository.NoTX, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSyncJobRepo_LastCompletedAt(t *testing.T) {
	cleanup(t)
	ctx := context.Background()
	repo := NewSyncJobRepo(testPool)

	// No completed jobs yet: zero time, no error.
	since, err := repo.LastCompletedAt(ctx, repository.NoTX, "store-1")
	if err != nil {
		t.Fatalf("LastCompletedAt failed: %v", err)
	}
	if !since.IsZero() {
		t.Errorf("expected zero time for a never-synced store, got %v", since)
	}

	older := model.NewSyncJob("store-1", model.JobTypeFullSync)
	older.Complete(time.Now().Add(-2 * time.Hour))
	newer := model.NewSyncJob("store-1", model.JobTypeIncremental)
	latest := time.Now().Add(-time.Hour).Truncate(time.Millisecond)
	newer.Complete(latest)
	otherStore := model.NewSyncJob("store-2", model.JobTypeFullSync)
	otherStore.Complete(time.Now())

	for _, j := range []*model.SyncJob{older, newer, otherStore} {
		if err := repo.Save(ctx, repository.NoTX, j); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	since, err = repo.LastCompletedAt(ctx, repository.NoTX, "store-1")
	if err != nil {
		t.Fatalf("LastCompletedAt failed: %v", err)
	}
	if !since.Equal(latest) {
		t.Errorf("expected %v, got %v", latest, since)
	}
}
