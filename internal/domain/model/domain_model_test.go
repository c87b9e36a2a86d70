//go:build !integration

package model

import (
	"testing"
	"time"
)

// --- ImageTask Model Tests ---

func TestNewImageTask(t *testing.T) {
	t.Run("should create a pending task with identity fields set", func(t *testing.T) {
		startTime := time.Now()
		task := NewImageTask("job-1", "store-1", "prod-1", "http://img/1.png", "img-1")

		if task.ID == "" {
			t.Error("expected task ID to be non-empty")
		}
		if task.Status != ImageStatusPending {
			t.Errorf("expected status pending, but got %s", task.Status)
		}
		if task.JobID != "job-1" || task.StoreID != "store-1" || task.ProductID != "prod-1" {
			t.Errorf("identity fields not set: %+v", task)
		}
		if task.ImageRef != "http://img/1.png" {
			t.Errorf("expected image ref to be kept, but got %s", task.ImageRef)
		}
		if time.Since(startTime) > time.Second {
			t.Error("task.CreatedAt timestamp is too far from current time")
		}
	})

	t.Run("should mint lexically increasing ids", func(t *testing.T) {
		first := NewImageTask("job-1", "store-1", "prod-1", "http://img/1.png", "img-1")
		second := NewImageTask("job-1", "store-1", "prod-1", "http://img/2.png", "img-2")
		if first.ID >= second.ID {
			t.Errorf("expected %s < %s; claim order depends on it", first.ID, second.ID)
		}
	})
}

func TestImageTask_StorageKey(t *testing.T) {
	t.Run("should derive the key from product and platform image id", func(t *testing.T) {
		task := NewImageTask("job-1", "store-1", "prod-1", "http://img/1.png", "img-1")
		if got := task.StorageKey(); got != "products/prod-1/images/img-1.jpg" {
			t.Errorf("unexpected key %q", got)
		}
	})

	t.Run("should fall back to the task id without a platform image id", func(t *testing.T) {
		task := NewImageTask("job-1", "store-1", "prod-1", "http://img/1.png", "")
		want := "products/prod-1/images/" + task.ID + ".jpg"
		if got := task.StorageKey(); got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	})
}

func TestImageTask_Transitions(t *testing.T) {
	t.Run("should couple stored status with a locator", func(t *testing.T) {
		task := NewImageTask("job-1", "store-1", "prod-1", "http://img/1.png", "img-1")

		if err := task.MarkStored(""); err == nil {
			t.Fatal("expected an error for an empty locator, but got nil")
		}
		if task.Status == ImageStatusStored {
			t.Error("failed MarkStored must not change the status")
		}

		if err := task.MarkStored("mem://products/prod-1/images/img-1.jpg"); err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if task.Status != ImageStatusStored || task.StorageLocator == "" {
			t.Errorf("expected stored with locator, got %s %q", task.Status, task.StorageLocator)
		}
		if !task.Status.Terminal() {
			t.Error("stored must be terminal")
		}
	})

	t.Run("should keep score and detail on rejection", func(t *testing.T) {
		task := NewImageTask("job-1", "store-1", "prod-1", "http://img/1.png", "img-1")
		score := 0.4
		task.Score = &score

		task.MarkRejected(RejectScoreLow, "score 0.4000 below threshold 0.7000")

		if task.Status != ImageStatusRejected || task.RejectReason != RejectScoreLow {
			t.Errorf("expected rejected/score_low, got %s/%s", task.Status, task.RejectReason)
		}
		if task.Score == nil || *task.Score != 0.4 {
			t.Errorf("rejection must not erase the score, got %v", task.Score)
		}
		if task.LastError == "" {
			t.Error("expected rejection detail to be recorded")
		}
		if !task.Status.Terminal() {
			t.Error("rejected must be terminal")
		}
	})

	t.Run("should reset identity-preserving retry state", func(t *testing.T) {
		task := NewImageTask("job-1", "store-1", "prod-1", "http://img/1.png", "img-1")
		task.MarkRejected(RejectFetchExhausted, "connection reset")
		task.Attempts = 3
		originalID := task.ID

		task.ResetForRetry("job-2")

		if task.ID != originalID {
			t.Error("retry must keep the task id")
		}
		if task.JobID != "job-2" {
			t.Errorf("expected new job id, got %s", task.JobID)
		}
		if task.Status != ImageStatusPending || task.RejectReason != "" || task.LastError != "" || task.Attempts != 0 {
			t.Errorf("retry must clear failure state: %+v", task)
		}
	})
}

func TestImageStatus_Terminal(t *testing.T) {
	cases := map[ImageStatus]bool{
		ImageStatusPending:    false,
		ImageStatusProcessing: false,
		ImageStatusApproved:   false,
		ImageStatusRejected:   true,
		ImageStatusStored:     true,
	}
	for status, want := range cases {
		if got := status.Terminal(); got != want {
			t.Errorf("%s.Terminal() = %v, want %v", status, got, want)
		}
	}
}

// --- SyncJob Model Tests ---

func TestSyncJob(t *testing.T) {
	t.Run("should create a job with a started timestamp", func(t *testing.T) {
		job := NewSyncJob("store-1", JobTypeFullSync)
		if job.ID == "" {
			t.Error("expected job ID to be non-empty")
		}
		if job.CompletedAt != nil {
			t.Error("a new job must not be completed")
		}
		if job.StartedAt.IsZero() {
			t.Error("expected StartedAt to be set")
		}
	})

	t.Run("should stamp completion exactly once", func(t *testing.T) {
		job := NewSyncJob("store-1", JobTypeWebhook)
		first := time.Now().Add(-time.Minute)
		job.Complete(first)
		job.Complete(time.Now())

		if job.CompletedAt == nil || !job.CompletedAt.Equal(first) {
			t.Errorf("expected the first completion time, got %v", job.CompletedAt)
		}
	})
}

func TestParseJobType(t *testing.T) {
	for _, valid := range []string{"full_sync", "incremental", "webhook"} {
		if _, err := ParseJobType(valid); err != nil {
			t.Errorf("expected %q to parse, but got: %v", valid, err)
		}
	}
	if _, err := ParseJobType("sideways"); err == nil {
		t.Error("expected an error for an unknown job type, but got nil")
	}
}

func TestJobCounts(t *testing.T) {
	t.Run("should be done only when all tasks are terminal", func(t *testing.T) {
		if (JobCounts{Pending: 1, Stored: 3}).Done() {
			t.Error("pending tasks mean not done")
		}
		if (JobCounts{Approved: 1}).Done() {
			t.Error("approved tasks are still in flight")
		}
		if !(JobCounts{Stored: 2, Rejected: 1}).Done() {
			t.Error("terminal-only counts mean done")
		}
	})

	t.Run("should total across all statuses", func(t *testing.T) {
		counts := JobCounts{Pending: 1, Processing: 2, Approved: 3, Rejected: 4, Stored: 5}
		if counts.Total() != 15 {
			t.Errorf("expected 15, got %d", counts.Total())
		}
	})
}
