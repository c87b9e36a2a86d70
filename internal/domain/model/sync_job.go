package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type JobType string

const (
	JobTypeFullSync    JobType = "full_sync"
	JobTypeIncremental JobType = "incremental"
	JobTypeWebhook     JobType = "webhook"
)

func ParseJobType(s string) (JobType, error) {
	switch JobType(s) {
	case JobTypeFullSync, JobTypeIncremental, JobTypeWebhook:
		return JobType(s), nil
	}
	return "", fmt.Errorf("unknown job type %q", s)
}

// SyncJob groups the image tasks produced by one trigger. It never mutates
// its tasks; completion is derived from their statuses.
type SyncJob struct {
	ID          string
	StoreID     string
	Type        JobType
	StartedAt   time.Time
	CompletedAt *time.Time
	CreatedAt   time.Time
}

func NewSyncJob(storeID string, jobType JobType) *SyncJob {
	now := time.Now()
	return &SyncJob{
		ID:        uuid.NewString(),
		StoreID:   storeID,
		Type:      jobType,
		StartedAt: now,
		CreatedAt: now,
	}
}

// Complete stamps the completion time once; later calls are no-ops so the
// lazily derived completion stays stable.
func (j *SyncJob) Complete(at time.Time) {
	if j.CompletedAt == nil {
		j.CompletedAt = &at
	}
}

// JobCounts aggregates task statuses for one job or globally. Always
// recomputed by scanning tasks, never incrementally maintained.
type JobCounts struct {
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Approved   int `json:"approved"`
	Rejected   int `json:"rejected"`
	Stored     int `json:"stored"`
}

func (c JobCounts) Total() int {
	return c.Pending + c.Processing + c.Approved + c.Rejected + c.Stored
}

// Done reports whether every task reached a terminal status. Rejected tasks
// still count as done: a job has no failure state of its own.
func (c JobCounts) Done() bool {
	return c.Pending == 0 && c.Processing == 0 && c.Approved == 0
}
