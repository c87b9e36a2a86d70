package model

import (
	"fmt"
	"path"
	"time"

	"github.com/oklog/ulid/v2"
)

type ImageStatus string

const (
	ImageStatusPending    ImageStatus = "pending"
	ImageStatusProcessing ImageStatus = "processing"
	ImageStatusApproved   ImageStatus = "approved"
	ImageStatusRejected   ImageStatus = "rejected"
	ImageStatusStored     ImageStatus = "stored"
)

// Terminal reports whether no further pipeline work can change the status.
// Approved is transient: the upload stage still has to run.
func (s ImageStatus) Terminal() bool {
	return s == ImageStatusRejected || s == ImageStatusStored
}

// RejectReason is the closed set of terminal rejection causes. Free-form
// detail goes to LastError; the reason stays machine-readable.
type RejectReason string

const (
	RejectValidationFailed RejectReason = "validation_failed"
	RejectFetchExhausted   RejectReason = "fetch_exhausted"
	RejectScoreExhausted   RejectReason = "score_exhausted"
	RejectScoreLow         RejectReason = "score_low"
	RejectUploadExhausted  RejectReason = "upload_exhausted"
	RejectTimeout          RejectReason = "timeout"
)

// Analysis holds the scorer's structured output. The pipeline treats the
// keys as opaque.
type Analysis map[string]any

// ImageTask tracks a single product image from remote reference to terminal
// outcome. Created by the dispatcher, mutated only by the pipeline worker
// that holds it in processing, never deleted.
type ImageTask struct {
	ID              string
	JobID           string
	StoreID         string
	ProductID       string
	ImageRef        string // remote source URL
	PlatformImageID string

	Status       ImageStatus
	RejectReason RejectReason

	// Set once bytes are fetched.
	ContentHash string
	Width       int
	Height      int
	FileSize    int
	ContentType string

	// Set by the scorer; nil until the task reaches it.
	Score    *float64
	Analysis Analysis

	// Set iff Status == stored.
	StorageLocator string
	// Task id of the first-stored copy when this task was deduplicated.
	DuplicateOf string

	Attempts  int
	LastError string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewImageTask(jobID, storeID, productID, imageRef, platformImageID string) *ImageTask {
	now := time.Now()
	return &ImageTask{
		ID:              ulid.Make().String(),
		JobID:           jobID,
		StoreID:         storeID,
		ProductID:       productID,
		ImageRef:        imageRef,
		PlatformImageID: platformImageID,
		Status:          ImageStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// StorageKey derives the deterministic object key for this task. The layout
// mirrors product structure so the bucket stays human-browsable even though
// dedup is content-addressed.
func (t *ImageTask) StorageKey() string {
	name := t.PlatformImageID
	if name == "" {
		name = t.ID
	}
	return path.Join("products", t.ProductID, "images", name+".jpg")
}

// MarkRejected moves the task to its terminal rejected state. Score and
// analysis already present (e.g. a below-threshold score) are kept.
func (t *ImageTask) MarkRejected(reason RejectReason, detail string) {
	t.Status = ImageStatusRejected
	t.RejectReason = reason
	t.LastError = detail
	t.UpdatedAt = time.Now()
}

// MarkStored records the final locator. Locator must be non-empty: the
// stored status and the locator are set together or not at all.
func (t *ImageTask) MarkStored(locator string) error {
	if locator == "" {
		return fmt.Errorf("empty storage locator for task %s", t.ID)
	}
	t.Status = ImageStatusStored
	t.StorageLocator = locator
	t.RejectReason = ""
	t.LastError = ""
	t.UpdatedAt = time.Now()
	return nil
}

// ResetForRetry returns a terminal-rejected task to pending under a new job,
// keeping its identity. Used by the dispatcher when a sync re-enumerates a
// previously failed image.
func (t *ImageTask) ResetForRetry(jobID string) {
	t.JobID = jobID
	t.Status = ImageStatusPending
	t.RejectReason = ""
	t.LastError = ""
	t.Attempts = 0
	t.UpdatedAt = time.Now()
}
