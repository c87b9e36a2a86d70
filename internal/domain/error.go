package domain

import (
	"errors"
	"fmt"
)

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrTaskNotClaimed     = errors.New("task is not in processing state")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid executor context")
)

// Stage identifies which pipeline stage produced an error.
type Stage string

const (
	StageFetch  Stage = "fetch"
	StageScore  Stage = "score"
	StageUpload Stage = "upload"
)

// ErrorKind classifies a stage error for retry handling.
// Transient errors are retried with backoff; invalid and fatal are not.
type ErrorKind string

const (
	KindTransient ErrorKind = "transient"
	KindInvalid   ErrorKind = "invalid"
	KindFatal     ErrorKind = "fatal"
)

// StageError wraps an underlying failure with the stage it occurred in and
// whether a retry can change the outcome.
type StageError struct {
	Stage Stage
	Kind  ErrorKind
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Stage, e.Kind, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func NewFetchError(kind ErrorKind, err error) *StageError {
	return &StageError{Stage: StageFetch, Kind: kind, Err: err}
}

func NewScoreError(kind ErrorKind, err error) *StageError {
	return &StageError{Stage: StageScore, Kind: kind, Err: err}
}

func NewUploadError(kind ErrorKind, err error) *StageError {
	return &StageError{Stage: StageUpload, Kind: kind, Err: err}
}

// IsTransient reports whether err is a stage error that may succeed on retry.
func IsTransient(err error) bool {
	var se *StageError
	return errors.As(err, &se) && se.Kind == KindTransient
}
