package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound = errors.New("job not found")
	ErrGone     = errors.New("artifact retention expired")
	ErrNotReady = errors.New("job has not completed")
)

type RejectReason string

const (
	RejectRateLimited           RejectReason = "RATE_LIMITED"
	RejectInvalidParameter      RejectReason = "INVALID_PARAMETER"
	RejectConflictingParameters RejectReason = "CONFLICTING_PARAMETERS"
	RejectResourceExhausted     RejectReason = "RESOURCE_EXHAUSTED"
)

// Rejection is returned synchronously by admission; no job record exists
// for a rejected submission.
type Rejection struct {
	Reason     RejectReason
	Message    string
	RetryAfter time.Duration
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("%s: %s", r.Reason, r.Message)
}

func NewRejection(reason RejectReason, format string, args ...any) *Rejection {
	return &Rejection{
		Reason:  reason,
		Message: fmt.Sprintf(format, args...),
	}
}
