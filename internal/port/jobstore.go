package port

import (
	"time"

	"github.com/greenfx/greenfx/internal/domain"
)

// JobStore is the job registry and FIFO queue. It is the single
// synchronized access point for all job state mutation.
type JobStore interface {
	Save(job *domain.Job) error
	Get(id string) (*domain.Job, error)

	// Claim atomically transitions the oldest queued job to running and
	// returns it, or nil when the queue is empty.
	Claim() (*domain.Job, error)

	UpdateProgress(id string, progress int) error
	Complete(job *domain.Job) error
	Fail(id string, errMsg string) error

	// CancelQueued terminalizes a still-queued job so no worker claims it.
	// Returns false if the job had already left the queue.
	CancelQueued(id string, reason string) (bool, error)

	CountByStatus(status domain.JobStatus) (int, error)
	ListExpired(before time.Time) ([]*domain.Job, error)
	Delete(id string) error

	// ResetStalled fails any job left running by a previous process.
	ResetStalled() error
}
