package domain

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type EffectKind string

const (
	EffectTyping EffectKind = "typing"
	EffectMatrix EffectKind = "matrix"
)

type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

const jobIDTimeLayout = "20060102_150405"

type Job struct {
	ID           string
	Effect       EffectKind
	Params       RenderParams
	Status       JobStatus
	Progress     int
	ErrorMessage string
	ArtifactPath string
	ArtifactSize int64
	Checksum     string
	CreatedAt    time.Time
	StartedAt    sql.NullTime
	CompletedAt  sql.NullTime
}

func NewJob(effect EffectKind, params RenderParams) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:        generateJobID(effect, now),
		Effect:    effect,
		Params:    params,
		Status:    JobStatusQueued,
		CreatedAt: now,
	}
}

func generateJobID(effect EffectKind, now time.Time) string {
	return fmt.Sprintf("%s_%s_%s", effect, now.Format(jobIDTimeLayout), uuid.NewString()[:8])
}

// ParseJobIDTime recovers the creation timestamp embedded in a job id.
// A well-formed id older than the retention window maps to ErrGone even
// after its record has been purged.
func ParseJobIDTime(id string) (time.Time, bool) {
	parts := strings.Split(id, "_")
	if len(parts) != 4 {
		return time.Time{}, false
	}
	if parts[0] != string(EffectTyping) && parts[0] != string(EffectMatrix) {
		return time.Time{}, false
	}
	ts, err := time.ParseInLocation(jobIDTimeLayout, parts[1]+"_"+parts[2], time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

func (j *Job) IsTerminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

func (j *Job) MarkAsCompleted(artifactPath, checksum string, size int64) {
	j.Status = JobStatusCompleted
	j.Progress = 100
	j.ArtifactPath = artifactPath
	j.ArtifactSize = size
	j.Checksum = checksum
	j.ErrorMessage = ""
	j.CompletedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}
}

func (j *Job) MarkAsFailed(err error) {
	j.Status = JobStatusFailed
	j.ErrorMessage = err.Error()
	j.ArtifactPath = ""
	j.CompletedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}
}
