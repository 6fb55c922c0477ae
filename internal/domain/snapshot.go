package domain

import "time"

// ResourceSnapshot is immutable once sampled; the monitor replaces the
// current snapshot atomically.
type ResourceSnapshot struct {
	CPUPercent    float64   `json:"cpu_percent"`
	MemoryPercent float64   `json:"memory_percent"`
	DiskFreeBytes uint64    `json:"disk_free_bytes"`
	QueueDepth    int       `json:"queue_depth"`
	ActiveJobs    int       `json:"active_jobs"`
	SampledAt     time.Time `json:"sampled_at"`
}
