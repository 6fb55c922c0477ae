package domain

import "time"

// GenerationRecord is one finished (or failed) render, kept for estimating
// how long similar jobs will take.
type GenerationRecord struct {
	JobID           string     `json:"job_id"`
	Effect          EffectKind `json:"effect"`
	DurationSeconds int        `json:"duration_seconds"`
	Frames          int        `json:"frames"`
	WallSeconds     float64    `json:"wall_seconds"`
	Success         bool       `json:"success"`
	RecordedAt      time.Time  `json:"recorded_at"`
}
