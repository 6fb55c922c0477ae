package service

import (
	"time"

	"github.com/greenfx/greenfx/internal/domain"
	"github.com/greenfx/greenfx/internal/port"
)

// defaultFrameCost seeds the estimate before any history exists.
const defaultFrameCost = 40 * time.Millisecond

const estimatorSamples = 20

// Estimator predicts render wall time from recent successful generations of
// the same effect.
type Estimator struct {
	history port.GenerationHistory
}

func NewEstimator(history port.GenerationHistory) *Estimator {
	return &Estimator{history: history}
}

func (e *Estimator) Estimate(effect domain.EffectKind, durationSeconds, fps int) time.Duration {
	frames := durationSeconds * fps

	recs, err := e.history.Recent(effect, estimatorSamples)
	if err != nil || len(recs) == 0 {
		return time.Duration(frames) * defaultFrameCost
	}

	var totalFrames int
	var totalWall float64
	for _, rec := range recs {
		if !rec.Success || rec.Frames <= 0 {
			continue
		}
		totalFrames += rec.Frames
		totalWall += rec.WallSeconds
	}
	if totalFrames == 0 {
		return time.Duration(frames) * defaultFrameCost
	}

	perFrame := totalWall / float64(totalFrames)
	return time.Duration(float64(frames) * perFrame * float64(time.Second))
}
