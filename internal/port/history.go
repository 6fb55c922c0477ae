package port

import "github.com/greenfx/greenfx/internal/domain"

// GenerationHistory keeps past generation outcomes for completion-time
// estimates.
type GenerationHistory interface {
	Record(rec domain.GenerationRecord) error
	Recent(effect domain.EffectKind, limit int) ([]domain.GenerationRecord, error)
}
