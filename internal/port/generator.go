package port

import "github.com/greenfx/greenfx/internal/domain"

// FrameGenerator produces a finite frame sequence as a pure function of the
// frame index: any index may be requested without replaying earlier frames.
type FrameGenerator interface {
	TotalFrames() int
	Frame(index int) (*domain.Frame, error)
}
