package port

import "github.com/greenfx/greenfx/internal/domain"

// FrameEncoder assembles an ordered frame stream into a single compressed
// video artifact.
type FrameEncoder interface {
	Open(outputPath string) (EncodeSession, error)
}

type EncodeSession interface {
	// Push hands one frame to the encoder. It blocks while the encoder's
	// input buffer is full; that blocking is the pipeline's only backpressure
	// point. Frames must arrive in strictly increasing contiguous index
	// order or Push errors.
	Push(frame *domain.Frame) error

	// Finalize closes the input stream, waits for the encoder, and returns
	// the artifact path and size. A partial artifact is deleted on error.
	Finalize() (path string, size int64, err error)

	// Abort kills the encoder and removes any partial output. Safe to call
	// after a failed Push.
	Abort()
}
