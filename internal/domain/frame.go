package domain

import "image"

// Frame is one rendered raster at a sequence index. It is owned by whichever
// pipeline stage currently holds it and handed to exactly one consumer.
type Frame struct {
	Index int
	Image *image.RGBA

	// LoopBoundary marks the final frame of a sequence: the next index a
	// consumer would request is a restart from zero.
	LoopBoundary bool
}
