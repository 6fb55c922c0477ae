package matrixrain

import (
	"bytes"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions() Options {
	return Options{
		Width:           64,
		Height:          36,
		FPS:             5,
		DurationSeconds: 5,
		FontID:          "mono",
		BaseFontSize:    10,
		Color:           color.RGBA{G: 255, A: 255},
	}
}

func TestNew_InvalidOptions(t *testing.T) {
	opts := testOptions()
	opts.Width = 0

	_, err := New(opts)

	assert.Error(t, err)
}

func TestGenerator_TotalFrames(t *testing.T) {
	g, err := New(testOptions())
	require.NoError(t, err)

	assert.Equal(t, 25, g.TotalFrames())
	assert.Equal(t, 25, g.LoopFrames())
}

func TestGenerator_SeamlessLoop(t *testing.T) {
	g, err := New(testOptions())
	require.NoError(t, err)

	first, err := g.Frame(0)
	require.NoError(t, err)
	wrapped, err := g.Frame(g.LoopFrames())
	require.NoError(t, err)

	// The frame after the loop is bit-identical to the first one.
	assert.True(t, bytes.Equal(first.Image.Pix, wrapped.Image.Pix))
}

func TestGenerator_Deterministic(t *testing.T) {
	a, err := New(testOptions())
	require.NoError(t, err)
	b, err := New(testOptions())
	require.NoError(t, err)

	fa, err := a.Frame(3)
	require.NoError(t, err)
	fb, err := b.Frame(3)
	require.NoError(t, err)

	assert.True(t, bytes.Equal(fa.Image.Pix, fb.Image.Pix))
}

func TestGenerator_SeedChangesLayout(t *testing.T) {
	a, err := New(testOptions())
	require.NoError(t, err)

	opts := testOptions()
	opts.Seed = 99
	b, err := New(opts)
	require.NoError(t, err)

	fa, err := a.Frame(3)
	require.NoError(t, err)
	fb, err := b.Frame(3)
	require.NoError(t, err)

	assert.False(t, bytes.Equal(fa.Image.Pix, fb.Image.Pix))
}

func TestGenerator_Frame_NegativeIndex(t *testing.T) {
	g, err := New(testOptions())
	require.NoError(t, err)

	_, err = g.Frame(-1)

	assert.Error(t, err)
}

func TestGenerator_Frame_LoopBoundary(t *testing.T) {
	g, err := New(testOptions())
	require.NoError(t, err)

	last, err := g.Frame(g.LoopFrames() - 1)
	require.NoError(t, err)
	assert.True(t, last.LoopBoundary)

	first, err := g.Frame(0)
	require.NoError(t, err)
	assert.False(t, first.LoopBoundary)
}

func TestGenerator_Frame_DrawsSomething(t *testing.T) {
	g, err := New(testOptions())
	require.NoError(t, err)

	frame, err := g.Frame(10)
	require.NoError(t, err)

	lit := 0
	for i := 0; i < len(frame.Image.Pix); i += 4 {
		if frame.Image.Pix[i+1] > 0 {
			lit++
		}
	}
	assert.Greater(t, lit, 0)
}

func TestFloorDiv(t *testing.T) {
	assert.Equal(t, 1, floorDiv(10, 8))
	assert.Equal(t, 0, floorDiv(0, 8))
	assert.Equal(t, -1, floorDiv(-1, 8))
	assert.Equal(t, -2, floorDiv(-9, 8))
}

func TestCellHash_Stable(t *testing.T) {
	assert.Equal(t, cellHash(10, 3), cellHash(10, 3))
	assert.NotEqual(t, cellHash(10, 3), cellHash(10, 4))
}
