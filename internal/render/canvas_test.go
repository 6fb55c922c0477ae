package render

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenfx/greenfx/internal/render/fonts"
)

func TestNewCanvas_OpaqueBlack(t *testing.T) {
	img := NewCanvas(4, 3)

	assert.Equal(t, image.Rect(0, 0, 4, 3), img.Bounds())
	for i := 0; i < len(img.Pix); i += 4 {
		assert.Equal(t, uint8(0), img.Pix[i])
		assert.Equal(t, uint8(255), img.Pix[i+3], "alpha must be opaque for rawvideo rgba")
	}
}

func TestDrawText_ReturnsAdvance(t *testing.T) {
	face, err := fonts.Face("mono", 12)
	require.NoError(t, err)

	img := NewCanvas(100, 30)
	adv := DrawText(img, face, 2, 14, color.RGBA{G: 255, A: 255}, "ab")

	assert.Greater(t, adv, 0)
	assert.Equal(t, TextWidth(face, "ab"), adv)
}

func TestAdvanceWidth_Monospace(t *testing.T) {
	face, err := fonts.Face("mono", 12)
	require.NoError(t, err)

	adv := AdvanceWidth(face)

	assert.Greater(t, adv, 0)
	// Monospace: a two-char string is exactly two advances.
	assert.Equal(t, 2*adv, TextWidth(face, "MM"))
}

func TestFillRect_ClipsToBounds(t *testing.T) {
	img := NewCanvas(4, 4)

	FillRect(img, image.Rect(2, 2, 10, 10), color.RGBA{R: 255, A: 255})

	assert.Equal(t, uint8(255), img.RGBAAt(3, 3).R)
	assert.Equal(t, uint8(0), img.RGBAAt(1, 1).R)
}

func TestFadeToBlack(t *testing.T) {
	img := NewCanvas(2, 1)
	FillRect(img, img.Bounds(), color.RGBA{R: 200, G: 100, B: 50, A: 255})

	FadeToBlack(img, 0)
	assert.Equal(t, uint8(200), img.RGBAAt(0, 0).R)

	FadeToBlack(img, 255)
	got := img.RGBAAt(0, 0)
	assert.Equal(t, uint8(0), got.R)
	assert.Equal(t, uint8(0), got.G)
	assert.Equal(t, uint8(255), got.A)
}

func TestFadeToBlack_Partial(t *testing.T) {
	img := NewCanvas(1, 1)
	FillRect(img, img.Bounds(), color.RGBA{G: 200, A: 255})

	FadeToBlack(img, 127)

	g := img.RGBAAt(0, 0).G
	assert.Greater(t, g, uint8(0))
	assert.Less(t, g, uint8(200))
}

func TestScaleColor(t *testing.T) {
	c := color.RGBA{R: 100, G: 200, B: 50, A: 255}

	assert.Equal(t, c, ScaleColor(c, 5, 5))
	assert.Equal(t, c, ScaleColor(c, 9, 5))

	half := ScaleColor(c, 1, 2)
	assert.Equal(t, uint8(50), half.R)
	assert.Equal(t, uint8(100), half.G)
	assert.Equal(t, uint8(255), half.A)

	assert.Equal(t, uint8(0), ScaleColor(c, -1, 2).R)
}
