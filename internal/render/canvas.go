// Package render holds drawing helpers shared by the frame generators.
package render

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// NewCanvas allocates a black RGBA image of the given size.
func NewCanvas(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	return img
}

// DrawText draws s with its baseline at (x, y) and returns the advance in
// pixels.
func DrawText(img *image.RGBA, face font.Face, x, y int, c color.Color, s string) int {
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	start := d.Dot.X
	d.DrawString(s)
	return (d.Dot.X - start).Ceil()
}

// TextWidth measures s without drawing it.
func TextWidth(face font.Face, s string) int {
	return font.MeasureString(face, s).Ceil()
}

// LineHeight is the vertical distance between consecutive baselines.
func LineHeight(face font.Face) int {
	return face.Metrics().Height.Ceil()
}

// Ascent is the distance from the top of a line box to its baseline.
func Ascent(face font.Face) int {
	return face.Metrics().Ascent.Ceil()
}

// AdvanceWidth returns the fixed advance of a monospace face, measured on
// 'M'. Proportional faces get their widest-case estimate the same way.
func AdvanceWidth(face font.Face) int {
	adv, ok := face.GlyphAdvance('M')
	if !ok {
		return LineHeight(face) / 2
	}
	return adv.Ceil()
}

// FillRect paints a solid rectangle, clipped to the image bounds.
func FillRect(img *image.RGBA, r image.Rectangle, c color.Color) {
	draw.Draw(img, r.Intersect(img.Bounds()), image.NewUniform(c), image.Point{}, draw.Src)
}

// FadeToBlack darkens the whole image in place. alpha is 0 (untouched) to
// 255 (fully black).
func FadeToBlack(img *image.RGBA, alpha uint8) {
	if alpha == 0 {
		return
	}
	keep := uint32(255 - alpha)
	pix := img.Pix
	for i := 0; i < len(pix); i += 4 {
		pix[i] = uint8(uint32(pix[i]) * keep / 255)
		pix[i+1] = uint8(uint32(pix[i+1]) * keep / 255)
		pix[i+2] = uint8(uint32(pix[i+2]) * keep / 255)
	}
}

// ScaleColor returns c with its channels multiplied by num/den, used for
// trail dimming.
func ScaleColor(c color.RGBA, num, den int) color.RGBA {
	if num >= den {
		return c
	}
	if num < 0 {
		num = 0
	}
	return color.RGBA{
		R: uint8(int(c.R) * num / den),
		G: uint8(int(c.G) * num / den),
		B: uint8(int(c.B) * num / den),
		A: 255,
	}
}
