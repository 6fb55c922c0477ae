package domain

import (
	"fmt"
	"image/color"
	"unicode/utf8"
)

// Duration bounds per effect, in seconds.
const (
	TypingMinDuration = 10
	TypingMaxDuration = 600
	MatrixMinDuration = 5
	MatrixMaxDuration = 120

	MinFontSize = 8
	MaxFontSize = 72

	MaxInlineTextBytes = 50 * 1024
	MaxUploadBytes     = 2 * 1024 * 1024
)

// RenderParams is validated at admission and immutable afterwards.
// Text source is exactly one of InlineText, UploadContent, or the built-in
// default (both empty).
type RenderParams struct {
	DurationSeconds int
	FontID          string
	FontSize        int
	TextColor       string
	InlineText      string
	UploadContent   []byte
	UploadName      string
}

// ApplyDefaults fills unset optional fields before validation.
func (p *RenderParams) ApplyDefaults(effect EffectKind) {
	if p.DurationSeconds == 0 {
		if effect == EffectMatrix {
			p.DurationSeconds = 15
		} else {
			p.DurationSeconds = 90
		}
	}
	if p.FontID == "" {
		p.FontID = "mono"
	}
	if p.FontSize == 0 {
		p.FontSize = 32
	}
	if p.TextColor == "" {
		p.TextColor = "#00FF00"
	}
}

// Validate checks every bound the admission controller enforces. fontExists
// reports membership in the embedded font set.
func (p *RenderParams) Validate(effect EffectKind, fontExists func(string) bool) error {
	if effect != EffectTyping && effect != EffectMatrix {
		return NewRejection(RejectInvalidParameter, "unknown effect %q", effect)
	}

	minDur, maxDur := TypingMinDuration, TypingMaxDuration
	if effect == EffectMatrix {
		minDur, maxDur = MatrixMinDuration, MatrixMaxDuration
	}
	if p.DurationSeconds < minDur || p.DurationSeconds > maxDur {
		return NewRejection(RejectInvalidParameter,
			"duration must be between %d and %d seconds", minDur, maxDur)
	}

	if fontExists != nil && !fontExists(p.FontID) {
		return NewRejection(RejectInvalidParameter, "unknown font %q", p.FontID)
	}
	if p.FontSize < MinFontSize || p.FontSize > MaxFontSize {
		return NewRejection(RejectInvalidParameter,
			"font size must be between %d and %d", MinFontSize, MaxFontSize)
	}
	if _, err := ParseHexColor(p.TextColor); err != nil {
		return NewRejection(RejectInvalidParameter, "invalid text color %q", p.TextColor)
	}

	if p.InlineText != "" && len(p.UploadContent) > 0 {
		return NewRejection(RejectConflictingParameters,
			"inline text and uploaded file cannot both be provided")
	}
	if len(p.InlineText) > MaxInlineTextBytes {
		return NewRejection(RejectInvalidParameter,
			"inline text exceeds %d bytes", MaxInlineTextBytes)
	}
	if len(p.UploadContent) > MaxUploadBytes {
		return NewRejection(RejectInvalidParameter,
			"uploaded file exceeds %d bytes", MaxUploadBytes)
	}
	if len(p.UploadContent) > 0 && !utf8.Valid(p.UploadContent) {
		return NewRejection(RejectInvalidParameter, "uploaded file is not valid UTF-8")
	}

	return nil
}

// Text resolves the text source: uploaded file content wins over inline
// text, and both empty falls back to the built-in sample.
func (p *RenderParams) Text() string {
	if len(p.UploadContent) > 0 {
		return string(p.UploadContent)
	}
	if p.InlineText != "" {
		return p.InlineText
	}
	return DefaultSourceText
}

// ParseHexColor parses a #RRGGBB color value.
func ParseHexColor(s string) (color.RGBA, error) {
	if len(s) != 7 || s[0] != '#' {
		return color.RGBA{}, fmt.Errorf("color must be in #RRGGBB format")
	}
	var r, g, b uint8
	if _, err := fmt.Sscanf(s[1:], "%02x%02x%02x", &r, &g, &b); err != nil {
		return color.RGBA{}, fmt.Errorf("color must be in #RRGGBB format")
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

// DefaultSourceText is rendered when a typing job provides no text source.
const DefaultSourceText = `package main

import "fmt"

type grid [][]rune

func (g grid) step() grid {
	next := make(grid, len(g))
	for y, row := range g {
		next[y] = make([]rune, len(row))
		for x := range row {
			if g.alive(x, y) {
				next[y][x] = '#'
			} else {
				next[y][x] = ' '
			}
		}
	}
	return next
}

func (g grid) alive(x, y int) bool {
	n := g.neighbors(x, y)
	return n == 3 || (n == 2 && g[y][x] == '#')
}

func (g grid) neighbors(x, y int) int {
	count := 0
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			ny, nx := y+dy, x+dx
			if ny >= 0 && ny < len(g) && nx >= 0 && nx < len(g[ny]) && g[ny][nx] == '#' {
				count++
			}
		}
	}
	return count
}

func main() {
	fmt.Println("conway")
}
`
