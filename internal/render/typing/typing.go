// Package typing renders the character-by-character code entry effect.
//
// A Generator is a pure function of the frame index: the reveal schedule,
// cursor blink, scrolling, and the end-of-loop fade are all computed from
// the index alone, so any frame can be produced without replaying the ones
// before it.
package typing

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"golang.org/x/image/font"

	"github.com/greenfx/greenfx/internal/domain"
	"github.com/greenfx/greenfx/internal/port"
	"github.com/greenfx/greenfx/internal/render"
	"github.com/greenfx/greenfx/internal/render/fonts"
)

const (
	margin       = 10
	cursorWidth  = 2
	blinkHz      = 1.0
	holdSeconds  = 2
	fadeFrameCap = 30
	maxFadeAlpha = 217 // fade stops short of full black so the last frame still shows the text
	tabExpansion = "    "
)

type Options struct {
	Width           int
	Height          int
	FPS             int
	DurationSeconds int
	FontID          string
	FontSize        int
	Color           color.RGBA
	Text            string
}

type Generator struct {
	opts Options
	face font.Face

	lines []string
	// cum[i] is the number of characters in lines[:i]; cum[len(lines)] is
	// the full text length.
	cum        []int
	totalChars int

	totalFrames  int
	typingFrames int
	holdFrames   int
	fadeFrames   int

	lineHeight int
	ascent     int
	advance    int
	maxVisible int
	blinkEvery int
}

func New(opts Options) (*Generator, error) {
	if opts.Width <= 0 || opts.Height <= 0 || opts.FPS <= 0 || opts.DurationSeconds <= 0 {
		return nil, fmt.Errorf("invalid typing options %dx%d@%d duration=%d",
			opts.Width, opts.Height, opts.FPS, opts.DurationSeconds)
	}

	face, err := fonts.Face(opts.FontID, float64(opts.FontSize))
	if err != nil {
		return nil, err
	}

	g := &Generator{
		opts:       opts,
		face:       face,
		lineHeight: render.LineHeight(face),
		ascent:     render.Ascent(face),
		advance:    render.AdvanceWidth(face),
	}

	wrapWidth := (opts.Width - 2*margin) / g.advance
	if wrapWidth < 1 {
		wrapWidth = 1
	}
	g.lines = wrapLines(opts.Text, wrapWidth)

	g.cum = make([]int, len(g.lines)+1)
	for i, line := range g.lines {
		g.cum[i+1] = g.cum[i] + len([]rune(line))
	}
	g.totalChars = g.cum[len(g.lines)]

	g.maxVisible = (opts.Height - 2*margin) / g.lineHeight
	if g.maxVisible < 1 {
		g.maxVisible = 1
	}

	g.totalFrames = opts.DurationSeconds * opts.FPS
	g.holdFrames = holdSeconds * opts.FPS
	if max := g.totalFrames / 4; g.holdFrames > max {
		g.holdFrames = max
	}
	g.fadeFrames = fadeFrameCap
	if max := g.totalFrames / 10; g.fadeFrames > max {
		g.fadeFrames = max
	}
	g.typingFrames = g.totalFrames - g.holdFrames - g.fadeFrames
	if g.typingFrames < 1 {
		g.typingFrames = 1
	}

	g.blinkEvery = int(float64(opts.FPS) / (2 * blinkHz))
	if g.blinkEvery < 1 {
		g.blinkEvery = 1
	}

	return g, nil
}

func (g *Generator) TotalFrames() int {
	return g.totalFrames
}

// Revealed reports how many characters are visible at the given frame. The
// schedule distributes the full text evenly over the typing span: frame 0
// reveals nothing, every frame at or past the span shows all of it.
func (g *Generator) Revealed(index int) int {
	if index <= 0 {
		return 0
	}
	if index >= g.typingFrames {
		return g.totalChars
	}
	return g.totalChars * index / g.typingFrames
}

func (g *Generator) Frame(index int) (*domain.Frame, error) {
	if index < 0 || index >= g.totalFrames {
		return nil, fmt.Errorf("frame index %d out of range [0,%d)", index, g.totalFrames)
	}

	img := render.NewCanvas(g.opts.Width, g.opts.Height)

	revealed := g.Revealed(index)
	fullLines, partial := g.split(revealed)

	// Lines on screen: the completed ones plus the one being typed.
	displayed := fullLines
	typingRow := fullLines < len(g.lines)
	if typingRow {
		displayed++
	}
	scroll := 0
	if displayed > g.maxVisible {
		scroll = displayed - g.maxVisible
	}

	row := 0
	for i := scroll; i < fullLines && row < g.maxVisible; i++ {
		g.drawLine(img, g.lines[i], row)
		row++
	}

	cursorRow := row
	cursorCol := 0
	if typingRow && row < g.maxVisible {
		if partial != "" {
			g.drawLine(img, partial, row)
		}
		cursorCol = len([]rune(partial))
	} else if !typingRow {
		// Fully revealed: the cursor holds at the end of the last line.
		cursorRow = row - 1
		if cursorRow < 0 {
			cursorRow = 0
		}
		if len(g.lines) > 0 {
			cursorCol = len([]rune(g.lines[len(g.lines)-1]))
		}
	}

	if g.cursorVisible(index) {
		x := margin + cursorCol*g.advance
		yTop := margin + cursorRow*g.lineHeight
		render.FillRect(img,
			image.Rect(x, yTop, x+cursorWidth, yTop+g.opts.FontSize),
			g.opts.Color)
	}

	if alpha := g.fadeAlpha(index); alpha > 0 {
		render.FadeToBlack(img, alpha)
	}

	return &domain.Frame{
		Index:        index,
		Image:        img,
		LoopBoundary: index == g.totalFrames-1,
	}, nil
}

// split maps a revealed character count to (count of complete lines,
// visible prefix of the line being typed).
func (g *Generator) split(revealed int) (int, string) {
	for i := 0; i < len(g.lines); i++ {
		if revealed < g.cum[i+1] {
			runes := []rune(g.lines[i])
			return i, string(runes[:revealed-g.cum[i]])
		}
	}
	return len(g.lines), ""
}

func (g *Generator) drawLine(img *image.RGBA, line string, row int) {
	y := margin + row*g.lineHeight + g.ascent
	render.DrawText(img, g.face, margin, y, g.opts.Color, line)
}

// cursorVisible toggles on a frame-counted period, never wall-clock time.
func (g *Generator) cursorVisible(index int) bool {
	return (index/g.blinkEvery)%2 == 0
}

func (g *Generator) fadeAlpha(index int) uint8 {
	fadeStart := g.totalFrames - g.fadeFrames
	if g.fadeFrames == 0 || index < fadeStart {
		return 0
	}
	alpha := maxFadeAlpha * (index - fadeStart + 1) / g.fadeFrames
	if alpha > maxFadeAlpha {
		alpha = maxFadeAlpha
	}
	return uint8(alpha)
}

// wrapLines normalizes the text and hard-wraps it at width characters.
func wrapLines(text string, width int) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\t", tabExpansion)

	var out []string
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimRight(raw, " ")
		runes := []rune(line)
		if len(runes) == 0 {
			out = append(out, "")
			continue
		}
		for len(runes) > width {
			out = append(out, string(runes[:width]))
			runes = runes[width:]
		}
		out = append(out, string(runes))
	}
	// Drop trailing empty lines so the cursor does not park below the text.
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return out
}

var _ port.FrameGenerator = (*Generator)(nil)
