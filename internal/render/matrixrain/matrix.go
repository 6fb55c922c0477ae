// Package matrixrain renders the falling-glyph effect as an exactly seamless
// loop. Every column's vertical position is a periodic function of the frame
// index with a period dividing the loop length, so frame 0 and frame
// loopLength are bit-identical by construction.
package matrixrain

import (
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"math/rand"

	"golang.org/x/image/font"

	"github.com/greenfx/greenfx/internal/domain"
	"github.com/greenfx/greenfx/internal/port"
	"github.com/greenfx/greenfx/internal/render"
	"github.com/greenfx/greenfx/internal/render/fonts"
)

// Two disjoint glyph classes, mixed across columns for visual variety.
var glyphClasses = [2][]rune{
	[]rune("ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"),
	[]rune("!#$%&()*+-/<=>?@[]^{}|~;:"),
}

// Depth bands: far columns use the base glyph size and the fewest loop
// cycles, near columns are larger and faster. Parallax falls out of the
// shared periodic position function, not separately tracked time.
type depthBand struct {
	scale     int
	minCycles int
	maxCycles int
}

var depthBands = [3]depthBand{
	{scale: 1, minCycles: 1, maxCycles: 2}, // far
	{scale: 2, minCycles: 2, maxCycles: 3}, // mid
	{scale: 3, minCycles: 3, maxCycles: 5}, // near
}

type Options struct {
	Width           int
	Height          int
	FPS             int
	DurationSeconds int
	FontID          string
	BaseFontSize    int
	Color           color.RGBA
	Seed            int64
}

type column struct {
	x          int
	depth      int
	cycles     int
	phase      int
	trailCells int
	class      int
}

type Generator struct {
	opts       Options
	loopFrames int
	columns    []column
	faces      [len(depthBands)]font.Face
	cells      [len(depthBands)]int
	ascents    [len(depthBands)]int
	headColor  color.RGBA
}

func New(opts Options) (*Generator, error) {
	if opts.Width <= 0 || opts.Height <= 0 || opts.FPS <= 0 || opts.DurationSeconds <= 0 {
		return nil, fmt.Errorf("invalid matrix options %dx%d@%d duration=%d",
			opts.Width, opts.Height, opts.FPS, opts.DurationSeconds)
	}
	if opts.BaseFontSize <= 0 {
		opts.BaseFontSize = 16
	}
	if opts.Seed == 0 {
		opts.Seed = 1
	}

	g := &Generator{
		opts:       opts,
		loopFrames: opts.DurationSeconds * opts.FPS,
		headColor:  lighten(opts.Color),
	}

	for i, band := range depthBands {
		face, err := fonts.Face(opts.FontID, float64(opts.BaseFontSize*band.scale))
		if err != nil {
			return nil, err
		}
		g.faces[i] = face
		g.cells[i] = render.LineHeight(face)
		g.ascents[i] = render.Ascent(face)
	}

	// Column layout is drawn once from a seeded source, so the whole
	// sequence is a deterministic function of the options.
	rng := rand.New(rand.NewSource(opts.Seed))
	spacing := opts.BaseFontSize
	for x := 0; x < opts.Width; x += spacing {
		depth := pickDepth(rng)
		band := depthBands[depth]
		cell := g.cells[depth]
		trailCells := 8 + rng.Intn(13)
		span := opts.Height + 2*trailCells*cell
		g.columns = append(g.columns, column{
			x:          x,
			depth:      depth,
			cycles:     band.minCycles + rng.Intn(band.maxCycles-band.minCycles+1),
			phase:      rng.Intn(span),
			trailCells: trailCells,
			class:      rng.Intn(len(glyphClasses)),
		})
	}

	return g, nil
}

func (g *Generator) TotalFrames() int {
	return g.loopFrames
}

// LoopFrames is the seamless loop length: duration times frame rate.
func (g *Generator) LoopFrames() int {
	return g.loopFrames
}

// Frame accepts any non-negative index; the sequence is periodic in
// loopFrames, which is exactly what makes the loop seamless.
func (g *Generator) Frame(index int) (*domain.Frame, error) {
	if index < 0 {
		return nil, fmt.Errorf("frame index %d out of range", index)
	}
	step := index % g.loopFrames

	img := render.NewCanvas(g.opts.Width, g.opts.Height)
	for _, col := range g.columns {
		g.drawColumn(img, col, step)
	}

	return &domain.Frame{
		Index:        index,
		Image:        img,
		LoopBoundary: step == g.loopFrames-1,
	}, nil
}

func (g *Generator) drawColumn(img *image.RGBA, col column, step int) {
	cell := g.cells[col.depth]
	trailPx := col.trailCells * cell
	span := g.opts.Height + 2*trailPx

	// Integer travel: cycles full spans per loop, wrapped with modular
	// arithmetic so nothing accumulates across loops.
	travel := int(int64(step) * int64(col.cycles) * int64(span) / int64(g.loopFrames))
	headY := (col.phase+travel)%span - trailPx

	for k := 0; k <= col.trailCells; k++ {
		y := headY - k*cell
		if y+cell <= 0 || y >= g.opts.Height {
			continue
		}

		c := g.headColor
		if k > 0 {
			c = render.ScaleColor(g.opts.Color, col.trailCells-k+1, col.trailCells+1)
		}

		glyphs := glyphClasses[col.class]
		glyph := glyphs[cellHash(col.x, floorDiv(y, cell))%uint32(len(glyphs))]
		render.DrawText(img, g.faces[col.depth], col.x, y+g.ascents[col.depth], c, string(glyph))
	}
}

func pickDepth(rng *rand.Rand) int {
	switch n := rng.Intn(10); {
	case n < 5:
		return 0
	case n < 8:
		return 1
	default:
		return 2
	}
}

// cellHash keys the glyph choice on the column and the canvas cell row, so
// glyphs sit on a fixed grid the rain passes over.
func cellHash(x, row int) uint32 {
	h := fnv.New32a()
	var buf [8]byte
	buf[0] = byte(x)
	buf[1] = byte(x >> 8)
	buf[2] = byte(x >> 16)
	buf[3] = byte(x >> 24)
	buf[4] = byte(row)
	buf[5] = byte(row >> 8)
	buf[6] = byte(row >> 16)
	buf[7] = byte(row >> 24)
	_, _ = h.Write(buf[:])
	return h.Sum32()
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// lighten derives the bright head color from the body color. Pure green
// maps to #BFFF00.
func lighten(c color.RGBA) color.RGBA {
	return color.RGBA{
		R: uint8(int(c.R) + (255-int(c.R))*3/4),
		G: uint8(int(c.G) + (255-int(c.G))/4),
		B: c.B,
		A: 255,
	}
}

var _ port.FrameGenerator = (*Generator)(nil)
