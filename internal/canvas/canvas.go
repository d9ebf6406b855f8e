// Package canvas implements a heatmap surface on a terminal character grid.
//
// Surface coordinates are scaled so one layout cell becomes two columns and
// one row. Rectangles are drawn as a glyph followed by a gap.
package canvas

import (
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/cfheat/internal/heatmap"
	"github.com/verte-zerg/cfheat/internal/rating"
)

const (
	// DefaultCellSize is the layout cell size mapped to one row.
	DefaultCellSize = 15
	cellGlyph       = '■'
	emptyGlyph      = '·'
)

type kind int

const (
	kindRect kind = iota
	kindText
)

type element struct {
	kind  kind
	rect  heatmap.Rect
	text  heatmap.Text
	col   int
	row   int
	cols  int
	rows  int
	from  rating.Color
	to    rating.Color
	start time.Time
	dur   time.Duration
	enter func()
	leave func()
}

// Canvas is a terminal drawing surface.
type Canvas struct {
	cellSize   int
	background rating.Color
	renderer   *lipgloss.Renderer
	plain      bool
	now        func() time.Time

	width    int
	height   int
	elements []*element
	hovered  map[heatmap.ElementID]struct{}
	cursor   heatmap.ElementID
}

// Option configures a Canvas.
type Option func(*Canvas)

// WithCellSize sets the layout cell size mapped to one row.
func WithCellSize(size int) Option {
	return func(c *Canvas) {
		if size > 0 {
			c.cellSize = size
		}
	}
}

// WithBackground sets the color translucent fills are composited onto.
func WithBackground(bg rating.Color) Option {
	return func(c *Canvas) { c.background = bg }
}

// WithRenderer sets the lipgloss renderer used for styling.
func WithRenderer(r *lipgloss.Renderer) Option {
	return func(c *Canvas) {
		if r != nil {
			c.renderer = r
		}
	}
}

// WithPlain disables color and marks active cells with a glyph instead.
func WithPlain(plain bool) Option {
	return func(c *Canvas) { c.plain = plain }
}

// WithClock overrides the animation clock.
func WithClock(now func() time.Time) Option {
	return func(c *Canvas) {
		if now != nil {
			c.now = now
		}
	}
}

// New constructs a Canvas.
func New(opts ...Option) *Canvas {
	c := &Canvas{
		cellSize:   DefaultCellSize,
		background: rating.White,
		renderer:   lipgloss.DefaultRenderer(),
		now:        time.Now,
		hovered:    map[heatmap.ElementID]struct{}{},
		cursor:     -1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Valid reports whether c is usable.
func (c *Canvas) Valid() bool { return c != nil }

// Reset implements heatmap.Surface.
func (c *Canvas) Reset(width, height int) {
	c.width = c.scaleX(width)
	c.height = ceilDiv(height, c.cellSize)
	c.elements = nil
	c.hovered = map[heatmap.ElementID]struct{}{}
	c.cursor = -1
}

// Rect implements heatmap.Surface.
func (c *Canvas) Rect(r heatmap.Rect) heatmap.ElementID {
	col, cols := c.span(r.X, r.Width, 2)
	row, rows := c.span(r.Y, r.Height, 1)
	return c.add(&element{
		kind: kindRect,
		rect: r,
		col:  col,
		row:  row,
		cols: cols,
		rows: rows,
		from: r.Fill,
		to:   r.Fill,
	})
}

// Text implements heatmap.Surface. Y is a baseline so the row is taken from
// the pixel above it.
func (c *Canvas) Text(t heatmap.Text) heatmap.ElementID {
	width := runewidth.StringWidth(t.Content)
	col := c.scaleX(t.X)
	if t.Anchor == heatmap.AnchorEnd {
		col -= width
	}
	if col < 0 {
		col = 0
	}
	row := 0
	if t.Y > 0 {
		row = (t.Y - 1) / c.cellSize
	}
	return c.add(&element{kind: kindText, text: t, col: col, row: row, cols: width, rows: 1})
}

// SetFill implements heatmap.Surface.
func (c *Canvas) SetFill(id heatmap.ElementID, fill rating.Color, transition time.Duration) {
	el := c.element(id)
	if el == nil || el.kind != kindRect {
		return
	}
	now := c.now()
	el.from = c.fillAt(el, now)
	el.to = fill
	el.start = now
	el.dur = transition
	if transition <= 0 {
		el.from = fill
	}
}

// OnEnter implements heatmap.Surface.
func (c *Canvas) OnEnter(id heatmap.ElementID, fn func()) {
	if el := c.element(id); el != nil {
		el.enter = fn
	}
}

// OnLeave implements heatmap.Surface.
func (c *Canvas) OnLeave(id heatmap.ElementID, fn func()) {
	if el := c.element(id); el != nil {
		el.leave = fn
	}
}

// Size returns the canvas size in columns and rows.
func (c *Canvas) Size() (int, int) {
	return c.width, c.height
}

// Fill returns the current, possibly mid-transition, color of a rectangle.
func (c *Canvas) Fill(id heatmap.ElementID) rating.Color {
	el := c.element(id)
	if el == nil {
		return rating.Color{}
	}
	return c.fillAt(el, c.now())
}

// Animating reports whether any transition is still running.
func (c *Canvas) Animating() bool {
	now := c.now()
	for _, el := range c.elements {
		if el.kind == kindRect && el.dur > 0 && now.Before(el.start.Add(el.dur)) {
			return true
		}
	}
	return false
}

// Position returns the top-left column and row of an element.
func (c *Canvas) Position(id heatmap.ElementID) (int, int, bool) {
	el := c.element(id)
	if el == nil {
		return 0, 0, false
	}
	return el.col, el.row, true
}

// SetCursor highlights an element. A negative id clears the highlight.
func (c *Canvas) SetCursor(id heatmap.ElementID) {
	c.cursor = id
}

func (c *Canvas) add(el *element) heatmap.ElementID {
	c.elements = append(c.elements, el)
	return heatmap.ElementID(len(c.elements) - 1)
}

func (c *Canvas) element(id heatmap.ElementID) *element {
	if id < 0 || int(id) >= len(c.elements) {
		return nil
	}
	return c.elements[id]
}

func (c *Canvas) scaleX(x int) int {
	return x * 2 / c.cellSize
}

// span maps a pixel range to cells, keeping at least one cell.
func (c *Canvas) span(pos, size, scale int) (int, int) {
	start := pos * scale / c.cellSize
	end := (pos + size) * scale / c.cellSize
	if end <= start {
		end = start + 1
	}
	return start, end - start
}

func (c *Canvas) fillAt(el *element, now time.Time) rating.Color {
	if el.dur <= 0 || !now.Before(el.start.Add(el.dur)) {
		return el.to
	}
	t := float64(now.Sub(el.start)) / float64(el.dur)
	if t <= 0 {
		return el.from
	}
	return blend(el.from, el.to, t)
}

func blend(a, b rating.Color, t float64) rating.Color {
	mixed := toColorful(a).BlendRgb(toColorful(b), t)
	r, g, bl := mixed.RGB255()
	return rating.Color{R: r, G: g, B: bl, A: a.A + (b.A-a.A)*t}
}

func toColorful(c rating.Color) colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
