package canvas

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/cfheat/internal/rating"
)

const (
	cursorGlyph = '▣'
	textColor   = "#8C8C8C"
)

type cell struct {
	r    rune
	fg   string
	cont bool
}

// String renders the canvas. Rows below the last drawn element are dropped.
func (c *Canvas) String() string {
	return c.View(0, c.width)
}

// View renders the columns [offset, offset+width) of the canvas.
func (c *Canvas) View(offset, width int) string {
	if c.width <= 0 || c.height <= 0 || width <= 0 {
		return ""
	}
	from := minInt(maxInt(offset, 0), c.width)
	to := minInt(from+width, c.width)
	grid := make([][]cell, c.height)
	for i := range grid {
		grid[i] = make([]cell, c.width)
		for j := range grid[i] {
			grid[i][j] = cell{r: ' '}
		}
	}
	used := -1
	now := c.now()
	for i, el := range c.elements {
		switch el.kind {
		case kindRect:
			fill := c.fillAt(el, now)
			if fill.A <= 0 {
				continue
			}
			glyph := c.glyph(fill)
			if int(c.cursor) == i {
				glyph = cursorGlyph
			}
			fg := fill.Over(c.background).Hex()
			last := el.col + el.cols - 1
			if el.cols == 1 {
				last++
			}
			for row := el.row; row < el.row+el.rows; row++ {
				for col := el.col; col < last; col++ {
					if put(grid, row, col, cell{r: glyph, fg: fg}) {
						used = maxInt(used, row)
					}
				}
			}
		case kindText:
			col := el.col
			for _, r := range el.text.Content {
				w := runewidth.RuneWidth(r)
				if w == 0 {
					continue
				}
				if put(grid, el.row, col, cell{r: r, fg: textColor}) {
					used = maxInt(used, el.row)
				}
				for k := 1; k < w; k++ {
					put(grid, el.row, col+k, cell{cont: true})
				}
				col += w
			}
		}
	}
	if used < 0 {
		return ""
	}

	lines := make([]string, 0, used+1)
	for _, row := range grid[:used+1] {
		lines = append(lines, c.renderRow(row[from:to]))
	}
	return strings.Join(lines, "\n")
}

func (c *Canvas) glyph(fill rating.Color) rune {
	if c.plain && fill == rating.Neutral {
		return emptyGlyph
	}
	return cellGlyph
}

func (c *Canvas) renderRow(row []cell) string {
	var b strings.Builder
	var run strings.Builder
	fg := ""
	flush := func() {
		if run.Len() == 0 {
			return
		}
		if c.plain || fg == "" {
			b.WriteString(run.String())
		} else {
			b.WriteString(c.renderer.NewStyle().Foreground(lipgloss.Color(fg)).Render(run.String()))
		}
		run.Reset()
	}
	for _, cl := range row {
		if cl.cont {
			continue
		}
		if cl.fg != fg {
			flush()
			fg = cl.fg
		}
		run.WriteRune(cl.r)
	}
	flush()
	return b.String()
}

func put(grid [][]cell, row, col int, cl cell) bool {
	if row < 0 || row >= len(grid) || col < 0 || col >= len(grid[row]) {
		return false
	}
	grid[row][col] = cl
	return true
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
