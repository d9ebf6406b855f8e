package canvas

import "github.com/verte-zerg/cfheat/internal/heatmap"

// MoveTo places the pointer at a column and row. Leave handlers of elements
// the pointer exits run before enter handlers of elements it reaches.
func (c *Canvas) MoveTo(col, row int) {
	next := c.hitTest(col, row)
	for id := range c.hovered {
		if _, still := next[id]; still {
			continue
		}
		if el := c.element(id); el != nil && el.leave != nil {
			el.leave()
		}
	}
	prev := c.hovered
	c.hovered = next
	for i := range c.elements {
		id := heatmap.ElementID(i)
		if _, ok := next[id]; !ok {
			continue
		}
		if _, was := prev[id]; was {
			continue
		}
		if el := c.elements[i]; el.enter != nil {
			el.enter()
		}
	}
}

// Focus moves the pointer onto an element.
func (c *Canvas) Focus(id heatmap.ElementID) bool {
	col, row, ok := c.Position(id)
	if !ok {
		return false
	}
	c.MoveTo(col, row)
	return true
}

// Leave moves the pointer off the canvas.
func (c *Canvas) Leave() {
	c.MoveTo(-1, -1)
}

// ElementAt returns the topmost rectangle under a column and row.
func (c *Canvas) ElementAt(col, row int) (heatmap.ElementID, bool) {
	for i := len(c.elements) - 1; i >= 0; i-- {
		el := c.elements[i]
		if el.kind == kindRect && el.contains(col, row) {
			return heatmap.ElementID(i), true
		}
	}
	return -1, false
}

func (c *Canvas) hitTest(col, row int) map[heatmap.ElementID]struct{} {
	out := map[heatmap.ElementID]struct{}{}
	for i, el := range c.elements {
		if el.kind == kindRect && el.contains(col, row) {
			out[heatmap.ElementID(i)] = struct{}{}
		}
	}
	return out
}

func (el *element) contains(col, row int) bool {
	return col >= el.col && col < el.col+el.cols && row >= el.row && row < el.row+el.rows
}
