// Package svg implements a heatmap surface that serializes to SVG.
package svg

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/verte-zerg/cfheat/internal/heatmap"
	"github.com/verte-zerg/cfheat/internal/rating"
)

// ExtraHeight is added below the layout so the last row is never clipped.
const ExtraHeight = 20

type element struct {
	rect       *heatmap.Rect
	text       *heatmap.Text
	title      string
	transition time.Duration
}

// Document is an in-memory SVG drawing. Pointer subscriptions are accepted
// but cannot run in a static file; day details are emitted as <title> hover
// text instead.
type Document struct {
	width    int
	height   int
	elements []*element
}

// New returns an empty document.
func New() *Document {
	return &Document{}
}

// Valid reports whether d is usable.
func (d *Document) Valid() bool { return d != nil }

// Reset implements heatmap.Surface.
func (d *Document) Reset(width, height int) {
	d.width = width
	d.height = height
	d.elements = nil
}

// Rect implements heatmap.Surface.
func (d *Document) Rect(r heatmap.Rect) heatmap.ElementID {
	d.elements = append(d.elements, &element{rect: &r})
	return heatmap.ElementID(len(d.elements) - 1)
}

// Text implements heatmap.Surface.
func (d *Document) Text(t heatmap.Text) heatmap.ElementID {
	d.elements = append(d.elements, &element{text: &t})
	return heatmap.ElementID(len(d.elements) - 1)
}

// SetFill implements heatmap.Surface.
func (d *Document) SetFill(id heatmap.ElementID, c rating.Color, transition time.Duration) {
	if el := d.element(id); el != nil && el.rect != nil {
		el.rect.Fill = c
		el.transition = transition
	}
}

// OnEnter implements heatmap.Surface.
func (d *Document) OnEnter(heatmap.ElementID, func()) {}

// OnLeave implements heatmap.Surface.
func (d *Document) OnLeave(heatmap.ElementID, func()) {}

// SetTitle implements heatmap.Titler.
func (d *Document) SetTitle(id heatmap.ElementID, title string) {
	if el := d.element(id); el != nil {
		el.title = title
	}
}

func (d *Document) element(id heatmap.ElementID) *element {
	if id < 0 || int(id) >= len(d.elements) {
		return nil
	}
	return d.elements[id]
}

// WriteTo serializes the document.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" preserveAspectRatio="xMinYMin meet">`+"\n",
		d.width, d.height+ExtraHeight)
	if t := d.transition(); t > 0 {
		fmt.Fprintf(&sb, "  <style>rect{transition:fill %dms}text{font-family:sans-serif;font-size:10px;fill:#767676}</style>\n", t.Milliseconds())
	} else {
		sb.WriteString("  <style>text{font-family:sans-serif;font-size:10px;fill:#767676}</style>\n")
	}
	for _, el := range d.elements {
		switch {
		case el.rect != nil:
			r := el.rect
			fmt.Fprintf(&sb, `  <rect x="%d" y="%d" width="%d" height="%d" fill="%s"`, r.X, r.Y, r.Width, r.Height, r.Fill.CSS())
			if el.title == "" {
				sb.WriteString("/>\n")
				continue
			}
			sb.WriteString(">\n")
			fmt.Fprintf(&sb, "    <title>%s</title>\n", escape(el.title))
			sb.WriteString("  </rect>\n")
		case el.text != nil:
			t := el.text
			anchor := ""
			if t.Anchor == heatmap.AnchorEnd {
				anchor = ` text-anchor="end"`
			}
			fmt.Fprintf(&sb, `  <text x="%d" y="%d"%s>%s</text>`+"\n", t.X, t.Y, anchor, escape(t.Content))
		}
	}
	sb.WriteString("</svg>\n")
	n, err := io.WriteString(w, sb.String())
	return int64(n), err
}

// String returns the serialized document.
func (d *Document) String() string {
	var buf bytes.Buffer
	_, _ = d.WriteTo(&buf)
	return buf.String()
}

func (d *Document) transition() time.Duration {
	var out time.Duration
	for _, el := range d.elements {
		if el.transition > out {
			out = el.transition
		}
	}
	return out
}

func escape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
