package heatmap

import (
	"time"

	"github.com/verte-zerg/cfheat/internal/rating"
)

// ElementID identifies a primitive on a Surface.
type ElementID int

// Anchor is the horizontal alignment of text.
type Anchor int

// Text anchors.
const (
	AnchorStart Anchor = iota
	AnchorEnd
)

// Rect is a rectangle primitive.
type Rect struct {
	X, Y          int
	Width, Height int
	Fill          rating.Color
}

// Text is a text primitive positioned at its baseline.
type Text struct {
	X, Y    int
	Content string
	Anchor  Anchor
}

// Surface is a 2D drawing target with per-primitive pointer events.
type Surface interface {
	// Reset discards every primitive and subscription.
	Reset(width, height int)
	Rect(r Rect) ElementID
	Text(t Text) ElementID
	// SetFill recolors a rectangle, animating over transition when supported.
	SetFill(id ElementID, c rating.Color, transition time.Duration)
	OnEnter(id ElementID, fn func())
	OnLeave(id ElementID, fn func())
}

// Titler is implemented by surfaces that attach static hover text.
type Titler interface {
	SetTitle(id ElementID, title string)
}

// YearOption is one entry of a year selector.
type YearOption struct {
	Value int
	Label string
}

// Selector is the year-selection control.
type Selector interface {
	SetOptions(opts []YearOption)
	SetValue(v int)
	OnChange(fn func(v int))
}
