package heatmap

import (
	"fmt"
	"strings"
	"time"

	"github.com/verte-zerg/cfheat/internal/model"
)

// TooltipEntry is one solved problem in a tooltip.
type TooltipEntry struct {
	Name      string
	Rating    int
	Link      string
	Duplicate bool
}

// Label renders "name (rating)".
func (e TooltipEntry) Label() string {
	return fmt.Sprintf("%s (%d)", e.Name, e.Rating)
}

// Tooltip is the hover box content for a day.
type Tooltip struct {
	Visible bool
	Date    time.Time
	Key     string
	Entries []TooltipEntry
}

// NewTooltip builds a visible tooltip from a bucket.
func NewTooltip(b *model.DayBucket) Tooltip {
	if b == nil {
		return Tooltip{}
	}
	t := Tooltip{
		Visible: len(b.Problems) > 0,
		Date:    b.Date,
		Key:     b.Date.Format(model.DateLayout),
		Entries: make([]TooltipEntry, 0, len(b.Problems)),
	}
	for _, p := range b.Problems {
		t.Entries = append(t.Entries, TooltipEntry{
			Name:      p.Name,
			Rating:    p.Rating,
			Link:      p.Link,
			Duplicate: p.IsDuplicate,
		})
	}
	return t
}

// String renders the tooltip as plain text, one problem per line. Repeat
// solves are marked.
func (t Tooltip) String() string {
	var b strings.Builder
	b.WriteString(t.Key)
	for _, e := range t.Entries {
		b.WriteByte('\n')
		b.WriteString(e.Label())
		if e.Duplicate {
			b.WriteString(" [repeat]")
		}
	}
	return b.String()
}
