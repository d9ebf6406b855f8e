// Package rating maps problem ratings to heatmap colors.
package rating

import (
	"errors"
	"fmt"

	"github.com/verte-zerg/cfheat/internal/model"
)

// DefaultOpacity is the alpha applied to every classified color.
const DefaultOpacity = 0.9

// Neutral is the "no activity" color.
var Neutral = Color{R: 0xeb, G: 0xed, B: 0xf0, A: 1}

// Tier is one entry of the classification table.
type Tier struct {
	MinRating int
	Color     Color
}

// DefaultTiers follows the Codeforces rank colors.
var DefaultTiers = []Tier{
	{MinRating: 3000, Color: RGBA(170, 0, 0, 0.9)},
	{MinRating: 2600, Color: RGBA(255, 0, 0, 1)},
	{MinRating: 2400, Color: RGBA(255, 100, 100, 0.9)},
	{MinRating: 2300, Color: RGBA(255, 187, 85, 0.9)},
	{MinRating: 2100, Color: RGBA(255, 204, 136, 0.9)},
	{MinRating: 1900, Color: RGBA(255, 85, 255, 0.9)},
	{MinRating: 1600, Color: RGBA(170, 170, 255, 0.9)},
	{MinRating: 1400, Color: RGBA(119, 221, 187, 0.9)},
	{MinRating: 1200, Color: RGBA(119, 255, 119, 0.9)},
	{MinRating: 0, Color: RGBA(204, 204, 204, 0.9)},
}

// Classifier colors a day by its hardest first-solve.
type Classifier struct {
	tiers   []Tier
	opacity float64
}

// NewClassifier validates the table: non-empty, strictly descending by
// MinRating and ending in a MinRating 0 catch-all.
func NewClassifier(tiers []Tier, opacity float64) (*Classifier, error) {
	if len(tiers) == 0 {
		return nil, errors.New("rating table is empty")
	}
	for i := 1; i < len(tiers); i++ {
		if tiers[i].MinRating >= tiers[i-1].MinRating {
			return nil, fmt.Errorf("rating table not descending at %d: %d after %d", i, tiers[i].MinRating, tiers[i-1].MinRating)
		}
	}
	if last := tiers[len(tiers)-1].MinRating; last != 0 {
		return nil, fmt.Errorf("rating table must end with a 0 tier, got %d", last)
	}
	if opacity < 0 || opacity > 1 {
		return nil, fmt.Errorf("opacity must be between 0 and 1, got %.2f", opacity)
	}
	return &Classifier{tiers: append([]Tier(nil), tiers...), opacity: opacity}, nil
}

// MustClassifier is NewClassifier for tables known at compile time.
func MustClassifier(tiers []Tier, opacity float64) *Classifier {
	c, err := NewClassifier(tiers, opacity)
	if err != nil {
		panic(err)
	}
	return c
}

// Default returns the classifier over DefaultTiers.
func Default() *Classifier {
	return MustClassifier(DefaultTiers, DefaultOpacity)
}

// Tiers returns a copy of the table.
func (c *Classifier) Tiers() []Tier {
	return append([]Tier(nil), c.tiers...)
}

// Classify returns the display color of a day.
func (c *Classifier) Classify(problems []model.SubmissionRecord) Color {
	if len(problems) == 0 {
		return Neutral
	}
	return c.ForRating(MaxRating(problems))
}

// ForRating returns the tier color for a rating with the fixed opacity.
func (c *Classifier) ForRating(r int) Color {
	col := c.tiers[c.TierIndex(r)].Color
	col.A = c.opacity
	return col
}

// TierIndex returns the rank of the matching tier, 0 being the hardest.
// Negative ratings fall into the catch-all tier.
func (c *Classifier) TierIndex(r int) int {
	for i, t := range c.tiers {
		if r >= t.MinRating {
			return i
		}
	}
	return len(c.tiers) - 1
}

// MaxRating is the highest rating among non-duplicate problems, floored at 0.
func MaxRating(problems []model.SubmissionRecord) int {
	best := 0
	for _, p := range problems {
		if p.IsDuplicate {
			continue
		}
		if p.Rating > best {
			best = p.Rating
		}
	}
	return best
}
