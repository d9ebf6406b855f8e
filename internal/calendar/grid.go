// Package calendar computes heatmap grid geometry.
package calendar

import (
	"time"

	"github.com/verte-zerg/cfheat/internal/model"
)

// DefaultWeekStart is the weekday a rolling grid starts on.
const DefaultWeekStart = time.Saturday

// RollingDays is how far back the rolling view reaches before week alignment.
const RollingDays = 365

// Cell is one day of the grid.
type Cell struct {
	Date    time.Time
	Key     string
	Week    int
	Weekday time.Weekday
}

// MonthLabel marks the column of a first-of-month date.
type MonthLabel struct {
	Date  time.Time
	Week  int
	Label string
}

// DayLabel names a grid row.
type DayLabel struct {
	Weekday time.Weekday
	Label   string
}

// Grid is the calendar for a year or the rolling view.
type Grid struct {
	Selector  int
	Start     time.Time
	End       time.Time // exclusive
	Cells     []Cell
	Months    []MonthLabel
	DayLabels []DayLabel
}

// Weeks returns the number of columns.
func (g Grid) Weeks() int {
	if len(g.Cells) == 0 {
		return 0
	}
	return g.Cells[len(g.Cells)-1].Week + 1
}

// Options tunes grid computation.
type Options struct {
	WeekStart time.Weekday
	Location  *time.Location
}

var labeledDays = []time.Weekday{time.Monday, time.Wednesday, time.Friday}

// ComputeGrid builds the grid for selector. Selector 0 is the rolling view
// ending today; any other value is a calendar year.
func ComputeGrid(selector int, today time.Time, opts Options) Grid {
	loc := opts.Location
	if loc == nil {
		loc = today.Location()
	}
	start, end := Range(selector, today.In(loc), opts.WeekStart)

	g := Grid{Selector: selector, Start: start, End: end}
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		week := DaysBetween(start, d) / 7
		g.Cells = append(g.Cells, Cell{
			Date:    d,
			Key:     d.Format(model.DateLayout),
			Week:    week,
			Weekday: d.Weekday(),
		})
		if d.Day() == 1 {
			g.Months = append(g.Months, MonthLabel{Date: d, Week: week, Label: d.Format("Jan")})
		}
	}
	for _, wd := range labeledDays {
		g.DayLabels = append(g.DayLabels, DayLabel{Weekday: wd, Label: wd.String()[:3]})
	}
	return g
}

// Range returns the [start, end) dates of selector.
func Range(selector int, today time.Time, weekStart time.Weekday) (time.Time, time.Time) {
	loc := today.Location()
	if selector == model.RollingYear {
		midnight := Midnight(today)
		end := midnight.AddDate(0, 0, 1)
		start := midnight.AddDate(0, 0, -RollingDays)
		shift := (int(weekStart) - int(start.Weekday()) + 7) % 7
		if shift == 0 {
			shift = 7
		}
		return start.AddDate(0, 0, shift), end
	}
	start := time.Date(selector, time.January, 1, 0, 0, 0, 0, loc)
	return start, time.Date(selector+1, time.January, 1, 0, 0, 0, 0, loc)
}

// Midnight truncates t to the start of its civil day in its own zone.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DaysBetween counts civil days from a to b, ignoring DST offsets.
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	ua := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	ub := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}
