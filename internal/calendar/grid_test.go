package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertContiguous(t *testing.T, g Grid) {
	t.Helper()
	for i := 1; i < len(g.Cells); i++ {
		if DaysBetween(g.Cells[i-1].Date, g.Cells[i].Date) != 1 {
			t.Fatalf("gap or repeat between %s and %s", g.Cells[i-1].Key, g.Cells[i].Key)
		}
	}
}

func TestComputeGridYearCompleteness(t *testing.T) {
	today := time.Date(2025, time.March, 3, 15, 0, 0, 0, time.UTC)
	for year, days := range map[int]int{2023: 365, 2024: 366, 2000: 366, 1900: 365} {
		g := ComputeGrid(year, today, Options{})
		require.Len(t, g.Cells, days, "year %d", year)
		assert.Equal(t, time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC), g.Start)
		assert.Equal(t, time.Date(year+1, time.January, 1, 0, 0, 0, 0, time.UTC), g.End)
		assert.Equal(t, g.Cells[0].Key, time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC).Format("2006-01-02"))
		assertContiguous(t, g)
		require.Len(t, g.Months, 12)
		assert.Equal(t, "Jan", g.Months[0].Label)
		assert.Equal(t, "Dec", g.Months[11].Label)
	}
}

func TestComputeGridWeekIndex(t *testing.T) {
	g := ComputeGrid(2024, time.Now(), Options{Location: time.UTC})
	for i, c := range g.Cells {
		assert.Equal(t, i/7, c.Week)
		assert.Equal(t, c.Date.Weekday(), c.Weekday)
	}
	assert.Equal(t, 53, g.Weeks())
	// 2024-03-01 is day 60 of a leap year, so week 8.
	for _, m := range g.Months {
		if m.Label == "Mar" {
			assert.Equal(t, 8, m.Week)
		}
	}
}

func TestComputeGridRollingAlignment(t *testing.T) {
	start := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 14; i++ {
		today := start.AddDate(0, 0, i)
		for _, ws := range []time.Weekday{time.Sunday, time.Monday, time.Saturday} {
			g := ComputeGrid(0, today, Options{WeekStart: ws})
			require.NotEmpty(t, g.Cells)
			first := g.Cells[0]
			last := g.Cells[len(g.Cells)-1]
			assert.Equal(t, ws, first.Weekday)
			assert.Equal(t, Midnight(today), last.Date)
			span := DaysBetween(Midnight(today).AddDate(0, 0, -RollingDays), first.Date)
			assert.True(t, span >= 1 && span <= 7, "shift %d out of range", span)
			assertContiguous(t, g)
		}
	}
}

func TestComputeGridRollingMatchesHostArithmetic(t *testing.T) {
	// The host moves start forward by 7 - ((weekday+1) % 7) days.
	today := time.Date(2025, time.October, 14, 9, 0, 0, 0, time.UTC)
	base := Midnight(today).AddDate(0, 0, -RollingDays)
	want := base.AddDate(0, 0, 7-((int(base.Weekday())+1)%7))
	g := ComputeGrid(0, today, Options{WeekStart: DefaultWeekStart})
	assert.Equal(t, want, g.Start)
}

func TestComputeGridDayLabels(t *testing.T) {
	g := ComputeGrid(2023, time.Now(), Options{})
	require.Len(t, g.DayLabels, 3)
	assert.Equal(t, "Mon", g.DayLabels[0].Label)
	assert.Equal(t, "Wed", g.DayLabels[1].Label)
	assert.Equal(t, "Fri", g.DayLabels[2].Label)
}

func TestComputeGridAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	today := time.Date(2024, time.June, 1, 12, 0, 0, 0, loc)
	g := ComputeGrid(2024, today, Options{Location: loc})
	require.Len(t, g.Cells, 366)
	assertContiguous(t, g)
	for _, c := range g.Cells {
		if c.Date.Hour() != 0 {
			t.Fatalf("cell %s not at midnight: %v", c.Key, c.Date)
		}
	}
}

func TestLayoutPositions(t *testing.T) {
	l := DefaultLayout
	c := Cell{Week: 2, Weekday: time.Wednesday}
	assert.Equal(t, Point{X: 65, Y: 65}, l.CellOrigin(c))
	assert.Equal(t, 13, l.CellExtent())
	assert.Equal(t, Point{X: 75, Y: 12}, l.MonthPoint(MonthLabel{Week: 2}))
	assert.Equal(t, Point{X: 30, Y: 45}, l.DayPoint(DayLabel{Weekday: time.Monday}))
	origin, w, h := l.GridBounds(53)
	assert.Equal(t, Point{X: 35, Y: 20}, origin)
	assert.Equal(t, 795, w)
	assert.Equal(t, 105, h)
}
