// Package stats contains per-year submission summaries and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/verte-zerg/cfheat/internal/aggregate"
	"github.com/verte-zerg/cfheat/internal/calendar"
	"github.com/verte-zerg/cfheat/internal/model"
	"github.com/verte-zerg/cfheat/internal/rating"
)

const sparkChars = " .:-=+*#%@"

// YearSummary aggregates one calendar year of buckets.
type YearSummary struct {
	Year          int
	ActiveDays    int
	Accepted      int
	FirstSolves   int
	Repeats       int
	Hardest       int
	LongestStreak int
	Monthly       [12]int
}

// Summarize builds one summary per year present in the index, newest first.
// The rolling view is skipped.
func Summarize(res aggregate.Result) []YearSummary {
	years := make([]int, 0, len(res.Index))
	for year := range res.Index {
		if year == model.RollingYear {
			continue
		}
		years = append(years, year)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))

	out := make([]YearSummary, 0, len(years))
	for _, year := range years {
		out = append(out, summarizeYear(year, res.Index[year]))
	}
	return out
}

func summarizeYear(year int, days model.DayIndex) YearSummary {
	s := YearSummary{Year: year}
	dates := make([]time.Time, 0, len(days))
	for _, bucket := range days {
		if len(bucket.Problems) == 0 {
			continue
		}
		s.ActiveDays++
		dates = append(dates, bucket.Date)
		s.Monthly[bucket.Date.Month()-1] += len(bucket.Problems)
		for _, p := range bucket.Problems {
			s.Accepted++
			if p.IsDuplicate {
				s.Repeats++
				continue
			}
			s.FirstSolves++
		}
		if r := rating.MaxRating(bucket.Problems); r > s.Hardest {
			s.Hardest = r
		}
	}
	s.LongestStreak = longestStreak(dates)
	return s
}

func longestStreak(dates []time.Time) int {
	if len(dates) == 0 {
		return 0
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	best, run := 1, 1
	for i := 1; i < len(dates); i++ {
		if calendar.DaysBetween(dates[i-1], dates[i]) == 1 {
			run++
		} else {
			run = 1
		}
		if run > best {
			best = run
		}
	}
	return best
}

// Sparkline renders a single-line ASCII sparkline for the values. Zero is
// always the blank glyph so inactive months stand out.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	maxVal := 0.0
	for _, v := range values {
		if v > maxVal {
			maxVal = v
		}
	}
	if maxVal < 1e-9 {
		return strings.Repeat(string(sparkChars[0]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		idx := int(math.Ceil(v / maxVal * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSummary prints a per-year summary table.
func RenderSummary(w io.Writer, handle string, summaries []YearSummary) error {
	if len(summaries) == 0 {
		_, err := fmt.Fprintf(w, "No accepted submissions found for %s.\n", handle)
		return err
	}
	table := summaryTable{
		columns: []column{
			{title: "Year"},
			{title: "Active days", align: alignRight},
			{title: "Accepted", align: alignRight},
			{title: "First solves", align: alignRight},
			{title: "Repeats", align: alignRight},
			{title: "Hardest", align: alignRight},
			{title: "Streak", align: alignRight},
			{title: "Jan-Dec"},
		},
		rows: make([][]string, 0, len(summaries)),
	}
	var total YearSummary
	for _, s := range summaries {
		table.rows = append(table.rows, summaryRow(strconv.Itoa(s.Year), s))
		total.ActiveDays += s.ActiveDays
		total.Accepted += s.Accepted
		total.FirstSolves += s.FirstSolves
		total.Repeats += s.Repeats
		total.Hardest = max(total.Hardest, s.Hardest)
		total.LongestStreak = max(total.LongestStreak, s.LongestStreak)
	}
	if len(summaries) > 1 {
		table.totals = summaryRow("All", total)
		table.totals[len(table.totals)-1] = ""
	}

	if _, err := fmt.Fprintf(w, "Summary for %s\n", handle); err != nil {
		return err
	}
	return table.write(w)
}

func summaryRow(label string, s YearSummary) []string {
	monthly := make([]float64, len(s.Monthly))
	for i, v := range s.Monthly {
		monthly[i] = float64(v)
	}
	return []string{
		label,
		strconv.Itoa(s.ActiveDays),
		strconv.Itoa(s.Accepted),
		strconv.Itoa(s.FirstSolves),
		strconv.Itoa(s.Repeats),
		strconv.Itoa(s.Hardest),
		strconv.Itoa(s.LongestStreak),
		Sparkline(monthly),
	}
}
