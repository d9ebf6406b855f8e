// Package aggregate buckets a submission history by year and day.
package aggregate

import (
	"sort"
	"time"

	"github.com/verte-zerg/cfheat/internal/codeforces"
	"github.com/verte-zerg/cfheat/internal/model"
)

// DefaultFallbackYear is used as the first year of an empty history.
const DefaultFallbackYear = 2015

// Result is the aggregation output.
type Result struct {
	Index     model.YearIndex
	FirstYear int
}

// Empty returns the result of a failed or empty history.
func Empty(fallbackYear int) Result {
	return Result{
		Index:     model.YearIndex{model.RollingYear: model.DayIndex{}},
		FirstYear: fallbackYear,
	}
}

// Days returns the buckets for a year or the rolling view.
func (r Result) Days(year int) model.DayIndex {
	if r.Index == nil {
		return nil
	}
	return r.Index[year]
}

// Bucket returns the bucket for a date key, or nil.
func (r Result) Bucket(year int, key string) *model.DayBucket {
	return r.Days(year)[key]
}

// Aggregate builds the year index. The history is walked oldest to newest so
// the first chronological acceptance of a problem is the one not flagged as a
// duplicate. Buckets are keyed by the local date in loc.
func Aggregate(raw []model.RawSubmission, loc *time.Location, now time.Time, fallbackYear int) Result {
	if loc == nil {
		loc = time.Local
	}
	res := Empty(fallbackYear)
	if len(raw) == 0 {
		return res
	}

	ordered := append([]model.RawSubmission(nil), raw...)
	sort.SliceStable(ordered, func(i, j int) bool {
		ti, tj := ordered[i].CreatedAt, ordered[j].CreatedAt
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return ordered[i].ID < ordered[j].ID
	})

	seen := make(map[string]struct{}, len(ordered))
	for _, sub := range ordered {
		if sub.Verdict != model.VerdictAccepted {
			continue
		}
		local := sub.CreatedAt.In(loc)
		year := local.Year()
		key := local.Format(model.DateLayout)

		days, ok := res.Index[year]
		if !ok {
			days = model.DayIndex{}
			res.Index[year] = days
		}
		bucket, ok := days[key]
		if !ok {
			y, m, d := local.Date()
			bucket = &model.DayBucket{Date: time.Date(y, m, d, 0, 0, 0, 0, loc)}
			days[key] = bucket
		}

		id := sub.ProblemID()
		if bucket.Has(id) {
			continue
		}
		_, dup := seen[id]
		seen[id] = struct{}{}
		rating := sub.Rating
		if rating < 0 {
			rating = 0
		}
		bucket.Problems = append(bucket.Problems, model.SubmissionRecord{
			ProblemID:   id,
			Rating:      rating,
			Name:        sub.Name,
			Link:        codeforces.ProblemURL(sub.ContestID, sub.Index),
			IsDuplicate: dup,
		})
	}

	res.FirstYear = ordered[0].CreatedAt.In(loc).Year()
	res.Index[model.RollingYear] = RollingView(res.Index, now.In(loc).Year())
	return res
}

// RollingView merges the previous and current year. Current-year keys win.
func RollingView(index model.YearIndex, currentYear int) model.DayIndex {
	out := model.DayIndex{}
	for _, year := range []int{currentYear - 1, currentYear} {
		for key, bucket := range index[year] {
			out[key] = bucket
		}
	}
	return out
}
