// Package model defines shared data structures.
package model

import "time"

// VerdictAccepted is the verdict string of an accepted submission.
const VerdictAccepted = "OK"

// RollingYear is the pseudo-year key of the trailing-window view.
const RollingYear = 0

// DateLayout formats bucket keys.
const DateLayout = "2006-01-02"

// Config defines heatmap settings after flags and the config file are merged.
type Config struct {
	Handle       string
	Year         int
	WeekStart    time.Weekday
	Location     *time.Location
	FallbackYear int
	APIBaseURL   string
	APITimeout   time.Duration
}

// RawSubmission is one entry of the submission history as fetched.
type RawSubmission struct {
	ID        int64
	ContestID string
	Index     string
	Name      string
	Rating    int
	Verdict   string
	CreatedAt time.Time
}

// ProblemID returns the contest+index composite identifier.
func (s RawSubmission) ProblemID() string {
	return s.ContestID + "-" + s.Index
}

// SubmissionRecord is an accepted submission attributed to one day.
type SubmissionRecord struct {
	ProblemID   string
	Rating      int
	Name        string
	Link        string
	IsDuplicate bool
}

// DayBucket holds the accepted submissions of one calendar date.
type DayBucket struct {
	Date     time.Time
	Problems []SubmissionRecord
}

// Has reports whether the bucket already holds problemID.
func (b *DayBucket) Has(problemID string) bool {
	for _, p := range b.Problems {
		if p.ProblemID == problemID {
			return true
		}
	}
	return false
}

// DayIndex maps "YYYY-MM-DD" keys to buckets.
type DayIndex = map[string]*DayBucket

// YearIndex maps a year (or RollingYear) to its day buckets.
type YearIndex = map[int]DayIndex
