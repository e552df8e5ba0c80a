package trends

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tetraminz/emotion_insights/internal/emotion"
)

// DateLayout is the calendar date format used for range bounds and bucket keys.
const DateLayout = "2006-01-02"

// ErrInvalidRange reports unparseable dates or a start after the end.
var ErrInvalidRange = errors.New("invalid date range")

// RangeError carries the raw bounds that failed validation.
type RangeError struct {
	Start  string
	End    string
	Reason string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("invalid date range start=%q end=%q: %s", e.Start, e.End, e.Reason)
}

func (e *RangeError) Unwrap() error { return ErrInvalidRange }

// Granularity is the bucket width. It never reaches SQL text.
type Granularity string

const (
	Day   Granularity = "day"
	Week  Granularity = "week"
	Month Granularity = "month"
)

// ParseGranularity is case-insensitive. Anything it does not recognize,
// including "", falls back to Day without an error.
func ParseGranularity(s string) Granularity {
	switch Granularity(strings.ToLower(strings.TrimSpace(s))) {
	case Week:
		return Week
	case Month:
		return Month
	default:
		return Day
	}
}

// BucketStart truncates t (in UTC) to the start of its bucket. Weeks start
// on Monday.
func (g Granularity) BucketStart(t time.Time) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	switch g {
	case Week:
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case Month:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return day
	}
}

// Query is a validated trend request.
type Query struct {
	Start       time.Time
	End         time.Time
	Granularity Granularity
	Filter      emotion.Filter
}

// ParseQuery validates raw request parameters. Dates are inclusive
// calendar days in YYYY-MM-DD form.
func ParseQuery(start, end, groupBy, emotions string) (Query, error) {
	from, err := time.Parse(DateLayout, strings.TrimSpace(start))
	if err != nil {
		return Query{}, &RangeError{Start: start, End: end, Reason: "start_date must be YYYY-MM-DD"}
	}
	to, err := time.Parse(DateLayout, strings.TrimSpace(end))
	if err != nil {
		return Query{}, &RangeError{Start: start, End: end, Reason: "end_date must be YYYY-MM-DD"}
	}
	return NewQuery(from, to, ParseGranularity(groupBy), emotion.ParseFilter(emotions))
}

// NewQuery truncates the bounds to calendar days and checks their order.
func NewQuery(start, end time.Time, g Granularity, f emotion.Filter) (Query, error) {
	start = Day.BucketStart(start)
	end = Day.BucketStart(end)
	if start.After(end) {
		return Query{}, &RangeError{
			Start:  start.Format(DateLayout),
			End:    end.Format(DateLayout),
			Reason: "start_date is after end_date",
		}
	}
	if g != Week && g != Month {
		g = Day
	}
	return Query{Start: start, End: end, Granularity: g, Filter: f}, nil
}

// Window returns the half-open instant range [from, to) covering the
// inclusive calendar dates of q.
func (q Query) Window() (from, to time.Time) {
	return q.Start, q.End.AddDate(0, 0, 1)
}

// Contains reports whether t falls inside the query window.
func (q Query) Contains(t time.Time) bool {
	from, to := q.Window()
	t = t.UTC()
	return !t.Before(from) && t.Before(to)
}
