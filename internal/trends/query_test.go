package trends

import (
	"errors"
	"testing"
	"time"
)

func TestParseQueryRejectsBadDates(t *testing.T) {
	t.Parallel()

	cases := []struct {
		start string
		end   string
	}{
		{"2024-13-01", "2024-12-01"},
		{"yesterday", "2024-01-01"},
		{"2024-01-01", ""},
		{"2024-01-02", "2024-01-01"},
	}
	for _, tc := range cases {
		_, err := ParseQuery(tc.start, tc.end, "day", "")
		if !errors.Is(err, ErrInvalidRange) {
			t.Fatalf("ParseQuery(%q, %q) error got %v want ErrInvalidRange", tc.start, tc.end, err)
		}
		var rangeErr *RangeError
		if !errors.As(err, &rangeErr) {
			t.Fatalf("ParseQuery(%q, %q) error is not *RangeError", tc.start, tc.end)
		}
	}
}

func TestParseGranularityFallsBackToDay(t *testing.T) {
	t.Parallel()

	cases := map[string]Granularity{
		"day":    Day,
		"Week":   Week,
		" MONTH": Month,
		"":       Day,
		"year":   Day,
	}
	for raw, want := range cases {
		if got := ParseGranularity(raw); got != want {
			t.Fatalf("ParseGranularity(%q) got %q want %q", raw, got, want)
		}
	}
}

func TestQueryWindowIsHalfOpenOverInclusiveDates(t *testing.T) {
	t.Parallel()

	q, err := ParseQuery("2024-01-01", "2024-01-01", "", "")
	if err != nil {
		t.Fatalf("ParseQuery error: %v", err)
	}
	from, to := q.Window()
	if got, want := to.Sub(from), 24*time.Hour; got != want {
		t.Fatalf("window length got %v want %v", got, want)
	}
	if !q.Contains(time.Date(2024, 1, 1, 23, 59, 59, 999, time.UTC)) {
		t.Fatalf("last instant of end date should be inside")
	}
	if q.Contains(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("midnight after end date should be outside")
	}
}

func TestBucketStartUsesUTC(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC+3", 3*60*60)
	local := time.Date(2024, 3, 1, 1, 0, 0, 0, loc)
	if got, want := Day.BucketStart(local).Format(DateLayout), "2024-02-29"; got != want {
		t.Fatalf("BucketStart got %s want %s", got, want)
	}
}
