package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tetraminz/emotion_insights/internal/emotion"
)

var (
	// ErrStorage marks every failure that came from the backing database.
	ErrStorage = errors.New("storage error")
	// ErrNotFound is returned by Get for an unknown id.
	ErrNotFound = errors.New("result not found")
	// ErrInvalidRecord rejects a record before it reaches the database.
	ErrInvalidRecord = errors.New("invalid result record")
)

// Error wraps a driver error. errors.Is matches both ErrStorage and the
// driver error.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{ErrStorage, e.Err}
}

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// DefaultListLimit matches the "latest results" view.
const (
	DefaultListLimit = 10
	MaxListLimit     = 100
)

// Record is one saved analysis. Records are append-only.
type Record struct {
	ID                 int64          `json:"id"`
	CreatedAt          time.Time      `json:"created_at"`
	Name               string         `json:"name"`
	FileName           string         `json:"file_name"`
	Content            string         `json:"content"`
	InputType          string         `json:"input_type"`
	Scores             emotion.Scores `json:"scores"`
	Dominant           emotion.Label  `json:"dominant_emotion"`
	Summary            string         `json:"summary"`
	ActionableInsights string         `json:"actionable_insights"`
	SuggestedResponse  string         `json:"suggested_response"`
}

// Store persists records and serves the range reads used for trends.
type Store interface {
	Insert(ctx context.Context, rec Record) (int64, error)
	QueryRange(ctx context.Context, from, to time.Time, labels []emotion.Label) ([]emotion.Observation, error)
	Get(ctx context.Context, id int64) (Record, error)
	List(ctx context.Context, limit int) ([]Record, error)
	Close() error
}

// Open picks the backend from the DSN: postgres:// and postgresql:// URLs
// go to Postgres, anything else is a SQLite file path.
func Open(ctx context.Context, dsn string) (Store, error) {
	if IsPostgresDSN(dsn) {
		return OpenPostgres(ctx, dsn)
	}
	return OpenSQLite(ctx, dsn)
}

func IsPostgresDSN(dsn string) bool {
	lower := strings.ToLower(strings.TrimSpace(dsn))
	return strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://")
}

// NormalizeRecord trims text fields, clamps scores to [0,1], drops unknown
// labels and derives the dominant label from the scores when it is missing.
func NormalizeRecord(rec Record) (Record, error) {
	rec.Name = strings.TrimSpace(rec.Name)
	rec.FileName = strings.TrimSpace(rec.FileName)
	rec.Content = strings.TrimSpace(rec.Content)
	rec.InputType = strings.TrimSpace(rec.InputType)
	rec.Summary = strings.TrimSpace(rec.Summary)
	rec.ActionableInsights = strings.TrimSpace(rec.ActionableInsights)
	rec.SuggestedResponse = strings.TrimSpace(rec.SuggestedResponse)

	known := 0
	scores := emotion.Scores{}
	for _, l := range emotion.Labels() {
		if _, ok := rec.Scores[l]; ok {
			known++
		}
		scores[l] = clamp01(rec.Scores[l])
	}
	rec.Scores = scores

	if strings.TrimSpace(string(rec.Dominant)) == "" {
		if known == 0 {
			return Record{}, fmt.Errorf("%w: dominant_emotion or emotion scores are required", ErrInvalidRecord)
		}
		rec.Dominant = scores.Dominant()
	} else {
		l, err := emotion.ParseLabel(string(rec.Dominant))
		if err != nil {
			return Record{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
		}
		rec.Dominant = l
	}
	if !rec.CreatedAt.IsZero() {
		rec.CreatedAt = rec.CreatedAt.UTC()
	}
	return rec, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ClampListLimit applies the default and upper bound for List.
func ClampListLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

func scoreColumns() []string {
	labels := emotion.Labels()
	cols := make([]string, 0, len(labels))
	for _, l := range labels {
		cols = append(cols, string(l)+"_score")
	}
	return cols
}

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*PostgresStore)(nil)
)
