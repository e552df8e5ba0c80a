package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tetraminz/emotion_insights/internal/emotion"
)

const createResultsTablePostgres = `
CREATE TABLE IF NOT EXISTS results (
	id BIGSERIAL PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	name TEXT NOT NULL DEFAULT '',
	file_name TEXT NOT NULL DEFAULT '',
	content TEXT NOT NULL DEFAULT '',
	input_type TEXT NOT NULL DEFAULT '',
	sadness_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	joy_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	love_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	anger_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	fear_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	surprise_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	dominant_emotion TEXT NOT NULL,
	summary TEXT NOT NULL DEFAULT '',
	actionable_insights TEXT NOT NULL DEFAULT '',
	suggested_response TEXT NOT NULL DEFAULT ''
)`

const insertResultPostgres = `
INSERT INTO results (
	created_at,
	name,
	file_name,
	content,
	input_type,
	sadness_score,
	joy_score,
	love_score,
	anger_score,
	fear_score,
	surprise_score,
	dominant_emotion,
	summary,
	actionable_insights,
	suggested_response
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
RETURNING id`

const (
	queryRangePostgres = `
SELECT created_at, dominant_emotion
FROM results
WHERE created_at >= $1 AND created_at < $2
ORDER BY created_at, id`

	queryRangeFilteredPostgres = `
SELECT created_at, dominant_emotion
FROM results
WHERE created_at >= $1 AND created_at < $2 AND dominant_emotion = ANY($3)
ORDER BY created_at, id`
)

// PostgresStore checks a pooled connection out per call; nothing is held
// between requests.
type PostgresStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// OpenPostgres connects a pool, pings it and ensures the schema.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, storageErr("parse postgres dsn", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, storageErr("connect postgres", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, storageErr("ping postgres", err)
	}

	s := &PostgresStore{pool: pool, now: time.Now}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, createResultsTablePostgres); err != nil {
		return storageErr("create results table", err)
	}
	for _, stmt := range createResultsIndexesSQL {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return storageErr("create results index", err)
		}
	}
	return nil
}

func (s *PostgresStore) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}

func (s *PostgresStore) Insert(ctx context.Context, rec Record) (int64, error) {
	if s == nil || s.pool == nil {
		return 0, fmt.Errorf("postgres store is not initialized")
	}
	rec, err := NormalizeRecord(rec)
	if err != nil {
		return 0, err
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now().UTC()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, storageErr("begin insert", err)
	}
	defer tx.Rollback(ctx)

	var id int64
	if err := tx.QueryRow(
		ctx,
		insertResultPostgres,
		rec.CreatedAt,
		rec.Name,
		rec.FileName,
		rec.Content,
		rec.InputType,
		rec.Scores[emotion.Sadness],
		rec.Scores[emotion.Joy],
		rec.Scores[emotion.Love],
		rec.Scores[emotion.Anger],
		rec.Scores[emotion.Fear],
		rec.Scores[emotion.Surprise],
		string(rec.Dominant),
		rec.Summary,
		rec.ActionableInsights,
		rec.SuggestedResponse,
	).Scan(&id); err != nil {
		return 0, storageErr("insert result", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, storageErr("commit insert", err)
	}
	return id, nil
}

func (s *PostgresStore) QueryRange(ctx context.Context, from, to time.Time, labels []emotion.Label) ([]emotion.Observation, error) {
	if s == nil || s.pool == nil {
		return nil, fmt.Errorf("postgres store is not initialized")
	}
	if labels != nil && len(labels) == 0 {
		return []emotion.Observation{}, nil
	}

	var rows pgx.Rows
	var err error
	if len(labels) > 0 {
		names := make([]string, 0, len(labels))
		for _, l := range labels {
			names = append(names, string(l))
		}
		rows, err = s.pool.Query(ctx, queryRangeFilteredPostgres, from.UTC(), to.UTC(), names)
	} else {
		rows, err = s.pool.Query(ctx, queryRangePostgres, from.UTC(), to.UTC())
	}
	if err != nil {
		return nil, storageErr("query results range", err)
	}
	defer rows.Close()

	out := make([]emotion.Observation, 0, 64)
	for rows.Next() {
		var createdAt time.Time
		var label string
		if err := rows.Scan(&createdAt, &label); err != nil {
			return nil, storageErr("scan results range", err)
		}
		out = append(out, emotion.Observation{CreatedAt: createdAt.UTC(), Label: emotion.Label(label)})
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate results range", err)
	}
	return out, nil
}

func (s *PostgresStore) Get(ctx context.Context, id int64) (Record, error) {
	if s == nil || s.pool == nil {
		return Record{}, fmt.Errorf("postgres store is not initialized")
	}
	row := s.pool.QueryRow(ctx, `SELECT `+selectResultColumns+` FROM results WHERE id = $1`, id)
	rec, err := scanPostgresRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, storageErr("get result", err)
	}
	return rec, nil
}

func (s *PostgresStore) List(ctx context.Context, limit int) ([]Record, error) {
	if s == nil || s.pool == nil {
		return nil, fmt.Errorf("postgres store is not initialized")
	}
	limit = ClampListLimit(limit)
	rows, err := s.pool.Query(
		ctx,
		`SELECT `+selectResultColumns+` FROM results ORDER BY created_at DESC, id DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, storageErr("list results", err)
	}
	defer rows.Close()

	out := make([]Record, 0, limit)
	for rows.Next() {
		rec, err := scanPostgresRecord(rows)
		if err != nil {
			return nil, storageErr("scan result", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate results", err)
	}
	return out, nil
}

func scanPostgresRecord(row pgx.Row) (Record, error) {
	var rec Record
	var dominant string
	var sadness, joy, love, anger, fear, surprise float64
	if err := row.Scan(
		&rec.ID,
		&rec.CreatedAt,
		&rec.Name,
		&rec.FileName,
		&rec.Content,
		&rec.InputType,
		&sadness,
		&joy,
		&love,
		&anger,
		&fear,
		&surprise,
		&dominant,
		&rec.Summary,
		&rec.ActionableInsights,
		&rec.SuggestedResponse,
	); err != nil {
		return Record{}, err
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.Dominant = emotion.Label(dominant)
	rec.Scores = emotion.Scores{
		emotion.Sadness:  sadness,
		emotion.Joy:      joy,
		emotion.Love:     love,
		emotion.Anger:    anger,
		emotion.Fear:     fear,
		emotion.Surprise: surprise,
	}
	return rec, nil
}
