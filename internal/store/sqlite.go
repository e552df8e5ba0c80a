package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tetraminz/emotion_insights/internal/emotion"

	_ "modernc.org/sqlite"
)

// sqliteTimeLayout is fixed width so lexical order equals time order.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

var sqliteMaxTime = time.Date(9999, time.December, 31, 23, 59, 59, 999999999, time.UTC)

const createResultsTableSQLite = `
CREATE TABLE IF NOT EXISTS results (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at TEXT NOT NULL,
	name TEXT NOT NULL DEFAULT '',
	file_name TEXT NOT NULL DEFAULT '',
	content TEXT NOT NULL DEFAULT '',
	input_type TEXT NOT NULL DEFAULT '',
	sadness_score REAL NOT NULL DEFAULT 0,
	joy_score REAL NOT NULL DEFAULT 0,
	love_score REAL NOT NULL DEFAULT 0,
	anger_score REAL NOT NULL DEFAULT 0,
	fear_score REAL NOT NULL DEFAULT 0,
	surprise_score REAL NOT NULL DEFAULT 0,
	dominant_emotion TEXT NOT NULL,
	summary TEXT NOT NULL DEFAULT '',
	actionable_insights TEXT NOT NULL DEFAULT '',
	suggested_response TEXT NOT NULL DEFAULT ''
)`

var createResultsIndexesSQL = []string{
	`CREATE INDEX IF NOT EXISTS idx_results_created_at ON results(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_results_dominant_emotion ON results(dominant_emotion, created_at)`,
}

const dropResultsSQL = `DROP TABLE IF EXISTS results`

const insertResultSQLite = `
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
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const selectResultColumns = `
	id,
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
	suggested_response`

// SQLiteStore keeps results in a single SQLite file.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (creating if needed) the database at dbPath and makes
// sure the results schema exists.
func OpenSQLite(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	db, err := openSQLite(ctx, dbPath)
	if err != nil {
		return nil, err
	}
	if err := ensureSQLiteSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

// SetupSQLite drops and recreates the results table.
func SetupSQLite(ctx context.Context, dbPath string) error {
	db, err := openSQLite(ctx, dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, dropResultsSQL); err != nil {
		return storageErr("drop results table", err)
	}
	return ensureSQLiteSchema(ctx, db)
}

func openSQLite(ctx context.Context, dbPath string) (*sql.DB, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, fmt.Errorf("db path is required")
	}
	if dir := filepath.Dir(dbPath); dir != "." && dbPath != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, storageErr("open sqlite db", err)
	}
	// one writer at a time; reads queue on the same connection
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, storageErr("ping sqlite db", err)
	}
	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000`); err != nil {
		db.Close()
		return nil, storageErr("set busy_timeout", err)
	}
	return db, nil
}

func ensureSQLiteSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, createResultsTableSQLite); err != nil {
		return storageErr("create results table", err)
	}
	missing, err := missingTableColumns(ctx, db, "results", requiredResultColumns())
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return storageErr("check results schema", fmt.Errorf(
			"results table is missing columns: %s (run setup to recreate it)",
			strings.Join(missing, ", "),
		))
	}
	for _, stmt := range createResultsIndexesSQL {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return storageErr("create results index", err)
		}
	}
	return nil
}

func requiredResultColumns() []string {
	cols := []string{"id", "created_at", "name", "file_name", "content", "input_type"}
	cols = append(cols, scoreColumns()...)
	return append(cols, "dominant_emotion", "summary", "actionable_insights", "suggested_response")
}

func missingTableColumns(ctx context.Context, db *sql.DB, tableName string, required []string) ([]string, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, tableName))
	if err != nil {
		return nil, storageErr("inspect "+tableName+" schema", err)
	}
	defer rows.Close()

	existing := map[string]struct{}{}
	for rows.Next() {
		var cid int
		var name string
		var colType string
		var notNull int
		var defaultValue sql.NullString
		var pk int
		if err := rows.Scan(&cid, &name, &colType, &notNull, &defaultValue, &pk); err != nil {
			return nil, storageErr("scan "+tableName+" schema", err)
		}
		existing[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate "+tableName+" schema", err)
	}

	var missing []string
	for _, col := range required {
		if _, ok := existing[col]; !ok {
			missing = append(missing, col)
		}
	}
	return missing, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Insert writes rec in its own transaction and returns the new id. The
// transaction is rolled back on every failure path.
func (s *SQLiteStore) Insert(ctx context.Context, rec Record) (int64, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlite store is not initialized")
	}
	rec, err := NormalizeRecord(rec)
	if err != nil {
		return 0, err
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, storageErr("begin insert", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(
		ctx,
		insertResultSQLite,
		rec.CreatedAt.Format(sqliteTimeLayout),
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
	)
	if err != nil {
		return 0, storageErr("insert result", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, storageErr("read result id", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, storageErr("commit insert", err)
	}
	return id, nil
}

// QueryRange returns (created_at, dominant_emotion) for [from, to). Labels
// are bound as parameters; a nil slice means no restriction.
func (s *SQLiteStore) QueryRange(ctx context.Context, from, to time.Time, labels []emotion.Label) ([]emotion.Observation, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlite store is not initialized")
	}
	if labels != nil && len(labels) == 0 {
		return []emotion.Observation{}, nil
	}

	upper := `created_at < ?`
	to = to.UTC()
	if to.Year() > 9999 {
		// five digit years break the lexical order; close the range on the last representable instant
		upper = `created_at <= ?`
		to = sqliteMaxTime
	}
	query := `SELECT created_at, dominant_emotion FROM results WHERE created_at >= ? AND ` + upper
	args := []any{from.UTC().Format(sqliteTimeLayout), to.Format(sqliteTimeLayout)}
	if len(labels) > 0 {
		query += ` AND dominant_emotion IN (` + placeholders(len(labels)) + `)`
		for _, l := range labels {
			args = append(args, string(l))
		}
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("query results range", err)
	}
	defer rows.Close()

	out := make([]emotion.Observation, 0, 64)
	for rows.Next() {
		var createdAt string
		var label string
		if err := rows.Scan(&createdAt, &label); err != nil {
			return nil, storageErr("scan results range", err)
		}
		ts, err := time.Parse(sqliteTimeLayout, createdAt)
		if err != nil {
			return nil, storageErr("parse created_at", err)
		}
		out = append(out, emotion.Observation{CreatedAt: ts, Label: emotion.Label(label)})
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate results range", err)
	}
	return out, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id int64) (Record, error) {
	if s == nil || s.db == nil {
		return Record{}, fmt.Errorf("sqlite store is not initialized")
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+selectResultColumns+` FROM results WHERE id = ?`, id)
	rec, err := scanSQLiteRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, storageErr("get result", err)
	}
	return rec, nil
}

// List returns the newest records first.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]Record, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlite store is not initialized")
	}
	limit = ClampListLimit(limit)
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+selectResultColumns+` FROM results ORDER BY created_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, storageErr("list results", err)
	}
	defer rows.Close()

	out := make([]Record, 0, limit)
	for rows.Next() {
		rec, err := scanSQLiteRecord(rows)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteRecord(row rowScanner) (Record, error) {
	var rec Record
	var createdAt string
	var dominant string
	var sadness, joy, love, anger, fear, surprise float64
	if err := row.Scan(
		&rec.ID,
		&createdAt,
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
	ts, err := time.Parse(sqliteTimeLayout, createdAt)
	if err != nil {
		return Record{}, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	rec.CreatedAt = ts
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

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
