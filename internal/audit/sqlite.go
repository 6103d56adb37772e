package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/piwi3910/lotcut/internal/model"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	strategy TEXT NOT NULL,
	job_name TEXT,
	customer TEXT,
	plans INTEGER,
	total_pieces INTEGER,
	used_length REAL,
	unmet INTEGER,
	duration_ms INTEGER,
	created_at TEXT NOT NULL
);`

// fixed width so created_at sorts lexically
const sqliteTimeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteSink stores records in a local SQLite database.
type SQLiteSink struct {
	db *sql.DB
}

func NewSQLiteSink(ctx context.Context, path string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite audit db: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create runs table: %w", err)
	}
	return &SQLiteSink{db: db}, nil
}

func (s *SQLiteSink) Write(ctx context.Context, rec model.RunRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs (run_id, strategy, job_name, customer, plans, total_pieces, used_length, unmet, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, string(rec.Strategy), rec.JobName, rec.Customer, rec.Plans, rec.TotalPieces,
		rec.UsedLength, rec.Unmet, rec.Duration.Milliseconds(), rec.CreatedAt.UTC().Format(sqliteTimeFormat))
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", rec.RunID, err)
	}
	return nil
}

func (s *SQLiteSink) Recent(ctx context.Context, limit int) ([]model.RunRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, strategy, job_name, customer, plans, total_pieces, used_length, unmet, duration_ms, created_at
		 FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var out []model.RunRecord
	for rows.Next() {
		var (
			rec        model.RunRecord
			strategy   string
			durationMS int64
			created    string
		)
		if err := rows.Scan(&rec.RunID, &strategy, &rec.JobName, &rec.Customer, &rec.Plans, &rec.TotalPieces,
			&rec.UsedLength, &rec.Unmet, &durationMS, &created); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		rec.Strategy = model.Strategy(strategy)
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		if rec.CreatedAt, err = time.Parse(sqliteTimeFormat, created); err != nil {
			return nil, fmt.Errorf("failed to parse run time: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return out, nil
}

func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
