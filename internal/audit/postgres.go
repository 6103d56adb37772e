package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/piwi3910/lotcut/internal/model"
)

const postgresSchema = `CREATE TABLE IF NOT EXISTS lotcut_runs (
	run_id TEXT PRIMARY KEY,
	strategy TEXT NOT NULL,
	job_name TEXT,
	customer TEXT,
	plans INTEGER,
	total_pieces INTEGER,
	used_length DOUBLE PRECISION,
	unmet INTEGER,
	duration_ms BIGINT,
	created_at TIMESTAMPTZ NOT NULL
)`

// PostgresSink stores records in a shared Postgres database.
type PostgresSink struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgresSink(ctx context.Context, dsn string, logger *zap.Logger) (*PostgresSink, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection config: %w", err)
	}
	poolConfig.MaxConns = 4
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create lotcut_runs table: %w", err)
	}
	logger.Info("postgres audit sink ready", zap.String("host", poolConfig.ConnConfig.Host))
	return &PostgresSink{pool: pool, logger: logger}, nil
}

func (s *PostgresSink) Write(ctx context.Context, rec model.RunRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO lotcut_runs (run_id, strategy, job_name, customer, plans, total_pieces, used_length, unmet, duration_ms, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (run_id) DO NOTHING`,
		rec.RunID, string(rec.Strategy), rec.JobName, rec.Customer, rec.Plans, rec.TotalPieces,
		rec.UsedLength, rec.Unmet, rec.Duration.Milliseconds(), rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", rec.RunID, err)
	}
	return nil
}

func (s *PostgresSink) Recent(ctx context.Context, limit int) ([]model.RunRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT run_id, strategy, job_name, customer, plans, total_pieces, used_length, unmet, duration_ms, created_at
		 FROM lotcut_runs ORDER BY created_at DESC LIMIT $1`, limit)
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
		)
		if err := rows.Scan(&rec.RunID, &strategy, &rec.JobName, &rec.Customer, &rec.Plans, &rec.TotalPieces,
			&rec.UsedLength, &rec.Unmet, &durationMS, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		rec.Strategy = model.Strategy(strategy)
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return out, nil
}

func (s *PostgresSink) Close() error {
	s.pool.Close()
	return nil
}
