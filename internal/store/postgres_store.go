package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"jobwatch-engine/internal/domain"
)

type PostgresStore struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

// OpenPostgres connects, verifies the connection and creates the schema.
// viaBouncer switches to the simple protocol for pgbouncer deployments.
func OpenPostgres(ctx context.Context, dsn string, maxConns int, viaBouncer bool, logger *slog.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if maxConns <= 0 {
		maxConns = 2
	}
	cfg.MaxConns = int32(maxConns)
	if viaBouncer {
		cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &PostgresStore{pool: pool, log: logger.With("component", "store", "driver", "postgres")}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate postgres: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS postings (
  seq BIGSERIAL PRIMARY KEY,
  source TEXT NOT NULL,
  job_id TEXT NOT NULL,
  title TEXT NOT NULL,
  link TEXT NOT NULL,
  location TEXT,
  first_seen TIMESTAMPTZ NOT NULL
)`); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_postings_source_job ON postings(source, job_id)`)
	return err
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) Exists(ctx context.Context, source, jobID string) (bool, error) {
	if err := checkSource(source); err != nil {
		return false, err
	}
	var one int
	err := s.pool.QueryRow(ctx,
		`SELECT 1 FROM postings WHERE source = $1 AND job_id = $2 LIMIT 1`,
		source, jobID,
	).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("exists %s/%s: %w", source, jobID, err)
	}
	return true, nil
}

func (s *PostgresStore) Insert(ctx context.Context, source string, p domain.JobPosting) error {
	_, err := s.InsertIfAbsent(ctx, source, p)
	return err
}

func (s *PostgresStore) InsertIfAbsent(ctx context.Context, source string, p domain.JobPosting) (bool, error) {
	if err := checkSource(source); err != nil {
		return false, err
	}
	firstSeen := p.FirstSeen
	if firstSeen.IsZero() {
		firstSeen = time.Now()
	}
	var loc *string
	if p.Location != "" {
		loc = &p.Location
	}

	tag, err := s.pool.Exec(ctx, `
		INSERT INTO postings (source, job_id, title, link, location, first_seen)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (source, job_id) DO NOTHING`,
		source, p.JobID, p.Title, p.Link, loc, firstSeen.UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("insert job %s/%s: %w", source, p.JobID, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) ListAll(ctx context.Context, source string) ([]domain.JobPosting, error) {
	if err := checkSource(source); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, `
		SELECT job_id, title, link, location, first_seen
		FROM postings
		WHERE source = $1
		ORDER BY seq DESC`, source)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", source, err)
	}
	defer rows.Close()

	out := []domain.JobPosting{}
	for rows.Next() {
		var (
			p   domain.JobPosting
			loc *string
		)
		if err := rows.Scan(&p.JobID, &p.Title, &p.Link, &loc, &p.FirstSeen); err != nil {
			return nil, fmt.Errorf("scan %s: %w", source, err)
		}
		if loc != nil {
			p.Location = *loc
		}
		p.FirstSeen = p.FirstSeen.UTC()
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", source, err)
	}
	return out, nil
}

func (s *PostgresStore) ClearAll(ctx context.Context, source string) (int, error) {
	if err := checkSource(source); err != nil {
		return 0, err
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM postings WHERE source = $1`, source)
	if err != nil {
		return 0, fmt.Errorf("clear %s: %w", source, err)
	}
	n := int(tag.RowsAffected())
	s.log.Info("cleared postings", "source", source, "deleted", n)
	return n, nil
}

func (s *PostgresStore) Count(ctx context.Context, source string) (int, error) {
	if err := checkSource(source); err != nil {
		return 0, err
	}
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM postings WHERE source = $1`, source).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", source, err)
	}
	return n, nil
}
