package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"jobwatch-engine/internal/domain"
)

const schemaVersion = 1

func Migrate(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}
	if v >= schemaVersion {
		return tx.Commit()
	}

	// ---- Schema v1 ----

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS postings (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  source TEXT NOT NULL,
  job_id TEXT NOT NULL,
  title TEXT NOT NULL,
  link TEXT NOT NULL,
  location TEXT,
  first_seen TEXT NOT NULL
);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE UNIQUE INDEX IF NOT EXISTS idx_postings_source_job
ON postings(source, job_id);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(fmt.Sprintf(`PRAGMA user_version = %d;`, schemaVersion)); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) Exists(ctx context.Context, source, jobID string) (bool, error) {
	if err := checkSource(source); err != nil {
		return false, err
	}
	var one int
	err := s.Pool.QueryRowContext(ctx,
		`SELECT 1 FROM postings WHERE source = ? AND job_id = ? LIMIT 1;`,
		source, jobID,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("exists %s/%s: %w", source, jobID, err)
	}
	return true, nil
}

// Insert never reports a duplicate: the unique index turns a repeated
// jobID into a no-op.
func (s *SQLiteStore) Insert(ctx context.Context, source string, p domain.JobPosting) error {
	_, err := s.InsertIfAbsent(ctx, source, p)
	return err
}

func (s *SQLiteStore) ListAll(ctx context.Context, source string) ([]domain.JobPosting, error) {
	if err := checkSource(source); err != nil {
		return nil, err
	}
	rows, err := s.Pool.QueryContext(ctx, `
SELECT job_id, title, link, location, first_seen
FROM postings
WHERE source = ?
ORDER BY seq DESC;`, source)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", source, err)
	}
	defer rows.Close()

	out := []domain.JobPosting{}
	for rows.Next() {
		var (
			p         domain.JobPosting
			loc       sql.NullString
			firstSeen string
		)
		if err := rows.Scan(&p.JobID, &p.Title, &p.Link, &loc, &firstSeen); err != nil {
			return nil, fmt.Errorf("scan %s: %w", source, err)
		}
		p.Location = loc.String
		if p.FirstSeen, err = time.Parse(time.RFC3339Nano, firstSeen); err != nil {
			return nil, fmt.Errorf("scan %s/%s first_seen: %w", source, p.JobID, err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLiteStore) ClearAll(ctx context.Context, source string) (int, error) {
	if err := checkSource(source); err != nil {
		return 0, err
	}
	res, err := s.Pool.ExecContext(ctx, `DELETE FROM postings WHERE source = ?;`, source)
	if err != nil {
		return 0, fmt.Errorf("clear %s: %w", source, err)
	}
	n, _ := res.RowsAffected()
	s.log.Info("cleared postings", "source", source, "deleted", n)
	return int(n), nil
}

func (s *SQLiteStore) Count(ctx context.Context, source string) (int, error) {
	if err := checkSource(source); err != nil {
		return 0, err
	}
	var n int
	if err := s.Pool.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM postings WHERE source = ?;`, source,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", source, err)
	}
	return n, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339Nano)
}
