package store

import (
	"context"
	"fmt"

	"jobwatch-engine/internal/domain"
)

// InsertIfAbsent relies on the unique index on (source, job_id).
func (s *SQLiteStore) InsertIfAbsent(ctx context.Context, source string, p domain.JobPosting) (bool, error) {
	if err := checkSource(source); err != nil {
		return false, err
	}
	res, err := s.Pool.ExecContext(ctx, `
INSERT OR IGNORE INTO postings(source, job_id, title, link, location, first_seen)
VALUES(?,?,?,?,?,?);`,
		source, p.JobID, p.Title, p.Link, nullString(p.Location), formatTime(p.FirstSeen),
	)
	if err != nil {
		return false, fmt.Errorf("insert job %s/%s: %w", source, p.JobID, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
