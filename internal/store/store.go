package store

import (
	"context"
	"errors"
	"fmt"

	"jobwatch-engine/internal/domain"
)

var ErrUnknownSource = errors.New("unknown source")

// JobStore persists postings per source. Collections of different sources
// never overlap; every call is keyed by source name.
type JobStore interface {
	Exists(ctx context.Context, source, jobID string) (bool, error)

	// Insert stores p. A jobID already present is not an error.
	Insert(ctx context.Context, source string, p domain.JobPosting) error

	// InsertIfAbsent inserts p unless source already holds p.JobID.
	// The check and the write happen as one step.
	InsertIfAbsent(ctx context.Context, source string, p domain.JobPosting) (bool, error)

	// ListAll returns postings newest-first by insertion order.
	ListAll(ctx context.Context, source string) ([]domain.JobPosting, error)

	// ClearAll deletes every posting of source and returns how many.
	ClearAll(ctx context.Context, source string) (int, error)

	Count(ctx context.Context, source string) (int, error)

	Close() error
}

func checkSource(source string) error {
	if !domain.ValidSource(source) {
		return fmt.Errorf("%w: %q", ErrUnknownSource, source)
	}
	return nil
}
