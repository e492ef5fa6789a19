package store

import (
	"context"
	"sync"

	"jobwatch-engine/internal/domain"
)

// MemoryStore keeps postings in process memory. Used by tests and by
// -store memory for dry runs.
type MemoryStore struct {
	mu   sync.Mutex
	jobs map[string][]domain.JobPosting // source -> insertion order
	ids  map[string]map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs: make(map[string][]domain.JobPosting),
		ids:  make(map[string]map[string]struct{}),
	}
}

func (s *MemoryStore) Exists(_ context.Context, source, jobID string) (bool, error) {
	if err := checkSource(source); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[source][jobID]
	return ok, nil
}

func (s *MemoryStore) Insert(ctx context.Context, source string, p domain.JobPosting) error {
	_, err := s.InsertIfAbsent(ctx, source, p)
	return err
}

func (s *MemoryStore) InsertIfAbsent(_ context.Context, source string, p domain.JobPosting) (bool, error) {
	if err := checkSource(source); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.ids[source]
	if !ok {
		set = make(map[string]struct{})
		s.ids[source] = set
	}
	if _, dup := set[p.JobID]; dup {
		return false, nil
	}
	set[p.JobID] = struct{}{}
	s.jobs[source] = append(s.jobs[source], p)
	return true, nil
}

func (s *MemoryStore) ListAll(_ context.Context, source string) ([]domain.JobPosting, error) {
	if err := checkSource(source); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.jobs[source]
	out := make([]domain.JobPosting, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

func (s *MemoryStore) ClearAll(_ context.Context, source string) (int, error) {
	if err := checkSource(source); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.jobs[source])
	delete(s.jobs, source)
	delete(s.ids, source)
	return n, nil
}

func (s *MemoryStore) Count(_ context.Context, source string) (int, error) {
	if err := checkSource(source); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs[source]), nil
}

func (s *MemoryStore) Close() error { return nil }
