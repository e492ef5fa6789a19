package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"jobwatch-engine/internal/domain"
)

// FileStore keeps one JSON file per source under dir. Writes go through a
// tmp file + rename, and every operation holds an flock on <source>.lock so
// several engine processes can share the directory.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("file store dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) dataPath(source string) string {
	return filepath.Join(s.dir, source+".json")
}

// withLock runs fn while holding both the in-process mutex and the
// cross-process file lock for source.
func (s *FileStore) withLock(ctx context.Context, source string, fn func(path string) error) error {
	if err := checkSource(source); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	fl := flock.New(filepath.Join(s.dir, source+".lock"))
	ok, err := fl.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil {
		return fmt.Errorf("lock %s: %w", source, err)
	}
	if !ok {
		return fmt.Errorf("lock %s: not acquired", source)
	}
	defer fl.Unlock()

	return fn(s.dataPath(source))
}

func (s *FileStore) Exists(ctx context.Context, source, jobID string) (found bool, err error) {
	err = s.withLock(ctx, source, func(path string) error {
		jobs, err := readPostings(path)
		if err != nil {
			return err
		}
		for _, j := range jobs {
			if j.JobID == jobID {
				found = true
				break
			}
		}
		return nil
	})
	return found, err
}

func (s *FileStore) Insert(ctx context.Context, source string, p domain.JobPosting) error {
	_, err := s.InsertIfAbsent(ctx, source, p)
	return err
}

func (s *FileStore) InsertIfAbsent(ctx context.Context, source string, p domain.JobPosting) (added bool, err error) {
	err = s.withLock(ctx, source, func(path string) error {
		jobs, err := readPostings(path)
		if err != nil {
			return err
		}
		for _, j := range jobs {
			if j.JobID == p.JobID {
				return nil
			}
		}
		if p.FirstSeen.IsZero() {
			p.FirstSeen = time.Now().UTC()
		}
		jobs = append(jobs, p)
		if err := writePostings(path, jobs); err != nil {
			return err
		}
		added = true
		return nil
	})
	return added, err
}

func (s *FileStore) ListAll(ctx context.Context, source string) (out []domain.JobPosting, err error) {
	err = s.withLock(ctx, source, func(path string) error {
		jobs, err := readPostings(path)
		if err != nil {
			return err
		}
		out = make([]domain.JobPosting, 0, len(jobs))
		for i := len(jobs) - 1; i >= 0; i-- {
			out = append(out, jobs[i])
		}
		return nil
	})
	return out, err
}

func (s *FileStore) ClearAll(ctx context.Context, source string) (n int, err error) {
	err = s.withLock(ctx, source, func(path string) error {
		jobs, err := readPostings(path)
		if err != nil {
			return err
		}
		n = len(jobs)
		return writePostings(path, []domain.JobPosting{})
	})
	return n, err
}

func (s *FileStore) Count(ctx context.Context, source string) (n int, err error) {
	err = s.withLock(ctx, source, func(path string) error {
		jobs, err := readPostings(path)
		n = len(jobs)
		return err
	})
	return n, err
}

func (s *FileStore) Close() error { return nil }

// Helpers
func readPostings(path string) ([]domain.JobPosting, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.JobPosting{}, nil
		}
		return nil, err
	}

	var jobs []domain.JobPosting
	if err := json.Unmarshal(data, &jobs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return jobs, nil
}

func writePostings(path string, jobs []domain.JobPosting) error {
	data, err := json.MarshalIndent(jobs, "", " ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
