package scrape

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

var ErrLocked = errors.New("source run already in progress")

// Locker serializes runs of the same source. Lock blocks until the key is
// free or ctx is done.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// KeyedLocker is an in-process Locker with one slot per key.
type KeyedLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{slots: make(map[string]chan struct{})}
}

func (k *KeyedLocker) slot(key string) chan struct{} {
	k.mu.Lock()
	defer k.mu.Unlock()
	ch, ok := k.slots[key]
	if !ok {
		ch = make(chan struct{}, 1)
		k.slots[key] = ch
	}
	return ch
}

func (k *KeyedLocker) Lock(ctx context.Context, key string) (func(), error) {
	ch := k.slot(key)
	select {
	case ch <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-ch }) }, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %s: %v", ErrLocked, key, ctx.Err())
	}
}

// FileLocker extends KeyedLocker across processes sharing a data dir, using
// <dir>/<key>.run.lock.
type FileLocker struct {
	dir   string
	local *KeyedLocker
	retry time.Duration
}

func NewFileLocker(dir string) (*FileLocker, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileLocker{dir: dir, local: NewKeyedLocker(), retry: 100 * time.Millisecond}, nil
}

func (f *FileLocker) Lock(ctx context.Context, key string) (func(), error) {
	unlockLocal, err := f.local.Lock(ctx, key)
	if err != nil {
		return nil, err
	}

	fl := flock.New(filepath.Join(f.dir, key+".run.lock"))
	ok, err := fl.TryLockContext(ctx, f.retry)
	if err != nil || !ok {
		unlockLocal()
		if err == nil {
			err = ctx.Err()
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrLocked, key, err)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			_ = fl.Unlock()
			unlockLocal()
		})
	}, nil
}
