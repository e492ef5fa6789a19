package scrape

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func exerciseLocker(t *testing.T, l Locker) {
	t.Helper()

	var inside, maxInside atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), "garmin")
			if err != nil {
				t.Error(err)
				return
			}
			n := inside.Add(1)
			for {
				m := maxInside.Load()
				if n <= m || maxInside.CompareAndSwap(m, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			inside.Add(-1)
			unlock()
		}()
	}
	wg.Wait()
	if maxInside.Load() != 1 {
		t.Errorf("max concurrent holders = %d, want 1", maxInside.Load())
	}

	// Different keys do not block each other.
	u1, err := l.Lock(context.Background(), "amazon")
	if err != nil {
		t.Fatal(err)
	}
	defer u1()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	u2, err := l.Lock(ctx, "atlassian")
	if err != nil {
		t.Fatalf("other key blocked: %v", err)
	}
	u2()

	// Same key honours ctx.
	short, cancel2 := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel2()
	if _, err := l.Lock(short, "amazon"); !errors.Is(err, ErrLocked) {
		t.Errorf("err = %v, want ErrLocked", err)
	}
}

func TestKeyedLocker(t *testing.T) {
	exerciseLocker(t, NewKeyedLocker())
}

func TestFileLocker(t *testing.T) {
	l, err := NewFileLocker(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	exerciseLocker(t, l)
}

func TestUnlockIsIdempotent(t *testing.T) {
	l := NewKeyedLocker()
	unlock, err := l.Lock(context.Background(), "amazon")
	if err != nil {
		t.Fatal(err)
	}
	unlock()
	unlock()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	u, err := l.Lock(ctx, "amazon")
	if err != nil {
		t.Fatal(err)
	}
	u()
}
