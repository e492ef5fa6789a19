package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestEveryRunsNowAndOnTicks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	done := make(chan struct{})

	go func() {
		defer close(done)
		Every(ctx, 10*time.Millisecond, "test", true, func(context.Context) error {
			if calls.Add(1) >= 3 {
				cancel()
			}
			return errors.New("logged, not fatal")
		})
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Every did not stop after cancel")
	}
	if calls.Load() < 3 {
		t.Errorf("calls = %d", calls.Load())
	}
}

func TestEveryWaitsForFirstTick(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	var calls atomic.Int32
	Every(ctx, time.Hour, "idle", false, func(context.Context) error {
		calls.Add(1)
		return nil
	})
	if calls.Load() != 0 {
		t.Errorf("task ran %d times before its first tick", calls.Load())
	}
}
