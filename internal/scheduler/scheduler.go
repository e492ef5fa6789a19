package scheduler

import (
	"context"
	"log/slog"
	"time"
)

type Task func(ctx context.Context) error

// Every calls task on each tick until ctx is done. With runNow the first
// call happens immediately instead of after one interval. Calls never
// overlap: a slow task delays the next tick.
func Every(ctx context.Context, interval time.Duration, name string, runNow bool, task Task) {
	log := slog.Default().With("component", "scheduler", "task", name)

	run := func() {
		if err := task(ctx); err != nil {
			log.Error("task failed", "err", err)
		}
	}

	if runNow {
		run()
	}

	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			run()
		}
	}
}
