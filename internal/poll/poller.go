package poll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"jobwatch-engine/internal/config"
	"jobwatch-engine/internal/domain"
	"jobwatch-engine/internal/scheduler"
	"jobwatch-engine/internal/scrape"

	"golang.org/x/sync/errgroup"
)

var ErrUnknownSource = errors.New("unknown source")

const runTimeout = 10 * time.Minute

type ScrapeStatus struct {
	LastRunAt string            `json:"last_run_at"`
	LastOkAt  string            `json:"last_ok_at"`
	LastError string            `json:"last_error"`
	LastAdded int               `json:"last_added"`
	Running   bool              `json:"running"`
	Last      *domain.RunResult `json:"last,omitempty"`
}

// Poller drives Pipeline.Run per source on a ticker and keeps the last
// status of every source.
type Poller struct {
	Pipeline *scrape.Pipeline
	Config   func() config.Config
	Log      *slog.Logger

	// OnResult is called after every run, scheduled or manual.
	OnResult func(domain.RunResult)

	mu     sync.Mutex
	status map[string]ScrapeStatus
	wg     sync.WaitGroup
}

func New(p *scrape.Pipeline, cfg func() config.Config, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		Pipeline: p,
		Config:   cfg,
		Log:      logger.With("component", "poll"),
		status:   make(map[string]ScrapeStatus),
	}
}

// Start launches one ticker per built-in source. Disabled sources are
// skipped on each tick, so enabling one through /config takes effect on its
// next tick. The interval is read once here.
func (p *Poller) Start(ctx context.Context) {
	cfg := p.Config()
	interval := time.Duration(cfg.Polling.IntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = time.Hour
	}

	for _, name := range scrape.SourceNames() {
		name := name
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			scheduler.Every(ctx, interval, "poll:"+name, cfg.Polling.RunOnStart, func(ctx context.Context) error {
				if !scrape.Enabled(p.Config(), name) {
					return nil
				}
				_, err := p.RunOnce(ctx, name)
				return err
			})
		}()
	}
	p.Log.Info("poller started", "interval", interval, "sources", scrape.EnabledNames(cfg))
}

// Wait blocks until every ticker started by Start has returned.
func (p *Poller) Wait() { p.wg.Wait() }

// RunOnce runs one source now, whether or not it is enabled.
func (p *Poller) RunOnce(ctx context.Context, name string) (domain.RunResult, error) {
	if !scrape.Known(name) {
		return domain.RunResult{}, fmt.Errorf("%w: %q", ErrUnknownSource, name)
	}

	p.markRunning(name)

	res, err := p.run(ctx, name)

	p.record(name, res, err)
	if p.OnResult != nil {
		p.OnResult(res)
	}
	return res, err
}

func (p *Poller) run(ctx context.Context, name string) (domain.RunResult, error) {
	src, err := scrape.Build(p.Config(), name)
	if err != nil {
		return domain.RunResult{
			Source:    name,
			Status:    domain.StatusError,
			Message:   err.Error(),
			StartedAt: time.Now().UTC(),
		}, nil
	}

	rctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()
	return p.Pipeline.Run(rctx, src)
}

// RunAll runs every enabled source concurrently. One source failing does
// not cancel the others; the first store error is returned.
func (p *Poller) RunAll(ctx context.Context) ([]domain.RunResult, error) {
	names := scrape.EnabledNames(p.Config())
	results := make([]domain.RunResult, len(names))

	var g errgroup.Group
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			res, err := p.RunOnce(ctx, name)
			results[i] = res
			return err
		})
	}
	err := g.Wait()
	return results, err
}

func (p *Poller) markRunning(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := p.status[name]
	st.Running = true
	st.LastRunAt = time.Now().Format(time.RFC3339)
	p.status[name] = st
}

func (p *Poller) record(name string, res domain.RunResult, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	st := p.status[name]
	st.Running = false
	st.LastAdded = res.NewJobs
	last := res
	st.Last = &last

	switch {
	case err != nil:
		st.LastError = err.Error()
	case !res.OK():
		st.LastError = res.Message
	default:
		st.LastError = ""
		st.LastOkAt = time.Now().Format(time.RFC3339)
	}
	p.status[name] = st
}

// Status returns a copy of the per-source status map.
func (p *Poller) Status() map[string]ScrapeStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]ScrapeStatus, len(p.status))
	for k, v := range p.status {
		out[k] = v
	}
	return out
}
