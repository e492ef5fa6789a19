package scrape

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"jobwatch-engine/internal/domain"
	"jobwatch-engine/internal/metrics"
	"jobwatch-engine/internal/scrape/types"
	"jobwatch-engine/internal/scrape/util"
	"jobwatch-engine/internal/store"

	"github.com/google/uuid"
)

const unknownTitle = "Unknown Title"

// ListingFetcher is satisfied by *Fetcher.
type ListingFetcher interface {
	Fetch(ctx context.Context, src types.Source) (types.FetchResult, error)
}

// Pipeline runs fetch, filter, normalize and insert-if-absent for one source
// at a time. A zero Pipeline is not usable; Store and Fetcher are required.
type Pipeline struct {
	Store   store.JobStore
	Fetcher ListingFetcher
	Locker  Locker
	Metrics metrics.MetricsFn
	Log     *slog.Logger
	Now     func() time.Time

	// OnNewJob is called once per posting that was actually inserted.
	OnNewJob func(source string, p domain.JobPosting)
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Log != nil {
		return p.Log
	}
	return slog.Default()
}

// Run executes one ingestion cycle. Fetch, decode and lock failures come back
// as a result with Status error and a nil error. A store failure also returns
// a non-nil error; postings inserted before it stay in place.
func (p *Pipeline) Run(ctx context.Context, src types.Source) (domain.RunResult, error) {
	start := p.now()
	res := domain.RunResult{
		RunID:     uuid.NewString(),
		Source:    src.Name,
		StartedAt: start.UTC(),
	}
	log := p.logger().With("component", "scrape", "source", src.Name, "run_id", res.RunID)

	if p.Metrics != nil {
		p.Metrics.IncRuns(src.Name)
		p.Metrics.IncRunning()
		defer p.Metrics.DecRunning()
	}

	finish := func(err error) (domain.RunResult, error) {
		res.Duration = p.now().Sub(start)
		if res.Status == "" {
			res.Status = domain.StatusSuccess
		}
		if p.Metrics != nil {
			p.Metrics.AddJobsFound(src.Name, res.JobsFound)
			p.Metrics.AddJobsNew(src.Name, res.NewJobs)
			p.Metrics.ObserveRun(src.Name, res.Duration)
			if !res.OK() {
				p.Metrics.IncRunErrors(src.Name)
			}
		}
		if res.OK() {
			log.Info("run finished", "found", res.JobsFound, "new", res.NewJobs,
				"pages", res.PagesScanned, "duration", res.Duration)
		} else {
			log.Error("run failed", "message", res.Message, "found", res.JobsFound,
				"new", res.NewJobs, "duration", res.Duration)
		}
		return res, err
	}

	if p.Locker != nil {
		unlock, err := p.Locker.Lock(ctx, src.Name)
		if err != nil {
			res.Status = domain.StatusError
			res.Message = err.Error()
			return finish(nil)
		}
		defer unlock()
	}

	fr, err := p.Fetcher.Fetch(ctx, src)
	if err != nil {
		res.Status = domain.StatusError
		res.Message = fetchMessage(err)
		return finish(nil)
	}
	if src.Pagination != nil {
		res.PagesScanned = fr.Pages
	}
	res.TotalAvailable = fr.Total

	drafts := p.draft(log, src, fr.Listings)
	res.JobsFound = len(drafts)
	if len(drafts) == 0 {
		return finish(nil)
	}

	for _, d := range drafts {
		added, err := p.Store.InsertIfAbsent(ctx, src.Name, d)
		if err != nil {
			res.Status = domain.StatusError
			res.Message = "store: " + err.Error()
			return finish(fmt.Errorf("%s: insert %q: %w", src.Name, d.JobID, err))
		}
		if !added {
			continue
		}
		res.NewJobs++
		log.Debug("new posting", "job_id", d.JobID, "title", d.Title, "link", d.Link)
		if p.OnNewJob != nil {
			p.OnNewJob(src.Name, d)
		}
	}
	return finish(nil)
}

// draft filters listings and maps the survivors to postings, in input order.
func (p *Pipeline) draft(log *slog.Logger, src types.Source, listings []types.Listing) []domain.JobPosting {
	var out []domain.JobPosting
	seen := make(map[string]bool)
	skipped := 0

	for _, l := range listings {
		if src.Relevant != nil && !src.Relevant(l) {
			skipped++
			continue
		}
		if src.DedupNativeID && l.NativeID != "" {
			if seen[l.NativeID] {
				continue
			}
			seen[l.NativeID] = true
		}

		id := strings.TrimSpace(src.Identity(l))
		if id == "" {
			log.Debug("listing without identity dropped", "title", l.Title)
			continue
		}

		title, link, loc := src.Normalize(l)
		title = util.TextFromHTML(title)
		if title == "" {
			title = unknownTitle
		}

		out = append(out, domain.JobPosting{
			JobID:     id,
			Title:     title,
			Link:      strings.TrimSpace(link),
			Location:  util.CleanText(loc),
			FirstSeen: p.now().UTC(),
		})
	}

	log.Debug("filtered listings", "fetched", len(listings), "skipped", skipped, "kept", len(out))
	return out
}

func fetchMessage(err error) string {
	var se *StatusError
	if errors.As(err, &se) {
		return "fetch failed: " + se.Status
	}
	return "fetch failed: " + err.Error()
}
