package scrape

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"jobwatch-engine/internal/config"
	"jobwatch-engine/internal/scrape/types"
	"jobwatch-engine/internal/scrape/util"
)

const maxBodyBytes = 16 << 20

// StatusError is a non-2xx vendor response.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string { return e.Status }

// Fetcher performs the vendor GETs for a Source. It never touches a store.
type Fetcher struct {
	Client    *http.Client
	Limiter   *util.HostLimiter
	UserAgent string
	Log       *slog.Logger
}

func NewFetcher(cfg config.Config, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		Client:    &http.Client{Timeout: time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second},
		Limiter:   util.NewHostLimiter(cfg.HTTP.RequestsPerSecond, cfg.HTTP.Burst),
		UserAgent: cfg.HTTP.UserAgent,
		Log:       logger.With("component", "fetch"),
	}
}

func (f *Fetcher) logger() *slog.Logger {
	if f.Log != nil {
		return f.Log
	}
	return slog.Default()
}

// Fetch retrieves every listing for src. Single-request sources fail on any
// transport, status or decode error. Paginated sources walk pages until an
// empty page, the page ceiling or a failed page, and return what was
// collected so far with a nil error, even when page one fails.
func (f *Fetcher) Fetch(ctx context.Context, src types.Source) (types.FetchResult, error) {
	if src.Pagination == nil {
		pg, err := f.fetchPage(ctx, src, src.Endpoint.Query)
		if err != nil {
			return types.FetchResult{}, err
		}
		return types.FetchResult{Listings: pg.Listings, Pages: 1, Total: pg.Total}, nil
	}
	return f.fetchPages(ctx, src)
}

func (f *Fetcher) fetchPages(ctx context.Context, src types.Source) (types.FetchResult, error) {
	p := *src.Pagination
	if p.Param == "" {
		p.Param = "page"
	}
	if p.Start <= 0 {
		p.Start = 1
	}
	if p.MaxPages <= 0 || p.MaxPages > config.MaxPagesCeiling {
		p.MaxPages = config.MaxPagesCeiling
	}

	var res types.FetchResult
	for i := 0; i < p.MaxPages; i++ {
		page := p.Start + i

		q := url.Values{}
		for k, vs := range src.Endpoint.Query {
			q[k] = append([]string(nil), vs...)
		}
		q.Set(p.Param, strconv.Itoa(page))

		pg, err := f.fetchPage(ctx, src, q)
		if err != nil {
			f.logger().Warn("page failed, stopping pagination",
				"source", src.Name, "page", page, "collected", res.Pages, "err", err)
			break
		}
		if len(pg.Listings) == 0 {
			f.logger().Debug("no more listings", "source", src.Name, "page", page)
			break
		}
		res.Listings = append(res.Listings, pg.Listings...)
		res.Pages++
		if pg.Total > 0 {
			res.Total = pg.Total
		}
	}
	return res, nil
}

func (f *Fetcher) fetchPage(ctx context.Context, src types.Source, q url.Values) (types.Page, error) {
	u, err := util.WithQuery(src.Endpoint.URL, q)
	if err != nil {
		return types.Page{}, fmt.Errorf("bad endpoint url: %w", err)
	}
	body, err := f.get(ctx, u, src.Endpoint.Headers)
	if err != nil {
		return types.Page{}, err
	}
	pg, err := src.Decode(body)
	if err != nil {
		return types.Page{}, fmt.Errorf("decode %s response: %w", src.Name, err)
	}
	return pg, nil
}

func (f *Fetcher) get(ctx context.Context, rawURL string, headers map[string]string) ([]byte, error) {
	if f.Limiter != nil {
		if err := f.Limiter.WaitURL(ctx, rawURL); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		status := resp.Status
		if status == "" {
			status = strconv.Itoa(resp.StatusCode) + " " + http.StatusText(resp.StatusCode)
		}
		return nil, &StatusError{Code: resp.StatusCode, Status: status}
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
}
