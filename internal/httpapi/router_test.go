package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"jobwatch-engine/internal/config"
	"jobwatch-engine/internal/domain"
	"jobwatch-engine/internal/events"
	"jobwatch-engine/internal/metrics"
	"jobwatch-engine/internal/poll"
	"jobwatch-engine/internal/scrape"
	"jobwatch-engine/internal/store"

	"github.com/zalando/go-keyring"
)

type testEnv struct {
	handler http.Handler
	store   *store.MemoryStore
	hub     *events.Hub
	cfgVal  *atomic.Value
	cfgPath string
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()

	vendor := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"jobs": []map[string]string{
			{"title": "Software Development Engineer", "normalized_location": "Austin, TX, USA", "job_path": "/en/jobs/42"},
		}})
	}))
	t.Cleanup(vendor.Close)

	cfg := config.Default()
	cfg.Sources.Amazon.URL = vendor.URL + "/en/search.json"
	cfg.Sources.Atlassian.Enabled = false
	cfg.Sources.Microsoft.Enabled = false
	cfg.Sources.Garmin.Enabled = false

	cfgPath := filepath.Join(t.TempDir(), "config.yml")
	if err := config.SaveAtomic(cfgPath, cfg); err != nil {
		t.Fatal(err)
	}
	cfgVal := &atomic.Value{}
	cfgVal.Store(cfg)

	st := store.NewMemoryStore()
	hub := events.NewHub()
	m := metrics.New()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	pl := &scrape.Pipeline{
		Store:   st,
		Fetcher: &scrape.Fetcher{Client: vendor.Client()},
		Locker:  scrape.NewKeyedLocker(),
		Metrics: m,
		Log:     log,
	}
	p := poll.New(pl, func() config.Config { return cfgVal.Load().(config.Config) }, log)

	h := NewHandler(Deps{
		Store:       st,
		Hub:         hub,
		Poller:      p,
		Metrics:     m.Handler(),
		CfgVal:      cfgVal,
		UserCfgPath: cfgPath,
		LoadCfg:     func() (config.Config, error) { return config.Load(cfgPath) },
		Log:         log,
	})
	return &testEnv{handler: h, store: st, hub: hub, cfgVal: cfgVal, cfgPath: cfgPath}
}

func (e *testEnv) do(t *testing.T, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	env := newEnv(t)
	rec := env.do(t, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok":true`) {
		t.Fatalf("health = %d %s", rec.Code, rec.Body)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
}

func TestJobsListAndClear(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()

	rec := env.do(t, http.MethodGet, "/jobs/amazon", nil)
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("empty list = %d %q", rec.Code, rec.Body)
	}

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"t1", "t2", "t3"} {
		_, _ = env.store.InsertIfAbsent(ctx, "amazon", domain.JobPosting{
			JobID: id, Title: "SDE", Link: "https://amazon.jobs/" + id, FirstSeen: base.Add(time.Duration(i) * time.Hour),
		})
	}

	rec = env.do(t, http.MethodGet, "/jobs/amazon", nil)
	var got []domain.JobPosting
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || got[0].JobID != "t3" || got[2].JobID != "t1" {
		t.Fatalf("list = %+v", got)
	}
	if strings.Contains(rec.Body.String(), `"location"`) {
		t.Error("absent location should be omitted")
	}

	sub := env.hub.Subscribe()
	defer env.hub.Unsubscribe(sub)

	rec = env.do(t, http.MethodDelete, "/jobs/amazon", nil)
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != `{"deleted":3}` {
		t.Fatalf("clear = %d %s", rec.Code, rec.Body)
	}
	select {
	case evt := <-sub:
		if !strings.Contains(evt, `"type":"jobs_cleared"`) || !strings.Contains(evt, `"source":"amazon"`) {
			t.Errorf("event = %s", evt)
		}
	default:
		t.Error("no jobs_cleared event")
	}
	if n, _ := env.store.Count(ctx, "amazon"); n != 0 {
		t.Errorf("count after clear = %d", n)
	}
}

func TestJobsErrors(t *testing.T) {
	env := newEnv(t)

	rec := env.do(t, http.MethodGet, "/jobs/linkedin", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("code = %d", rec.Code)
	}
	var apiErr APIError
	if err := json.Unmarshal(rec.Body.Bytes(), &apiErr); err != nil {
		t.Fatal(err)
	}
	if apiErr.Error.Code != "unknown_source" || apiErr.Error.RequestID == "" {
		t.Errorf("error = %+v", apiErr)
	}

	if rec := env.do(t, http.MethodPost, "/jobs/amazon", nil); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST /jobs = %d", rec.Code)
	}
}

func TestSources(t *testing.T) {
	env := newEnv(t)
	_, _ = env.store.InsertIfAbsent(context.Background(), "garmin", domain.JobPosting{JobID: "R1", Title: "x", Link: "y"})

	rec := env.do(t, http.MethodGet, "/sources", nil)
	var got []sourceInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 4 {
		t.Fatalf("sources = %+v", got)
	}
	for _, s := range got {
		switch s.Name {
		case "amazon":
			if !s.Enabled {
				t.Error("amazon should be enabled")
			}
		case "garmin":
			if s.Enabled || s.Postings != 1 {
				t.Errorf("garmin = %+v", s)
			}
		}
	}
}

func TestScrapeRunAndStatus(t *testing.T) {
	env := newEnv(t)

	rec := env.do(t, http.MethodPost, "/scrape/run?source=amazon&wait=1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("run = %d %s", rec.Code, rec.Body)
	}
	var out struct {
		OK      bool               `json:"ok"`
		Results []domain.RunResult `json:"results"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if !out.OK || len(out.Results) != 1 || out.Results[0].NewJobs != 1 || out.Results[0].Status != domain.StatusSuccess {
		t.Fatalf("results = %+v", out)
	}

	rec = env.do(t, http.MethodGet, "/scrape/status", nil)
	var status map[string]poll.ScrapeStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatal(err)
	}
	if s := status["amazon"]; s.LastAdded != 1 || s.LastOkAt == "" || s.Running {
		t.Errorf("status = %+v", s)
	}

	if rec := env.do(t, http.MethodPost, "/scrape/run?source=bogus", nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown source run = %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/metrics", nil)
	if !strings.Contains(rec.Body.String(), `jobs_new_total{source="amazon"} 1`) {
		t.Errorf("metrics = %s", rec.Body)
	}
	if !strings.Contains(rec.Body.String(), "sse_subscribers 0\n") || !strings.Contains(rec.Body.String(), "sse_dropped_total 0\n") {
		t.Errorf("hub gauges missing: %s", rec.Body)
	}
}

func TestScrapeRunAsync(t *testing.T) {
	env := newEnv(t)
	rec := env.do(t, http.MethodPost, "/scrape/run", nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("async run = %d", rec.Code)
	}
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if n, _ := env.store.Count(context.Background(), "amazon"); n == 1 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("background run did not store the posting")
}

func TestConfigPutKeepsEnvKeyOffDisk(t *testing.T) {
	t.Setenv("ADZUNA_APP_KEY", "key-from-env")
	env := newEnv(t)

	cur := env.cfgVal.Load().(config.Config)
	cur.Sources.Microsoft.AppKey = "key-from-env"
	env.cfgVal.Store(cur)

	rec := env.do(t, http.MethodGet, "/config", nil)
	if strings.Contains(rec.Body.String(), "key-from-env") {
		t.Fatal("app key leaked over GET /config")
	}
	rec = env.do(t, http.MethodPut, "/config", rec.Body.Bytes())
	if rec.Code != http.StatusOK {
		t.Fatalf("put = %d %s", rec.Code, rec.Body)
	}

	raw, err := os.ReadFile(env.cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(raw), "key-from-env") {
		t.Errorf("env app key written to %s", env.cfgPath)
	}
	if got := env.cfgVal.Load().(config.Config).Sources.Microsoft.AppKey; got != "key-from-env" {
		t.Errorf("in-memory app key = %q", got)
	}
}

func TestConfigPutKeepsOnDiskKey(t *testing.T) {
	env := newEnv(t)

	onDisk, err := config.LoadFile(env.cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	onDisk.Sources.Microsoft.AppKey = "key-in-file"
	if err := config.SaveAtomic(env.cfgPath, onDisk); err != nil {
		t.Fatal(err)
	}

	rec := env.do(t, http.MethodGet, "/config", nil)
	rec = env.do(t, http.MethodPut, "/config", rec.Body.Bytes())
	if rec.Code != http.StatusOK {
		t.Fatalf("put = %d %s", rec.Code, rec.Body)
	}
	saved, err := config.LoadFile(env.cfgPath)
	if err != nil || saved.Sources.Microsoft.AppKey != "key-in-file" {
		t.Errorf("file app key = %q %v", saved.Sources.Microsoft.AppKey, err)
	}
}

func TestConfigPutValidates(t *testing.T) {
	env := newEnv(t)

	rec := env.do(t, http.MethodGet, "/config", nil)
	var cfg config.Config
	if err := json.Unmarshal(rec.Body.Bytes(), &cfg); err != nil {
		t.Fatal(err)
	}

	bad := cfg
	bad.Polling.IntervalMinutes = 0
	b, _ := json.Marshal(bad)
	rec = env.do(t, http.MethodPut, "/config", b)
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "interval_minutes") {
		t.Fatalf("bad put = %d %s", rec.Code, rec.Body)
	}

	good := cfg
	good.Polling.IntervalMinutes = 30
	b, _ = json.Marshal(good)
	rec = env.do(t, http.MethodPut, "/config", b)
	if rec.Code != http.StatusOK {
		t.Fatalf("good put = %d %s", rec.Code, rec.Body)
	}
	if env.cfgVal.Load().(config.Config).Polling.IntervalMinutes != 30 {
		t.Error("config not swapped in")
	}
	onDisk, err := config.Load(env.cfgPath)
	if err != nil || onDisk.Polling.IntervalMinutes != 30 {
		t.Errorf("on disk = %d %v", onDisk.Polling.IntervalMinutes, err)
	}

	rec = env.do(t, http.MethodPut, "/config", []byte(`{"nope": 1}`))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown field put = %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/config/validate", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"errors"`) {
		t.Errorf("validate = %d %s", rec.Code, rec.Body)
	}
}

func TestSetAdzunaKey(t *testing.T) {
	keyring.MockInit()
	env := newEnv(t)

	rec := env.do(t, http.MethodPost, "/api/secrets/adzuna", []byte(`{"app_id": "app9", "app_key": "k9"}`))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("set key = %d %s", rec.Code, rec.Body)
	}
	if got, err := keyring.Get("jobwatch", "adzuna:app9"); err != nil || got != "k9" {
		t.Errorf("keyring = %q %v", got, err)
	}

	rec = env.do(t, http.MethodPost, "/api/secrets/adzuna", []byte(`{"app_key": "k"}`))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing app id = %d", rec.Code)
	}

	rec = env.do(t, http.MethodDelete, "/api/secrets/adzuna?app_id=app9", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete key = %d %s", rec.Code, rec.Body)
	}
	if _, err := keyring.Get("jobwatch", "adzuna:app9"); !errors.Is(err, keyring.ErrNotFound) {
		t.Errorf("key still present: %v", err)
	}
	rec = env.do(t, http.MethodDelete, "/api/secrets/adzuna?app_id=app9", nil)
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), "secret_not_found") {
		t.Errorf("second delete = %d %s", rec.Code, rec.Body)
	}
}

func TestCheckpointGuards(t *testing.T) {
	env := newEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/db/checkpoint", nil)
	req.RemoteAddr = "192.0.2.10:5555"
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("remote checkpoint = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/db/checkpoint", nil)
	req.RemoteAddr = "127.0.0.1:5555"
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotImplemented {
		t.Errorf("memory store checkpoint = %d", rec.Code)
	}
}

func TestRecoverMiddleware(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }), RequestID, Recover(log))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	if rec.Code != http.StatusInternalServerError || !strings.Contains(rec.Body.String(), "internal_error") {
		t.Errorf("recover = %d %s", rec.Code, rec.Body)
	}
}

func TestEventsStream(t *testing.T) {
	env := newEnv(t)
	srv := httptest.NewServer(env.handler)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}

	buf := make([]byte, 4096)
	n, err := resp.Body.Read(buf)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(buf[:n]), `"type":"ping"`) {
		t.Fatalf("first frame = %q", buf[:n])
	}

	env.hub.Publish(events.MakeEvent("", events.JobCreated, "amazon", map[string]string{"jobId": "x"}))
	var seen strings.Builder
	for !strings.Contains(seen.String(), "job_created") {
		n, err := resp.Body.Read(buf)
		if err != nil {
			t.Fatalf("read: %v (got %q)", err, seen.String())
		}
		seen.Write(buf[:n])
	}
}
