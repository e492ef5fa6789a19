package metrics

import (
	"fmt"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

type MetricsFn interface {
	IncRuns(source string)
	IncRunErrors(source string)
	AddJobsFound(source string, n int)
	AddJobsNew(source string, n int)
	ObserveRun(source string, d time.Duration)

	IncRunning()
	DecRunning()
}

type sourceCounters struct {
	runs      uint64
	runErrors uint64
	jobsFound uint64
	jobsNew   uint64
	lastRunNs int64
}

type Metrics struct {
	mu      sync.Mutex
	sources map[string]*sourceCounters

	// gauges
	running int64
}

func New() *Metrics {
	return &Metrics{sources: make(map[string]*sourceCounters)}
}

func (m *Metrics) get(source string) *sourceCounters {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.sources[source]
	if !ok {
		c = &sourceCounters{}
		m.sources[source] = c
	}
	return c
}

// counters
func (m *Metrics) IncRuns(source string)      { atomic.AddUint64(&m.get(source).runs, 1) }
func (m *Metrics) IncRunErrors(source string) { atomic.AddUint64(&m.get(source).runErrors, 1) }
func (m *Metrics) AddJobsFound(source string, n int) {
	atomic.AddUint64(&m.get(source).jobsFound, uint64(n))
}
func (m *Metrics) AddJobsNew(source string, n int) {
	atomic.AddUint64(&m.get(source).jobsNew, uint64(n))
}
func (m *Metrics) ObserveRun(source string, d time.Duration) {
	atomic.StoreInt64(&m.get(source).lastRunNs, d.Nanoseconds())
}

// gauges
func (m *Metrics) IncRunning() { atomic.AddInt64(&m.running, 1) }
func (m *Metrics) DecRunning() { atomic.AddInt64(&m.running, -1) }

// Snapshot returns per-source counters keyed by metric name.
func (m *Metrics) Snapshot(source string) map[string]uint64 {
	c := m.get(source)
	return map[string]uint64{
		"runs_total":       atomic.LoadUint64(&c.runs),
		"run_errors_total": atomic.LoadUint64(&c.runErrors),
		"jobs_found_total": atomic.LoadUint64(&c.jobsFound),
		"jobs_new_total":   atomic.LoadUint64(&c.jobsNew),
	}
}

// Http handler

func (m *Metrics) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		m.mu.Lock()
		names := make([]string, 0, len(m.sources))
		for name := range m.sources {
			names = append(names, name)
		}
		m.mu.Unlock()
		sort.Strings(names)

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		for _, name := range names {
			c := m.get(name)
			fmt.Fprintf(w,
				"runs_total{source=%q} %d\n"+
					"run_errors_total{source=%q} %d\n"+
					"jobs_found_total{source=%q} %d\n"+
					"jobs_new_total{source=%q} %d\n"+
					"last_run_seconds{source=%q} %.3f\n",
				name, atomic.LoadUint64(&c.runs),
				name, atomic.LoadUint64(&c.runErrors),
				name, atomic.LoadUint64(&c.jobsFound),
				name, atomic.LoadUint64(&c.jobsNew),
				name, time.Duration(atomic.LoadInt64(&c.lastRunNs)).Seconds(),
			)
		}
		fmt.Fprintf(w, "runs_in_flight %d\n", atomic.LoadInt64(&m.running))
	})
}
