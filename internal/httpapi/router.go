package httpapi

import (
	"fmt"
	"log/slog"
	"net/http"

	"jobwatch-engine/internal/events"
)

// NewMux returns the raw mux so main() can attach extra routes.
func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: HealthHandler{}.Health,
	}))

	// Jobs
	jh := JobsHandler{Store: d.Store, Hub: d.Hub, Log: d.Log}
	mux.HandleFunc("/jobs/", methodMux(map[string]http.HandlerFunc{
		http.MethodGet:    jh.List,  // /jobs/{source}
		http.MethodDelete: jh.Clear, // /jobs/{source}
	}))

	sh := SourcesHandler{Deps: d}
	mux.HandleFunc("/sources", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: sh.List,
	}))

	// Config
	ch := ConfigHandler{
		CfgVal:      d.CfgVal,
		UserCfgPath: d.UserCfgPath,
		LoadCfg:     d.LoadCfg,
	}
	mux.HandleFunc("/config", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Get,
		http.MethodPut: ch.Put,
	}))
	mux.HandleFunc("/config/path", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Path,
	}))
	mux.HandleFunc("/config/validate", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Validate,
	}))

	// Secrets (use cfgVal, NOT a snapshot cfg)
	sec := SecretsHandler{CfgVal: d.CfgVal}
	mux.HandleFunc("/api/secrets/adzuna", methodMux(map[string]http.HandlerFunc{
		http.MethodPost:   sec.SetAdzunaKey,
		http.MethodDelete: sec.DeleteAdzunaKey,
	}))

	// Scrape
	sch := ScrapeHandler{Poller: d.Poller, Log: d.Log}
	mux.HandleFunc("/scrape/status", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: sch.Status,
	}))
	mux.HandleFunc("/scrape/run", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sch.Run,
	}))

	// SSE events
	eh := EventsHandler{Hub: d.Hub}
	mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: eh.ServeSSE,
	}))

	dh := DBHandler{Store: d.Store}
	mux.HandleFunc("/db/checkpoint", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: dh.Checkpoint,
	}))

	if d.Metrics != nil {
		mux.Handle("/metrics", methodMux(map[string]http.HandlerFunc{
			http.MethodGet: metricsWithHub(d.Metrics, d.Hub),
		}))
	}

	return mux
}

// metricsWithHub appends the SSE hub gauges to the run counters.
func metricsWithHub(base http.Handler, hub *events.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		base.ServeHTTP(w, r)
		if hub == nil {
			return
		}
		fmt.Fprintf(w, "sse_subscribers %d\n", hub.Subscribers())
		fmt.Fprintf(w, "sse_dropped_total %d\n", hub.Dropped())
	}
}

// NewHandler is NewMux wrapped in the standard middleware chain.
func NewHandler(d Deps) http.Handler {
	log := d.Log
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "http")
	return Chain(NewMux(d), RequestID, Recover(log), AccessLog(log), Cors)
}
