package httpapi

import (
	"log/slog"
	"net/http"
	"sync/atomic"

	"jobwatch-engine/internal/config"
	"jobwatch-engine/internal/events"
	"jobwatch-engine/internal/poll"
	"jobwatch-engine/internal/store"
)

type Deps struct {
	Store store.JobStore

	Hub *events.Hub

	Poller *poll.Poller

	// Metrics serves /metrics; nil leaves the route unregistered.
	Metrics http.Handler

	// Atomic stores
	CfgVal *atomic.Value // stores config.Config

	// Config persistence
	UserCfgPath string
	LoadCfg     func() (config.Config, error)

	Log *slog.Logger
}
