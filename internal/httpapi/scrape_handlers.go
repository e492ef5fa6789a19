package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"jobwatch-engine/internal/domain"
	"jobwatch-engine/internal/poll"
	"jobwatch-engine/internal/scrape"
)

type ScrapeHandler struct {
	Poller *poll.Poller
	Log    *slog.Logger
}

func (h ScrapeHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.Poller.Status())
}

// Run serves POST /scrape/run[?source=name][&wait=1]. Without a source every
// enabled source runs. Without wait the runs happen in the background and
// the response only lists what was started.
func (h ScrapeHandler) Run(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	source := strings.TrimSpace(q.Get("source"))
	wait := q.Get("wait") == "1" || q.Get("wait") == "true"

	if source != "" && !scrape.Known(source) {
		WriteError(w, r, http.StatusNotFound, codeUnknownSource, "unknown source "+quote(source))
		return
	}
	if source != "" && h.Poller.Status()[source].Running {
		writeJSON(w, map[string]any{"ok": false, "msg": "already running"})
		return
	}

	run := func(ctx context.Context) ([]domain.RunResult, error) {
		if source == "" {
			return h.Poller.RunAll(ctx)
		}
		res, err := h.Poller.RunOnce(ctx, source)
		return []domain.RunResult{res}, err
	}

	if wait {
		results, err := run(r.Context())
		if err != nil {
			WriteError(w, r, http.StatusInternalServerError, codeRunFailed, err.Error())
			return
		}
		writeJSON(w, map[string]any{"ok": true, "results": results})
		return
	}

	reqID := RequestIDFrom(r.Context())
	go func() {
		if _, err := run(context.Background()); err != nil && h.Log != nil {
			h.Log.Error("manual run failed", "source", source, "request_id", reqID, "err", err)
		}
	}()
	WriteJSON(w, http.StatusAccepted, map[string]any{"ok": true, "source": source})
}
