package httpapi

import (
	"log/slog"
	"net/http"

	"jobwatch-engine/internal/domain"
	"jobwatch-engine/internal/events"
	"jobwatch-engine/internal/store"
)

type JobsHandler struct {
	Store store.JobStore
	Hub   *events.Hub
	Log   *slog.Logger
}

// List serves GET /jobs/{source}, newest first.
func (h JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	source := sourceFromPath(w, r, "/jobs/")
	if source == "" {
		return
	}
	jobs, err := h.Store.ListAll(r.Context(), source)
	if err != nil {
		writeStoreError(w, r, source, err)
		return
	}
	if jobs == nil {
		jobs = []domain.JobPosting{}
	}
	writeJSON(w, jobs)
}

// Clear serves DELETE /jobs/{source}: every posting of the source is removed.
func (h JobsHandler) Clear(w http.ResponseWriter, r *http.Request) {
	source := sourceFromPath(w, r, "/jobs/")
	if source == "" {
		return
	}
	n, err := h.Store.ClearAll(r.Context(), source)
	if err != nil {
		writeStoreError(w, r, source, err)
		return
	}

	reqID := RequestIDFrom(r.Context())
	if h.Log != nil {
		h.Log.Warn("postings cleared", "source", source, "deleted", n, "request_id", reqID)
	}
	if h.Hub != nil {
		h.Hub.Publish(events.MakeEvent(reqID, events.JobsCleared, source, map[string]any{"deleted": n}))
	}
	writeJSON(w, map[string]any{"deleted": n})
}
