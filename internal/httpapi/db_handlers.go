package httpapi

import (
	"context"
	"net"
	"net/http"

	"jobwatch-engine/internal/store"
)

// checkpointer is implemented by stores with a write-ahead log to flush.
type checkpointer interface {
	Checkpoint(ctx context.Context) error
}

type DBHandler struct {
	Store store.JobStore
}

// Checkpoint serves POST /db/checkpoint, loopback callers only.
func (h DBHandler) Checkpoint(w http.ResponseWriter, r *http.Request) {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if ip := net.ParseIP(host); ip == nil || !ip.IsLoopback() {
		WriteError(w, r, http.StatusForbidden, codeForbidden, "forbidden")
		return
	}

	cp, ok := h.Store.(checkpointer)
	if !ok {
		WriteError(w, r, http.StatusNotImplemented, codeNotSupported, "store has no checkpoint")
		return
	}
	if err := cp.Checkpoint(r.Context()); err != nil {
		WriteError(w, r, http.StatusInternalServerError, codeCheckpointFailed, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
