package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Error codes carried in the "code" field of every error body.
const (
	codeInvalidJSON       = "invalid_json"
	codeMethodNotAllowed  = "method_not_allowed"
	codeUnknownSource     = "unknown_source"
	codeStoreError        = "store_error"
	codeRunFailed         = "run_failed"
	codeSaveFailed        = "save_failed"
	codeReloadFailed      = "reload_failed"
	codeSecretRejected    = "secret_rejected"
	codeSecretNotFound    = "secret_not_found"
	codeForbidden         = "forbidden"
	codeNotSupported      = "not_supported"
	codeCheckpointFailed  = "checkpoint_failed"
	codeStreamUnsupported = "stream_unsupported"
	codeInternal          = "internal_error"
)

type APIError struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id,omitempty"`
	} `json:"error"`
}

// WriteJSON writes v with status. Headers are already out when encoding
// fails, so the failure is only logged.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Warn("encode response", "component", "http", "status", status, "err", err)
	}
}

func writeJSON(w http.ResponseWriter, v any) { WriteJSON(w, http.StatusOK, v) }

func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	var e APIError
	e.Error.Code = code
	e.Error.Message = message
	e.Error.RequestID = RequestIDFrom(r.Context())
	WriteJSON(w, status, e)
}

// writeStoreError reports a failed store call against source.
func writeStoreError(w http.ResponseWriter, r *http.Request, source string, err error) {
	WriteError(w, r, http.StatusInternalServerError, codeStoreError, source+": "+err.Error())
}
