package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"

	"jobwatch-engine/internal/config"
	"jobwatch-engine/internal/secrets"

	"github.com/zalando/go-keyring"
)

type SecretsHandler struct {
	CfgVal *atomic.Value // stores config.Config
}

type setAdzunaKeyReq struct {
	AppID  string `json:"app_id"`
	AppKey string `json:"app_key"`
}

// SetAdzunaKey stores the key in the OS keyring under the configured app id
// (or the app_id in the body).
func (h SecretsHandler) SetAdzunaKey(w http.ResponseWriter, r *http.Request) {
	var req setAdzunaKeyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, codeInvalidJSON, "invalid json")
		return
	}

	appID := h.appID(req.AppID)
	if err := secrets.SetAdzunaKey(appID, req.AppKey); err != nil {
		WriteError(w, r, http.StatusBadRequest, codeSecretRejected, "failed to store app key: "+err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteAdzunaKey removes the keyring entry for ?app_id= (or the configured
// app id).
func (h SecretsHandler) DeleteAdzunaKey(w http.ResponseWriter, r *http.Request) {
	appID := h.appID(r.URL.Query().Get("app_id"))
	err := secrets.DeleteAdzunaKey(appID)
	switch {
	case errors.Is(err, keyring.ErrNotFound):
		WriteError(w, r, http.StatusNotFound, codeSecretNotFound, "no app key stored for "+quote(appID))
	case err != nil:
		WriteError(w, r, http.StatusBadRequest, codeSecretRejected, "failed to delete app key: "+err.Error())
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h SecretsHandler) appID(fromReq string) string {
	if id := strings.TrimSpace(fromReq); id != "" {
		return id
	}
	cfg := h.CfgVal.Load().(config.Config)
	return cfg.Sources.Microsoft.AppID
}
