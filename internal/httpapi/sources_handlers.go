package httpapi

import (
	"net/http"

	"jobwatch-engine/internal/scrape"
)

type sourceInfo struct {
	Name     string `json:"name"`
	Enabled  bool   `json:"enabled"`
	Postings int    `json:"postings"`
}

type SourcesHandler struct {
	Deps Deps
}

func (h SourcesHandler) List(w http.ResponseWriter, r *http.Request) {
	cfg := currentConfig(h.Deps)
	names := scrape.SourceNames()
	out := make([]sourceInfo, 0, len(names))
	for _, name := range names {
		n, err := h.Deps.Store.Count(r.Context(), name)
		if err != nil {
			writeStoreError(w, r, name, err)
			return
		}
		out = append(out, sourceInfo{Name: name, Enabled: scrape.Enabled(cfg, name), Postings: n})
	}
	writeJSON(w, out)
}
