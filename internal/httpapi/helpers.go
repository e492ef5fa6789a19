package httpapi

import (
	"net/http"
	"strings"

	"jobwatch-engine/internal/config"
	"jobwatch-engine/internal/scrape"
)

func methodMux(m map[string]http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h, ok := m[r.Method]; ok {
			h(w, r)
			return
		}
		WriteError(w, r, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
	}
}

// sourceFromPath returns the {source} segment of prefix+{source}, or writes
// a 404 and returns "".
func sourceFromPath(w http.ResponseWriter, r *http.Request, prefix string) string {
	name := strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/")
	if !scrape.Known(name) {
		WriteError(w, r, http.StatusNotFound, codeUnknownSource, "unknown source "+quote(name))
		return ""
	}
	return name
}

func quote(s string) string { return `"` + s + `"` }

func currentConfig(d Deps) config.Config {
	if d.CfgVal == nil {
		return config.Default()
	}
	if cfg, ok := d.CfgVal.Load().(config.Config); ok {
		return cfg
	}
	return config.Default()
}
