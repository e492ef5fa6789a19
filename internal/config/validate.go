package config

import (
	"fmt"
	"net/url"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate returns a normalized copy plus the problems found.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	trimList := func(xs []string, lower bool) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" {
				continue
			}
			key := strings.ToLower(x)
			if seen[key] {
				continue
			}
			seen[key] = true
			if lower {
				x = key
			}
			ys = append(ys, x)
		}
		return ys
	}

	// Amazon title matching is case-sensitive, so keep its casing.
	out.Sources.Amazon.TitleAny = trimList(out.Sources.Amazon.TitleAny, false)
	out.Sources.Atlassian.TitleAny = trimList(out.Sources.Atlassian.TitleAny, true)
	out.Sources.Atlassian.CategoryAny = trimList(out.Sources.Atlassian.CategoryAny, true)
	out.Sources.Atlassian.LocationAny = trimList(out.Sources.Atlassian.LocationAny, true)
	out.Sources.Garmin.TitleAny = trimList(out.Sources.Garmin.TitleAny, true)

	out.Store.Driver = strings.ToLower(strings.TrimSpace(out.Store.Driver))
	out.Log.Level = strings.ToLower(strings.TrimSpace(out.Log.Level))
	out.Log.Format = strings.ToLower(strings.TrimSpace(out.Log.Format))

	// ---- Validation rules ----

	if out.App.Port <= 0 || out.App.Port > 65535 {
		res.addErr("app.port must be 1..65535")
	}

	if out.Polling.IntervalMinutes <= 0 {
		res.addErr("polling.interval_minutes must be > 0")
	} else if out.Polling.IntervalMinutes < 5 {
		res.addWarn("polling.interval_minutes is very low (%d) and may cause rate limits.", out.Polling.IntervalMinutes)
	}

	switch out.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		res.addErr("log.level must be debug|info|warn|error, got %q", out.Log.Level)
	}
	switch out.Log.Format {
	case "", "text", "json":
	default:
		res.addErr("log.format must be text|json, got %q", out.Log.Format)
	}

	switch out.Store.Driver {
	case "", "sqlite":
		if strings.TrimSpace(out.Store.SQLitePath) == "" {
			res.addErr("store.sqlite_path is required when store.driver=sqlite")
		}
	case "postgres":
		if strings.TrimSpace(out.Store.Postgres.DSN) == "" {
			res.addErr("store.postgres.dsn is required when store.driver=postgres")
		}
	case "file":
		if strings.TrimSpace(out.Store.FileDir) == "" {
			res.addErr("store.file_dir is required when store.driver=file")
		}
	case "memory":
		res.addWarn("store.driver=memory keeps postings only until the engine exits.")
	default:
		res.addErr("store.driver must be sqlite|postgres|file|memory, got %q", out.Store.Driver)
	}

	if out.HTTP.TimeoutSeconds <= 0 {
		res.addErr("http.timeout_seconds must be > 0")
	}
	if out.HTTP.RequestsPerSecond < 0 {
		res.addErr("http.requests_per_second must be >= 0")
	}
	if out.HTTP.RequestsPerSecond > 0 && out.HTTP.Burst <= 0 {
		res.addErr("http.burst must be > 0 when requests_per_second is set")
	}

	checkURL := func(name string, enabled bool, raw string) {
		if !enabled {
			return
		}
		u, err := url.Parse(strings.TrimSpace(raw))
		if err != nil || u.Scheme == "" || u.Host == "" {
			res.addErr("sources.%s.url must be an absolute URL", name)
		}
	}

	src := out.Sources
	checkURL("amazon", src.Amazon.Enabled, src.Amazon.URL)
	checkURL("atlassian", src.Atlassian.Enabled, src.Atlassian.URL)
	checkURL("microsoft", src.Microsoft.Enabled, src.Microsoft.URL)
	checkURL("garmin", src.Garmin.Enabled, src.Garmin.URL)

	if src.Amazon.Enabled && len(src.Amazon.TitleAny) == 0 {
		res.addErr("sources.amazon.title_any must have at least 1 term")
	}
	if src.Atlassian.Enabled {
		if len(src.Atlassian.TitleAny) == 0 && len(src.Atlassian.CategoryAny) == 0 {
			res.addErr("sources.atlassian needs title_any or category_any")
		}
		if len(src.Atlassian.LocationAny) == 0 {
			res.addWarn("sources.atlassian.location_any is empty; only exact \"us\" locations will match.")
		}
	}
	if src.Garmin.Enabled {
		if len(src.Garmin.TitleAny) == 0 {
			res.addErr("sources.garmin.title_any must have at least 1 term")
		}
		if src.Garmin.MaxPages <= 0 {
			res.addErr("sources.garmin.max_pages must be > 0")
		} else if src.Garmin.MaxPages > MaxPagesCeiling {
			res.addWarn("sources.garmin.max_pages %d is capped at %d.", src.Garmin.MaxPages, MaxPagesCeiling)
			out.Sources.Garmin.MaxPages = MaxPagesCeiling
		}
	}
	if src.Microsoft.Enabled {
		if strings.TrimSpace(src.Microsoft.AppID) == "" {
			res.addWarn("sources.microsoft.app_id is empty; set it or ADZUNA_APP_ID or Adzuna requests will fail.")
		}
		if src.Microsoft.ResultsPerPage <= 0 || src.Microsoft.ResultsPerPage > 100 {
			res.addErr("sources.microsoft.results_per_page must be 1..100")
		}
	}

	if !src.Amazon.Enabled && !src.Atlassian.Enabled && !src.Microsoft.Enabled && !src.Garmin.Enabled {
		res.addWarn("no sources enabled; the poller will idle.")
	}

	return out, res
}
