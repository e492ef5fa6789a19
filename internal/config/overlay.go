// config/overlay.go
package config

import (
	"os"
	"strconv"
	"strings"
)

// OverlayEnv applies environment overrides on top of the file config.
// Secrets for Adzuna usually arrive this way (or through the keyring).
func OverlayEnv(cfg *Config) {
	if v := envString("JOBWATCH_DATA_DIR"); v != "" {
		cfg.App.DataDir = v
	}
	if v := envString("JOBWATCH_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.App.Port = p
		}
	}
	if v := envString("JOBWATCH_STORE_DRIVER"); v != "" {
		cfg.Store.Driver = v
	}
	if v := envString("JOBWATCH_PG_DSN"); v != "" {
		cfg.Store.Postgres.DSN = v
		if cfg.Store.Driver == "" || cfg.Store.Driver == "sqlite" {
			cfg.Store.Driver = "postgres"
		}
	}
	if v := envString("JOBWATCH_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := envString("ADZUNA_APP_ID"); v != "" {
		cfg.Sources.Microsoft.AppID = v
	}
	if v := envString("ADZUNA_APP_KEY"); v != "" {
		cfg.Sources.Microsoft.AppKey = v
	}
}

func envString(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
