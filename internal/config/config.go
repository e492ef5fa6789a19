// engine/internal/config/config.go
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// MaxPagesCeiling bounds every paginated source regardless of config.
const MaxPagesCeiling = 50

type Config struct {
	App struct {
		Port    int    `yaml:"port" json:"port"`
		DataDir string `yaml:"data_dir" json:"data_dir"`
	} `yaml:"app" json:"app"`

	Log struct {
		Level  string `yaml:"level" json:"level"`   // debug | info | warn | error
		Format string `yaml:"format" json:"format"` // text | json
	} `yaml:"log" json:"log"`

	Polling struct {
		IntervalMinutes int  `yaml:"interval_minutes" json:"interval_minutes"`
		RunOnStart      bool `yaml:"run_on_start" json:"run_on_start"`
		// CrossProcessLock serializes same-source runs with a lock file in
		// the data dir instead of an in-process mutex.
		CrossProcessLock bool `yaml:"cross_process_lock" json:"cross_process_lock"`
	} `yaml:"polling" json:"polling"`

	Store struct {
		Driver     string `yaml:"driver" json:"driver"` // sqlite | postgres | file | memory
		SQLitePath string `yaml:"sqlite_path" json:"sqlite_path"`
		FileDir    string `yaml:"file_dir" json:"file_dir"`
		Postgres   struct {
			DSN        string `yaml:"dsn" json:"dsn"`
			MaxConns   int    `yaml:"max_conns" json:"max_conns"`
			ViaBouncer bool   `yaml:"via_bouncer" json:"via_bouncer"`
		} `yaml:"postgres" json:"postgres"`
	} `yaml:"store" json:"store"`

	HTTP struct {
		TimeoutSeconds    int     `yaml:"timeout_seconds" json:"timeout_seconds"`
		UserAgent         string  `yaml:"user_agent" json:"user_agent"`
		RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`
		Burst             int     `yaml:"burst" json:"burst"`
	} `yaml:"http" json:"http"`

	Sources Sources `yaml:"sources" json:"sources"`
}

type Sources struct {
	Amazon    AmazonSource    `yaml:"amazon" json:"amazon"`
	Atlassian AtlassianSource `yaml:"atlassian" json:"atlassian"`
	Microsoft AdzunaSource    `yaml:"microsoft" json:"microsoft"`
	Garmin    GarminSource    `yaml:"garmin" json:"garmin"`
}

type AmazonSource struct {
	Enabled  bool     `yaml:"enabled" json:"enabled"`
	URL      string   `yaml:"url" json:"url"`
	Query    string   `yaml:"query" json:"query"`
	TitleAny []string `yaml:"title_any" json:"title_any"`
	// StrictStateMatch requires the trailing location token to be a real US
	// state code; false keeps the loose two-capital-letters test.
	StrictStateMatch bool `yaml:"strict_state_match" json:"strict_state_match"`
}

type AtlassianSource struct {
	Enabled     bool     `yaml:"enabled" json:"enabled"`
	URL         string   `yaml:"url" json:"url"`
	TitleAny    []string `yaml:"title_any" json:"title_any"`
	CategoryAny []string `yaml:"category_any" json:"category_any"`
	LocationAny []string `yaml:"location_any" json:"location_any"`
}

type AdzunaSource struct {
	Enabled        bool   `yaml:"enabled" json:"enabled"`
	URL            string `yaml:"url" json:"url"`
	AppID          string `yaml:"app_id" json:"app_id"`
	AppKey         string `yaml:"app_key" json:"-"` // prefer keyring / env
	What           string `yaml:"what" json:"what"`
	Company        string `yaml:"company" json:"company"`
	Where          string `yaml:"where" json:"where"`
	ResultsPerPage int    `yaml:"results_per_page" json:"results_per_page"`
}

type GarminSource struct {
	Enabled  bool     `yaml:"enabled" json:"enabled"`
	URL      string   `yaml:"url" json:"url"`
	Keywords string   `yaml:"keywords" json:"keywords"`
	TitleAny []string `yaml:"title_any" json:"title_any"`
	MaxPages int      `yaml:"max_pages" json:"max_pages"`
}

// Default mirrors config/config.yml and is used when no file exists yet.
func Default() Config {
	var cfg Config
	cfg.App.Port = 38471
	cfg.App.DataDir = "."
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	cfg.Polling.IntervalMinutes = 60
	cfg.Polling.RunOnStart = true
	cfg.Store.Driver = "sqlite"
	cfg.Store.SQLitePath = "jobwatch.db"
	cfg.Store.FileDir = "postings"
	cfg.Store.Postgres.MaxConns = 4
	cfg.HTTP.TimeoutSeconds = 20
	cfg.HTTP.UserAgent = "jobwatch/1.0 (+local)"
	cfg.HTTP.RequestsPerSecond = 1
	cfg.HTTP.Burst = 2

	cfg.Sources.Amazon = AmazonSource{
		Enabled:          true,
		URL:              "https://amazon.jobs/en/search.json",
		Query:            "Software Development Engineer",
		TitleAny:         []string{"Software Development Engineer"},
		StrictStateMatch: true,
	}
	cfg.Sources.Atlassian = AtlassianSource{
		Enabled:     true,
		URL:         "https://www.atlassian.com/endpoint/careers/listings",
		TitleAny:    []string{"software engineer", "developer"},
		CategoryAny: []string{"engineering"},
		LocationAny: []string{"united states", "remote", "usa"},
	}
	cfg.Sources.Microsoft = AdzunaSource{
		Enabled:        true,
		URL:            "https://api.adzuna.com/v1/api/jobs/us/search/1",
		What:           "software engineer",
		Company:        "microsoft",
		Where:          "united states",
		ResultsPerPage: 100,
	}
	cfg.Sources.Garmin = GarminSource{
		Enabled:  true,
		URL:      "https://careers.garmin.com/api/jobs",
		Keywords: "Software Engineer",
		TitleAny: []string{"software engineer 1", "software engineer 2"},
		MaxPages: MaxPagesCeiling,
	}
	return cfg
}

// Load reads path on top of Default so missing keys keep their defaults,
// then applies the environment overrides.
func Load(path string) (Config, error) {
	cfg, err := LoadFile(path)
	if err != nil {
		return cfg, err
	}
	OverlayEnv(&cfg)
	return cfg, nil
}

// LoadFile is Load without the environment overlay: exactly what is on disk.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
