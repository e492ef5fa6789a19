package scrape

import (
	"fmt"

	"jobwatch-engine/internal/config"
	"jobwatch-engine/internal/scrape/adzuna"
	"jobwatch-engine/internal/scrape/amazon"
	"jobwatch-engine/internal/scrape/atlassian"
	"jobwatch-engine/internal/scrape/garmin"
	"jobwatch-engine/internal/scrape/types"
	"jobwatch-engine/internal/secrets"
)

const MicrosoftSource = "microsoft"

// SourceNames lists every built-in source in a stable order.
func SourceNames() []string {
	return []string{amazon.Name, atlassian.Name, MicrosoftSource, garmin.Name}
}

func Known(name string) bool {
	for _, n := range SourceNames() {
		if n == name {
			return true
		}
	}
	return false
}

func Enabled(cfg config.Config, name string) bool {
	switch name {
	case amazon.Name:
		return cfg.Sources.Amazon.Enabled
	case atlassian.Name:
		return cfg.Sources.Atlassian.Enabled
	case MicrosoftSource:
		return cfg.Sources.Microsoft.Enabled
	case garmin.Name:
		return cfg.Sources.Garmin.Enabled
	}
	return false
}

// EnabledNames returns the enabled subset of SourceNames.
func EnabledNames(cfg config.Config) []string {
	var out []string
	for _, n := range SourceNames() {
		if Enabled(cfg, n) {
			out = append(out, n)
		}
	}
	return out
}

// Build returns the Source for name, resolving Adzuna credentials from the
// keyring when config and env left them empty.
func Build(cfg config.Config, name string) (types.Source, error) {
	switch name {
	case amazon.Name:
		return amazon.New(cfg.Sources.Amazon), nil
	case atlassian.Name:
		return atlassian.New(cfg.Sources.Atlassian), nil
	case MicrosoftSource:
		az, err := secrets.ResolveAdzuna(cfg.Sources.Microsoft)
		if err != nil {
			return types.Source{}, fmt.Errorf("%s: %w", name, err)
		}
		return adzuna.New(MicrosoftSource, az), nil
	case garmin.Name:
		return garmin.New(cfg.Sources.Garmin), nil
	}
	return types.Source{}, fmt.Errorf("unknown source %q", name)
}
