// Package adzuna queries the Adzuna search API. The "microsoft" source is
// an Adzuna query scoped by company, so relevance is decided server-side.
package adzuna

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"jobwatch-engine/internal/config"
	"jobwatch-engine/internal/scrape/types"
	"jobwatch-engine/internal/scrape/util"
)

const defaultLocation = "United States"

type searchResponse struct {
	Count   int `json:"count"`
	Results []struct {
		ID          util.FlexString `json:"id"`
		Title       string          `json:"title"`
		RedirectURL string          `json:"redirect_url"`
		Location    struct {
			DisplayName string   `json:"display_name"`
			Area        []string `json:"area"`
		} `json:"location"`
	} `json:"results"`
}

// New builds the source named name. cfg.AppKey must already be resolved.
func New(name string, cfg config.AdzunaSource) types.Source {
	q := url.Values{}
	q.Set("app_id", cfg.AppID)
	q.Set("app_key", cfg.AppKey)
	q.Set("results_per_page", strconv.Itoa(cfg.ResultsPerPage))
	q.Set("what", cfg.What)
	if cfg.Company != "" {
		q.Set("company", cfg.Company)
	}
	if cfg.Where != "" {
		q.Set("where", cfg.Where)
	}
	q.Set("sort_by", "date")

	return types.Source{
		Name:     name,
		Endpoint: types.Endpoint{URL: cfg.URL, Query: q},
		Decode:   decode,
		Identity: func(l types.Listing) string { return l.NativeID },
		Normalize: func(l types.Listing) (string, string, string) {
			loc := defaultLocation
			if len(l.Locations) > 0 {
				loc = l.Locations[0]
			}
			return l.Title, l.URL, loc
		},
	}
}

func decode(body []byte) (types.Page, error) {
	var r searchResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return types.Page{}, err
	}
	pg := types.Page{Total: r.Count}
	for _, j := range r.Results {
		loc := strings.TrimSpace(j.Location.DisplayName)
		if loc == "" {
			loc = strings.Join(j.Location.Area, ", ")
		}
		if loc == "" {
			loc = defaultLocation
		}
		pg.Listings = append(pg.Listings, types.Listing{
			NativeID:  string(j.ID),
			Title:     j.Title,
			Locations: []string{loc},
			URL:       strings.TrimSpace(j.RedirectURL),
		})
	}
	return pg, nil
}
