// Package amazon decodes the amazon.jobs search feed.
package amazon

import (
	"encoding/json"
	"net/url"
	"strings"

	"jobwatch-engine/internal/config"
	"jobwatch-engine/internal/scrape/types"
	"jobwatch-engine/internal/scrape/util"
)

const Name = "amazon"

type searchResponse struct {
	Jobs []struct {
		Title              string `json:"title"`
		NormalizedLocation string `json:"normalized_location"`
		JobPath            string `json:"job_path"`
	} `json:"jobs"`
	Hits int `json:"hits"`
}

func New(cfg config.AmazonSource) types.Source {
	q := url.Values{}
	q.Set("offset", "0")
	q.Set("result_limit", "100")
	q.Set("sort", "recent")
	q.Set("category[]", "software-development")
	q.Set("job_type[]", "Full-Time")
	q.Set("country[]", "USA")
	q.Set("distanceType", "Mi")
	q.Set("radius", "24km")
	q.Set("base_query", cfg.Query)

	origin := util.Origin(cfg.URL)
	titles := cfg.TitleAny
	strict := cfg.StrictStateMatch

	return types.Source{
		Name:     Name,
		Endpoint: types.Endpoint{URL: cfg.URL, Query: q},
		Decode:   decode,
		Relevant: func(l types.Listing) bool {
			return Relevant(l, titles, strict)
		},
		Identity: func(l types.Listing) string { return l.Path },
		Normalize: func(l types.Listing) (string, string, string) {
			loc := ""
			if len(l.Locations) > 0 {
				loc = l.Locations[0]
			}
			return l.Title, util.JoinPath(origin, l.Path), loc
		},
	}
}

func decode(body []byte) (types.Page, error) {
	var r searchResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return types.Page{}, err
	}
	pg := types.Page{Total: r.Hits}
	for _, j := range r.Jobs {
		l := types.Listing{
			NativeID: j.JobPath,
			Title:    j.Title,
			Path:     strings.TrimSpace(j.JobPath),
		}
		if loc := strings.TrimSpace(j.NormalizedLocation); loc != "" {
			l.Locations = []string{loc}
		}
		pg.Listings = append(pg.Listings, l)
	}
	return pg, nil
}

// Relevant requires a case-sensitive title match and a US location.
func Relevant(l types.Listing, titleAny []string, strictState bool) bool {
	if !util.ContainsAny(l.Title, titleAny) {
		return false
	}
	loc := ""
	if len(l.Locations) > 0 {
		loc = l.Locations[0]
	}
	return util.IsUSLocation(loc, strictState)
}
