// Package garmin walks the paginated Garmin careers search.
package garmin

import (
	"encoding/json"
	"net/url"
	"strings"

	"jobwatch-engine/internal/config"
	"jobwatch-engine/internal/scrape/types"
	"jobwatch-engine/internal/scrape/util"
)

const Name = "garmin"

type searchResponse struct {
	Jobs []struct {
		Data struct {
			ReqID     util.FlexString `json:"req_id"`
			Title     string          `json:"title"`
			Slug      string          `json:"slug"`
			Locations []string        `json:"locations"`
		} `json:"data"`
	} `json:"jobs"`
	TotalCount int `json:"totalCount"`
}

func New(cfg config.GarminSource) types.Source {
	q := url.Values{}
	q.Set("keywords", cfg.Keywords)
	q.Set("sortBy", "relevance")

	jobsBase := util.JoinPath(util.Origin(cfg.URL), "/careers/jobs")
	titles := cfg.TitleAny

	return types.Source{
		Name:       Name,
		Endpoint:   types.Endpoint{URL: cfg.URL, Query: q},
		Pagination: &types.Pagination{Param: "page", Start: 1, MaxPages: cfg.MaxPages},
		Decode:     decode,
		Relevant: func(l types.Listing) bool {
			return util.ContainsAny(strings.ToLower(l.Title), titles)
		},
		Identity: Identity,
		Normalize: func(l types.Listing) (string, string, string) {
			slug := l.Slug
			if slug == "" {
				slug = l.ReqID
			}
			loc := ""
			if len(l.Locations) > 0 {
				loc = l.Locations[0]
			}
			return l.Title, util.JoinPath(jobsBase, url.PathEscape(slug)), loc
		},
	}
}

// Identity is the requisition id, or the slug for listings without one.
func Identity(l types.Listing) string {
	if l.ReqID != "" {
		return l.ReqID
	}
	return l.Slug
}

func decode(body []byte) (types.Page, error) {
	var r searchResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return types.Page{}, err
	}
	pg := types.Page{Total: r.TotalCount}
	for _, j := range r.Jobs {
		d := j.Data
		pg.Listings = append(pg.Listings, types.Listing{
			NativeID:  string(d.ReqID),
			Title:     d.Title,
			Slug:      strings.TrimSpace(d.Slug),
			ReqID:     string(d.ReqID),
			Locations: d.Locations,
		})
	}
	return pg, nil
}
