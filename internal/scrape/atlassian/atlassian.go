// Package atlassian decodes the Atlassian careers listings endpoint, which
// returns every open role in one JSON array.
package atlassian

import (
	"encoding/json"
	"strings"

	"jobwatch-engine/internal/config"
	"jobwatch-engine/internal/scrape/types"
	"jobwatch-engine/internal/scrape/util"
)

const Name = "atlassian"

type listing struct {
	ID        util.FlexString `json:"id"`
	Title     string          `json:"title"`
	Locations []string        `json:"locations"`
	Category  string          `json:"category"`
	ApplyURL  string          `json:"applyUrl"`
}

// Rules holds the lower-cased allow-lists.
type Rules struct {
	TitleAny    []string
	CategoryAny []string
	LocationAny []string
}

func New(cfg config.AtlassianSource) types.Source {
	rules := Rules{TitleAny: cfg.TitleAny, CategoryAny: cfg.CategoryAny, LocationAny: cfg.LocationAny}
	return types.Source{
		Name:          Name,
		Endpoint:      types.Endpoint{URL: cfg.URL},
		Decode:        decode,
		Relevant:      func(l types.Listing) bool { return Relevant(l, rules) },
		Identity:      func(l types.Listing) string { return l.NativeID },
		Normalize:     normalize,
		DedupNativeID: true,
	}
}

func decode(body []byte) (types.Page, error) {
	var rows []listing
	if err := json.Unmarshal(body, &rows); err != nil {
		return types.Page{}, err
	}
	pg := types.Page{Total: len(rows)}
	for _, r := range rows {
		pg.Listings = append(pg.Listings, types.Listing{
			NativeID:  string(r.ID),
			Title:     r.Title,
			Category:  r.Category,
			Locations: r.Locations,
			URL:       strings.TrimSpace(r.ApplyURL),
		})
	}
	return pg, nil
}

// Relevant: (title or category match) and a US or remote location.
func Relevant(l types.Listing, r Rules) bool {
	title := strings.ToLower(l.Title)
	category := strings.ToLower(l.Category)
	if !util.ContainsAny(title, r.TitleAny) && !util.ContainsAny(category, r.CategoryAny) {
		return false
	}
	for _, loc := range l.Locations {
		ll := strings.ToLower(strings.TrimSpace(loc))
		if ll == "us" || util.ContainsAny(ll, r.LocationAny) {
			return true
		}
	}
	return false
}

// normalize prefers a location naming the United States or Remote.
func normalize(l types.Listing) (string, string, string) {
	loc := ""
	for _, x := range l.Locations {
		if strings.Contains(x, "United States") || strings.Contains(x, "Remote") {
			loc = x
			break
		}
	}
	if loc == "" && len(l.Locations) > 0 {
		loc = l.Locations[0]
	}
	return l.Title, l.URL, loc
}
