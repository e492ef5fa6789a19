package amazon

import (
	"testing"

	"jobwatch-engine/internal/config"
	"jobwatch-engine/internal/scrape/types"
)

func listing(title, loc string) types.Listing {
	l := types.Listing{Title: title, Path: "/en/jobs/1"}
	if loc != "" {
		l.Locations = []string{loc}
	}
	return l
}

func TestRelevant(t *testing.T) {
	titles := config.Default().Sources.Amazon.TitleAny
	tests := []struct {
		name   string
		l      types.Listing
		strict bool
		want   bool
	}{
		{"senior sde seattle", listing("Senior Software Development Engineer", "Seattle, WA, USA"), true, true},
		{"sde london", listing("Software Development Engineer", "London, UK"), true, false},
		{"warehouse", listing("Warehouse Associate", "Seattle, WA, USA"), true, false},
		{"warehouse loose", listing("Warehouse Associate", "Seattle, WA, USA"), false, false},
		{"lower case title", listing("software development engineer", "Austin, TX, USA"), true, false},
		{"united states", listing("Software Development Engineer II", "Remote, United States"), true, true},
		{"state only", listing("Software Development Engineer", "Boston, MA"), true, true},
		{"no location", listing("Software Development Engineer", ""), true, false},
		{"loose admits uk", listing("Software Development Engineer", "London, UK"), false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Relevant(tt.l, titles, tt.strict); got != tt.want {
				t.Errorf("Relevant = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSourceDecodeAndNormalize(t *testing.T) {
	cfg := config.Default().Sources.Amazon
	src := New(cfg)

	if got := src.Endpoint.Query.Get("base_query"); got != "Software Development Engineer" {
		t.Errorf("base_query = %q", got)
	}
	if src.Pagination != nil {
		t.Error("amazon is a single-request source")
	}

	body := []byte(`{"hits": 2, "jobs": [
		{"title": "Software Development Engineer", "normalized_location": "Seattle, WA, USA", "job_path": "/en/jobs/2810001/software-development-engineer"},
		{"title": "", "normalized_location": "", "job_path": "/en/jobs/2810002/x"}
	]}`)
	pg, err := src.Decode(body)
	if err != nil {
		t.Fatal(err)
	}
	if len(pg.Listings) != 2 || pg.Total != 2 {
		t.Fatalf("listings=%d total=%d", len(pg.Listings), pg.Total)
	}

	l := pg.Listings[0]
	if id := src.Identity(l); id != "/en/jobs/2810001/software-development-engineer" {
		t.Errorf("identity = %q", id)
	}
	title, link, loc := src.Normalize(l)
	if title != "Software Development Engineer" || loc != "Seattle, WA, USA" {
		t.Errorf("title=%q loc=%q", title, loc)
	}
	if link != "https://amazon.jobs/en/jobs/2810001/software-development-engineer" {
		t.Errorf("link = %q", link)
	}
	if len(pg.Listings[1].Locations) != 0 {
		t.Error("empty location should be absent")
	}

	if _, err := src.Decode([]byte(`<html>`)); err == nil {
		t.Error("expected decode error for non-JSON body")
	}
}
