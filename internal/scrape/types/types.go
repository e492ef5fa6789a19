package types

import (
	"net/url"
)

// Listing is one raw vendor record, flattened to the fields the filters and
// identity extractors need. Fields a vendor does not provide stay empty.
type Listing struct {
	NativeID  string // vendor id as sent (number or string), before identity rules
	Title     string
	Category  string
	Locations []string
	Path      string // amazon job_path
	Slug      string
	ReqID     string
	URL       string // apply/redirect url when the vendor gives one
}

// Page is one decoded vendor response.
type Page struct {
	Listings []Listing
	Total    int // vendor-reported total, 0 when unknown
}

type Endpoint struct {
	URL     string
	Query   url.Values
	Headers map[string]string
}

// Pagination drives a 1-based page counter through Param.
type Pagination struct {
	Param    string
	Start    int
	MaxPages int
}

type Source struct {
	Name       string
	Endpoint   Endpoint
	Pagination *Pagination // nil for single-request vendors

	Decode   func(body []byte) (Page, error)
	Relevant func(Listing) bool
	Identity func(Listing) string
	// Normalize returns the raw title, link and location; the pipeline
	// cleans the title and applies defaults.
	Normalize func(Listing) (title, link, location string)

	// DedupNativeID drops later listings whose NativeID was already seen in
	// the same batch.
	DedupNativeID bool
}

type FetchResult struct {
	Listings []Listing
	Pages    int
	Total    int
}
