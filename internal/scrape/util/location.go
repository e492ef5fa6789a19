package util

import (
	"regexp"
	"strings"
)

var twoCaps = regexp.MustCompile(`\b[A-Z]{2}\b`)

var usStates = map[string]bool{
	"AL": true, "AK": true, "AZ": true, "AR": true, "CA": true, "CO": true, "CT": true,
	"DE": true, "FL": true, "GA": true, "HI": true, "ID": true, "IL": true, "IN": true,
	"IA": true, "KS": true, "KY": true, "LA": true, "ME": true, "MD": true, "MA": true,
	"MI": true, "MN": true, "MS": true, "MO": true, "MT": true, "NE": true, "NV": true,
	"NH": true, "NJ": true, "NM": true, "NY": true, "NC": true, "ND": true, "OH": true,
	"OK": true, "OR": true, "PA": true, "RI": true, "SC": true, "SD": true, "TN": true,
	"TX": true, "UT": true, "VT": true, "VA": true, "WA": true, "WV": true, "WI": true,
	"WY": true, "DC": true, "PR": true, "GU": true, "VI": true, "AS": true, "MP": true,
}

// LastSegment returns the trimmed text after the final comma.
func LastSegment(loc string) string {
	if i := strings.LastIndex(loc, ","); i >= 0 {
		return strings.TrimSpace(loc[i+1:])
	}
	return strings.TrimSpace(loc)
}

// HasStateToken reports whether the trailing comma segment of loc carries a
// two-letter uppercase token. With strict set, the token must be a US state
// or territory code, so "London, UK" no longer passes.
func HasStateToken(loc string, strict bool) bool {
	seg := LastSegment(loc)
	if !strict {
		return twoCaps.MatchString(seg)
	}
	for _, tok := range twoCaps.FindAllString(seg, -1) {
		if usStates[tok] {
			return true
		}
	}
	return false
}

// IsUSLocation is the free-text US test used for "City, ST" style locations.
func IsUSLocation(loc string, strict bool) bool {
	if strings.Contains(loc, ", US") || strings.Contains(loc, "United States") {
		return true
	}
	return HasStateToken(loc, strict)
}
