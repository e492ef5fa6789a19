package util

import (
	"encoding/json"
	"net/url"
	"strings"
	"testing"
)

func TestIsUSLocation(t *testing.T) {
	tests := []struct {
		loc    string
		strict bool
		want   bool
	}{
		{"Seattle, WA, USA", true, true},
		{"Seattle, WA, USA", false, true},
		{"Austin, TX", true, true},
		{"Arlington, VA, US", true, true},
		{"Remote, United States", true, true},
		{"London, UK", true, false},
		{"London, UK", false, true},
		{"Toronto, ON, CAN", true, false},
		{"Berlin", false, false},
		{"", true, false},
	}
	for _, tt := range tests {
		if got := IsUSLocation(tt.loc, tt.strict); got != tt.want {
			t.Errorf("IsUSLocation(%q, strict=%v) = %v, want %v", tt.loc, tt.strict, got, tt.want)
		}
	}
}

func TestTextFromHTML(t *testing.T) {
	tests := map[string]string{
		"Software <strong>Engineer</strong> II": "Software Engineer II",
		"  Senior\u00a0 Developer \n":          "Senior Developer",
		"R&amp;D Software Engineer":             "R&D Software Engineer",
		"plain":                                 "plain",
	}
	for in, want := range tests {
		if got := TextFromHTML(in); got != want {
			t.Errorf("TextFromHTML(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestURLHelpers(t *testing.T) {
	if got := Origin("https://Amazon.jobs/en/search.json?x=1"); got != "https://amazon.jobs" {
		t.Errorf("Origin = %q", got)
	}
	if got := Origin("/relative"); got != "" {
		t.Errorf("Origin(relative) = %q", got)
	}
	if got := JoinPath("https://amazon.jobs/", "/en/jobs/123"); got != "https://amazon.jobs/en/jobs/123" {
		t.Errorf("JoinPath = %q", got)
	}
	if got := JoinPath("https://a.example", "https://b.example/x"); got != "https://b.example/x" {
		t.Errorf("JoinPath(absolute) = %q", got)
	}

	got, err := WithQuery("https://x.example/api?keep=1&page=9", url.Values{"page": {"2"}})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "keep=1") || !strings.Contains(got, "page=2") || strings.Contains(got, "page=9") {
		t.Errorf("WithQuery = %q", got)
	}
}

func TestFlexString(t *testing.T) {
	var v struct {
		A FlexString `json:"a"`
		B FlexString `json:"b"`
		C FlexString `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"a": 4830217711, "b": " 99 ", "c": null}`), &v); err != nil {
		t.Fatal(err)
	}
	if v.A != "4830217711" || v.B != "99" || v.C != "" {
		t.Errorf("got %q %q %q", v.A, v.B, v.C)
	}
	if err := json.Unmarshal([]byte(`{"a": true}`), &v); err == nil {
		t.Error("bool id should not decode")
	}
}
