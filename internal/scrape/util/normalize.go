package util

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}

// TextFromHTML returns the visible text of s. Adzuna highlights search terms
// with <strong>, and other feeds occasionally leak entities into titles.
func TextFromHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return CleanText(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return CleanText(s)
	}
	return CleanText(doc.Text())
}

// ContainsAny reports whether s contains one of needles. Callers lower-case
// both sides when they want case-insensitive matching.
func ContainsAny(s string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(s, n) {
			return true
		}
	}
	return false
}
