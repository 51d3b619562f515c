package feed

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// flattenHTML turns a CDATA description (often HTML) into a single line of
// plain text with collapsed whitespace.
func flattenHTML(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if !strings.Contains(s, "<") {
		return normalizeWhitespace(s)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return normalizeWhitespace(s)
	}
	return normalizeWhitespace(doc.Text())
}

// normalizeWhitespace collapses runs of whitespace into single spaces.
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
