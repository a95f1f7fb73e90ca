package utils

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// HTMLToText extracts the visible text of an HTML document, with scripts and
// styles removed and whitespace collapsed. Text from adjacent elements is
// joined with a space so block boundaries don't merge words together. If the
// input does not parse as HTML the raw input is normalized and returned
// instead.
func HTMLToText(src string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		return NormalizeWhitespace(src)
	}
	doc.Find("script, style").Remove()

	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range doc.Nodes {
		walk(n)
	}
	return NormalizeWhitespace(strings.Join(parts, " "))
}

// NormalizeWhitespace collapses all runs of whitespace into single spaces and
// trims the ends. Used so cosmetic formatting changes don't register as
// content changes during comparison.
func NormalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// WordCount counts whitespace-separated words in s.
func WordCount(s string) int {
	return len(strings.Fields(s))
}
