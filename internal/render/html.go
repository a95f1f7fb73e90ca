// Package render turns composed report content into deliverable artifacts:
// an HTML document (always) and optionally a PDF via headless Chrome.
package render

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/astralhq/astral/internal/model"
)

// themePalettes maps a visual theme to its accent and background colors.
// Unknown themes fall back to classic.
var themePalettes = map[string][2]string{
	"classic":  {"#1a1a2e", "#f5f0e8"},
	"midnight": {"#e0d7ff", "#0d0d1f"},
	"solar":    {"#7a3b00", "#fff8ec"},
}

// HTMLRenderer builds the self-contained HTML document for a report.
type HTMLRenderer struct{}

// NewHTML creates an HTMLRenderer.
func NewHTML() *HTMLRenderer {
	return &HTMLRenderer{}
}

// Render produces the full HTML document. Section keys are emitted in sorted
// order so output is deterministic for identical content.
func (r *HTMLRenderer) Render(report *model.GeneratedReport) string {
	theme := report.Metadata.Config.Theme
	palette, ok := themePalettes[theme]
	if !ok {
		theme = "classic"
		palette = themePalettes[theme]
	}

	var b strings.Builder
	title := fmt.Sprintf("%s report for %s", report.Kind, report.Subject.Label())
	if report.Partner != nil {
		title = fmt.Sprintf("%s report for %s and %s", report.Kind, report.Subject.Label(), report.Partner.Label())
	}

	fmt.Fprintf(&b, `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: Georgia, serif; color: %s; background: %s; margin: 2em; }
h1 { border-bottom: 2px solid currentColor; padding-bottom: .3em; }
section { margin: 1.5em 0; }
pre { white-space: pre-wrap; font-family: inherit; }
</style>
</head>
<body class="theme-%s">
<h1>%s</h1>
<p class="summary">%s</p>
`, html.EscapeString(title), palette[0], palette[1], html.EscapeString(theme),
		html.EscapeString(title), html.EscapeString(report.Summary))

	if report.Metadata.Config.IncludeCharts && report.Chart != nil {
		b.WriteString(chartTable(report.Chart))
	}

	names := make([]string, 0, len(report.Sections))
	for name := range report.Sections {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, "<section id=%q>\n<h2>%s</h2>\n<pre>%s</pre>\n</section>\n",
			name, html.EscapeString(sectionTitle(name)), html.EscapeString(report.Sections[name]))
	}

	fmt.Fprintf(&b, "<footer>Generated %s</footer>\n</body>\n</html>\n",
		report.Metadata.GeneratedAt.UTC().Format("2006-01-02 15:04 UTC"))
	return b.String()
}

func chartTable(chart *model.ChartData) string {
	var b strings.Builder
	b.WriteString("<section id=\"chart\">\n<h2>Chart</h2>\n<table>\n<tr><th>Body</th><th>Sign</th><th>Degree</th><th>House</th></tr>\n")
	for _, p := range chart.Planets {
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%s</td><td>%.2f</td><td>%d</td></tr>\n",
			html.EscapeString(p.Name), html.EscapeString(p.Sign), p.Degree, p.House)
	}
	b.WriteString("</table>\n</section>\n")
	return b.String()
}

func sectionTitle(name string) string {
	words := strings.Split(strings.ReplaceAll(name, "_", " "), " ")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
