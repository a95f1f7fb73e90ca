package compare

import (
	"fmt"
	"sort"
	"strings"

	"github.com/astralhq/astral/internal/model"
	"github.com/astralhq/astral/internal/utils"
)

// Extractor projects one comparable field out of a report as a normalized
// string.
type Extractor func(r *model.GeneratedReport) string

// fieldWeights maps field ids to their contribution weights.
// These are heuristic and can be tuned over time.
var fieldWeights = map[string]float64{
	"report_type":         0.15,
	"birth_data":          0.25,
	"planetary_positions": 0.2,
	"houses":              0.1,
	"aspects":             0.1,
	"content":             0.1,
	"summary":             0.1,
}

// extractors is the closed registry of comparable fields. Settings naming a
// field outside this registry are rejected at comparison time rather than
// silently yielding empty values.
var extractors = map[string]Extractor{
	"report_type": func(r *model.GeneratedReport) string {
		return normalize(string(r.Kind))
	},
	"birth_data": func(r *model.GeneratedReport) string {
		parts := []string{serializeSubject(r.Subject)}
		if r.Partner != nil {
			parts = append(parts, serializeSubject(*r.Partner))
		}
		return normalize(strings.Join(parts, " & "))
	},
	"planetary_positions": func(r *model.GeneratedReport) string {
		if r.Chart == nil {
			return ""
		}
		parts := make([]string, 0, len(r.Chart.Planets))
		for _, p := range r.Chart.Planets {
			parts = append(parts, fmt.Sprintf("%s %s %.2f h%d", p.Name, p.Sign, p.Degree, p.House))
		}
		return normalize(strings.Join(parts, "; "))
	},
	"houses": func(r *model.GeneratedReport) string {
		if r.Chart == nil {
			return ""
		}
		parts := make([]string, 0, len(r.Chart.Houses))
		for _, h := range r.Chart.Houses {
			parts = append(parts, fmt.Sprintf("%d %s %.2f", h.House, h.Sign, h.Degree))
		}
		return normalize(strings.Join(parts, "; "))
	},
	"aspects": func(r *model.GeneratedReport) string {
		if r.Chart == nil {
			return ""
		}
		parts := make([]string, 0, len(r.Chart.Aspects))
		for _, a := range r.Chart.Aspects {
			parts = append(parts, fmt.Sprintf("%s %s %s", a.Planet1, a.Aspect, a.Planet2))
		}
		sort.Strings(parts)
		return normalize(strings.Join(parts, "; "))
	},
	"content": func(r *model.GeneratedReport) string {
		return normalize(utils.HTMLToText(r.Output.HTML))
	},
	"summary": func(r *model.GeneratedReport) string {
		return normalize(r.Summary)
	},
}

func normalize(s string) string {
	return utils.NormalizeWhitespace(strings.TrimSpace(s))
}

func serializeSubject(s model.BirthSubject) string {
	return fmt.Sprintf("%s %s %.6f,%.6f %s",
		s.Date, s.Time, s.Location.Latitude, s.Location.Longitude, s.Location.Timezone)
}

// SignificanceForField returns a coarse significance tier for a detected
// difference on a field.
func SignificanceForField(id string) string {
	switch id {
	case "birth_data", "report_type":
		return model.SignificanceHigh
	case "planetary_positions":
		return model.SignificanceMedium
	default:
		return model.SignificanceLow
	}
}

// LabelForField returns a short human-readable category label for a field.
func LabelForField(id string) string {
	switch id {
	case "report_type":
		return "Report type"
	case "birth_data":
		return "Birth data"
	case "planetary_positions":
		return "Planetary positions"
	case "houses":
		return "House cusps"
	case "aspects":
		return "Aspects"
	case "content":
		return "Rendered content"
	case "summary":
		return "Summary"
	default:
		// Fallback: just echo the field id
		return id
	}
}

// DefaultSettings enables every registered field with its standard weight.
func DefaultSettings() model.ComparisonSettings {
	ids := make([]string, 0, len(extractors))
	for id := range extractors {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	fields := make([]model.CompareField, 0, len(ids))
	for _, id := range ids {
		fields = append(fields, model.CompareField{
			ID:          id,
			Weight:      fieldWeights[id],
			Enabled:     true,
			DisplayName: LabelForField(id),
		})
	}
	return model.ComparisonSettings{
		HighlightDifferences: true,
		ShowSimilarities:     true,
		CompareFields:        fields,
		ColorScheme:          "classic",
	}
}
