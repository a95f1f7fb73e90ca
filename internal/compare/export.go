package compare

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/astralhq/astral/internal/model"
)

// ExportFormat selects a presentation of a ComparisonResult. All three are
// projections over the same result, not separate computations.
type ExportFormat string

const (
	FormatJSON ExportFormat = "json"
	FormatCSV  ExportFormat = "csv"
	FormatText ExportFormat = "text"
)

// exportDocument is the structured JSON projection.
type exportDocument struct {
	GeneratedAt time.Time                `json:"generated_at"`
	Settings    model.ComparisonSettings `json:"settings"`
	Result      *model.ComparisonResult  `json:"result"`
}

// Export serializes a comparison result in the requested format.
func Export(result *model.ComparisonResult, settings model.ComparisonSettings, format ExportFormat) ([]byte, error) {
	switch format {
	case FormatJSON:
		return exportJSON(result, settings)
	case FormatCSV:
		return exportCSV(result)
	case FormatText:
		return exportText(result, settings), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

func exportJSON(result *model.ComparisonResult, settings model.ComparisonSettings) ([]byte, error) {
	doc := exportDocument{
		GeneratedAt: time.Now().UTC(),
		Settings:    settings,
		Result:      result,
	}
	return json.MarshalIndent(doc, "", "  ")
}

// exportCSV writes one row per field: field, similarity, matches, differences.
func exportCSV(result *model.ComparisonResult) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"field", "similarity", "matches", "differences"}); err != nil {
		return nil, err
	}
	for _, fc := range result.Fields {
		record := []string{
			fc.Field,
			strconv.FormatFloat(fc.Similarity, 'f', 4, 64),
			strconv.Itoa(fc.MatchCount),
			strconv.Itoa(fc.DifferenceCount),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func exportText(result *model.ComparisonResult, settings model.ComparisonSettings) []byte {
	var b strings.Builder

	b.WriteString("Report Comparison\n")
	b.WriteString("=================\n\n")
	fmt.Fprintf(&b, "Reports compared: %d\n", len(result.ReportIDs))
	fmt.Fprintf(&b, "Overall similarity: %.1f%%\n\n", result.OverallSimilarity*100)

	b.WriteString("Fields\n------\n")
	for _, fc := range result.Fields {
		fmt.Fprintf(&b, "  %-22s similarity %.2f  (%d matching, %d differing pairs)\n",
			LabelForField(fc.Field), fc.Similarity, fc.MatchCount, fc.DifferenceCount)
	}

	if settings.ShowSimilarities && len(result.Matches) > 0 {
		b.WriteString("\nShared values\n-------------\n")
		for _, m := range result.Matches {
			fmt.Fprintf(&b, "  %s: %q (confidence %.0f%%, %d reports)\n",
				LabelForField(m.Field), truncateValue(m.Value), m.Confidence*100, len(m.ReportIDs))
		}
	}

	if settings.HighlightDifferences && len(result.Differences) > 0 {
		b.WriteString("\nDivergent fields\n----------------\n")
		for _, d := range result.Differences {
			fmt.Fprintf(&b, "  %s [%s significance]\n", d.Category, d.Significance)
			ids := make([]string, 0, len(d.Values))
			for id := range d.Values {
				ids = append(ids, id)
			}
			// Stable output for identical inputs.
			sort.Strings(ids)
			for _, id := range ids {
				fmt.Fprintf(&b, "    %s: %q\n", shortID(id), truncateValue(d.Values[id]))
			}
		}
	}

	return []byte(b.String())
}

func truncateValue(s string) string {
	const limit = 60
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + "..."
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
