package model

// CompareField is one weighted, comparable field in the comparison settings.
type CompareField struct {
	ID          string  `json:"id"`
	Weight      float64 `json:"weight"`
	Enabled     bool    `json:"enabled"`
	DisplayName string  `json:"display_name,omitempty"`
}

// ComparisonSettings control which fields are compared and how results are
// presented.
type ComparisonSettings struct {
	HighlightDifferences bool           `json:"highlight_differences"`
	ShowSimilarities     bool           `json:"show_similarities"`
	CompareFields        []CompareField `json:"compare_fields"`
	ScrollSync           bool           `json:"scroll_sync"`
	ColorScheme          string         `json:"color_scheme,omitempty"`
}

// Significance tiers for detected differences.
const (
	SignificanceHigh   = "high"
	SignificanceMedium = "medium"
	SignificanceLow    = "low"
)

// ComparisonMatch is a shared normalized value across two or more reports.
type ComparisonMatch struct {
	Field      string   `json:"field"`
	Value      string   `json:"value"`
	Confidence float64  `json:"confidence"`
	ReportIDs  []string `json:"report_ids"`
}

// ComparisonDifference is a field for which every compared report holds a
// distinct value.
type ComparisonDifference struct {
	Field string `json:"field"`
	// Values maps report fingerprint to that report's normalized value.
	Values       map[string]string `json:"values"`
	Significance string            `json:"significance"`
	Category     string            `json:"category"`
}

// FieldComparison summarizes one field across all compared pairs.
// Similarity is the high-confidence match rate (matches / pairs), not the
// mean raw edit-distance similarity.
type FieldComparison struct {
	Field           string  `json:"field"`
	Similarity      float64 `json:"similarity"`
	MatchCount      int     `json:"match_count"`
	DifferenceCount int     `json:"difference_count"`
}

// ComparisonResult is derived, never authoritative: it is always recomputable
// from the compared reports and settings.
type ComparisonResult struct {
	ReportIDs         []string               `json:"report_ids"`
	Matches           []ComparisonMatch      `json:"matches"`
	Differences       []ComparisonDifference `json:"differences"`
	Fields            []FieldComparison      `json:"fields"`
	OverallSimilarity float64                `json:"overall_similarity"`
}
