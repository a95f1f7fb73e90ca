package compare_test

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/astralhq/astral/internal/compare"
	"github.com/astralhq/astral/internal/model"
)

func sampleResult() *model.ComparisonResult {
	return &model.ComparisonResult{
		ReportIDs: []string{"fp-a", "fp-b"},
		Matches: []model.ComparisonMatch{
			{Field: "report_type", Value: "western", Confidence: 1.0, ReportIDs: []string{"fp-a", "fp-b"}},
		},
		Differences: []model.ComparisonDifference{
			{
				Field:        "summary",
				Values:       map[string]string{"fp-a": "one reading", "fp-b": "another reading"},
				Significance: model.SignificanceLow,
				Category:     "Summary",
			},
		},
		Fields: []model.FieldComparison{
			{Field: "report_type", Similarity: 1.0, MatchCount: 1},
			{Field: "summary", Similarity: 0.0, DifferenceCount: 1},
		},
		OverallSimilarity: 0.5,
	}
}

func TestExportJSON(t *testing.T) {
	out, err := compare.Export(sampleResult(), compare.DefaultSettings(), compare.FormatJSON)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	var doc struct {
		Result *model.ComparisonResult `json:"result"`
	}
	if err := json.Unmarshal(out, &doc); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if doc.Result == nil || doc.Result.OverallSimilarity != 0.5 {
		t.Fatalf("result not embedded: %+v", doc.Result)
	}
	if len(doc.Result.Fields) != 2 {
		t.Fatalf("fields = %+v", doc.Result.Fields)
	}
}

func TestExportCSV(t *testing.T) {
	out, err := compare.Export(sampleResult(), compare.DefaultSettings(), compare.FormatCSV)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("rows = %d, want header plus 2 fields", len(records))
	}
	if records[0][0] != "field" || records[0][1] != "similarity" {
		t.Fatalf("header = %v", records[0])
	}
	if records[1][0] != "report_type" || records[1][1] != "1.0000" {
		t.Fatalf("row = %v", records[1])
	}
	if records[2][0] != "summary" || records[2][3] != "1" {
		t.Fatalf("row = %v", records[2])
	}
}

func TestExportText(t *testing.T) {
	out, err := compare.Export(sampleResult(), compare.DefaultSettings(), compare.FormatText)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	text := string(out)

	for _, want := range []string{
		"Report Comparison",
		"Overall similarity: 50.0%",
		"Report type",
		"Shared values",
		"Divergent fields",
		"low significance",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("text export missing %q:\n%s", want, text)
		}
	}
}

func TestExportTextHonorsPresentationFlags(t *testing.T) {
	settings := compare.DefaultSettings()
	settings.ShowSimilarities = false
	settings.HighlightDifferences = false

	out, err := compare.Export(sampleResult(), settings, compare.FormatText)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	text := string(out)
	if strings.Contains(text, "Shared values") || strings.Contains(text, "Divergent fields") {
		t.Fatalf("disabled sections still rendered:\n%s", text)
	}
}

func TestExportTextTruncatesOnRuneBoundary(t *testing.T) {
	result := sampleResult()
	long := strings.Repeat("水瓶座", 30)
	result.Differences[0].Values["fp-a"] = long

	out, err := compare.Export(result, compare.DefaultSettings(), compare.FormatText)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if !utf8.Valid(out) {
		t.Fatal("text export contains a split multi-byte rune")
	}
	if !strings.Contains(string(out), strings.Repeat("水瓶座", 20)+"...") {
		t.Fatalf("long value not truncated at 60 runes:\n%s", out)
	}
}

func TestExportUnknownFormat(t *testing.T) {
	if _, err := compare.Export(sampleResult(), compare.DefaultSettings(), "xml"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
