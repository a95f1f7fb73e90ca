package compare_test

import (
	"errors"
	"math"
	"testing"

	"github.com/astralhq/astral/internal/compare"
	"github.com/astralhq/astral/internal/model"
)

func sampleReport(fingerprint, kind, summary, html string) *model.GeneratedReport {
	return &model.GeneratedReport{
		Fingerprint: fingerprint,
		Kind:        model.ReportKind(kind),
		Subject: model.BirthSubject{
			Date: "1990-03-15", Time: "14:20",
			Location: model.Location{Latitude: 52.52, Longitude: 13.405, Timezone: "Europe/Berlin"},
		},
		Chart: &model.ChartData{
			Planets: []model.PlanetPosition{
				{Name: "Sun", Sign: "Pisces", Degree: 24.5, House: 7},
				{Name: "Moon", Sign: "Leo", Degree: 3.1, House: 12},
			},
		},
		Summary: summary,
		Output:  model.RenderedOutput{HTML: html},
	}
}

func settingsFor(fields ...model.CompareField) model.ComparisonSettings {
	return model.ComparisonSettings{
		HighlightDifferences: true,
		ShowSimilarities:     true,
		CompareFields:        fields,
	}
}

func fieldResult(t *testing.T, result *model.ComparisonResult, field string) model.FieldComparison {
	t.Helper()
	for _, fc := range result.Fields {
		if fc.Field == field {
			return fc
		}
	}
	t.Fatalf("field %s missing from result", field)
	return model.FieldComparison{}
}

func TestCompareHousesAndAspects(t *testing.T) {
	engine := compare.New(nil)
	a := sampleReport("fp-a", "western", "s", "<p>x</p>")
	b := sampleReport("fp-b", "western", "s", "<p>x</p>")
	for _, r := range []*model.GeneratedReport{a, b} {
		r.Chart.Houses = []model.HousePosition{
			{House: 1, Sign: "Cancer", Degree: 14.2},
			{House: 2, Sign: "Leo", Degree: 10.8},
		}
		r.Chart.Aspects = []model.Aspect{
			{Planet1: "Sun", Planet2: "Moon", Aspect: "trine", Orb: 1.4},
		}
	}
	b.Chart.Aspects = []model.Aspect{
		{Planet1: "Sun", Planet2: "Moon", Aspect: "square", Orb: 0.9},
	}

	settings := settingsFor(
		model.CompareField{ID: "houses", Weight: 0.5, Enabled: true},
		model.CompareField{ID: "aspects", Weight: 0.5, Enabled: true},
	)
	result, err := engine.Compare([]*model.GeneratedReport{a, b}, settings)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}

	houses := fieldResult(t, result, "houses")
	if houses.Similarity != 1.0 {
		t.Fatalf("houses similarity = %v, want 1.0", houses.Similarity)
	}
	aspects := fieldResult(t, result, "aspects")
	if aspects.Similarity != 0.0 {
		t.Fatalf("aspects similarity = %v, want 0.0", aspects.Similarity)
	}
	if len(result.Differences) != 1 || result.Differences[0].Category != "Aspects" {
		t.Fatalf("expected one aspects difference, got %+v", result.Differences)
	}
}

func TestCompareRequiresTwoReports(t *testing.T) {
	engine := compare.New(nil)
	a := sampleReport("fp-a", "western", "summary", "<p>text</p>")

	_, err := engine.Compare([]*model.GeneratedReport{a}, compare.DefaultSettings())
	var ie *compare.InsufficientInputError
	if !errors.As(err, &ie) {
		t.Fatalf("expected InsufficientInputError, got %v", err)
	}
	if ie.Got != 1 {
		t.Fatalf("Got = %d, want 1", ie.Got)
	}
}

func TestCompareUnknownFieldFailsFast(t *testing.T) {
	engine := compare.New(nil)
	a := sampleReport("fp-a", "western", "s", "<p>x</p>")
	b := sampleReport("fp-b", "western", "s", "<p>x</p>")

	settings := settingsFor(model.CompareField{ID: "aura_color", Weight: 1, Enabled: true})
	_, err := engine.Compare([]*model.GeneratedReport{a, b}, settings)
	var ue *compare.UnknownFieldError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UnknownFieldError, got %v", err)
	}
}

func TestCompareDisabledUnknownFieldIgnored(t *testing.T) {
	engine := compare.New(nil)
	a := sampleReport("fp-a", "western", "s", "<p>x</p>")
	b := sampleReport("fp-b", "western", "s", "<p>x</p>")

	settings := settingsFor(
		model.CompareField{ID: "aura_color", Weight: 1, Enabled: false},
		model.CompareField{ID: "report_type", Weight: 1, Enabled: true},
	)
	if _, err := engine.Compare([]*model.GeneratedReport{a, b}, settings); err != nil {
		t.Fatalf("disabled fields must not be validated: %v", err)
	}
}

func TestCompareIdentity(t *testing.T) {
	engine := compare.New(nil)
	a := sampleReport("fp-a", "western", "the sun shines on pisces", "<p>long rendered body</p>")
	b := sampleReport("fp-b", "western", "the sun shines on pisces", "<p>long rendered body</p>")

	result, err := engine.Compare([]*model.GeneratedReport{a, b}, compare.DefaultSettings())
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if result.OverallSimilarity != 1.0 {
		t.Fatalf("overall = %f, want 1.0", result.OverallSimilarity)
	}
	for _, fc := range result.Fields {
		if fc.Similarity != 1.0 {
			t.Fatalf("field %s similarity = %f, want 1.0", fc.Field, fc.Similarity)
		}
	}
	if len(result.Differences) != 0 {
		t.Fatalf("identical reports produced differences: %+v", result.Differences)
	}
}

func TestCompareOrderIndependence(t *testing.T) {
	engine := compare.New(nil)
	a := sampleReport("fp-a", "western", "mercury retrograde dominates this chart", "<p>alpha body</p>")
	b := sampleReport("fp-b", "vedic", "a completely different reading entirely", "<p>beta body of text</p>")

	ab, err := engine.Compare([]*model.GeneratedReport{a, b}, compare.DefaultSettings())
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	ba, err := engine.Compare([]*model.GeneratedReport{b, a}, compare.DefaultSettings())
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}

	if len(ab.Fields) != len(ba.Fields) {
		t.Fatalf("field counts differ: %d vs %d", len(ab.Fields), len(ba.Fields))
	}
	for i := range ab.Fields {
		if ab.Fields[i].Similarity != ba.Fields[i].Similarity {
			t.Fatalf("field %s: %f vs %f", ab.Fields[i].Field, ab.Fields[i].Similarity, ba.Fields[i].Similarity)
		}
	}
	if ab.OverallSimilarity != ba.OverallSimilarity {
		t.Fatalf("overall differs: %f vs %f", ab.OverallSimilarity, ba.OverallSimilarity)
	}
}

func TestCompareMatchGrouping(t *testing.T) {
	engine := compare.New(nil)
	a := sampleReport("fp-a", "western", "s", "<p>x</p>")
	b := sampleReport("fp-b", "western", "s", "<p>x</p>")
	c := sampleReport("fp-c", "vedic", "s", "<p>x</p>")

	settings := settingsFor(model.CompareField{ID: "report_type", Weight: 1, Enabled: true})
	result, err := engine.Compare([]*model.GeneratedReport{a, b, c}, settings)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}

	if len(result.Matches) != 1 {
		t.Fatalf("matches = %+v, want exactly one", result.Matches)
	}
	m := result.Matches[0]
	if m.Value != "western" {
		t.Fatalf("match value = %q", m.Value)
	}
	if want := 2.0 / 3.0; math.Abs(m.Confidence-want) > 1e-9 {
		t.Fatalf("confidence = %f, want %f", m.Confidence, want)
	}
	if len(m.ReportIDs) != 2 {
		t.Fatalf("report ids = %v", m.ReportIDs)
	}

	// Two reports share the value, so not all values are distinct: no
	// difference entry.
	if len(result.Differences) != 0 {
		t.Fatalf("unexpected differences: %+v", result.Differences)
	}

	// 3 pairs, only (a,b) above the match threshold.
	fc := fieldResult(t, result, "report_type")
	if want := 1.0 / 3.0; math.Abs(fc.Similarity-want) > 1e-9 {
		t.Fatalf("similarity = %f, want %f", fc.Similarity, want)
	}
}

func TestCompareAllDistinctYieldsDifference(t *testing.T) {
	engine := compare.New(nil)
	a := sampleReport("fp-a", "western", "s", "<p>x</p>")
	b := sampleReport("fp-b", "vedic", "s", "<p>x</p>")
	c := sampleReport("fp-c", "chinese", "s", "<p>x</p>")

	settings := settingsFor(model.CompareField{ID: "report_type", Weight: 1, Enabled: true})
	result, err := engine.Compare([]*model.GeneratedReport{a, b, c}, settings)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}

	if len(result.Differences) != 1 {
		t.Fatalf("differences = %+v, want exactly one", result.Differences)
	}
	d := result.Differences[0]
	if d.Significance != model.SignificanceHigh {
		t.Fatalf("report_type difference significance = %s, want high", d.Significance)
	}
	if d.Category != "Report type" {
		t.Fatalf("category = %q", d.Category)
	}
	if len(d.Values) != 3 || d.Values["fp-b"] != "vedic" {
		t.Fatalf("values = %+v", d.Values)
	}
	if len(result.Matches) != 0 {
		t.Fatalf("unexpected matches: %+v", result.Matches)
	}
}

func TestCompareSignificanceTiers(t *testing.T) {
	cases := map[string]string{
		"birth_data":          model.SignificanceHigh,
		"report_type":         model.SignificanceHigh,
		"planetary_positions": model.SignificanceMedium,
		"content":             model.SignificanceLow,
		"summary":             model.SignificanceLow,
	}
	for field, want := range cases {
		if got := compare.SignificanceForField(field); got != want {
			t.Errorf("SignificanceForField(%s) = %s, want %s", field, got, want)
		}
	}
}

func TestCompareEmptyValues(t *testing.T) {
	engine := compare.New(nil)
	// Neither report has a summary: both normalized values are empty, which
	// counts as a perfect match pair.
	a := sampleReport("fp-a", "western", "", "<p>x</p>")
	b := sampleReport("fp-b", "western", "", "<p>x</p>")

	settings := settingsFor(model.CompareField{ID: "summary", Weight: 1, Enabled: true})
	result, err := engine.Compare([]*model.GeneratedReport{a, b}, settings)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if fc := fieldResult(t, result, "summary"); fc.Similarity != 1.0 {
		t.Fatalf("both-empty similarity = %f, want 1.0", fc.Similarity)
	}

	// Exactly one empty scores 0.
	c := sampleReport("fp-c", "western", "saturn in the seventh house", "<p>x</p>")
	result, err = engine.Compare([]*model.GeneratedReport{a, c}, settings)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	fc := fieldResult(t, result, "summary")
	if fc.Similarity != 0.0 || fc.DifferenceCount != 1 {
		t.Fatalf("one-empty comparison = %+v, want similarity 0 and one differing pair", fc)
	}
}

func TestCompareZeroWeightExcludedFromOverall(t *testing.T) {
	engine := compare.New(nil)
	// report_type identical, summary wholly different.
	a := sampleReport("fp-a", "western", "venus rising in the east brings harmony", "<p>x</p>")
	b := sampleReport("fp-b", "western", "zq", "<p>x</p>")

	settings := settingsFor(
		model.CompareField{ID: "report_type", Weight: 1, Enabled: true},
		model.CompareField{ID: "summary", Weight: 0, Enabled: true},
	)
	result, err := engine.Compare([]*model.GeneratedReport{a, b}, settings)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if result.OverallSimilarity != 1.0 {
		t.Fatalf("overall = %f; zero-weight summary must not drag the score", result.OverallSimilarity)
	}
	// The zero-weight field is still reported.
	if fc := fieldResult(t, result, "summary"); fc.Similarity != 0.0 {
		t.Fatalf("summary similarity = %f, want 0", fc.Similarity)
	}
}

func TestCompareDisabledFieldSkipped(t *testing.T) {
	engine := compare.New(nil)
	a := sampleReport("fp-a", "western", "s", "<p>x</p>")
	b := sampleReport("fp-b", "vedic", "s", "<p>x</p>")

	settings := settingsFor(
		model.CompareField{ID: "report_type", Weight: 1, Enabled: false},
		model.CompareField{ID: "summary", Weight: 1, Enabled: true},
	)
	result, err := engine.Compare([]*model.GeneratedReport{a, b}, settings)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if len(result.Fields) != 1 || result.Fields[0].Field != "summary" {
		t.Fatalf("fields = %+v, want summary only", result.Fields)
	}
}

func TestCompareDivergingContent(t *testing.T) {
	engine := compare.New(nil)
	// Same report type, content differing by well over 20%.
	a := sampleReport("fp-a", "western", "s",
		"<p>The sun in Pisces grants deep intuition and a gentle, adaptive temperament throughout life.</p>")
	b := sampleReport("fp-b", "western", "s",
		"<p>Mars squares Saturn.</p>")

	settings := settingsFor(
		model.CompareField{ID: "report_type", Weight: 0.5, Enabled: true},
		model.CompareField{ID: "content", Weight: 0.5, Enabled: true},
	)
	result, err := engine.Compare([]*model.GeneratedReport{a, b}, settings)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}

	if fc := fieldResult(t, result, "report_type"); fc.Similarity != 1.0 {
		t.Fatalf("identical report_type similarity = %f", fc.Similarity)
	}
	if len(result.Matches) != 1 || result.Matches[0].Confidence != 1.0 {
		t.Fatalf("expected one full-confidence match, got %+v", result.Matches)
	}
	if fc := fieldResult(t, result, "content"); fc.MatchCount != 0 {
		t.Fatalf("heavily diverging content still matched: %+v", fc)
	}
}
