// Package compare scores generated reports against each other field by
// field using normalized edit distance and a weighted field configuration.
package compare

import (
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/astralhq/astral/internal/logging"
	"github.com/astralhq/astral/internal/model"
)

// Pair similarity thresholds. Pairs scoring between the two count toward
// neither matches nor differences.
const (
	matchThreshold      = 0.8
	differenceThreshold = 0.3
)

// InsufficientInputError reports a comparison attempted with fewer than two
// reports.
type InsufficientInputError struct {
	Got int
}

func (e *InsufficientInputError) Error() string {
	return fmt.Sprintf("comparison requires at least 2 reports, got %d", e.Got)
}

// UnknownFieldError reports settings naming a field id outside the extractor
// registry.
type UnknownFieldError struct {
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown comparison field %q", e.Field)
}

// Engine computes ComparisonResults. Safe for concurrent use.
type Engine struct {
	dmp    *diffmatchpatch.DiffMatchPatch
	logger logging.Logger
}

func New(logger logging.Logger) *Engine {
	return &Engine{dmp: diffmatchpatch.New(), logger: logger}
}

// Compare scores the given reports against each other over the enabled
// fields in settings. The result is derived state: recomputable at any time
// from the same inputs.
func (e *Engine) Compare(reports []*model.GeneratedReport, settings model.ComparisonSettings) (*model.ComparisonResult, error) {
	if len(reports) < 2 {
		return nil, &InsufficientInputError{Got: len(reports)}
	}
	enabled := enabledFields(settings)
	for _, f := range enabled {
		if _, ok := extractors[f.ID]; !ok {
			return nil, &UnknownFieldError{Field: f.ID}
		}
	}

	ids := make([]string, len(reports))
	for i, r := range reports {
		ids[i] = r.Fingerprint
	}

	result := &model.ComparisonResult{ReportIDs: ids}
	var weightedSum, weightTotal float64

	for _, f := range enabled {
		values := make([]string, len(reports))
		for i, r := range reports {
			values[i] = extractors[f.ID](r)
		}

		fc := e.compareField(f.ID, values)
		result.Fields = append(result.Fields, fc)

		result.Matches = append(result.Matches, extractMatches(f.ID, values, ids)...)
		if diff := extractDifference(f.ID, values, ids); diff != nil {
			result.Differences = append(result.Differences, *diff)
		}

		// Zero-weight fields are still compared and reported but do not
		// move the overall score.
		if f.Weight > 0 {
			weightedSum += fc.Similarity * f.Weight
			weightTotal += f.Weight
		}
	}

	if weightTotal > 0 {
		result.OverallSimilarity = weightedSum / weightTotal
	}
	if e.logger != nil {
		e.logger.Debug("comparison complete",
			logging.Field{Key: "reports", Value: len(reports)},
			logging.Field{Key: "fields", Value: len(result.Fields)},
			logging.Field{Key: "overall", Value: result.OverallSimilarity})
	}
	return result, nil
}

// compareField scores every unordered pair of values. The reported field
// similarity is the high-confidence match rate, not the mean raw similarity.
func (e *Engine) compareField(id string, values []string) model.FieldComparison {
	fc := model.FieldComparison{Field: id}
	pairs := 0
	for i := 0; i < len(values); i++ {
		for j := i + 1; j < len(values); j++ {
			pairs++
			s := e.similarity(values[i], values[j])
			if s > matchThreshold {
				fc.MatchCount++
			} else if s < differenceThreshold {
				fc.DifferenceCount++
			}
		}
	}
	if pairs > 0 {
		fc.Similarity = float64(fc.MatchCount) / float64(pairs)
	}
	return fc
}

// similarity is 1 minus the normalized Levenshtein distance between a and b.
// Both empty scores 1.0; exactly one empty scores 0.0.
func (e *Engine) similarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}
	diffs := e.dmp.DiffMain(a, b, false)
	lev := e.dmp.DiffLevenshtein(diffs)
	maxLen := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > maxLen {
		maxLen = n
	}
	return 1.0 - float64(lev)/float64(maxLen)
}

// extractMatches groups reports by normalized value; any group of two or
// more yields a match whose confidence is the group's share of all compared
// reports.
func extractMatches(id string, values, reportIDs []string) []model.ComparisonMatch {
	groups := map[string][]string{}
	for i, v := range values {
		groups[v] = append(groups[v], reportIDs[i])
	}

	shared := make([]string, 0, len(groups))
	for v, members := range groups {
		if len(members) >= 2 {
			shared = append(shared, v)
		}
	}
	sort.Strings(shared)

	matches := make([]model.ComparisonMatch, 0, len(shared))
	for _, v := range shared {
		matches = append(matches, model.ComparisonMatch{
			Field:      id,
			Value:      v,
			Confidence: float64(len(groups[v])) / float64(len(values)),
			ReportIDs:  groups[v],
		})
	}
	return matches
}

// extractDifference emits a single difference when every report holds a
// distinct value for the field.
func extractDifference(id string, values, reportIDs []string) *model.ComparisonDifference {
	if len(values) < 2 {
		return nil
	}
	unique := map[string]struct{}{}
	for _, v := range values {
		unique[v] = struct{}{}
	}
	if len(unique) != len(values) {
		return nil
	}

	perReport := make(map[string]string, len(values))
	for i, v := range values {
		perReport[reportIDs[i]] = v
	}
	return &model.ComparisonDifference{
		Field:        id,
		Values:       perReport,
		Significance: SignificanceForField(id),
		Category:     LabelForField(id),
	}
}

func enabledFields(settings model.ComparisonSettings) []model.CompareField {
	fields := make([]model.CompareField, 0, len(settings.CompareFields))
	for _, f := range settings.CompareFields {
		if f.Enabled {
			fields = append(fields, f)
		}
	}
	return fields
}
