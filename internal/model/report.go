package model

import "time"

// ReportKind selects the calculation and content-synthesis strategy.
type ReportKind string

const (
	KindWestern       ReportKind = "western"
	KindVedic         ReportKind = "vedic"
	KindChinese       ReportKind = "chinese"
	KindHellenistic   ReportKind = "hellenistic"
	KindTransit       ReportKind = "transit"
	KindCompatibility ReportKind = "compatibility"
)

// Kinds lists every supported report kind.
func Kinds() []ReportKind {
	return []ReportKind{
		KindWestern, KindVedic, KindChinese,
		KindHellenistic, KindTransit, KindCompatibility,
	}
}

// Valid reports whether k is one of the closed set of kinds.
func (k ReportKind) Valid() bool {
	switch k {
	case KindWestern, KindVedic, KindChinese, KindHellenistic, KindTransit, KindCompatibility:
		return true
	}
	return false
}

// DetailLevel controls how much content synthesis produces.
type DetailLevel string

const (
	DetailBasic         DetailLevel = "basic"
	DetailDetailed      DetailLevel = "detailed"
	DetailComprehensive DetailLevel = "comprehensive"
)

// Valid reports whether d is a known detail level.
func (d DetailLevel) Valid() bool {
	switch d {
	case DetailBasic, DetailDetailed, DetailComprehensive:
		return true
	}
	return false
}

// GenerationConfig are the structured options for one generation run.
// Configs are compared by value for fingerprinting; only the content-affecting
// subset participates (see internal/fingerprint).
type GenerationConfig struct {
	DetailLevel     DetailLevel `json:"detail_level"`
	IncludeCharts   bool        `json:"include_charts"`
	IncludePDF      bool        `json:"include_pdf"`
	Persist         bool        `json:"persist"`
	ForceRegenerate bool        `json:"force_regenerate"`
	Theme           string      `json:"theme"`
	Format          string      `json:"format"`
}

// DefaultGenerationConfig returns the options used when a caller omits them.
func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		DetailLevel: DetailDetailed,
		Theme:       "classic",
		Format:      "html",
	}
}

// RenderedOutput is the output set of a generation: HTML is always present,
// PDF only when requested and the renderer succeeded.
type RenderedOutput struct {
	HTML string `json:"html"`
	PDF  []byte `json:"pdf,omitempty"`
}

// ReportMetadata describes how and when a report was produced.
type ReportMetadata struct {
	GeneratedAt  time.Time        `json:"generated_at"`
	Config       GenerationConfig `json:"config"`
	WordCount    int              `json:"word_count"`
	SectionCount int              `json:"section_count"`
}

// GeneratedReport is the cached, versioned artifact a generation produces.
// Identity is the Fingerprint; reports are read-shared after creation.
type GeneratedReport struct {
	Fingerprint string       `json:"fingerprint"`
	Kind        ReportKind   `json:"kind"`
	Subject     BirthSubject `json:"subject"`
	// Partner is set for compatibility reports only.
	Partner *BirthSubject `json:"partner,omitempty"`

	Chart    *ChartData        `json:"chart,omitempty"`
	Summary  string            `json:"summary"`
	Sections map[string]string `json:"sections"`
	Output   RenderedOutput    `json:"output"`
	Metadata ReportMetadata    `json:"metadata"`
}
