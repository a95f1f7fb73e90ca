package model

// Stage is a named phase of report generation.
type Stage string

const (
	StagePending      Stage = "pending"
	StageValidation   Stage = "validation"
	StageCalculations Stage = "calculations"
	StageAnalysis     Stage = "analysis"
	StageFormatting   Stage = "formatting"
	StageFinalizing   Stage = "finalizing"
	StageComplete     Stage = "complete"
	StageError        Stage = "error"
)

// stageOrder indexes the forward progression of non-error stages.
var stageOrder = map[Stage]int{
	StagePending:      0,
	StageValidation:   1,
	StageCalculations: 2,
	StageAnalysis:     3,
	StageFormatting:   4,
	StageFinalizing:   5,
	StageComplete:     6,
}

// Order returns the stage's position in the forward progression, or -1 for
// the error stage.
func (s Stage) Order() int {
	if n, ok := stageOrder[s]; ok {
		return n
	}
	return -1
}

// Terminal reports whether no further transition may follow s.
func (s Stage) Terminal() bool {
	return s == StageComplete || s == StageError
}

// Percentage returns the canonical progress percentage announced when the
// pipeline enters s.
func (s Stage) Percentage() int {
	switch s {
	case StageValidation:
		return 0
	case StageCalculations:
		return 10
	case StageAnalysis:
		return 40
	case StageFormatting:
		return 70
	case StageFinalizing:
		return 90
	case StageComplete:
		return 100
	}
	return 0
}

// ProgressState is one observation of an in-flight generation. Exactly one
// state is current per generation; transitions are monotonic except the
// terminal jump to error.
type ProgressState struct {
	Stage      Stage  `json:"stage"`
	Percentage int    `json:"percentage"`
	Message    string `json:"message,omitempty"`
	Error      string `json:"error,omitempty"`
}
