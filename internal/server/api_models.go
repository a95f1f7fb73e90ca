package server

import (
	"github.com/astralhq/astral/internal/generator"
	"github.com/astralhq/astral/internal/model"
)

// BatchRequest carries the items of one batch generation job.
type BatchRequest struct {
	Requests []generator.Request `json:"requests"`
}

// CompareRequest carries the reports to score and optional settings. Empty
// settings use the default weighted field set.
type CompareRequest struct {
	Reports  []*model.GeneratedReport `json:"reports"`
	Settings model.ComparisonSettings `json:"settings"`
}

// ExportRequest carries a previously computed comparison result for
// serialization. The format is selected with the ?format query parameter.
type ExportRequest struct {
	Result   *model.ComparisonResult  `json:"result"`
	Settings model.ComparisonSettings `json:"settings"`
}

// DeletedResponse reports whether a stored report was removed.
type DeletedResponse struct {
	Deleted bool `json:"deleted" example:"true"`
}

// ErrorResponse is a uniform error payload returned by the API.
type ErrorResponse struct {
	Error string `json:"error" example:"not found"`
	Code  string `json:"code,omitempty" example:"validation_error"`
}
