package interfaces

import (
	"context"

	"github.com/astralhq/astral/internal/model"
)

// Calculator is the cross-package contract for the ephemeris backend.
// ComputePositions must be deterministic: identical subjects always yield
// identical chart data. Implementations should be safe for concurrent use.
type Calculator interface {
	// ComputePositions derives planetary positions, house cusps, aspects and
	// the ascendant/midheaven for a subject's birth moment and location.
	ComputePositions(ctx context.Context, subject model.BirthSubject) (*model.ChartData, error)

	Close() error
}
