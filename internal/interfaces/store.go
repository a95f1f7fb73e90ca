package interfaces

import (
	"context"

	"github.com/astralhq/astral/internal/model"
)

// ReportStore persists generated reports for later retrieval by owner.
// The pipeline treats it as best-effort: a failed Save is logged and the
// generation still succeeds.
type ReportStore interface {
	// Save stores a generated report under the given owner. Saving the same
	// report id again overwrites the previous record.
	Save(ctx context.Context, ownerID string, report *model.GeneratedReport) error

	// LoadByOwner returns all reports stored for an owner, newest first.
	LoadByOwner(ctx context.Context, ownerID string) ([]*model.GeneratedReport, error)

	// Delete removes a report by id, scoped to its owner. Returns true if a
	// record was removed.
	Delete(ctx context.Context, reportID, ownerID string) (bool, error)

	Close() error
}
