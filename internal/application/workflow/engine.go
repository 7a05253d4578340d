package workflow

import (
	"context"

	"github.com/garyjia/caf-approval/internal/domain/entity"
	domainwf "github.com/garyjia/caf-approval/internal/domain/workflow"
)

// Engine drives the CAF request lifecycle. Every successful transition is
// persisted through the store and then dispatched as a domain event.
type Engine interface {
	// Create stores a new Pending request built from payload
	Create(ctx context.Context, payload entity.Payload) (entity.Request, error)

	// Decide records a reviewer decision; target must be a decision state
	Decide(ctx context.Context, id int64, target domainwf.State, comments, reviewingActor string) (entity.Request, error)

	// ApplyCorrection applies the submitter's edits. A request waiting for
	// corrections goes back to Pending.
	ApplyCorrection(ctx context.Context, id int64, payload entity.Payload) (entity.Request, error)

	// Get returns the stored request
	Get(ctx context.Context, id int64) (entity.Request, error)
}
