package port

import (
	"context"

	"github.com/garyjia/caf-approval/internal/domain/entity"
)

// RequestStore persists requests on behalf of the workflow engine.
// Each call is its own transaction; the engine never spans one across calls.
type RequestStore interface {
	// CreateRequest inserts r and returns the stored entity with its assigned id
	CreateRequest(ctx context.Context, r entity.Request) (entity.Request, error)

	// GetRequest returns the request or an error matching workflow.ErrNotFound
	GetRequest(ctx context.Context, id int64) (entity.Request, error)

	// SaveRequest overwrites the stored request; last write wins
	SaveRequest(ctx context.Context, r entity.Request) error
}
