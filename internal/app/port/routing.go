package port

import (
	"context"

	"chainfund/internal/domain/entity"
)

// RouteProgressFunc receives raw provider progress while a route executes.
// Events may repeat; consumers coalesce them.
type RouteProgressFunc func(entity.RouteProgress)

// RouteProvider abstracts the external bridge/swap routing oracle behind a
// narrow interface so a different aggregator can be substituted without
// touching planning or execution logic.
type RouteProvider interface {
	// GetRoutes quotes the best available route for the query. It returns
	// entity.ErrRouteUnavailable (possibly wrapped) when no path exists.
	GetRoutes(ctx context.Context, query entity.RouteQuery) (*entity.Route, error)

	// ExecuteRoute drives a quoted route to completion through the given
	// signer, reporting provider step/phase transitions via onProgress.
	ExecuteRoute(ctx context.Context, route *entity.Route, signer Signer, onProgress RouteProgressFunc) error
}
