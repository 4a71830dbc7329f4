package ports

import (
	"context"

	"github.com/lcmcoursier/courier-quote/internal/core/domain"
)

// Route is a bicycle route between two points.
type Route struct {
	DistanceMeters float64 `json:"distance_meters"`
	// Polyline is the encoded route geometry (precision 5).
	Polyline string `json:"polyline"`
	// Points is Polyline decoded, in travel order.
	Points []domain.Coordinates `json:"points,omitempty"`
}

// RouteFinder looks up a bicycle route. It returns domain.ErrRouteNotFound
// when the routing service answers without a usable route.
type RouteFinder interface {
	Route(ctx context.Context, from, to domain.Coordinates) (Route, error)
}
