package ports

import (
	"context"

	"github.com/lcmcoursier/courier-quote/internal/core/domain"
)

// AddressSearcher returns address candidates for a free-text query, ranked
// by proximity to near.
type AddressSearcher interface {
	Search(ctx context.Context, query string, near domain.Coordinates, limit int) ([]domain.Address, error)
}
