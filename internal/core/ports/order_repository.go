package ports

import (
	"context"

	"github.com/lcmcoursier/courier-quote/internal/core/domain"
)

// OrderRepository defines persistence operations for submitted orders.
type OrderRepository interface {
	// Append stores o. Implementations must not leave a partial write behind
	// when they return an error.
	Append(ctx context.Context, o *domain.Order) error
}

// OrderPublisher announces persisted orders to downstream consumers.
type OrderPublisher interface {
	PublishOrderReceived(ctx context.Context, o *domain.Order) error
}
