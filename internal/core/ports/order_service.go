package ports

import (
	"context"
	"net/url"
	"time"

	"github.com/lcmcoursier/courier-quote/internal/core/booking"
	"github.com/lcmcoursier/courier-quote/internal/core/pricing"
)

// SubmitOrderInput carries a raw form submission.
type SubmitOrderInput struct {
	Form      url.Values
	ClientKey string
}

// SubmitOrderResult is returned once the order is persisted.
type SubmitOrderResult struct {
	ID         string
	ReceivedAt time.Time
}

// OrderService defines the order submission use case.
type OrderService interface {
	Submit(ctx context.Context, input SubmitOrderInput) (*SubmitOrderResult, error)
}

// QuoteResult is the server-side evaluation of a booking form.
type QuoteResult struct {
	State   booking.State
	Pricing pricing.Result
	Lines   []string
	Summary string
	// Route is set when the distance was looked up during the quote.
	Route *Route
	// DistanceError is set when the route lookup failed.
	DistanceError string
}

// QuoteService defines the price quote use case.
type QuoteService interface {
	Quote(ctx context.Context, form url.Values) (*QuoteResult, error)
}
