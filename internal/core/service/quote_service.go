package service

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lcmcoursier/courier-quote/internal/core/booking"
	"github.com/lcmcoursier/courier-quote/internal/core/distance"
	"github.com/lcmcoursier/courier-quote/internal/core/domain"
	"github.com/lcmcoursier/courier-quote/internal/core/ports"
)

type QuoteService struct {
	finder ports.RouteFinder
	logger zerolog.Logger
	opts   []distance.Option
}

// NewQuoteService wires the quote use case. opts are passed to every
// distance.Orchestrator the service creates.
func NewQuoteService(finder ports.RouteFinder, logger zerolog.Logger, opts ...distance.Option) *QuoteService {
	return &QuoteService{finder: finder, logger: logger, opts: opts}
}

// Quote evaluates a booking form. When the form carries no distance_km but
// has coordinates for both addresses, the distance is looked up first.
func (s *QuoteService) Quote(ctx context.Context, form url.Values) (*ports.QuoteResult, error) {
	if raw := strings.TrimSpace(form.Get(booking.FieldDistanceKm)); raw != "" {
		if km, err := strconv.ParseFloat(raw, 64); err != nil || km < 0 {
			return nil, fmt.Errorf("%w: distance_km %q", domain.ErrInvalidQuote, raw)
		}
	}

	in := booking.ParseForm(form)
	state := booking.Compute(in)
	result := &ports.QuoteResult{}

	if from, to, ok := booking.RouteCoordinates(form); ok && !in.Distance.Known() && in.Pickup != nil && in.Delivery != nil {
		state = booking.Reduce(state, booking.DistanceRequested{})

		pickup, delivery := *in.Pickup, *in.Delivery
		pickup.Coordinates, delivery.Coordinates = from, to

		o := distance.New(s.finder, s.logger, s.opts...)
		o.SetAddresses(ctx, &pickup, &delivery)
		o.Wait()

		snap := o.Snapshot()
		if snap.Status == distance.Resolved {
			state = booking.Reduce(state, booking.DistanceResolved{Km: float64(snap.Distance)})
			result.Route = &snap.Route
		} else {
			state = booking.Reduce(state, booking.DistanceFailed{})
			result.DistanceError = distance.FailureMessage
		}
	}

	result.State = state
	result.Pricing = state.Pricing
	if state.ShowPrice {
		result.Lines = state.Pricing.Lines()
	}
	result.Summary = booking.Summary(state)
	return result, nil
}
