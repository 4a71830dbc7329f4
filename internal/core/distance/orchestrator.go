// Package distance coordinates route lookups for the selected address pair.
//
// At most one lookup is in flight per Orchestrator. Changing either address
// cancels the in-flight lookup and bumps the generation, so a late answer for
// an old pair can never overwrite the distance of the current one.
package distance

import (
	"context"
	"math"
	"sync"

	"github.com/rs/zerolog"

	"github.com/lcmcoursier/courier-quote/internal/core/domain"
	"github.com/lcmcoursier/courier-quote/internal/core/ports"
)

// FailureMessage is shown to the user when a lookup fails.
const FailureMessage = "Unable to calculate the distance."

// Status is the lifecycle state of the orchestrator.
type Status int

const (
	Idle Status = iota
	Requesting
	Resolved
	Failed
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Requesting:
		return "requesting"
	case Resolved:
		return "resolved"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is a snapshot of the orchestrator after a lookup completes.
type Outcome struct {
	Generation uint64
	Status     Status
	Distance   domain.Distance
	Route      ports.Route
	Message    string
	Err        error
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithOnResult registers fn to receive every applied outcome. fn runs outside
// the orchestrator lock and may call back into it.
func WithOnResult(fn func(Outcome)) Option {
	return func(o *Orchestrator) { o.onResult = fn }
}

// WithOnStale registers fn to be called whenever a result is discarded.
func WithOnStale(fn func()) Option {
	return func(o *Orchestrator) { o.onStale = fn }
}

// Orchestrator owns the distance for one booking.
type Orchestrator struct {
	finder   ports.RouteFinder
	logger   zerolog.Logger
	onResult func(Outcome)
	onStale  func()

	mu       sync.Mutex
	pickup   *domain.Address
	delivery *domain.Address
	status   Status
	distance domain.Distance
	route    ports.Route
	message  string
	gen      uint64
	cancel   context.CancelFunc

	wg sync.WaitGroup
}

func New(finder ports.RouteFinder, logger zerolog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{finder: finder, logger: logger}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// SetAddresses records the current address pair. Any change returns the
// orchestrator to Idle, cancels the in-flight lookup and clears the distance;
// when both addresses are then present a new lookup is triggered. It reports
// whether a lookup was started.
func (o *Orchestrator) SetAddresses(ctx context.Context, pickup, delivery *domain.Address) bool {
	o.mu.Lock()
	if domain.SameAs(o.pickup, pickup) && domain.SameAs(o.delivery, delivery) {
		o.mu.Unlock()
		return false
	}
	o.pickup = copyAddress(pickup)
	o.delivery = copyAddress(delivery)
	o.resetLocked()
	o.mu.Unlock()

	return o.Trigger(ctx)
}

// Trigger starts a lookup for the current pair. It is a no-op returning false
// when an address is missing or a lookup is already in flight.
func (o *Orchestrator) Trigger(ctx context.Context) bool {
	o.mu.Lock()
	if o.pickup == nil || o.delivery == nil || o.status == Requesting {
		o.mu.Unlock()
		return false
	}
	o.gen++
	gen := o.gen
	from, to := *o.pickup, *o.delivery
	reqCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	o.status = Requesting
	o.distance = domain.DistanceUnknown
	o.message = ""
	o.wg.Add(1)
	o.mu.Unlock()

	go o.lookup(reqCtx, cancel, gen, from, to)
	return true
}

// Snapshot returns the current state.
func (o *Orchestrator) Snapshot() Outcome {
	o.mu.Lock()
	defer o.mu.Unlock()
	return Outcome{
		Generation: o.gen,
		Status:     o.status,
		Distance:   o.distance,
		Route:      o.route,
		Message:    o.message,
	}
}

// Wait blocks until every started lookup has returned.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// Close cancels the in-flight lookup and waits for it to return.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	o.resetLocked()
	o.mu.Unlock()
	o.wg.Wait()
}

func (o *Orchestrator) resetLocked() {
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
	// invalidates whatever is still in flight
	o.gen++
	o.status = Idle
	o.distance = domain.DistanceUnknown
	o.route = ports.Route{}
	o.message = ""
}

func (o *Orchestrator) lookup(ctx context.Context, cancel context.CancelFunc, gen uint64, from, to domain.Address) {
	defer o.wg.Done()
	defer cancel()

	route, err := o.finder.Route(ctx, from.Coordinates, to.Coordinates)
	if err == nil && (!(route.DistanceMeters > 0) || math.IsInf(route.DistanceMeters, 1)) {
		err = domain.ErrRouteNotFound
	}

	o.mu.Lock()
	current := gen == o.gen && domain.SameAs(o.pickup, &from) && domain.SameAs(o.delivery, &to)
	if !current {
		o.mu.Unlock()
		o.logger.Debug().
			Uint64("generation", gen).
			Str("from", from.Label).
			Str("to", to.Label).
			Msg("discarding stale distance result")
		if o.onStale != nil {
			o.onStale()
		}
		return
	}

	out := Outcome{Generation: gen, Err: err}
	if err != nil {
		o.status = Failed
		o.distance = domain.DistanceError
		o.route = ports.Route{}
		o.message = FailureMessage
		o.logger.Warn().Err(err).Str("from", from.Label).Str("to", to.Label).Msg("distance lookup failed")
	} else {
		o.status = Resolved
		o.distance = domain.Distance(route.DistanceMeters / 1000)
		o.route = route
		o.message = ""
	}
	o.cancel = nil
	out.Status, out.Distance, out.Route, out.Message = o.status, o.distance, o.route, o.message
	o.mu.Unlock()

	if o.onResult != nil {
		o.onResult(out)
	}
}

func copyAddress(a *domain.Address) *domain.Address {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}
