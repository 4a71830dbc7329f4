package queue

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/lcmcoursier/courier-quote/internal/core/domain"
	"github.com/lcmcoursier/courier-quote/internal/core/ports"
)

const channelBuffer = 256

// ErrStopped is returned for appends submitted after the worker stopped.
var ErrStopped = errors.New("order queue stopped")

type job struct {
	ctx   context.Context
	order *domain.Order
	done  chan error
}

// Serializer funnels every append through a single worker goroutine, so the
// wrapped repository never sees two appends at once within this process.
type Serializer struct {
	repo    ports.OrderRepository
	jobs    chan job
	stopped chan struct{}
	depth   prometheus.Gauge
	log     zerolog.Logger
}

// NewSerializer wraps repo. depth may be nil.
func NewSerializer(repo ports.OrderRepository, depth prometheus.Gauge, log zerolog.Logger) *Serializer {
	return &Serializer{
		repo:    repo,
		jobs:    make(chan job, channelBuffer),
		stopped: make(chan struct{}),
		depth:   depth,
		log:     log,
	}
}

// Start launches the worker. It stops when ctx is cancelled; queued appends
// then fail with ErrStopped.
func (s *Serializer) Start(ctx context.Context) {
	go s.run(ctx)
}

// Append queues o and waits for the worker to store it.
func (s *Serializer) Append(ctx context.Context, o *domain.Order) error {
	j := job{ctx: ctx, order: o, done: make(chan error, 1)}

	select {
	case s.jobs <- j:
		s.gauge(1)
	case <-s.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-j.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-s.stopped:
		select {
		case err := <-j.done:
			return err
		default:
			return ErrStopped
		}
	}
}

func (s *Serializer) run(ctx context.Context) {
	defer func() {
		close(s.stopped)
		s.drain()
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.jobs:
			s.gauge(-1)
			if err := j.ctx.Err(); err != nil {
				j.done <- err
				continue
			}
			err := s.repo.Append(j.ctx, j.order)
			if err != nil {
				s.log.Error().Err(err).Str("order_id", j.order.ID).Msg("order append failed")
			}
			j.done <- err
		}
	}
}

func (s *Serializer) drain() {
	for {
		select {
		case j := <-s.jobs:
			s.gauge(-1)
			j.done <- ErrStopped
		default:
			return
		}
	}
}

func (s *Serializer) gauge(delta float64) {
	if s.depth != nil {
		s.depth.Add(delta)
	}
}
