package service

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lcmcoursier/courier-quote/internal/core/domain"
	"github.com/lcmcoursier/courier-quote/internal/core/ports"
)

type OrderService struct {
	repo      ports.OrderRepository
	publisher ports.OrderPublisher
	logger    zerolog.Logger
	now       func() time.Time
}

// NewOrderService wires the order use case. publisher may be nil.
func NewOrderService(repo ports.OrderRepository, publisher ports.OrderPublisher, logger zerolog.Logger) *OrderService {
	return &OrderService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Submit stores a form submission as an order. A filled honeypot field
// rejects the submission with domain.ErrSpamDetected before anything is
// written. Publishing is best effort and never fails the submission.
func (s *OrderService) Submit(ctx context.Context, input ports.SubmitOrderInput) (*ports.SubmitOrderResult, error) {
	if input.Form.Get(domain.HoneypotField) != "" {
		s.logger.Warn().Str("client", input.ClientKey).Msg("honeypot field filled, submission rejected")
		return nil, domain.ErrSpamDetected
	}

	order := &domain.Order{
		ID:         uuid.NewString(),
		Fields:     copyForm(input.Form),
		ClientKey:  input.ClientKey,
		ReceivedAt: s.now(),
	}

	if err := s.repo.Append(ctx, order); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID).Msg("failed to save order")
		return nil, fmt.Errorf("append order %s: %w", order.ID, err)
	}

	s.logger.Info().Str("order_id", order.ID).Str("client", input.ClientKey).Msg("order received")

	if s.publisher != nil {
		if err := s.publisher.PublishOrderReceived(ctx, order); err != nil {
			s.logger.Warn().Err(err).Str("order_id", order.ID).Msg("failed to publish order event")
		}
	}

	return &ports.SubmitOrderResult{ID: order.ID, ReceivedAt: order.ReceivedAt}, nil
}

func copyForm(v url.Values) map[string][]string {
	out := make(map[string][]string, len(v))
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}
