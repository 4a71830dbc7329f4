// Package search serves address suggestions for the booking widget.
package search

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/lcmcoursier/courier-quote/internal/core/domain"
	"github.com/lcmcoursier/courier-quote/internal/core/ports"
)

const (
	// MinQueryLength is the shortest query sent to the address service.
	MinQueryLength = 2
	// Limit is the number of candidates requested per query.
	Limit = 5
)

// Montpellier is the point results are biased towards.
var Montpellier = domain.Coordinates{Lon: 3.876716, Lat: 43.610769}

// Predefined returns the suggestions offered before anything is typed.
func Predefined() []domain.Address {
	return []domain.Address{
		{Label: "Gare de Montpellier-Saint-Roch", Coordinates: domain.Coordinates{Lon: 3.8806, Lat: 43.6046}},
		{Label: "Place de la Comédie, Montpellier", Coordinates: domain.Coordinates{Lon: 3.8799, Lat: 43.6084}},
		{Label: "Centre commercial Polygone, Montpellier", Coordinates: domain.Coordinates{Lon: 3.8853, Lat: 43.6103}},
		{Label: "Hôtel de Ville de Montpellier", Coordinates: domain.Coordinates{Lon: 3.8921, Lat: 43.5944}},
	}
}

// Service answers suggestion queries.
type Service struct {
	searcher ports.AddressSearcher
	near     domain.Coordinates
	logger   zerolog.Logger
}

func NewService(searcher ports.AddressSearcher, logger zerolog.Logger) *Service {
	return &Service{searcher: searcher, near: Montpellier, logger: logger}
}

// Suggest returns candidates for query. An empty query yields the
// predefined suggestions; a query shorter than MinQueryLength yields none.
func (s *Service) Suggest(ctx context.Context, query string) ([]domain.Address, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return Predefined(), nil
	}
	if !Searchable(q) {
		return []domain.Address{}, nil
	}
	out, err := s.searcher.Search(ctx, q, s.near, Limit)
	if err != nil {
		s.logger.Warn().Err(err).Str("query", q).Msg("address search failed")
		return nil, fmt.Errorf("search %q: %w", q, err)
	}
	return out, nil
}

// Searchable reports whether q is long enough to be sent to the service.
func Searchable(q string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(q)) >= MinQueryLength
}
