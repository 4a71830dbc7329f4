package osrm

import (
	"fmt"
	"math"

	"github.com/twpayne/go-polyline"

	"github.com/lcmcoursier/courier-quote/internal/core/domain"
)

// Precision is the coordinate precision OSRM uses for polyline geometries.
const Precision = 5

// DecodePolyline decodes an encoded polyline into coordinates.
func DecodePolyline(s string, precision int) ([]domain.Coordinates, error) {
	codec := polyline.Codec{Dim: 2, Scale: math.Pow10(precision)}
	coords, rest, err := codec.DecodeCoords([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("polyline: %w", err)
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("polyline: %d trailing bytes", len(rest))
	}

	out := make([]domain.Coordinates, 0, len(coords))
	for _, c := range coords {
		out = append(out, domain.Coordinates{Lat: c[0], Lon: c[1]})
	}
	return out, nil
}
