// Package pricing computes the delivery price breakdown for a booking.
//
// The engine is a pure function of its inputs. Every intermediate value is
// kept on the Result so the breakdown can be displayed line by line.
package pricing

import (
	"fmt"
	"strings"
)

// Tariff holds the rates and thresholds the engine prices against.
type Tariff struct {
	NormalRatePerKm   float64
	ElevatedRatePerKm float64
	MaxNormalWeightKg float64
	MaxNormalVolume   float64 // cm³
	StandardMinimum   float64
	UrgentMinimum     float64
}

// DefaultTariff is the published price list.
var DefaultTariff = Tariff{
	NormalRatePerKm:   5,
	ElevatedRatePerKm: 7.5,
	MaxNormalWeightKg: 15,
	MaxNormalVolume:   27000,
	StandardMinimum:   10,
	UrgentMinimum:     20,
}

// Hours is a pickup-window duration. An unbounded duration means no valid
// pickup window is known yet.
type Hours struct {
	Value   float64
	Bounded bool
}

// Unbounded is the duration used while the pickup window is invalid.
var Unbounded = Hours{}

// Within returns a bounded duration of h hours.
func Within(h float64) Hours {
	return Hours{Value: h, Bounded: true}
}

// Result is the full price breakdown.
type Result struct {
	Elevated     bool    `json:"elevated"`
	RatePerKm    float64 `json:"rate_per_km"`
	TariffReason string  `json:"tariff_reason,omitempty"`
	DistanceKm   float64 `json:"distance_km"`
	BasePrice    float64 `json:"base_price"`

	SurchargePercent int     `json:"surcharge_percent"`
	SurchargeAmount  float64 `json:"surcharge_amount"`
	SurchargeReason  string  `json:"surcharge_reason,omitempty"`
	Subtotal         float64 `json:"subtotal"`

	Urgent         bool    `json:"urgent"`
	MinimumPrice   float64 `json:"minimum_price"`
	MinimumApplied bool    `json:"minimum_applied"`
	FinalPrice     float64 `json:"final_price"`
}

// Engine prices bookings against a Tariff.
type Engine struct {
	Tariff Tariff
}

// NewEngine returns an Engine for t.
func NewEngine(t Tariff) Engine {
	return Engine{Tariff: t}
}

// Price computes the breakdown with DefaultTariff.
func Price(distanceKm, totalWeightKg float64, oversize bool, pickup Hours) Result {
	return Engine{Tariff: DefaultTariff}.Price(distanceKm, totalWeightKg, oversize, pickup)
}

// Price computes the breakdown. A distance of zero or below yields a
// non-positive base price; callers must not display such a result.
func (e Engine) Price(distanceKm, totalWeightKg float64, oversize bool, pickup Hours) Result {
	t := e.Tariff
	overweight := totalWeightKg > t.MaxNormalWeightKg

	r := Result{
		Elevated:   overweight || oversize,
		DistanceKm: distanceKm,
	}

	var reasons []string
	if overweight {
		reasons = append(reasons, fmt.Sprintf("(total weight > %g kg)", t.MaxNormalWeightKg))
	}
	if oversize {
		reasons = append(reasons, fmt.Sprintf("(volume > %g cm³)", t.MaxNormalVolume))
	}
	r.TariffReason = strings.Join(reasons, " and ")

	r.RatePerKm = t.NormalRatePerKm
	if r.Elevated {
		r.RatePerKm = t.ElevatedRatePerKm
	}
	r.BasePrice = distanceKm * r.RatePerKm

	r.SurchargePercent, r.SurchargeReason = surcharge(pickup)
	r.SurchargeAmount = r.BasePrice * float64(r.SurchargePercent) / 100
	r.Subtotal = r.BasePrice + r.SurchargeAmount

	r.Urgent = r.SurchargePercent > 0
	r.MinimumPrice = t.StandardMinimum
	if r.Urgent {
		r.MinimumPrice = t.UrgentMinimum
	}
	r.FinalPrice = r.Subtotal
	if r.MinimumPrice > r.Subtotal {
		r.FinalPrice = r.MinimumPrice
		r.MinimumApplied = true
	}
	return r
}

// surcharge maps the pickup window onto its band. First match wins.
func surcharge(h Hours) (int, string) {
	if !h.Bounded {
		return 0, ""
	}
	switch {
	case h.Value <= 1:
		return 100, "window ≤ 1h"
	case h.Value < 2:
		return 75, "window < 2h"
	case h.Value < 4:
		return 50, "window < 4h"
	default:
		return 0, ""
	}
}
