// Package booking derives the full booking state from raw user inputs.
//
// State is never mutated in place. Every change goes through Reduce, which
// rebuilds the derived fields with Compute in a fixed order: parcel
// aggregation, pickup validation, delivery validation, pricing, and finally
// the submittable flag.
package booking

import (
	"github.com/lcmcoursier/courier-quote/internal/core/domain"
	"github.com/lcmcoursier/courier-quote/internal/core/pricing"
	"github.com/lcmcoursier/courier-quote/internal/core/timewindow"
)

// Contact is the customer block of the form.
type Contact struct {
	Name  string `json:"name" form:"nom" validate:"required"`
	Email string `json:"email" form:"email" validate:"required,email"`
	Phone string `json:"phone" form:"tel" validate:"required,phone"`
}

// Inputs holds every raw value the user can change.
type Inputs struct {
	Pickup         *domain.Address
	Delivery       *domain.Address
	Parcels        []domain.Parcel
	PickupWindow   domain.TimeWindow
	DeliveryWindow domain.TimeWindow
	Distance       domain.Distance
	Calculating    bool
	Contact        Contact

	// Required holds any additional mandatory form fields by name.
	Required map[string]string
}

// State is Inputs plus everything derived from them.
type State struct {
	Inputs

	TotalWeightKg float64
	Oversize      bool

	PickupValid   bool
	PickupHours   pricing.Hours
	DeliveryValid bool

	FormComplete bool
	FieldErrors  map[string]string

	Pricing pricing.Result
	// ShowPrice is false until a positive distance is known.
	ShowPrice   bool
	Submittable bool
}

// Compute derives a fresh State from in using DefaultTariff.
func Compute(in Inputs) State {
	return ComputeWith(pricing.Engine{Tariff: pricing.DefaultTariff}, in)
}

// ComputeWith derives a fresh State from in, pricing with e.
func ComputeWith(e pricing.Engine, in Inputs) State {
	s := State{Inputs: in, PickupHours: pricing.Unbounded}

	// a. parcels
	for _, p := range in.Parcels {
		s.TotalWeightKg += p.WeightKg
		if p.Oversize() {
			s.Oversize = true
		}
	}

	// b. pickup
	pickup := timewindow.ValidateWindow(in.PickupWindow)
	s.PickupValid = pickup.Valid
	if pickup.Valid {
		s.PickupHours = pricing.Within(pickup.DurationHours)
	}

	// c. delivery
	s.DeliveryValid = timewindow.ValidateDelivery(in.PickupWindow, in.DeliveryWindow)

	// d. pricing
	s.Pricing = e.Price(float64(in.Distance), s.TotalWeightKg, s.Oversize, s.PickupHours)
	s.ShowPrice = in.Distance.Known()

	// e. submittable
	s.FieldErrors = formErrors(in)
	s.FormComplete = len(s.FieldErrors) == 0
	s.Submittable = len(in.Parcels) > 0 &&
		in.Pickup != nil &&
		in.Delivery != nil &&
		in.Distance.Known() &&
		s.PickupValid &&
		s.DeliveryValid &&
		s.FormComplete &&
		!in.Calculating

	return s
}

// PickupError reports whether the pickup window error should be displayed.
func (s State) PickupError() bool {
	return timewindow.ShowError(s.PickupWindow, s.PickupValid)
}

// DeliveryError reports whether the delivery window error should be displayed.
func (s State) DeliveryError() bool {
	return timewindow.ShowError(s.DeliveryWindow, s.DeliveryValid)
}

// DistanceText is the distance as displayed: a value, a placeholder, or an
// error marker.
func (s State) DistanceText() string {
	switch {
	case s.Distance.Failed():
		return "Error"
	case s.Distance.Known():
		return formatKm(float64(s.Distance))
	default:
		return "-- km"
	}
}
