package booking

import (
	"github.com/lcmcoursier/courier-quote/internal/core/domain"
)

// Event is a single user or system change to the booking inputs.
type Event interface {
	apply(in Inputs) Inputs
}

// Reduce applies ev to the inputs of prev and returns a freshly computed
// State. prev is left untouched.
func Reduce(prev State, ev Event) State {
	return Compute(ev.apply(clone(prev.Inputs)))
}

type (
	PickupSelected   struct{ Address domain.Address }
	DeliverySelected struct{ Address domain.Address }
	PickupCleared    struct{}
	DeliveryCleared  struct{}

	// ParcelCountChanged resizes the parcel list. Counts are clamped to
	// [1, MaxParcels].
	ParcelCountChanged struct{ N int }
	// ParcelChanged replaces the parcel at Index (zero-based). A positive
	// weight counts as entered even when WeightSet is left false.
	ParcelChanged struct {
		Index  int
		Parcel domain.Parcel
	}

	PickupWindowChanged   struct{ Window domain.TimeWindow }
	DeliveryWindowChanged struct{ Window domain.TimeWindow }

	DistanceRequested struct{}
	DistanceResolved  struct{ Km float64 }
	DistanceFailed    struct{}

	ContactChanged struct{ Contact Contact }
	FieldChanged   struct{ Name, Value string }
)

func (e PickupSelected) apply(in Inputs) Inputs {
	a := e.Address
	if !domain.SameAs(in.Pickup, &a) {
		in.Distance = domain.DistanceUnknown
	}
	in.Pickup = &a
	return in
}

func (e DeliverySelected) apply(in Inputs) Inputs {
	a := e.Address
	if !domain.SameAs(in.Delivery, &a) {
		in.Distance = domain.DistanceUnknown
	}
	in.Delivery = &a
	return in
}

func (PickupCleared) apply(in Inputs) Inputs {
	in.Pickup = nil
	in.Distance = domain.DistanceUnknown
	in.Calculating = false
	return in
}

func (DeliveryCleared) apply(in Inputs) Inputs {
	in.Delivery = nil
	in.Distance = domain.DistanceUnknown
	in.Calculating = false
	return in
}

func (e ParcelCountChanged) apply(in Inputs) Inputs {
	n := e.N
	if n < 1 {
		n = 1
	}
	if n > MaxParcels {
		n = MaxParcels
	}
	if n <= len(in.Parcels) {
		in.Parcels = in.Parcels[:n]
		return in
	}
	in.Parcels = append(in.Parcels, make([]domain.Parcel, n-len(in.Parcels))...)
	return in
}

func (e ParcelChanged) apply(in Inputs) Inputs {
	if e.Index < 0 || e.Index >= len(in.Parcels) {
		return in
	}
	p := e.Parcel
	if p.WeightKg > 0 {
		p.WeightSet = true
	}
	in.Parcels[e.Index] = p
	return in
}

func (e PickupWindowChanged) apply(in Inputs) Inputs {
	in.PickupWindow = e.Window
	return in
}

func (e DeliveryWindowChanged) apply(in Inputs) Inputs {
	in.DeliveryWindow = e.Window
	return in
}

func (DistanceRequested) apply(in Inputs) Inputs {
	in.Calculating = true
	return in
}

func (e DistanceResolved) apply(in Inputs) Inputs {
	in.Calculating = false
	in.Distance = domain.Distance(e.Km)
	return in
}

func (DistanceFailed) apply(in Inputs) Inputs {
	in.Calculating = false
	in.Distance = domain.DistanceError
	return in
}

func (e ContactChanged) apply(in Inputs) Inputs {
	in.Contact = e.Contact
	return in
}

func (e FieldChanged) apply(in Inputs) Inputs {
	if in.Required == nil {
		in.Required = map[string]string{}
	}
	in.Required[e.Name] = e.Value
	return in
}

// clone copies the reference-typed parts of in so events never write
// through to a previous State.
func clone(in Inputs) Inputs {
	if in.Parcels != nil {
		in.Parcels = append([]domain.Parcel(nil), in.Parcels...)
	}
	if in.Required != nil {
		req := make(map[string]string, len(in.Required))
		for k, v := range in.Required {
			req[k] = v
		}
		in.Required = req
	}
	return in
}
