package domain

import "math"

// OversizeVolumeCm3 is the largest parcel volume (30cm x 30cm x 30cm) billed at the normal rate.
const OversizeVolumeCm3 = 27000.0

// Coordinates represents a geographic point in degrees.
type Coordinates struct {
	Lon float64 `json:"lon" bson:"lon"`
	Lat float64 `json:"lat" bson:"lat"`
}

// Address is a location picked by the user from a candidate list.
// It is never mutated once selected: re-selection replaces it wholesale.
type Address struct {
	Label       string      `json:"label" bson:"label"`
	Coordinates Coordinates `json:"coordinates" bson:"coordinates"`
}

// SameAs reports whether two optional addresses denote the same selection.
func SameAs(a, b *Address) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Parcel is one package in a booking. Weight in kg, dimensions in cm.
type Parcel struct {
	WeightKg float64 `json:"weight_kg"`
	LengthCm float64 `json:"length_cm"`
	WidthCm  float64 `json:"width_cm"`
	HeightCm float64 `json:"height_cm"`

	// WeightSet is false when the weight field was left empty in the form.
	WeightSet bool `json:"-"`
}

// Volume returns the parcel volume in cm³.
func (p Parcel) Volume() float64 {
	return p.LengthCm * p.WidthCm * p.HeightCm
}

// Oversize reports whether the parcel exceeds the normal-rate volume.
func (p Parcel) Oversize() bool {
	return p.Volume() > OversizeVolumeCm3
}

// TimeWindow holds the raw date and times exactly as typed in the form
// (YYYY-MM-DD and HH:MM). Validation lives in the timewindow package.
type TimeWindow struct {
	Date  string `json:"date"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// Filled reports whether all three fields are non-empty.
func (w TimeWindow) Filled() bool {
	return w.Date != "" && w.Start != "" && w.End != ""
}

// Distance is a route length in km. Zero means not yet known and
// DistanceError means the last lookup failed.
type Distance float64

const (
	DistanceUnknown Distance = 0
	DistanceError   Distance = -1
)

// Known reports whether d is a usable, positive distance.
func (d Distance) Known() bool {
	f := float64(d)
	return f > 0 && !math.IsInf(f, 0) && !math.IsNaN(f)
}

// Failed reports whether d carries the lookup-error sentinel.
func (d Distance) Failed() bool {
	return d == DistanceError
}
