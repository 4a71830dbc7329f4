package booking

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/lcmcoursier/courier-quote/internal/core/domain"
)

// Form field names used by the booking widget.
const (
	FieldPickupAddress   = "adresse_depart"
	FieldDeliveryAddress = "adresse_arrivee"
	FieldParcelCount     = "parcel_count"
	FieldDistanceKm      = "distance_km"

	FieldPickupDate    = "date_recuperation"
	FieldPickupStart   = "heure_debut_recuperation"
	FieldPickupEnd     = "heure_fin_recuperation"
	FieldDeliveryDate  = "date_livraison"
	FieldDeliveryStart = "heure_debut_livraison"
	FieldDeliveryEnd   = "heure_fin_livraison"

	FieldName  = "nom"
	FieldEmail = "email"
	FieldPhone = "tel"
)

// MaxParcels bounds parcel_count so a hostile form cannot force a huge
// allocation.
const MaxParcels = 50

// requiredFields are the mandatory inputs outside the contact block.
var requiredFields = []string{
	FieldPickupAddress,
	FieldDeliveryAddress,
	FieldPickupDate,
	FieldPickupStart,
	FieldPickupEnd,
	FieldDeliveryDate,
	FieldDeliveryStart,
	FieldDeliveryEnd,
}

// ParseForm maps the widget's form encoding onto Inputs. Numbers that are
// missing, unparsable or negative become zero; the parcel count defaults to
// one.
func ParseForm(v url.Values) Inputs {
	in := Inputs{
		Pickup:   address(v, FieldPickupAddress, "depart"),
		Delivery: address(v, FieldDeliveryAddress, "arrivee"),
		PickupWindow: domain.TimeWindow{
			Date:  v.Get(FieldPickupDate),
			Start: v.Get(FieldPickupStart),
			End:   v.Get(FieldPickupEnd),
		},
		DeliveryWindow: domain.TimeWindow{
			Date:  v.Get(FieldDeliveryDate),
			Start: v.Get(FieldDeliveryStart),
			End:   v.Get(FieldDeliveryEnd),
		},
		Contact: Contact{
			Name:  strings.TrimSpace(v.Get(FieldName)),
			Email: strings.TrimSpace(v.Get(FieldEmail)),
			Phone: strings.TrimSpace(v.Get(FieldPhone)),
		},
		Required: make(map[string]string, len(requiredFields)),
	}

	for _, name := range requiredFields {
		in.Required[name] = v.Get(name)
	}

	if raw := strings.TrimSpace(v.Get(FieldDistanceKm)); raw != "" {
		if km, err := strconv.ParseFloat(raw, 64); err == nil {
			in.Distance = domain.Distance(km)
		}
	}

	count, err := strconv.Atoi(strings.TrimSpace(v.Get(FieldParcelCount)))
	if err != nil || count < 1 {
		count = 1
	}
	if count > MaxParcels {
		count = MaxParcels
	}
	in.Parcels = make([]domain.Parcel, count)
	for i := range in.Parcels {
		n := i + 1
		weight := v.Get(fmt.Sprintf("poids_%d", n))
		in.Parcels[i] = domain.Parcel{
			WeightKg:  number(weight),
			LengthCm:  number(v.Get(fmt.Sprintf("longueur_%d", n))),
			WidthCm:   number(v.Get(fmt.Sprintf("largeur_%d", n))),
			HeightCm:  number(v.Get(fmt.Sprintf("hauteur_%d", n))),
			WeightSet: strings.TrimSpace(weight) != "",
		}
	}

	return in
}

// RouteCoordinates returns the pickup and delivery coordinates when the form
// carries both pairs (depart_lon, depart_lat, arrivee_lon, arrivee_lat).
func RouteCoordinates(v url.Values) (from, to domain.Coordinates, ok bool) {
	from, okFrom := coordinates(v, "depart")
	to, okTo := coordinates(v, "arrivee")
	return from, to, okFrom && okTo
}

func address(v url.Values, labelField, prefix string) *domain.Address {
	label := strings.TrimSpace(v.Get(labelField))
	if label == "" {
		return nil
	}
	c, _ := coordinates(v, prefix)
	return &domain.Address{Label: label, Coordinates: c}
}

func coordinates(v url.Values, prefix string) (domain.Coordinates, bool) {
	lon, errLon := strconv.ParseFloat(strings.TrimSpace(v.Get(prefix+"_lon")), 64)
	lat, errLat := strconv.ParseFloat(strings.TrimSpace(v.Get(prefix+"_lat")), 64)
	if errLon != nil || errLat != nil {
		return domain.Coordinates{}, false
	}
	return domain.Coordinates{Lon: lon, Lat: lat}, true
}

// number parses a form number, accepting a decimal comma.
func number(raw string) float64 {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
