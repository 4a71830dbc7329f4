package booking_test

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcmcoursier/courier-quote/internal/core/booking"
	"github.com/lcmcoursier/courier-quote/internal/core/domain"
)

// ---- Fixtures ----------------------------------------------------------------

var (
	gare = domain.Address{
		Label:       "Gare de Montpellier-Saint-Roch",
		Coordinates: domain.Coordinates{Lon: 3.8806, Lat: 43.6046},
	}
	comedie = domain.Address{
		Label:       "Place de la Comédie, Montpellier",
		Coordinates: domain.Coordinates{Lon: 3.8799, Lat: 43.6084},
	}
)

func completeInputs() booking.Inputs {
	return booking.Inputs{
		Pickup:         &gare,
		Delivery:       &comedie,
		Parcels:        []domain.Parcel{{WeightKg: 10, WeightSet: true}},
		PickupWindow:   domain.TimeWindow{Date: "2026-03-02", Start: "09:00", End: "12:00"},
		DeliveryWindow: domain.TimeWindow{Date: "2026-03-02", Start: "13:00", End: "15:00"},
		Distance:       12,
		Contact:        booking.Contact{Name: "Ada", Email: "ada@example.com", Phone: "06 12 34 56 78"},
	}
}

// ---- Compute -----------------------------------------------------------------

func TestCompute_CompleteBookingIsSubmittable(t *testing.T) {
	s := booking.Compute(completeInputs())

	assert.True(t, s.PickupValid)
	assert.True(t, s.DeliveryValid)
	assert.True(t, s.FormComplete)
	assert.Empty(t, s.FieldErrors)
	assert.True(t, s.ShowPrice)
	assert.True(t, s.Submittable)
	assert.InDelta(t, 90.0, s.Pricing.FinalPrice, 1e-9)
	assert.Equal(t, 50, s.Pricing.SurchargePercent)
}

func TestCompute_AggregatesParcels(t *testing.T) {
	in := completeInputs()
	in.Parcels = []domain.Parcel{
		{WeightKg: 8, WeightSet: true},
		{WeightKg: 8, WeightSet: true, LengthCm: 40, WidthCm: 30, HeightCm: 30},
	}
	s := booking.Compute(in)

	assert.Equal(t, 16.0, s.TotalWeightKg)
	assert.True(t, s.Oversize)
	assert.True(t, s.Pricing.Elevated)
	assert.Equal(t, "(total weight > 15 kg) and (volume > 27000 cm³)", s.Pricing.TariffReason)
}

func TestCompute_InvalidPickupMeansUnboundedWindow(t *testing.T) {
	in := completeInputs()
	in.PickupWindow.End = "08:00"
	s := booking.Compute(in)

	assert.False(t, s.PickupValid)
	assert.False(t, s.PickupHours.Bounded)
	assert.Zero(t, s.Pricing.SurchargePercent)
	assert.True(t, s.PickupError())
	// delivery only depends on the pickup start
	assert.True(t, s.DeliveryValid)
	assert.False(t, s.Submittable)
}

func TestCompute_NotSubmittableWhile(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*booking.Inputs)
	}{
		{"pickup missing", func(in *booking.Inputs) { in.Pickup = nil }},
		{"delivery missing", func(in *booking.Inputs) { in.Delivery = nil }},
		{"distance unknown", func(in *booking.Inputs) { in.Distance = domain.DistanceUnknown }},
		{"distance failed", func(in *booking.Inputs) { in.Distance = domain.DistanceError }},
		{"calculating", func(in *booking.Inputs) { in.Calculating = true }},
		{"delivery before pickup", func(in *booking.Inputs) { in.DeliveryWindow.Start = "08:00" }},
		{"missing name", func(in *booking.Inputs) { in.Contact.Name = "" }},
		{"bad email", func(in *booking.Inputs) { in.Contact.Email = "nope" }},
		{"bad phone", func(in *booking.Inputs) { in.Contact.Phone = "12" }},
		{"parcel weight empty", func(in *booking.Inputs) { in.Parcels[0].WeightSet = false }},
		{"required field empty", func(in *booking.Inputs) { in.Required = map[string]string{"adresse_depart": " "} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := completeInputs()
			tc.mutate(&in)
			assert.False(t, booking.Compute(in).Submittable)
		})
	}
}

func TestCompute_FieldErrorsUseFormNames(t *testing.T) {
	in := completeInputs()
	in.Contact = booking.Contact{Email: "bad"}
	in.Parcels[0].WeightSet = false
	s := booking.Compute(in)

	assert.Equal(t, "nom is required", s.FieldErrors["nom"])
	assert.Equal(t, "email must be a valid email", s.FieldErrors["email"])
	assert.Equal(t, "tel is required", s.FieldErrors["tel"])
	assert.Equal(t, "poids_1 is required", s.FieldErrors["poids_1"])
	assert.Len(t, booking.ErrorList(s.FieldErrors), 4)
}

func TestCompute_DistanceText(t *testing.T) {
	in := completeInputs()
	assert.Equal(t, "12.00 km", booking.Compute(in).DistanceText())

	in.Distance = domain.DistanceError
	assert.Equal(t, "Error", booking.Compute(in).DistanceText())
	assert.False(t, booking.Compute(in).ShowPrice)

	in.Distance = domain.DistanceUnknown
	assert.Equal(t, "-- km", booking.Compute(in).DistanceText())
}

func TestValidPhone(t *testing.T) {
	for _, ok := range []string{"0612345678", "06 12 34 56 78", "+33 6 12 34 56 78", "06.12.34.56.78", "(04) 67-12-34-56"} {
		assert.True(t, booking.ValidPhone(ok), ok)
	}
	for _, bad := range []string{"", "12", "phone", "06-12-ab-56-78", "+33 6 12 34 56 78 90 12 34"} {
		assert.False(t, booking.ValidPhone(bad), bad)
	}
}

// ---- Reduce ------------------------------------------------------------------

func TestReduce_AddressChangeResetsDistance(t *testing.T) {
	s := booking.Compute(completeInputs())
	require.True(t, s.Submittable)

	next := booking.Reduce(s, booking.DeliverySelected{Address: gare})
	assert.Equal(t, domain.DistanceUnknown, next.Distance)
	assert.False(t, next.Submittable)

	// the previous state is untouched
	assert.Equal(t, domain.Distance(12), s.Distance)
	assert.Equal(t, comedie.Label, s.Delivery.Label)
}

func TestReduce_ReselectingSameAddressKeepsDistance(t *testing.T) {
	s := booking.Compute(completeInputs())
	next := booking.Reduce(s, booking.PickupSelected{Address: gare})
	assert.Equal(t, domain.Distance(12), next.Distance)
	assert.True(t, next.Submittable)
}

func TestReduce_ClearingAddress(t *testing.T) {
	s := booking.Compute(completeInputs())
	next := booking.Reduce(s, booking.PickupCleared{})
	assert.Nil(t, next.Pickup)
	assert.Equal(t, domain.DistanceUnknown, next.Distance)

	next = booking.Reduce(s, booking.DeliveryCleared{})
	assert.Nil(t, next.Delivery)
}

func TestReduce_DistanceLifecycle(t *testing.T) {
	in := completeInputs()
	in.Distance = domain.DistanceUnknown
	s := booking.Compute(in)

	s = booking.Reduce(s, booking.DistanceRequested{})
	assert.True(t, s.Calculating)
	assert.False(t, s.Submittable)

	s = booking.Reduce(s, booking.DistanceResolved{Km: 1})
	assert.False(t, s.Calculating)
	assert.True(t, s.Submittable)
	assert.Equal(t, 20.0, s.Pricing.FinalPrice)
	assert.True(t, s.Pricing.MinimumApplied)

	s = booking.Reduce(s, booking.DistanceFailed{})
	assert.Equal(t, domain.DistanceError, s.Distance)
	assert.False(t, s.Submittable)
}

func TestReduce_ParcelCount(t *testing.T) {
	s := booking.Compute(completeInputs())

	s = booking.Reduce(s, booking.ParcelCountChanged{N: 3})
	require.Len(t, s.Parcels, 3)
	assert.Equal(t, 10.0, s.Parcels[0].WeightKg)
	assert.Contains(t, s.FieldErrors, "poids_2")

	s = booking.Reduce(s, booking.ParcelChanged{Index: 1, Parcel: domain.Parcel{WeightKg: 4, WeightSet: true}})
	s = booking.Reduce(s, booking.ParcelChanged{Index: 2, Parcel: domain.Parcel{WeightKg: 2, WeightSet: true}})
	assert.Equal(t, 16.0, s.TotalWeightKg)
	assert.True(t, s.Pricing.Elevated)

	s = booking.Reduce(s, booking.ParcelCountChanged{N: 0})
	require.Len(t, s.Parcels, 1)
	assert.Equal(t, 10.0, s.TotalWeightKg)
}

func TestCompute_NoParcelsIsNotSubmittable(t *testing.T) {
	in := completeInputs()
	in.Parcels = nil

	s := booking.Compute(in)

	assert.False(t, s.FormComplete)
	assert.False(t, s.Submittable)
	assert.Contains(t, s.FieldErrors, "poids_1")
}

func TestReduce_ParcelChangeMarksPositiveWeightEntered(t *testing.T) {
	s := booking.Compute(completeInputs())

	s = booking.Reduce(s, booking.ParcelCountChanged{N: 2})
	require.False(t, s.Submittable)

	s = booking.Reduce(s, booking.ParcelChanged{Index: 1, Parcel: domain.Parcel{WeightKg: 5}})
	assert.True(t, s.Parcels[1].WeightSet)
	assert.NotContains(t, s.FieldErrors, "poids_2")
	assert.True(t, s.Submittable)
	assert.Equal(t, 15.0, s.TotalWeightKg)
}

func TestReduce_ParcelCountClampedToMax(t *testing.T) {
	s := booking.Compute(completeInputs())

	s = booking.Reduce(s, booking.ParcelCountChanged{N: 1_000_000})
	assert.Len(t, s.Parcels, booking.MaxParcels)
	assert.Equal(t, 10.0, s.Parcels[0].WeightKg)
}

func TestReduce_ParcelChangeDoesNotLeakIntoPrevious(t *testing.T) {
	prev := booking.Compute(completeInputs())
	_ = booking.Reduce(prev, booking.ParcelChanged{Index: 0, Parcel: domain.Parcel{WeightKg: 99, WeightSet: true}})
	assert.Equal(t, 10.0, prev.Parcels[0].WeightKg)
}

func TestReduce_WindowsContactAndFields(t *testing.T) {
	s := booking.Compute(completeInputs())

	s = booking.Reduce(s, booking.PickupWindowChanged{Window: domain.TimeWindow{Date: "2026-03-02", Start: "09:00", End: "09:45"}})
	assert.Equal(t, 100, s.Pricing.SurchargePercent)

	s = booking.Reduce(s, booking.DeliveryWindowChanged{Window: domain.TimeWindow{Date: "2026-03-02", Start: "09:00", End: "10:00"}})
	assert.False(t, s.DeliveryValid)
	assert.True(t, s.DeliveryError())

	s = booking.Reduce(s, booking.ContactChanged{Contact: booking.Contact{Name: "Bob"}})
	assert.False(t, s.FormComplete)

	s = booking.Reduce(s, booking.FieldChanged{Name: "instructions", Value: ""})
	assert.Contains(t, s.FieldErrors, "instructions")
}

// ---- ParseForm ---------------------------------------------------------------

func TestParseForm(t *testing.T) {
	v := url.Values{
		"adresse_depart":           {gare.Label},
		"depart_lon":               {"3.8806"},
		"depart_lat":               {"43.6046"},
		"adresse_arrivee":          {comedie.Label},
		"arrivee_lon":              {"3.8799"},
		"arrivee_lat":              {"43.6084"},
		"parcel_count":             {"2"},
		"poids_1":                  {"2,5"},
		"longueur_1":               {"-3"},
		"largeur_1":                {"abc"},
		"hauteur_1":                {"10"},
		"date_recuperation":        {"2026-03-02"},
		"heure_debut_recuperation": {"09:00"},
		"heure_fin_recuperation":   {"12:00"},
		"date_livraison":           {"2026-03-02"},
		"heure_debut_livraison":    {"13:00"},
		"heure_fin_livraison":      {"15:00"},
		"nom":                      {" Ada "},
		"email":                    {"ada@example.com"},
		"tel":                      {"0612345678"},
		"distance_km":              {"1.2"},
	}
	in := booking.ParseForm(v)

	require.NotNil(t, in.Pickup)
	assert.Equal(t, gare, *in.Pickup)
	require.NotNil(t, in.Delivery)
	assert.Equal(t, comedie, *in.Delivery)

	require.Len(t, in.Parcels, 2)
	assert.Equal(t, domain.Parcel{WeightKg: 2.5, HeightCm: 10, WeightSet: true}, in.Parcels[0])
	assert.False(t, in.Parcels[1].WeightSet)

	assert.Equal(t, "Ada", in.Contact.Name)
	assert.Equal(t, domain.Distance(1.2), in.Distance)
	assert.Equal(t, "09:00", in.PickupWindow.Start)
	assert.Equal(t, "15:00", in.DeliveryWindow.End)

	from, to, ok := booking.RouteCoordinates(v)
	require.True(t, ok)
	assert.Equal(t, gare.Coordinates, from)
	assert.Equal(t, comedie.Coordinates, to)
}

func TestParseForm_Defaults(t *testing.T) {
	in := booking.ParseForm(url.Values{"parcel_count": {"x"}})
	assert.Nil(t, in.Pickup)
	assert.Len(t, in.Parcels, 1)
	assert.Equal(t, domain.DistanceUnknown, in.Distance)

	in = booking.ParseForm(url.Values{"parcel_count": {"100000"}})
	assert.Len(t, in.Parcels, booking.MaxParcels)

	_, _, ok := booking.RouteCoordinates(url.Values{"depart_lon": {"1"}})
	assert.False(t, ok)

	s := booking.Compute(booking.ParseForm(url.Values{}))
	assert.Contains(t, s.FieldErrors, "adresse_depart")
	assert.Contains(t, s.FieldErrors, "heure_fin_livraison")
}

// ---- Summary -----------------------------------------------------------------

func TestSummary(t *testing.T) {
	s := booking.Compute(completeInputs())
	text := booking.Summary(s)

	assert.Contains(t, text, "Client: Ada")
	assert.Contains(t, text, "Pickup: Gare de Montpellier-Saint-Roch")
	assert.Contains(t, text, "Distance (bicycle): 12.00 km")
	assert.Contains(t, text, "Pickup window: 2026-03-02 between 09:00 and 12:00")
	assert.Contains(t, text, "  - Parcel 1: 10.00 kg, N/AxN/AxN/A cm")
	assert.Contains(t, text, "90.00 € (based on a rate of 5.00 €/km)")
	assert.Contains(t, text, "Surcharge (window < 4h / +50%): +30.00 €")
	assert.Contains(t, text,
		"origin=Gare%20de%20Montpellier-Saint-Roch&destination=Place%20de%20la%20Com%C3%A9die%2C%20Montpellier")
	assert.False(t, strings.Contains(text, "minimum"))
}

func TestSummary_EmptyWhenNotSubmittable(t *testing.T) {
	in := completeInputs()
	in.Calculating = true
	assert.Empty(t, booking.Summary(booking.Compute(in)))
}
