package booking

import (
	"fmt"
	"net/url"
	"strings"
)

const itineraryBase = "https://www.google.com/maps/dir/?api=1&travelmode=bicycling"

// Summary renders the order summary sent along with the booking. It returns
// "" unless the state is submittable.
func Summary(s State) string {
	if !s.Submittable {
		return ""
	}
	p := s.Pricing

	var b strings.Builder
	b.WriteString("--- Order summary ---\n")
	fmt.Fprintf(&b, "Client: %s\n", s.Contact.Name)
	fmt.Fprintf(&b, "Email: %s\n", s.Contact.Email)
	fmt.Fprintf(&b, "Phone: %s\n", s.Contact.Phone)

	b.WriteString("\n--- Route ---\n")
	fmt.Fprintf(&b, "Pickup: %s\n", s.Pickup.Label)
	fmt.Fprintf(&b, "Delivery: %s\n", s.Delivery.Label)
	fmt.Fprintf(&b, "Distance (bicycle): %s\n", formatKm(float64(s.Distance)))
	fmt.Fprintf(&b, "Pickup window: %s\n", windowText(s.PickupWindow.Date, s.PickupWindow.Start, s.PickupWindow.End))
	fmt.Fprintf(&b, "Delivery window: %s\n", windowText(s.DeliveryWindow.Date, s.DeliveryWindow.Start, s.DeliveryWindow.End))

	b.WriteString("\n--- Parcels ---\n")
	fmt.Fprintf(&b, "Number of parcels: %d\n", len(s.Parcels))
	for i, parcel := range s.Parcels {
		fmt.Fprintf(&b, "  - Parcel %d: %.2f kg, %sx%sx%s cm\n", i+1, parcel.WeightKg,
			dimension(parcel.LengthCm), dimension(parcel.WidthCm), dimension(parcel.HeightCm))
	}
	fmt.Fprintf(&b, "Total weight: %.2f kg\n", s.TotalWeightKg)

	b.WriteString("\n--- Estimated total ---\n")
	fmt.Fprintf(&b, "%s (based on a rate of %.2f €/km)\n", p.Total(), p.RatePerKm)
	fmt.Fprintf(&b, "Trip price: %.2f €\n", p.BasePrice)
	if p.SurchargePercent > 0 {
		fmt.Fprintf(&b, "Surcharge (%s / +%d%%): +%.2f €\n", p.SurchargeReason, p.SurchargePercent, p.SurchargeAmount)
	}
	if p.MinimumApplied {
		fmt.Fprintf(&b, "A minimum of %.2f € was applied.\n", p.MinimumPrice)
	}

	b.WriteString("\n--- Quick links ---\n")
	fmt.Fprintf(&b, "Itinerary (bicycle): %s\n", ItineraryURL(s.Pickup.Label, s.Delivery.Label))
	return b.String()
}

// ItineraryURL links to a bicycle itinerary between two labels.
func ItineraryURL(origin, destination string) string {
	return itineraryBase + "&origin=" + escape(origin) + "&destination=" + escape(destination)
}

func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func windowText(date, start, end string) string {
	return fmt.Sprintf("%s between %s and %s", date, start, end)
}

func dimension(cm float64) string {
	if cm == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%g", cm)
}

func formatKm(km float64) string {
	return fmt.Sprintf("%.2f km", km)
}
