package pricing

import "fmt"

// Lines renders the breakdown the way it is shown next to the price:
// rate, base price, optional surcharge and subtotal, optional minimum note.
func (r Result) Lines() []string {
	rate := fmt.Sprintf("Rate per km: %.2f €", r.RatePerKm)
	if r.Elevated && r.TariffReason != "" {
		rate += " " + r.TariffReason
	}
	lines := []string{
		rate,
		fmt.Sprintf("Base price: %.2f km × %.2f €/km = %.2f €", r.DistanceKm, r.RatePerKm, r.BasePrice),
	}
	if r.SurchargePercent > 0 {
		lines = append(lines,
			fmt.Sprintf("Surcharge (%s / +%d%%): +%.2f €", r.SurchargeReason, r.SurchargePercent, r.SurchargeAmount),
			fmt.Sprintf("Subtotal: %.2f € + %.2f € = %.2f €", r.BasePrice, r.SurchargeAmount, r.Subtotal),
		)
	}
	if r.MinimumApplied {
		kind := "standard"
		if r.Urgent {
			kind = "urgent"
		}
		lines = append(lines, fmt.Sprintf("A minimum of %.2f € applies to a %s delivery.", r.MinimumPrice, kind))
	}
	return lines
}

// Total formats the final price.
func (r Result) Total() string {
	return fmt.Sprintf("%.2f €", r.FinalPrice)
}
