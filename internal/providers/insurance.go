package providers

import (
	"strings"

	"visapack/internal/trip"
)

// Insurance plans are synthesized rather than fetched: the catalog is a
// fixed two-plan spread priced from the budget band, the second plan at
// 1.4x the first.

var insuranceBandBase = map[string]float64{
	"low":    2_000,
	"medium": 3_500,
	"high":   5_500,
}

// InsurancePlans returns the two canonical plan offers for a trip. The
// essential plan meets the Schengen minimum coverage; the plus plan adds
// headroom and extra features.
func InsurancePlans(req trip.TripRequest) []trip.InsuranceOption {
	band := strings.ToLower(strings.TrimSpace(req.BudgetBand))
	base, ok := insuranceBandBase[band]
	if !ok {
		base = insuranceBandBase["medium"]
	}
	return []trip.InsuranceOption{
		{
			Provider:       "SafeVoyage",
			PlanName:       "Essential",
			CoverageEUR:    30_000,
			PricePerPerson: base,
			Features: []string{
				"Medical expenses up to EUR 30,000",
				"Emergency evacuation",
				"Trip cancellation cover",
			},
			BookingURL: "https://www.safevoyage.example/essential",
		},
		{
			Provider:       "WanderShield",
			PlanName:       "Plus",
			CoverageEUR:    50_000,
			PricePerPerson: base * 1.4,
			Features: []string{
				"Medical expenses up to EUR 50,000",
				"Emergency evacuation",
				"Trip cancellation cover",
				"Baggage loss and delay",
				"Adventure activities rider",
			},
			BookingURL: "https://www.wandershield.example/plus",
		},
	}
}
