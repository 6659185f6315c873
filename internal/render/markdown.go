package render

import (
	"fmt"
	"strings"

	"visapack/internal/trip"
)

// PackMarkdown assembles the full visa pack as one markdown document:
// cover letter, itinerary table, option summaries, and the checklist.
func PackMarkdown(plan trip.TripPlan) string {
	req := plan.Request
	var b strings.Builder

	fmt.Fprintf(&b, "# Visa Application Pack: %s\n\n", req.Primary())
	fmt.Fprintf(&b, "**Trip dates:** %s to %s  \n", req.StartDate, req.EndDate)
	fmt.Fprintf(&b, "**Travellers:** %d  \n", req.TravellersCount)
	if plan.Rules != nil {
		fmt.Fprintf(&b, "**Visa type:** %s  \n", plan.Rules.VisaType)
	}
	fmt.Fprintf(&b, "**Budget per person:** %s\n", budgetLine(plan))

	if plan.Documents != nil {
		b.WriteString("\n## Cover Letter\n\n")
		b.WriteString(plan.Documents.CoverLetter)
		b.WriteString("\n")

		b.WriteString("\n## Travel Itinerary\n\n")
		b.WriteString(plan.Documents.TravelItineraryText)
		b.WriteString("\n")

		if plan.Documents.FlightsSummary != "" {
			b.WriteString("\n## Flights\n\n")
			for _, line := range strings.Split(plan.Documents.FlightsSummary, "\n") {
				b.WriteString("- " + line + "\n")
			}
		}
		if plan.Documents.HotelsSummary != "" {
			b.WriteString("\n## Hotels\n\n")
			for _, line := range strings.Split(plan.Documents.HotelsSummary, "\n") {
				b.WriteString("- " + line + "\n")
			}
		}
	}

	if len(plan.InsuranceOptions) > 0 {
		b.WriteString("\n## Insurance Options\n\n")
		for _, option := range plan.InsuranceOptions {
			fmt.Fprintf(&b, "- %s %s: EUR %d coverage, ₹%d per person (%s)\n",
				option.Provider, option.PlanName, option.CoverageEUR,
				int(option.PricePerPerson), option.BookingURL)
		}
	}

	if plan.Documents != nil && plan.Documents.Checklist != "" {
		b.WriteString("\n## Document Checklist\n\n")
		b.WriteString(plan.Documents.Checklist)
		b.WriteString("\n")
	}

	if len(plan.ValidationIssues) > 0 {
		b.WriteString("\n## Advisory Notes\n\n")
		for _, issue := range plan.ValidationIssues {
			b.WriteString("- " + issue + "\n")
		}
	}
	return b.String()
}

func budgetLine(plan trip.TripPlan) string {
	if plan.BudgetPerPersonMaxINR != nil {
		return fmt.Sprintf("₹%d – ₹%d", plan.BudgetPerPersonMinINR, *plan.BudgetPerPersonMaxINR)
	}
	return fmt.Sprintf("₹%d and above", plan.BudgetPerPersonMinINR)
}
