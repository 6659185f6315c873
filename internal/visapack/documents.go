package visapack

import (
	"context"
	"fmt"
	"strings"

	"visapack/internal/trip"
)

// GenerateDocuments assembles the supporting documents for the pack. The
// cover letter is generated text; everything else is deterministic assembly
// from the plan. This is the only stage allowed to fail the pipeline.
func GenerateDocuments(ctx context.Context, gen TextGenerator, plan *trip.TripPlan) (*trip.VisaPackDocuments, error) {
	coverLetter, err := generateCoverLetter(ctx, gen, plan)
	if err != nil {
		return nil, err
	}
	return &trip.VisaPackDocuments{
		CoverLetter:         strings.TrimSpace(coverLetter),
		TravelItineraryText: itineraryTable(plan),
		FlightsSummary:      flightsSummary(plan.Flights),
		HotelsSummary:       hotelsSummary(plan.Hotels),
		Checklist:           checklist(plan.Rules),
	}, nil
}

func generateCoverLetter(ctx context.Context, gen TextGenerator, plan *trip.TripPlan) (string, error) {
	req := plan.Request
	names := req.TravellerNames
	primary := req.Primary()

	flightLine := ""
	if len(plan.Flights) > 0 {
		outbound := plan.Flights[0]
		inbound := plan.Flights[len(plan.Flights)-1]
		pronoun := "I"
		if req.TravellersCount > 1 {
			pronoun = "We"
		}
		flightLine = fmt.Sprintf(
			"%s plan to arrive via %s flight from %s to %s on %s and depart on %s flight from %s back to %s on %s.",
			pronoun,
			outbound.Airline, outbound.FromAirport, outbound.ToAirport,
			trip.FriendlyDateTime(outbound.DepartTime),
			inbound.Airline, inbound.ToAirport, inbound.FromAirport,
			trip.FriendlyDateTime(inbound.DepartTime),
		)
	}
	if flightLine == "" {
		flightLine = "Reservations are attached."
	}

	mainApplicant := "[Applicant's Full Name]"
	travellersLine := "Main applicant name to be inserted manually; travelling alone or with family/friends."
	others := "None specified"
	if len(names) > 0 {
		mainApplicant = names[0]
		if len(names) == 1 {
			travellersLine = fmt.Sprintf("Main applicant: %s (travelling alone).", mainApplicant)
		} else {
			others = strings.Join(names[1:], ", ")
			travellersLine = fmt.Sprintf("Main applicant: %s. Additional travellers: %s.", mainApplicant, others)
		}
	}

	visaType := "Schengen short-stay (tourism)"
	if plan.Rules != nil {
		visaType = plan.Rules.VisaType
	}

	prompt := fmt.Sprintf(`You are generating a professional cover letter for a visa application.

Address it to the Consular Officer of %s.

Traveller details:
- Main applicant: %s
- %s
- Additional travellers (if any): %s
- Travel party size: %d
- Nationality: %s
- Country of residence: %s
- Departure city: %s
- Destination countries: %s
- Trip dates: %s to %s
- Purpose: %s
- Budget band per person: %s
- Flights summary: %s

Visa rules context:
- Visa type: %s
- Key requirement: Travel insurance, flight and hotel reservations, proof of funds.

Write a concise, embassy-appropriate cover letter:
- Addressed to "The Consular Officer, Embassy/Consulate of %s".
- Clearly states purpose, dates, main destinations, and travel companions, referencing the flight summary if provided.
- Mention that the applicant will fund the trip and attach supporting documents.
- Refer to bookings as reservations/plans. Do not claim they are fully ticketed.
- Polite, clear, neutral tone.
- No invented employers/banks/salaries. Use placeholders as needed.
- End with a polite closing.

Output: plain text letter, no extra commentary.`,
		primary,
		mainApplicant, travellersLine, others,
		req.TravellersCount, req.Nationality, req.ResidenceCountry, req.DepartureCity,
		strings.Join(req.DestinationCountries, ", "),
		req.StartDate, req.EndDate, req.Purpose, req.BudgetBand,
		flightLine, visaType, primary,
	)

	letter, err := gen.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("cover letter generation failed: %w", err)
	}
	if strings.TrimSpace(letter) == "" {
		return "", fmt.Errorf("cover letter generation failed: empty response")
	}
	return letter, nil
}

func itineraryTable(plan *trip.TripPlan) string {
	lines := []string{
		"| Date | City | Stay Options | Activities & Notes | Transport |",
		"| --- | --- | --- | --- | --- |",
	}
	for _, day := range plan.Itinerary {
		stayText := "See recommended stays"
		if len(day.StayOptions) > 0 {
			stayText = strings.Join(day.StayOptions, "<br>")
		}
		activitiesText := day.Summary
		if len(day.Activities) > 0 {
			activitiesText = strings.Join(day.Activities, "<br>")
		}
		transportText := day.Transport
		if transportText == "" {
			transportText = "Local transit / walking"
		}
		lines = append(lines, fmt.Sprintf("| %s | %s | %s | %s | %s |",
			trip.FriendlyDate(day.Date),
			cellSafe(day.City),
			cellSafe(stayText),
			cellSafe(activitiesText),
			cellSafe(transportText),
		))
	}
	return strings.Join(lines, "\n")
}

// cellSafe keeps free text from breaking the markdown table layout.
func cellSafe(s string) string {
	return strings.ReplaceAll(s, "|", "/")
}

func flightsSummary(flights []trip.FlightOption) string {
	lines := make([]string, 0, len(flights))
	for _, f := range flights {
		lines = append(lines, fmt.Sprintf("%s: %s → %s, Depart: %s, Arrive: %s, Approx: ₹%d (link: %s)",
			f.Label, f.FromAirport, f.ToAirport,
			trip.FriendlyDateTime(f.DepartTime),
			trip.FriendlyDateTime(f.ArriveTime),
			int(f.Price), f.BookingURL))
	}
	return strings.Join(lines, "\n")
}

func hotelsSummary(hotels []trip.HotelOption) string {
	lines := make([]string, 0, len(hotels))
	for _, h := range hotels {
		lines = append(lines, fmt.Sprintf("%s (%s) – %s to %s, Approx: ₹%d/night, Address: %s, link: %s",
			h.Name, h.City,
			trip.FriendlyDate(h.CheckIn), trip.FriendlyDate(h.CheckOut),
			int(h.NightlyPrice), h.Address, h.BookingURL))
	}
	return strings.Join(lines, "\n")
}

func checklist(rules *trip.VisaRules) string {
	lines := []string{"Core Required Documents:"}
	if rules != nil {
		for _, item := range rules.TypicalRequiredDocs {
			lines = append(lines, "- [ ] "+item)
		}
	} else {
		lines = append(lines, "- [ ] Check latest requirements with consulate/VFS.")
	}
	return strings.Join(lines, "\n")
}
