package session

import (
	"context"
	"fmt"
	"log"
	"strings"

	"visapack/internal/research"
	"visapack/internal/trip"
)

// Stage names, in execution order. The sequence is strictly linear: one
// initial state, one terminal state, no retries or branches.
const (
	StageStart              = "start"
	StageFlightResearch     = "flight_research"
	StageHotelResearch      = "hotel_research"
	StageInsuranceResearch  = "insurance_research"
	StageDocumentGeneration = "document_generation"
	StagePreview            = "preview"
	StageFinalOutput        = "final_output"
	StageComplete           = "complete"
)

// StageOrder lists the transitions the machine walks through.
var StageOrder = []string{
	StageFlightResearch,
	StageHotelResearch,
	StageInsuranceResearch,
	StageDocumentGeneration,
	StagePreview,
	StageFinalOutput,
}

func (m *Machine) flightResearch(ctx context.Context, state *State) {
	firstDest := state.Destinations[0]
	lastDest := state.Destinations[len(state.Destinations)-1]

	outboundQuery := fmt.Sprintf("best cheap flights %s to %s %s nonstop or 1 stop booking",
		state.DepartureCity, firstDest.City, state.TripStartDate)
	returnQuery := fmt.Sprintf("best cheap flights %s to %s %s nonstop or 1 stop booking",
		lastDest.City, state.DepartureCity, state.TripEndDate)

	outboundResults := m.search(ctx, outboundQuery, research.SearchOptions{
		NumResults: 8,
		Summary:    flightSummaryRequest(state.DepartureCity, firstDest.City, state.TripStartDate),
	})
	returnResults := m.search(ctx, returnQuery, research.SearchOptions{
		NumResults: 8,
		Summary:    flightSummaryRequest(lastDest.City, state.DepartureCity, state.TripEndDate),
	})

	state.OutboundFlights = buildFlights(outboundResults, state.TripStartDate)
	state.ReturnFlights = buildFlights(returnResults, state.TripEndDate)

	state.appendMessage(StageFlightResearch, fmt.Sprintf(
		"Flight research complete. Prioritized shortest + cheapest options: outbound %s → %s on %s, return %s → %s on %s.",
		state.DepartureCity, firstDest.City, state.TripStartDate,
		lastDest.City, state.DepartureCity, state.TripEndDate))
}

func (m *Machine) hotelResearch(ctx context.Context, state *State) {
	hotelsByCity := map[string][]trip.HotelOption{}
	for _, dest := range state.Destinations {
		query := fmt.Sprintf("well rated affordable hotels %s %s %s %d nights booking %s",
			dest.City, dest.Country, dest.CheckIn, dest.Nights, state.TripTheme)
		results := m.search(ctx, query, research.SearchOptions{
			NumResults: 8,
			Summary:    hotelSummaryRequest(dest.City, dest.Country, dest.CheckIn, dest.CheckOut),
		})
		hotelsByCity[dest.City] = buildHotels(results, dest)
	}
	state.HotelsByCity = hotelsByCity

	cities := make([]string, 0, len(state.Destinations))
	for _, dest := range state.Destinations {
		cities = append(cities, dest.City)
	}
	state.appendMessage(StageHotelResearch, "Hotel research complete for "+strings.Join(cities, ", ")+".")
}

func (m *Machine) insuranceResearch(ctx context.Context, state *State) {
	residence := state.Travelers[0].ResidenceCountry
	query := fmt.Sprintf("Schengen visa travel insurance %s Europe %d days €30000 coverage",
		residence, state.TotalNights)
	results := m.search(ctx, query, research.SearchOptions{NumResults: 6})

	var options []trip.InsuranceOption
	for i, res := range results {
		if i >= 3 {
			break
		}
		provider := res.Title
		if provider == "" {
			provider = "Insurance Provider"
		}
		options = append(options, trip.InsuranceOption{
			Provider:       provider,
			CoverageEUR:    30_000,
			PricePerPerson: research.ExtractPrice(res.Content),
			Features:       []string{"Medical coverage", "Trip cancellation", "Baggage protection"},
			BookingURL:     res.URL,
		})
	}
	state.InsuranceOptions = options
	state.appendMessage(StageInsuranceResearch, "Insurance research complete. Identified compliant plans.")
}

func (m *Machine) documentGeneration(ctx context.Context, state *State) {
	names := make([]string, 0, len(state.Travelers))
	for _, t := range state.Travelers {
		names = append(names, t.Name)
	}
	var destLines []string
	for _, d := range state.Destinations {
		destLines = append(destLines, fmt.Sprintf("- %s (%s): %d nights (%s → %s)",
			d.Country, d.City, d.Nights, d.CheckIn, d.CheckOut))
	}
	destinationsSummary := strings.Join(destLines, "\n")

	coverPrompt := fmt.Sprintf(`Generate a formal visa cover letter with these details:

Traveler(s): %s
Nationality: %s
Residence: %s
Primary Destination: %s
Trip Dates: %s to %s
Total Duration: %d nights

Destinations:
%s

Budget approach: Value-focused itinerary using economical flights and well-rated stays.
Purpose: Tourism with cultural immersion.

Formatting rules:
- Start directly with "The Consular Officer, %s Embassy/Consulate" as the opening line.
- Do NOT include applicant contact details or filler placeholders at the top.
- Conclude with traveler names only, no signature/contact sections.
- Core sections: greeting, visit purpose, itinerary highlights, funding/ties to home, closing request.`,
		strings.Join(names, ", "),
		state.Travelers[0].Nationality,
		state.Travelers[0].ResidenceCountry,
		state.PrimaryDestination,
		state.TripStartDate, state.TripEndDate,
		state.TotalNights,
		destinationsSummary,
		state.PrimaryDestination,
	)

	theme := state.TripTheme
	if theme == "" {
		theme = "Culture & History"
	}
	itineraryPrompt := fmt.Sprintf(`Generate a day-by-day itinerary table in Markdown with columns Date | Location | Planned Activities.
Trip Theme: %s
Dates and destinations:
%s

Include flights on arrival/departure days, use real attractions, keep activities concise.`,
		theme, destinationsSummary)

	// Generation failures must not break the stage chain: the state carries
	// the error and placeholder text so the session still reaches complete.
	coverLetter, err := m.generator.Generate(ctx, coverPrompt)
	if err != nil {
		log.Printf("session: cover letter generation failed thread=%s: %v", state.ThreadID, err)
		state.Error = fmt.Sprintf("cover letter generation failed: %v", err)
		coverLetter = "[Cover letter unavailable. Regenerate this session once the text service recovers.]"
	}
	itineraryTable, err := m.generator.Generate(ctx, itineraryPrompt)
	if err != nil {
		log.Printf("session: itinerary table generation failed thread=%s: %v", state.ThreadID, err)
		if state.Error == "" {
			state.Error = fmt.Sprintf("itinerary generation failed: %v", err)
		}
		itineraryTable = "[Itinerary table unavailable. Regenerate this session once the text service recovers.]"
	}
	state.CoverLetter = strings.TrimSpace(coverLetter)
	state.ItineraryTable = strings.TrimSpace(itineraryTable)
	state.appendMessage(StageDocumentGeneration, "Documentation generated (cover letter + itinerary).")
}

func (m *Machine) preview(_ context.Context, state *State) {
	names := make([]string, 0, len(state.Travelers))
	for _, t := range state.Travelers {
		names = append(names, t.Name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Visa Application Pack\n\n")
	fmt.Fprintf(&b, "**Travelers:** %s\n", strings.Join(names, ", "))
	fmt.Fprintf(&b, "**Primary Destination:** %s\n", state.PrimaryDestination)
	fmt.Fprintf(&b, "**Trip Duration:** %s → %s (%d nights)\n\n", state.TripStartDate, state.TripEndDate, state.TotalNights)

	b.WriteString("### Flights\n")
	for _, f := range state.OutboundFlights {
		fmt.Fprintf(&b, "- %s → %s\n", f.Airline, f.BookingURL)
	}
	b.WriteString("\n### Hotels\n")
	for _, dest := range state.Destinations {
		hotels := state.HotelsByCity[dest.City]
		if len(hotels) == 0 {
			continue
		}
		fmt.Fprintf(&b, "**%s:**\n", dest.City)
		for _, h := range hotels {
			fmt.Fprintf(&b, "- %s → %s\n", h.Name, h.BookingURL)
		}
	}
	b.WriteString("\n### Insurance\n")
	for _, option := range state.InsuranceOptions {
		fmt.Fprintf(&b, "- %s → %s\n", option.Provider, option.BookingURL)
	}
	fmt.Fprintf(&b, "\n### Cover Letter\n%s\n", state.CoverLetter)
	fmt.Fprintf(&b, "\n### Itinerary\n%s\n", state.ItineraryTable)

	state.PreviewMarkdown = b.String()
	state.appendMessage(StagePreview, "Preview generated.")
}

func (m *Machine) finalOutput(_ context.Context, state *State) {
	state.IsComplete = true
	state.appendMessage(StageFinalOutput, "Visa pack complete. Download the cover letter and itinerary from this session.")
}

// search wraps the provider so connectivity failures degrade to "no
// results" at the stage boundary.
func (m *Machine) search(ctx context.Context, query string, opts research.SearchOptions) []research.RawResult {
	results, err := m.searcher.Search(ctx, query, opts)
	if err != nil {
		log.Printf("session: search failed query=%q: %v", query, err)
		return nil
	}
	return results
}

func buildFlights(results []research.RawResult, targetDate string) []trip.FlightOption {
	var candidates []research.FlightCandidate
	for _, res := range results {
		candidates = append(candidates, research.NormalizeFlights(res, targetDate)...)
	}
	ranked := research.RankFlights(candidates, research.MaxRankedFlights)
	if len(ranked) > 0 {
		return ranked
	}
	return research.RawFallbackFlights(results, research.MaxRankedFlights, targetDate)
}

func buildHotels(results []research.RawResult, dest Destination) []trip.HotelOption {
	var candidates []research.HotelCandidate
	for _, res := range results {
		candidates = append(candidates, research.NormalizeHotels(res, dest.City, dest.Nights)...)
	}
	ranked := research.RankHotels(candidates, research.MaxRankedHotels)
	if len(ranked) > 0 {
		return applyStayDates(ranked, dest)
	}
	return applyStayDates(research.RawFallbackHotels(results, research.MaxRankedHotels, dest.City, dest.Nights), dest)
}

func applyStayDates(hotels []trip.HotelOption, dest Destination) []trip.HotelOption {
	for i := range hotels {
		hotels[i].CheckIn = dest.CheckIn
		hotels[i].CheckOut = dest.CheckOut
	}
	return hotels
}

func flightSummaryRequest(from, to, date string) *research.SummaryRequest {
	return &research.SummaryRequest{
		Query: fmt.Sprintf(
			"Return up to five specific flight options for travel from %s to %s around %s in JSON under the key 'flights'. "+
				"Include airline, flight_number if stated, departure_airport, arrival_airport, departure_time, arrival_time, "+
				"duration, stops, price, and booking_url. Use ISO datetimes when possible.",
			from, to, date),
		Schema: map[string]any{
			"$schema": "http://json-schema.org/draft-07/schema#",
			"title":   "FlightsResponse",
			"type":    "object",
			"properties": map[string]any{
				"flights": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"airline":           map[string]any{"type": "string"},
							"flight_number":     map[string]any{"type": "string"},
							"departure_airport": map[string]any{"type": "string"},
							"arrival_airport":   map[string]any{"type": "string"},
							"departure_time":    map[string]any{"type": "string"},
							"arrival_time":      map[string]any{"type": "string"},
							"duration":          map[string]any{"type": "string"},
							"stops":             map[string]any{"type": "integer"},
							"price":             map[string]any{"type": "string"},
							"booking_url":       map[string]any{"type": "string"},
						},
						"required": []string{"airline", "departure_airport", "arrival_airport"},
					},
				},
			},
			"required": []string{"flights"},
		},
	}
}

func hotelSummaryRequest(city, country, checkIn, checkOut string) *research.SummaryRequest {
	return &research.SummaryRequest{
		Query: fmt.Sprintf(
			"Return up to four hotel recommendations in %s, %s between %s and %s as JSON under key 'hotels'. "+
				"Provide name, neighborhood_or_location, star_rating (e.g., 4-star or 4.5/5), nightly_rate, key_features, and booking_url.",
			city, country, checkIn, checkOut),
		Schema: map[string]any{
			"$schema": "http://json-schema.org/draft-07/schema#",
			"title":   "HotelResponse",
			"type":    "object",
			"properties": map[string]any{
				"hotels": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"name":                     map[string]any{"type": "string"},
							"neighborhood_or_location": map[string]any{"type": "string"},
							"star_rating":              map[string]any{"type": "string"},
							"nightly_rate":             map[string]any{"type": "string"},
							"key_features":             map[string]any{"type": "string"},
							"booking_url":              map[string]any{"type": "string"},
						},
						"required": []string{"name"},
					},
				},
			},
			"required": []string{"hotels"},
		},
	}
}
