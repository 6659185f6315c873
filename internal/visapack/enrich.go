package visapack

import (
	"fmt"
	"strings"

	"visapack/internal/trip"
)

// EnrichItinerary attaches stay options, themed activities, and transport
// notes onto each itinerary day, in date order. The first day gets the
// inbound flight arrival note, the last day the outbound departure note.
func EnrichItinerary(plan *trip.TripPlan) {
	if len(plan.Itinerary) == 0 {
		return
	}

	hotelsByCity := map[string][]trip.HotelOption{}
	for _, hotel := range plan.Hotels {
		hotelsByCity[hotel.City] = append(hotelsByCity[hotel.City], hotel)
	}

	theme := strings.ToLower(plan.Request.TripTheme)
	flights := plan.Flights

	for idx := range plan.Itinerary {
		day := &plan.Itinerary[idx]

		cityHotels := hotelsByCity[day.City]
		if len(cityHotels) == 0 && len(plan.Hotels) > 0 {
			cityHotels = plan.Hotels
			if len(cityHotels) > 3 {
				cityHotels = cityHotels[:3]
			}
		}
		if len(cityHotels) > 2 {
			cityHotels = cityHotels[:2]
		}
		day.StayOptions = day.StayOptions[:0]
		for _, hotel := range cityHotels {
			day.StayOptions = append(day.StayOptions, formatHotelOption(hotel))
		}
		day.Activities = themedActivitySuggestions(day.City, theme)

		switch {
		case idx == 0 && len(flights) > 0:
			inbound := flights[0]
			arrivalNote := fmt.Sprintf(
				"Arrive via %s flight from %s, departing %s and landing %s.",
				inbound.Airline, inbound.FromAirport,
				trip.FriendlyDateTime(inbound.DepartTime),
				trip.FriendlyDateTime(inbound.ArriveTime),
			)
			day.Activities = append([]string{arrivalNote}, day.Activities...)
			day.Transport = fmt.Sprintf("Arrival flight into %s.", inbound.ToAirport)
		case idx > 0:
			day.Transport = transportSuggestion(plan.Itinerary[idx-1].City, day.City)
		default:
			day.Transport = "Local transit / walking"
		}

		if idx == len(plan.Itinerary)-1 && len(flights) > 0 {
			outbound := flights[len(flights)-1]
			departureNote := fmt.Sprintf(
				"Depart via %s flight from %s to %s at %s.",
				outbound.Airline, outbound.ToAirport, outbound.FromAirport,
				trip.FriendlyDateTime(outbound.DepartTime),
			)
			day.Activities = append(day.Activities, departureNote)
			day.Transport = fmt.Sprintf("Departure flight from %s.", outbound.ToAirport)
		}
	}
}

func formatHotelOption(hotel trip.HotelOption) string {
	tier := hotel.Board
	if tier == "" {
		tier = "standard"
	}
	return fmt.Sprintf("%s (₹%d/night, %s, link: %s)",
		hotel.Name, int(hotel.NightlyPrice), titleCase(tier), hotel.BookingURL)
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func themedActivitySuggestions(city, theme string) []string {
	baseCity := city
	if baseCity == "" {
		baseCity = "the city"
	}
	switch {
	case strings.Contains(theme, "gastronomic") || strings.Contains(theme, "food"):
		return []string{
			fmt.Sprintf("Guided food tour sampling bakeries and markets around %s.", baseCity),
			"Reserve a chef-led tasting menu or cooking class highlighting regional dishes.",
		}
	case strings.Contains(theme, "grand") || strings.Contains(theme, "history") || strings.Contains(theme, "culture"):
		return []string{
			fmt.Sprintf("Morning museum and landmark circuit through %s with guided commentary.", baseCity),
			"Evening heritage walk plus classical performance or gallery visit.",
		}
	case theme != "":
		return []string{
			fmt.Sprintf("Activities tailored to '%s' in %s: curated tours, workshops, or local meetups.", theme, baseCity),
			fmt.Sprintf("Free time to pursue personal interests connected to '%s'.", theme),
		}
	default:
		return []string{
			fmt.Sprintf("Explore iconic sights and neighborhoods around %s at a comfortable pace.", baseCity),
			"Enjoy local cafes, markets, and a sunset viewpoint or river cruise.",
		}
	}
}

func transportSuggestion(prevCity, nextCity string) string {
	if prevCity == nextCity {
		return "Local transit / walking day."
	}
	return fmt.Sprintf("Travel from %s to %s via train or short intra-Europe flight.", prevCity, nextCity)
}
