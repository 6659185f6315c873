package session

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"visapack/internal/trip"
)

// Traveler identifies one member of the travel party.
type Traveler struct {
	Name             string `json:"name"`
	Nationality      string `json:"nationality"`
	ResidenceCountry string `json:"residence_country"`
}

// DestinationInput is one leg of the trip as submitted by the caller.
type DestinationInput struct {
	Country string `json:"country"`
	City    string `json:"city"`
	Nights  int    `json:"nights"`
}

// Destination is a leg with computed check-in/check-out dates.
type Destination struct {
	Country  string `json:"country"`
	City     string `json:"city"`
	Nights   int    `json:"nights"`
	CheckIn  string `json:"check_in"`
	CheckOut string `json:"check_out"`
}

// Payload starts an interactive session.
type Payload struct {
	NumTravelers              int                `json:"num_travelers"`
	Travelers                 []Traveler         `json:"travelers"`
	DepartureCity             string             `json:"departure_city"`
	DepartureIATA             string             `json:"departure_iata,omitempty"`
	TripStartDate             string             `json:"trip_start_date"`
	Destinations              []DestinationInput `json:"destinations"`
	TripTheme                 string             `json:"trip_theme,omitempty"`
	PrimaryDestinationCountry string             `json:"primary_destination_country,omitempty"`
	PrimaryDestinationCity    string             `json:"primary_destination_city,omitempty"`
}

// Message is one entry in the session's append-only log.
type Message struct {
	Stage string `json:"stage"`
	Text  string `json:"text"`
}

// State is the shared object every stage consumes and republishes. It is
// the unit of checkpointing.
type State struct {
	ThreadID               string                        `json:"thread_id"`
	Messages               []Message                     `json:"messages"`
	NumTravelers           int                           `json:"num_travelers"`
	Travelers              []Traveler                    `json:"travelers"`
	DepartureCity          string                        `json:"departure_city"`
	DepartureIATA          string                        `json:"departure_iata,omitempty"`
	TripStartDate          string                        `json:"trip_start_date"`
	TripEndDate            string                        `json:"trip_end_date"`
	TotalNights            int                           `json:"total_nights"`
	Destinations           []Destination                 `json:"destinations"`
	TripTheme              string                        `json:"trip_theme,omitempty"`
	PrimaryDestination     string                        `json:"primary_destination"`
	PrimaryDestinationCity string                        `json:"primary_destination_city"`
	OutboundFlights        []trip.FlightOption           `json:"outbound_flights"`
	ReturnFlights          []trip.FlightOption           `json:"return_flights"`
	HotelsByCity           map[string][]trip.HotelOption `json:"hotels_by_city"`
	InsuranceOptions       []trip.InsuranceOption        `json:"insurance_options"`
	CoverLetter            string                        `json:"cover_letter"`
	ItineraryTable         string                        `json:"itinerary_table"`
	PreviewMarkdown        string                        `json:"preview_markdown"`
	CurrentStage           string                        `json:"current_stage"`
	IsComplete             bool                          `json:"is_complete"`
	Error                  string                        `json:"error,omitempty"`
}

// NewState validates the payload and derives the computed fields: per-leg
// check-in/out dates, total nights, the trip end date, and the primary
// destination (most nights, ties broken by submission order).
func NewState(threadID string, payload Payload) (State, error) {
	if len(payload.Destinations) == 0 {
		return State{}, fmt.Errorf("at least one destination is required")
	}
	if len(payload.Travelers) == 0 {
		return State{}, fmt.Errorf("at least one traveler is required")
	}
	start, err := time.Parse("2006-01-02", payload.TripStartDate)
	if err != nil {
		return State{}, fmt.Errorf("invalid trip_start_date %q: expected YYYY-MM-DD", payload.TripStartDate)
	}
	for _, d := range payload.Destinations {
		if d.Nights < 1 {
			return State{}, fmt.Errorf("destination %s requires at least one night", d.City)
		}
	}

	cursor := start
	totalNights := 0
	destinations := make([]Destination, 0, len(payload.Destinations))
	for _, d := range payload.Destinations {
		checkIn := cursor
		checkOut := cursor.AddDate(0, 0, d.Nights)
		cursor = checkOut
		totalNights += d.Nights
		destinations = append(destinations, Destination{
			Country:  d.Country,
			City:     d.City,
			Nights:   d.Nights,
			CheckIn:  checkIn.Format("2006-01-02"),
			CheckOut: checkOut.Format("2006-01-02"),
		})
	}

	primaryCountry := strings.TrimSpace(payload.PrimaryDestinationCountry)
	primaryCity := strings.TrimSpace(payload.PrimaryDestinationCity)
	if primaryCountry == "" {
		primaryCountry, primaryCity = determinePrimary(destinations)
	}

	numTravelers := payload.NumTravelers
	if numTravelers < len(payload.Travelers) {
		numTravelers = len(payload.Travelers)
	}

	return State{
		ThreadID:               threadID,
		Messages:               []Message{},
		NumTravelers:           numTravelers,
		Travelers:              payload.Travelers,
		DepartureCity:          payload.DepartureCity,
		DepartureIATA:          payload.DepartureIATA,
		TripStartDate:          payload.TripStartDate,
		TripEndDate:            start.AddDate(0, 0, totalNights).Format("2006-01-02"),
		TotalNights:            totalNights,
		Destinations:           destinations,
		TripTheme:              payload.TripTheme,
		PrimaryDestination:     primaryCountry,
		PrimaryDestinationCity: primaryCity,
		HotelsByCity:           map[string][]trip.HotelOption{},
		CurrentStage:           StageStart,
	}, nil
}

// determinePrimary picks the destination with the most nights; ties keep
// submission order.
func determinePrimary(destinations []Destination) (country, city string) {
	ordered := make([]Destination, len(destinations))
	copy(ordered, destinations)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Nights > ordered[j].Nights
	})
	return ordered[0].Country, ordered[0].City
}

func (s *State) appendMessage(stage, text string) {
	s.Messages = append(s.Messages, Message{Stage: stage, Text: text})
}
