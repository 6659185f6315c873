package trip

import (
	"fmt"
	"strings"
	"time"
)

// Canonical option and plan types shared by the batch pipeline and the
// interactive session machine. Prices are point-in-time estimates in the
// reporting currency (INR for provider-sourced data); free-text extraction
// keeps the value as written on the source page.

type TripRequest struct {
	Nationality               string   `json:"nationality"`
	ResidenceCountry          string   `json:"residence_country"`
	DepartureCity             string   `json:"departure_city"`
	DestinationCountries      []string `json:"destination_countries"`
	PrimaryDestinationCountry string   `json:"primary_destination_country"`
	StartDate                 string   `json:"start_date"`
	EndDate                   string   `json:"end_date"`
	Purpose                   string   `json:"purpose"`
	BudgetBand                string   `json:"budget_band"`
	TravellersCount           int      `json:"travellers_count"`
	TravellerNames            []string `json:"traveller_names,omitempty"`
	Notes                     string   `json:"notes,omitempty"`
	TripTheme                 string   `json:"trip_theme,omitempty"`
}

func (r TripRequest) Validate() error {
	if len(r.DestinationCountries) == 0 {
		return fmt.Errorf("at least one destination country is required")
	}
	start, err := time.Parse("2006-01-02", r.StartDate)
	if err != nil {
		return fmt.Errorf("invalid start_date %q: expected YYYY-MM-DD", r.StartDate)
	}
	end, err := time.Parse("2006-01-02", r.EndDate)
	if err != nil {
		return fmt.Errorf("invalid end_date %q: expected YYYY-MM-DD", r.EndDate)
	}
	if end.Before(start) {
		return fmt.Errorf("end_date %s is before start_date %s", r.EndDate, r.StartDate)
	}
	if r.TravellersCount < 1 {
		return fmt.Errorf("travellers_count must be >= 1")
	}
	return nil
}

// Primary returns the primary destination country, defaulting to the first
// destination when unset.
func (r TripRequest) Primary() string {
	if strings.TrimSpace(r.PrimaryDestinationCountry) != "" {
		return r.PrimaryDestinationCountry
	}
	return r.DestinationCountries[0]
}

type VisaRules struct {
	VisaType                string   `json:"visa_type"`
	MinInsuranceCoverageEUR int      `json:"min_insurance_coverage_eur"`
	TypicalRequiredDocs     []string `json:"typical_required_docs"`
	Notes                   string   `json:"notes,omitempty"`
}

type DayPlan struct {
	Date        string   `json:"date"`
	City        string   `json:"city"`
	Summary     string   `json:"summary"`
	StayOptions []string `json:"stay_options,omitempty"`
	Activities  []string `json:"activities,omitempty"`
	Transport   string   `json:"transport,omitempty"`
}

type FlightOption struct {
	Label        string  `json:"label,omitempty"`
	Airline      string  `json:"airline"`
	FlightNumber *string `json:"flight_number,omitempty"`
	FromAirport  string  `json:"from_airport,omitempty"`
	ToAirport    string  `json:"to_airport,omitempty"`
	DepartTime   string  `json:"depart_datetime"`
	ArriveTime   string  `json:"arrive_datetime"`
	Duration     string  `json:"duration,omitempty"`
	Stops        int     `json:"stops"`
	Price        float64 `json:"price"`
	BookingURL   string  `json:"booking_link"`
}

type HotelOption struct {
	Name         string  `json:"name"`
	City         string  `json:"city"`
	Address      string  `json:"address,omitempty"`
	StarRating   int     `json:"star_rating"`
	CheckIn      string  `json:"check_in,omitempty"`
	CheckOut     string  `json:"check_out,omitempty"`
	NightlyPrice float64 `json:"nightly_price"`
	TotalCost    float64 `json:"total_cost"`
	Board        string  `json:"board_type,omitempty"`
	BookingURL   string  `json:"booking_link"`
}

type InsuranceOption struct {
	Provider       string   `json:"provider"`
	PlanName       string   `json:"plan_name,omitempty"`
	CoverageEUR    int      `json:"coverage_eur"`
	PricePerPerson float64  `json:"price_per_person"`
	Features       []string `json:"features"`
	BookingURL     string   `json:"purchase_link"`
}

type VisaPackDocuments struct {
	CoverLetter         string `json:"cover_letter"`
	TravelItineraryText string `json:"travel_itinerary_text"`
	FlightsSummary      string `json:"flights_summary"`
	HotelsSummary       string `json:"hotels_summary"`
	Checklist           string `json:"checklist"`
}

type TripPlan struct {
	Request               TripRequest        `json:"request"`
	Rules                 *VisaRules         `json:"rules,omitempty"`
	Itinerary             []DayPlan          `json:"itinerary"`
	Flights               []FlightOption     `json:"flights"`
	Hotels                []HotelOption      `json:"hotels"`
	InsuranceOptions      []InsuranceOption  `json:"insurance_options"`
	Documents             *VisaPackDocuments `json:"documents,omitempty"`
	ValidationIssues      []string           `json:"validation_issues"`
	BudgetPerPersonMinINR int                `json:"budget_per_person_min_inr"`
	BudgetPerPersonMaxINR *int               `json:"budget_per_person_max_inr,omitempty"`
}

// BudgetRange maps a budget band to the per-person INR range used for
// defaults and fallbacks. The high band has no upper bound; unrecognized
// bands fall back to the medium range.
func BudgetRange(band string) (min int, max *int) {
	intPtr := func(v int) *int { return &v }
	switch strings.ToLower(strings.TrimSpace(band)) {
	case "low":
		return 100_000, intPtr(150_000)
	case "high":
		return 300_000, nil
	default:
		return 150_000, intPtr(300_000)
	}
}

// ApplyBudgetBand sets the plan's budget range from the request band. The
// range is applied once and never recomputed.
func (p *TripPlan) ApplyBudgetBand() {
	p.BudgetPerPersonMinINR, p.BudgetPerPersonMaxINR = BudgetRange(p.Request.BudgetBand)
}
