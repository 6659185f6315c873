package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"visapack/internal/trip"
)

const AviasalesURL = "https://api.travelpayouts.com/v1/prices/cheap"

// FlightSource is one entry in the flight cascade. A failing source returns
// an error; the cascade treats errors as empty results.
type FlightSource interface {
	Name() string
	Flights(ctx context.Context, req trip.TripRequest) ([]trip.FlightOption, error)
}

// FlightCascade tries sources in priority order and returns the first
// non-empty result. Construct it with FallbackFlights last for the
// always-non-empty terminal guarantee.
type FlightCascade struct {
	sources []FlightSource
}

func NewFlightCascade(sources ...FlightSource) *FlightCascade {
	return &FlightCascade{sources: sources}
}

func (c *FlightCascade) Fetch(ctx context.Context, req trip.TripRequest) []trip.FlightOption {
	for _, source := range c.sources {
		options, err := source.Flights(ctx, req)
		if err != nil {
			log.Printf("providers: flight source %s failed: %v", source.Name(), err)
			continue
		}
		if len(options) > 0 {
			return options
		}
	}
	return nil
}

// AviasalesSource queries the Travelpayouts cheap-prices aggregator.
type AviasalesSource struct {
	token   string
	marker  string
	baseURL string
	client  *http.Client
}

type AviasalesConfig struct {
	Token      string
	Marker     string
	BaseURL    string
	HTTPClient *http.Client
}

func NewAviasalesSource(cfg AviasalesConfig) (*AviasalesSource, error) {
	cfg.Token = strings.TrimSpace(cfg.Token)
	cfg.Marker = strings.TrimSpace(cfg.Marker)
	if cfg.Token == "" || cfg.Marker == "" {
		return nil, errors.New("TRAVEL_PAYOUTS_TOKEN / AVIASALES_PARTNER_ID not configured")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = AviasalesURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &AviasalesSource{token: cfg.Token, marker: cfg.Marker, baseURL: cfg.BaseURL, client: cfg.HTTPClient}, nil
}

func (s *AviasalesSource) Name() string { return "aviasales" }

func (s *AviasalesSource) Flights(ctx context.Context, req trip.TripRequest) ([]trip.FlightOption, error) {
	origin := ExtractIATA(req.DepartureCity)
	destination := PrimaryAirport(req.Primary())

	q := url.Values{
		"origin":      {origin},
		"destination": {destination},
		"token":       {s.token},
		"marker":      {s.marker},
		"currency":    {"INR"},
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	res, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("aviasales search failed: %w", err)
	}
	defer res.Body.Close()
	blob, _ := io.ReadAll(io.LimitReader(res.Body, 2<<20))
	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("aviasales search failed: status code %d", res.StatusCode)
	}

	var parsed struct {
		Data map[string]map[string]map[string]any `json:"data"`
	}
	if err := json.Unmarshal(blob, &parsed); err != nil {
		return nil, fmt.Errorf("aviasales search failed: %w", err)
	}
	return parseAviasalesOffers(parsed.Data, origin, destination), nil
}

func parseAviasalesOffers(data map[string]map[string]map[string]any, origin, destination string) []trip.FlightOption {
	// Map iteration order is randomized; sort keys so results are stable.
	destKeys := make([]string, 0, len(data))
	for k := range data {
		destKeys = append(destKeys, k)
	}
	sort.Strings(destKeys)

	var results []trip.FlightOption
	for _, dk := range destKeys {
		offers := data[dk]
		offerKeys := make([]string, 0, len(offers))
		for k := range offers {
			offerKeys = append(offerKeys, k)
		}
		sort.Strings(offerKeys)

		for _, ok := range offerKeys {
			offer := offers[ok]
			price := numFromAny(offer["price"])
			depart := str(offer["departure_at"])
			arrive := str(offer["return_at"])
			airline := str(offer["airline"])
			if airline == "" {
				airline = "Aviasales"
			}
			results = append(results, trip.FlightOption{
				Label:       "Inbound Option",
				Airline:     airline,
				FromAirport: origin,
				ToAirport:   destination,
				DepartTime:  depart,
				ArriveTime:  depart,
				Price:       price,
				BookingURL:  aviasalesLink(origin, destination, depart),
			})
			if arrive != "" {
				results = append(results, trip.FlightOption{
					Label:       "Outbound Option",
					Airline:     airline,
					FromAirport: destination,
					ToAirport:   origin,
					DepartTime:  arrive,
					ArriveTime:  arrive,
					Price:       price,
					BookingURL:  aviasalesLink(destination, origin, arrive),
				})
			}
		}
	}
	if len(results) > 6 {
		results = results[:6]
	}
	return results
}

func aviasalesLink(from, to, departure string) string {
	day, _, _ := strings.Cut(departure, "T")
	suffix := strings.ReplaceAll(day, "-", "")
	return fmt.Sprintf("https://www.aviasales.com/search/%s%s%s", from, to, suffix)
}

// FallbackFlights is the terminal cascade entry: it always synthesizes one
// inbound and one outbound option priced from the budget band.
type FallbackFlights struct{}

func (FallbackFlights) Name() string { return "fallback" }

var fallbackFlightBase = map[string]float64{
	"low":    55_000,
	"medium": 70_000,
	"high":   95_000,
}

func (FallbackFlights) Flights(_ context.Context, req trip.TripRequest) ([]trip.FlightOption, error) {
	band := strings.ToLower(strings.TrimSpace(req.BudgetBand))
	base, ok := fallbackFlightBase[band]
	if !ok {
		base = fallbackFlightBase["medium"]
	}
	destAirport := PrimaryAirport(req.Primary())
	return []trip.FlightOption{
		{
			Label:       "Inbound Option",
			Airline:     "Sample Airline",
			FromAirport: req.DepartureCity,
			ToAirport:   destAirport,
			DepartTime:  req.StartDate + "T09:00",
			ArriveTime:  req.StartDate + "T16:00",
			Price:       base,
			BookingURL:  "https://www.amadeus.com",
		},
		{
			Label:       "Outbound Option",
			Airline:     "Sample Airline",
			FromAirport: destAirport,
			ToAirport:   req.DepartureCity,
			DepartTime:  req.EndDate + "T10:00",
			ArriveTime:  req.EndDate + "T18:00",
			Price:       base,
			BookingURL:  "https://www.amadeus.com",
		},
	}, nil
}
