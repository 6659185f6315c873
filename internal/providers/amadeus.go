package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"visapack/internal/trip"
)

const (
	AmadeusTokenURL   = "https://test.api.amadeus.com/v1/security/oauth2/token"
	AmadeusFlightsURL = "https://test.api.amadeus.com/v2/shopping/flight-offers"

	// The Amadeus test environment only accepts departures within roughly
	// 330 days of today.
	amadeusMaxLeadDays = 330
)

// AmadeusClient holds the credentials and the shared bearer-token cache.
// The token is reused across sequential calls within its validity window and
// refreshed slightly early; a failed refresh does not clear a still-valid
// token.
type AmadeusClient struct {
	key        string
	secret     string
	tokenURL   string
	flightsURL string
	client     *http.Client

	mu     sync.Mutex
	token  string
	expiry time.Time
}

type AmadeusConfig struct {
	APIKey     string
	APISecret  string
	TokenURL   string
	FlightsURL string
	HTTPClient *http.Client
}

func NewAmadeusClient(cfg AmadeusConfig) (*AmadeusClient, error) {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.APISecret = strings.TrimSpace(cfg.APISecret)
	if cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, errors.New("AMADEUS_API_KEY / AMADEUS_API_SECRET not configured")
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = AmadeusTokenURL
	}
	if cfg.FlightsURL == "" {
		cfg.FlightsURL = AmadeusFlightsURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &AmadeusClient{
		key:        cfg.APIKey,
		secret:     cfg.APISecret,
		tokenURL:   cfg.TokenURL,
		flightsURL: cfg.FlightsURL,
		client:     cfg.HTTPClient,
	}, nil
}

func (c *AmadeusClient) Name() string { return "amadeus" }

// Token returns a cached bearer token or fetches a fresh one.
func (c *AmadeusClient) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && time.Now().Before(c.expiry) {
		return c.token, nil
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.key},
		"client_secret": {c.secret},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("amadeus token fetch failed: %w", err)
	}
	defer res.Body.Close()
	blob, _ := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if res.StatusCode >= 400 {
		return "", fmt.Errorf("amadeus token fetch failed: status code %d", res.StatusCode)
	}

	var parsed struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(blob, &parsed); err != nil {
		return "", fmt.Errorf("amadeus token fetch failed: %w", err)
	}
	if parsed.AccessToken == "" {
		return "", errors.New("amadeus token fetch failed: empty access_token")
	}
	c.token = parsed.AccessToken
	c.expiry = time.Now().Add(time.Duration(parsed.ExpiresIn)*time.Second - time.Minute)
	return c.token, nil
}

func (c *AmadeusClient) Flights(ctx context.Context, req trip.TripRequest) ([]trip.FlightOption, error) {
	token, err := c.Token(ctx)
	if err != nil {
		return nil, err
	}
	origin := ExtractIATA(req.DepartureCity)
	destination := PrimaryAirport(req.Primary())
	depDate, retDate := clampAmadeusDates(req.StartDate, req.EndDate)

	adults := req.TravellersCount
	if adults < 1 {
		adults = 1
	}
	q := url.Values{
		"originLocationCode":      {origin},
		"destinationLocationCode": {destination},
		"departureDate":           {depDate},
		"returnDate":              {retDate},
		"adults":                  {strconv.Itoa(adults)},
		"max":                     {"6"},
		"currencyCode":            {"INR"},
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.flightsURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)

	res, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("amadeus flight search failed: %w", err)
	}
	defer res.Body.Close()
	blob, _ := io.ReadAll(io.LimitReader(res.Body, 4<<20))
	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("amadeus flight search failed: status code %d", res.StatusCode)
	}

	var parsed struct {
		Data []map[string]any `json:"data"`
	}
	if err := json.Unmarshal(blob, &parsed); err != nil {
		return nil, fmt.Errorf("amadeus flight search failed: %w", err)
	}
	return parseAmadeusOffers(parsed.Data, origin, destination), nil
}

func parseAmadeusOffers(data []map[string]any, origin, destination string) []trip.FlightOption {
	var flights []trip.FlightOption
	for i, offer := range data {
		if i >= 6 {
			break
		}
		priceBlock, _ := offer["price"].(map[string]any)
		price := numFromAny(priceBlock["grandTotal"])
		currency := str(priceBlock["currency"])
		if currency == "" {
			currency = "INR"
		}
		priceINR := ToINR(price, currency)

		itineraries, _ := offer["itineraries"].([]any)
		if len(itineraries) == 0 {
			continue
		}
		outbound, _ := itineraries[0].(map[string]any)
		flights = append(flights, trip.FlightOption{
			Label:       "Inbound Option",
			Airline:     carrierName(outbound),
			FromAirport: origin,
			ToAirport:   destination,
			DepartTime:  segmentTime(outbound, false),
			ArriveTime:  segmentTime(outbound, true),
			Price:       priceINR,
			BookingURL:  "https://www.amadeus.com",
		})
		if len(itineraries) > 1 {
			inbound, _ := itineraries[1].(map[string]any)
			flights = append(flights, trip.FlightOption{
				Label:       "Outbound Option",
				Airline:     carrierName(inbound),
				FromAirport: destination,
				ToAirport:   origin,
				DepartTime:  segmentTime(inbound, false),
				ArriveTime:  segmentTime(inbound, true),
				Price:       priceINR,
				BookingURL:  "https://www.amadeus.com",
			})
		}
	}
	return flights
}

func segmentTime(itinerary map[string]any, arrival bool) string {
	segments, _ := itinerary["segments"].([]any)
	if len(segments) == 0 {
		return ""
	}
	idx := 0
	key := "departure"
	if arrival {
		idx = len(segments) - 1
		key = "arrival"
	}
	seg, _ := segments[idx].(map[string]any)
	info, _ := seg[key].(map[string]any)
	return str(info["at"])
}

func carrierName(itinerary map[string]any) string {
	segments, _ := itinerary["segments"].([]any)
	if len(segments) == 0 {
		return "Amadeus"
	}
	seg, _ := segments[0].(map[string]any)
	if carrier := str(seg["carrierCode"]); carrier != "" {
		return carrier
	}
	return "Amadeus"
}

// clampAmadeusDates keeps the requested window inside the test-environment
// lead-time limit, preserving trip duration.
func clampAmadeusDates(startDate, endDate string) (string, string) {
	start, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return startDate, endDate
	}
	end, err := time.Parse("2006-01-02", endDate)
	if err != nil {
		return startDate, endDate
	}
	maxStart := time.Now().AddDate(0, 0, amadeusMaxLeadDays)
	if start.After(maxStart) {
		duration := int(end.Sub(start).Hours() / 24)
		if duration < 1 {
			duration = 1
		}
		start = maxStart
		end = start.AddDate(0, 0, duration)
	}
	if !end.After(start) {
		end = start.AddDate(0, 0, 1)
	}
	return start.Format("2006-01-02"), end.Format("2006-01-02")
}

func numFromAny(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case string:
		f, _ := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f
	default:
		return 0
	}
}

func str(v any) string {
	s, _ := v.(string)
	return s
}
