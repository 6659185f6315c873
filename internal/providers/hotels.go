package providers

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"visapack/internal/trip"
)

const (
	HotelbedsURL         = "https://api.test.hotelbeds.com/hotel-api/1.0/hotels"
	SerpAPIURL           = "https://serpapi.com/search"
	defaultRapidAPIHost  = "booking-com15.p.rapidapi.com"
	searchDestEndpoint   = "/api/v1/hotels/searchDestination"
	searchHotelsEndpoint = "/api/v1/hotels/searchHotels"
)

// HotelSource is one entry in the hotel cascade.
type HotelSource interface {
	Name() string
	Hotels(ctx context.Context, req trip.TripRequest, cities []string) ([]trip.HotelOption, error)
}

// HotelCascade tries sources in priority order and returns the first
// non-empty result. FallbackHotels last guarantees a non-empty answer.
type HotelCascade struct {
	sources []HotelSource
}

func NewHotelCascade(sources ...HotelSource) *HotelCascade {
	return &HotelCascade{sources: sources}
}

func (c *HotelCascade) Fetch(ctx context.Context, req trip.TripRequest, cities []string) []trip.HotelOption {
	cities = dedupeCities(cities)
	if len(cities) == 0 && len(req.DestinationCountries) > 0 {
		cities = []string{req.DestinationCountries[0]}
	}
	for _, source := range c.sources {
		options, err := source.Hotels(ctx, req, cities)
		if err != nil {
			log.Printf("providers: hotel source %s failed: %v", source.Name(), err)
			continue
		}
		if len(options) > 0 {
			return options
		}
	}
	return nil
}

func dedupeCities(cities []string) []string {
	var ordered []string
	seen := map[string]struct{}{}
	for _, city := range cities {
		normalized := strings.TrimSpace(city)
		if normalized == "" {
			continue
		}
		key := strings.ToLower(normalized)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		ordered = append(ordered, normalized)
	}
	return ordered
}

// HotelbedsSource is the dedicated hotel-inventory API.
type HotelbedsSource struct {
	apiKey    string
	apiSecret string
	baseURL   string
	client    *http.Client
	now       func() time.Time
}

type HotelbedsConfig struct {
	APIKey     string
	APISecret  string
	BaseURL    string
	HTTPClient *http.Client
}

var hotelbedsDestinations = map[string]string{
	"paris": "PAR", "france": "PAR",
	"amsterdam": "AMS", "netherlands": "AMS",
	"berlin": "BER", "germany": "BER",
	"madrid": "MAD", "spain": "MAD",
	"rome": "ROM", "italy": "ROM",
	"vienna": "VIE", "austria": "VIE",
	"lisbon": "LIS", "portugal": "LIS",
	"athens": "ATH", "greece": "ATH",
	"prague": "PRG", "czechia": "PRG",
}

func NewHotelbedsSource(cfg HotelbedsConfig) (*HotelbedsSource, error) {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.APISecret = strings.TrimSpace(cfg.APISecret)
	if cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, errors.New("HOTELBEDS_API_KEY / HOTELBEDS_API_SECRET not configured")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = HotelbedsURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &HotelbedsSource{apiKey: cfg.APIKey, apiSecret: cfg.APISecret, baseURL: cfg.BaseURL, client: cfg.HTTPClient, now: time.Now}, nil
}

func (s *HotelbedsSource) Name() string { return "hotelbeds" }

func (s *HotelbedsSource) signature() string {
	raw := fmt.Sprintf("%s%s%d", s.apiKey, s.apiSecret, s.now().Unix())
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func (s *HotelbedsSource) Hotels(ctx context.Context, req trip.TripRequest, cities []string) ([]trip.HotelOption, error) {
	destinationCode := "PAR"
	for _, city := range cities {
		if code, ok := hotelbedsDestinations[strings.ToLower(strings.TrimSpace(city))]; ok {
			destinationCode = code
			break
		}
	}
	adults := req.TravellersCount
	if adults < 1 {
		adults = 1
	}
	payload := map[string]any{
		"stay": map[string]string{
			"checkIn":  req.StartDate,
			"checkOut": req.EndDate,
		},
		"occupancies": []map[string]int{{"rooms": 1, "adults": adults, "children": 0}},
		"destination": map[string]string{"code": destinationCode, "type": "SIMPLE"},
		"filter":      map[string]int{"maxHotels": 4},
	}
	body, _ := json.Marshal(payload)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Api-Key", s.apiKey)
	httpReq.Header.Set("X-Signature", s.signature())
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("hotelbeds search failed: %w", err)
	}
	defer res.Body.Close()
	blob, _ := io.ReadAll(io.LimitReader(res.Body, 4<<20))
	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("hotelbeds search failed: status code %d", res.StatusCode)
	}

	var parsed map[string]any
	if err := json.Unmarshal(blob, &parsed); err != nil {
		return nil, fmt.Errorf("hotelbeds search failed: %w", err)
	}
	return parseHotelbedsHotels(parsed, req, cities), nil
}

func parseHotelbedsHotels(payload map[string]any, req trip.TripRequest, cities []string) []trip.HotelOption {
	outer, _ := payload["hotels"].(map[string]any)
	entries, _ := outer["hotels"].([]any)

	fallbackCity := "Schengen"
	if len(cities) > 0 {
		fallbackCity = cities[0]
	}

	var results []trip.HotelOption
	for i, item := range entries {
		if i >= 4 {
			break
		}
		entry, _ := item.(map[string]any)
		name := str(entry["name"])
		if name == "" {
			continue
		}
		var ratePrice float64
		var boardName string
		if rooms, _ := entry["rooms"].([]any); len(rooms) > 0 {
			room, _ := rooms[0].(map[string]any)
			if rates, _ := room["rates"].([]any); len(rates) > 0 {
				rate, _ := rates[0].(map[string]any)
				boardName = str(rate["boardName"])
				ratePrice = numFromAny(rate["net"])
			}
		}
		addressLine := ""
		if address, ok := entry["address"].(map[string]any); ok {
			addressLine = str(address["content"])
		}
		link := "https://www.hotelbeds.com"
		if code := hotelCode(entry); code != "" {
			link = "https://www.hotelbeds.com/hotels/" + code
		}
		city := str(entry["destinationName"])
		if city == "" {
			city = fallbackCity
		}
		board := boardName
		if board == "" {
			board = "hotelbeds"
		}
		results = append(results, trip.HotelOption{
			Name:         name,
			City:         city,
			Address:      addressLine,
			StarRating:   4,
			CheckIn:      req.StartDate,
			CheckOut:     req.EndDate,
			NightlyPrice: ratePrice,
			Board:        board,
			BookingURL:   link,
		})
	}
	return results
}

func hotelCode(entry map[string]any) string {
	for _, key := range []string{"code", "hotelBedsCode"} {
		switch v := entry[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.Itoa(int(v))
		}
	}
	return ""
}

// SerpHotelsSource queries the google_hotels engine on SerpApi.
type SerpHotelsSource struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

type SerpConfig struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

func NewSerpHotelsSource(cfg SerpConfig) (*SerpHotelsSource, error) {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.APIKey == "" {
		return nil, errors.New("SERPAPI_KEY not configured")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = SerpAPIURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &SerpHotelsSource{apiKey: cfg.APIKey, baseURL: cfg.BaseURL, client: cfg.HTTPClient}, nil
}

func (s *SerpHotelsSource) Name() string { return "serpapi" }

func (s *SerpHotelsSource) Hotels(ctx context.Context, req trip.TripRequest, cities []string) ([]trip.HotelOption, error) {
	checkIn, checkOut := safeStayDates(req.StartDate, req.EndDate)
	adults := req.TravellersCount
	if adults < 1 {
		adults = 1
	}

	var hotels []trip.HotelOption
	var lastErr error
	for _, city := range cities {
		q := url.Values{
			"engine":         {"google_hotels"},
			"q":              {city + ", " + req.Primary()},
			"check_in_date":  {checkIn},
			"check_out_date": {checkOut},
			"adults":         {strconv.Itoa(adults)},
			"currency":       {"INR"},
			"hl":             {"en"},
			"api_key":        {s.apiKey},
		}
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+q.Encode(), nil)
		if err != nil {
			return nil, err
		}
		res, err := s.client.Do(httpReq)
		if err != nil {
			lastErr = err
			continue
		}
		blob, _ := io.ReadAll(io.LimitReader(res.Body, 4<<20))
		res.Body.Close()
		if res.StatusCode >= 400 {
			lastErr = fmt.Errorf("status code %d", res.StatusCode)
			continue
		}
		var parsed map[string]any
		if err := json.Unmarshal(blob, &parsed); err != nil {
			lastErr = err
			continue
		}
		entries, _ := parsed["properties"].([]any)
		if entries == nil {
			entries, _ = parsed["hotels_results"].([]any)
		}
		for i, item := range entries {
			if i >= 2 {
				break
			}
			entry, _ := item.(map[string]any)
			if option, ok := parseSerpEntry(entry, city, req.Primary(), checkIn, checkOut); ok {
				hotels = append(hotels, option)
			}
		}
	}
	if len(hotels) == 0 && lastErr != nil {
		return nil, fmt.Errorf("serpapi hotel search failed: %w", lastErr)
	}
	return hotels, nil
}

func parseSerpEntry(entry map[string]any, city, country, checkIn, checkOut string) (trip.HotelOption, bool) {
	name := str(entry["name"])
	if name == "" {
		return trip.HotelOption{}, false
	}
	price := serpPrice(entry)
	link := str(entry["link"])
	if link == "" {
		link = str(entry["serpapi_property_details_link"])
	}
	if link == "" {
		link = "https://www.google.com/travel/hotels"
	}
	address := str(entry["address"])
	if address == "" {
		address = str(entry["description"])
	}
	if address == "" {
		address = city + ", " + country
	}
	rating := 4
	if v, ok := entry["extracted_hotel_class"].(float64); ok && v >= 1 && v <= 5 {
		rating = int(math.Round(v))
	}
	return trip.HotelOption{
		Name:         name,
		City:         city,
		Address:      address,
		StarRating:   rating,
		CheckIn:      checkIn,
		CheckOut:     checkOut,
		NightlyPrice: price,
		Board:        strings.ToLower(str(entry["type"])),
		BookingURL:   link,
	}, true
}

func serpPrice(entry map[string]any) float64 {
	if rate, ok := entry["rate_per_night"].(map[string]any); ok {
		if v := numFromAny(rate["extracted_lowest"]); v > 0 {
			return v
		}
		if v := numFromAny(rate["extracted_before_taxes_fees"]); v > 0 {
			return v
		}
	}
	if v := numFromAny(entry["extracted_price"]); v > 0 {
		return v
	}
	if block, ok := entry["price_breakdown"].(map[string]any); ok {
		if v := numFromAny(block["extracted_base_price"]); v > 0 {
			return v
		}
	}
	return 0
}

// BookingHotelsSource is the secondary hotel-search API behind RapidAPI:
// a destination lookup per city followed by a hotel search.
type BookingHotelsSource struct {
	apiKey string
	host   string
	client *http.Client
}

type BookingConfig struct {
	APIKey     string
	Host       string
	HTTPClient *http.Client
}

func NewBookingHotelsSource(cfg BookingConfig) (*BookingHotelsSource, error) {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.APIKey == "" {
		return nil, errors.New("RAPIDAPI_KEY not configured")
	}
	if cfg.Host == "" {
		cfg.Host = defaultRapidAPIHost
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &BookingHotelsSource{apiKey: cfg.APIKey, host: cfg.Host, client: cfg.HTTPClient}, nil
}

func (s *BookingHotelsSource) Name() string { return "booking" }

func (s *BookingHotelsSource) get(ctx context.Context, endpoint string, q url.Values) (map[string]any, error) {
	u := "https://" + s.host + endpoint + "?" + q.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("X-RapidAPI-Key", s.apiKey)
	httpReq.Header.Set("X-RapidAPI-Host", s.host)

	res, err := s.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	blob, _ := io.ReadAll(io.LimitReader(res.Body, 4<<20))
	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("status code %d", res.StatusCode)
	}
	var parsed map[string]any
	if err := json.Unmarshal(blob, &parsed); err != nil {
		return nil, err
	}
	return parsed, nil
}

func (s *BookingHotelsSource) lookupDestination(ctx context.Context, city string) map[string]any {
	payload, err := s.get(ctx, searchDestEndpoint, url.Values{"query": {city}, "locale": {"en-gb"}})
	if err != nil {
		log.Printf("providers: booking destination lookup failed city=%q: %v", city, err)
		return nil
	}
	candidates, _ := payload["data"].([]any)
	if candidates == nil {
		candidates, _ = payload["result"].([]any)
	}
	if len(candidates) == 0 {
		return nil
	}
	first, _ := candidates[0].(map[string]any)
	return first
}

func (s *BookingHotelsSource) Hotels(ctx context.Context, req trip.TripRequest, cities []string) ([]trip.HotelOption, error) {
	var hotels []trip.HotelOption
	for _, city := range cities {
		dest := s.lookupDestination(ctx, city)
		if dest == nil {
			continue
		}
		hotels = append(hotels, s.searchHotels(ctx, dest, req)...)
	}
	return hotels, nil
}

func (s *BookingHotelsSource) searchHotels(ctx context.Context, dest map[string]any, req trip.TripRequest) []trip.HotelOption {
	destID := str(dest["dest_id"])
	if destID == "" {
		destID = str(dest["destId"])
	}
	if destID == "" {
		return nil
	}
	searchType := str(dest["search_type"])
	if searchType == "" {
		searchType = str(dest["dest_type"])
	}
	if searchType == "" {
		searchType = "CITY"
	}
	adults := req.TravellersCount
	if adults < 1 {
		adults = 1
	}
	q := url.Values{
		"dest_id":       {destID},
		"search_type":   {searchType},
		"page_number":   {"1"},
		"adults":        {strconv.Itoa(adults)},
		"room_qty":      {"1"},
		"units":         {"metric"},
		"languagecode":  {"en-us"},
		"currency_code": {"INR"},
		"order_by":      {"price"},
		"checkin_date":  {req.StartDate},
		"checkout_date": {req.EndDate},
	}
	payload, err := s.get(ctx, searchHotelsEndpoint, q)
	if err != nil {
		log.Printf("providers: booking hotel search failed dest=%s: %v", destID, err)
		return nil
	}

	var entries []any
	if data, ok := payload["data"].(map[string]any); ok {
		entries, _ = data["hotels"].([]any)
	}
	if entries == nil {
		entries, _ = payload["result"].([]any)
	}

	var results []trip.HotelOption
	for i, item := range entries {
		if i >= 2 {
			break
		}
		entry, _ := item.(map[string]any)
		name := str(entry["hotel_name"])
		if name == "" {
			name = str(entry["name"])
		}
		if name == "" {
			continue
		}
		address := str(entry["address"])
		if address == "" {
			address = str(entry["city_name"])
		}
		if address == "" {
			address = str(entry["district"])
		}
		if address == "" {
			address = str(dest["name"])
		}
		city := str(entry["city_name"])
		if city == "" {
			city = str(dest["name"])
		}
		results = append(results, trip.HotelOption{
			Name:         name,
			City:         city,
			Address:      address,
			StarRating:   ratingFromClass(entry["class"]),
			CheckIn:      req.StartDate,
			CheckOut:     req.EndDate,
			NightlyPrice: bookingPrice(entry),
			BookingURL:   "https://www.booking.com",
		})
	}
	return results
}

func ratingFromClass(v any) int {
	stars := numFromAny(v)
	if stars < 1 || stars > 5 {
		return 4
	}
	return int(math.Round(stars))
}

func bookingPrice(entry map[string]any) float64 {
	for _, key := range []string{"priceBreakdown", "composite_price_breakdown"} {
		block, _ := entry[key].(map[string]any)
		if block == nil {
			continue
		}
		if gross, ok := block["gross_price"].(map[string]any); ok {
			if v := numFromAny(gross["value"]); v > 0 {
				return v
			}
		}
		if v := numFromAny(block["gross_price"]); v > 0 {
			return v
		}
	}
	if v := numFromAny(entry["min_total_price"]); v > 0 {
		return v
	}
	return numFromAny(entry["price"])
}

// FallbackHotels synthesizes one central hotel per city at a fixed rate.
type FallbackHotels struct{}

func (FallbackHotels) Name() string { return "fallback" }

func (FallbackHotels) Hotels(_ context.Context, req trip.TripRequest, cities []string) ([]trip.HotelOption, error) {
	hotels := make([]trip.HotelOption, 0, len(cities))
	for _, city := range cities {
		hotels = append(hotels, trip.HotelOption{
			Name:         city + " Central Hotel",
			City:         city,
			Address:      "City center, " + city,
			StarRating:   4,
			CheckIn:      req.StartDate,
			CheckOut:     req.EndDate,
			NightlyPrice: 10_000,
			Board:        "central",
			BookingURL:   "https://www.booking.com",
		})
	}
	return hotels, nil
}

// safeStayDates nudges the checkout forward when the stay would be zero
// nights.
func safeStayDates(startDate, endDate string) (string, string) {
	start, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return startDate, endDate
	}
	end, err := time.Parse("2006-01-02", endDate)
	if err != nil {
		return startDate, endDate
	}
	if !end.After(start) {
		end = start.AddDate(0, 0, 1)
	}
	return start.Format("2006-01-02"), end.Format("2006-01-02")
}
