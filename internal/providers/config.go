package providers

import (
	"log"
	"net/http"
	"os"
)

// Config carries the optional provider credentials. Any missing credential
// simply excludes that source from its cascade; the synthesized fallbacks
// keep both cascades non-empty.
type Config struct {
	AmadeusAPIKey      string
	AmadeusAPISecret   string
	TravelPayoutsToken string
	AviasalesMarker    string
	HotelbedsAPIKey    string
	HotelbedsAPISecret string
	SerpAPIKey         string
	RapidAPIKey        string
	RapidAPIHost       string

	HTTPClient *http.Client
}

func ConfigFromEnv() Config {
	return Config{
		AmadeusAPIKey:      os.Getenv("AMADEUS_API_KEY"),
		AmadeusAPISecret:   os.Getenv("AMADEUS_API_SECRET"),
		TravelPayoutsToken: os.Getenv("TRAVEL_PAYOUTS_TOKEN"),
		AviasalesMarker:    os.Getenv("AVIASALES_PARTNER_ID"),
		HotelbedsAPIKey:    os.Getenv("HOTELBEDS_API_KEY"),
		HotelbedsAPISecret: os.Getenv("HOTELBEDS_API_SECRET"),
		SerpAPIKey:         os.Getenv("SERPAPI_KEY"),
		RapidAPIKey:        os.Getenv("RAPIDAPI_KEY"),
		RapidAPIHost:       os.Getenv("RAPIDAPI_BOOKING_HOST"),
	}
}

// BuildFlightCascade assembles Aviasales then Amadeus then the synthesized
// fallback, skipping sources without credentials.
func (c Config) BuildFlightCascade() *FlightCascade {
	var sources []FlightSource
	if s, err := NewAviasalesSource(AviasalesConfig{
		Token:      c.TravelPayoutsToken,
		Marker:     c.AviasalesMarker,
		HTTPClient: c.HTTPClient,
	}); err != nil {
		log.Printf("providers: aviasales disabled: %v", err)
	} else {
		sources = append(sources, s)
	}
	if s, err := NewAmadeusClient(AmadeusConfig{
		APIKey:     c.AmadeusAPIKey,
		APISecret:  c.AmadeusAPISecret,
		HTTPClient: c.HTTPClient,
	}); err != nil {
		log.Printf("providers: amadeus disabled: %v", err)
	} else {
		sources = append(sources, s)
	}
	sources = append(sources, FallbackFlights{})
	return NewFlightCascade(sources...)
}

// BuildHotelCascade assembles Hotelbeds then SerpApi then Booking then the
// synthesized fallback, skipping sources without credentials.
func (c Config) BuildHotelCascade() *HotelCascade {
	var sources []HotelSource
	if s, err := NewHotelbedsSource(HotelbedsConfig{
		APIKey:     c.HotelbedsAPIKey,
		APISecret:  c.HotelbedsAPISecret,
		HTTPClient: c.HTTPClient,
	}); err != nil {
		log.Printf("providers: hotelbeds disabled: %v", err)
	} else {
		sources = append(sources, s)
	}
	if s, err := NewSerpHotelsSource(SerpConfig{
		APIKey:     c.SerpAPIKey,
		HTTPClient: c.HTTPClient,
	}); err != nil {
		log.Printf("providers: serpapi disabled: %v", err)
	} else {
		sources = append(sources, s)
	}
	if s, err := NewBookingHotelsSource(BookingConfig{
		APIKey:     c.RapidAPIKey,
		Host:       c.RapidAPIHost,
		HTTPClient: c.HTTPClient,
	}); err != nil {
		log.Printf("providers: booking disabled: %v", err)
	} else {
		sources = append(sources, s)
	}
	sources = append(sources, FallbackHotels{})
	return NewHotelCascade(sources...)
}
