package research

import (
	"fmt"
	"strconv"
	"strings"

	"visapack/internal/trip"
)

// priceSentinel pushes unpriced candidates behind every priced one when
// comparing ranking keys.
const priceSentinel = 9_999_999

const unknownDuration = "See booking site"

// FlightCandidate pairs a canonical flight option with its comparison key.
// Structured-path keys are (stops, price); free-text keys are
// (stops, duration hours, price) with 99 as the unknown-duration sentinel.
type FlightCandidate struct {
	Key    []float64
	Option trip.FlightOption
}

// HotelCandidate keys are (nightly price, -rating): cheaper wins, then
// higher rated.
type HotelCandidate struct {
	Key    []float64
	Option trip.HotelOption
}

// NormalizeFlights converts one raw search result into zero or more flight
// candidates, preferring the structured-summary payload and falling back to
// text heuristics.
func NormalizeFlights(res RawResult, targetDate string) []FlightCandidate {
	if rows := structuredRows(res.StructuredSummary, "flights"); len(rows) > 0 {
		out := make([]FlightCandidate, 0, len(rows))
		for _, row := range rows {
			price := PriceFromValue(firstValue(row, "price", "price_eur"))
			stops := stopsFromValue(row["stops"])
			duration := firstString(row, "duration", "flight_type", "cabin_class")
			if duration == "" {
				duration = unknownDuration
			}
			airline := firstString(row, "airline", "carrier")
			if airline == "" {
				airline = "Flight option"
			}
			opt := trip.FlightOption{
				Airline:    airline,
				DepartTime: firstStringDefault(row, targetDate, "departure_time", "departure_date"),
				ArriveTime: firstStringDefault(row, targetDate, "arrival_time", "return_date"),
				Duration:   duration,
				Stops:      stops,
				Price:      price,
				BookingURL: firstStringDefault(row, res.URL, "booking_url"),
			}
			if fn := firstString(row, "flight_number"); fn != "" {
				opt.FlightNumber = &fn
			}
			out = append(out, FlightCandidate{
				Key:    []float64{float64(stops), priceOrSentinel(price)},
				Option: opt,
			})
		}
		return out
	}

	blob := res.Title + " " + res.Content
	price := ExtractPrice(blob)
	stops := ExtractStops(blob)
	hours, known := ExtractDurationHours(blob)
	duration := unknownDuration
	sortHours := 99.0
	if known {
		duration = fmt.Sprintf("~%dh travel time", hours)
		sortHours = float64(hours)
	}
	title := res.Title
	if title == "" {
		title = "Flight option"
	}
	return []FlightCandidate{{
		Key: []float64{float64(stops), sortHours, priceOrSentinel(price)},
		Option: trip.FlightOption{
			Airline:    title,
			DepartTime: targetDate,
			ArriveTime: targetDate,
			Duration:   duration,
			Stops:      stops,
			Price:      price,
			BookingURL: res.URL,
		},
	}}
}

// NormalizeHotels converts one raw search result into hotel candidates for a
// city stay of the given length. Free-text candidates rated below 3 are
// discarded (quality floor); structured rows are exempt.
func NormalizeHotels(res RawResult, city string, nights int) []HotelCandidate {
	if rows := structuredRows(res.StructuredSummary, "hotels"); len(rows) > 0 {
		out := make([]HotelCandidate, 0, len(rows))
		for _, row := range rows {
			nightly := PriceFromValue(firstValue(row, "nightly_rate", "price"))
			rating := ExtractRating(firstString(row, "star_rating", "rating", "guest_rating"))
			name := firstString(row, "name")
			if name == "" {
				name = "Hotel in " + city
			}
			out = append(out, HotelCandidate{
				Key: []float64{priceOrSentinel(nightly), -float64(rating)},
				Option: trip.HotelOption{
					Name:         name,
					City:         city,
					Address:      firstStringDefault(row, city, "neighborhood_or_location"),
					StarRating:   rating,
					NightlyPrice: nightly,
					TotalCost:    totalCost(nightly, nights),
					Board:        firstString(row, "key_features"),
					BookingURL:   firstStringDefault(row, res.URL, "booking_url"),
				},
			})
		}
		return out
	}

	blob := res.Title + " " + res.Content
	nightly := ExtractPrice(blob)
	rating := ExtractRating(blob)
	if rating < 3 {
		return nil
	}
	return []HotelCandidate{{
		Key:    []float64{priceOrSentinel(nightly), -float64(rating)},
		Option: textHotelOption(res, city, nights, nightly, rating),
	}}
}

// RawFallbackFlights synthesizes minimally-populated options from the first
// topK unscored results so a research stage never comes back empty-handed.
func RawFallbackFlights(results []RawResult, topK int, targetDate string) []trip.FlightOption {
	out := make([]trip.FlightOption, 0, topK)
	for _, res := range results {
		if len(out) >= topK {
			break
		}
		blob := res.Title + " " + res.Content
		title := res.Title
		if title == "" {
			title = "Flight option"
		}
		out = append(out, trip.FlightOption{
			Airline:    title,
			DepartTime: targetDate,
			ArriveTime: targetDate,
			Duration:   unknownDuration,
			Stops:      1,
			Price:      ExtractPrice(blob),
			BookingURL: res.URL,
		})
	}
	return out
}

// RawFallbackHotels is the hotel counterpart of RawFallbackFlights. The
// quality floor does not apply here.
func RawFallbackHotels(results []RawResult, topK int, city string, nights int) []trip.HotelOption {
	out := make([]trip.HotelOption, 0, topK)
	for _, res := range results {
		if len(out) >= topK {
			break
		}
		blob := res.Title + " " + res.Content
		out = append(out, textHotelOption(res, city, nights, ExtractPrice(blob), ExtractRating(blob)))
	}
	return out
}

func textHotelOption(res RawResult, city string, nights int, nightly float64, rating int) trip.HotelOption {
	name := res.Title
	if name == "" {
		name = "Hotel in " + city
	}
	return trip.HotelOption{
		Name:         name,
		City:         city,
		Address:      city,
		StarRating:   rating,
		NightlyPrice: nightly,
		TotalCost:    totalCost(nightly, nights),
		Board:        BoardTypeFromText(res.Title + " " + res.Content),
		BookingURL:   res.URL,
	}
}

// structuredRows pulls row maps out of a structured summary, accepting
// either an object keyed by kind or a bare list.
func structuredRows(summary any, kind string) []map[string]any {
	structured := ParseStructuredSummary(summary)
	var items []any
	switch v := structured.(type) {
	case map[string]any:
		list, ok := v[kind].([]any)
		if !ok {
			return nil
		}
		items = list
	case []any:
		items = v
	default:
		return nil
	}
	rows := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			rows = append(rows, m)
		}
	}
	return rows
}

// firstString resolves a logical attribute against an ordered list of
// accepted field names.
func firstString(row map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := row[key].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

func firstStringDefault(row map[string]any, fallback string, keys ...string) string {
	if s := firstString(row, keys...); s != "" {
		return s
	}
	return fallback
}

func firstValue(row map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := row[key]; ok && v != nil {
			return v
		}
	}
	return nil
}

func stopsFromValue(v any) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case int:
		return t
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return n
		}
	}
	return 1
}

func priceOrSentinel(price float64) float64 {
	if price > 0 {
		return price
	}
	return priceSentinel
}

func totalCost(nightly float64, nights int) float64 {
	if nightly <= 0 || nights <= 0 {
		return 0
	}
	return nightly * float64(nights)
}
