package research

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Free-text heuristics for prices, ratings, stop counts, durations and board
// types. Defaults follow the original behavior: unknown ratings read as 4,
// unknown stop counts as 1.

var (
	priceSymbolRe   = regexp.MustCompile(`(?i)(?:€|eur|\$|usd)\s?([\d.,]{2,7})`)
	priceSuffixRe   = regexp.MustCompile(`(?i)\b(\d{2,5})(?:\s?(?:eur|usd))\b`)
	ratingRe        = regexp.MustCompile(`(?i)(\d+(?:\.\d)?)\s*(?:[- ]?star|/5)`)
	stopCountRe     = regexp.MustCompile(`(\d+)\s*stop`)
	durationHoursRe = regexp.MustCompile(`(\d{1,2})\s*h`)
)

// ExtractPrice finds the first currency-marked number in text. Returns 0
// when nothing matches.
func ExtractPrice(text string) float64 {
	if text == "" {
		return 0
	}
	m := priceSymbolRe.FindStringSubmatch(text)
	if m == nil {
		m = priceSuffixRe.FindStringSubmatch(text)
	}
	if m == nil {
		return 0
	}
	value, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return 0
	}
	return value
}

// PriceFromValue accepts a structured field that may be a number or a
// price-bearing string.
func PriceFromValue(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case string:
		return ExtractPrice(t)
	default:
		return 0
	}
}

// ExtractRating reads "<n> star" / "<n>/5" patterns, rounding to the nearest
// integer. Anything unparsable defaults to 4.
func ExtractRating(text string) int {
	m := ratingRe.FindStringSubmatch(text)
	if m == nil {
		return 4
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 4
	}
	return int(math.Round(value))
}

// ExtractStops infers a flight stop count from text, defaulting to 1.
func ExtractStops(text string) int {
	lowered := strings.ToLower(text)
	for _, token := range []string{"nonstop", "non-stop", "direct flight"} {
		if strings.Contains(lowered, token) {
			return 0
		}
	}
	if m := stopCountRe.FindStringSubmatch(lowered); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n
		}
		return 1
	}
	if strings.Contains(lowered, "layover") {
		return 1
	}
	return 1
}

// ExtractDurationHours reads the first "<n>h" token. ok is false when no
// duration is present.
func ExtractDurationHours(text string) (hours int, ok bool) {
	m := durationHoursRe.FindStringSubmatch(strings.ToLower(text))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// BoardTypeFromText matches a board descriptor substring, else "Room Only".
func BoardTypeFromText(text string) string {
	lowered := strings.ToLower(text)
	switch {
	case strings.Contains(lowered, "breakfast"):
		return "Bed & Breakfast"
	case strings.Contains(lowered, "half board"):
		return "Half Board"
	case strings.Contains(lowered, "full board"):
		return "Full Board"
	default:
		return "Room Only"
	}
}
