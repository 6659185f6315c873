package providers

import (
	"regexp"
	"strings"
)

// primaryAirports maps destination countries to their main international
// gateway.
var primaryAirports = map[string]string{
	"france":        "CDG",
	"germany":       "FRA",
	"italy":         "FCO",
	"spain":         "MAD",
	"netherlands":   "AMS",
	"belgium":       "BRU",
	"switzerland":   "ZRH",
	"austria":       "VIE",
	"portugal":      "LIS",
	"greece":        "ATH",
	"czechia":       "PRG",
	"poland":        "WAW",
	"hungary":       "BUD",
	"sweden":        "ARN",
	"finland":       "HEL",
	"denmark":       "CPH",
	"norway":        "OSL",
	"croatia":       "ZAG",
	"bulgaria":      "SOF",
	"romania":       "OTP",
	"slovakia":      "BTS",
	"slovenia":      "LJU",
	"estonia":       "TLL",
	"latvia":        "RIX",
	"lithuania":     "VNO",
	"luxembourg":    "LUX",
	"malta":         "MLA",
	"iceland":       "KEF",
	"liechtenstein": "ZRH",
}

var iataParenRe = regexp.MustCompile(`\(([A-Za-z]{3})\)`)

// ExtractIATA pulls an airport code from a departure city like
// "Bengaluru (BLR)", falling back to the first three letters, then DEL.
func ExtractIATA(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "DEL"
	}
	if m := iataParenRe.FindStringSubmatch(value); m != nil {
		return strings.ToUpper(m[1])
	}
	first := strings.Fields(value)[0]
	if len(first) > 3 {
		first = first[:3]
	}
	return strings.ToUpper(first)
}

// PrimaryAirport resolves the destination airport for a country, defaulting
// to CDG.
func PrimaryAirport(country string) string {
	if code, ok := primaryAirports[strings.ToLower(strings.TrimSpace(country))]; ok {
		return code
	}
	return "CDG"
}
