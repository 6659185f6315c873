package providers

import "strings"

// Static conversion table into the INR reporting currency. This is a
// point-in-time approximation, not a live feed.
var inrRates = map[string]float64{
	"EUR": 90.0,
	"USD": 83.0,
}

const defaultINRRate = 85.0

func ToINR(amount float64, currency string) float64 {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if code == "INR" {
		return amount
	}
	rate, ok := inrRates[code]
	if !ok {
		rate = defaultINRRate
	}
	return amount * rate
}
