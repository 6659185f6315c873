package trip

import "strings"

var schengenCountries = map[string]struct{}{
	"austria": {}, "belgium": {}, "bulgaria": {}, "croatia": {}, "czechia": {},
	"denmark": {}, "estonia": {}, "finland": {}, "france": {}, "germany": {},
	"greece": {}, "hungary": {}, "iceland": {}, "italy": {}, "latvia": {},
	"liechtenstein": {}, "lithuania": {}, "luxembourg": {}, "malta": {},
	"netherlands": {}, "norway": {}, "poland": {}, "portugal": {},
	"romania": {}, "slovakia": {}, "slovenia": {}, "spain": {}, "sweden": {},
	"switzerland": {},
}

// ClassifyVisaRules derives the visa rule set for a request. The rules are
// computed once per plan and never mutated afterward.
func ClassifyVisaRules(req TripRequest) VisaRules {
	for _, country := range req.DestinationCountries {
		if _, ok := schengenCountries[strings.ToLower(strings.TrimSpace(country))]; ok {
			return VisaRules{
				VisaType:                "Schengen Short-Stay (Type C)",
				MinInsuranceCoverageEUR: 30_000,
				TypicalRequiredDocs: []string{
					"Completed & signed visa application form",
					"Passport with required validity and blank pages",
					"Recent passport-sized photographs",
					"Travel medical insurance (min €30,000 coverage)",
					"Round-trip flight reservation",
					"Hotel reservation(s) or proof of accommodation",
					"Proof of sufficient funds (bank statements, salary slips, etc.)",
					"Proof of employment / business / studies",
					"Travel itinerary and cover letter explaining trip purpose",
				},
				Notes: "Rules vary by consulate; user must confirm with their specific VFS/consulate.",
			}
		}
	}
	return VisaRules{
		VisaType:                "Generic Tourist Visa",
		MinInsuranceCoverageEUR: 30_000,
		TypicalRequiredDocs: []string{
			"Visa application form",
			"Passport",
			"Photographs",
			"Travel insurance",
			"Travel bookings",
			"Proof of funds",
			"Cover letter",
		},
		Notes: "Destination not recognized as Schengen in this prototype.",
	}
}
