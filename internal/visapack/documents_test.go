package visapack

import (
	"context"
	"errors"
	"strings"
	"testing"

	"visapack/internal/trip"
)

func TestGenerateDocumentsAssemblesAllSections(t *testing.T) {
	plan := enrichedPlan("")
	rules := trip.ClassifyVisaRules(plan.Request)
	plan.Rules = &rules
	EnrichItinerary(&plan)

	gen := generatorFunc(func(_ context.Context, prompt string) (string, error) {
		if !strings.Contains(prompt, "Consular Officer") {
			t.Errorf("cover letter prompt missing addressee")
		}
		return "Dear Consular Officer,\n\nPlease find attached...\n\nSincerely", nil
	})
	docs, err := GenerateDocuments(context.Background(), gen, &plan)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(docs.CoverLetter, "Dear Consular Officer") {
		t.Errorf("cover letter = %q", docs.CoverLetter)
	}
	if !strings.HasPrefix(docs.TravelItineraryText, "| Date | City |") {
		t.Errorf("itinerary table header missing: %q", docs.TravelItineraryText)
	}
	if got := strings.Count(docs.TravelItineraryText, "\n"); got != 4 {
		t.Errorf("table line count = %d, want header + separator + 3 rows", got+1)
	}
	if !strings.Contains(docs.FlightsSummary, "Inbound Option: BLR → CDG") {
		t.Errorf("flights summary = %q", docs.FlightsSummary)
	}
	if !strings.Contains(docs.HotelsSummary, "Hotel Lumiere (Paris)") {
		t.Errorf("hotels summary = %q", docs.HotelsSummary)
	}
	if !strings.Contains(docs.Checklist, "- [ ] Travel medical insurance (min €30,000 coverage)") {
		t.Errorf("checklist = %q", docs.Checklist)
	}
}

func TestItineraryTableEscapesPipes(t *testing.T) {
	plan := trip.TripPlan{
		Request: planRequest(),
		Itinerary: []trip.DayPlan{
			{Date: "2025-06-10", City: "Paris | Montmartre", Summary: "Walk | explore."},
		},
	}
	table := itineraryTable(&plan)
	rows := strings.Split(table, "\n")
	last := rows[len(rows)-1]
	if strings.Contains(last, "Paris | Montmartre") {
		t.Errorf("pipe not escaped in city cell: %q", last)
	}
	if !strings.Contains(last, "Paris / Montmartre") {
		t.Errorf("escaped city missing: %q", last)
	}
}

func TestItineraryTableFallsBackToSummary(t *testing.T) {
	plan := trip.TripPlan{
		Request: planRequest(),
		Itinerary: []trip.DayPlan{
			{Date: "2025-06-10", City: "Paris", Summary: "Quiet day."},
		},
	}
	table := itineraryTable(&plan)
	if !strings.Contains(table, "Quiet day.") {
		t.Errorf("summary fallback missing: %q", table)
	}
	if !strings.Contains(table, "See recommended stays") {
		t.Errorf("stay fallback missing: %q", table)
	}
	if !strings.Contains(table, "Local transit / walking") {
		t.Errorf("transport fallback missing: %q", table)
	}
}

func TestGenerateDocumentsPropagatesGeneratorFailure(t *testing.T) {
	plan := enrichedPlan("")
	gen := generatorFunc(func(context.Context, string) (string, error) {
		return "", errors.New("status code: 500")
	})
	if _, err := GenerateDocuments(context.Background(), gen, &plan); err == nil {
		t.Fatal("expected hard error from document assembly")
	}
}

func TestChecklistWithoutRules(t *testing.T) {
	got := checklist(nil)
	if !strings.Contains(got, "Check latest requirements") {
		t.Errorf("checklist = %q", got)
	}
}
