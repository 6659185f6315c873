package visapack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"visapack/internal/trip"
)

func planRequest() trip.TripRequest {
	return trip.TripRequest{
		Nationality:          "Indian",
		ResidenceCountry:     "India",
		DepartureCity:        "Bengaluru (BLR)",
		DestinationCountries: []string{"France"},
		StartDate:            "2025-06-10",
		EndDate:              "2025-06-12",
		Purpose:              "Tourism",
		BudgetBand:           "medium",
		TravellersCount:      1,
	}
}

func TestReconcileSegmentRemapsMisreportedDates(t *testing.T) {
	req := planRequest()
	segmentDates := []string{"2025-06-10", "2025-06-11"}
	days := []itineraryDay{
		{Date: "2025-07-01", City: "Paris", Summary: "Louvre visit."},
		{Date: "2025-06-11", City: "Paris", Summary: "Day trip to Versailles."},
	}
	got := reconcileSegment(req, segmentDates, days)
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2", len(got))
	}
	if got[0].Date != "2025-06-10" || got[0].Summary != "Louvre visit." {
		t.Errorf("misreported date not remapped positionally: %+v", got[0])
	}
	if got[1].Date != "2025-06-11" {
		t.Errorf("valid date changed: %+v", got[1])
	}
}

func TestReconcileSegmentDeduplicatesFirstWins(t *testing.T) {
	req := planRequest()
	segmentDates := []string{"2025-06-10"}
	days := []itineraryDay{
		{Date: "2025-06-10", City: "Paris", Summary: "First."},
		{Date: "2025-06-10", City: "Lyon", Summary: "Second."},
	}
	got := reconcileSegment(req, segmentDates, days)
	if len(got) != 1 {
		t.Fatalf("got %d entries, want 1", len(got))
	}
	if got[0].Summary != "First." {
		t.Errorf("duplicate resolution kept %q, want first occurrence", got[0].Summary)
	}
}

func TestReconcileSegmentFillsMissingDates(t *testing.T) {
	req := planRequest()
	segmentDates := []string{"2025-06-10", "2025-06-11", "2025-06-12"}
	days := []itineraryDay{{Date: "2025-06-11", City: "Paris", Summary: "Museums."}}
	got := reconcileSegment(req, segmentDates, days)
	if len(got) != 3 {
		t.Fatalf("got %d entries, want 3", len(got))
	}
	if got[0].City != "France" || got[0].Summary != fillerSummary {
		t.Errorf("filler entry = %+v", got[0])
	}
	if got[1].Summary != "Museums." {
		t.Errorf("generated entry lost: %+v", got[1])
	}
}

func TestReconcileSegmentTruncatesSummaries(t *testing.T) {
	req := planRequest()
	long := strings.Repeat("Stroll the old town and sample pastries. ", 6)
	got := reconcileSegment(req, []string{"2025-06-10"}, []itineraryDay{
		{Date: "2025-06-10", City: "Paris", Summary: long},
	})
	words := strings.Fields(got[0].Summary)
	if len(words) > summaryMaxWords+1 {
		t.Errorf("summary not bounded: %d words", len(words))
	}
}

func segmentResponder(t *testing.T) TextGenerator {
	t.Helper()
	return generatorFunc(func(_ context.Context, prompt string) (string, error) {
		// Echo one day per date mentioned in the prompt's first line block.
		var dates []string
		for _, token := range strings.Fields(prompt) {
			token = strings.Trim(token, ",")
			if len(token) == 10 && strings.Count(token, "-") == 2 {
				dates = append(dates, token)
			}
		}
		var seg itinerarySegment
		for _, d := range dates {
			seg.Days = append(seg.Days, itineraryDay{Date: d, City: "Paris", Summary: fmt.Sprintf("Planned day in Paris on %s.", d)})
			if len(seg.Days) == maxDaysPerCall {
				break
			}
		}
		blob, _ := json.Marshal(seg)
		return string(blob), nil
	})
}

type generatorFunc func(ctx context.Context, prompt string) (string, error)

func (f generatorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

func TestPlanItineraryCoversEveryDateOnce(t *testing.T) {
	got, err := PlanItinerary(context.Background(), segmentResponder(t), planRequest())
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"2025-06-10", "2025-06-11", "2025-06-12"}
	if len(got) != len(want) {
		t.Fatalf("got %d entries, want %d", len(got), len(want))
	}
	for i, d := range want {
		if got[i].Date != d {
			t.Errorf("entry %d date = %s, want %s", i, got[i].Date, d)
		}
	}
}

func TestPlanItineraryLongTripSpansSegments(t *testing.T) {
	req := planRequest()
	req.EndDate = "2025-06-21" // 12 days, two segments
	got, err := PlanItinerary(context.Background(), segmentResponder(t), req)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 12 {
		t.Fatalf("got %d entries, want 12", len(got))
	}
	seen := map[string]bool{}
	for _, day := range got {
		if seen[day.Date] {
			t.Errorf("duplicate date %s", day.Date)
		}
		seen[day.Date] = true
	}
}

func TestPlanItineraryGeneratorFailureFallsBackToFiller(t *testing.T) {
	gen := generatorFunc(func(context.Context, string) (string, error) {
		return "", errors.New("status code: 401")
	})
	got, err := PlanItinerary(context.Background(), gen, planRequest())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d entries, want 3 filler days", len(got))
	}
	for _, day := range got {
		if day.Summary != fillerSummary || day.City != "France" {
			t.Errorf("expected filler entry, got %+v", day)
		}
	}
}

func TestPlanItineraryRejectsInvalidRange(t *testing.T) {
	req := planRequest()
	req.EndDate = "2025-06-01"
	if _, err := PlanItinerary(context.Background(), segmentResponder(t), req); err == nil {
		t.Fatal("expected error for reversed date range")
	}
}
