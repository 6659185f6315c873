package visapack

import (
	"context"
	"errors"
	"strings"
	"testing"

	"visapack/internal/trip"
)

type stubFlights struct{ options []trip.FlightOption }

func (s stubFlights) Fetch(context.Context, trip.TripRequest) []trip.FlightOption {
	return s.options
}

type stubHotels struct{ options []trip.HotelOption }

func (s stubHotels) Fetch(context.Context, trip.TripRequest, []string) []trip.HotelOption {
	return s.options
}

func stubInsurance(trip.TripRequest) []trip.InsuranceOption {
	return []trip.InsuranceOption{{Provider: "SafeVoyage", CoverageEUR: 30_000, PricePerPerson: 3_500}}
}

func cannedPipeline(t *testing.T) *Pipeline {
	t.Helper()
	gen := generatorFunc(func(ctx context.Context, prompt string) (string, error) {
		if strings.Contains(prompt, "cover letter") {
			return "Dear Consular Officer,\n\nAttached are my plans.\n\nSincerely", nil
		}
		return segmentResponder(t).Generate(ctx, prompt)
	})
	return NewPipeline(gen,
		stubFlights{options: []trip.FlightOption{
			{Label: "Inbound Option", Airline: "AF", FromAirport: "BLR", ToAirport: "CDG", DepartTime: "2025-06-10T02:00", ArriveTime: "2025-06-10T09:30", Price: 52000},
			{Label: "Outbound Option", Airline: "AF", FromAirport: "BLR", ToAirport: "CDG", DepartTime: "2025-06-12T18:00", ArriveTime: "2025-06-13T06:00", Price: 52000},
		}},
		stubHotels{options: []trip.HotelOption{
			{Name: "Hotel Lumiere", City: "Paris", NightlyPrice: 9500, BookingURL: "https://example.com"},
		}},
		stubInsurance,
	)
}

func TestPipelineEndToEnd(t *testing.T) {
	plan, err := cannedPipeline(t).Run(context.Background(), planRequest())
	if err != nil {
		t.Fatal(err)
	}
	if len(plan.Itinerary) != 3 {
		t.Errorf("itinerary has %d entries, want 3", len(plan.Itinerary))
	}
	if len(plan.Flights) < 1 || len(plan.Hotels) < 1 {
		t.Errorf("flights=%d hotels=%d, want at least one each", len(plan.Flights), len(plan.Hotels))
	}
	if plan.Documents == nil {
		t.Fatal("documents object is nil")
	}
	if plan.Rules == nil || !strings.Contains(plan.Rules.VisaType, "Schengen") {
		t.Errorf("visa rules = %+v, want Schengen marker", plan.Rules)
	}
	if plan.BudgetPerPersonMinINR != 150_000 {
		t.Errorf("budget min = %d, want medium band", plan.BudgetPerPersonMinINR)
	}
	if len(plan.ValidationIssues) != 0 {
		t.Errorf("validation issues = %v", plan.ValidationIssues)
	}
}

func TestPipelineRejectsMalformedInput(t *testing.T) {
	req := planRequest()
	req.DestinationCountries = nil
	_, err := cannedPipeline(t).Run(context.Background(), req)
	if err == nil {
		t.Fatal("expected hard error for empty destinations")
	}
	if StageNameFromError(err) != "input" {
		t.Errorf("stage = %q, want input", StageNameFromError(err))
	}
}

func TestPipelineValidationIssuesAreAdvisory(t *testing.T) {
	gen := generatorFunc(func(ctx context.Context, prompt string) (string, error) {
		if strings.Contains(prompt, "cover letter") {
			return "Dear Consular Officer, ...", nil
		}
		return "", errors.New("status code: 400")
	})
	p := NewPipeline(gen, stubFlights{}, stubHotels{}, stubInsurance)
	plan, err := p.Run(context.Background(), planRequest())
	if err != nil {
		t.Fatalf("advisory issues must not fail the run: %v", err)
	}
	if len(plan.ValidationIssues) != 2 {
		t.Errorf("issues = %v, want missing flights and hotels", plan.ValidationIssues)
	}
	if plan.Documents == nil {
		t.Error("documents should still assemble with advisory issues present")
	}
	if len(plan.Itinerary) != 3 {
		t.Errorf("itinerary filler entries = %d, want 3", len(plan.Itinerary))
	}
}

func TestPipelineDocumentFailureIsHard(t *testing.T) {
	gen := generatorFunc(func(ctx context.Context, prompt string) (string, error) {
		if strings.Contains(prompt, "cover letter") {
			return "", errors.New("status code: 400")
		}
		return segmentResponder(t).Generate(ctx, prompt)
	})
	p := NewPipeline(gen, stubFlights{}, stubHotels{}, stubInsurance)
	_, err := p.Run(context.Background(), planRequest())
	if err == nil {
		t.Fatal("expected hard error from document assembly")
	}
	if StageNameFromError(err) != "documents" {
		t.Errorf("stage = %q, want documents", StageNameFromError(err))
	}
}

func TestPipelineEmitsProgress(t *testing.T) {
	var stages []string
	_, err := cannedPipeline(t).RunWithProgress(context.Background(), planRequest(), func(stage, _ string) {
		if len(stages) == 0 || stages[len(stages)-1] != stage {
			stages = append(stages, stage)
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"rules", "itinerary", "flights", "hotels", "insurance", "enrich", "validate", "documents"}
	if len(stages) != len(want) {
		t.Fatalf("stages = %v, want %v", stages, want)
	}
	for i := range want {
		if stages[i] != want[i] {
			t.Errorf("stage %d = %q, want %q", i, stages[i], want[i])
		}
	}
}
