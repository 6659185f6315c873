package research

import (
	"context"
	"errors"
	"testing"
)

func TestNormalizeFlightsStructuredPath(t *testing.T) {
	res := RawResult{
		URL: "https://example.com/offers",
		StructuredSummary: map[string]any{
			"flights": []any{
				map[string]any{
					"airline":       "Air France",
					"flight_number": "AF191",
					"stops":         float64(0),
					"price":         "€450",
					"duration":      "10h 30m",
				},
				map[string]any{
					"carrier":   "Lufthansa",
					"price_eur": float64(520),
				},
			},
		},
	}
	cands := NormalizeFlights(res, "2025-06-10")
	if len(cands) != 2 {
		t.Fatalf("got %d candidates, want 2", len(cands))
	}
	first := cands[0]
	if first.Option.Airline != "Air France" || first.Option.Price != 450 || first.Option.Stops != 0 {
		t.Fatalf("unexpected first option: %+v", first.Option)
	}
	if first.Option.FlightNumber == nil || *first.Option.FlightNumber != "AF191" {
		t.Fatalf("flight number not mapped: %+v", first.Option)
	}
	second := cands[1]
	if second.Option.Airline != "Lufthansa" {
		t.Fatalf("carrier alternate not used: %+v", second.Option)
	}
	if second.Option.Stops != 1 {
		t.Fatalf("missing stops should default to 1, got %d", second.Option.Stops)
	}
	if second.Option.Duration != "See booking site" {
		t.Fatalf("missing duration label = %q", second.Option.Duration)
	}
	if second.Option.BookingURL != "https://example.com/offers" {
		t.Fatalf("booking url should fall back to result url, got %q", second.Option.BookingURL)
	}
}

func TestNormalizeFlightsFencedJSONSummary(t *testing.T) {
	res := RawResult{
		StructuredSummary: "```json\n{\"flights\":[{\"airline\":\"KLM\",\"stops\":\"2\",\"price\":\"300 EUR\"}]}\n```",
	}
	cands := NormalizeFlights(res, "2025-06-10")
	if len(cands) != 1 {
		t.Fatalf("got %d candidates, want 1", len(cands))
	}
	if cands[0].Option.Stops != 2 || cands[0].Option.Price != 300 {
		t.Fatalf("unexpected option: %+v", cands[0].Option)
	}
}

func TestNormalizeFlightsFreeTextPath(t *testing.T) {
	res := RawResult{
		Title:   "Emirates nonstop deal",
		Content: "Fly for just €480, around 9h in the air.",
		URL:     "https://example.com/ek",
	}
	cands := NormalizeFlights(res, "2025-06-10")
	if len(cands) != 1 {
		t.Fatalf("got %d candidates, want 1", len(cands))
	}
	opt := cands[0].Option
	if opt.Stops != 0 || opt.Price != 480 {
		t.Fatalf("unexpected option: %+v", opt)
	}
	if opt.Duration != "~9h travel time" {
		t.Fatalf("duration label = %q", opt.Duration)
	}
	wantKey := []float64{0, 9, 480}
	for i, v := range wantKey {
		if cands[0].Key[i] != v {
			t.Fatalf("key = %v, want %v", cands[0].Key, wantKey)
		}
	}
}

func TestNormalizeHotelsQualityFloor(t *testing.T) {
	res := RawResult{Title: "Cheap 2 star hostel", Content: "from €20"}
	if cands := NormalizeHotels(res, "Paris", 3); len(cands) != 0 {
		t.Fatalf("2-star free-text candidate should be discarded, got %d", len(cands))
	}

	// Structured rows are exempt from the floor.
	structured := RawResult{
		StructuredSummary: map[string]any{
			"hotels": []any{
				map[string]any{"name": "Budget Inn", "star_rating": "2 star", "nightly_rate": "€40"},
			},
		},
	}
	cands := NormalizeHotels(structured, "Paris", 3)
	if len(cands) != 1 {
		t.Fatalf("structured 2-star row should survive, got %d", len(cands))
	}
	if cands[0].Option.TotalCost != 120 {
		t.Fatalf("total cost = %v, want 120", cands[0].Option.TotalCost)
	}
}

func TestNormalizeHotelsDefaultsRating(t *testing.T) {
	res := RawResult{Title: "Charming boutique hotel near the river", Content: "rooms from €150"}
	cands := NormalizeHotels(res, "Paris", 2)
	if len(cands) != 1 {
		t.Fatalf("got %d candidates", len(cands))
	}
	if cands[0].Option.StarRating != 4 {
		t.Fatalf("rating = %d, want default 4", cands[0].Option.StarRating)
	}
}

func TestRawFallbacks(t *testing.T) {
	results := []RawResult{
		{Title: "Option A", Content: "€100"},
		{Title: "Option B", Content: "no price"},
		{Title: "Option C", Content: "€300"},
	}
	flights := RawFallbackFlights(results, 2, "2025-06-10")
	if len(flights) != 2 {
		t.Fatalf("got %d flights, want 2", len(flights))
	}
	if flights[0].Price != 100 || flights[0].Stops != 1 {
		t.Fatalf("unexpected fallback flight: %+v", flights[0])
	}
	hotels := RawFallbackHotels(results, 2, "Rome", 4)
	if len(hotels) != 2 {
		t.Fatalf("got %d hotels, want 2", len(hotels))
	}
	if hotels[0].StarRating != 4 {
		t.Fatalf("fallback hotel rating = %d, want 4", hotels[0].StarRating)
	}
}

type stubProvider struct {
	results []RawResult
	err     error
	calls   int
}

func (s *stubProvider) Search(ctx context.Context, query string, opts SearchOptions) ([]RawResult, error) {
	s.calls++
	return s.results, s.err
}

func TestTieredSearcherFallsBack(t *testing.T) {
	agentic := &stubProvider{err: errors.New("401 unauthorized")}
	keyword := &stubProvider{results: []RawResult{{Title: "hit"}}}
	tiered := &TieredSearcher{Agentic: agentic, Keyword: keyword}

	results, err := tiered.Search(context.Background(), "q", SearchOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || keyword.calls != 1 {
		t.Fatalf("keyword fallback not used: results=%d calls=%d", len(results), keyword.calls)
	}
}

func TestTieredSearcherShortCircuitsKeyword(t *testing.T) {
	agentic := &stubProvider{results: []RawResult{{Title: "structured"}}}
	keyword := &stubProvider{}
	tiered := &TieredSearcher{Agentic: agentic, Keyword: keyword}

	results, err := tiered.Search(context.Background(), "q", SearchOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || keyword.calls != 0 {
		t.Fatal("agentic result should short-circuit the keyword provider")
	}
}

func TestTieredSearcherEmptyAgenticFallsBack(t *testing.T) {
	agentic := &stubProvider{}
	keyword := &stubProvider{results: []RawResult{{Title: "kw"}}}
	tiered := &TieredSearcher{Agentic: agentic, Keyword: keyword}

	results, err := tiered.Search(context.Background(), "q", SearchOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Title != "kw" {
		t.Fatalf("expected keyword results, got %+v", results)
	}
}
