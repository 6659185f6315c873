package research

import (
	"testing"

	"visapack/internal/trip"
)

func TestRankFlightsOrdersByStopsThenPrice(t *testing.T) {
	candidates := []FlightCandidate{
		{Key: []float64{0, 100}, Option: trip.FlightOption{Airline: "A", Stops: 0, Price: 100}},
		{Key: []float64{1, 50}, Option: trip.FlightOption{Airline: "B", Stops: 1, Price: 50}},
		{Key: []float64{0, 80}, Option: trip.FlightOption{Airline: "C", Stops: 0, Price: 80}},
	}
	ranked := RankFlights(candidates, 2)
	if len(ranked) != 2 {
		t.Fatalf("got %d options, want 2", len(ranked))
	}
	if ranked[0].Airline != "C" || ranked[1].Airline != "A" {
		t.Fatalf("order = [%s %s], want [C A]", ranked[0].Airline, ranked[1].Airline)
	}
}

func TestRankFlightsNeverExceedsTopK(t *testing.T) {
	var candidates []FlightCandidate
	for i := 0; i < 10; i++ {
		candidates = append(candidates, FlightCandidate{Key: []float64{1, float64(i)}})
	}
	if got := RankFlights(candidates, MaxRankedFlights); len(got) != MaxRankedFlights {
		t.Fatalf("got %d options, want %d", len(got), MaxRankedFlights)
	}
}

func TestRankFlightsStableOnTies(t *testing.T) {
	candidates := []FlightCandidate{
		{Key: []float64{1, 200}, Option: trip.FlightOption{Airline: "first"}},
		{Key: []float64{1, 200}, Option: trip.FlightOption{Airline: "second"}},
	}
	ranked := RankFlights(candidates, 2)
	if ranked[0].Airline != "first" {
		t.Fatal("tie should keep input order")
	}
}

func TestRankHotelsPrefersCheaperThenHigherRated(t *testing.T) {
	candidates := []HotelCandidate{
		{Key: []float64{120, -3}, Option: trip.HotelOption{Name: "ThreeStar"}},
		{Key: []float64{120, -5}, Option: trip.HotelOption{Name: "FiveStar"}},
		{Key: []float64{90, -4}, Option: trip.HotelOption{Name: "Cheap"}},
	}
	ranked := RankHotels(candidates, MaxRankedHotels)
	if len(ranked) != 2 {
		t.Fatalf("got %d options", len(ranked))
	}
	if ranked[0].Name != "Cheap" || ranked[1].Name != "FiveStar" {
		t.Fatalf("order = [%s %s], want [Cheap FiveStar]", ranked[0].Name, ranked[1].Name)
	}
}

func TestLessKeyMixedLengths(t *testing.T) {
	// A structured key exhausted against a longer free-text key with an
	// equal prefix sorts first.
	if !lessKey([]float64{1, 200}, []float64{1, 200, 50}) {
		t.Fatal("shorter key with equal prefix should sort first")
	}
	if lessKey([]float64{2, 10}, []float64{1, 99, 5}) {
		t.Fatal("first element should dominate")
	}
}
