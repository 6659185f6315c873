package research

import (
	"sort"

	"visapack/internal/trip"
)

// Ranked option list caps.
const (
	MaxRankedFlights = 3
	MaxRankedHotels  = 2
)

// RankFlights orders candidates ascending by comparison key (fewer stops,
// then cheaper) and returns at most topK options. Ties keep input order.
func RankFlights(candidates []FlightCandidate, topK int) []trip.FlightOption {
	sort.SliceStable(candidates, func(i, j int) bool {
		return lessKey(candidates[i].Key, candidates[j].Key)
	})
	out := make([]trip.FlightOption, 0, topK)
	for _, c := range candidates {
		if len(out) >= topK {
			break
		}
		out = append(out, c.Option)
	}
	return out
}

// RankHotels orders candidates ascending by key (cheaper nightly rate, then
// higher star rating) and returns at most topK options.
func RankHotels(candidates []HotelCandidate, topK int) []trip.HotelOption {
	sort.SliceStable(candidates, func(i, j int) bool {
		return lessKey(candidates[i].Key, candidates[j].Key)
	})
	out := make([]trip.HotelOption, 0, topK)
	for _, c := range candidates {
		if len(out) >= topK {
			break
		}
		out = append(out, c.Option)
	}
	return out
}

// lessKey compares keys lexicographically. Keys may differ in length
// (structured vs free-text flight keys); an exhausted shorter key sorts
// first, matching tuple comparison semantics.
func lessKey(a, b []float64) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
