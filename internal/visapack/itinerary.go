package visapack

import (
	"context"
	"fmt"
	"log"
	"strings"

	"visapack/internal/trip"
)

const (
	// Segment size caps the per-call date count so prompts stay bounded.
	maxDaysPerCall = 8

	fillerSummary      = "Sightseeing and local exploration."
	summaryMaxWords    = 30
	summaryMaxSentence = 2
)

type itineraryDay struct {
	Date    string `json:"date"`
	City    string `json:"city"`
	Summary string `json:"summary"`
}

type itinerarySegment struct {
	Days []itineraryDay `json:"days"`
}

// PlanItinerary produces exactly one DayPlan per calendar date of the trip.
// Generation runs per date segment; any segment failure falls back to filler
// entries for that segment. A final pass re-deduplicates across segments and
// fills remaining gaps so the date invariant always holds.
func PlanItinerary(ctx context.Context, gen TextGenerator, req trip.TripRequest) ([]trip.DayPlan, error) {
	allDates, err := trip.DateList(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	log.Printf("visapack: planning itinerary for %d day(s)", len(allDates))

	var generated []trip.DayPlan
	for i := 0; i < len(allDates); i += maxDaysPerCall {
		end := i + maxDaysPerCall
		if end > len(allDates) {
			end = len(allDates)
		}
		segmentDates := allDates[i:end]
		segment, err := generateItinerarySegment(ctx, gen, req, segmentDates)
		if err != nil {
			log.Printf("visapack: fallback itinerary used for segment starting %s: %v", segmentDates[0], err)
			segment = fillerSegment(req, segmentDates)
		}
		generated = append(generated, segment...)
	}

	// Cross-segment pass: first entry per date wins, missing dates get
	// filler entries.
	byDate := map[string]trip.DayPlan{}
	for _, day := range generated {
		if _, ok := byDate[day.Date]; !ok {
			byDate[day.Date] = day
		}
	}
	final := make([]trip.DayPlan, 0, len(allDates))
	for _, date := range allDates {
		if day, ok := byDate[date]; ok {
			final = append(final, day)
		} else {
			final = append(final, fillerDay(req, date))
		}
	}
	return final, nil
}

func generateItinerarySegment(ctx context.Context, gen TextGenerator, req trip.TripRequest, segmentDates []string) ([]trip.DayPlan, error) {
	prompt := segmentPrompt(req, segmentDates)
	var segment itinerarySegment
	err := GenerateJSON(ctx, gen, "itinerary segment", prompt, &segment, func() error {
		if len(segment.Days) == 0 {
			return fmt.Errorf("days must be a non-empty array")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reconcileSegment(req, segmentDates, segment.Days), nil
}

// reconcileSegment repairs a generated day list against the segment's date
// set: misreported dates are remapped positionally to the first unclaimed
// segment date, summaries are bounded, duplicates drop (first wins), and
// every remaining date gets a filler entry.
func reconcileSegment(req trip.TripRequest, segmentDates []string, days []itineraryDay) []trip.DayPlan {
	inSegment := map[string]bool{}
	for _, d := range segmentDates {
		inSegment[d] = true
	}

	var repaired []trip.DayPlan
	claimed := map[string]bool{}
	for _, day := range days {
		date := strings.TrimSpace(day.Date)
		if !inSegment[date] {
			date = ""
			for _, d := range segmentDates {
				if !claimed[d] {
					date = d
					break
				}
			}
			if date == "" {
				date = segmentDates[0]
			}
		}
		city := strings.TrimSpace(day.City)
		if city == "" {
			city = req.DestinationCountries[0]
		}
		summary := strings.TrimSpace(day.Summary)
		if summary == "" {
			summary = fillerSummary
		}
		repaired = append(repaired, trip.DayPlan{
			Date:    date,
			City:    city,
			Summary: trip.TruncateSummary(summary, summaryMaxWords, summaryMaxSentence),
		})
		claimed[date] = true
	}

	byDate := map[string]trip.DayPlan{}
	for _, day := range repaired {
		if _, ok := byDate[day.Date]; !ok {
			byDate[day.Date] = day
		}
	}
	final := make([]trip.DayPlan, 0, len(segmentDates))
	for _, date := range segmentDates {
		if day, ok := byDate[date]; ok {
			final = append(final, day)
		} else {
			final = append(final, fillerDay(req, date))
		}
	}
	return final
}

func fillerSegment(req trip.TripRequest, dates []string) []trip.DayPlan {
	plans := make([]trip.DayPlan, 0, len(dates))
	for _, date := range dates {
		plans = append(plans, fillerDay(req, date))
	}
	return plans
}

func fillerDay(req trip.TripRequest, date string) trip.DayPlan {
	return trip.DayPlan{
		Date:    date,
		City:    req.DestinationCountries[0],
		Summary: fillerSummary,
	}
}

func segmentPrompt(req trip.TripRequest, segmentDates []string) string {
	return fmt.Sprintf(`Generate an itinerary ONLY for the following dates of the trip:
%s

For each date, create exactly ONE day object with:
  - "date": the exact date string from the list above.
  - "city": a city in the destination countries (%s) that makes sense for the trip.
  - "summary": a concise 1-2 sentence description of the day's main activities.

Traveller details:
- Nationality: %s
- Departure city: %s
- Destination countries: %s
- Overall trip dates: %s to %s
- Purpose: %s
- Budget band per person: %s
- Travellers count: %d

Style rules for "summary":
- 1-2 sentences maximum.
- Max ~30 words.
- No bullet points, no lists, no line breaks.
- Visa-friendly: typical sightseeing, museums, walking tours, cafes, day trips.

Output schema: {"days": [{"date": "...", "city": "...", "summary": "..."}]}`,
		strings.Join(segmentDates, ", "),
		strings.Join(req.DestinationCountries, ", "),
		req.Nationality,
		req.DepartureCity,
		strings.Join(req.DestinationCountries, ", "),
		req.StartDate, req.EndDate,
		req.Purpose,
		req.BudgetBand,
		req.TravellersCount,
	)
}
