package visapack

import (
	"context"
	"errors"
	"fmt"
	"time"

	"visapack/internal/trip"
)

type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func StageNameFromError(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return "pipeline"
}

type StageProgressFn func(stage, message string)

// FlightFetcher yields ranked flight options for a request. Provider
// failures are absorbed inside the fetcher; an empty slice is a valid
// answer only for fetchers without a terminal fallback.
type FlightFetcher interface {
	Fetch(ctx context.Context, req trip.TripRequest) []trip.FlightOption
}

// HotelFetcher yields ranked hotel options for the itinerary's cities.
type HotelFetcher interface {
	Fetch(ctx context.Context, req trip.TripRequest, cities []string) []trip.HotelOption
}

// InsurancePlanner yields the insurance plan spread for a request.
type InsurancePlanner func(req trip.TripRequest) []trip.InsuranceOption

// Pipeline is the one-shot batch driver: classify rules, plan the itinerary,
// research options, enrich, validate, and assemble documents. Every research
// stage absorbs provider failures internally; only malformed input and
// document assembly can fail the run.
type Pipeline struct {
	generator TextGenerator
	flights   FlightFetcher
	hotels    HotelFetcher
	insurance InsurancePlanner
}

func NewPipeline(generator TextGenerator, flights FlightFetcher, hotels HotelFetcher, insurance InsurancePlanner) *Pipeline {
	return &Pipeline{generator: generator, flights: flights, hotels: hotels, insurance: insurance}
}

func (p *Pipeline) Run(ctx context.Context, req trip.TripRequest) (trip.TripPlan, error) {
	return p.runWithProgress(ctx, req, nil)
}

func (p *Pipeline) RunWithProgress(ctx context.Context, req trip.TripRequest, progress StageProgressFn) (trip.TripPlan, error) {
	return p.runWithProgress(ctx, req, progress)
}

func (p *Pipeline) runWithProgress(ctx context.Context, req trip.TripRequest, progress StageProgressFn) (trip.TripPlan, error) {
	plan := trip.TripPlan{Request: req}
	if err := req.Validate(); err != nil {
		return plan, &StageError{Stage: "input", Err: err}
	}
	plan.ApplyBudgetBand()

	emit(progress, "rules", "Classifying visa rules...")
	rules := trip.ClassifyVisaRules(req)
	plan.Rules = &rules

	emit(progress, "itinerary", "Planning day-by-day itinerary...")
	stageStarted := time.Now()
	itinerary, err := PlanItinerary(ctx, p.generator, req)
	if err != nil {
		// Only date-range errors reach here; generation failures are
		// absorbed per segment.
		return plan, &StageError{Stage: "itinerary", Err: err}
	}
	plan.Itinerary = itinerary
	emit(progress, "itinerary", fmt.Sprintf("Itinerary complete in %s", time.Since(stageStarted).Round(time.Millisecond)))

	emit(progress, "flights", "Researching flight options...")
	plan.Flights = p.flights.Fetch(ctx, req)

	emit(progress, "hotels", "Researching hotel options...")
	plan.Hotels = p.hotels.Fetch(ctx, req, itineraryCities(plan))

	emit(progress, "insurance", "Selecting insurance plans...")
	plan.InsuranceOptions = p.insurance(req)

	emit(progress, "enrich", "Enriching itinerary days...")
	EnrichItinerary(&plan)

	emit(progress, "validate", "Validating plan...")
	plan.ValidationIssues = validatePlan(plan)

	emit(progress, "documents", "Assembling documents...")
	stageStarted = time.Now()
	documents, err := GenerateDocuments(ctx, p.generator, &plan)
	if err != nil {
		return plan, &StageError{Stage: "documents", Err: err}
	}
	plan.Documents = documents
	emit(progress, "documents", fmt.Sprintf("Documents complete in %s", time.Since(stageStarted).Round(time.Millisecond)))

	return plan, nil
}

// itineraryCities lists the distinct itinerary cities in first-seen order,
// defaulting to the first destination country when no itinerary exists.
func itineraryCities(plan trip.TripPlan) []string {
	if len(plan.Itinerary) == 0 {
		return []string{plan.Request.DestinationCountries[0]}
	}
	var cities []string
	seen := map[string]bool{}
	for _, day := range plan.Itinerary {
		if !seen[day.City] {
			seen[day.City] = true
			cities = append(cities, day.City)
		}
	}
	return cities
}

// validatePlan collects advisory issues. Issues never block document
// assembly.
func validatePlan(plan trip.TripPlan) []string {
	var issues []string
	if len(plan.Itinerary) == 0 {
		issues = append(issues, "No itinerary generated.")
	}
	if len(plan.Flights) == 0 {
		issues = append(issues, "No flight options generated.")
	}
	if len(plan.Hotels) == 0 {
		issues = append(issues, "No hotel options generated.")
	}
	return issues
}

func emit(progress StageProgressFn, stage, message string) {
	if progress != nil {
		progress(stage, message)
	}
}
