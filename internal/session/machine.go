package session

import (
	"context"
	"fmt"
	"log"

	"visapack/internal/research"
	"visapack/internal/visapack"
)

// Machine drives the interactive stage sequence. Each transition consumes
// and republishes the full state and appends one log message; the state is
// checkpointed after every transition so progress is observable and
// resumable by thread id.
type Machine struct {
	searcher  research.Provider
	generator visapack.TextGenerator
	store     CheckpointStore
}

func NewMachine(searcher research.Provider, generator visapack.TextGenerator, store CheckpointStore) *Machine {
	return &Machine{searcher: searcher, generator: generator, store: store}
}

type stageFn func(ctx context.Context, state *State)

func (m *Machine) stage(name string) stageFn {
	switch name {
	case StageFlightResearch:
		return m.flightResearch
	case StageHotelResearch:
		return m.hotelResearch
	case StageInsuranceResearch:
		return m.insuranceResearch
	case StageDocumentGeneration:
		return m.documentGeneration
	case StagePreview:
		return m.preview
	case StageFinalOutput:
		return m.finalOutput
	default:
		return nil
	}
}

// Run executes the full stage sequence for a new session. Stage-internal
// failures are absorbed into the state; only malformed payloads and
// checkpoint-store failures surface as errors.
func (m *Machine) Run(ctx context.Context, threadID string, payload Payload) (State, error) {
	state, err := NewState(threadID, payload)
	if err != nil {
		return state, err
	}
	return m.resume(ctx, state)
}

// Resume continues a checkpointed session from its current stage.
func (m *Machine) Resume(ctx context.Context, threadID string) (State, error) {
	state, ok, err := m.store.Load(ctx, threadID)
	if err != nil {
		return State{}, err
	}
	if !ok {
		return State{}, fmt.Errorf("no session found for thread %s", threadID)
	}
	if state.IsComplete {
		return state, nil
	}
	return m.resume(ctx, state)
}

func (m *Machine) resume(ctx context.Context, state State) (State, error) {
	remaining := remainingStages(state.CurrentStage)
	for i, name := range remaining {
		if err := ctx.Err(); err != nil {
			return state, err
		}
		log.Printf("session: thread=%s stage=%s", state.ThreadID, name)
		m.stage(name)(ctx, &state)
		if i+1 < len(remaining) {
			state.CurrentStage = remaining[i+1]
		} else {
			state.CurrentStage = StageComplete
		}
		if err := m.checkpoint(ctx, state); err != nil {
			return state, err
		}
	}
	return state, nil
}

// remainingStages returns the stages still to run given the current marker.
// CurrentStage names the next stage to execute, not the last finished one.
func remainingStages(current string) []string {
	if current == "" || current == StageStart {
		return StageOrder
	}
	for i, name := range StageOrder {
		if name == current {
			return StageOrder[i:]
		}
	}
	return nil
}

func (m *Machine) checkpoint(ctx context.Context, state State) error {
	if m.store == nil {
		return nil
	}
	if err := m.store.Save(ctx, state.ThreadID, state); err != nil {
		return fmt.Errorf("checkpoint save failed for thread %s: %w", state.ThreadID, err)
	}
	return nil
}
