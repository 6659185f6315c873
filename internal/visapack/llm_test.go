package visapack

import (
	"context"
	"errors"
	"testing"
)

type scriptedGenerator struct {
	responses []string
	errs      []error
	calls     int
	prompts   []string
}

func (s *scriptedGenerator) Generate(_ context.Context, prompt string) (string, error) {
	idx := s.calls
	s.calls++
	s.prompts = append(s.prompts, prompt)
	var err error
	if idx < len(s.errs) {
		err = s.errs[idx]
	}
	resp := ""
	if idx < len(s.responses) {
		resp = s.responses[idx]
	}
	return resp, err
}

func TestStripCodeFences(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"{\"a\":1}", "{\"a\":1}"},
		{"```json\n{\"a\":1}\n```", "{\"a\":1}"},
		{"```\n{\"a\":1}\n```", "{\"a\":1}"},
		{"  {\"a\":1}  ", "{\"a\":1}"},
	}
	for _, tc := range cases {
		if got := stripCodeFences(tc.in); got != tc.want {
			t.Errorf("stripCodeFences(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestGenerateJSONRetriesOnInvalidJSON(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{"not json", `{"days":[{"date":"2025-06-10"}]}`}}
	var out itinerarySegment
	err := GenerateJSON(context.Background(), gen, "test", "prompt", &out, nil)
	if err != nil {
		t.Fatal(err)
	}
	if gen.calls != 2 {
		t.Errorf("calls = %d, want 2", gen.calls)
	}
	if len(out.Days) != 1 || out.Days[0].Date != "2025-06-10" {
		t.Errorf("parsed = %+v", out)
	}
}

func TestGenerateJSONRetriesOnValidationFeedback(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{`{"days":[]}`, `{"days":[{"date":"d"}]}`}}
	var out itinerarySegment
	err := GenerateJSON(context.Background(), gen, "test", "prompt", &out, func() error {
		if len(out.Days) == 0 {
			return errors.New("days must be non-empty")
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if gen.calls != 2 {
		t.Errorf("calls = %d, want 2", gen.calls)
	}
	if len(gen.prompts) > 1 && gen.prompts[1] == gen.prompts[0] {
		t.Error("retry prompt missing validation feedback")
	}
}

func TestGenerateJSONExhaustsRetries(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{"x", "y", "z"}}
	var out itinerarySegment
	err := GenerateJSON(context.Background(), gen, "test", "prompt", &out, nil)
	if err == nil {
		t.Fatal("expected error after retry budget")
	}
	if gen.calls != 3 {
		t.Errorf("calls = %d, want 3", gen.calls)
	}
}

func TestGenerateJSONTransportErrorNotRetriedForClientFailures(t *testing.T) {
	gen := &scriptedGenerator{errs: []error{errors.New("status code: 401 unauthorized")}}
	var out itinerarySegment
	if err := GenerateJSON(context.Background(), gen, "test", "prompt", &out, nil); err == nil {
		t.Fatal("expected transport failure")
	}
	if gen.calls != 1 {
		t.Errorf("calls = %d, want 1 (client errors are terminal)", gen.calls)
	}
}
