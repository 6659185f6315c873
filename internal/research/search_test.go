package research

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestExaSearchParsesResults(t *testing.T) {
	var gotBody map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "exa-key" {
			t.Errorf("api key header = %q", r.Header.Get("x-api-key"))
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"results": [
			{"title": "Flight deals", "url": "https://a.example", "summary": "{\"flights\": []}", "text": "Cheap fares from €300"},
			{"title": "Guide", "url": "https://b.example", "highlights": ["Nonstop options listed"]}
		]}`))
	}))
	defer ts.Close()

	s, err := NewExaSearcher(ExaConfig{APIKey: "exa-key", BaseURL: ts.URL, HTTPClient: ts.Client()})
	if err != nil {
		t.Fatal(err)
	}
	results, err := s.Search(context.Background(), "flights BLR to CDG", SearchOptions{
		NumResults: 4,
		Summary:    &SummaryRequest{Query: "extract flights"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results", len(results))
	}
	if results[0].Title != "Flight deals" || results[0].StructuredSummary == nil {
		t.Errorf("first result = %+v", results[0])
	}
	if results[1].Content != "Nonstop options listed" {
		t.Errorf("highlight content = %q", results[1].Content)
	}
	if gotBody["numResults"].(float64) != 4 {
		t.Errorf("numResults = %v", gotBody["numResults"])
	}
	if _, ok := gotBody["contents"]; !ok {
		t.Error("summary request not forwarded")
	}
}

func TestExaSearchStatusError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(429)
	}))
	defer ts.Close()

	s, err := NewExaSearcher(ExaConfig{APIKey: "exa-key", BaseURL: ts.URL, HTTPClient: ts.Client()})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Search(context.Background(), "q", SearchOptions{}); err == nil {
		t.Error("expected error for 429")
	}
}

func TestTavilySearchParsesResults(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results": [
			{"title": "Insurance plans", "url": "https://c.example", "content": "Coverage from €38"}
		]}`))
	}))
	defer ts.Close()

	s, err := NewTavilySearcher(TavilyConfig{APIKey: "tv-key", BaseURL: ts.URL, HTTPClient: ts.Client()})
	if err != nil {
		t.Fatal(err)
	}
	results, err := s.Search(context.Background(), "travel insurance", SearchOptions{NumResults: 3})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].URL != "https://c.example" {
		t.Fatalf("results = %+v", results)
	}
	if results[0].StructuredSummary != nil {
		t.Error("keyword results should carry no structured summary")
	}
}

func TestSearcherConstructorsRequireKeys(t *testing.T) {
	if _, err := NewExaSearcher(ExaConfig{}); err == nil {
		t.Error("exa constructor accepted empty key")
	}
	if _, err := NewTavilySearcher(TavilyConfig{APIKey: "  "}); err == nil {
		t.Error("tavily constructor accepted blank key")
	}
}

type fixedProvider struct {
	results []RawResult
	err     error
	calls   int
}

func (p *fixedProvider) Search(context.Context, string, SearchOptions) ([]RawResult, error) {
	p.calls++
	return p.results, p.err
}

func TestTieredSearcherPrefersAgentic(t *testing.T) {
	agentic := &fixedProvider{results: []RawResult{{Title: "structured"}}}
	keyword := &fixedProvider{results: []RawResult{{Title: "keyword"}}}
	s := &TieredSearcher{Agentic: agentic, Keyword: keyword}

	results, err := s.Search(context.Background(), "q", SearchOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Title != "structured" {
		t.Errorf("got %q", results[0].Title)
	}
	if keyword.calls != 0 {
		t.Error("keyword tier consulted unnecessarily")
	}
}

func TestTieredSearcherFallsBackOnErrorAndEmpty(t *testing.T) {
	for name, agentic := range map[string]*fixedProvider{
		"error": {err: errors.New("boom")},
		"empty": {},
	} {
		keyword := &fixedProvider{results: []RawResult{{Title: "keyword"}}}
		s := &TieredSearcher{Agentic: agentic, Keyword: keyword}
		results, err := s.Search(context.Background(), "q", SearchOptions{})
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if len(results) != 1 || results[0].Title != "keyword" {
			t.Errorf("%s: results = %+v", name, results)
		}
	}
}

func TestTieredSearcherNoProviders(t *testing.T) {
	s := &TieredSearcher{}
	if _, err := s.Search(context.Background(), "q", SearchOptions{}); err == nil {
		t.Error("expected error with no providers configured")
	}
}

func TestParseStructuredSummary(t *testing.T) {
	cases := map[string]struct {
		in   any
		want bool
	}{
		"nil":           {nil, false},
		"decoded map":   {map[string]any{"flights": []any{}}, true},
		"json string":   {`{"hotels": []}`, true},
		"fenced json":   {"```json\n{\"hotels\": []}\n```", true},
		"garbage":       {"not json at all", false},
		"numeric":       {42, false},
		"decoded array": {[]any{"x"}, true},
	}
	for name, tc := range cases {
		got := ParseStructuredSummary(tc.in)
		if (got != nil) != tc.want {
			t.Errorf("%s: got %v", name, got)
		}
	}
}
