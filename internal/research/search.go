package research

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

const (
	ExaSearchURL    = "https://api.exa.ai/search"
	TavilySearchURL = "https://api.tavily.com/search"

	defaultNumResults = 8
)

// RawResult is one web search hit: free text plus an optional
// structured-summary payload the provider attached for a requested schema.
type RawResult struct {
	Title             string
	URL               string
	Content           string
	StructuredSummary any
}

// SummaryRequest asks the agentic search backend to attach a structured
// summary conforming to the given JSON schema.
type SummaryRequest struct {
	Query  string         `json:"query"`
	Schema map[string]any `json:"schema,omitempty"`
}

type SearchOptions struct {
	NumResults int
	Summary    *SummaryRequest
}

// Provider returns zero or more results for a query. "No results" is an
// empty list, never an error; errors mean the call itself failed.
type Provider interface {
	Search(ctx context.Context, query string, opts SearchOptions) ([]RawResult, error)
}

// ExaSearcher performs agentic search with structured summaries.
type ExaSearcher struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

type ExaConfig struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

func NewExaSearcher(cfg ExaConfig) (*ExaSearcher, error) {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.APIKey == "" {
		return nil, errors.New("EXA_API_KEY not configured")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = ExaSearchURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &ExaSearcher{apiKey: cfg.APIKey, baseURL: cfg.BaseURL, client: cfg.HTTPClient}, nil
}

func (s *ExaSearcher) Search(ctx context.Context, query string, opts SearchOptions) ([]RawResult, error) {
	num := opts.NumResults
	if num <= 0 {
		num = defaultNumResults
	}
	payload := map[string]any{
		"type":          "auto",
		"query":         query,
		"numResults":    num,
		"useAutoprompt": true,
	}
	if opts.Summary != nil {
		payload["contents"] = map[string]any{"summary": opts.Summary}
	}
	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", s.apiKey)

	res, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("exa search failed: %w", err)
	}
	defer res.Body.Close()
	blob, _ := io.ReadAll(io.LimitReader(res.Body, 2<<20))
	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("exa search failed: status code %d", res.StatusCode)
	}

	var parsed struct {
		Results []map[string]any `json:"results"`
	}
	if err := json.Unmarshal(blob, &parsed); err != nil {
		return nil, fmt.Errorf("exa search failed: %w", err)
	}
	out := make([]RawResult, 0, len(parsed.Results))
	for _, raw := range parsed.Results {
		out = append(out, normalizeExaResult(raw))
	}
	return out, nil
}

func normalizeExaResult(raw map[string]any) RawResult {
	var parts []string
	if s, ok := raw["summary"].(string); ok && s != "" {
		parts = append(parts, s)
	}
	if hs, ok := raw["highlights"].([]any); ok {
		for _, h := range hs {
			if s, ok := h.(string); ok {
				parts = append(parts, s)
			}
		}
	}
	if s, ok := raw["text"].(string); ok && s != "" {
		parts = append(parts, s)
	}
	return RawResult{
		Title:             str(raw["title"]),
		URL:               str(raw["url"]),
		Content:           strings.Join(parts, " "),
		StructuredSummary: raw["summary"],
	}
}

// TavilySearcher is the plain keyword search fallback. Its results carry no
// structured summary, so they are parsed via the free-text path only.
type TavilySearcher struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

type TavilyConfig struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

func NewTavilySearcher(cfg TavilyConfig) (*TavilySearcher, error) {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.APIKey == "" {
		return nil, errors.New("TAVILY_API_KEY not configured")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = TavilySearchURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &TavilySearcher{apiKey: cfg.APIKey, baseURL: cfg.BaseURL, client: cfg.HTTPClient}, nil
}

func (s *TavilySearcher) Search(ctx context.Context, query string, opts SearchOptions) ([]RawResult, error) {
	num := opts.NumResults
	if num <= 0 {
		num = 5
	}
	payload := map[string]any{
		"api_key":     s.apiKey,
		"query":       query,
		"max_results": num,
	}
	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tavily search failed: %w", err)
	}
	defer res.Body.Close()
	blob, _ := io.ReadAll(io.LimitReader(res.Body, 2<<20))
	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("tavily search failed: status code %d", res.StatusCode)
	}

	var parsed struct {
		Results []struct {
			Title   string `json:"title"`
			URL     string `json:"url"`
			Content string `json:"content"`
		} `json:"results"`
	}
	if err := json.Unmarshal(blob, &parsed); err != nil {
		return nil, fmt.Errorf("tavily search failed: %w", err)
	}
	out := make([]RawResult, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		out = append(out, RawResult{Title: r.Title, URL: r.URL, Content: r.Content})
	}
	return out, nil
}

// TieredSearcher tries the agentic provider first and falls back to keyword
// search when it is unconfigured, errors, or comes back empty.
type TieredSearcher struct {
	Agentic Provider
	Keyword Provider
}

func (s *TieredSearcher) Search(ctx context.Context, query string, opts SearchOptions) ([]RawResult, error) {
	if s.Agentic != nil {
		results, err := s.Agentic.Search(ctx, query, opts)
		if err != nil {
			log.Printf("research: agentic search failed, falling back to keyword: %v", err)
		} else if len(results) > 0 {
			return results, nil
		}
	}
	if s.Keyword == nil {
		return nil, errors.New("no keyword search provider configured")
	}
	return s.Keyword.Search(ctx, query, opts)
}

// ParseStructuredSummary decodes a provider-attached summary payload. The
// payload may already be decoded, or be a JSON string (possibly fenced).
// Returns nil when nothing machine-readable is present.
func ParseStructuredSummary(summary any) any {
	switch v := summary.(type) {
	case nil:
		return nil
	case map[string]any, []any:
		return v
	case string:
		cleaned := strings.TrimSpace(v)
		if strings.HasPrefix(cleaned, "```") {
			if _, rest, ok := strings.Cut(cleaned, "\n"); ok {
				cleaned = rest
			}
			if idx := strings.LastIndex(cleaned, "```"); idx >= 0 {
				cleaned = cleaned[:idx]
			}
			cleaned = strings.TrimSpace(cleaned)
		}
		var out any
		if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
			return nil
		}
		return out
	default:
		return nil
	}
}

func str(v any) string {
	s, _ := v.(string)
	return s
}
