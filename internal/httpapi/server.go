package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"visapack/internal/session"
	"visapack/internal/trip"
	"visapack/internal/visapack"
)

// PDFRenderer turns assembled pack markdown into a PDF document.
type PDFRenderer interface {
	Render(ctx context.Context, markdown string) ([]byte, error)
}

// PackMarkdownFn assembles the printable markdown for a finished plan.
type PackMarkdownFn func(plan trip.TripPlan) string

type Server struct {
	pipeline     *visapack.Pipeline
	machine      *session.Machine
	store        session.CheckpointStore
	renderer     PDFRenderer
	packMarkdown PackMarkdownFn
}

type Config struct {
	Pipeline     *visapack.Pipeline
	Machine      *session.Machine
	Store        session.CheckpointStore
	Renderer     PDFRenderer
	PackMarkdown PackMarkdownFn
}

func NewServer(cfg Config) http.Handler {
	s := &Server{
		pipeline:     cfg.Pipeline,
		machine:      cfg.Machine,
		store:        cfg.Store,
		renderer:     cfg.Renderer,
		packMarkdown: cfg.PackMarkdown,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/health", s.handleHealth)
	mux.HandleFunc("/v1/visa-pack", s.handleVisaPack)
	mux.HandleFunc("/v1/visa-pack/pdf", s.handleVisaPackPDF)
	mux.HandleFunc("/v1/sessions", s.handleSessions)
	mux.HandleFunc("/v1/sessions/", s.handleSessionByID)
	return mux
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"ok":    false,
		"error": map[string]any{"message": message},
	})
}

func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return []byte("{}"), nil
	}
	blob, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if len(blob) == 0 {
		blob = []byte("{}")
	}
	return blob, nil
}

func methodOnly(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, 200, map[string]any{"ok": true, "service": "visapack"})
}

// handleVisaPack runs the one-shot batch pipeline and returns the full
// plan. Stage-internal provider failures are absorbed by the pipeline;
// only malformed input and document assembly failures surface here.
func (s *Server) handleVisaPack(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodPost) {
		return
	}
	blob, err := readBody(r)
	if err != nil {
		writeError(w, 400, err.Error())
		return
	}
	var req trip.TripRequest
	if err := json.Unmarshal(blob, &req); err != nil {
		writeError(w, 400, "invalid request body: "+err.Error())
		return
	}

	plan, err := s.pipeline.Run(r.Context(), req)
	if err != nil {
		stage := visapack.StageNameFromError(err)
		status := 500
		if stage == "input" || stage == "itinerary" {
			status = 400
		}
		log.Printf("httpapi: visa pack run failed stage=%s: %v", stage, err)
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, 200, map[string]any{"ok": true, "plan": plan})
}

// handleVisaPackPDF runs the batch pipeline and streams the rendered pack.
func (s *Server) handleVisaPackPDF(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodPost) {
		return
	}
	if s.renderer == nil {
		writeError(w, 501, "pdf rendering not configured")
		return
	}
	blob, err := readBody(r)
	if err != nil {
		writeError(w, 400, err.Error())
		return
	}
	var req trip.TripRequest
	if err := json.Unmarshal(blob, &req); err != nil {
		writeError(w, 400, "invalid request body: "+err.Error())
		return
	}

	plan, err := s.pipeline.Run(r.Context(), req)
	if err != nil {
		writeError(w, 500, err.Error())
		return
	}
	pdf, err := s.renderer.Render(r.Context(), s.packMarkdown(plan))
	if err != nil {
		log.Printf("httpapi: pdf render failed: %v", err)
		writeError(w, 500, "pdf rendering failed: "+err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="visa-pack.pdf"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

// handleSessions starts an interactive session and runs it to completion.
// The checkpointed state per stage is retrievable by thread id afterwards.
func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodPost) {
		return
	}
	blob, err := readBody(r)
	if err != nil {
		writeError(w, 400, err.Error())
		return
	}
	var payload session.Payload
	if err := json.Unmarshal(blob, &payload); err != nil {
		writeError(w, 400, "invalid request body: "+err.Error())
		return
	}

	threadID := uuid.NewString()
	state, err := s.machine.Run(r.Context(), threadID, payload)
	if err != nil {
		writeError(w, 400, err.Error())
		return
	}
	writeJSON(w, 200, map[string]any{"ok": true, "thread_id": threadID, "state": state})
}

func (s *Server) handleSessionByID(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	threadID := strings.TrimPrefix(r.URL.Path, "/v1/sessions/")
	threadID = strings.TrimSuffix(threadID, "/")
	if threadID == "" || strings.Contains(threadID, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	state, ok, err := s.store.Load(r.Context(), threadID)
	if err != nil {
		writeError(w, 500, err.Error())
		return
	}
	if !ok {
		writeError(w, 404, "session not found")
		return
	}
	writeJSON(w, 200, map[string]any{"ok": true, "state": state})
}
