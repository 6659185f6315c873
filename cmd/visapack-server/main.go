package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"visapack/internal/httpapi"
	"visapack/internal/providers"
	"visapack/internal/render"
	"visapack/internal/research"
	"visapack/internal/session"
	"visapack/internal/visapack"
)

func main() {
	dbFlag := flag.String("db", "", "path to SQLite session database (overrides DB_PATH env var)")
	webDir := flag.String("web-dir", "", "directory holding style.css for PDF rendering")
	flag.Parse()

	_ = godotenv.Load()

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}

	dbPath := *dbFlag
	if dbPath == "" {
		dbPath = os.Getenv("DB_PATH")
	}
	if dbPath == "" {
		dbPath = "./data/sessions.db"
	}
	store, err := session.NewSQLiteStore(dbPath)
	if err != nil {
		log.Fatalf("failed to initialize session store (%s): %v", dbPath, err)
	}
	defer store.Close()
	log.Printf("using sqlite session store at %s", dbPath)

	caller, err := visapack.NewAnthropicCallerFromEnv()
	if err != nil {
		log.Fatal(err)
	}

	cfg := providers.ConfigFromEnv()
	pipeline := visapack.NewPipeline(caller, cfg.BuildFlightCascade(), cfg.BuildHotelCascade(), providers.InsurancePlans)
	machine := session.NewMachine(buildSearcher(), caller, store)

	handler := httpapi.NewServer(httpapi.Config{
		Pipeline:     pipeline,
		Machine:      machine,
		Store:        store,
		Renderer:     render.NewChromiumPDFRenderer(*webDir),
		PackMarkdown: render.PackMarkdown,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	srv := &http.Server{Addr: addr, Handler: handler}
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("visapack-server listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
	log.Println("visapack-server stopped")
}

// buildSearcher assembles the tiered search stack from the environment.
// Either tier may be absent; the session machine degrades to empty results
// when search is entirely unconfigured.
func buildSearcher() research.Provider {
	tiered := &research.TieredSearcher{}
	if exa, err := research.NewExaSearcher(research.ExaConfig{APIKey: os.Getenv("EXA_API_KEY")}); err == nil {
		tiered.Agentic = exa
	} else {
		log.Printf("agentic search disabled: %v", err)
	}
	if tavily, err := research.NewTavilySearcher(research.TavilyConfig{APIKey: os.Getenv("TAVILY_API_KEY")}); err == nil {
		tiered.Keyword = tavily
	} else {
		log.Printf("keyword search disabled: %v", err)
	}
	return tiered
}
