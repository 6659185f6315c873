package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"visapack/internal/providers"
	"visapack/internal/render"
	"visapack/internal/trip"
	"visapack/internal/visapack"
)

func main() {
	requestPath := flag.String("request", "", "path to trip request JSON ('-' for stdin)")
	outPath := flag.String("out", "", "write the plan JSON here instead of stdout")
	pdfPath := flag.String("pdf", "", "also render the pack to this PDF file")
	webDir := flag.String("web-dir", "", "directory holding style.css for PDF rendering")
	flag.Parse()

	_ = godotenv.Load()

	if *requestPath == "" {
		log.Fatal("usage: visapack -request trip.json [-out plan.json] [-pdf pack.pdf]")
	}

	req, err := loadRequest(*requestPath)
	if err != nil {
		log.Fatal(err)
	}

	caller, err := visapack.NewAnthropicCallerFromEnv()
	if err != nil {
		log.Fatal(err)
	}
	cfg := providers.ConfigFromEnv()
	pipeline := visapack.NewPipeline(caller, cfg.BuildFlightCascade(), cfg.BuildHotelCascade(), providers.InsurancePlans)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	plan, err := pipeline.RunWithProgress(ctx, req, func(stage, message string) {
		log.Printf("[%s] %s", stage, message)
	})
	if err != nil {
		log.Fatalf("visa pack failed at %s stage: %v", visapack.StageNameFromError(err), err)
	}

	if err := writePlan(plan, *outPath); err != nil {
		log.Fatal(err)
	}

	if *pdfPath != "" {
		renderer := render.NewChromiumPDFRenderer(*webDir)
		pdf, err := renderer.Render(ctx, render.PackMarkdown(plan))
		if err != nil {
			log.Fatalf("pdf render: %v", err)
		}
		if err := os.WriteFile(*pdfPath, pdf, 0o644); err != nil {
			log.Fatal(err)
		}
		log.Printf("wrote %s (%d bytes)", *pdfPath, len(pdf))
	}
}

func loadRequest(path string) (trip.TripRequest, error) {
	var req trip.TripRequest
	var blob []byte
	var err error
	if path == "-" {
		blob, err = readStdin()
	} else {
		blob, err = os.ReadFile(path)
	}
	if err != nil {
		return req, err
	}
	if err := json.Unmarshal(blob, &req); err != nil {
		return req, fmt.Errorf("parse trip request: %w", err)
	}
	return req, nil
}

func readStdin() ([]byte, error) {
	info, err := os.Stdin.Stat()
	if err != nil {
		return nil, err
	}
	if info.Mode()&os.ModeCharDevice != 0 {
		return nil, fmt.Errorf("no trip request on stdin")
	}
	return io.ReadAll(os.Stdin)
}

func writePlan(plan trip.TripPlan, outPath string) error {
	blob, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return err
	}
	if outPath == "" {
		fmt.Println(string(blob))
		return nil
	}
	if err := os.WriteFile(outPath, blob, 0o644); err != nil {
		return err
	}
	log.Printf("wrote %s", outPath)
	return nil
}
