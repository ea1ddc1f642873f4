// Command voiceload benchmarks a real-time conversational media service.
//
// It simulates concurrent user sessions, each submitting a sequence of
// prompts and measuring time-to-first control event (text) and
// time-to-first media frame (audio) per request, then prints percentile
// statistics and writes per-request rows to CSV.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"voiceload/internal/config"
	"voiceload/internal/orchestrator"
	"voiceload/internal/progress"
	"voiceload/internal/recorder"
	"voiceload/internal/stats"
	"voiceload/internal/transport"
)

const (
	ExitSuccess = 0
	ExitRunFail = 1
	ExitError   = 2
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	baseURL := flag.String("base-url", "", "service base URL, e.g. http://localhost:8010")
	sessions := flag.Int("sessions", 0, "number of concurrent sessions")
	requests := flag.Int("requests", 0, "requests per session")
	mode := flag.String("mode", "", "trigger mode: chat or echo")
	prompts := flag.String("prompts", "", "comma-separated prompt list")
	timeout := flag.Duration("timeout", 0, "per-request timeout")
	interval := flag.Duration("interval", 0, "delay between requests in a session")
	outputCSV := flag.String("output", "", "CSV output path")
	format := flag.String("format", "text", "summary format: text, json")
	rps := flag.Int("rps", 0, "global submission rate cap (0 = unlimited)")
	quiet := flag.Bool("quiet", false, "suppress progress output during the run")
	verbose := flag.Bool("verbose", false, "log handshake and submission traffic")
	flag.Parse()

	if *format != "text" && *format != "json" {
		fmt.Fprintf(os.Stderr, "error: --format must be 'text' or 'json', got %q\n", *format)
		os.Exit(ExitError)
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(ExitError)
		}
		cfg = loaded
	}

	// Explicit CLI flags override config file values
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "base-url":
			cfg.BaseURL = *baseURL
		case "sessions":
			cfg.Concurrency = *sessions
		case "requests":
			cfg.RequestsPerSession = *requests
		case "mode":
			cfg.Mode = *mode
		case "prompts":
			cfg.Prompts = splitPrompts(*prompts)
		case "timeout":
			cfg.RequestTimeout = *timeout
		case "interval":
			cfg.RequestInterval = *interval
		case "output":
			cfg.OutputCSV = *outputCSV
		case "rps":
			cfg.RPS = *rps
		}
	})

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(ExitError)
	}

	rec, err := recorder.OpenCSVFile(cfg.OutputCSV)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(ExitError)
	}

	client := transport.NewServiceClient(cfg.BaseURL, cfg.RequestTimeout)
	if *verbose {
		client.Debug = transport.NewDebugLogger(os.Stderr)
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		if !*quiet {
			fmt.Fprintln(os.Stderr, "\nReceived interrupt signal, shutting down...")
		}
		cancel()
	}()

	prog := progress.New(rec, *quiet)
	prog.Printf("voiceload starting: %d sessions x %d requests, mode %s, target %s",
		cfg.Concurrency, cfg.RequestsPerSession, cfg.Mode, cfg.BaseURL)
	prog.Start()

	orch := orchestrator.New(cfg, client, rec)
	summary, err := orch.Run(ctx)
	prog.Stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(ExitRunFail)
	}

	if *format == "json" {
		stats.FormatJSON(os.Stdout, summary)
	} else {
		stats.FormatText(os.Stdout, summary)
	}
	prog.Printf("results written to %s", cfg.OutputCSV)

	os.Exit(ExitSuccess)
}

func splitPrompts(s string) []string {
	parts := strings.Split(s, ",")
	prompts := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			prompts = append(prompts, p)
		}
	}
	return prompts
}
