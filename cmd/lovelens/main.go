package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/liao/love-lens/internal/ai"
	"github.com/liao/love-lens/internal/analysis"
	"github.com/liao/love-lens/internal/config"
	"github.com/liao/love-lens/internal/highlight"
	"github.com/liao/love-lens/internal/parser"
)

func main() {
	inputFile := flag.String("input", "", "WhatsApp chat export (.txt)")
	configPath := flag.String("config", "", "config file path (optional)")
	apiKey := flag.String("api-key", "", "Gemini API key (or set GEMINI_API_KEY env)")
	useAI := flag.Bool("ai", false, "ask Gemini for highlights, falling back to local ones")
	asJSON := flag.Bool("json", false, "print the report as JSON")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if *inputFile == "" {
		fmt.Fprintf(os.Stderr, "Usage: lovelens -input <chat.txt> [-ai] [-json] [-config <file>]\n")
		os.Exit(1)
	}

	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load config failed", "error", err)
		os.Exit(1)
	}

	msgs, err := parser.ParseFile(*inputFile)
	if err != nil {
		slog.Error("parse failed", "error", err)
		os.Exit(1)
	}
	slog.Info("parsed", "file", *inputFile, "messages", len(msgs))

	client := ai.NewClient(cfg.Gemini.ClientOptions())
	svc := analysis.NewService(cfg.AnalysisOptions(), client, analysis.NopRecorder{})
	report := svc.AnalyzeMessages(msgs)

	result := analysis.HighlightResult{Highlights: report.Highlights, Source: report.HighlightSource}
	if *useAI {
		key := *apiKey
		if key == "" {
			key = cfg.Gemini.APIKey
		}
		if key == "" {
			fmt.Fprintf(os.Stderr, "Error: Gemini API key required for -ai (-api-key or GEMINI_API_KEY env)\n")
			os.Exit(1)
		}
		result = svc.EnhanceHighlights(context.Background(), report, key)
	}

	if *asJSON {
		out := struct {
			*analysis.Report
			Highlights      []highlight.Highlight `json:"highlights"`
			HighlightSource string                `json:"highlightSource"`
			Notice          string                `json:"notice,omitempty"`
		}{report, result.Highlights, result.Source, result.Notice}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			slog.Error("encode report failed", "error", err)
			os.Exit(1)
		}
		return
	}

	printReport(os.Stdout, report, result)
}

func printReport(w io.Writer, r *analysis.Report, hl analysis.HighlightResult) {
	m := r.Metrics

	fmt.Fprintf(w, "💕 LoveLens report\n\n")
	fmt.Fprintf(w, "Score: %d/100\n", r.Score)
	fmt.Fprintf(w, "Messages: %d  Participants: %d  Conversations: %d  Span: %d days\n\n",
		r.MessageCount, r.Participants, r.Conversations, m.ChatSpanDays)

	fmt.Fprintf(w, "Affection density: %.3f\n", m.AffectionDensity)
	fmt.Fprintf(w, "Median reply:      %s\n", r.MedianReply)
	fmt.Fprintf(w, "Reciprocity:       %.0f%%\n", m.Reciprocity*100)
	fmt.Fprintf(w, "Positivity:        %.0f%%\n\n", m.PositiveRatio*100)

	for _, p := range m.Principals {
		s := m.PerPerson[p]
		fmt.Fprintf(w, "%s: %d messages, %d affectionate, %d emoji\n", p, s.Count, s.Affection, s.Emojis)
	}

	fmt.Fprintf(w, "\nHighlights (%s):\n", hl.Source)
	if hl.Notice != "" {
		fmt.Fprintf(w, "  %s\n", hl.Notice)
	}
	if len(hl.Highlights) == 0 {
		fmt.Fprintf(w, "  none\n")
	}
	for _, h := range hl.Highlights {
		when := strings.TrimSpace(h.Date + " " + h.Time)
		fmt.Fprintf(w, "  [%s] %s: %s\n", when, h.Sender, h.Text)
		if h.Explanation != "" {
			fmt.Fprintf(w, "      %s\n", h.Explanation)
		}
	}
}
