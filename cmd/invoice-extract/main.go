package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/zombor/invoice-extract/internal/extract"
	"github.com/zombor/invoice-extract/internal/inference"
	"github.com/zombor/invoice-extract/internal/record"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("invoice-extract")
	var (
		inputPath   = fs.StringLong("path", "", "Image or directory to process in batch mode (serve mode if empty)")
		outPath     = fs.StringLong("out", "invoice_extraction_results.json", "Batch mode results file")
		port        = fs.IntLong("port", 8080, "HTTP server port")
		dbPath      = fs.StringLong("db", "invoice-extract.db", "Database file path")
		storagePath = fs.StringLong("storage", "./rawtext", "Raw inference text directory")
		primaryType = fs.StringLong("primary", "gemini", "Primary inference engine: 'gemini' or 'ollama'")
		secondType  = fs.StringLong("secondary", "ollama", "Secondary OCR engine: 'ollama' or 'none'")
		geminiKey   = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel = fs.StringLong("gemini-model", "gemini-2.5-pro", "Google Gemini model name")
		ollamaURL   = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel = fs.StringLong("ollama-model", "llava", "Ollama model name (e.g., llava, bakllava, qwen2-vl)")
		authUser    = fs.StringLong("auth-user", "", "Basic auth username (optional, serve mode)")
		authPass    = fs.StringLong("auth-pass", "", "Basic auth password (optional, serve mode)")
		showVersion = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("INVOICE_EXTRACT"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	slog.Info("Initializing database...")
	db, err := record.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var primary inference.TextSource
	switch *primaryType {
	case "gemini":
		apiKey := *geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			slog.Error("Gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing Gemini inference...", "model", *geminiModel)
		primary, err = inference.NewGemini(apiKey, *geminiModel)
		if err != nil {
			slog.Error("Failed to initialize Gemini", "error", err)
			os.Exit(1)
		}
	case "ollama":
		slog.Info("Initializing Ollama inference...", "url", *ollamaURL, "model", *ollamaModel)
		primary, err = inference.NewOllama(*ollamaURL, *ollamaModel)
		if err != nil {
			slog.Error("Failed to initialize Ollama", "error", err)
			os.Exit(1)
		}
	default:
		slog.Error("Invalid primary engine", "type", *primaryType, "valid", "gemini or ollama")
		os.Exit(1)
	}
	defer primary.Close()

	var secondary extract.TextSource
	switch *secondType {
	case "ollama":
		slog.Info("Initializing secondary OCR...", "url", *ollamaURL, "model", *ollamaModel)
		ollama, err := inference.NewOllama(*ollamaURL, *ollamaModel)
		if err != nil {
			slog.Error("Failed to initialize secondary OCR", "error", err)
			os.Exit(1)
		}
		secondary = ollama
	case "none":
		slog.Info("Secondary OCR disabled")
	default:
		slog.Error("Invalid secondary engine", "type", *secondType, "valid", "ollama or none")
		os.Exit(1)
	}

	slog.Info("Initializing storage...")
	store, err := record.NewLocalStorage(*storagePath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	service := record.NewService(db, primary, secondary, store)

	// Batch mode: process the input path and write the ordered results file.
	if *inputPath != "" {
		records, err := service.ProcessPath(*inputPath)
		if err != nil {
			slog.Error("Batch processing failed", "path", *inputPath, "error", err)
			os.Exit(1)
		}
		if err := record.WriteResults(*outPath, records); err != nil {
			slog.Error("Failed to write results", "out", *outPath, "error", err)
			os.Exit(1)
		}
		slog.Info("Results written", "out", *outPath, "documents", len(records))
		return
	}

	// Serve mode.
	basicAuth := record.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := record.NewServer(service, basicAuth)

	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr))
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}
