package main

import (
	"fmt"
	"log"
	"os"

	"github.com/kurihiro0119/github-sentinel/internal/api"
	"github.com/kurihiro0119/github-sentinel/internal/config"
	"github.com/kurihiro0119/github-sentinel/internal/fetcher"
	"github.com/kurihiro0119/github-sentinel/internal/llm"
	"github.com/kurihiro0119/github-sentinel/internal/notifier"
	"github.com/kurihiro0119/github-sentinel/internal/pipeline"
	"github.com/kurihiro0119/github-sentinel/internal/report"
	"github.com/kurihiro0119/github-sentinel/internal/storage"
	"github.com/kurihiro0119/github-sentinel/internal/storage/postgres"
	"github.com/kurihiro0119/github-sentinel/internal/storage/sqlite"
	"github.com/kurihiro0119/github-sentinel/internal/subscription"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Subscription store
	subs, err := subscription.NewStore(cfg.SubscriptionsFile)
	if err != nil {
		log.Fatalf("Failed to load subscriptions: %v", err)
	}

	// Report history storage
	var history storage.Store
	switch cfg.StorageType {
	case "postgres":
		history, err = postgres.NewPostgresStore(cfg.PostgresURL)
		if err != nil {
			log.Fatalf("Failed to initialize PostgreSQL storage: %v", err)
		}
	default:
		history, err = sqlite.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			log.Fatalf("Failed to initialize SQLite storage: %v", err)
		}
	}
	defer history.Close()

	// LLM backend and report sink
	llmClient, err := llm.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize LLM backend: %v", err)
	}
	sink, err := notifier.NewFileNotifier(cfg.ReportDir)
	if err != nil {
		log.Fatalf("Failed to initialize report directory: %v", err)
	}

	pipe := pipeline.New(
		subs,
		fetcher.NewGitHubFetcher(cfg.GitHubToken),
		report.NewReporter(llmClient, cfg.ReportLanguage),
		sink,
		history,
		cfg.Interval(),
	)

	// Initialize handler and routes
	handler := api.NewHandler(subs, pipe, history, cfg.Interval(), cfg.ScheduleTime)
	router := api.SetupRoutes(handler)

	// Start server
	addr := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	fmt.Printf("Starting API server on %s\n", addr)
	fmt.Printf("Storage type: %s, LLM provider: %s\n", cfg.StorageType, cfg.LLMProvider)

	if err := router.Run(addr); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start server: %v\n", err)
		os.Exit(1)
	}
}
