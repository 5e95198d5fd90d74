package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clinova/medassist/internal/adapters/database"
	"github.com/clinova/medassist/internal/application/services"
	"github.com/clinova/medassist/internal/infrastructure/clients/openai"
	"github.com/clinova/medassist/internal/infrastructure/clients/postgres"
	"github.com/clinova/medassist/internal/infrastructure/observability"
	"github.com/clinova/medassist/pkg/config"
)

func main() {
	var workers int
	flag.IntVar(&workers, "workers", 3, "Number of concurrent embedding workers")
	flag.Parse()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	observability.InitLogger("medassist-backfill", os.Getenv("APP_ENV"))

	// Setup DB
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pgClient.Close()

	// Setup repo and embedder
	consultationRepo := database.NewConsultationAdapter(pgClient)

	embedder, err := openai.NewClient(&cfg.OpenAI)
	if err != nil {
		log.Fatalf("Failed to create inference client: %v", err)
	}

	svc := services.NewBackfillService(consultationRepo, embedder, workers)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	start := time.Now()
	log.Printf("Starting embedding backfill with %d workers...", workers)

	summary, err := svc.Run(ctx)
	if err != nil {
		log.Fatalf("Backfill failed: %v", err)
	}

	log.Printf("Backfill complete in %s", time.Since(start))
	log.Printf("Scanned: %d", summary.Scanned)
	log.Printf("Embedded: %d", summary.Embedded)
	log.Printf("Skipped: %d", summary.Skipped)
	log.Printf("Failed: %d", summary.Failed)
}
