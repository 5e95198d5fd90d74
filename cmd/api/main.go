package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clinova/medassist/internal/adapters/cache"
	"github.com/clinova/medassist/internal/adapters/database"
	"github.com/clinova/medassist/internal/adapters/knowledge"
	"github.com/clinova/medassist/internal/adapters/tasks"
	"github.com/clinova/medassist/internal/api/handlers"
	"github.com/clinova/medassist/internal/api/middleware"
	"github.com/clinova/medassist/internal/api/routes"
	"github.com/clinova/medassist/internal/application/services"
	"github.com/clinova/medassist/internal/domain/providers"
	"github.com/clinova/medassist/internal/domain/repositories"
	"github.com/clinova/medassist/internal/infrastructure/clients/openai"
	"github.com/clinova/medassist/internal/infrastructure/clients/postgres"
	"github.com/clinova/medassist/internal/infrastructure/clients/redis"
	"github.com/clinova/medassist/internal/infrastructure/observability"
	"github.com/clinova/medassist/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, os.Getenv("APP_ENV"))

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	var shutdown func(context.Context) error
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err = observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			log.Printf("Warning: Failed to set up OpenTelemetry: %v", err)
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Printf("Error shutting down OpenTelemetry: %v", err)
				}
			}()
			log.Println("OpenTelemetry initialized successfully")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to initialize metrics: %v", err)
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize PostgreSQL client: %v", err)
	}
	defer pgClient.Close()
	log.Println("PostgreSQL client initialized successfully")

	// Initialize Redis client; the service degrades to in-process task
	// state and no response caching without it
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Printf("Warning: Failed to initialize Redis client: %v", err)
	} else {
		defer redisClient.Close()
		log.Println("Redis client initialized successfully")
	}

	var cacheProvider providers.CacheProvider
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
	}

	// Initialize adapters
	consultationAdapter := database.NewConsultationAdapter(pgClient)
	patientAdapter := database.NewPatientAdapter(pgClient)

	var taskStore repositories.TaskStore
	if redisClient != nil {
		taskStore = tasks.NewRedisStore(redisClient, cfg.Worker.TaskRetention)
		log.Println("Task store backed by Redis")
	} else {
		taskStore = tasks.NewMemoryStore()
		log.Println("Task store running in memory (Redis unavailable)")
	}

	// Initialize providers
	inferenceClient, err := openai.NewClient(&cfg.OpenAI)
	if err != nil {
		log.Fatalf("Failed to initialize inference client: %v", err)
	}

	articleProvider := knowledge.NewPubMedAdapter(&cfg.PubMed, cacheProvider)
	conditionProvider := knowledge.NewClinicalTablesAdapter("")

	// Initialize services
	stageService := services.NewStageService(inferenceClient, articleProvider)
	orchestrator := services.NewOrchestrator(stageService, taskStore, &cfg.Worker, metrics)
	orchestrator.Start()

	retrievalService := services.NewRetrievalService(consultationAdapter, inferenceClient, &cfg.Retrieval)
	consultationService := services.NewConsultationService(
		consultationAdapter,
		patientAdapter,
		orchestrator,
		retrievalService,
	)

	// Initialize handlers
	stageHandler := handlers.NewStageHandler(orchestrator)
	taskHandler := handlers.NewTaskHandler(orchestrator)
	consultationHandler := handlers.NewConsultationHandler(consultationService)
	patientHandler := handlers.NewPatientHandler(consultationService)
	articleHandler := handlers.NewArticleHandler(articleProvider, conditionProvider)

	// Initialize cache middleware
	var cacheMiddleware *middleware.CacheMiddleware
	if cacheProvider != nil {
		cacheMiddleware = middleware.NewCacheMiddleware(cacheProvider)
		log.Println("Cache middleware initialized successfully")
	}

	// Set up router
	router := routes.NewRouter(
		stageHandler,
		taskHandler,
		consultationHandler,
		patientHandler,
		articleHandler,
		cacheMiddleware,
		metrics,
	)

	handler := router.SetupRoutes()

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 150 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on %s", serverAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	// Graceful shutdown with timeout; in-flight tasks get a chance to
	// reach a terminal state before the process exits
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}
	if err := orchestrator.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during worker shutdown: %v", err)
	}

	log.Println("Server stopped")
}
