package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"    // .env loader for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/booking-pipeline/internal/config"
	"github.com/iliyamo/booking-pipeline/internal/database"
	"github.com/iliyamo/booking-pipeline/internal/handler"
	"github.com/iliyamo/booking-pipeline/internal/pipeline"
	"github.com/iliyamo/booking-pipeline/internal/queue"
	"github.com/iliyamo/booking-pipeline/internal/repository"
	"github.com/iliyamo/booking-pipeline/internal/router"
	queue_publisher "github.com/iliyamo/booking-pipeline/internal/service"
)

func main() {
	_ = godotenv.Load() // best-effort; real deployments set env directly
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := database.EnsureSchema(ctx, db); err != nil {
		cancel()
		log.Fatalf("database: %v", err)
	}
	cancel()

	rdb := config.NewRedisClient() // nil when Redis is unreachable; pipeline degrades

	ledger := repository.NewProcessedMessageRepo(db, rdb, time.Duration(cfg.ProcessedTTLHours)*time.Hour)
	store := repository.NewTransactionRepo(db)
	summaries := repository.NewSummaryRepo(db)
	ingestor := pipeline.NewIngestor(
		ledger, store, summaries, queue_publisher.NewNotifier(),
		cfg.AggregateRetries, time.Duration(cfg.AggregateBackoffMS)*time.Millisecond,
	)

	// Background consumer feeding the live dashboard log.
	go func() {
		if err := queue.StartTransactionFeedConsumer(); err != nil {
			log.Printf("transaction-feed consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterWebhook(e, handler.NewWebhookHandler(ingestor), cfg.WebhookTokenHash, config.LoadRateLimitConfig(), rdb)
	router.RegisterSummaries(e, handler.NewSummaryHandler(summaries, store), cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
