/**
 * @description
 * This is the main entry point for the ledger-service. It is responsible for
 * initializing all components of the service, including configuration, the record
 * store, the session token manager, the optional RabbitMQ producer and Redis login
 * limiter, the background job scheduler, and the HTTP server. It wires everything
 * together and starts the service.
 *
 * @dependencies
 * - log, log/slog, net/http: Standard Go libraries for logging and HTTP server functionality.
 * - github.com/redis/go-redis/v9: Redis client for login throttling.
 * - internal/api, internal/app, internal/auth, internal/config, internal/store: Internal packages for the service.
 * - pkg/rabbitmq: Client for RabbitMQ.
 */

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ledgerdesk/ledger-service/internal/api"
	"github.com/ledgerdesk/ledger-service/internal/app"
	"github.com/ledgerdesk/ledger-service/internal/auth"
	"github.com/ledgerdesk/ledger-service/internal/config"
	"github.com/ledgerdesk/ledger-service/internal/store"
	"github.com/ledgerdesk/ledger-service/pkg/rabbitmq"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// Load application configuration from environment variables.
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"config load failed\" err=%v", err)
	}
	log.Printf("level=info component=bootstrap msg=\"starting ledger-service\" port=%s env=%s store=%s", cfg.ServerPort, cfg.AppEnv, cfg.StoreDriver)

	// Open the record store selected by STORE_DRIVER.
	openCtx, cancelOpen := context.WithTimeout(context.Background(), 15*time.Second)
	recordStore, err := store.Open(openCtx, store.Options{
		Driver:      cfg.StoreDriver,
		DataDir:     cfg.DataDir,
		DatabaseURL: cfg.DatabaseURL,
	})
	cancelOpen()
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"record store open failed\" driver=%s err=%v", cfg.StoreDriver, err)
	}
	defer recordStore.Close()
	log.Printf("level=info component=bootstrap msg=\"record store ready\" driver=%s", cfg.StoreDriver)

	tokens, err := auth.NewTokenManager(cfg.JWTSecret, time.Duration(cfg.TokenTTLHours)*time.Hour)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"token manager init failed\" err=%v", err)
	}

	// Initialize the RabbitMQ producer to publish ledger events. The service runs
	// without a broker; events are then dropped by the fallback producer.
	var publisher rabbitmq.Publisher
	if strings.TrimSpace(cfg.RabbitMQURL) == "" {
		log.Println("level=info component=bootstrap msg=\"rabbitmq url not set; ledger events disabled\"")
	} else {
		producer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL)
		if err != nil {
			log.Printf("level=warn component=bootstrap msg=\"rabbitmq producer unavailable; using fallback\" err=%v", err)
		} else {
			defer producer.Close()
			publisher = producer
			log.Println("level=info component=bootstrap msg=\"rabbitmq producer connected\"")
		}
	}

	ledgerService := app.NewService(recordStore, tokens, publisher, cfg.LedgerEventExchange, logger)

	if cfg.LoginRateLimitPerMinute > 0 {
		if redisClient := connectRedis(cfg.RedisURL); redisClient != nil {
			defer redisClient.Close()
			ledgerService.SetLoginLimiter(app.NewRedisLoginLimiter(
				redisClient,
				cfg.RedisRateLimitPrefix,
				cfg.LoginRateLimitPerMinute,
				time.Minute,
			))
		}
	}

	// Start the background jobs.
	jobs := app.NewJobs(recordStore, logger, cfg.SnapshotDir)
	scheduler := app.NewScheduler(jobs, logger, cfg)
	scheduler.Start()

	handlers := api.NewHandlers(ledgerService, logger, cfg.IsProduction())
	router := api.LedgerRoutes(handlers, ledgerService, cfg.AllowedOrigins())

	serverAddr := fmt.Sprintf(":%s", cfg.ServerPort)
	server := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("level=info component=http msg=\"server listening\" addr=%s", serverAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("level=fatal component=http msg=\"server stopped unexpectedly\" err=%v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("level=info component=http msg=\"shutdown started\"")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("level=error component=http msg=\"shutdown failed\" err=%v", err)
	}

	// Wait for a running job to finish before the store closes.
	select {
	case <-scheduler.Stop().Done():
	case <-ctx.Done():
		log.Println("level=warn component=scheduler msg=\"job still running at shutdown\"")
	}

	log.Println("level=info component=http msg=\"shutdown complete\"")
}

// connectRedis returns a live client, or nil when Redis is not configured or unreachable.
// Login throttling is disabled in the nil case.
func connectRedis(redisURL string) *redis.Client {
	if strings.TrimSpace(redisURL) == "" {
		log.Println("level=warn component=bootstrap msg=\"redis url missing; login rate limiting disabled\" env=REDIS_URL")
		return nil
	}
	redisOptions, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Printf("level=warn component=bootstrap msg=\"redis url parse failed; login rate limiting disabled\" err=%v", err)
		return nil
	}
	client := redis.NewClient(redisOptions)

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelPing()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Printf("level=warn component=bootstrap msg=\"redis ping failed; login rate limiting disabled\" err=%v", err)
		client.Close()
		return nil
	}
	log.Println("level=info component=bootstrap msg=\"redis connected\"")
	return client
}
