/**
 * @description
 * This is the main entry point for the fundraising-service. It loads configuration, connects
 * to PostgreSQL, Redis and RabbitMQ, builds the payment processor gateway, wires the core
 * application service into the HTTP router and starts the server.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5: PostgreSQL driver.
 * - github.com/redis/go-redis/v9: Donation rate limiting.
 * - github.com/joho/godotenv: For loading .env files during local development.
 * - internal/api, internal/app, internal/config, internal/store: Internal packages for the service.
 * - pkg/payments: Stripe gateway.
 * - pkg/rabbitmq: Client for RabbitMQ.
 */

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/DevifyPro/fundraising-app/internal/api"
	"github.com/DevifyPro/fundraising-app/internal/app"
	"github.com/DevifyPro/fundraising-app/internal/config"
	"github.com/DevifyPro/fundraising-app/internal/store"
	"github.com/DevifyPro/fundraising-app/pkg/payments"
	"github.com/DevifyPro/fundraising-app/pkg/rabbitmq"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load .env file for local development. In production, env vars are set directly.
	if err := godotenv.Load(); err != nil {
		log.Println("level=info component=bootstrap msg=\"no .env file found, using environment variables\"")
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"config load failed\" err=%v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatalf("level=fatal component=bootstrap msg=\"database url must be configured\" env=DATABASE_URL")
	}
	log.Printf("level=info component=bootstrap msg=\"starting fundraising-service\" port=%s", cfg.ServerPort)

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database url parse failed\" err=%v", err)
	}
	poolConfig.MaxConns = 100
	poolConfig.MinConns = 20
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute
	// Disable prepared statement caching; connection poolers in front of Postgres reject them.
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database connection failed\" err=%v", err)
	}
	defer dbpool.Close()
	log.Println("level=info component=bootstrap msg=\"database connected\"")

	// Donation events are best-effort; a missing broker never blocks settlement.
	var producer rabbitmq.Publisher
	if cfg.RabbitMQURL == "" {
		log.Println("level=warn component=bootstrap msg=\"rabbitmq url missing; donation events disabled\" env=RABBITMQ_URL")
	} else if eventProducer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL); err != nil {
		log.Printf("level=warn component=bootstrap msg=\"rabbitmq producer unavailable; using fallback\" err=%v", err)
	} else {
		defer eventProducer.Close()
		producer = eventProducer
		log.Println("level=info component=bootstrap msg=\"rabbitmq producer connected\"")
	}

	// Leave processor as a nil interface when Stripe is not configured.
	var processor payments.Processor
	if cfg.StripeSecretKey == "" {
		log.Println("level=warn component=bootstrap msg=\"stripe secret key missing; checkout and settlement disabled\" env=STRIPE_SECRET_KEY")
	} else {
		processor = payments.NewStripeGateway(cfg.StripeSecretKey, nil)
	}
	if cfg.StripeWebhookSecret == "" {
		log.Println("level=warn component=bootstrap msg=\"stripe webhook secret missing; webhooks will be rejected\" env=STRIPE_WEBHOOK_SECRET")
	}

	repository := store.NewPostgresRepository(dbpool)
	service := app.NewService(repository, processor, producer, app.Settings{
		WebhookSecret:  cfg.StripeWebhookSecret,
		AppBaseURL:     cfg.AppBaseURL,
		Currency:       cfg.CheckoutCurrency,
		EventsExchange: cfg.DonationEventsExchange,
	})

	if redisClient := connectRedis(cfg.RedisURL); redisClient != nil {
		defer redisClient.Close()
		service.SetDonationThrottle(
			app.NewDonationThrottle(redisClient, cfg.RedisRateLimitPrefix, cfg.DonationRateLimitPerMinute),
		)
	}

	sessions := api.NewSessionManager(cfg.AuthSecret, cfg.AppBaseURL)
	handlers := api.NewHandlers(service, sessions)
	router := api.NewRouter(handlers, api.RouterOptions{
		AllowedOrigins:         cfg.AllowedOrigins(),
		DirectDonationsEnabled: cfg.DirectDonationsEnabled,
	})
	if cfg.DirectDonationsEnabled {
		log.Println("level=warn component=bootstrap msg=\"direct donations enabled; donations are recorded without payment\"")
	}

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
	log.Println("level=info component=http msg=\"shutdown complete\"")
}

// connectRedis returns a connected client, or nil when Redis is not configured or unreachable.
// Donation rate limiting is disabled in that case.
func connectRedis(redisURL string) *redis.Client {
	if strings.TrimSpace(redisURL) == "" {
		log.Println("level=warn component=bootstrap msg=\"redis url missing; donation rate limiting disabled\" env=REDIS_URL")
		return nil
	}
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Printf("level=warn component=bootstrap msg=\"redis url parse failed; donation rate limiting disabled\" err=%v", err)
		return nil
	}
	client := redis.NewClient(options)
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Printf("level=warn component=bootstrap msg=\"redis ping failed; donation rate limiting disabled\" err=%v", err)
		client.Close()
		return nil
	}
	log.Println("level=info component=bootstrap msg=\"redis connected\"")
	return client
}
