package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"ridebook/internal/app"
	"ridebook/internal/config"
	"ridebook/internal/gateway"
	"ridebook/internal/handler"
	internalRedis "ridebook/internal/redis"
	"ridebook/internal/repository/postgres"
	"ridebook/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic first so the database driver can be instrumented.
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Printf("failed to initialize New Relic: %v", err)
		} else {
			log.Printf("New Relic enabled: app=%s", cfg.NewRelic.AppName)
		}
	}

	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	if err := postgres.ApplySchema(ctx, db); err != nil {
		log.Fatalf("failed to apply schema: %v", err)
	}

	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	server := wireServer(db, redisClient, nrApp, cfg)

	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config) *http.Server {
	// Redis stores.
	lockStore := internalRedis.NewLockStore(redisClient)
	driverCache := internalRedis.NewDriverCache(redisClient)

	// Persistence.
	txManager := postgres.NewTxManager(db)
	auditRepo := postgres.NewAuditLogRepository(db)

	// External gateway.
	paystack := gateway.NewPaystackClient(cfg.Paystack.BaseURL, cfg.Paystack.SecretKey)

	// Services.
	notificationService := service.NewNotificationService()
	auditLogger := service.NewAuditLogger(auditRepo)
	paymentService := service.NewPaymentService(txManager, paystack, notificationService, auditLogger, lockStore, cfg.Paystack.CallbackURL)
	rideService := service.NewRideService(txManager, paymentService, notificationService)
	driverService := service.NewDriverService(txManager, auditLogger, driverCache)
	ratingService := service.NewRatingService(txManager)

	// Handlers.
	rideHandler := handler.NewRideHandler(rideService, paymentService)
	driverHandler := handler.NewDriverHandler(driverService, ratingService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	ratingHandler := handler.NewRatingHandler(ratingService)

	router := app.NewRouter(app.RouterDeps{
		RideHandler:    rideHandler,
		DriverHandler:  driverHandler,
		PaymentHandler: paymentHandler,
		RatingHandler:  ratingHandler,
		RedisClient:    redisClient,
		NewRelicApp:    nrApp,
	})

	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
