package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	v1 "casechat/cmd/api/router/v1"
	"casechat/internal/infrastructure/auth"
	cacheAdapter "casechat/internal/infrastructure/cache/adapter"
	"casechat/internal/infrastructure/database"
	pubsubAdapter "casechat/internal/infrastructure/pubsub/adapter"
	pubsubPort "casechat/internal/infrastructure/pubsub/port"
	queueAdapter "casechat/internal/infrastructure/queue/adapter"
	"casechat/internal/infrastructure/realtime"
	"casechat/internal/pkg/messaging/application/task"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}

	// Connect to the database on startup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	pool, err := database.NewPoolFromEnv(ctx)
	cancel()
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer pool.Close()

	cache, err := cacheAdapter.NewRedisAdapter()
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer cache.Close()

	broker, err := newBrokerFromEnv()
	if err != nil {
		log.Fatalf("failed to connect to pubsub broker: %v", err)
	}
	defer broker.Close()

	queueClient, err := queueAdapter.NewAsynqClientFromEnv()
	if err != nil {
		log.Fatalf("failed to create queue client: %v", err)
	}
	defer queueClient.Close()

	queueServer, err := queueAdapter.NewAsynqServer()
	if err != nil {
		log.Fatalf("failed to create queue server: %v", err)
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}
	authn := auth.NewAuthenticator(secret, "casechat", 24*time.Hour)

	registry := realtime.NewRegistry()
	defer registry.Close()

	// Background workers: counterpart notification on message insert.
	task.RegisterNotifyMessageTask(queueServer, registry)
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	go func() {
		if err := queueServer.Run(workerCtx); err != nil {
			log.Printf("queue server stopped: %v", err)
		}
	}()

	r := gin.Default()

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	v1.RegisterRoutes(r, pool, cache, broker, queueClient, registry, authn)

	srv := &http.Server{Addr: listenAddr(), Handler: r}
	go func() {
		log.Printf("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	stopWorkers()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
}

// newBrokerFromEnv picks the realtime broker: PUBSUB_DRIVER=nats selects
// NATS, anything else defaults to Redis Pub/Sub.
func newBrokerFromEnv() (pubsubPort.Broker, error) {
	if os.Getenv("PUBSUB_DRIVER") == "nats" {
		return pubsubAdapter.NewNatsBrokerFromEnv()
	}
	return pubsubAdapter.NewRedisBrokerFromEnv()
}

func listenAddr() string {
	if port := os.Getenv("PORT"); port != "" {
		return ":" + port
	}
	return ":8080"
}
