package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"

	"github.com/playmatatu/pinball/internal/api"
	"github.com/playmatatu/pinball/internal/config"
	"github.com/playmatatu/pinball/internal/database"
	"github.com/playmatatu/pinball/internal/game"
	"github.com/playmatatu/pinball/internal/migrations"
	"github.com/playmatatu/pinball/internal/redis"
	"github.com/playmatatu/pinball/internal/ws"
)

func main() {
	rollback := flag.Bool("rollback", false, "revert the most recent migration and exit")
	flag.Parse()

	// Initialize configuration (loads .env when present)
	cfg := config.Load()

	if *rollback {
		log.Println("[MIGRATE] Rolling back the most recent migration...")
		if err := migrations.RollbackOne(cfg.DatabaseURL, migrations.DefaultDir); err != nil {
			log.Fatalf("Failed to roll back migration: %v", err)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Run migrations on start if requested
	if cfg.MigrateOnStart {
		log.Println("[MIGRATE] Running DB migrations on startup...")
		if err := migrations.RunMigrations(cfg.DatabaseURL, migrations.DefaultDir); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	// Initialize database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Redis is optional: without it state is not cached, the leaderboard is
	// read from Postgres and idle games are swept by the expiry checker.
	var rdb *goredis.Client
	if client, err := redis.Connect(cfg.RedisURL); err != nil {
		log.Printf("[REDIS] Unavailable, continuing without it: %v", err)
	} else {
		rdb = client
		defer rdb.Close()
	}

	// Initialize Game Manager and wire the WebSocket hub as its broadcaster
	game.InitializeManager(ctx, db, rdb, cfg)
	game.Manager.SetBroadcaster(ws.GameHub)

	// Wire Redis and start the event subscriber in WS layer
	ws.SetRedisClient(rdb)
	ws.StartEventSubscriber(ctx)

	// Start idle worker for idle detection
	game.StartIdleWorker(ctx, rdb, cfg)

	// Set up Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	api.SetupRoutes(router, db, rdb, cfg)

	port := cfg.Port
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting pinball server on port %s (tick=%dHz)", port, cfg.TickRateHz)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}
