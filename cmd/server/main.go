package main

import (
	"context"
	"eduforum/internal/cache"
	"eduforum/internal/config"
	"eduforum/internal/live"
	"eduforum/internal/repository"
	"eduforum/internal/service"
	"eduforum/internal/transport/rest"
	"eduforum/internal/transport/ws"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	log.Println("started")
	ctx := context.Background()

	cfg := config.Load()

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer mongoClient.Disconnect(ctx)

	// Ping MongoDB
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		log.Fatal("Failed to ping MongoDB:", err)
	}
	log.Println("Connected to MongoDB")

	db := mongoClient.Database(cfg.MongoDB)

	// Redis connection
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisURI,
	})
	defer rdb.Close()

	// Ping Redis
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatal("Failed to ping Redis:", err)
	}
	log.Println("Connected to Redis")

	// Initialize WebSocket hub
	wsHub := ws.NewHub()
	log.Println("WebSocket hub started")

	// Initialize repositories
	archiveRepo := repository.NewArchiveRepo(db)

	// Initialize caches
	roomCache := cache.NewRoomCache(rdb)
	scoreCache := cache.NewScoreCache(rdb)

	// Initialize services
	authSvc := service.NewAuthService()
	archiveSvc := service.NewArchiveService(archiveRepo, roomCache)
	scoreSvc := service.NewScoreService(scoreCache)

	// Live room registry; the hub carries broadcasts, the archive service
	// persists rooms when they end.
	registry := live.NewRegistry(wsHub, archiveSvc, live.Options{
		HeartbeatTimeout: cfg.HeartbeatTimeout,
		GraceWindow:      cfg.GraceWindow,
	})
	defer registry.Close()

	// Create router with container
	container := &rest.Container{
		AuthService:    authSvc,
		ArchiveService: archiveSvc,
		ScoreService:   scoreSvc,
		Registry:       registry,
		RoomCache:      roomCache,
		WSHub:          wsHub,
	}

	router := rest.NewRouter(container)

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.Port)
		log.Println("Endpoints:")
		log.Println("  POST /v1/auth/session")
		log.Println("  POST /v1/rooms")
		log.Println("  GET  /v1/rooms/{roomId}")
		log.Println("  POST /v1/rooms/{roomId}/start")
		log.Println("  POST /v1/rooms/{roomId}/end")
		log.Println("  GET  /v1/rooms/{roomId}/archive")
		log.Println("  WS   /v1/ws/rooms/{roomId}")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ListenAndServe:", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
