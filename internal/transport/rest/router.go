package rest

import (
	"eduforum/internal/cache"
	"eduforum/internal/live"
	"eduforum/internal/service"
	"eduforum/internal/transport/rest/handler"
	"eduforum/internal/transport/rest/middleware"
	"eduforum/internal/transport/ws"
	"net/http"
	"os"

	"github.com/gorilla/mux"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService    *service.AuthService
	ArchiveService *service.ArchiveService
	ScoreService   *service.ScoreService
	Registry       *live.Registry
	RoomCache      cache.RoomCache
	WSHub          *ws.Hub
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService)
	roomHandler := handler.NewRoomHandler(c.Registry, c.RoomCache, c.ArchiveService)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService, c.Registry, c.ScoreService)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware)

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/session", authHandler.Session).Methods("POST", "OPTIONS")

	// WebSocket route (public with token in query param; the handler
	// validates the session itself before upgrading)
	v1.HandleFunc("/ws/rooms/{roomId}", wsHandler.RoomWS).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Authenticated routes
	sessionRoutes := v1.NewRoute().Subrouter()
	sessionRoutes.Use(authMW.RequireSession)

	sessionRoutes.HandleFunc("/rooms", roomHandler.Create).Methods("POST", "OPTIONS")
	sessionRoutes.HandleFunc("/rooms/{roomId}", roomHandler.Get).Methods("GET", "OPTIONS")
	sessionRoutes.HandleFunc("/rooms/{roomId}/start", roomHandler.Start).Methods("POST", "OPTIONS")
	sessionRoutes.HandleFunc("/rooms/{roomId}/end", roomHandler.End).Methods("POST", "OPTIONS")
	sessionRoutes.HandleFunc("/rooms/{roomId}/archive", roomHandler.Archive).Methods("GET", "OPTIONS")

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "*"
		}

		allowedMethods := os.Getenv("CORS_ALLOWED_METHODS")
		if allowedMethods == "" {
			allowedMethods = "GET, POST, PUT, DELETE, OPTIONS"
		}

		allowedHeaders := os.Getenv("CORS_ALLOWED_HEADERS")
		if allowedHeaders == "" {
			allowedHeaders = "Content-Type, Authorization"
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
		w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
