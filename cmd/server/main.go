package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/darahtanyoe/mitra-dashboard/internal/config"
	"github.com/darahtanyoe/mitra-dashboard/internal/dashboard"
	"github.com/darahtanyoe/mitra-dashboard/internal/database"
	"github.com/darahtanyoe/mitra-dashboard/internal/handlers"
	"github.com/darahtanyoe/mitra-dashboard/internal/middleware"
	"github.com/darahtanyoe/mitra-dashboard/internal/routes"
	"github.com/darahtanyoe/mitra-dashboard/internal/session"
	"github.com/darahtanyoe/mitra-dashboard/internal/upstream"
)

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()

	log.Printf("Connecting to Redis...")
	rdb, err := database.ConnectRedis(cfg.RedisURI)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer rdb.Close()

	store := session.NewStore(session.NewRedisKV(rdb), cfg.SessionTTL)
	client := upstream.NewClient(cfg.APIBaseURL, store)
	views := dashboard.NewRegistry(client, cfg.SessionTTL)
	h := handlers.New(store, client, views, handlers.Options{
		SessionTTL:    cfg.SessionTTL,
		SecureCookies: cfg.IsProduction(),
	})

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if cfg.IsProduction() {
		r.Use(middleware.SecurityHeaders)
		log.Println("Production security headers enabled")
	}

	// Health check (no session required)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OK"))
	})

	routes.Setup(r, h, store)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Mitra dashboard running on :%s (API %s)", cfg.Port, cfg.APIBaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}
}
