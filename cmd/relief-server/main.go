package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/tmarks/go-relief-allocator/internal/allocation"
	"github.com/tmarks/go-relief-allocator/internal/api"
	"github.com/tmarks/go-relief-allocator/internal/classifier"
	"github.com/tmarks/go-relief-allocator/internal/config"
	"github.com/tmarks/go-relief-allocator/internal/inventory"
	"github.com/tmarks/go-relief-allocator/internal/logging"
	"github.com/tmarks/go-relief-allocator/internal/notify"
	"github.com/tmarks/go-relief-allocator/internal/repository"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("Server starting", "host", cfg.Server.Host, "port", cfg.Server.Port)

	// Incomplete allocation tables must stop the process before any batch.
	engine, err := allocation.NewEngine(allocation.DefaultConfig())
	if err != nil {
		logging.Fatalf("Failed to initialize allocation engine: %v", err)
	}

	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := inventory.NewStore(ctx, db, cfg.Inventory.Initial)
	if err != nil {
		logging.Fatalf("Failed to initialize inventory: %v", err)
	}

	// Broadcaster for SSE streaming of finished batch reports
	broadcaster := notify.NewBroadcaster()

	// Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false, // Set to false when using wildcard origins
	}))
	router.Use(api.RateLimitMiddleware(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst))

	handler := api.NewHandler(allocation.NewCoordinator(engine), db, store, broadcaster, classifier.NewHeuristic())
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	cancel()
	broadcaster.Close() // Close all streams gracefully

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
}
