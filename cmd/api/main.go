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

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/harentsoaR/carrental-api/internal/cache"
	"github.com/harentsoaR/carrental-api/internal/config"
	"github.com/harentsoaR/carrental-api/internal/events"
	"github.com/harentsoaR/carrental-api/internal/handlers"
	"github.com/harentsoaR/carrental-api/internal/logging"
	"github.com/harentsoaR/carrental-api/internal/middleware"
	"github.com/harentsoaR/carrental-api/internal/services"
	"github.com/harentsoaR/carrental-api/internal/store"
	"github.com/harentsoaR/carrental-api/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Auth.JWTSecret == "" {
		logger.Warn("JWT_SECRET is not set; login and protected routes will fail")
	}

	// --- Database Connection ---
	client, err := store.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Timeout)
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(disconnectCtx)
	}()
	db := client.Database(cfg.Mongo.Database)
	logger.Info("connected to MongoDB", zap.String("database", cfg.Mongo.Database))

	if err := store.EnsureIndexes(ctx, db); err != nil {
		logger.Warn("index sync failed", zap.Error(err))
	}

	// --- Initialize Services ---
	carCache := cache.NewCarListCache(ctx, cfg.Redis.URL, cfg.Redis.CacheTTL, logger)
	defer func() { _ = carCache.Close() }()

	publisher, err := events.New(ctx, cfg.Events, logger)
	if err != nil {
		return err
	}
	defer func() { _ = publisher.Close() }()

	notifier := services.NewNotificationService(publisher, logger)
	defer notifier.Wait()

	// --- Initialize Handlers with DB and Services ---
	tokens := utils.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	h := handlers.NewHandler(db, tokens, notifier, carCache, logger, handlers.Settings{
		BcryptCost:       cfg.Auth.BcryptCost,
		AllowAdminSignup: cfg.Auth.AllowAdminSignup,
		ExposeErrors:     cfg.IsDevelopment(),
	})

	// --- Gin Router ---
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// --- Middleware ---
	r.Use(middleware.RequestID(), middleware.Logger(logger), gin.Recovery())
	r.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	// --- Routes ---
	h.RegisterRoutes(r, middleware.NewRateLimiter(cfg.Auth.LoginRateLimit))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"X-Request-ID", "X-Cache"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = origins
	c.AllowCredentials = true
	return c
}
