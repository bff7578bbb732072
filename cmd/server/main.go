package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ikkim/shopsphere-storefront/config"
	"github.com/ikkim/shopsphere-storefront/internal/app/controller"
	"github.com/ikkim/shopsphere-storefront/internal/middleware"
	"github.com/ikkim/shopsphere-storefront/internal/report"
	"github.com/ikkim/shopsphere-storefront/internal/router"
	"github.com/ikkim/shopsphere-storefront/internal/scheduler"
	"github.com/ikkim/shopsphere-storefront/internal/session"
	"github.com/ikkim/shopsphere-storefront/internal/view"
	ws "github.com/ikkim/shopsphere-storefront/internal/websocket"
	"github.com/ikkim/shopsphere-storefront/pkg/logger"
	"github.com/ikkim/shopsphere-storefront/pkg/redis"
	"github.com/ikkim/shopsphere-storefront/pkg/shopapi"
	goredis "github.com/redis/go-redis/v9"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	logFormat := "json"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
		logFormat = "console"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      logFormat,
		EnableColor: true,
	})

	logger.Info("Starting ShopSphere storefront", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"api":         cfg.API.BaseURL,
		"log_level":   logLevel,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Storefront API client
	client, err := shopapi.NewClient(shopapi.Config{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.Timeout,
		UserAgent: "shopsphere-storefront",
	})
	if err != nil {
		logger.Fatal("Failed to create storefront API client", err)
	}

	// Redis backs the rate limiter when configured
	var redisClient *goredis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.Connect(ctx, cfg.Redis)
		if err != nil {
			logger.Warn("Falling back to in-memory rate limiting", map[string]interface{}{
				"error": err.Error(),
			})
			redisClient = nil
		}
	}
	defer func() {
		if err := redis.Close(redisClient); err != nil {
			logger.Error("Failed to close Redis connection", err)
		}
	}()

	limiterStore, err := middleware.NewLimiterStore(redisClient)
	if err != nil {
		logger.Fatal("Failed to create rate limiter store", err)
	}

	// Per-visitor state and its idle sweeper
	registry := session.NewRegistry(client, session.Options{
		ProductPageLimit: cfg.API.ProductPageLimit,
		ReviewPageLimit:  cfg.API.ReviewPageLimit,
	})
	sweeper := scheduler.NewSessionSweeper(registry, cfg.Session.SweepSpec, cfg.Session.IdleTTL)
	if err := sweeper.Start(); err != nil {
		logger.Fatal("Failed to start session sweeper", err)
	}
	defer sweeper.Stop()

	// Live analysis feed
	hub := ws.NewHub()
	go hub.Run(ctx)

	var archiver report.Archiver
	if cfg.S3.Enabled() {
		archiver = report.NewS3Archiver(ctx, cfg.S3)
		logger.Info("Analysis reports will be archived", map[string]interface{}{
			"bucket": cfg.S3.Bucket,
			"prefix": cfg.S3.Prefix,
		})
	}

	renderer, err := view.New()
	if err != nil {
		logger.Fatal("Failed to parse page templates", err)
	}

	// Setup router
	r := router.NewRouter(
		controller.NewProductController(),
		controller.NewAdminController(hub),
		controller.NewAnalysisController(hub, archiver, cfg.CORS.AllowedOrigins),
		controller.NewAuthController(),
		registry,
		middleware.NewCookieStore(cfg.Session),
		limiterStore,
		renderer,
		cfg,
	)
	engine, err := r.Setup()
	if err != nil {
		logger.Fatal("Failed to set up router", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	<-ctx.Done()
	logger.Info("Shutting down server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shut down", err)
	}

	logger.Info("Server stopped successfully")
}
