// cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/doorline/wholesale-analytics/internal/api"
	"github.com/doorline/wholesale-analytics/internal/cache"
	"github.com/doorline/wholesale-analytics/internal/config"
	"github.com/doorline/wholesale-analytics/internal/repository"
	"github.com/doorline/wholesale-analytics/internal/repository/postgres"
	"github.com/doorline/wholesale-analytics/internal/service"
	"github.com/doorline/wholesale-analytics/pkg/logger"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Initialize cache
	dashboardCache, err := cache.NewDashboardCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Cache unavailable, continuing without it")
		dashboardCache = cache.NewNoopDashboardCache()
	}

	// Initialize repositories and services
	customerRepo := repository.NewCustomerRepository(db)
	forecastRepo := repository.NewForecastRepository(db)

	analyticsService, err := service.NewAnalyticsService(customerRepo, dashboardCache, cfg.Rules)
	if err != nil {
		log.Fatalf("Failed to initialize analytics service: %v", err)
	}

	forecastService, err := service.NewForecastService(forecastRepo, customerRepo, cfg.Rules)
	if err != nil {
		log.Fatalf("Failed to initialize forecast service: %v", err)
	}

	// Initialize HTTP server
	router := api.NewRouter(&api.Services{
		Analytics: analyticsService,
		Forecast:  forecastService,
	}, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
