package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"agriclimate-platform/internal/config"
	"agriclimate-platform/internal/dataset"
	"agriclimate-platform/internal/handlers"
	"agriclimate-platform/internal/llm"
	"agriclimate-platform/internal/query"
	"agriclimate-platform/internal/services"
	"agriclimate-platform/pkg/logging"
	"agriclimate-platform/pkg/metrics"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := logging.NewStructuredLogger("agriclimate-api", "1.0.0", logging.ParseLevel(cfg.Logging.Level))

	ctx := context.Background()
	logger.Info(ctx, "[STARTUP] Starting agri/climate Q&A API server", logging.Fields{
		"version":     "1.0.0",
		"server_host": cfg.Server.Host,
		"server_port": cfg.Server.Port,
		"agri_path":   cfg.Data.AgriPath,
		"rain_path":   cfg.Data.RainPath,
		"soil_path":   cfg.Data.SoilPath,
	})

	// Initialize metrics collector
	metricsCollector := metrics.NewCollector("agriclimate_platform")

	// Initialize dataset store and run the integration pipeline once at startup.
	// A failed initial build is not fatal: the server comes up and reports
	// data_unavailable until a reload succeeds.
	store := dataset.NewStore()
	integration := services.NewIntegrationService(cfg.Data, store, logger, metricsCollector)

	if _, err := integration.Rebuild(ctx); err != nil {
		logger.Error(ctx, "[STARTUP] Initial data integration failed, serving without data", logging.Fields{}, err)
	}

	// Initialize model backend and query execution
	backend := llm.NewGeminiClient(cfg.Backend, logger, metricsCollector)
	if !cfg.BackendConfigured() {
		logger.Warn(ctx, "[STARTUP] GEMINI_API_KEY not set, question requests will be rejected", logging.Fields{})
	}

	executor := query.NewExecutor(cfg.Query.MaxResultRows, logger, metricsCollector)

	// Initialize services
	answers := services.NewAnswerService(store, backend, executor, integration.Sources(), cfg.BackendConfigured(), logger, metricsCollector)

	// Initialize handlers
	askHandler := handlers.NewAskHandler(answers, integration, store, logger, metricsCollector)

	// Setup router
	router := mux.NewRouter()
	router.Use(handlers.RequestIDMiddleware)

	// Register routes
	askHandler.RegisterRoutes(router)

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler())

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info(ctx, "[SERVER_START] HTTP server listening", logging.Fields{
			"address": server.Addr,
		})

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "[SERVER_ERROR] Server failed", logging.Fields{}, err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "[SHUTDOWN] Shutting down server...", logging.Fields{})

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "[SHUTDOWN_ERROR] Server forced to shutdown", logging.Fields{}, err)
	}

	logger.Info(ctx, "[SHUTDOWN_COMPLETE] Server stopped", logging.Fields{})
}
