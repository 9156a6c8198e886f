package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Itera/unger-agentic-insight/internal/config"
	"github.com/Itera/unger-agentic-insight/internal/handlers"
	"github.com/Itera/unger-agentic-insight/internal/pkg/logger"
	"github.com/Itera/unger-agentic-insight/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}

	llmService, err := services.NewLLMService(cfg.LLM, appLogger)
	if err != nil {
		log.Fatalf("failed to initialize LLM service: %v", err)
	}

	graphService, err := services.NewGraphService(cfg.Graph, appLogger)
	if err != nil {
		log.Fatalf("failed to initialize graph service: %v", err)
	}

	canonicalizer := services.NewSensorNameCanonicalizer(services.DefaultSensorNameConfig())
	maintenanceService := services.NewMaintenanceService(cfg.Maintenance, canonicalizer, appLogger)
	timeSeriesService := services.NewTimeSeriesService(cfg.TimeSeries, appLogger)

	coordinator := services.NewCoordinator(
		llmService,
		graphService,
		maintenanceService,
		timeSeriesService,
		cfg.Workflow,
		appLogger,
	)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	queryHandler := handlers.NewQueryHandler(coordinator, appLogger)
	queryHandler.RegisterRoutes(router)

	server := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		appLogger.Info("HTTP server listening", "port", cfg.HTTP.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Error("HTTP server failed")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Error("server shutdown failed")
	}

	maintenanceService.Close()
	if err := graphService.Close(shutdownCtx); err != nil {
		appLogger.WithError(err).Error("graph driver close failed")
	}

	appLogger.Info("shutdown complete")
}
