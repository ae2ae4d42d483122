package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/segyhp/deposit-engine/internal/app"
	"github.com/segyhp/deposit-engine/internal/config"
	"github.com/segyhp/deposit-engine/internal/handler"
	"github.com/segyhp/deposit-engine/pkg/response"
	log "github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg.ConfigureLogging()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	a, err := app.New(ctx, cfg)
	cancel()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer a.Close()

	router := setupRoutes(a)

	// Start server
	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      response.LoggingMiddleware(response.CORSMiddleware(router)),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	go func() {
		log.WithFields(log.Fields{
			"addr":   server.Addr,
			"driver": cfg.Database.Driver,
		}).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited")
}

func setupRoutes(a *app.App) *mux.Router {
	router := mux.NewRouter()

	// Health check
	handler.NewHealthHandler(a.DB, a.Redis, a.Config.Health.Timeout).RegisterRoutes(router)

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(response.JSONMiddleware)

	handler.NewDepositHandler(a.Catalog, a.Calculator, a.Recorder).RegisterRoutes(api)
	handler.NewMaturityHandler(a.Catalog, a.Scanner, a.Processor, a.Config.Maturity.ScanDaysAhead).RegisterRoutes(api)
	handler.NewJobHandler(a.Runner, a.DailyAccrual, a.Jobs()...).RegisterRoutes(api)

	return router
}
