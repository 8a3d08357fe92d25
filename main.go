package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/KJiShou/Sport-Stacking-Website-sub001/internal/besttime"
	"github.com/KJiShou/Sport-Stacking-Website-sub001/internal/config"
	"github.com/KJiShou/Sport-Stacking-Website-sub001/internal/events"
	"github.com/KJiShou/Sport-Stacking-Website-sub001/internal/history"
	server "github.com/KJiShou/Sport-Stacking-Website-sub001/internal/http"
	"github.com/KJiShou/Sport-Stacking-Website-sub001/internal/metrics"
	"github.com/KJiShou/Sport-Stacking-Website-sub001/internal/pubsub"
	"github.com/KJiShou/Sport-Stacking-Website-sub001/internal/store"
	"github.com/KJiShou/Sport-Stacking-Website-sub001/internal/verification"
)

func main() {
	startTime := time.Now()
	log.SetFormatter(log.JSONFormatter)
	cfg := config.Load()

	ctx := context.Background()
	docStore, err := store.NewFirestore(ctx, cfg.ProjectID)
	if err != nil {
		log.Fatalf("Failed to initialize document store: %s", err)
	}
	defer func() {
		log.Info("Closing document store client")
		docStore.Close()
	}()

	metricsSvc := metrics.NewService()
	metricsHandler := metrics.NewMetricsHandler()
	pubsubClient := pubsub.New(cfg.ProjectID)
	defer func() {
		log.Info("Closing pubsub client")
		if err := pubsubClient.Close(); err != nil {
			log.Error("Failed to close pubsub client", "error", err)
		}
	}()

	resolver := events.NewResolver(docStore)
	verifier := verification.New(docStore, metricsSvc)
	bestTime := besttime.New(docStore, metricsSvc)
	historyAgg := history.New(docStore, metricsSvc)

	s := server.NewServer(
		docStore,
		metricsSvc,
		metricsHandler,
		cfg,
		verifier,
		resolver,
		bestTime,
		historyAgg,
		pubsubClient,
	)

	startupDuration := time.Since(startTime)
	metricsSvc.SetStartupTime(startupDuration.Seconds())
	log.Info("Startup time recorded", "duration_ms", startupDuration.Milliseconds())

	// --- Graceful shutdown setup ---
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: s,
	}

	// Channel to listen for errors coming from the server
	serverErrors := make(chan error, 1)

	// Start the server in a goroutine
	go func() {
		log.Info("Server started", "port", cfg.Port)
		serverErrors <- srv.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	case sig := <-shutdown:
		log.Info("Shutdown signal received", "signal", sig)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Server shutdown failed", "error", err)
		} else {
			log.Info("Server gracefully stopped")
		}
	}

	log.Info("Server process shutting down")
}
