package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/theayooolofin/Ilovevideo/internal/handlers"
	"github.com/theayooolofin/Ilovevideo/internal/identity"
	"github.com/theayooolofin/Ilovevideo/internal/logging"
	"github.com/theayooolofin/Ilovevideo/internal/metrics"
	"github.com/theayooolofin/Ilovevideo/internal/middleware"
	"github.com/theayooolofin/Ilovevideo/internal/startup"
	"github.com/theayooolofin/Ilovevideo/internal/sweeper"
	"github.com/theayooolofin/Ilovevideo/internal/transcode"
	"github.com/theayooolofin/Ilovevideo/internal/usage"
)

func main() {
	startTime := time.Now()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		logging.Fatal("Configuration error: %v", err)
	}

	// Initialize usage ledger
	storeStart := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	store, err := usage.New(ctx, config.DatabasePath)
	cancel()
	if err != nil {
		logging.Fatal("Failed to initialize usage ledger: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Warn("Failed to close usage ledger: %v", err)
		}
	}()
	startup.LogStoreInit(time.Since(storeStart))

	// Initialize transcoder
	startup.LogTranscoderInit(config.FFmpegPath, config.MaxConcurrentJobs)
	runner := transcode.NewRunner(config.FFmpegPath, config.MaxConcurrentJobs)

	// Initialize identity resolution
	var secret []byte
	if config.AuthEnabled() {
		secret = []byte(config.JWTSecret)
	}
	resolver := identity.NewResolver(secret, config.JWTIssuer, store)

	// Initialize metrics
	if config.MetricsEnabled {
		metrics.InitializeMetrics()

		// Refresh ledger connection gauges periodically
		go func() {
			ticker := time.NewTicker(1 * time.Minute)
			for range ticker.C {
				store.UpdateDBMetrics()
			}
		}()
	}

	// Start retention sweeper
	startup.LogSweeperInit(config.SweepInterval, config.MaxFileAge)
	sweep := sweeper.New([]string{config.UploadDir, config.OutputDir}, config.MaxFileAge, store)
	if err := sweep.Start(config.SweepInterval); err != nil {
		logging.Fatal("Failed to start sweeper: %v", err)
	}

	// Initialize handlers
	h := handlers.New(resolver, store, runner, config)

	// Setup router and middleware chain
	router := setupRouter(h)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	handler := middleware.Logger(loggingConfig)(router)

	if config.MetricsEnabled {
		handler = middleware.Metrics(middleware.DefaultMetricsConfig())(handler)
	}

	// Create server. WriteTimeout stays 0: transcode responses stream
	// for as long as the job runs, guarded by the streaming writer.
	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  0,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	// Start metrics server on its own listener
	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", h.MetricsHandler())
		metricsSrv = &http.Server{
			Addr:         ":" + config.MetricsPort,
			Handler:      metricsMux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != http.ErrServerClosed {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	// Start graceful shutdown handler
	go handleShutdown(srv, metricsSrv, sweep)

	// Start server
	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		logging.Fatal("Server error: %v", err)
	}
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()

	// Health routes (no auth required)
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")

	// API routes
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/usage", h.Usage).Methods("GET")
	api.HandleFunc("/compress", h.Compress).Methods("POST")
	api.HandleFunc("/resize", h.Resize).Methods("POST")
	api.HandleFunc("/webhook/payment", h.PaymentWebhook).Methods("POST")

	return r
}

func handleShutdown(srv, metricsSrv *http.Server, sweep *sweeper.Sweeper) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sweep.Stop()
	startup.LogShutdownStep("Sweeper stopped")

	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStep("Metrics server stopped")
		}
	}

	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStep("HTTP server stopped")
	}

	startup.LogShutdownComplete()
}
