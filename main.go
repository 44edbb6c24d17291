package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"audio-converter/internal/converter"
	"audio-converter/internal/ffmpeg"
	"audio-converter/internal/handlers"
	"audio-converter/internal/history"
	"audio-converter/internal/janitor"
	"audio-converter/internal/logging"
	"audio-converter/internal/metrics"
	"audio-converter/internal/middleware"
	"audio-converter/internal/planner"
	"audio-converter/internal/session"
	"audio-converter/internal/startup"
)

func main() {
	startTime := time.Now()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	// Initialize conversion history
	hist, err := history.New(context.Background(), config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to open history database: %v", err)
	}
	defer hist.Close()

	// Initialize session store
	sessions := session.NewStore(config.SessionTTL)

	// Prune expired sessions periodically
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		for range ticker.C {
			if pruned := sessions.PruneExpired(); pruned > 0 {
				logging.Debug("Pruned %d expired session(s)", pruned)
			}
			metrics.ActiveSessions.Set(float64(sessions.Len()))
		}
	}()

	// Initialize ffmpeg driver
	driver, err := ffmpeg.New(ffmpeg.Config{
		ProbeTimeout:  config.ProbeTimeout,
		EncodeTimeout: config.EncodeTimeout,
	})
	if err != nil {
		// ffmpeg may land in PATH after startup (e.g. sidecar mounts).
		// Fall back to the bare names so only conversions fail, not the
		// whole server.
		logging.Warn("Transcoder unavailable: %v", err)
		driver, err = ffmpeg.New(ffmpeg.Config{
			FFmpegPath:    "ffmpeg",
			FFprobePath:   "ffprobe",
			ProbeTimeout:  config.ProbeTimeout,
			EncodeTimeout: config.EncodeTimeout,
		})
		if err != nil {
			startup.LogFatal("Failed to initialize transcoder driver: %v", err)
		}
	}

	engine := converter.New(driver, planner.New(config.MinBitrateKbps, config.MaxBitrateKbps))

	// Initialize handlers
	h := handlers.New(config, sessions, engine, hist)

	// Setup router
	router := setupRouter(h)

	// Apply authentication middleware
	authedRouter := h.AuthMiddleware(router)

	// Apply logging middleware
	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	handler := middleware.Logger(loggingConfig)(authedRouter)

	// Start the converted-files janitor
	jan := janitor.New(config.ConvertedDir, config.ConvertedTTL, 1*time.Hour)
	jan.Start()

	// Serve Prometheus metrics on a separate port so the auth middleware
	// never gets in front of the scraper.
	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", metrics.Handler())
		metricsSrv = &http.Server{
			Addr:              ":" + config.MetricsPort,
			Handler:           metricsMux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != http.ErrServerClosed {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	// Create server. Read and write timeouts stay unset: uploads of
	// multi-GiB recordings and synchronous encodes both outlive any
	// reasonable fixed deadline.
	srv := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      0,
		IdleTimeout:       60 * time.Second,
	}

	// Start graceful shutdown handler
	go handleShutdown(srv, metricsSrv, jan, hist)

	// Start server
	startup.LogServerStarted(config.Port, config.MetricsPort, config.MetricsEnabled, time.Since(startTime))
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		startup.LogFatal("Server error: %v", err)
	}
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()

	// Health check (no auth required)
	r.HandleFunc("/health", h.Health).Methods("GET")

	// Auth routes
	r.HandleFunc("/login", h.LoginPage).Methods("GET")
	r.HandleFunc("/login", h.Login).Methods("POST")
	r.HandleFunc("/logout", h.Logout).Methods("GET")

	// Protected routes
	r.HandleFunc("/", h.UploadPage).Methods("GET")
	r.HandleFunc("/convert", h.Convert).Methods("POST")
	r.HandleFunc("/download/{filename}", h.Download).Methods("GET")
	r.HandleFunc("/api/history", h.History).Methods("GET")

	return r
}

func handleShutdown(srv, metricsSrv *http.Server, jan *janitor.Janitor, hist *history.Store) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Stopping janitor")
	jan.Stop()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	}

	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		}
	}

	startup.LogShutdownStep("Closing history database")
	if err := hist.Close(); err != nil {
		logging.Warn("History close error: %v", err)
	}

	startup.LogShutdownComplete()
}
