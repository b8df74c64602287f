package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"diningwrapped/internal/api/handlers"
	"diningwrapped/internal/api/middleware"
	"diningwrapped/internal/auth"
	"diningwrapped/internal/getapi"
	"diningwrapped/internal/logger"
	"diningwrapped/internal/pipeline"
	"diningwrapped/internal/store"
)

func main() {
	// Parse command-line flags
	var (
		port             = flag.String("port", envOr("WRAPPED_PORT", "8080"), "HTTP server port (or set WRAPPED_PORT env)")
		baseURL          = flag.String("base-url", envOr("WRAPPED_GET_BASE_URL", getapi.DefaultBaseURL), "GET platform base URL (or set WRAPPED_GET_BASE_URL env)")
		dbPath           = flag.String("db", envOr("WRAPPED_DB", "wrapped.db"), "SQLite credential store path (or set WRAPPED_DB env)")
		identityEndpoint = flag.String("identity-endpoint", os.Getenv("WRAPPED_IDENTITY_ENDPOINT"), "analytics identity endpoint (or set WRAPPED_IDENTITY_ENDPOINT env)")
	)
	flag.Parse()

	// Initialize logger
	log := logger.New()

	ctx := context.Background()

	// Initialize the credential store
	st, err := store.OpenSQLite(*dbPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *dbPath).Msg("Failed to open credential store")
	}
	defer st.Close()

	// Initialize the platform client and auth context
	platform := getapi.NewClient(*baseURL, log)

	var opts []auth.ManagerOption
	if *identityEndpoint != "" {
		dispatcher := auth.NewIdentityDispatcher(platform, auth.NewHTTPSink(*identityEndpoint), log, 16)
		dispatcher.Start(ctx)
		opts = append(opts, auth.WithIdentityDispatcher(dispatcher))
	}

	manager, err := auth.NewManager(ctx, st, platform, log, opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load auth state")
	}

	p := pipeline.New(pipeline.NewFetcher(manager, platform, log), log)

	// Initialize handlers
	enrollHandler := handlers.NewEnrollHandler(manager, platform, log)
	wrappedHandler := handlers.NewWrappedHandler(p, log)

	// Create router
	mux := http.NewServeMux()

	mux.HandleFunc("/api/enroll", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			enrollHandler.Enroll(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/session", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			enrollHandler.Session(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/logout", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			enrollHandler.Logout(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/wrapped", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			wrappedHandler.Wrapped(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Health check endpoint
	mux.HandleFunc("/healthz", handlers.Health)

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(mux),
			),
		),
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", *port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
