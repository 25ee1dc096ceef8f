package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/chitfund/internal/auction"
	"github.com/mmynk/chitfund/internal/auth"
	"github.com/mmynk/chitfund/internal/clock"
	"github.com/mmynk/chitfund/internal/config"
	"github.com/mmynk/chitfund/internal/lifecycle"
	"github.com/mmynk/chitfund/internal/metrics"
	"github.com/mmynk/chitfund/internal/middleware"
	"github.com/mmynk/chitfund/internal/registry"
	"github.com/mmynk/chitfund/internal/scheduler"
	"github.com/mmynk/chitfund/internal/service"
	"github.com/mmynk/chitfund/internal/storage"
	"github.com/mmynk/chitfund/internal/storage/sqlite"
	"github.com/mmynk/chitfund/pkg/api"
	"github.com/mmynk/chitfund/pkg/api/apiconnect"
	"github.com/mmynk/chitfund/pkg/logging"
)

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	cfg, err := config.Load(getEnv("CONFIG_PATH", "config.yaml"))
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Log.Level)
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid config", "error", err)
		os.Exit(1)
	}
	if cfg.Insecure() {
		slog.Warn("Using the built-in JWT secret; set JWT_SECRET in production")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize SQLite storage
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.Database.Path)

	engine := auction.NewEngine(cfg.Auction.Window.Std(), clock.System{})
	reg := registry.New(engine)
	if err := restoreGroups(ctx, store, reg); err != nil {
		slog.Error("Failed to restore groups", "error", err)
		os.Exit(1)
	}

	collector := metrics.NewCollector("chitfund")
	backend := &service.Backend{Registry: reg, Store: store, Metrics: collector}

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL.Std())
	authSvc := service.NewAuthService(auth.NewPasswordAuthenticator(store), jwtManager, store, slog.Default())
	limiter := middleware.NewRateLimiter(cfg.RateLimit.BidsPerSecond, cfg.RateLimit.Burst, apiconnect.AuctionServicePlaceBidProcedure)

	mux := http.NewServeMux()
	service.Mount(mux, backend, authSvc, jwtManager, limiter)
	mux.Handle("/metrics", collector.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok groups=%d\n", reg.Len())
	})

	sweeper := scheduler.NewSweeper(ctx, reg, store, collector, scheduler.Policy{
		ExtendOnNoBids: cfg.Auction.ExtendOnNoBids,
		Window:         cfg.Auction.Window.Std(),
		AutoOpen:       cfg.Auction.AutoOpen,
	})
	if err := sweeper.Schedule(cfg.Auction.SweepSchedule); err != nil {
		slog.Error("Failed to schedule sweeper", "schedule", cfg.Auction.SweepSchedule, "error", err)
		os.Exit(1)
	}
	sweeper.Start()
	defer sweeper.Stop()

	// Add logging and CORS middleware
	handler := loggingMiddleware(corsMiddleware(mux))

	// Wrap with h2c for HTTP/2 without TLS (required for Connect)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           h2c.NewHandler(handler, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown failed", "error", err)
		}
	}()

	slog.Info("Connect server starting",
		"address", server.Addr,
		"url", fmt.Sprintf("http://localhost%s", server.Addr),
		"groups", reg.Len(),
		"auction_window", cfg.Auction.Window.Std(),
	)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Server stopped")
}

// restoreGroups loads every persisted group into the registry.
func restoreGroups(ctx context.Context, store storage.Store, reg *registry.Registry) error {
	snaps, err := store.ListGroups(ctx)
	if err != nil {
		return err
	}
	for _, snap := range snaps {
		g, err := lifecycle.Restore(snap, reg.Engine())
		if err != nil {
			return fmt.Errorf("group %s: %w", snap.Group.ID, err)
		}
		if err := reg.Add(g); err != nil {
			return err
		}
	}
	slog.Info("Groups restored", "count", len(snaps))
	return nil
}

// loggingMiddleware logs all incoming requests
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		slog.Debug("Request received",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"user_agent", r.UserAgent(),
		)

		next.ServeHTTP(w, r)

		slog.Debug("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Connect-Protocol-Version, Connect-Timeout-Ms")
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms, "+api.ErrorKindHeader)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
