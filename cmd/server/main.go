// greetly - interactive greeting page server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ashureev/greetly/internal/api"
	"github.com/ashureev/greetly/internal/config"
	"github.com/ashureev/greetly/internal/greeting"
	"github.com/ashureev/greetly/internal/identity"
	"github.com/ashureev/greetly/internal/live"
	"github.com/ashureev/greetly/internal/middleware"
	"github.com/ashureev/greetly/internal/view"
	"github.com/ashureev/greetly/web"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

func main() {
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	level.Set(cfg.LogLevel)

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

	// Load greeting content.
	source, err := greeting.NewSource(cfg.ContentPath)
	if err != nil {
		slog.Error("Failed to load greeting content", "error", err, "path", cfg.ContentPath)
		os.Exit(1)
	}
	slog.Info("Greeting content loaded", "title", source.Current().Title, "steps", len(source.Current().Steps), "path", source.Path())

	renderer, err := view.New()
	if err != nil {
		slog.Error("Failed to initialize renderer", "error", err)
		os.Exit(1)
	}

	// Initialize services.
	sm := live.NewSessionManager()

	// Initialize handlers.
	apiHandler := api.NewHandler(source, sm)
	wsHandler := live.NewHandler(source, renderer, sm, live.Options{
		AllowedOrigin: cfg.WebSocketOrigin(),
		IsDev:         cfg.IsDevelopment(),
		EventRate:     cfg.EventRate,
		EventBurst:    cfg.EventBurst,
	})

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(identity.Middleware(cfg.IsDevelopment()))

	apiHandler.RegisterRoutes(r)

	// WebSocket endpoint.
	r.Get("/ws", wsHandler.ServeHTTP)

	// Gallery and picker images.
	r.Handle("/photos/*", http.StripPrefix("/photos/", http.FileServer(http.Dir(cfg.AssetDir))))

	// Serve embedded page shell.
	r.Handle("/*", web.PageHandler())

	// WebSocket sessions are long-lived, so no WriteTimeout.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	live.StartIdleReaper(ctx, sm, cfg.SessionIdleTimeout, cfg.ReaperInterval)

	if cfg.WatchContent {
		if err := source.Watch(ctx); err != nil {
			slog.Error("Failed to watch greeting content", "error", err, "path", cfg.ContentPath)
			os.Exit(1)
		}
		slog.Info("Watching greeting content", "path", cfg.ContentPath)
	}

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Hijacked websocket connections are not tracked by Shutdown.
	sm.CloseAll(shutdownCtx, "server shutting down")

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
