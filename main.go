package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"reviewshare/config"
	"reviewshare/config/database"
	"reviewshare/pkg/logger"
	"reviewshare/router"
	"reviewshare/socket"
)

func main() {
	// 1. Settings come from a .env file when present, then from the OS
	// environment.
	dotenv := config.LoadDotEnv()

	var cfg config.Server
	if err := config.ParseEnv(&cfg); err != nil {
		logger.Init("info")
		logger.Sugar.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.LogLevel)
	defer logger.Sync()
	if !dotenv {
		logger.Sugar.Info("No .env file found, using environment variables from OS")
	}
	if cfg.JWTSecret == "" {
		logger.Sugar.Warn("REVIEWS_JWT_SECRET is not set; every mutation will be rejected")
	}

	// 2. Connect to PostgreSQL (with retries) and make sure the reviews table
	// exists.
	db := database.Connect(cfg.DSN())
	defer db.Close()

	// 3. The hub fans change events out to websocket subscribers. Its event
	// loop runs in its own goroutine.
	hub := socket.NewHub()
	go hub.Run()
	defer hub.Stop()

	// 4. The router wires the review routes and /ws behind the JWT and CORS
	// middleware.
	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: router.Setup(db, hub, router.Options{
			JWTSecret:     []byte(cfg.JWTSecret),
			AllowedOrigin: cfg.AllowedOrigin,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 5. SIGINT or SIGTERM drains in-flight requests before exiting.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Sugar.Infof("Review store listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Sugar.Fatalf("Server failed: %v", err)
	}
}
