package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/luvima/image-editor/internal/config"
	"github.com/luvima/image-editor/internal/logging"
	"github.com/luvima/image-editor/internal/removebg"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()
	logger := logging.New(os.Stdout, cfg.LogLevel)

	if cfg.RemoveBGAPIKey == "" {
		logger.Warn(ctx, "REMOVEBG_API_KEY is not set, the upstream API will reject requests")
	}

	client := removebg.NewClient(cfg.RemoveBGURL, cfg.RemoveBGAPIKey, cfg.RemoveBGTimeout)
	relay, err := removebg.NewHandler(client, cfg.MaxUploadBytes, logger)
	if err != nil {
		logger.Error(ctx, "templates", "error", err)
		os.Exit(1)
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/", relay.Form)
	r.Post("/", relay.Submit)

	srv := &http.Server{
		Addr:         ":" + cfg.RelayPort,
		Handler:      r,
		ReadTimeout:  time.Minute,
		WriteTimeout: cfg.RemoveBGTimeout + 30*time.Second,
	}

	go func() {
		logger.Info(ctx, "relay listening", "port", cfg.RelayPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, "server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "shutting down")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		logger.Error(ctx, "shutdown", "error", err)
	}
}
