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
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/luvima/image-editor/internal/auth"
	"github.com/luvima/image-editor/internal/config"
	"github.com/luvima/image-editor/internal/editor"
	"github.com/luvima/image-editor/internal/logging"
	"github.com/luvima/image-editor/internal/middleware"
	"github.com/luvima/image-editor/internal/notify"
	"github.com/luvima/image-editor/internal/removebg"
	"github.com/luvima/image-editor/internal/store"
	"github.com/luvima/image-editor/internal/web"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()
	logger := logging.New(os.Stdout, cfg.LogLevel)

	fatal := func(msg string, err error) {
		logger.Error(ctx, msg, "error", err)
		os.Exit(1)
	}

	if cfg.SessionSecret == "" {
		logger.Warn(ctx, "SESSION_SECRET is not set, sessions will not survive a restart")
		cfg.SessionSecret = uuid.NewString()
	}

	// ── PostgreSQL ────────────────────────────────────────────
	pgPool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		fatal("postgres connect", err)
	}
	defer pgPool.Close()
	if err := pgPool.Ping(ctx); err != nil {
		fatal("postgres ping", err)
	}
	sqlDB := stdlib.OpenDBFromPool(pgPool)
	defer sqlDB.Close()
	if err := store.Migrate(ctx, sqlDB); err != nil {
		fatal("postgres migrate", err)
	}
	pgStore := store.NewPostgresStore(sqlDB)

	// ── MongoDB ──────────────────────────────────────────────
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		fatal("mongo connect", err)
	}
	defer mongoClient.Disconnect(ctx)
	mongoStore := store.NewMongoStore(mongoClient.Database(cfg.MongoDB))
	if err := mongoStore.EnsureIndexes(ctx); err != nil {
		fatal("mongo indexes", err)
	}

	// ── Redis ────────────────────────────────────────────────
	rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		fatal("redis connect", err)
	}
	defer rdb.Close()
	sessions := auth.NewSessionManager([]byte(cfg.SessionSecret), cfg.SessionTTL, store.NewRedisRevocations(rdb))

	// ── Blob storage ─────────────────────────────────────────
	var blobs editor.BlobStore
	switch cfg.StorageBackend {
	case "minio":
		blobs, err = store.NewMinioStore(
			ctx, cfg.MinioEndpoint, cfg.MinioAccessKey,
			cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL,
		)
	default:
		blobs, err = store.NewDiskStore(cfg.StorageDir)
	}
	if err != nil {
		fatal("blob storage", err)
	}
	logger.Info(ctx, "blob storage ready", "backend", cfg.StorageBackend)

	// ── Mail ─────────────────────────────────────────────────
	var sender notify.Sender
	if cfg.MailEnabled() {
		smtp, err := notify.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom)
		if err != nil {
			fatal("smtp client", err)
		}
		sender = smtp
	}
	notifier := notify.NewNotifier(sender, cfg.LoginURL, 30*time.Second, logger)

	// ── Background removal ───────────────────────────────────
	var remover editor.BackgroundRemover
	if cfg.RemoveBGAPIKey != "" {
		remover = removebg.NewClient(cfg.RemoveBGURL, cfg.RemoveBGAPIKey, cfg.RemoveBGTimeout)
	}

	// ── Handlers ─────────────────────────────────────────────
	pages, err := web.NewRenderer()
	if err != nil {
		fatal("templates", err)
	}
	svc := editor.NewService(blobs, mongoStore, remover, logger).WithMaxPixels(cfg.MaxImagePixels)
	authHandler := auth.NewHandler(pgStore, sessions, notifier, pages, logger)
	editorHandler := editor.NewHandler(svc, blobs, pages, cfg.MaxUploadBytes, logger)

	// ── Router ───────────────────────────────────────────────
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Pages and auth (public)
	r.Get("/", editorHandler.Home)
	r.Get("/signup", authHandler.SignupPage)
	r.Get("/register", authHandler.SignupPage)
	r.Post("/register", authHandler.Register)
	r.Get("/login", authHandler.LoginPage)
	r.Post("/login", authHandler.Login)
	r.Get("/logout", authHandler.Logout)
	r.Get("/static/{folder}/{name}", editorHandler.Static)

	r.With(middleware.RequirePage(sessions)).Get("/main", editorHandler.Main)

	// Editing API (protected)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(sessions))
		r.Post("/upload", editorHandler.Upload)
		r.Post("/apply_filter", editorHandler.ApplyFilter)
		r.Post("/crop", editorHandler.Crop)
		r.Post("/remove_bg", editorHandler.RemoveBG)
		r.Get("/history", editorHandler.History)
	})

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  time.Minute,
		WriteTimeout: 2 * time.Minute,
	}

	go func() {
		logger.Info(ctx, "editor listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fatal("server error", err)
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
	notifier.Wait()
}
