package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"lensportal/internal/cache"
	"lensportal/internal/catalog"
	"lensportal/internal/config"
	"lensportal/internal/database"
	"lensportal/internal/handler"
	"lensportal/internal/logging"
	"lensportal/internal/metrics"
	"lensportal/internal/mw"
	"lensportal/internal/service"
	"lensportal/internal/worker"
)

func main() {
	cfg := config.New()
	logging.Init(cfg.LogLevel)

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		slog.Error("failed to load catalog", "error", err)
		os.Exit(1)
	}

	db, err := database.NewDB(cfg.DatabaseURI)
	if err != nil {
		slog.Error("failed to connect to DB", "error", err)
		os.Exit(1)
	}
	defer database.CloseDB(db)

	if err := database.InitSchema(context.Background(), db); err != nil {
		slog.Error("failed to init DB schema", "error", err)
		os.Exit(1)
	}

	reg := metrics.NewRegistry()
	orderStore := database.NewOrderStore(db)

	// Services
	authSvc := service.NewAuthService(db)
	profileSvc := service.NewProfileService(db)
	orderSvc := service.NewOrderService(orderStore, profileSvc, cat, reg, service.OrderConfig{
		StoreTimeout:   cfg.StoreTimeout,
		DashboardLimit: cfg.DashboardLimit,
	})

	if cfg.RedisAddress != "" {
		idem := cache.NewIdempotencyStore(cfg.RedisAddress, "lensportal", cfg.IdempotencyTTL)
		defer idem.Close()
		orderSvc.SetIdempotency(idem)
		slog.Info("idempotency keys enabled", "redis", cfg.RedisAddress)
	}

	// Router
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Public routes
	r.Post("/api/user/register", handler.RegisterHandler(authSvc, cfg.JWTSecret, cfg.JWTTTL))
	r.Post("/api/user/login", handler.LoginHandler(authSvc, cfg.JWTSecret, cfg.JWTTTL))
	r.Get("/api/catalog", handler.CatalogHandler(cat))
	r.Get("/healthz", handler.HealthHandler(orderStore))
	r.Handle("/metrics", reg.Handler())

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.JWTSecret))

		r.Get("/api/dashboard", handler.DashboardHandler(orderSvc))
		r.Post("/api/orders", handler.SubmitOrderHandler(orderSvc))
		r.Get("/api/orders", handler.ListOrdersHandler(orderSvc))
		r.Get("/api/orders/{id}", handler.GetOrderHandler(orderSvc))
	})

	srv := &http.Server{
		Addr:         cfg.RunAddress,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	if cfg.LabAddress != "" {
		labClient := service.NewLabClient(cfg.LabAddress, 10*time.Second)
		statusWorker := worker.NewStatusWorker(orderSvc, labClient, reg, cfg.SyncInterval, cfg.SyncBatch)
		go statusWorker.Start(ctx)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	slog.Info("starting server", "addr", cfg.RunAddress)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-quit
	slog.Info("shutting down...")

	cancel() // stop worker
	ctxShut, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShut()

	if err := srv.Shutdown(ctxShut); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}

	slog.Info("server stopped")
}
