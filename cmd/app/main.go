package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/kuldipraj/taskboard/internal/cache"
	"github.com/kuldipraj/taskboard/internal/config"
	"github.com/kuldipraj/taskboard/internal/handler"
	"github.com/kuldipraj/taskboard/internal/metrics"
	"github.com/kuldipraj/taskboard/internal/service"
	"github.com/kuldipraj/taskboard/internal/store"
	"github.com/kuldipraj/taskboard/internal/store/inmemory"
	"github.com/kuldipraj/taskboard/internal/store/postgres"
	"github.com/kuldipraj/taskboard/internal/worker"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg := config.Load()

	var taskStore store.TaskStore
	switch cfg.StoreBackend {
	case "inmemory":
		taskStore = inmemory.NewTaskStore()
		logger.Info("Using in-memory task store")
	default:
		pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			log.Fatal("Failed to connect to Database.")
		}
		defer pool.Close()

		if err := pool.Ping(context.Background()); err != nil {
			log.Fatal("Failed to ping the Database.")
		}
		logger.Info("Successfully connected to the Database!")
		taskStore = postgres.NewTaskStore(pool)
	}

	var taskCache service.TaskCache
	if cfg.RedisAddr != "" {
		redisCache := cache.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL)
		if err := redisCache.Ping(context.Background()); err != nil {
			logger.Warn("Redis unreachable, running without list cache", zap.Error(err))
		} else {
			logger.Info("Connected to Redis list cache")
			taskCache = redisCache
		}
	}

	taskService := service.NewTaskService(taskStore, taskCache, cfg.Owner, logger)
	taskHandler := handler.NewTaskHandler(taskService, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"ok"}`)
	})
	r.Handle("/metrics", metrics.Handler())
	taskHandler.Register(r)

	monitor := worker.NewMonitor(taskService, logger, cfg.StatsInterval)
	monitor.Start(context.Background())

	srv := http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server started at ", zap.String("port", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed: ", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logger.Info("Shutting down server...")
	monitor.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Shutdown error: ", zap.Error(err))
	}
	logger.Info("Server stopped successfully!")
}
