package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"task-rotation-api/internal/assignment"
	"task-rotation-api/internal/audit"
	"task-rotation-api/internal/config"
	"task-rotation-api/internal/database"
	"task-rotation-api/internal/events"
	"task-rotation-api/internal/handlers"
	"task-rotation-api/internal/locks"
	"task-rotation-api/internal/observability"
	"task-rotation-api/internal/realtime"
	"task-rotation-api/internal/routes"
	"task-rotation-api/internal/scheduler"
	"task-rotation-api/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	gin.SetMode(cfg.App.GinMode)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	dispatcher := events.NewInMemoryDispatcher(logger)

	var recorder *audit.Recorder
	if cfg.Audit.DBPath != "" {
		db, err := database.Open(cfg.Audit.DBPath, logger)
		if err != nil {
			logger.Fatal("failed to open audit database", zap.Error(err))
		}
		defer database.Close(db) //nolint:errcheck
		recorder = audit.NewRecorder(db, logger)
		recorder.Subscribe(dispatcher)
	}

	hub := realtime.NewHub(logger)
	hub.Subscribe(dispatcher)

	svc := assignment.NewService(store.New(), locks.NewRegistry(), assignment.Options{
		MaxTasksPerUser: cfg.Rotation.MaxTasksPerUser,
		Concurrency:     cfg.Rotation.Concurrency,
		Publisher:       dispatcher,
		Metrics:         observability.NewRotationMetrics(reg),
		Logger:          logger.Named("assignment"),
	})

	router := routes.SetupRoutes(routes.Deps{
		Handler:  handlers.New(svc, recorder, hub, logger),
		Logger:   logger,
		Gatherer: reg,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched := scheduler.New(svc, cfg.Rotation.Interval, logger)
	if err := sched.Start(ctx); err != nil {
		logger.Fatal("failed to start scheduler", zap.Error(err))
	}

	srv := &http.Server{
		Addr:    cfg.App.Addr(),
		Handler: router,
	}
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server listen", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	if err := sched.Stop(); err != nil {
		logger.Error("scheduler stop", zap.Error(err))
	}
}
