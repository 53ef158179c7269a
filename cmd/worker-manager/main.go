package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"commerce-workers/internal/api"
	"commerce-workers/internal/common/config"
	"commerce-workers/internal/common/logger"
	"commerce-workers/internal/common/observability"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config load failed", zap.Error(err))
	}

	zapLog, err := logger.New(cfg.Logging)
	if err != nil {
		zap.NewExample().Fatal("logger init failed", zap.Error(err))
	}
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{
		"app":         cfg.App.Name,
		"environment": cfg.App.Environment,
	})
	log.Info("starting worker manager", map[string]interface{}{"version": cfg.App.Version})

	obs, err := observability.New(cfg.App.Name, observability.AsGlobal(), observability.WithLoggedSpans(log))
	if err != nil {
		zapLog.Fatal("observability init failed", zap.Error(err))
	}

	ctx := context.Background()

	a, err := newApp(ctx, cfg, log, obs)
	if err != nil {
		zapLog.Fatal("startup failed", zap.Error(err))
	}

	if cfg.Camunda.Enabled {
		if err := a.startWorkers(ctx); err != nil {
			zapLog.Fatal("worker startup failed", zap.Error(err))
		}
	} else {
		log.Info("camunda disabled, serving HTTP API only", nil)
	}

	server := api.NewServer(cfg.Server, a.router(prometheus.DefaultGatherer))
	go func() {
		log.Info("http server listening", map[string]interface{}{"address": cfg.Server.Address})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, stopping", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown failed", map[string]interface{}{"error": err.Error()})
	}
	a.close()

	if err := obs.Shutdown(shutdownCtx); err != nil {
		log.Error("observability shutdown failed", map[string]interface{}{"error": err.Error()})
	}

	log.Info("worker manager stopped", map[string]interface{}{"at": time.Now().Format(time.RFC3339)})
}
