// cmd/credit-risk-server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"credit-default-risk/internal/bootstrap"
	"credit-default-risk/internal/common/camunda"
	"credit-default-risk/internal/common/config"
	"credit-default-risk/internal/common/logger"
	"credit-default-risk/internal/common/observability"
	"credit-default-risk/internal/content"
	"credit-default-risk/internal/web"

	pcd "credit-default-risk/internal/workers/credit/predict-credit-default"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zapLog := logger.New("info", "console")
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting credit risk server...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name, log)
	defer obs.Shutdown()

	ctx := context.Background()

	rt, err := bootstrap.Build(ctx, cfg, obs, log)
	if err != nil {
		zapLog.Fatal("assessment service failed to start", zap.Error(err))
	}
	defer rt.Close()

	site, err := content.Default()
	if err != nil {
		zapLog.Fatal("content load failed", zap.Error(err))
	}

	var opts []web.Option
	if rt.Redis != nil {
		opts = append(opts, web.WithReadinessCheck("redis", rt.Redis.Ping))
	}

	// --- Zeebe workers (optional) ---
	var workers *camunda.Workers
	if cfg.Camunda.Enabled {
		var zeebe *camunda.Client
		err = bootstrap.RetryWithBackoff(func() error {
			var err error
			zeebe, err = camunda.NewClientWithConfig(camunda.ConfigFrom(cfg.Camunda))
			return err
		}, 10, 2*time.Second, log, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		defer zeebe.Close()
		zapLog.Info("Zeebe client connected successfully")
		opts = append(opts, web.WithReadinessCheck("zeebe", zeebe.HealthCheck))

		workers = camunda.NewWorkers(zeebe.GetClient(), log)
		wcfg := config.GetWorkerConfig(cfg, pcd.TaskType)
		handler := pcd.NewHandler(pcd.LoadConfig(wcfg), rt.Service, obs, log)
		workers.Start(pcd.TaskType, wcfg, handler.Handle)
	}

	server, err := web.NewServer(rt.Service, site, log, opts...)
	if err != nil {
		zapLog.Fatal("web server setup failed", zap.Error(err))
	}
	httpServer := server.HTTPServer(
		cfg.Server.Address,
		config.GetDuration(cfg.Server.ReadTimeout),
		config.GetDuration(cfg.Server.WriteTimeout),
	)

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping HTTP server", zap.Error(err))
	}
	if workers != nil {
		workers.Close()
	}

	zapLog.Info("Credit risk server stopped gracefully")
}
