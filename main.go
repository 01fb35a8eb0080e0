package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"cybertronic/internal/config"
	"cybertronic/internal/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// --- Configuration ---
	cfg, cfgErr := config.Load(viper.New(), ".env")

	log := logging.MustNewLogger(cfg.ServiceName, cfg.AppEnv)
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	if cfgErr != nil {
		log.Fatal("config_invalid", zap.Error(cfgErr))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	app, err := NewApp(ctx, cfg, log, reg)
	if err != nil {
		log.Fatal("app_init_failed", zap.Error(err))
	}
	if err := app.Start(ctx); err != nil {
		log.Fatal("app_start_failed", zap.Error(err))
	}

	// --- Start HTTP Server ---
	go func() {
		log.Info("http_server_starting", zap.String("addr", cfg.AppPort))
		if err := app.Fiber.Listen(cfg.AppPort); err != nil {
			log.Error("http_server_failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting_down")

	if err := app.Fiber.ShutdownWithTimeout(shutdownTimeout); err != nil {
		log.Error("http_shutdown_failed", zap.Error(err))
	}
	if err := app.Close(); err != nil {
		log.Error("app_close_failed", zap.Error(err))
	}
	log.Info("server_stopped")
}
