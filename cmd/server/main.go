package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"goldforecast/internal/app"
	"goldforecast/internal/config"
	"goldforecast/internal/forecast"
	"goldforecast/internal/web"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "path to config file (json or yaml)")
	flag.Parse()

	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := app.NewLogger(os.Stdout, cfg.Log)
	slog.SetDefault(logger)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	src, closeSource, err := app.BuildSource(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build source", "error", err)
		os.Exit(1)
	}
	defer closeSource()

	svc := forecast.NewService(src, app.ServiceOptions(cfg.Model), logger)
	opts := svc.Options()
	logger.Info("configuration loaded",
		"source", src.Name(),
		"order", opts.Order.String(),
		"seasonal_order", opts.Seasonal.String(),
		"horizon", opts.Horizon,
		"report_ttl", opts.ReportTTL,
	)

	requestTimeout := time.Duration(cfg.Server.RequestTimeoutSec) * time.Second
	handler := web.NewServer(svc, web.Options{
		Interval:       true,
		RequestTimeout: requestTimeout,
		CORSOrigins:    cfg.Server.CORSOrigins,
		Compression:    cfg.Server.Compression,
	}, logger).Handler()

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      requestTimeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutSec)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
}
