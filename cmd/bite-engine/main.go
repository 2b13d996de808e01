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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/avionix/bite-engine/internal/api"
	"github.com/avionix/bite-engine/internal/catalog"
	"github.com/avionix/bite-engine/internal/config"
	"github.com/avionix/bite-engine/internal/engine"
	"github.com/avionix/bite-engine/internal/history"
	"github.com/avionix/bite-engine/internal/metrics"
	"github.com/avionix/bite-engine/internal/recorder"
	"github.com/avionix/bite-engine/internal/services"
	"github.com/avionix/bite-engine/internal/utils"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("path", configPath), slog.Any("error", err))
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)
	logger.Info("starting bite-engine",
		slog.String("address", cfg.Server.Address),
		slog.Int("sensors", len(cfg.Sensors)))

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register metrics", slog.Any("error", err))
		os.Exit(1)
	}

	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		logger.Error("failed to load fault catalog", slog.String("path", cfg.Catalog.Path), slog.Any("error", err))
		os.Exit(1)
	}

	csvSink, err := recorder.NewCSV(cfg.Recorders.CSV.Path)
	if err != nil {
		logger.Error("failed to open fault log", slog.String("path", cfg.Recorders.CSV.Path), slog.Any("error", err))
		os.Exit(1)
	}
	defer csvSink.Close()

	sinks := []recorder.Recorder{csvSink}

	if dsn := cfg.Recorders.Postgres.DSN; dsn != "" {
		pgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		pgSink, err := recorder.OpenPostgres(pgCtx, dsn)
		cancel()
		if err != nil {
			logger.Warn("postgres sink unavailable", slog.Any("error", err))
		} else {
			defer pgSink.Close()
			sinks = append(sinks, pgSink)
		}
	}

	if influxCfg := cfg.Recorders.Influx; influxCfg.URL != "" {
		influxSink := recorder.NewInflux(influxCfg.URL, influxCfg.Token, influxCfg.Org, influxCfg.Bucket)
		defer influxSink.Close()
		sinks = append(sinks, influxSink)
	}

	if hookCfg := cfg.Recorders.Webhook; hookCfg.URL != "" {
		sinks = append(sinks, recorder.NewWebhook(hookCfg.URL, hookCfg.Retries, hookCfg.Timeout))
	}

	fanout := recorder.NewFanout(logger, sinks...)
	logger.Info("recorder sinks configured", slog.Any("sinks", fanout.Sinks()))

	journal := history.NewJournal(cfg.History.Capacity)
	loop := engine.NewLoop(logger, cat, fanout, journal, cfg.Sensors, engine.Options{
		Interval:        cfg.Sampling.Interval(),
		DefaultInterval: config.DefaultIntervalMS * time.Millisecond,
		RetentionSec:    cfg.Sampling.RetentionSec,
		Seed:            cfg.Sampling.Seed,
	})

	biteService := services.NewBITEService(logger, loop)

	server, err := api.NewServer(cfg.Server, biteService, logger)
	if err != nil {
		logger.Error("failed to create API server", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metricsServer *http.Server
	if cfg.Server.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
		}
		go func() {
			logger.Info("metrics server listening", slog.String("address", cfg.Server.MetricsAddress))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server exited", slog.Any("error", err))
				stop()
			}
		}()
	}

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		if runErr := loop.Run(ctx); runErr != nil {
			logger.Error("sampling loop exited", slog.Any("error", runErr))
			stop()
		}
	}()

	go func() {
		logger.Info("API server listening", slog.String("address", server.Address()))
		if serveErr := server.Start(); serveErr != nil {
			logger.Error("API server exited", slog.Any("error", serveErr))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	server.Shutdown(shutdownCtx)

	if metricsServer != nil {
		metricsCtx, cancelMetrics := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(metricsCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server shutdown", slog.Any("error", err))
		}
		cancelMetrics()
	}

	select {
	case <-loopDone:
	case <-time.After(2 * time.Second):
		logger.Warn("sampling loop did not stop in time")
	}
	logger.Info("bite-engine stopped")
}
