package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edgegate/dispatch/config"
	"github.com/edgegate/dispatch/internal/circuitbreaker"
	"github.com/edgegate/dispatch/internal/dispatcher"
	"github.com/edgegate/dispatch/internal/handler"
	"github.com/edgegate/dispatch/internal/healthcheck"
	"github.com/edgegate/dispatch/internal/httpserver"
	"github.com/edgegate/dispatch/internal/metrics"
	"github.com/edgegate/dispatch/internal/registry"
	"github.com/edgegate/dispatch/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("err", err))
		os.Exit(1)
	}

	if err := cfg.MergeServices(config.NewEnvSource()); err != nil {
		slog.Error("failed to discover services", slog.Any("err", err))
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, true, cfg.Server.Environment)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	reg := initializeRegistry(cfg, log)

	collector := metrics.NewCollector(1024, logger.Component(log, "metrics"))
	collector.Start(ctx)

	monitor, err := initializeMonitor(cfg, reg, logger.Component(log, "healthcheck"), collector)
	if err != nil {
		log.Error("Failed to initialize health monitor", slog.Any("err", err))
		os.Exit(1)
	}
	monitor.Start(ctx)
	defer monitor.Stop()

	breakers, err := initializeBreakers(cfg)
	if err != nil {
		log.Error("Failed to initialize circuit breakers", slog.Any("err", err))
		os.Exit(1)
	}

	d := dispatcher.NewDispatcher(logger.Component(log, "dispatcher"), reg, breakers, collector)

	adminHandler := handler.NewAdminHandler(logger.Component(log, "admin"), d)
	router := setupRouter(adminHandler, collector)

	srv, err := httpserver.New(cfg.Server.Address, router)
	if err != nil {
		log.Error("Failed to create server", slog.Any("err", err))
		os.Exit(1)
	}

	log.Info("Admin API listening", slog.String("address", cfg.Server.Address))

	srvErrCh := make(chan error, 1)

	go func() {
		srvErrCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Error("Error during shutdown", slog.Any("err", err))
		}
	case err := <-srvErrCh:
		if err != nil {
			log.Error("Error starting admin server", slog.Any("err", err))
			os.Exit(1)
		}
	}
}

func initializeRegistry(cfg *config.Config, log *slog.Logger) *registry.Registry {
	reg := registry.New()

	for name, address := range cfg.Services {
		reg.Register(name, address)
		log.Info("Registered service",
			slog.String("service", name),
			slog.String("address", address))
	}

	if reg.Len() == 0 {
		log.Warn("No services configured, waiting for dispatches to unregistered services")
	}

	return reg
}

func initializeMonitor(cfg *config.Config, reg *registry.Registry, log *slog.Logger, collector *metrics.Collector) (*healthcheck.Monitor, error) {
	interval, err := time.ParseDuration(cfg.HealthCheck.Interval)
	if err != nil {
		return nil, err
	}

	probeTimeout, err := time.ParseDuration(cfg.HealthCheck.ProbeTimeout)
	if err != nil {
		return nil, err
	}

	return healthcheck.NewMonitor(reg, interval, probeTimeout, log, collector), nil
}

func initializeBreakers(cfg *config.Config) (*circuitbreaker.Registry, error) {
	defaults, err := breakerDefaults(cfg.Breaker)
	if err != nil {
		return nil, err
	}

	breakers := circuitbreaker.NewRegistry(defaults)

	for service, override := range cfg.Overrides {
		oc, err := breakerOverride(override, defaults)
		if err != nil {
			return nil, err
		}
		breakers.SetOverride(service, oc)
	}

	return breakers, nil
}

// breakerDefaults maps the top-level breaker section onto the runtime config.
// Thresholds are taken as written, so failure_threshold 0 disables the
// absolute rule; empty durations fall back to the built-in defaults.
func breakerDefaults(bc config.BreakerConfig) (circuitbreaker.Config, error) {
	out := circuitbreaker.DefaultConfig()

	out.FailureThreshold = bc.FailureThreshold
	out.ErrorThresholdPercentage = bc.ErrorThresholdPercentage
	out.VolumeThreshold = bc.VolumeThreshold

	if bc.ResetTimeout != "" {
		d, err := time.ParseDuration(bc.ResetTimeout)
		if err != nil {
			return circuitbreaker.Config{}, err
		}
		out.ResetTimeout = d
	}

	if bc.OperationTimeout != "" {
		d, err := time.ParseDuration(bc.OperationTimeout)
		if err != nil {
			return circuitbreaker.Config{}, err
		}
		out.OperationTimeout = d
	}

	return out, nil
}

// breakerOverride layers a per-service section over the defaults. Zero and
// empty fields inherit from the defaults, so overrides only name what they
// change.
func breakerOverride(bc config.BreakerConfig, base circuitbreaker.Config) (circuitbreaker.Config, error) {
	out := base

	if bc.FailureThreshold != 0 {
		out.FailureThreshold = bc.FailureThreshold
	}
	if bc.ErrorThresholdPercentage != 0 {
		out.ErrorThresholdPercentage = bc.ErrorThresholdPercentage
	}
	if bc.VolumeThreshold != 0 {
		out.VolumeThreshold = bc.VolumeThreshold
	}

	if bc.ResetTimeout != "" {
		d, err := time.ParseDuration(bc.ResetTimeout)
		if err != nil {
			return circuitbreaker.Config{}, err
		}
		out.ResetTimeout = d
	}

	if bc.OperationTimeout != "" {
		d, err := time.ParseDuration(bc.OperationTimeout)
		if err != nil {
			return circuitbreaker.Config{}, err
		}
		out.OperationTimeout = d
	}

	return out, nil
}
