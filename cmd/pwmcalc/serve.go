package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pwmcalc/pkg/api"
	"pwmcalc/pkg/metrics"
)

const shutdownTimeout = 5 * time.Second

// serve runs the API server, and the metrics server when metricsAddr is
// set, until SIGINT or SIGTERM or until either server fails. The metrics
// endpoint requires basic auth when PWMCALC_METRICS_USER or
// PWMCALC_METRICS_PASSWORD is set.
func (a *app) serve(addr, metricsAddr string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.serveContext(ctx, addr, metricsAddr)
}

func (a *app) serveContext(ctx context.Context, addr, metricsAddr string) int {
	srv := api.New(api.Config{Addr: addr, Metrics: a.metrics})
	apiErr := make(chan error, 1)
	go func() { apiErr <- srv.Start() }()

	var ms *metrics.MetricsServer
	var metricsErr <-chan error
	if metricsAddr != "" {
		cfg := metrics.DefaultMetricsServerConfig()
		cfg.Address = metricsAddr
		cfg.Username = os.Getenv("PWMCALC_METRICS_USER")
		cfg.Password = os.Getenv("PWMCALC_METRICS_PASSWORD")
		ms = metrics.NewMetricsServerWithConfig(a.metrics, cfg)
		metricsErr = ms.StartAsync()
	}

	status := 0
	select {
	case <-ctx.Done():
		a.logger.Info("Received shutdown signal, exiting...")
	case err := <-apiErr:
		if err != nil {
			a.report(err)
			status = 1
		}
	case err, ok := <-metricsErr:
		if ok && err != nil {
			a.report(err)
			status = 1
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		a.logger.WithError(err).Warn("API server shutdown")
	}
	if ms != nil {
		if err := ms.Shutdown(shutdownCtx); err != nil {
			a.logger.WithError(err).Warn("metrics server shutdown")
		}
	}
	return status
}
