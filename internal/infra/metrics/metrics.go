package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	CyclesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "monitor_cycles_total",
		Help: "Publish cycles, labeled by whether the institution was open",
	}, []string{"state"})
	FetchFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "monitor_fetch_failures_total",
		Help: "Popularity fetches that degraded to an unknown reading",
	})
	PublishFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "monitor_publish_failures_total",
		Help: "Status publishes that failed after the fallback send",
	})
	MessageRecreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "monitor_message_recreated_total",
		Help: "Live messages recreated after an edit failure",
	})
	ArchiveWriteFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "monitor_archive_write_failures_total",
		Help: "Reading archive writes that failed",
	})
	SyncedReadings = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_readings_total",
		Help: "Archive objects processed by the importer, by outcome",
	}, []string{"outcome"})

	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Duration of outbound network requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"component", "operation", "target", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Count of outbound network requests",
	}, []string{"component", "operation", "target", "status"})
)

// MustRegister registers all collectors.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		CyclesTotal,
		FetchFailures,
		PublishFailures,
		MessageRecreated,
		ArchiveWriteFailures,
		SyncedReadings,
		NetworkRequestDuration,
		NetworkRequestTotal,
	)
}

// StartServer runs an HTTP server with the /metrics endpoint.
func StartServer(ctx context.Context, logger zerolog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	shutdownCtx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-ctx.Done():
		case <-shutdownCtx.Done():
		}
		shutdownTimeout, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer timeoutCancel()
		if err := srv.Shutdown(shutdownTimeout); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: graceful shutdown failed")
		}
	}()

	go func() {
		logger.Info().Str("addr", addr).Msg("metrics: server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: server stopped")
		}
		cancel()
	}()
}

// ObserveNetworkRequest records the duration and status of a network call.
func ObserveNetworkRequest(component, operation, target string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	if target == "" {
		target = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	NetworkRequestDuration.WithLabelValues(component, operation, target, status).Observe(duration)
	NetworkRequestTotal.WithLabelValues(component, operation, target, status).Inc()
}
