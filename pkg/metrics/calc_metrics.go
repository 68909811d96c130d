// Calculator metrics
//
// Copyright (C) 2026 Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package metrics

import (
	goruntime "runtime"
	"sync"
	"time"
)

// CalcMetrics holds the metrics recorded by the calculator front ends.
type CalcMetrics struct {
	Requests         *Counter
	RequestDuration  *Histogram
	Renders          *Counter
	RenderBytes      *Histogram
	NoResolution     *Counter
	ValidationErrors *Counter
	SolverIterations *Histogram
	Candidates       *Histogram
	WebSocketClients *Gauge

	Uptime       *Gauge
	GoGoroutines *Gauge
	GoMemoryHeap *Gauge

	startTime time.Time
	registry  *Registry
}

// NewCalcMetrics creates and registers every calculator metric.
func NewCalcMetrics() *CalcMetrics {
	m := &CalcMetrics{
		startTime: time.Now(),
		registry:  NewRegistry(),

		Requests: NewCounter("pwmcalc_requests_total",
			"Requests handled, by method and outcome"),
		RequestDuration: NewHistogram("pwmcalc_request_duration_seconds",
			"Time spent handling a request", DefaultBuckets()),
		Renders: NewCounter("pwmcalc_renders_total",
			"Template sets rendered, by preset"),
		RenderBytes: NewHistogram("pwmcalc_render_bytes",
			"Size of all rendered artifacts", ExponentialBuckets(1024, 2, 8)),
		NoResolution: NewCounter("pwmcalc_no_resolution_total",
			"Calculations where no prescaler/period pair fit"),
		ValidationErrors: NewCounter("pwmcalc_validation_errors_total",
			"Rejected inputs, by error code"),
		SolverIterations: NewHistogram("pwmcalc_solver_iterations",
			"Prescaler values tried per search", ExponentialBuckets(1, 4, 9)),
		Candidates: NewHistogram("pwmcalc_solver_candidates",
			"Candidates returned per search", []float64{0, 1, 5, 10, 15, 20}),
		WebSocketClients: NewGauge("pwmcalc_websocket_clients",
			"Connected WebSocket clients"),

		Uptime: NewGauge("pwmcalc_uptime_seconds",
			"Seconds since start"),
		GoGoroutines: NewGauge("pwmcalc_go_goroutines",
			"Number of active goroutines"),
		GoMemoryHeap: NewGauge("pwmcalc_go_memory_heap_bytes",
			"Go heap memory in use"),
	}
	m.registry.MustRegister(
		m.Requests, m.RequestDuration, m.Renders, m.RenderBytes,
		m.NoResolution, m.ValidationErrors, m.SolverIterations, m.Candidates,
		m.WebSocketClients, m.Uptime, m.GoGoroutines, m.GoMemoryHeap,
	)
	return m
}

// RecordRequest counts a request and its duration. outcome is "ok" or an
// error code.
func (m *CalcMetrics) RecordRequest(method, outcome string, d time.Duration) {
	m.Requests.Inc(Labels{"method": method, "outcome": outcome})
	m.RequestDuration.Observe(Labels{"method": method}, d.Seconds())
}

// RecordSearch records one resolution search.
func (m *CalcMetrics) RecordSearch(iterations, candidates int, noResolution bool) {
	m.SolverIterations.Observe(nil, float64(iterations))
	m.Candidates.Observe(nil, float64(candidates))
	if noResolution {
		m.NoResolution.Inc(nil)
	}
}

// RecordRender records one rendered template set.
func (m *CalcMetrics) RecordRender(preset string, bytes int) {
	if preset == "" {
		preset = "none"
	}
	m.Renders.Inc(Labels{"preset": preset})
	m.RenderBytes.Observe(nil, float64(bytes))
}

// RecordValidationError counts a rejected input by code.
func (m *CalcMetrics) RecordValidationError(code string) {
	m.ValidationErrors.Inc(Labels{"code": code})
}

func (m *CalcMetrics) updateSystem() {
	var ms goruntime.MemStats
	goruntime.ReadMemStats(&ms)
	m.GoGoroutines.Set(nil, float64(goruntime.NumGoroutine()))
	m.GoMemoryHeap.Set(nil, float64(ms.HeapAlloc))
	m.Uptime.Set(nil, time.Since(m.startTime).Seconds())
}

// Gather returns all metrics in Prometheus text format
func (m *CalcMetrics) Gather() string {
	m.updateSystem()
	return m.registry.Gather()
}

// Registry returns the internal registry
func (m *CalcMetrics) Registry() *Registry {
	return m.registry
}

var (
	globalMetrics     *CalcMetrics
	globalMetricsOnce sync.Once
)

// GlobalMetrics returns the process-wide instance.
func GlobalMetrics() *CalcMetrics {
	globalMetricsOnce.Do(func() {
		globalMetrics = NewCalcMetrics()
	})
	return globalMetrics
}
