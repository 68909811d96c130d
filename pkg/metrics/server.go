// HTTP server for the Prometheus metrics endpoint
//
//	server := metrics.NewMetricsServer(metrics.GlobalMetrics(), ":9100")
//	errCh := server.StartAsync()
//	defer server.Shutdown(context.Background())
//
// Copyright (C) 2026 Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package metrics

import (
	"context"
	"crypto/subtle"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"

	"pwmcalc/pkg/log"
)

// MetricsServer serves Prometheus metrics over HTTP
type MetricsServer struct {
	m      *CalcMetrics
	addr   string
	server *http.Server
	mux    *http.ServeMux
	logger *log.Logger

	username string
	password string

	mu      sync.RWMutex
	running bool
}

// MetricsServerConfig holds server configuration
type MetricsServerConfig struct {
	// Address to listen on, e.g. ":9100"
	Address string

	// Optional basic auth credentials
	Username string
	Password string

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultMetricsServerConfig returns default server configuration
func DefaultMetricsServerConfig() MetricsServerConfig {
	return MetricsServerConfig{
		Address:      ":9100",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

// NewMetricsServer creates a metrics server with the default config
func NewMetricsServer(m *CalcMetrics, addr string) *MetricsServer {
	config := DefaultMetricsServerConfig()
	config.Address = addr
	return NewMetricsServerWithConfig(m, config)
}

// NewMetricsServerWithConfig creates a metrics server
func NewMetricsServerWithConfig(m *CalcMetrics, config MetricsServerConfig) *MetricsServer {
	ms := &MetricsServer{
		m:        m,
		addr:     config.Address,
		mux:      http.NewServeMux(),
		logger:   log.GetLogger("metrics"),
		username: config.Username,
		password: config.Password,
	}

	ms.mux.HandleFunc("/metrics", ms.handleMetrics)
	ms.mux.HandleFunc("/health", ms.handleHealth)
	ms.mux.HandleFunc("/ready", ms.handleReady)
	ms.mux.HandleFunc("/", ms.handleRoot)

	ms.server = &http.Server{
		Addr:         config.Address,
		Handler:      ms.mux,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}
	return ms
}

// Handler returns the server's routes.
func (ms *MetricsServer) Handler() http.Handler {
	return ms.mux
}

// Start listens and serves until Shutdown.
func (ms *MetricsServer) Start() error {
	ln, err := net.Listen("tcp", ms.addr)
	if err != nil {
		return pkgerrors.Wrap(err, "metrics server")
	}
	return ms.Serve(ln)
}

// Serve serves on an existing listener until Shutdown.
func (ms *MetricsServer) Serve(ln net.Listener) error {
	ms.mu.Lock()
	ms.running = true
	ms.mu.Unlock()

	ms.logger.Info("metrics listening on %s", ln.Addr())
	err := ms.server.Serve(ln)
	if err != nil && err != http.ErrServerClosed {
		return pkgerrors.Wrap(err, "metrics server")
	}
	return nil
}

// StartAsync starts the server in a goroutine. The channel receives a
// startup or serve error and is closed when the server stops.
func (ms *MetricsServer) StartAsync() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		if err := ms.Start(); err != nil {
			errCh <- err
		}
		close(errCh)
	}()
	return errCh
}

// Shutdown gracefully stops the server
func (ms *MetricsServer) Shutdown(ctx context.Context) error {
	ms.mu.Lock()
	ms.running = false
	ms.mu.Unlock()
	return ms.server.Shutdown(ctx)
}

// IsRunning reports whether the server is serving
func (ms *MetricsServer) IsRunning() bool {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return ms.running
}

func (ms *MetricsServer) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if !ms.checkAuth(w, r) {
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	output := ms.m.Gather()
	if r.Method == http.MethodHead {
		w.Header().Set("Content-Length", strconv.Itoa(len(output)))
		return
	}
	_, _ = w.Write([]byte(output))
}

func (ms *MetricsServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("OK\n"))
}

func (ms *MetricsServer) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	if ms.IsRunning() {
		_, _ = w.Write([]byte("Ready\n"))
		return
	}
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = w.Write([]byte("Not Ready\n"))
}

func (ms *MetricsServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>pwmcalc metrics</title></head>
<body>
<h1>pwmcalc metrics</h1>
<p><a href="/metrics">/metrics</a> Prometheus metrics</p>
<p><a href="/health">/health</a> health check</p>
<p><a href="/ready">/ready</a> readiness check</p>
</body>
</html>`))
}

// checkAuth verifies basic auth if configured
func (ms *MetricsServer) checkAuth(w http.ResponseWriter, r *http.Request) bool {
	if ms.username == "" && ms.password == "" {
		return true
	}
	username, password, ok := r.BasicAuth()
	if ok &&
		subtle.ConstantTimeCompare([]byte(username), []byte(ms.username)) == 1 &&
		subtle.ConstantTimeCompare([]byte(password), []byte(ms.password)) == 1 {
		return true
	}
	w.Header().Set("WWW-Authenticate", `Basic realm="pwmcalc metrics"`)
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
	return false
}
