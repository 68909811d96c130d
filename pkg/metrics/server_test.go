// Unit tests for the metrics HTTP server
//
// Copyright (C) 2026 Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package metrics

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func serve(t *testing.T, ms *MetricsServer, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	ms.Handler().ServeHTTP(w, req)
	return w
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultMetricsServerConfig()
	if config.Address != ":9100" || config.ReadTimeout != 10*time.Second || config.WriteTimeout != 10*time.Second {
		t.Errorf("unexpected defaults %+v", config)
	}
}

func TestHandleMetrics(t *testing.T) {
	m := NewCalcMetrics()
	m.RecordRender("led-dimming", 2048)
	ms := NewMetricsServer(m, ":0")

	w := serve(t, ms, http.MethodGet, "/metrics")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain; version=0.0.4") {
		t.Errorf("unexpected content type %q", ct)
	}
	if !strings.Contains(w.Body.String(), `pwmcalc_renders_total{preset="led-dimming"} 1`) {
		t.Errorf("metrics missing from body:\n%s", w.Body.String())
	}

	head := serve(t, ms, http.MethodHead, "/metrics")
	if head.Body.Len() != 0 || head.Header().Get("Content-Length") == "" {
		t.Error("HEAD should set Content-Length without a body")
	}

	if w := serve(t, ms, http.MethodPost, "/metrics"); w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", w.Code)
	}
}

func TestHealthAndReady(t *testing.T) {
	ms := NewMetricsServer(NewCalcMetrics(), ":0")

	if w := serve(t, ms, http.MethodGet, "/health"); w.Code != http.StatusOK || w.Body.String() != "OK\n" {
		t.Errorf("health = %d %q", w.Code, w.Body.String())
	}
	if w := serve(t, ms, http.MethodGet, "/ready"); w.Code != http.StatusServiceUnavailable {
		t.Errorf("not serving yet, ready = %d", w.Code)
	}
	if w := serve(t, ms, http.MethodGet, "/"); !strings.Contains(w.Body.String(), "/metrics") {
		t.Error("landing page should link the endpoints")
	}
	if w := serve(t, ms, http.MethodGet, "/other"); w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestBasicAuth(t *testing.T) {
	ms := NewMetricsServerWithConfig(NewCalcMetrics(), MetricsServerConfig{
		Address:  ":0",
		Username: "admin",
		Password: "secret",
	})

	if w := serve(t, ms, http.MethodGet, "/metrics"); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without credentials, got %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.SetBasicAuth("admin", "wrong")
	w := httptest.NewRecorder()
	ms.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 with a bad password, got %d", w.Code)
	}

	req.SetBasicAuth("admin", "secret")
	w = httptest.NewRecorder()
	ms.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 with credentials, got %d", w.Code)
	}
}

func TestServeAndShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ms := NewMetricsServer(NewCalcMetrics(), "")

	done := make(chan error, 1)
	go func() { done <- ms.Serve(ln) }()

	url := "http://" + ln.Addr().String() + "/ready"
	var body string
	for i := 0; i < 50; i++ {
		resp, err := http.Get(url)
		if err == nil {
			b, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				body = string(b)
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	if body != "Ready\n" {
		t.Fatalf("server never became ready, last body %q", body)
	}
	if !ms.IsRunning() {
		t.Error("server should report running")
	}

	if err := ms.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if err := <-done; err != nil {
		t.Errorf("Serve returned %v", err)
	}
	if ms.IsRunning() {
		t.Error("server should not be running after Shutdown")
	}
}

func TestStartBadAddress(t *testing.T) {
	ms := NewMetricsServer(NewCalcMetrics(), "bad::address::")
	if err := <-ms.StartAsync(); err == nil {
		t.Error("expected a listen error")
	}
}
