package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"aquadash/internal/config"
	"aquadash/internal/metrics"
)

func newTestServer(t *testing.T, cfg config.Config, ping PingFunc, m *metrics.Metrics) *httptest.Server {
	t.Helper()

	mux := NewMux(ping, m)
	srv := NewServer(cfg, mux, m)
	ts := httptest.NewServer(srv.Handler)

	t.Cleanup(ts.Close)
	return ts
}

func okPing(context.Context) error { return nil }

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, config.Config{}, okPing, nil)

	resp, err := ts.Client().Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d want=%d", resp.StatusCode, http.StatusOK)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("body.status=%q want=%q", body["status"], "ok")
	}
}

func TestHealthz_StoreDown(t *testing.T) {
	captureLogs(t)
	ts := newTestServer(t, config.Config{}, func(context.Context) error {
		return errors.New("server selection timeout")
	}, nil)

	resp, err := ts.Client().Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status=%d want=%d", resp.StatusCode, http.StatusInternalServerError)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	m := metrics.New()
	ts := newTestServer(t, config.Config{}, okPing, m)

	// One request so the latency histogram has a sample.
	resp, err := ts.Client().Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	_ = resp.Body.Close()

	resp, err = ts.Client().Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(resp.Body)

	if !strings.Contains(string(body), `aquadash_http_request_duration_seconds_count{method="GET",status="200"}`) {
		t.Errorf("request histogram missing from /metrics output")
	}
}

func TestMetricsDisabled(t *testing.T) {
	ts := newTestServer(t, config.Config{}, okPing, nil)

	resp, err := ts.Client().Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status=%d want=404", resp.StatusCode)
	}
}

func TestCORS(t *testing.T) {
	cfg := config.Config{CORSAllowedOrigins: []string{"https://tank.example"}}
	ts := newTestServer(t, cfg, okPing, nil)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Origin", "https://tank.example")
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "https://tank.example" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}
