package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"aquadash/pkg/client"
)

func newLogsServer(t *testing.T, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			if hits != nil {
				hits.Add(1)
			}
			_, _ = w.Write([]byte(`{"results":[{"id":"a","temperature":25.25,"status":1,"createdAt":"2024-03-01T10:00:00Z"}]}`))
		case http.MethodPost:
			if strings.Contains(readAll(r), `"status":5`) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"code":"validation-error","message":"Invalid input data provided.","results":{"status":["Status must be either -1, 0, 1!"]}}`))
				return
			}
			_, _ = w.Write([]byte(`{"results":{"id":"new-id","temperature":24,"status":0}}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func readAll(r *http.Request) string {
	var b bytes.Buffer
	_, _ = b.ReadFrom(r.Body)
	return b.String()
}

func TestRun_List(t *testing.T) {
	srv := newLogsServer(t, nil)
	t.Setenv("AQUADASH_URL", srv.URL)

	var out bytes.Buffer
	if err := run(context.Background(), []string{"list"}, nil, &out); err != nil {
		t.Fatalf("run list: %v", err)
	}
	got := out.String()
	for _, want := range []string{"TEMPERATURE", "25.25°C", "HEATING"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestRun_Push(t *testing.T) {
	srv := newLogsServer(t, nil)
	t.Setenv("AQUADASH_URL", srv.URL)

	var out bytes.Buffer
	if err := run(context.Background(), []string{"push", "24", "0"}, nil, &out); err != nil {
		t.Fatalf("run push: %v", err)
	}
	if !strings.Contains(out.String(), "stored new-id") {
		t.Errorf("output = %q", out.String())
	}
}

func TestRun_PushValidationError(t *testing.T) {
	srv := newLogsServer(t, nil)
	t.Setenv("AQUADASH_URL", srv.URL)

	var out bytes.Buffer
	err := run(context.Background(), []string{"push", "24", "5"}, nil, &out)
	if !client.IsValidation(err) {
		t.Fatalf("err = %v, want validation error", err)
	}
	if !strings.Contains(out.String(), "status: Status must be either -1, 0, 1!") {
		t.Errorf("output = %q", out.String())
	}
}

func TestRun_BadArgs(t *testing.T) {
	tests := [][]string{
		nil,
		{"frobnicate"},
		{"push", "24"},
		{"push", "warm", "0"},
		{"push", "24", "on"},
	}
	for _, args := range tests {
		t.Setenv("AQUADASH_URL", "http://127.0.0.1:1")
		if err := run(context.Background(), args, nil, &bytes.Buffer{}); err == nil {
			t.Errorf("run(%q): expected error", args)
		}
	}
}

func TestRun_Migrate(t *testing.T) {
	t.Setenv("DATABASE_URL", "sqlite://"+filepath.Join(t.TempDir(), "cli.db"))

	var out bytes.Buffer
	if err := run(context.Background(), []string{"migrate"}, nil, &out); err != nil {
		t.Fatalf("run migrate: %v", err)
	}
	if !strings.Contains(out.String(), "migrations applied") {
		t.Errorf("output = %q", out.String())
	}
}

func TestRun_MigrateRejectsMongo(t *testing.T) {
	t.Setenv("DATABASE_URL", "mongodb://localhost:27017/aquarium")
	if err := run(context.Background(), []string{"migrate"}, nil, &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for mongo store")
	}
}

type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func TestWatch_FocusRefetches(t *testing.T) {
	var hits atomic.Int64
	srv := newLogsServer(t, &hits)
	c, err := client.New(srv.URL)
	if err != nil {
		t.Fatalf("client.New: %v", err)
	}

	stdinR, stdinW := io.Pipe()
	ctx, cancel := context.WithCancel(context.Background())
	out := &syncBuffer{}
	done := make(chan error, 1)
	go func() { done <- watch(ctx, c, stdinR, out, time.Hour) }()

	waitFor(t, func() bool { return hits.Load() == 1 })
	_, _ = stdinW.Write([]byte("\n"))
	waitFor(t, func() bool { return hits.Load() == 2 })

	cancel()
	_ = stdinW.Close()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("watch err = %v", err)
	}
	if strings.Count(out.String(), "HEATING") < 2 {
		t.Errorf("expected two printed tables:\n%s", out.String())
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestPrintLogs_Empty(t *testing.T) {
	var out bytes.Buffer
	if err := printLogs(&out, nil); err != nil {
		t.Fatalf("printLogs: %v", err)
	}
	if out.String() != "No data\n" {
		t.Errorf("output = %q", out.String())
	}
}
