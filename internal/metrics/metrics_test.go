package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	m := New()
	m.ReadingIngested(SourceHTTP)
	m.ReadingIngested(SourceHTTP)
	m.ReadingIngested(SourceMQTT)
	m.ValidationFailed(SourceMQTT)

	if got := testutil.ToFloat64(m.readingsIngested.WithLabelValues(SourceHTTP)); got != 2 {
		t.Errorf("ingested{http} = %v; want 2", got)
	}
	if got := testutil.ToFloat64(m.readingsIngested.WithLabelValues(SourceMQTT)); got != 1 {
		t.Errorf("ingested{mqtt} = %v; want 1", got)
	}
	if got := testutil.ToFloat64(m.validationFailures.WithLabelValues(SourceMQTT)); got != 1 {
		t.Errorf("validation_failures{mqtt} = %v; want 1", got)
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.ObserveRequest(http.MethodGet, http.StatusOK, 15*time.Millisecond)
	m.ReadingIngested(SourceHTTP)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body, _ := io.ReadAll(w.Body)
	for _, want := range []string{
		`aquadash_readings_ingested_total{source="http"} 1`,
		`aquadash_http_request_duration_seconds_count{method="GET",status="200"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ReadingIngested(SourceHTTP)
	m.ValidationFailed(SourceHTTP)
	m.ObserveRequest(http.MethodGet, http.StatusOK, time.Second)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Code = %d; want 404", w.Code)
	}
}
