package httpapi

import (
	"net/http"

	"aquadash/internal/metrics"
)

// NewMux registers the service-level routes. Feature modules add their own.
// m may be nil, in which case /metrics is not served.
func NewMux(ping PingFunc, m *metrics.Metrics) *http.ServeMux {
	mux := http.NewServeMux()
	registerHealthcheck(mux, ping)
	if m != nil {
		mux.Handle("GET /metrics", m.Handler())
	}
	return mux
}
