package httpapi

import (
	"net/http"
	"time"

	"aquadash/internal/config"
	"aquadash/internal/metrics"
)

func NewServer(cfg config.Config, mux *http.ServeMux, m *metrics.Metrics) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           requestLogger(m, cors(cfg.CORSAllowedOrigins, mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}
}
