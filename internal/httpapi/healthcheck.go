package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"aquadash/internal/utils"
)

// PingFunc checks that the backing store is reachable.
type PingFunc func(ctx context.Context) error

type healthchecker interface {
	handleHealthz(w http.ResponseWriter, r *http.Request)
}

type healthcheckerImpl struct {
	ping PingFunc
}

func NewHealthchecker(ping PingFunc) healthchecker {
	return &healthcheckerImpl{ping: ping}
}

func (h *healthcheckerImpl) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := h.ping(r.Context()); err != nil {
		slog.Error("failed to check database connectivity", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, utils.CodeServerError, "failed to check database connectivity")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func registerHealthcheck(mux *http.ServeMux, ping PingFunc) {
	healthchecker := NewHealthchecker(ping)
	mux.HandleFunc("GET /healthz", healthchecker.handleHealthz)
}
