package controller

import (
	"context"
	"net/http"
	"time"

	"aquadash/internal/httpapi"
	"aquadash/internal/modules/readings/types"
	"aquadash/internal/modules/readings/validator"
)

// ReadingService is the subset of service.Service the HTTP layer needs.
type ReadingService interface {
	Ingest(ctx context.Context, payload []byte, source string) (types.Reading, validator.FieldErrors, error)
	ListRecent(ctx context.Context) ([]types.Reading, error)
}

type ReadingsController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type readingsControllerImpl struct {
	service  ReadingService
	location *time.Location
}

// NewReadingsController serves the logs API and dashboard. Dashboard times
// are rendered in loc (UTC when nil).
func NewReadingsController(service ReadingService, loc *time.Location) ReadingsController {
	return &readingsControllerImpl{service: service, location: loc}
}

func (c *readingsControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /", c.handleDashboard)
	mux.Handle("/api/logs", httpapi.Dispatch(httpapi.Methods{
		http.MethodGet:  c.handleList,
		http.MethodPost: c.handleCreate,
	}))
}
