package readings

import (
	"log/slog"
	"net/http"
	"time"

	"aquadash/internal/modules/readings/controller"
	"aquadash/internal/modules/readings/service"
	"aquadash/internal/mqtt"
)

// RegisterFeature wires the readings API and dashboard into mux and, when
// subscriber is non-nil, MQTT ingestion.
func RegisterFeature(mux *http.ServeMux, readingsService *service.Service, subscriber mqtt.MQTTSubscriber, loc *time.Location, logger *slog.Logger) {
	readingsController := controller.NewReadingsController(readingsService, loc)
	readingsController.RegisterRoutes(mux)
	if subscriber != nil {
		readingsService.RegisterMQTT(subscriber, logger)
	}
}
