package controller

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"aquadash/internal/metrics"
	"aquadash/internal/modules/readings/views"
	"aquadash/internal/utils"
)

func (c *readingsControllerImpl) handleCreate(w http.ResponseWriter, r *http.Request) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	rec, fieldErrs, err := c.service.Ingest(r.Context(), body, metrics.SourceHTTP)
	if err != nil {
		return err
	}
	if fieldErrs != nil {
		utils.WriteValidationError(w, fieldErrs)
		return nil
	}
	utils.WriteResults(w, http.StatusOK, rec)
	return nil
}

func (c *readingsControllerImpl) handleList(w http.ResponseWriter, r *http.Request) error {
	readings, err := c.service.ListRecent(r.Context())
	if err != nil {
		return err
	}
	utils.WriteResults(w, http.StatusOK, readings)
	return nil
}

func (c *readingsControllerImpl) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	readings, err := c.service.ListRecent(r.Context())
	if err != nil {
		slog.Error("dashboard: list readings failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, utils.CodeServerError, "failed to load readings")
		return
	}

	var buf bytes.Buffer
	if err := views.RenderDashboard(&buf, views.NewDashboardData(readings, c.location)); err != nil {
		slog.Error("dashboard template render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, utils.CodeServerError, "failed to render page")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("dashboard: write response failed", "error", err)
	}
}
