package handlers

import (
	"bytes"
	"net/http"

	"go.uber.org/zap"

	"sensormonitor/backend/services/sensor-monitor/internal/dashboard"
	"sensormonitor/backend/services/sensor-monitor/internal/service"
)

// NewDashboardHandler returns GET / handler.
func NewDashboardHandler(svc *service.SensorService, renderer *dashboard.Renderer, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var page bytes.Buffer
		if err := renderer.Render(&page, svc.Snapshot()); err != nil {
			logger.Error("failed to render dashboard", zap.Error(err))
			http.Error(w, "failed to render dashboard", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(page.Bytes())
	}
}
