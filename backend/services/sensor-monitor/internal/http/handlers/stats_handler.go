package handlers

import (
	"net/http"

	"sensormonitor/backend/services/sensor-monitor/internal/service"
)

// NewStatsHandler returns GET /stats handler.
func NewStatsHandler(svc *service.SensorService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeIndentedJSON(w, http.StatusOK, svc.Stats())
	}
}
