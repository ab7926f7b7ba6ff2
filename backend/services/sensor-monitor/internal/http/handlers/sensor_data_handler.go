package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"sensormonitor/backend/services/sensor-monitor/internal/models"
	"sensormonitor/backend/services/sensor-monitor/internal/service"
)

// SensorDataHandler accepts forwarded sensor payloads.
type SensorDataHandler struct {
	service      *service.SensorService
	maxBodyBytes int64
	logger       *zap.Logger
}

type ingestResponse struct {
	Status     string `json:"status"`
	Message    string `json:"message"`
	ReceivedAt string `json:"received_at"`
}

// NewSensorDataHandler returns handler.
func NewSensorDataHandler(svc *service.SensorService, maxBodyBytes int64, logger *zap.Logger) *SensorDataHandler {
	return &SensorDataHandler{
		service:      svc,
		maxBodyBytes: maxBodyBytes,
		logger:       logger,
	}
}

// ServeHTTP handles POST / and POST /sensor-data.
func (h *SensorDataHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.service.Reject(service.ReasonTooLarge, err)
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		h.service.Reject(service.ReasonReadError, err)
		writeError(w, http.StatusInternalServerError, "Internal server error: failed to read request body")
		return
	}

	reading, err := h.service.Ingest(r.Context(), body, MetadataFromHeaders(r.Header))
	if err != nil {
		var jsonErr *service.InvalidJSONError
		switch {
		case errors.Is(err, service.ErrEmptyBody):
			writeError(w, http.StatusBadRequest, "Empty request body")
		case errors.As(err, &jsonErr):
			writeError(w, http.StatusBadRequest, "Invalid JSON: "+jsonErr.Err.Error())
		case errors.Is(err, service.ErrNotObject):
			writeError(w, http.StatusBadRequest, "JSON payload must be an object")
		default:
			h.logger.Error("failed to ingest sensor data", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, ingestResponse{
		Status:     "success",
		Message:    "Sensor data received",
		ReceivedAt: reading.ReceivedAt.Format(time.RFC3339Nano),
	})
}

// MetadataFromHeaders extracts forwarding metadata; blanks are filled later.
func MetadataFromHeaders(header http.Header) models.Metadata {
	get := func(key string) string {
		return strings.TrimSpace(header.Get(key))
	}
	return models.Metadata{
		SourceIP:        get(models.HeaderSourceIP),
		DestinationIP:   get(models.HeaderDestinationIP),
		DestinationPort: get(models.HeaderDestinationPort),
		Protocol:        get(models.HeaderProtocol),
		Timestamp:       get(models.HeaderTimestamp),
		MQTTTopic:       get(models.HeaderMQTTTopic),
	}
}
