package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sensormonitor/backend/services/sensor-monitor/internal/dashboard"
	"sensormonitor/backend/services/sensor-monitor/internal/service"
)

const qingpingPayload = `{"mac":"582D34000001","sensorData":[{"temperature":{"value":22.1},"co2":{"value":1500}}]}`

func newService() *service.SensorService {
	return service.NewSensorService(service.NewReadingStore(), zap.NewNop())
}

func postSensorData(t *testing.T, h http.Handler, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/sensor-data", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestSensorDataHandlerAccepts(t *testing.T) {
	svc := newService()
	h := NewSensorDataHandler(svc, 1<<20, zap.NewNop())

	rec := postSensorData(t, h, qingpingPayload, map[string]string{
		"X-Source-IP":        "192.168.1.77",
		"X-Destination-IP":   "10.0.0.1",
		"X-Destination-Port": "1883",
		"X-Protocol":         "TCP",
		"X-Timestamp":        "1700000000000000000",
		"X-MQTT-Topic":       "/qingping/582D34000001/up",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	body := decodeBody(t, rec)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "Sensor data received", body["message"])
	_, err := time.Parse(time.RFC3339Nano, body["received_at"].(string))
	require.NoError(t, err)

	snap := svc.Snapshot()
	require.NotNil(t, snap.Latest)
	assert.EqualValues(t, 1, snap.Stats.TotalReceived)
	meta := snap.Latest.Metadata
	assert.Equal(t, "192.168.1.77", meta.SourceIP)
	assert.Equal(t, "10.0.0.1", meta.DestinationIP)
	assert.Equal(t, "1883", meta.DestinationPort)
	assert.Equal(t, "TCP", meta.Protocol)
	assert.Equal(t, "1700000000000000000", meta.Timestamp)
	assert.Equal(t, "/qingping/582D34000001/up", meta.MQTTTopic)
}

func TestSensorDataHandlerRejects(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		status  int
		message string
	}{
		{name: "empty", body: "", status: http.StatusBadRequest, message: "Empty request body"},
		{name: "malformed", body: `{"mac":`, status: http.StatusBadRequest, message: "Invalid JSON: "},
		{name: "array", body: `["a"]`, status: http.StatusBadRequest, message: "JSON payload must be an object"},
		{name: "too large", body: `{"pad":"` + strings.Repeat("x", 64) + `"}`, status: http.StatusRequestEntityTooLarge, message: "Request body too large"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newService()
			h := NewSensorDataHandler(svc, 32, zap.NewNop())

			rec := postSensorData(t, h, tc.body, nil)

			assert.Equal(t, tc.status, rec.Code)
			errMsg, _ := decodeBody(t, rec)["error"].(string)
			assert.True(t, strings.HasPrefix(errMsg, tc.message), errMsg)

			stats := svc.Stats()
			assert.Zero(t, stats.TotalReceived)
			assert.EqualValues(t, 1, stats.ErrorCount)
			assert.False(t, stats.HasData)
		})
	}
}

func TestMetadataFromHeadersTrims(t *testing.T) {
	header := http.Header{}
	header.Set("X-Source-IP", "  10.0.0.9 ")

	meta := MetadataFromHeaders(header)
	assert.Equal(t, "10.0.0.9", meta.SourceIP)
	assert.Empty(t, meta.MQTTTopic)
}

func TestStatsHandlerReflectsOutcomes(t *testing.T) {
	svc := newService()
	ingest := NewSensorDataHandler(svc, 1<<20, zap.NewNop())
	stats := NewStatsHandler(svc)

	rec := httptest.NewRecorder()
	stats(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "\n  \"total_received\": 0")
	empty := decodeBody(t, rec)
	assert.Equal(t, false, empty["has_data"])
	assert.Nil(t, empty["last_updated"])

	postSensorData(t, ingest, qingpingPayload, nil)
	postSensorData(t, ingest, "{broken", nil)
	postSensorData(t, ingest, qingpingPayload, nil)

	rec = httptest.NewRecorder()
	stats(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
	body := decodeBody(t, rec)
	assert.EqualValues(t, 2, body["total_received"])
	assert.EqualValues(t, 1, body["error_count"])
	assert.Equal(t, true, body["has_data"])
	_, err := time.Parse(time.RFC3339Nano, body["last_updated"].(string))
	assert.NoError(t, err)
}

func TestDashboardHandler(t *testing.T) {
	svc := newService()
	renderer, err := dashboard.NewRenderer(5)
	require.NoError(t, err)
	h := NewDashboardHandler(svc, renderer, zap.NewNop())

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "Waiting for sensor data...")

	postSensorData(t, NewSensorDataHandler(svc, 1<<20, zap.NewNop()), qingpingPayload, map[string]string{"X-Source-IP": "172.16.0.4"})

	rec = httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	page := rec.Body.String()
	assert.Contains(t, page, "Receiving data")
	assert.Contains(t, page, "172.16.0.4")
	assert.Contains(t, page, "582D34000001")
	assert.Contains(t, page, `sensor-card warning`)
}

func TestHealthHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandler(time.Now().Add(-90*time.Second))(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "1m30s", body["uptime"])
}
