package relay

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sensormonitor/backend/services/sensor-monitor/internal/models"
)

func sampleEvent() models.ReadingEvent {
	return models.ReadingEvent{
		Type: models.EventTypeReading,
		Reading: models.Reading{
			Raw: json.RawMessage(`{"mac":"582D34000001"}`),
			Metadata: models.Metadata{
				SourceIP:  "10.1.1.1",
				Protocol:  "mqtt",
				MQTTTopic: "qingping/582D34000001/up",
			}.WithDefaults(),
		},
	}
}

func TestPublisherForwardsPayloadAndHeaders(t *testing.T) {
	var (
		gotBody    []byte
		gotHeaders http.Header
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		gotBody, _ = io.ReadAll(r.Body)
		gotHeaders = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	pub, err := NewPublisher(NewClient(srv.URL, srv.Client()))
	require.NoError(t, err)
	assert.Equal(t, "relay", pub.Name())

	require.NoError(t, pub.Publish(context.Background(), sampleEvent()))

	assert.JSONEq(t, `{"mac":"582D34000001"}`, string(gotBody))
	assert.Equal(t, "application/json", gotHeaders.Get("Content-Type"))
	assert.Equal(t, userAgent, gotHeaders.Get("User-Agent"))
	assert.Equal(t, "10.1.1.1", gotHeaders.Get(models.HeaderSourceIP))
	assert.Equal(t, "mqtt", gotHeaders.Get(models.HeaderProtocol))
	assert.Equal(t, "qingping/582D34000001/up", gotHeaders.Get(models.HeaderMQTTTopic))
	assert.Empty(t, gotHeaders.Get(models.HeaderDestinationIP))
}

func TestPublisherNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	pub, err := NewPublisher(NewClient(srv.URL, srv.Client()))
	require.NoError(t, err)

	err = pub.Publish(context.Background(), sampleEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestPublisherTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	pub, err := NewPublisher(NewClient(url, nil))
	require.NoError(t, err)
	assert.Error(t, pub.Publish(context.Background(), sampleEvent()))
}

func TestNewPublisherRequiresURL(t *testing.T) {
	_, err := NewPublisher(NewClient("  ", nil))
	assert.ErrorIs(t, err, ErrNoURL)

	_, err = NewPublisher(nil)
	assert.ErrorIs(t, err, ErrNoURL)
}
