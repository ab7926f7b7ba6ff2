package relay

import (
	"context"
	"errors"
	"fmt"

	"sensormonitor/backend/services/sensor-monitor/internal/models"
)

const userAgent = "sensor-monitor-relay/1.0"

// ErrNoURL is returned when a relay is built without an upstream endpoint.
var ErrNoURL = errors.New("relay: upstream url is empty")

// Publisher forwards accepted readings to an upstream sensor endpoint using
// the same X-* metadata headers the service accepts.
type Publisher struct {
	client *Client
}

// NewPublisher wraps client as a reading publisher.
func NewPublisher(client *Client) (*Publisher, error) {
	if client == nil || client.URL() == "" {
		return nil, ErrNoURL
	}
	return &Publisher{client: client}, nil
}

// Name identifies the publisher in logs.
func (p *Publisher) Name() string {
	return "relay"
}

// Publish posts the raw reading payload upstream. Non-2xx responses are errors.
func (p *Publisher) Publish(ctx context.Context, event models.ReadingEvent) error {
	status, err := p.client.Post(ctx, event.Reading.Raw, headersFor(event.Reading.Metadata))
	if err != nil {
		return fmt.Errorf("relay: post %s: %w", p.client.URL(), err)
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("relay: %s returned status %d", p.client.URL(), status)
	}
	return nil
}

func headersFor(meta models.Metadata) map[string]string {
	headers := map[string]string{
		"User-Agent": userAgent,
	}
	set := func(key, value string) {
		if value != "" && value != models.UnknownValue && value != models.NoTopicValue {
			headers[key] = value
		}
	}
	set(models.HeaderSourceIP, meta.SourceIP)
	set(models.HeaderDestinationIP, meta.DestinationIP)
	set(models.HeaderDestinationPort, meta.DestinationPort)
	set(models.HeaderProtocol, meta.Protocol)
	set(models.HeaderTimestamp, meta.Timestamp)
	set(models.HeaderMQTTTopic, meta.MQTTTopic)
	return headers
}
