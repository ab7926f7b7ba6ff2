package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Header names carrying forwarding metadata from the capture exporter.
const (
	HeaderSourceIP        = "X-Source-IP"
	HeaderDestinationIP   = "X-Destination-IP"
	HeaderDestinationPort = "X-Destination-Port"
	HeaderProtocol        = "X-Protocol"
	HeaderTimestamp       = "X-Timestamp"
	HeaderMQTTTopic       = "X-MQTT-Topic"
)

// Placeholders stored for metadata the sender did not provide.
const (
	UnknownValue = "unknown"
	NoTopicValue = "N/A"
)

// Metadata describes where a reading was captured.
type Metadata struct {
	SourceIP        string `json:"source_ip"`
	DestinationIP   string `json:"destination_ip"`
	DestinationPort string `json:"destination_port"`
	Protocol        string `json:"protocol"`
	Timestamp       string `json:"timestamp"`
	MQTTTopic       string `json:"mqtt_topic"`
}

// WithDefaults fills blank fields with display placeholders.
func (m Metadata) WithDefaults() Metadata {
	m.SourceIP = orDefault(m.SourceIP, UnknownValue)
	m.DestinationIP = orDefault(m.DestinationIP, UnknownValue)
	m.DestinationPort = orDefault(m.DestinationPort, UnknownValue)
	m.Protocol = orDefault(m.Protocol, UnknownValue)
	m.Timestamp = orDefault(m.Timestamp, UnknownValue)
	m.MQTTTopic = orDefault(m.MQTTTopic, NoTopicValue)
	return m
}

// Reading is the most recent sensor payload accepted by the service.
type Reading struct {
	Raw        json.RawMessage        `json:"sensor_data"`
	Data       map[string]interface{} `json:"-"`
	Metadata   Metadata               `json:"metadata"`
	ReceivedAt time.Time              `json:"received_at"`
}

// MAC returns the device MAC reported in the payload, or "" when absent or null.
// Non-string values are rendered as written.
func (r *Reading) MAC() string {
	if r == nil {
		return ""
	}
	switch mac := r.Data["mac"].(type) {
	case nil:
		return ""
	case string:
		return mac
	case json.Number:
		return mac.String()
	case float64:
		return strconv.FormatFloat(mac, 'f', -1, 64)
	default:
		return fmt.Sprint(mac)
	}
}

// Stats summarises ingest outcomes.
type Stats struct {
	TotalReceived uint64     `json:"total_received"`
	ErrorCount    uint64     `json:"error_count"`
	LastUpdated   *time.Time `json:"last_updated"`
	HasData       bool       `json:"has_data"`
}

// Snapshot is a consistent view of the latest reading and counters.
type Snapshot struct {
	Latest *Reading
	Stats  Stats
}

// EventTypeReading tags ReadingEvent payloads.
const EventTypeReading = "reading"

// ReadingEvent is fanned out to live subscribers after each accepted reading.
type ReadingEvent struct {
	Type    string  `json:"type"`
	Reading Reading `json:"reading"`
	Stats   Stats   `json:"stats"`
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
