package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sensormonitor/backend/services/sensor-monitor/internal/models"
)

type setCall struct {
	key   string
	value []byte
	ttl   time.Duration
}

type publishCall struct {
	channel string
	message []byte
}

type fakeCommander struct {
	sets       []setCall
	publishes  []publishCall
	setErr     error
	publishErr error
}

func (f *fakeCommander) Publish(_ context.Context, channel string, message interface{}) *redis.IntCmd {
	f.publishes = append(f.publishes, publishCall{channel: channel, message: message.([]byte)})
	return redis.NewIntResult(1, f.publishErr)
}

func (f *fakeCommander) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.sets = append(f.sets, setCall{key: key, value: value.([]byte), ttl: expiration})
	return redis.NewStatusResult("OK", f.setErr)
}

func sampleEvent() models.ReadingEvent {
	return models.ReadingEvent{
		Type: models.EventTypeReading,
		Reading: models.Reading{
			Raw:      json.RawMessage(`{"mac":"582D34000001"}`),
			Metadata: models.Metadata{SourceIP: "10.1.1.1"}.WithDefaults(),
		},
		Stats: models.Stats{TotalReceived: 2, HasData: true},
	}
}

func TestPublisherDefaults(t *testing.T) {
	fake := &fakeCommander{}
	pub := NewPublisher(fake, "", "", -time.Second)

	require.NoError(t, pub.Publish(context.Background(), sampleEvent()))

	require.Len(t, fake.sets, 1)
	assert.Equal(t, "sensors:latest", fake.sets[0].key)
	assert.Zero(t, fake.sets[0].ttl)

	require.Len(t, fake.publishes, 1)
	assert.Equal(t, "sensors:readings", fake.publishes[0].channel)
	assert.Equal(t, fake.sets[0].value, fake.publishes[0].message)

	var decoded models.ReadingEvent
	require.NoError(t, json.Unmarshal(fake.publishes[0].message, &decoded))
	assert.Equal(t, "10.1.1.1", decoded.Reading.Metadata.SourceIP)
	assert.EqualValues(t, 2, decoded.Stats.TotalReceived)
	assert.Equal(t, "redis", pub.Name())
}

func TestPublisherCustomNames(t *testing.T) {
	fake := &fakeCommander{}
	pub := NewPublisher(fake, "qp:events", "qp:last", time.Minute)

	require.NoError(t, pub.Publish(context.Background(), sampleEvent()))
	assert.Equal(t, "qp:last", fake.sets[0].key)
	assert.Equal(t, time.Minute, fake.sets[0].ttl)
	assert.Equal(t, "qp:events", fake.publishes[0].channel)
}

func TestPublisherSetFailureSkipsPublish(t *testing.T) {
	fake := &fakeCommander{setErr: errors.New("READONLY")}
	pub := NewPublisher(fake, "", "", 0)

	err := pub.Publish(context.Background(), sampleEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sensors:latest")
	assert.Empty(t, fake.publishes)
}

func TestPublisherPublishFailure(t *testing.T) {
	fake := &fakeCommander{publishErr: errors.New("connection reset")}
	pub := NewPublisher(fake, "", "", 0)

	err := pub.Publish(context.Background(), sampleEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sensors:readings")
}
