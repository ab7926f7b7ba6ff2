package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"sensormonitor/backend/services/sensor-monitor/internal/models"
)

const (
	defaultChannel   = "sensors:readings"
	defaultLatestKey = "sensors:latest"
)

// Commander is the subset of redis.Cmdable the publisher needs.
type Commander interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// Publisher pushes reading events to a pub/sub channel and caches the latest one.
type Publisher struct {
	client    Commander
	channel   string
	latestKey string
	ttl       time.Duration
}

// NewPublisher returns a redis-backed publisher. Empty names select the defaults;
// ttl <= 0 keeps the latest key without expiry.
func NewPublisher(client Commander, channel, latestKey string, ttl time.Duration) *Publisher {
	if channel == "" {
		channel = defaultChannel
	}
	if latestKey == "" {
		latestKey = defaultLatestKey
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Publisher{
		client:    client,
		channel:   channel,
		latestKey: latestKey,
		ttl:       ttl,
	}
}

// Name identifies the publisher in logs.
func (p *Publisher) Name() string {
	return "redis"
}

// Publish caches the event under the latest key and announces it on the channel.
func (p *Publisher) Publish(ctx context.Context, event models.ReadingEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("redis: encode event: %w", err)
	}
	if err := p.client.Set(ctx, p.latestKey, data, p.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set %s: %w", p.latestKey, err)
	}
	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("redis: publish %s: %w", p.channel, err)
	}
	return nil
}
