package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	libconfig "sensormonitor/backend/libs/config"
)

const (
	defaultHost         = "0.0.0.0"
	defaultPort         = "8080"
	defaultMaxBodyBytes = 1 << 20
	defaultRefresh      = 5

	defaultPingInterval   = 30 * time.Second
	defaultWriteTimeout   = 10 * time.Second
	defaultRelayTimeout   = 5 * time.Second
	defaultPublishTimeout = 2 * time.Second
)

// Config defines sensor monitor configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Logging   LoggingConfig   `yaml:"logging"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Redis     RedisConfig     `yaml:"redis"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Relay     RelayConfig     `yaml:"relay"`
	Publish   PublishConfig   `yaml:"publish"`
}

// HTTPConfig controls the listener.
type HTTPConfig struct {
	Host         string `yaml:"host" env:"SENSOR_HTTP_HOST"`
	Port         string `yaml:"port" env:"SENSOR_HTTP_PORT"`
	MaxBodyBytes int64  `yaml:"maxBodyBytes" env:"SENSOR_HTTP_MAX_BODY_BYTES"`
}

// DashboardConfig controls the HTML page.
type DashboardConfig struct {
	RefreshSeconds int `yaml:"refreshSeconds" env:"SENSOR_DASHBOARD_REFRESH"`
}

// LoggingConfig selects log level and encoding.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

// WebSocketConfig tunes live-update connections.
type WebSocketConfig struct {
	PingInterval time.Duration `yaml:"pingInterval" env:"SENSOR_WS_PING_INTERVAL"`
	WriteTimeout time.Duration `yaml:"writeTimeout" env:"SENSOR_WS_WRITE_TIMEOUT"`
}

// RedisConfig enables fan-out of readings when Addr is set.
type RedisConfig struct {
	Addr      string        `yaml:"addr" env:"SENSOR_REDIS_ADDR"`
	Password  string        `yaml:"password" env:"SENSOR_REDIS_PASSWORD"`
	DB        int           `yaml:"db" env:"SENSOR_REDIS_DB"`
	Channel   string        `yaml:"channel" env:"SENSOR_REDIS_CHANNEL"`
	LatestKey string        `yaml:"latestKey" env:"SENSOR_REDIS_LATEST_KEY"`
	TTL       time.Duration `yaml:"ttl" env:"SENSOR_REDIS_TTL"`
}

// MQTTConfig enables broker ingestion when BrokerURL is set.
type MQTTConfig struct {
	BrokerURL string `yaml:"brokerUrl" env:"SENSOR_MQTT_BROKER_URL"`
	ClientID  string `yaml:"clientId" env:"SENSOR_MQTT_CLIENT_ID"`
	Topic     string `yaml:"topic" env:"SENSOR_MQTT_TOPIC"`
	QoS       int    `yaml:"qos" env:"SENSOR_MQTT_QOS"`
}

// RelayConfig forwards accepted readings upstream when URL is set.
type RelayConfig struct {
	URL     string        `yaml:"url" env:"SENSOR_RELAY_URL"`
	Timeout time.Duration `yaml:"timeout" env:"SENSOR_RELAY_TIMEOUT"`
}

// PublishConfig bounds each fan-out call made while handling a reading.
type PublishConfig struct {
	Timeout time.Duration `yaml:"timeout" env:"SENSOR_PUBLISH_TIMEOUT"`
}

// Load reads configuration via shared helper.
func Load() (*Config, error) {
	cfg := Default()
	if err := libconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns configuration with built-in defaults.
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Host:         defaultHost,
			Port:         defaultPort,
			MaxBodyBytes: defaultMaxBodyBytes,
		},
		Dashboard: DashboardConfig{
			RefreshSeconds: defaultRefresh,
		},
		WebSocket: WebSocketConfig{
			PingInterval: defaultPingInterval,
			WriteTimeout: defaultWriteTimeout,
		},
		MQTT: MQTTConfig{
			Topic: "qingping/#",
		},
		Relay: RelayConfig{
			Timeout: defaultRelayTimeout,
		},
		Publish: PublishConfig{
			Timeout: defaultPublishTimeout,
		},
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.HTTP.MaxBodyBytes <= 0 {
		return errors.New("config: http maxBodyBytes must be positive")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		return fmt.Errorf("config: mqtt qos must be 0, 1 or 2, got %d", c.MQTT.QoS)
	}
	if c.MQTTEnabled() && strings.TrimSpace(c.MQTT.Topic) == "" {
		return errors.New("config: mqtt topic required when broker url is set")
	}
	return nil
}

// HTTPAddress returns host:port.
func (c *Config) HTTPAddress() string {
	port := strings.TrimPrefix(strings.TrimSpace(c.HTTP.Port), ":")
	if port == "" {
		port = defaultPort
	}
	return net.JoinHostPort(strings.TrimSpace(c.HTTP.Host), port)
}

// PingInterval returns websocket ping interval.
func (c *Config) PingInterval() time.Duration {
	if c.WebSocket.PingInterval <= 0 {
		return defaultPingInterval
	}
	return c.WebSocket.PingInterval
}

// WriteTimeout returns websocket write timeout.
func (c *Config) WriteTimeout() time.Duration {
	if c.WebSocket.WriteTimeout <= 0 {
		return defaultWriteTimeout
	}
	return c.WebSocket.WriteTimeout
}

// RedisEnabled reports whether readings are fanned out to redis.
func (c *Config) RedisEnabled() bool {
	return strings.TrimSpace(c.Redis.Addr) != ""
}

// RedisTTL returns expiry for the latest-reading key; zero means none.
func (c *Config) RedisTTL() time.Duration {
	if c.Redis.TTL <= 0 {
		return 0
	}
	return c.Redis.TTL
}

// MQTTEnabled reports whether the broker subscriber runs.
func (c *Config) MQTTEnabled() bool {
	return strings.TrimSpace(c.MQTT.BrokerURL) != ""
}

// RelayEnabled reports whether readings are forwarded upstream.
func (c *Config) RelayEnabled() bool {
	return strings.TrimSpace(c.Relay.URL) != ""
}

// RelayTimeout returns the upstream request timeout.
func (c *Config) RelayTimeout() time.Duration {
	if c.Relay.Timeout <= 0 {
		return defaultRelayTimeout
	}
	return c.Relay.Timeout
}

// PublishTimeout returns the per-publisher deadline. It never undercuts the
// relay request timeout when the relay is enabled.
func (c *Config) PublishTimeout() time.Duration {
	timeout := c.Publish.Timeout
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}
	if c.RelayEnabled() && c.RelayTimeout() > timeout {
		timeout = c.RelayTimeout()
	}
	return timeout
}
