package app

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	libredis "sensormonitor/backend/libs/redis"
	"sensormonitor/backend/services/sensor-monitor/internal/config"
	"sensormonitor/backend/services/sensor-monitor/internal/dashboard"
	httpserver "sensormonitor/backend/services/sensor-monitor/internal/http"
	"sensormonitor/backend/services/sensor-monitor/internal/http/handlers"
	"sensormonitor/backend/services/sensor-monitor/internal/metrics"
	mqttingest "sensormonitor/backend/services/sensor-monitor/internal/mqtt"
	redisstore "sensormonitor/backend/services/sensor-monitor/internal/redis"
	"sensormonitor/backend/services/sensor-monitor/internal/relay"
	"sensormonitor/backend/services/sensor-monitor/internal/service"
	"sensormonitor/backend/services/sensor-monitor/internal/ws"
)

// App wires sensor monitor dependencies.
type App struct {
	cfg         *config.Config
	server      *httpserver.Server
	service     *service.SensorService
	hub         *ws.Hub
	subscriber  *mqttingest.Subscriber
	redisClient *redis.Client
	relayURL    string
	logger      *zap.Logger
}

// New constructs the application graph. Optional integrations are connected here.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: logger}

	m := metrics.New()
	hub := ws.NewHub(logger)
	a.hub = hub
	if err := m.RegisterGaugeFunc("live_clients", "Connected live dashboard clients", func() float64 {
		return float64(hub.Count())
	}); err != nil {
		return nil, err
	}

	publishers := []service.Publisher{hub}
	if cfg.RedisEnabled() {
		client, err := libredis.NewRedisClient(ctx, libredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("app: connect redis: %w", err)
		}
		a.redisClient = client
		publishers = append(publishers, redisstore.NewPublisher(client, cfg.Redis.Channel, cfg.Redis.LatestKey, cfg.RedisTTL()))
	}

	if cfg.RelayEnabled() {
		client := relay.NewClient(cfg.Relay.URL, relay.NewDefaultHTTPClient(cfg.RelayTimeout()))
		pub, err := relay.NewPublisher(client)
		if err != nil {
			a.Close()
			return nil, err
		}
		publishers = append(publishers, pub)
		a.relayURL = client.URL()
	}

	a.service = service.NewSensorService(service.NewReadingStore(), logger,
		service.WithPublishers(publishers...),
		service.WithRecorder(m),
		service.WithPublishTimeout(cfg.PublishTimeout()),
	)

	if cfg.MQTTEnabled() {
		sub, err := mqttingest.NewSubscriber(mqttingest.Options{
			BrokerURL: cfg.MQTT.BrokerURL,
			ClientID:  cfg.MQTT.ClientID,
			Topic:     cfg.MQTT.Topic,
			QoS:       byte(cfg.MQTT.QoS),
		}, a.service, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.subscriber = sub
	}

	renderer, err := dashboard.NewRenderer(cfg.Dashboard.RefreshSeconds)
	if err != nil {
		a.Close()
		return nil, err
	}

	routes := httpserver.Routes{
		Dashboard:   handlers.NewDashboardHandler(a.service, renderer, logger),
		Stats:       handlers.NewStatsHandler(a.service),
		SensorData:  handlers.NewSensorDataHandler(a.service, cfg.HTTP.MaxBodyBytes, logger).ServeHTTP,
		Health:      handlers.NewHealthHandler(time.Now()),
		Metrics:     m.Handler().ServeHTTP,
		LiveUpdates: ws.NewHandler(hub, cfg.WriteTimeout(), cfg.PingInterval(), logger).ServeHTTP,
	}

	router := httpserver.NewRouter(routes, logger, m)
	a.server = httpserver.NewServer(cfg.HTTPAddress(), router, logger)
	return a, nil
}

// Service exposes the ingest service.
func (a *App) Service() *service.SensorService {
	return a.service
}

// Run starts the optional MQTT subscriber and serves HTTP until ctx is done.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.server.Addr())
	if err != nil {
		return err
	}
	return a.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	if a.subscriber != nil {
		if err := a.subscriber.Start(ctx); err != nil {
			_ = ln.Close()
			return err
		}
	}
	a.logBanner(ln.Addr())
	return a.server.Serve(ctx, ln)
}

// Close releases resources.
func (a *App) Close() {
	if a.subscriber != nil {
		a.subscriber.Close()
	}
	if a.hub != nil {
		a.hub.Close()
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}

func (a *App) logBanner(addr net.Addr) {
	port := a.cfg.HTTP.Port
	if tcp, ok := addr.(*net.TCPAddr); ok {
		port = fmt.Sprint(tcp.Port)
	}
	a.logger.Info("sensor monitor listening",
		zap.String("listen", addr.String()),
		zap.String("dashboard", fmt.Sprintf("http://localhost:%s/", port)),
		zap.String("stats", fmt.Sprintf("http://localhost:%s/stats", port)),
		zap.Bool("redis_fanout", a.redisClient != nil),
		zap.Bool("mqtt_ingest", a.subscriber != nil),
		zap.String("relay_url", a.relayURL),
	)
	a.logger.Info("waiting for sensor data")
}
