package mqttingest

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"sensormonitor/backend/services/sensor-monitor/internal/models"
)

const (
	protocolName      = "mqtt"
	connectTimeout    = 10 * time.Second
	disconnectQuiesce = 250
)

// Ingester accepts raw payloads.
type Ingester interface {
	Ingest(ctx context.Context, body []byte, meta models.Metadata) (models.Reading, error)
}

// Options configures the broker connection.
type Options struct {
	BrokerURL string
	ClientID  string
	Topic     string
	QoS       byte
}

// Subscriber feeds MQTT publishes into the ingester.
type Subscriber struct {
	client   mqtt.Client
	opts     Options
	ingester Ingester
	logger   *zap.Logger
	now      func() time.Time

	mu  sync.RWMutex
	ctx context.Context
}

// NewSubscriber prepares a client without connecting.
func NewSubscriber(opts Options, ingester Ingester, logger *zap.Logger) (*Subscriber, error) {
	if strings.TrimSpace(opts.BrokerURL) == "" {
		return nil, errors.New("mqtt: broker url is empty")
	}
	if strings.TrimSpace(opts.Topic) == "" {
		return nil, errors.New("mqtt: topic is empty")
	}
	if opts.QoS > 2 {
		return nil, fmt.Errorf("mqtt: invalid qos %d", opts.QoS)
	}
	if opts.ClientID == "" {
		opts.ClientID = fmt.Sprintf("sensor-monitor-%d", time.Now().UnixNano())
	}

	s := &Subscriber{
		opts:     opts,
		ingester: ingester,
		logger:   logger,
		now:      time.Now,
		ctx:      context.Background(),
	}

	o := mqtt.NewClientOptions()
	o.AddBroker(opts.BrokerURL)
	o.SetClientID(opts.ClientID)
	o.SetAutoReconnect(true)
	o.SetConnectRetry(true)
	o.SetConnectRetryInterval(2 * time.Second)
	o.SetOnConnectHandler(s.onConnect)
	o.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("mqtt connection lost", zap.Error(err))
	})
	s.client = mqtt.NewClient(o)
	return s, nil
}

// Start connects to the broker; subscription happens on every (re)connect.
func (s *Subscriber) Start(ctx context.Context) error {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	token := s.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		s.logger.Warn("mqtt broker not reachable yet, retrying in background", zap.String("broker", s.opts.BrokerURL))
		return nil
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt: connect: %w", err)
	}
	return nil
}

// Close disconnects from the broker.
func (s *Subscriber) Close() {
	s.client.Disconnect(disconnectQuiesce)
}

func (s *Subscriber) onConnect(c mqtt.Client) {
	token := c.Subscribe(s.opts.Topic, s.opts.QoS, s.handleMessage)
	token.Wait()
	if err := token.Error(); err != nil {
		s.logger.Error("mqtt subscribe failed", zap.String("topic", s.opts.Topic), zap.Error(err))
		return
	}
	s.logger.Info("mqtt subscribed",
		zap.String("broker", s.opts.BrokerURL),
		zap.String("topic", s.opts.Topic),
		zap.Uint8("qos", s.opts.QoS),
	)
}

func (s *Subscriber) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	meta := models.Metadata{
		Protocol:  protocolName,
		Timestamp: strconv.FormatInt(s.now().UnixNano(), 10),
		MQTTTopic: msg.Topic(),
	}
	if _, err := s.ingester.Ingest(s.context(), msg.Payload(), meta); err != nil {
		s.logger.Debug("mqtt payload rejected", zap.String("topic", msg.Topic()), zap.Error(err))
	}
}

func (s *Subscriber) context() context.Context {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ctx
}
