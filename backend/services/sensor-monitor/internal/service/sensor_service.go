package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"sensormonitor/backend/services/sensor-monitor/internal/models"
)

// Failure reasons reported to the Recorder.
const (
	ReasonEmptyBody   = "empty_body"
	ReasonInvalidJSON = "invalid_json"
	ReasonNotObject   = "not_object"
	ReasonTooLarge    = "too_large"
	ReasonReadError   = "read_error"
)

const defaultPublishTimeout = 2 * time.Second

var (
	// ErrEmptyBody is returned for a request without payload.
	ErrEmptyBody = errors.New("empty request body")
	// ErrInvalidJSON matches any *InvalidJSONError.
	ErrInvalidJSON = errors.New("invalid json")
	// ErrNotObject is returned when the payload is valid JSON but not an object.
	ErrNotObject = errors.New("json payload must be an object")
)

// InvalidJSONError carries the decoder error for a malformed payload.
type InvalidJSONError struct {
	Err error
}

func (e *InvalidJSONError) Error() string { return "invalid json: " + e.Err.Error() }

func (e *InvalidJSONError) Unwrap() error { return e.Err }

// Is reports ErrInvalidJSON as a match.
func (e *InvalidJSONError) Is(target error) bool { return target == ErrInvalidJSON }

// Publisher receives every accepted reading.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, event models.ReadingEvent) error
}

// Recorder observes ingest outcomes.
type Recorder interface {
	ReadingAccepted(at time.Time)
	IngestFailed(reason string)
}

// SensorService validates payloads and maintains the latest reading.
type SensorService struct {
	store          *ReadingStore
	publishers     []Publisher
	recorder       Recorder
	publishTimeout time.Duration
	logger         *zap.Logger
}

// Option customises SensorService.
type Option func(*SensorService)

// WithPublishers adds fan-out targets.
func WithPublishers(publishers ...Publisher) Option {
	return func(s *SensorService) {
		for _, p := range publishers {
			if p != nil {
				s.publishers = append(s.publishers, p)
			}
		}
	}
}

// WithRecorder sets the outcome recorder.
func WithRecorder(recorder Recorder) Option {
	return func(s *SensorService) {
		s.recorder = recorder
	}
}

// WithPublishTimeout bounds each publisher call.
func WithPublishTimeout(timeout time.Duration) Option {
	return func(s *SensorService) {
		if timeout > 0 {
			s.publishTimeout = timeout
		}
	}
}

// NewSensorService returns service instance.
func NewSensorService(store *ReadingStore, logger *zap.Logger, opts ...Option) *SensorService {
	s := &SensorService{
		store:          store,
		recorder:       nopRecorder{},
		publishTimeout: defaultPublishTimeout,
		logger:         logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest parses body as a JSON object and stores it as the latest reading.
// On failure the error counter is bumped and the stored reading is left untouched.
func (s *SensorService) Ingest(ctx context.Context, body []byte, meta models.Metadata) (models.Reading, error) {
	if len(body) == 0 {
		s.Reject(ReasonEmptyBody, ErrEmptyBody)
		return models.Reading{}, ErrEmptyBody
	}

	decoded, err := decodePayload(body)
	if err != nil {
		jsonErr := &InvalidJSONError{Err: err}
		s.Reject(ReasonInvalidJSON, jsonErr)
		return models.Reading{}, jsonErr
	}
	data, ok := decoded.(map[string]interface{})
	if !ok {
		s.Reject(ReasonNotObject, ErrNotObject)
		return models.Reading{}, ErrNotObject
	}

	var raw bytes.Buffer
	if err := json.Compact(&raw, body); err != nil {
		jsonErr := &InvalidJSONError{Err: err}
		s.Reject(ReasonInvalidJSON, jsonErr)
		return models.Reading{}, jsonErr
	}

	reading, stats := s.store.Record(models.Reading{
		Raw:      json.RawMessage(raw.Bytes()),
		Data:     data,
		Metadata: meta.WithDefaults(),
	})
	s.recorder.ReadingAccepted(reading.ReceivedAt)

	mac := reading.MAC()
	if mac == "" {
		mac = "unknown"
	}
	s.logger.Info("received sensor data",
		zap.String("mac", mac),
		zap.String("source_ip", reading.Metadata.SourceIP),
		zap.String("protocol", reading.Metadata.Protocol),
		zap.Uint64("total_received", stats.TotalReceived),
	)

	s.publish(ctx, models.ReadingEvent{
		Type:    models.EventTypeReading,
		Reading: reading,
		Stats:   stats,
	})
	return reading, nil
}

// Reject counts a failed ingest attempt.
func (s *SensorService) Reject(reason string, err error) {
	stats := s.store.RecordError()
	s.recorder.IngestFailed(reason)
	s.logger.Warn("rejected sensor payload",
		zap.String("reason", reason),
		zap.Uint64("error_count", stats.ErrorCount),
		zap.Error(err),
	)
}

// Snapshot returns the latest reading and counters.
func (s *SensorService) Snapshot() models.Snapshot {
	return s.store.Snapshot()
}

// Stats returns counters only.
func (s *SensorService) Stats() models.Stats {
	return s.store.Stats()
}

func (s *SensorService) publish(ctx context.Context, event models.ReadingEvent) {
	for _, p := range s.publishers {
		pubCtx, cancel := context.WithTimeout(ctx, s.publishTimeout)
		err := p.Publish(pubCtx, event)
		cancel()
		if err != nil {
			s.logger.Warn("failed to publish reading",
				zap.String("publisher", p.Name()),
				zap.Error(err),
			)
		}
	}
}

// decodePayload parses a single JSON document. Numbers stay json.Number so
// the dashboard can show them as the sender wrote them.
func decodePayload(body []byte) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	if tok, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err == nil {
			err = fmt.Errorf("unexpected trailing data %v", tok)
		}
		return nil, err
	}
	return v, nil
}

type nopRecorder struct{}

func (nopRecorder) ReadingAccepted(time.Time) {}

func (nopRecorder) IngestFailed(string) {}
