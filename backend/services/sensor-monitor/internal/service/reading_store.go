package service

import (
	"sync"
	"time"

	"sensormonitor/backend/services/sensor-monitor/internal/models"
)

// ReadingStore keeps the single most recent reading plus ingest counters in memory.
// Recorded readings are never mutated afterwards, so snapshots share them.
type ReadingStore struct {
	mu            sync.RWMutex
	latest        *models.Reading
	lastUpdated   time.Time
	totalReceived uint64
	errorCount    uint64
	now           func() time.Time
}

// NewReadingStore returns an empty store.
func NewReadingStore() *ReadingStore {
	return &ReadingStore{now: time.Now}
}

// Record replaces the latest reading wholesale and bumps the received counter.
func (s *ReadingStore) Record(reading models.Reading) (models.Reading, models.Stats) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reading.ReceivedAt = s.now()
	s.latest = &reading
	s.lastUpdated = reading.ReceivedAt
	s.totalReceived++
	return reading, s.statsLocked()
}

// RecordError bumps the error counter only.
func (s *ReadingStore) RecordError() models.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errorCount++
	return s.statsLocked()
}

// Snapshot returns the latest reading and counters as of a single point in time.
func (s *ReadingStore) Snapshot() models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.Snapshot{
		Latest: s.latest,
		Stats:  s.statsLocked(),
	}
}

// Stats returns counters only.
func (s *ReadingStore) Stats() models.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.statsLocked()
}

func (s *ReadingStore) statsLocked() models.Stats {
	stats := models.Stats{
		TotalReceived: s.totalReceived,
		ErrorCount:    s.errorCount,
		HasData:       s.latest != nil,
	}
	if !s.lastUpdated.IsZero() {
		updated := s.lastUpdated
		stats.LastUpdated = &updated
	}
	return stats
}
