package service

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sensormonitor/backend/services/sensor-monitor/internal/models"
)

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

func TestReadingStoreEmptySnapshot(t *testing.T) {
	store := NewReadingStore()

	snap := store.Snapshot()
	assert.Nil(t, snap.Latest)
	assert.False(t, snap.Stats.HasData)
	assert.Nil(t, snap.Stats.LastUpdated)
	assert.Zero(t, snap.Stats.TotalReceived)
	assert.Zero(t, snap.Stats.ErrorCount)
}

func TestReadingStoreRecordReplacesLatest(t *testing.T) {
	store := NewReadingStore()
	first := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	store.now = fixedClock(first)

	reading, stats := store.Record(models.Reading{Data: map[string]interface{}{"mac": "A"}})
	assert.Equal(t, first, reading.ReceivedAt)
	assert.EqualValues(t, 1, stats.TotalReceived)
	require.NotNil(t, stats.LastUpdated)
	assert.Equal(t, first, *stats.LastUpdated)

	second := first.Add(time.Minute)
	store.now = fixedClock(second)
	store.Record(models.Reading{Data: map[string]interface{}{"mac": "B"}})

	snap := store.Snapshot()
	require.NotNil(t, snap.Latest)
	assert.Equal(t, "B", snap.Latest.MAC())
	assert.Equal(t, second, *snap.Stats.LastUpdated)
	assert.EqualValues(t, 2, snap.Stats.TotalReceived)
	assert.True(t, snap.Stats.HasData)
}

func TestReadingStoreRecordErrorOnlyTouchesErrorCount(t *testing.T) {
	store := NewReadingStore()
	store.Record(models.Reading{Data: map[string]interface{}{"mac": "A"}})
	before := store.Snapshot()

	stats := store.RecordError()
	assert.EqualValues(t, 1, stats.ErrorCount)

	after := store.Snapshot()
	assert.Same(t, before.Latest, after.Latest)
	assert.Equal(t, before.Stats.TotalReceived, after.Stats.TotalReceived)
	assert.Equal(t, before.Stats.LastUpdated, after.Stats.LastUpdated)
}

func TestReadingStoreConcurrentAccess(t *testing.T) {
	store := NewReadingStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			store.Record(models.Reading{})
		}()
		go func() {
			defer wg.Done()
			store.RecordError()
		}()
		go func() {
			defer wg.Done()
			_ = store.Snapshot()
		}()
	}
	wg.Wait()

	stats := store.Stats()
	assert.EqualValues(t, 50, stats.TotalReceived)
	assert.EqualValues(t, 50, stats.ErrorCount)
}
