package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySnapshot(t *testing.T) {
	m := NewMemory()

	m.ObserveRequest("GET", "/api/reservations", 200, 10*time.Millisecond)
	m.ObserveRequest("GET", "/api/reservations", 200, 30*time.Millisecond)
	m.ObserveRequest("POST", "/api/reservations", 500, 5*time.Millisecond)
	m.Inc("reservation.created")
	m.Inc("reservation.created")

	snap := m.Snapshot()

	assert.Equal(t, int64(3), snap.TotalRequests)
	assert.Equal(t, int64(1), snap.TotalErrors)
	assert.Equal(t, int64(2), snap.Counters["reservation.created"])

	require.Len(t, snap.Routes, 2)
	assert.Equal(t, "GET /api/reservations", snap.Routes[0].Route)
	assert.Equal(t, 20*time.Millisecond, snap.Routes[0].AvgLatency)
	assert.Equal(t, 30*time.Millisecond, snap.Routes[0].MaxLatency)
	assert.Equal(t, int64(2), snap.Routes[0].Statuses[200])
}

func TestMemoryConcurrentInc(t *testing.T) {
	m := NewMemory()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Inc("conflict")
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(50), m.Snapshot().Counters["conflict"])
}
