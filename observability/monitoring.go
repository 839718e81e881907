// Package observability aggregates runtime metrics for the stats endpoint.
package observability

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Stats is the snapshot served by GET /api/stats.
type Stats struct {
	// --- MESSAGING METRICS ---
	MessagesStored  uint64 `json:"messages_stored"`
	EventsDelivered uint64 `json:"events_delivered"`
	EventsDropped   uint64 `json:"events_dropped"`
	LiveConnections int64  `json:"live_connections"`

	// --- SYSTEM METRICS ---
	CPUPercent float64 `json:"cpu_percent"`
	RAMPercent float32 `json:"ram_percent"`
	Goroutines int     `json:"goroutines"`
	AllocMemMb uint64  `json:"alloc_mem_mb"`
	NumGC      uint32  `json:"num_gc"`

	UptimeSeconds float64 `json:"uptime_seconds"`
}

// Manager keeps real-time telemetry for the process. Counters are updated on
// the hot path and must stay cheap, the system sample is refreshed by a
// background worker.
type Manager struct {
	log       *slog.Logger
	startedAt time.Time

	messagesStored  atomic.Uint64
	eventsDelivered atomic.Uint64
	eventsDropped   atomic.Uint64
	liveConnections atomic.Int64

	mu     sync.RWMutex
	system Stats
}

func NewManager(log *slog.Logger) *Manager {
	return &Manager{log: log, startedAt: time.Now().UTC()}
}

func (m *Manager) MessageStored()    { m.messagesStored.Add(1) }
func (m *Manager) EventDelivered()   { m.eventsDelivered.Add(1) }
func (m *Manager) EventDropped()     { m.eventsDropped.Add(1) }
func (m *Manager) ConnectionOpened() { m.liveConnections.Add(1) }
func (m *Manager) ConnectionClosed() { m.liveConnections.Add(-1) }

// RecordSystem stores the latest process-level sample.
func (m *Manager) RecordSystem(cpu float64, ram float32, goroutines int, allocMemMb uint64, numGC uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.system.CPUPercent = cpu
	m.system.RAMPercent = ram
	m.system.Goroutines = goroutines
	m.system.AllocMemMb = allocMemMb
	m.system.NumGC = numGC
}

func (m *Manager) Snapshot() Stats {
	m.mu.RLock()
	stats := m.system
	m.mu.RUnlock()

	stats.MessagesStored = m.messagesStored.Load()
	stats.EventsDelivered = m.eventsDelivered.Load()
	stats.EventsDropped = m.eventsDropped.Load()
	stats.LiveConnections = m.liveConnections.Load()
	stats.UptimeSeconds = time.Since(m.startedAt).Seconds()
	return stats
}
