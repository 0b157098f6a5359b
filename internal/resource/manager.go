// internal/resource/manager.go
package resource

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sarapudheen-ops/spacetec-sub001/internal/transport"
)

// Connection is the slice of a scanner connection the manager needs to
// supervise it.
type Connection interface {
	ID() string
	TransportType() transport.TransportType
	LastAddress() string
	IsConnected() bool
	Release() error
}

// Config tunes the supervision thresholds.
type Config struct {
	MaxConnections   int           `json:"max_connections"`
	LeakThreshold    time.Duration `json:"leak_threshold"`
	AbandonThreshold time.Duration `json:"abandon_threshold"`
	MaxLifetime      time.Duration `json:"max_lifetime"`
	MonitorInterval  time.Duration `json:"monitor_interval"`
	MemoryDeltaLimit uint64        `json:"memory_delta_limit"`
	HistorySize      int           `json:"history_size"`
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		MaxConnections:   20,
		LeakThreshold:    10 * time.Minute,
		AbandonThreshold: 5 * time.Minute,
		MaxLifetime:      time.Hour,
		MonitorInterval:  30 * time.Second,
		MemoryDeltaLimit: 50 * 1024 * 1024,
		HistorySize:      100,
	}
}

// tracked is the supervision record for one registered connection.
type tracked struct {
	conn         Connection
	registeredAt time.Time
	lastUsed     time.Time
	bytes        int64
	ops          int64
	leakAlerted  bool
}

// ConnectionResource mirrors one supervised connection for monitoring. It
// never reaches back into the connection itself.
type ConnectionResource struct {
	ID            string        `json:"id"`
	TransportType string        `json:"transport_type"`
	Address       string        `json:"address"`
	Connected     bool          `json:"connected"`
	RegisteredAt  time.Time     `json:"registered_at"`
	LastActivity  time.Time     `json:"last_activity"`
	Bytes         int64         `json:"bytes"`
	Operations    int64         `json:"operations"`
	Age           time.Duration `json:"age"`
	ReleasedAt    *time.Time    `json:"released_at,omitempty"`
}

// Snapshot is the manager's point-in-time view for status endpoints.
type Snapshot struct {
	ActiveConnections int       `json:"active_connections"`
	MaxConnections    int       `json:"max_connections"`
	PeakConnections   int       `json:"peak_connections"`
	TotalRegistered   int64     `json:"total_registered"`
	TotalCleaned      int64     `json:"total_cleaned"`
	HeapBaseline      uint64    `json:"heap_baseline"`
	HeapCurrent       uint64    `json:"heap_current"`
	LastSweep         time.Time `json:"last_sweep,omitempty"`
}

// Manager enforces the connection ceiling and hunts for leaked and
// abandoned connections. All cleanup it performs is advisory-first: an
// alert always precedes a forced release.
type Manager struct {
	config Config
	logger *zap.Logger

	mu              sync.RWMutex
	conns           map[string]*tracked
	released        []ConnectionResource
	subs            map[string]chan Alert
	history         []Alert
	peak            int
	totalRegistered int64
	totalCleaned    int64
	lastSweep       time.Time

	heapBaseline uint64
	memAlerted   bool

	started  atomic.Bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewManager builds a manager and records the heap baseline that memory
// growth is measured against.
func NewManager(config Config, logger *zap.Logger) *Manager {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	return &Manager{
		config:       config,
		logger:       logger.With(zap.String("component", "resource_manager")),
		conns:        make(map[string]*tracked),
		subs:         make(map[string]chan Alert),
		history:      make([]Alert, 0, config.HistorySize),
		heapBaseline: ms.HeapAlloc,
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// Start launches the periodic sweep.
func (m *Manager) Start() {
	if !m.started.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer close(m.done)
		ticker := time.NewTicker(m.config.MonitorInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.sweep(time.Now())
			case <-m.stop:
				return
			}
		}
	}()
	m.logger.Info("Resource monitor started",
		zap.Int("max_connections", m.config.MaxConnections),
		zap.Duration("monitor_interval", m.config.MonitorInterval))
}

// Stop halts the sweep loop. Registered connections stay registered.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stop)
		if m.started.Load() {
			<-m.done
		}
	})
	m.logger.Info("Resource monitor stopped")
}

// Register places a connection under supervision. Registration fails once
// the ceiling is reached.
func (m *Manager) Register(conn Connection) error {
	now := time.Now()

	m.mu.Lock()
	if len(m.conns) >= m.config.MaxConnections {
		m.mu.Unlock()
		m.publish(Alert{
			Type:         AlertLimitExceeded,
			ConnectionID: conn.ID(),
			Message:      fmt.Sprintf("connection limit of %d reached", m.config.MaxConnections),
			Timestamp:    now,
		})
		return &transport.Error{
			Code:    transport.CodeResourceExhausted,
			Message: fmt.Sprintf("connection limit of %d reached", m.config.MaxConnections),
		}
	}

	m.conns[conn.ID()] = &tracked{
		conn:         conn,
		registeredAt: now,
		lastUsed:     now,
	}
	m.totalRegistered++
	active := len(m.conns)
	if active > m.peak {
		m.peak = active
	}
	m.mu.Unlock()

	m.logger.Debug("Connection registered",
		zap.String("connection_id", conn.ID()),
		zap.Int("active", active))

	if active*100 >= m.config.MaxConnections*80 {
		m.publish(Alert{
			Type:         AlertApproachingLimit,
			ConnectionID: conn.ID(),
			Message:      fmt.Sprintf("%d of %d connections in use", active, m.config.MaxConnections),
			Timestamp:    now,
		})
	}
	return nil
}

// Unregister removes a connection from supervision without touching it. A
// connection that lived past the leak threshold is flagged on its way out.
func (m *Manager) Unregister(id string) {
	now := time.Now()

	m.mu.Lock()
	tr, ok := m.conns[id]
	if ok {
		delete(m.conns, id)
		m.recordReleaseLocked(tr, now)
	}
	m.mu.Unlock()

	if !ok {
		return
	}
	m.logger.Debug("Connection unregistered", zap.String("connection_id", id))

	if lifetime := now.Sub(tr.registeredAt); lifetime > m.config.LeakThreshold {
		m.publish(Alert{
			Type:         AlertPotentialLeak,
			ConnectionID: id,
			Message:      fmt.Sprintf("connection released after %s, past the leak threshold of %s", lifetime.Round(time.Second), m.config.LeakThreshold),
			Timestamp:    now,
		})
	}
}

// recordReleaseLocked keeps a bounded trail of released connections for the
// monitoring surface. Caller holds mu.
func (m *Manager) recordReleaseLocked(tr *tracked, now time.Time) {
	released := now
	m.released = append(m.released, ConnectionResource{
		ID:            tr.conn.ID(),
		TransportType: string(tr.conn.TransportType()),
		Address:       tr.conn.LastAddress(),
		RegisteredAt:  tr.registeredAt,
		LastActivity:  tr.lastUsed,
		Bytes:         tr.bytes,
		Operations:    tr.ops,
		Age:           now.Sub(tr.registeredAt),
		ReleasedAt:    &released,
	})
	if overflow := len(m.released) - m.config.HistorySize; overflow > 0 {
		m.released = m.released[overflow:]
	}
}

// Touch marks a connection as used, resetting its abandonment clock.
func (m *Manager) Touch(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tr, ok := m.conns[id]; ok {
		tr.lastUsed = time.Now()
		tr.leakAlerted = false
	}
}

// UpdateUsage adds traffic counters to a supervised connection and resets
// its abandonment clock.
func (m *Manager) UpdateUsage(id string, bytes, ops int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tr, ok := m.conns[id]; ok {
		tr.bytes += bytes
		tr.ops += ops
		tr.lastUsed = time.Now()
		tr.leakAlerted = false
	}
}

// ConnectionDetails returns monitoring records for the supervised
// connections followed by the recently released trail.
func (m *Manager) ConnectionDetails() []ConnectionResource {
	now := time.Now()

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]ConnectionResource, 0, len(m.conns)+len(m.released))
	for _, tr := range m.conns {
		out = append(out, ConnectionResource{
			ID:            tr.conn.ID(),
			TransportType: string(tr.conn.TransportType()),
			Address:       tr.conn.LastAddress(),
			Connected:     tr.conn.IsConnected(),
			RegisteredAt:  tr.registeredAt,
			LastActivity:  tr.lastUsed,
			Bytes:         tr.bytes,
			Operations:    tr.ops,
			Age:           now.Sub(tr.registeredAt),
		})
	}
	return append(out, m.released...)
}

// Count returns the number of supervised connections.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.conns)
}

// Stats materializes the supervision counters.
func (m *Manager) Stats() Snapshot {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{
		ActiveConnections: len(m.conns),
		MaxConnections:    m.config.MaxConnections,
		PeakConnections:   m.peak,
		TotalRegistered:   m.totalRegistered,
		TotalCleaned:      m.totalCleaned,
		HeapBaseline:      m.heapBaseline,
		HeapCurrent:       ms.HeapAlloc,
		LastSweep:         m.lastSweep,
	}
}

// Subscribe attaches an alert listener. Slow listeners lose alerts rather
// than blocking supervision.
func (m *Manager) Subscribe() (<-chan Alert, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New().String()
	ch := make(chan Alert, 16)
	m.subs[id] = ch

	unsubscribe := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if sub, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(sub)
		}
	}
	return ch, unsubscribe
}

// History returns the retained alerts, oldest first.
func (m *Manager) History() []Alert {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Alert, len(m.history))
	copy(out, m.history)
	return out
}

// publish records the alert in history and fans it out.
func (m *Manager) publish(alert Alert) {
	m.logger.Warn("Resource alert",
		zap.String("alert_type", string(alert.Type)),
		zap.String("connection_id", alert.ConnectionID),
		zap.String("message", alert.Message))

	m.mu.Lock()
	m.history = append(m.history, alert)
	if overflow := len(m.history) - m.config.HistorySize; overflow > 0 {
		m.history = m.history[overflow:]
	}
	for _, sub := range m.subs {
		select {
		case sub <- alert:
		default:
		}
	}
	m.mu.Unlock()
}

// ForceCleanup runs a supervision pass immediately and returns the number
// of connections it released.
func (m *Manager) ForceCleanup() int {
	return m.sweep(time.Now())
}

// Shutdown force-releases every supervised connection and stops the
// monitor.
func (m *Manager) Shutdown() {
	now := time.Now()

	m.mu.Lock()
	remaining := make([]*tracked, 0, len(m.conns))
	for _, tr := range m.conns {
		remaining = append(remaining, tr)
		m.recordReleaseLocked(tr, now)
	}
	m.conns = make(map[string]*tracked)
	m.mu.Unlock()

	for _, tr := range remaining {
		if err := tr.conn.Release(); err != nil {
			m.logger.Warn("Failed to release connection during shutdown",
				zap.String("connection_id", tr.conn.ID()),
				zap.Error(err))
		}
	}
	m.Stop()

	if len(remaining) > 0 {
		m.logger.Info("Resource manager released remaining connections",
			zap.Int("count", len(remaining)))
	}
}

// sweep runs one supervision pass against the given clock and returns the
// number of connections it cleaned up.
func (m *Manager) sweep(now time.Time) int {
	type cleanup struct {
		tr     *tracked
		reason string
	}

	m.mu.Lock()
	m.lastSweep = now
	var leaks []*tracked
	var cleanups []cleanup
	for _, tr := range m.conns {
		idle := now.Sub(tr.lastUsed)
		age := now.Sub(tr.registeredAt)

		switch {
		case age > m.config.MaxLifetime:
			cleanups = append(cleanups, cleanup{tr, fmt.Sprintf("exceeded max lifetime of %s", m.config.MaxLifetime)})
		case tr.conn.IsConnected() && idle > m.config.AbandonThreshold:
			cleanups = append(cleanups, cleanup{tr, fmt.Sprintf("abandoned: unused for %s while connected", idle.Round(time.Second))})
		case !tr.conn.IsConnected() && idle > m.config.LeakThreshold && !tr.leakAlerted:
			tr.leakAlerted = true
			leaks = append(leaks, tr)
		}
	}
	for _, c := range cleanups {
		delete(m.conns, c.tr.conn.ID())
		m.recordReleaseLocked(c.tr, now)
		m.totalCleaned++
	}
	m.mu.Unlock()

	for _, tr := range leaks {
		m.publish(Alert{
			Type:         AlertPotentialLeak,
			ConnectionID: tr.conn.ID(),
			Message:      "connection idle past the leak threshold without being released",
			Timestamp:    now,
		})
	}

	for _, c := range cleanups {
		m.publish(Alert{
			Type:         AlertAbandonedConnection,
			ConnectionID: c.tr.conn.ID(),
			Message:      c.reason,
			Timestamp:    now,
		})
		if err := c.tr.conn.Release(); err != nil {
			m.logger.Error("Failed to release abandoned connection",
				zap.String("connection_id", c.tr.conn.ID()),
				zap.Error(err))
			continue
		}
		m.publish(Alert{
			Type:         AlertAbandonedConnectionCleaned,
			ConnectionID: c.tr.conn.ID(),
			Message:      "abandoned connection released",
			Timestamp:    now,
		})
	}

	m.checkMemory(now)
	return len(cleanups)
}

// checkMemory raises an advisory when the heap has grown past the
// configured delta since construction. It never forces cleanup.
func (m *Manager) checkMemory(now time.Time) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	m.mu.Lock()
	baseline := m.heapBaseline
	alerted := m.memAlerted
	grown := ms.HeapAlloc > baseline && ms.HeapAlloc-baseline > m.config.MemoryDeltaLimit
	if grown && !alerted {
		m.memAlerted = true
	}
	if !grown {
		m.memAlerted = false
	}
	m.mu.Unlock()

	if grown && !alerted {
		m.publish(Alert{
			Type:      AlertHighMemoryUsage,
			Message:   fmt.Sprintf("heap grew %d bytes past the baseline", ms.HeapAlloc-baseline),
			Timestamp: now,
		})
	}
}
