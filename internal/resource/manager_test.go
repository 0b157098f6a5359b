// internal/resource/manager_test.go
package resource

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sarapudheen-ops/spacetec-sub001/internal/transport"
)

// fakeConn is a minimal supervised connection.
type fakeConn struct {
	id        string
	connected atomic.Bool
	released  atomic.Bool
}

func newFakeConn(id string, connected bool) *fakeConn {
	f := &fakeConn{id: id}
	f.connected.Store(connected)
	return f
}

func (f *fakeConn) ID() string                             { return f.id }
func (f *fakeConn) TransportType() transport.TransportType { return transport.TransportWiFi }
func (f *fakeConn) LastAddress() string                    { return "192.168.0.10:35000" }
func (f *fakeConn) IsConnected() bool                      { return f.connected.Load() }
func (f *fakeConn) Release() error {
	f.released.Store(true)
	f.connected.Store(false)
	return nil
}

func testManager(t *testing.T, config Config) *Manager {
	t.Helper()
	return NewManager(config, zap.NewNop())
}

func waitAlert(t *testing.T, ch <-chan Alert, alertType AlertType) Alert {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case a, ok := <-ch:
			require.True(t, ok, "alert channel closed while waiting for %s", alertType)
			if a.Type == alertType {
				return a
			}
		case <-deadline:
			t.Fatalf("timed out waiting for alert %s", alertType)
		}
	}
}

// TestRegisterCeiling pins the hard connection limit.
func TestRegisterCeiling(t *testing.T) {
	t.Parallel()

	t.Run("default config admits twenty connections and rejects more", func(t *testing.T) {
		t.Parallel()
		m := testManager(t, DefaultConfig())

		for i := 0; i < 20; i++ {
			require.NoError(t, m.Register(newFakeConn(fmt.Sprintf("conn-%d", i), true)))
		}
		err := m.Register(newFakeConn("conn-overflow", true))
		require.Error(t, err)
		assert.True(t, transport.IsCode(err, transport.CodeResourceExhausted))
		assert.Equal(t, 20, m.Count())
	})

	t.Run("rejection publishes a limit alert", func(t *testing.T) {
		t.Parallel()
		cfg := DefaultConfig()
		cfg.MaxConnections = 2
		m := testManager(t, cfg)
		alerts, unsub := m.Subscribe()
		defer unsub()

		require.NoError(t, m.Register(newFakeConn("a", true)))
		require.NoError(t, m.Register(newFakeConn("b", true)))
		require.Error(t, m.Register(newFakeConn("c", true)))

		alert := waitAlert(t, alerts, AlertLimitExceeded)
		assert.Equal(t, "c", alert.ConnectionID)
	})

	t.Run("unregister frees a slot", func(t *testing.T) {
		t.Parallel()
		cfg := DefaultConfig()
		cfg.MaxConnections = 1
		m := testManager(t, cfg)

		require.NoError(t, m.Register(newFakeConn("a", true)))
		m.Unregister("a")
		require.NoError(t, m.Register(newFakeConn("b", true)))
	})
}

// TestApproachingLimit checks the 80% early warning.
func TestApproachingLimit(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.MaxConnections = 5
	m := testManager(t, cfg)
	alerts, unsub := m.Subscribe()
	defer unsub()

	for i := 0; i < 4; i++ {
		require.NoError(t, m.Register(newFakeConn(fmt.Sprintf("conn-%d", i), true)))
	}

	alert := waitAlert(t, alerts, AlertApproachingLimit)
	assert.Contains(t, alert.Message, "4 of 5")
}

// TestAbandonedCleanup covers forced release of connected-but-unused
// connections.
func TestAbandonedCleanup(t *testing.T) {
	t.Parallel()

	t.Run("releases connections idle past the abandon threshold", func(t *testing.T) {
		t.Parallel()
		m := testManager(t, DefaultConfig())
		alerts, unsub := m.Subscribe()
		defer unsub()

		conn := newFakeConn("abandoned", true)
		require.NoError(t, m.Register(conn))

		m.sweep(time.Now().Add(6 * time.Minute))

		waitAlert(t, alerts, AlertAbandonedConnection)
		waitAlert(t, alerts, AlertAbandonedConnectionCleaned)
		assert.True(t, conn.released.Load())
		assert.Equal(t, 0, m.Count())
		assert.Equal(t, int64(1), m.Stats().TotalCleaned)
	})

	t.Run("touch resets the abandonment clock", func(t *testing.T) {
		t.Parallel()
		m := testManager(t, DefaultConfig())

		conn := newFakeConn("busy", true)
		require.NoError(t, m.Register(conn))
		m.mu.Lock()
		m.conns["busy"].lastUsed = time.Now().Add(-10 * time.Minute)
		m.mu.Unlock()

		m.Touch("busy")
		m.sweep(time.Now())

		assert.False(t, conn.released.Load())
		assert.Equal(t, 1, m.Count())
	})

	t.Run("cleans up connections past max lifetime even when active", func(t *testing.T) {
		t.Parallel()
		m := testManager(t, DefaultConfig())

		conn := newFakeConn("ancient", true)
		require.NoError(t, m.Register(conn))
		m.mu.Lock()
		m.conns["ancient"].registeredAt = time.Now().Add(-2 * time.Hour)
		m.mu.Unlock()

		m.Touch("ancient")
		m.sweep(time.Now())

		assert.True(t, conn.released.Load())
		assert.Equal(t, 0, m.Count())
	})
}

// TestPotentialLeak covers the advisory for idle disconnected connections.
func TestPotentialLeak(t *testing.T) {
	t.Parallel()

	m := testManager(t, DefaultConfig())
	alerts, unsub := m.Subscribe()
	defer unsub()

	conn := newFakeConn("leaky", false)
	require.NoError(t, m.Register(conn))

	future := time.Now().Add(11 * time.Minute)
	m.sweep(future)

	waitAlert(t, alerts, AlertPotentialLeak)
	assert.False(t, conn.released.Load(), "leak alerts are advisory")
	assert.Equal(t, 1, m.Count())

	// A second sweep must not repeat the advisory for the same idle span.
	m.sweep(future.Add(time.Minute))
	history := m.History()
	leakCount := 0
	for _, a := range history {
		if a.Type == AlertPotentialLeak {
			leakCount++
		}
	}
	assert.Equal(t, 1, leakCount)
}

// TestHistoryRing pins the bounded alert history.
func TestHistoryRing(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.HistorySize = 5
	m := testManager(t, cfg)

	for i := 0; i < 8; i++ {
		m.publish(Alert{
			Type:      AlertPotentialLeak,
			Message:   fmt.Sprintf("alert-%d", i),
			Timestamp: time.Now(),
		})
	}

	history := m.History()
	require.Len(t, history, 5)
	assert.Equal(t, "alert-3", history[0].Message)
	assert.Equal(t, "alert-7", history[4].Message)
}

// TestSubscription covers listener lifecycle.
func TestSubscription(t *testing.T) {
	t.Parallel()

	t.Run("unsubscribe closes the channel", func(t *testing.T) {
		t.Parallel()
		m := testManager(t, DefaultConfig())
		ch, unsub := m.Subscribe()
		unsub()
		_, ok := <-ch
		assert.False(t, ok)
	})

	t.Run("slow subscribers never block supervision", func(t *testing.T) {
		t.Parallel()
		cfg := DefaultConfig()
		cfg.MaxConnections = 1
		m := testManager(t, cfg)
		_, unsub := m.Subscribe() // never read
		defer unsub()

		require.NoError(t, m.Register(newFakeConn("a", true)))
		for i := 0; i < 40; i++ {
			require.Error(t, m.Register(newFakeConn("b", true)))
		}
	})
}

// TestStats covers the counters exposed to status endpoints.
func TestStats(t *testing.T) {
	t.Parallel()

	m := testManager(t, DefaultConfig())
	require.NoError(t, m.Register(newFakeConn("a", true)))
	require.NoError(t, m.Register(newFakeConn("b", true)))
	m.Unregister("a")

	stats := m.Stats()
	assert.Equal(t, 1, stats.ActiveConnections)
	assert.Equal(t, 2, stats.PeakConnections)
	assert.Equal(t, int64(2), stats.TotalRegistered)
	assert.Equal(t, 20, stats.MaxConnections)
	assert.NotZero(t, stats.HeapCurrent)
}

// TestUsageTracking covers UpdateUsage and the monitoring records.
func TestUsageTracking(t *testing.T) {
	t.Parallel()

	t.Run("usage accumulates onto the connection record", func(t *testing.T) {
		t.Parallel()
		m := testManager(t, DefaultConfig())
		require.NoError(t, m.Register(newFakeConn("a", true)))

		m.UpdateUsage("a", 128, 1)
		m.UpdateUsage("a", 64, 2)
		m.UpdateUsage("missing", 512, 9)

		details := m.ConnectionDetails()
		require.Len(t, details, 1)
		assert.Equal(t, "a", details[0].ID)
		assert.Equal(t, string(transport.TransportWiFi), details[0].TransportType)
		assert.Equal(t, "192.168.0.10:35000", details[0].Address)
		assert.Equal(t, int64(192), details[0].Bytes)
		assert.Equal(t, int64(3), details[0].Operations)
		assert.Nil(t, details[0].ReleasedAt)
	})

	t.Run("released connections stay visible with a release time", func(t *testing.T) {
		t.Parallel()
		m := testManager(t, DefaultConfig())
		require.NoError(t, m.Register(newFakeConn("a", true)))
		m.UpdateUsage("a", 100, 1)
		m.Unregister("a")

		details := m.ConnectionDetails()
		require.Len(t, details, 1)
		require.NotNil(t, details[0].ReleasedAt)
		assert.Equal(t, int64(100), details[0].Bytes)
	})
}

// TestUnregisterLeakFlag covers the leak advisory for long-lived
// connections released late.
func TestUnregisterLeakFlag(t *testing.T) {
	t.Parallel()

	m := testManager(t, DefaultConfig())
	alerts, unsub := m.Subscribe()
	defer unsub()

	require.NoError(t, m.Register(newFakeConn("longlived", true)))
	m.mu.Lock()
	m.conns["longlived"].registeredAt = time.Now().Add(-11 * time.Minute)
	m.mu.Unlock()

	m.Unregister("longlived")

	alert := waitAlert(t, alerts, AlertPotentialLeak)
	assert.Equal(t, "longlived", alert.ConnectionID)
}

// TestForceCleanup covers the on-demand supervision pass.
func TestForceCleanup(t *testing.T) {
	t.Parallel()

	m := testManager(t, DefaultConfig())
	fresh := newFakeConn("fresh", true)
	stale := newFakeConn("stale", true)
	require.NoError(t, m.Register(fresh))
	require.NoError(t, m.Register(stale))
	m.mu.Lock()
	m.conns["stale"].lastUsed = time.Now().Add(-6 * time.Minute)
	m.mu.Unlock()

	assert.Equal(t, 1, m.ForceCleanup())
	assert.True(t, stale.released.Load())
	assert.False(t, fresh.released.Load())
	assert.Equal(t, 1, m.Count())
}

// TestShutdown covers the force-release teardown.
func TestShutdown(t *testing.T) {
	t.Parallel()

	m := testManager(t, DefaultConfig())
	m.Start()
	a := newFakeConn("a", true)
	b := newFakeConn("b", false)
	require.NoError(t, m.Register(a))
	require.NoError(t, m.Register(b))

	m.Shutdown()

	assert.True(t, a.released.Load())
	assert.True(t, b.released.Load())
	assert.Equal(t, 0, m.Count())
}

// TestMonitorLoop smoke-tests Start/Stop.
func TestMonitorLoop(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.MonitorInterval = 10 * time.Millisecond
	m := testManager(t, cfg)

	m.Start()
	require.Eventually(t, func() bool {
		return !m.Stats().LastSweep.IsZero()
	}, time.Second, 5*time.Millisecond)
	m.Stop()
}
