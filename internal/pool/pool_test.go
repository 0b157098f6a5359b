// internal/pool/pool_test.go
package pool

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sarapudheen-ops/spacetec-sub001/internal/resource"
	"github.com/sarapudheen-ops/spacetec-sub001/internal/transport"
)

func testConnConfig() transport.ConnectionConfig {
	return transport.ConnectionConfig{
		ConnectTimeout:       200 * time.Millisecond,
		ReadTimeout:          150 * time.Millisecond,
		WriteTimeout:         150 * time.Millisecond,
		MaxReconnectAttempts: 1,
		ReconnectBaseDelay:   10 * time.Millisecond,
		ReconnectMaxDelay:    20 * time.Millisecond,
		BufferSize:           256,
	}
}

// fakeRegistry records supervision calls.
type fakeRegistry struct {
	mu         sync.Mutex
	registered map[string]bool
	touches    int
	rejectWith error
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{registered: make(map[string]bool)}
}

func (r *fakeRegistry) Register(conn resource.Connection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rejectWith != nil {
		return r.rejectWith
	}
	r.registered[conn.ID()] = true
	return nil
}

func (r *fakeRegistry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.registered, id)
}

func (r *fakeRegistry) Touch(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touches++
}

func (r *fakeRegistry) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.registered)
}

func testPool(t *testing.T, config Config, registry Registry) (*Pool, *transport.MockDialer) {
	t.Helper()
	dialer := &transport.MockDialer{Transport: transport.TransportWiFi}
	p := New(config, registry, zap.NewNop())
	p.SetFactory(func(transport.TransportType) (transport.ScannerConnection, error) {
		return transport.NewConnection(dialer, zap.NewNop()), nil
	})
	t.Cleanup(p.Shutdown)
	return p, dialer
}

func TestGetAndReturn(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("checkout dials a fresh connection", func(t *testing.T) {
		t.Parallel()
		p, dialer := testPool(t, Config{}, nil)

		conn, err := p.Get(ctx, transport.TransportWiFi, "10.0.0.7:35000", testConnConfig())
		require.NoError(t, err)
		assert.True(t, conn.IsConnected())
		assert.Equal(t, 1, dialer.DialCount())
		assert.Equal(t, 1, p.Size())
	})

	t.Run("returned connection is reused", func(t *testing.T) {
		t.Parallel()
		p, dialer := testPool(t, Config{}, nil)

		first, err := p.Get(ctx, transport.TransportWiFi, "10.0.0.7:35000", testConnConfig())
		require.NoError(t, err)
		p.Return(first)

		second, err := p.Get(ctx, transport.TransportWiFi, "10.0.0.7:35000", testConnConfig())
		require.NoError(t, err)
		assert.Equal(t, first.ID(), second.ID())
		assert.Equal(t, 1, dialer.DialCount(), "reuse must not redial")
		assert.Equal(t, 1, p.Size())
	})

	t.Run("double checkout yields distinct connections", func(t *testing.T) {
		t.Parallel()
		p, dialer := testPool(t, Config{}, nil)

		first, err := p.Get(ctx, transport.TransportWiFi, "10.0.0.7:35000", testConnConfig())
		require.NoError(t, err)
		second, err := p.Get(ctx, transport.TransportWiFi, "10.0.0.7:35000", testConnConfig())
		require.NoError(t, err)

		assert.NotEqual(t, first.ID(), second.ID())
		assert.Equal(t, 2, dialer.DialCount())
		assert.Equal(t, 2, p.Size())
	})

	t.Run("dead connection is retired on return", func(t *testing.T) {
		t.Parallel()
		p, _ := testPool(t, Config{}, nil)

		conn, err := p.Get(ctx, transport.TransportWiFi, "10.0.0.7:35000", testConnConfig())
		require.NoError(t, err)
		require.NoError(t, conn.Disconnect(false))

		p.Return(conn)
		assert.Equal(t, 0, p.Size())
	})

	t.Run("foreign connection is retired not adopted", func(t *testing.T) {
		t.Parallel()
		p, _ := testPool(t, Config{}, nil)

		dialer := &transport.MockDialer{Transport: transport.TransportWiFi}
		stray := transport.NewConnection(dialer, zap.NewNop())
		_, err := stray.Connect(ctx, "10.0.0.9:35000", testConnConfig())
		require.NoError(t, err)

		p.Return(stray)
		assert.Equal(t, 0, p.Size())
		assert.False(t, stray.IsConnected())
	})
}

func TestPoolFull(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p, _ := testPool(t, Config{MaxPerKey: 2}, nil)

	_, err := p.Get(ctx, transport.TransportWiFi, "10.0.0.7:35000", testConnConfig())
	require.NoError(t, err)
	_, err = p.Get(ctx, transport.TransportWiFi, "10.0.0.7:35000", testConnConfig())
	require.NoError(t, err)

	_, err = p.Get(ctx, transport.TransportWiFi, "10.0.0.7:35000", testConnConfig())
	require.Error(t, err)
	assert.True(t, transport.IsCode(err, transport.CodeResourceExhausted))
	assert.Contains(t, err.Error(), "pool full")

	// Capacity is per key; a different address still gets a slot.
	_, err = p.Get(ctx, transport.TransportWiFi, "10.0.0.8:35000", testConnConfig())
	require.NoError(t, err)
}

func TestSweep(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("evicts available connections idle past the timeout", func(t *testing.T) {
		t.Parallel()
		p, _ := testPool(t, Config{}, nil)

		conn, err := p.Get(ctx, transport.TransportWiFi, "10.0.0.7:35000", testConnConfig())
		require.NoError(t, err)
		p.Return(conn)

		backdateEntries(p, 6*time.Minute)
		p.sweep(time.Now())

		assert.Equal(t, 0, p.Size())
		assert.False(t, conn.IsConnected())
	})

	t.Run("busy connections survive the sweep", func(t *testing.T) {
		t.Parallel()
		p, _ := testPool(t, Config{}, nil)

		conn, err := p.Get(ctx, transport.TransportWiFi, "10.0.0.7:35000", testConnConfig())
		require.NoError(t, err)

		backdateEntries(p, 6*time.Minute)
		p.sweep(time.Now())

		assert.Equal(t, 1, p.Size())
		assert.True(t, conn.IsConnected())
	})
}

func TestShutdown(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p, _ := testPool(t, Config{}, nil)

	busy, err := p.Get(ctx, transport.TransportWiFi, "10.0.0.7:35000", testConnConfig())
	require.NoError(t, err)
	shelved, err := p.Get(ctx, transport.TransportWiFi, "10.0.0.8:35000", testConnConfig())
	require.NoError(t, err)
	p.Return(shelved)

	p.Shutdown()

	assert.Equal(t, 0, p.Size())
	assert.False(t, busy.IsConnected())
	assert.False(t, shelved.IsConnected())

	_, err = p.Get(ctx, transport.TransportWiFi, "10.0.0.7:35000", testConnConfig())
	assert.ErrorIs(t, err, ErrPoolClosed)
}

func TestRegistryIntegration(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("checkout registers and retirement unregisters", func(t *testing.T) {
		t.Parallel()
		registry := newFakeRegistry()
		p, _ := testPool(t, Config{}, registry)

		conn, err := p.Get(ctx, transport.TransportWiFi, "10.0.0.7:35000", testConnConfig())
		require.NoError(t, err)
		assert.Equal(t, 1, registry.count())

		p.Remove(conn)
		assert.Equal(t, 0, registry.count())
		assert.Equal(t, 0, p.Size())
	})

	t.Run("registry rejection aborts the checkout", func(t *testing.T) {
		t.Parallel()
		registry := newFakeRegistry()
		registry.rejectWith = &transport.Error{
			Code:    transport.CodeResourceExhausted,
			Message: "connection limit of 20 reached",
		}
		p, dialer := testPool(t, Config{}, registry)

		_, err := p.Get(ctx, transport.TransportWiFi, "10.0.0.7:35000", testConnConfig())
		require.Error(t, err)
		assert.True(t, transport.IsCode(err, transport.CodeResourceExhausted))
		assert.Equal(t, 0, dialer.DialCount(), "rejected checkout must not dial")
		assert.Equal(t, 0, p.Size())
	})

	t.Run("connect failure rolls back the registration", func(t *testing.T) {
		t.Parallel()
		registry := newFakeRegistry()
		p, dialer := testPool(t, Config{}, registry)
		dialer.FailTimes = 1

		_, err := p.Get(ctx, transport.TransportWiFi, "10.0.0.7:35000", testConnConfig())
		require.Error(t, err)
		assert.Equal(t, 0, registry.count())
		assert.Equal(t, 0, p.Size())
	})
}

func TestStats(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p, _ := testPool(t, Config{}, nil)

	shelved, err := p.Get(ctx, transport.TransportWiFi, "10.0.0.7:35000", testConnConfig())
	require.NoError(t, err)
	p.Return(shelved)
	_, err = p.Get(ctx, transport.TransportWiFi, "10.0.0.8:35000", testConnConfig())
	require.NoError(t, err)

	stats := p.Stats()
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Available)
	assert.Equal(t, 1, stats.PerKey["wifi:10.0.0.7:35000"])
	assert.Equal(t, 1, stats.PerKey["wifi:10.0.0.8:35000"])
}

// backdateEntries pushes every entry's lastUsed into the past.
func backdateEntries(p *Pool, age time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	past := time.Now().Add(-age)
	for _, list := range p.entries {
		for _, e := range list {
			e.lastUsed = past
		}
	}
}
