// internal/pool/pool.go
package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/sarapudheen-ops/spacetec-sub001/internal/resource"
	"github.com/sarapudheen-ops/spacetec-sub001/internal/transport"
)

// ErrPoolClosed is returned by Get after Shutdown.
var ErrPoolClosed = errors.New("connection pool is shut down")

// Factory creates an unconnected scanner connection for a transport type.
// Swappable in tests.
type Factory func(transportType transport.TransportType) (transport.ScannerConnection, error)

// Registry is the slice of the resource manager the pool reports to.
// A nil registry disables supervision.
type Registry interface {
	Register(conn resource.Connection) error
	Unregister(id string)
	Touch(id string)
}

// Config tunes pool capacity and eviction.
type Config struct {
	MaxPerKey     int           `json:"max_per_key"`
	IdleTimeout   time.Duration `json:"idle_timeout"`
	SweepInterval time.Duration `json:"sweep_interval"`
}

// DefaultConfig returns the production pool settings.
func DefaultConfig() Config {
	return Config{
		MaxPerKey:     5,
		IdleTimeout:   5 * time.Minute,
		SweepInterval: time.Minute,
	}
}

// entry wraps one pooled connection. conn stays nil while the initial dial
// is in flight so the slot counts against the key's capacity.
type entry struct {
	conn      transport.ScannerConnection
	created   time.Time
	lastUsed  time.Time
	available bool
}

// Pool keeps scanner connections keyed by transport type and address so
// repeated sessions against the same adapter reuse the established link.
type Pool struct {
	config   Config
	logger   *zap.Logger
	factory  Factory
	registry Registry

	mu      sync.Mutex
	entries map[string][]*entry
	closed  bool

	started  atomic.Bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// New builds a pool. Zero config fields fall back to DefaultConfig values.
func New(config Config, registry Registry, logger *zap.Logger) *Pool {
	defaults := DefaultConfig()
	if config.MaxPerKey <= 0 {
		config.MaxPerKey = defaults.MaxPerKey
	}
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = defaults.IdleTimeout
	}
	if config.SweepInterval <= 0 {
		config.SweepInterval = defaults.SweepInterval
	}

	p := &Pool{
		config:   config,
		logger:   logger.With(zap.String("component", "connection_pool")),
		registry: registry,
		entries:  make(map[string][]*entry),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	p.factory = func(t transport.TransportType) (transport.ScannerConnection, error) {
		return transport.NewForTransport(t, logger)
	}
	return p
}

// SetFactory replaces the connection factory. Call before Get.
func (p *Pool) SetFactory(factory Factory) {
	p.factory = factory
}

// Start launches the idle-eviction sweep.
func (p *Pool) Start() {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer close(p.done)
		ticker := time.NewTicker(p.config.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.sweep(time.Now())
			case <-p.stop:
				return
			}
		}
	}()
	p.logger.Info("Connection pool started",
		zap.Int("max_per_key", p.config.MaxPerKey),
		zap.Duration("idle_timeout", p.config.IdleTimeout))
}

// Get returns a connected adapter for the address, reusing an idle pooled
// connection when one exists and dialing a new one otherwise. The caller
// owns the connection until Return or Remove.
func (p *Pool) Get(ctx context.Context, transportType transport.TransportType, address string, config transport.ConnectionConfig) (transport.ScannerConnection, error) {
	key := poolKey(transportType, address)
	now := time.Now()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}

	list := p.entries[key]
	kept := list[:0]
	var dead []transport.ScannerConnection
	var reuse transport.ScannerConnection
	for _, e := range list {
		if reuse == nil && e.available && e.conn != nil {
			if e.conn.IsConnected() {
				e.available = false
				e.lastUsed = now
				reuse = e.conn
				kept = append(kept, e)
				continue
			}
			// The link died while shelved. Drop it instead of handing
			// out a dead connection.
			dead = append(dead, e.conn)
			continue
		}
		kept = append(kept, e)
	}
	p.entries[key] = kept

	var slot *entry
	if reuse == nil {
		if len(kept) >= p.config.MaxPerKey {
			p.mu.Unlock()
			p.retire(dead...)
			return nil, &transport.Error{
				Code:    transport.CodeResourceExhausted,
				Message: fmt.Sprintf("pool full: %d connections for %s", len(kept), key),
				Address: address,
			}
		}
		slot = &entry{created: now, lastUsed: now}
		p.entries[key] = append(kept, slot)
	}
	p.mu.Unlock()

	p.retire(dead...)

	if reuse != nil {
		if p.registry != nil {
			p.registry.Touch(reuse.ID())
		}
		p.logger.Debug("Reusing pooled connection",
			zap.String("pool_key", key),
			zap.String("connection_id", reuse.ID()))
		return reuse, nil
	}

	conn, err := p.dial(ctx, transportType, address, config)
	if err != nil {
		p.discard(key, slot)
		return nil, err
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.discard(key, slot)
		p.retire(conn)
		return nil, ErrPoolClosed
	}
	slot.conn = conn
	p.mu.Unlock()

	p.logger.Debug("Pooled new connection",
		zap.String("pool_key", key),
		zap.String("connection_id", conn.ID()))
	return conn, nil
}

// dial creates, registers, and connects a fresh adapter connection.
func (p *Pool) dial(ctx context.Context, transportType transport.TransportType, address string, config transport.ConnectionConfig) (transport.ScannerConnection, error) {
	conn, err := p.factory(transportType)
	if err != nil {
		return nil, err
	}

	if p.registry != nil {
		if err := p.registry.Register(conn); err != nil {
			if relErr := conn.Release(); relErr != nil {
				p.logger.Warn("Failed to release rejected connection", zap.Error(relErr))
			}
			return nil, err
		}
	}

	if _, err := conn.Connect(ctx, address, config); err != nil {
		p.retire(conn)
		return nil, err
	}
	return conn, nil
}

// Return puts a checked-out connection back on the shelf. Dead connections
// are retired instead of reshelved; connections the pool does not know are
// retired outright.
func (p *Pool) Return(conn transport.ScannerConnection) {
	if conn == nil {
		return
	}
	key := poolKey(conn.TransportType(), conn.LastAddress())

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.retire(conn)
		return
	}
	found := p.findLocked(key, conn.ID())
	if found == nil {
		p.mu.Unlock()
		p.logger.Warn("Returned connection does not belong to the pool",
			zap.String("connection_id", conn.ID()))
		p.retire(conn)
		return
	}
	if !conn.IsConnected() {
		p.removeLocked(key, found)
		p.mu.Unlock()
		p.retire(conn)
		return
	}
	found.available = true
	found.lastUsed = time.Now()
	p.mu.Unlock()

	if p.registry != nil {
		p.registry.Touch(conn.ID())
	}
}

// Remove evicts a connection from the pool and releases it.
func (p *Pool) Remove(conn transport.ScannerConnection) {
	if conn == nil {
		return
	}
	key := poolKey(conn.TransportType(), conn.LastAddress())

	p.mu.Lock()
	if found := p.findLocked(key, conn.ID()); found != nil {
		p.removeLocked(key, found)
	}
	p.mu.Unlock()

	p.retire(conn)
}

// Shutdown stops the sweep and releases every pooled connection, busy ones
// included. The pool refuses new checkouts afterwards.
func (p *Pool) Shutdown() {
	p.stopOnce.Do(func() {
		close(p.stop)
		if p.started.Load() {
			<-p.done
		}
	})

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	var conns []transport.ScannerConnection
	for _, list := range p.entries {
		for _, e := range list {
			if e.conn != nil {
				conns = append(conns, e.conn)
			}
		}
	}
	p.entries = make(map[string][]*entry)
	p.mu.Unlock()

	p.retire(conns...)
	p.logger.Info("Connection pool shut down", zap.Int("released", len(conns)))
}

// Stats summarizes pool occupancy for status endpoints.
type Stats struct {
	Total     int            `json:"total"`
	Available int            `json:"available"`
	PerKey    map[string]int `json:"per_key"`
}

func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	stats := Stats{PerKey: make(map[string]int, len(p.entries))}
	for key, list := range p.entries {
		stats.Total += len(list)
		stats.PerKey[key] = len(list)
		for _, e := range list {
			if e.available {
				stats.Available++
			}
		}
	}
	return stats
}

// Size returns the number of pooled connections, busy and available.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, list := range p.entries {
		n += len(list)
	}
	return n
}

// sweep retires available connections idle past the timeout.
func (p *Pool) sweep(now time.Time) {
	var evicted []transport.ScannerConnection

	p.mu.Lock()
	for key, list := range p.entries {
		kept := list[:0]
		for _, e := range list {
			if e.available && e.conn != nil && now.Sub(e.lastUsed) > p.config.IdleTimeout {
				evicted = append(evicted, e.conn)
				continue
			}
			kept = append(kept, e)
		}
		if len(kept) == 0 {
			delete(p.entries, key)
		} else {
			p.entries[key] = kept
		}
	}
	p.mu.Unlock()

	for _, conn := range evicted {
		p.logger.Debug("Evicting idle pooled connection",
			zap.String("connection_id", conn.ID()))
	}
	p.retire(evicted...)
}

// retire unregisters and releases connections that left the pool.
func (p *Pool) retire(conns ...transport.ScannerConnection) {
	for _, conn := range conns {
		if conn == nil {
			continue
		}
		if p.registry != nil {
			p.registry.Unregister(conn.ID())
		}
		if err := conn.Release(); err != nil {
			p.logger.Warn("Failed to release pooled connection",
				zap.String("connection_id", conn.ID()),
				zap.Error(err))
		}
	}
}

// discard drops a reserved slot that never received its connection.
func (p *Pool) discard(key string, slot *entry) {
	p.mu.Lock()
	p.removeLocked(key, slot)
	p.mu.Unlock()
}

// findLocked locates the entry holding a connection id. Caller holds mu.
func (p *Pool) findLocked(key, id string) *entry {
	for _, e := range p.entries[key] {
		if e.conn != nil && e.conn.ID() == id {
			return e
		}
	}
	return nil
}

// removeLocked drops one entry from a key's slice. Caller holds mu.
func (p *Pool) removeLocked(key string, target *entry) {
	list := p.entries[key]
	for i, e := range list {
		if e == target {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(p.entries, key)
	} else {
		p.entries[key] = list
	}
}

func poolKey(transportType transport.TransportType, address string) string {
	return string(transportType) + ":" + address
}
