// internal/transport/conn.go
package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	inboundQueueDepth = 64
	pumpDrainTimeout  = 250 * time.Millisecond
	pumpExitTimeout   = time.Second
)

// keepAliveProbe is a bare carriage return: AT-style adapters answer it
// with a fresh prompt without disturbing command state.
var keepAliveProbe = []byte("\r")

// session holds the per-connect resources torn down together.
type session struct {
	link    Link
	inbound chan []byte
	cancel  context.CancelFunc
	done    chan struct{}
}

// conn is the shared connection engine. Per-transport behavior is confined
// to the Dialer; everything else (state machine, locking, buffering,
// statistics, reconnection) lives here.
type conn struct {
	id            string
	transportType TransportType
	dialer        Dialer
	logger        *zap.Logger

	// Locks, one per operation class. connMu serializes
	// connect/disconnect/reconnect, writeMu serializes writes (the
	// keep-alive loop shares it), readMu serializes reads and owns the
	// carry-over buffer.
	connMu  sync.Mutex
	writeMu sync.Mutex
	readMu  sync.Mutex

	// stateMu guards the state value, its subscribers, and the live
	// session; every transition broadcasts inside the same critical
	// section so late subscribers never observe a stale current value.
	stateMu sync.RWMutex
	state   ConnectionState
	subs    map[string]chan ConnectionState
	sess    *session
	info    *ConnectionInfo

	lastAddress string
	config      ConnectionConfig

	carry   []byte // bytes read past a terminator, owned by readMu
	pending atomic.Int64

	stats         *Statistics
	released      atomic.Bool
	wantConnected atomic.Bool
}

// NewConnection builds a connection around the given dialer. Transports
// wrap this with their own constructors; tests inject mock dialers.
func NewConnection(dialer Dialer, logger *zap.Logger) ScannerConnection {
	id := uuid.New().String()
	c := &conn{
		id:            id,
		transportType: dialer.TransportType(),
		dialer:        dialer,
		logger: logger.With(
			zap.String("transport", string(dialer.TransportType())),
			zap.String("connection_id", id[:8]),
		),
		state: StateDisconnected(),
		subs:  make(map[string]chan ConnectionState),
	}
	c.stats = NewStatistics(func(snap StatisticsSnapshot) {
		c.logger.Warn("Connection quality degraded",
			zap.Int64("commands_sent", snap.CommandsSent),
			zap.Int64("error_count", snap.ErrorCount),
			zap.Duration("avg_response_time", snap.AvgResponseTime),
		)
	})
	return c
}

func (c *conn) ID() string                   { return c.id }
func (c *conn) TransportType() TransportType { return c.transportType }

func (c *conn) LastAddress() string {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.lastAddress
}

// State returns the current state under the transition lock.
func (c *conn) State() ConnectionState {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

// States subscribes to state transitions. Slow subscribers lose events
// rather than blocking transitions.
func (c *conn) States() (<-chan ConnectionState, func()) {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	id := uuid.New().String()
	ch := make(chan ConnectionState, 8)
	c.subs[id] = ch

	unsubscribe := func() {
		c.stateMu.Lock()
		defer c.stateMu.Unlock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
		}
	}
	return ch, unsubscribe
}

func (c *conn) IsConnected() bool {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state.Kind == KindConnected
}

func (c *conn) Statistics() StatisticsSnapshot {
	return c.stats.Snapshot()
}

// setState transitions and broadcasts under stateMu. Identical consecutive
// states are not re-published.
func (c *conn) setState(s ConnectionState) {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	c.setStateLocked(s)
}

func (c *conn) setStateLocked(s ConnectionState) {
	if sameState(c.state, s) {
		return
	}
	c.state = s
	for _, sub := range c.subs {
		select {
		case sub <- s:
		default:
			// Subscriber is slow; it can resynchronize via State().
		}
	}
}

func sameState(a, b ConnectionState) bool {
	return a.Kind == b.Kind &&
		a.Attempt == b.Attempt &&
		a.Cause == b.Cause &&
		a.Recoverable == b.Recoverable
}

// Connect establishes the link. Already-connected instances short-circuit.
func (c *conn) Connect(ctx context.Context, address string, config ConnectionConfig) (*ConnectionInfo, error) {
	if c.released.Load() {
		return nil, &Error{Code: CodeConnectionFailure, Message: "connection has been released", Address: address}
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	c.connMu.Lock()
	defer c.connMu.Unlock()

	c.stateMu.RLock()
	if c.state.Kind == KindConnected {
		info := c.info
		c.stateMu.RUnlock()
		c.logger.Debug("Connect called while connected, reusing session",
			zap.String("address", address))
		return info, nil
	}
	c.stateMu.RUnlock()

	// Sweep any session left behind by a link failure.
	c.teardownSession(false)

	c.setState(StateConnecting())
	c.logger.Info("Connecting",
		zap.String("address", address),
		zap.Duration("connect_timeout", config.ConnectTimeout))

	start := time.Now()
	info, err := c.establish(ctx, address, config)
	if err != nil {
		elapsed := time.Since(start)
		c.stats.RecordError()

		// A caller-initiated cancel is not a failure of the link; the
		// machine returns to idle instead of an error state.
		if ctx.Err() != nil && errors.Is(ctx.Err(), context.Canceled) {
			c.setState(StateDisconnected())
			return nil, &Error{
				Code:    CodeConnectionFailure,
				Message: "connect canceled",
				Address: address,
				Elapsed: elapsed,
				Err:     ctx.Err(),
			}
		}

		var connErr *Error
		if errors.Is(err, context.DeadlineExceeded) {
			connErr = timeoutError("connect", address, elapsed)
		} else {
			connErr = &Error{
				Code:        CodeConnectionFailure,
				Message:     "connect failed",
				Address:     address,
				Elapsed:     elapsed,
				Recoverable: Categorize(err),
				Err:         err,
			}
		}
		c.setState(StateFailed(connErr.Error(), connErr.Recoverable, 0))
		c.logger.Error("Connect failed",
			zap.String("address", address),
			zap.Duration("elapsed", elapsed),
			zap.Bool("recoverable", connErr.Recoverable),
			zap.Error(err))
		return nil, connErr
	}

	c.logger.Info("Connected",
		zap.String("address", address),
		zap.Int("mtu", info.MTU),
		zap.Duration("elapsed", time.Since(start)))
	return info, nil
}

// establish dials and starts the session goroutines without touching the
// Connecting/Failed states; Connect and Reconnect own those transitions.
// Caller holds connMu.
func (c *conn) establish(ctx context.Context, address string, config ConnectionConfig) (*ConnectionInfo, error) {
	dialCtx, cancel := context.WithTimeout(ctx, config.ConnectTimeout)
	defer cancel()

	link, info, err := c.dialer.Dial(dialCtx, address, config)
	if err != nil {
		return nil, err
	}

	if info == nil {
		info = &ConnectionInfo{RemoteAddress: address}
	}
	if info.MTU == 0 {
		info.MTU = config.BufferSize
	}
	info.TransportType = c.transportType
	info.ConnectedAt = time.Now()

	pumpCtx, pumpCancel := context.WithCancel(context.Background())
	s := &session{
		link:    link,
		inbound: make(chan []byte, inboundQueueDepth),
		cancel:  pumpCancel,
		done:    make(chan struct{}),
	}

	c.stateMu.Lock()
	c.sess = s
	c.info = info
	c.lastAddress = address
	c.config = config
	c.setStateLocked(StateConnected(info))
	c.stateMu.Unlock()

	c.wantConnected.Store(true)
	c.stats.MarkConnected()

	go c.readPump(pumpCtx, s, config.BufferSize)
	if config.KeepAliveInterval > 0 {
		go c.keepAliveLoop(pumpCtx, config.KeepAliveInterval)
	}
	return info, nil
}

// readPump is the sole reader of the link. It feeds inbound chunks to the
// consumer channel and reports link failure when the session is still
// supposed to be alive.
func (c *conn) readPump(ctx context.Context, s *session, bufferSize int) {
	defer close(s.done)
	defer close(s.inbound)

	buf := make([]byte, bufferSize)
	for {
		n, err := s.link.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			c.pending.Add(int64(n))
			select {
			case s.inbound <- chunk:
			case <-ctx.Done():
				c.pending.Add(int64(-n))
				return
			}
		}
		if err != nil {
			if ctx.Err() != nil {
				return // deliberate teardown
			}
			c.handleLinkFailure(s, err)
			return
		}
	}
}

// handleLinkFailure reacts to an unexpected read error: tears the session
// down and either schedules automatic reconnection or parks the machine in
// a recoverable failed state.
func (c *conn) handleLinkFailure(s *session, err error) {
	c.stateMu.Lock()
	if c.sess != s {
		c.stateMu.Unlock()
		return // stale session, already replaced
	}
	// The session stays referenced so bytes that arrived before the
	// failure remain drainable; the next connect or disconnect sweeps it.
	c.info = nil
	autoReconnect := c.config.AutoReconnect
	maxAttempts := c.config.MaxReconnectAttempts
	s.cancel()
	s.link.Close()

	recoverable := Categorize(err)
	cause := fmt.Sprintf("connection lost: %v", err)
	if autoReconnect && maxAttempts > 0 {
		c.setStateLocked(StateReconnecting(1, maxAttempts))
	} else {
		c.setStateLocked(StateFailed(cause, recoverable, 0))
	}
	c.stateMu.Unlock()

	c.stats.RecordError()
	c.stats.MarkDisconnected()
	c.logger.Warn("Connection lost",
		zap.Bool("auto_reconnect", autoReconnect),
		zap.Bool("recoverable", recoverable),
		zap.Error(err))

	if autoReconnect && maxAttempts > 0 {
		go c.autoReconnect()
	}
}

func (c *conn) autoReconnect() {
	if c.released.Load() || !c.wantConnected.Load() {
		return
	}
	if _, err := c.Reconnect(context.Background()); err != nil {
		c.logger.Error("Automatic reconnection failed", zap.Error(err))
	}
}

// Reconnect retries the last address with exponential backoff:
// min(base*2^(attempt-1), max), sleeping before every attempt but the
// first. A non-recoverable failure aborts the loop immediately.
func (c *conn) Reconnect(ctx context.Context) (*ConnectionInfo, error) {
	if c.released.Load() {
		return nil, &Error{Code: CodeConnectionFailure, Message: "connection has been released"}
	}

	c.connMu.Lock()
	defer c.connMu.Unlock()

	address := c.LastAddress()
	if address == "" {
		return nil, &Error{Code: CodeConnectionFailure, Message: "no previous address to reconnect to"}
	}
	config := c.currentConfig()

	c.teardownSession(false)

	maxAttempts := config.MaxReconnectAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	start := time.Now()
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		c.setState(StateReconnecting(attempt, maxAttempts))

		if delay := backoffDelay(attempt, config.ReconnectBaseDelay, config.ReconnectMaxDelay); delay > 0 {
			c.logger.Info("Waiting before reconnect attempt",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", maxAttempts),
				zap.Duration("delay", delay))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				c.setState(StateDisconnected())
				return nil, &Error{
					Code:    CodeConnectionFailure,
					Message: "reconnect canceled",
					Address: address,
					Elapsed: time.Since(start),
					Err:     ctx.Err(),
				}
			}
		}

		info, err := c.establish(ctx, address, config)
		if err == nil {
			c.logger.Info("Reconnected",
				zap.String("address", address),
				zap.Int("attempt", attempt))
			return info, nil
		}
		lastErr = err
		c.stats.RecordError()

		if !IsRecoverable(err) {
			connErr := &Error{
				Code:        CodeConnectionFailure,
				Message:     "reconnect aborted on non-recoverable error",
				Address:     address,
				Elapsed:     time.Since(start),
				Attempts:    attempt,
				Recoverable: false,
				Err:         err,
			}
			c.setState(StateFailed(connErr.Error(), false, attempt))
			c.logger.Error("Reconnect aborted", zap.Int("attempt", attempt), zap.Error(err))
			return nil, connErr
		}
		c.logger.Warn("Reconnect attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", maxAttempts),
			zap.Error(err))
	}

	connErr := &Error{
		Code:        CodeConnectionFailure,
		Message:     "reconnect attempts exhausted",
		Address:     address,
		Elapsed:     time.Since(start),
		Attempts:    maxAttempts,
		Recoverable: false,
		Err:         lastErr,
	}
	c.setState(StateFailed(connErr.Error(), false, maxAttempts))
	return nil, connErr
}

// backoffDelay computes min(base*2^(attempt-1), max); the first attempt
// never sleeps.
func backoffDelay(attempt int, base, max time.Duration) time.Duration {
	if attempt <= 1 || base <= 0 {
		return 0
	}
	if attempt > 32 {
		return max
	}
	delay := base << uint(attempt-1)
	if max > 0 && (delay > max || delay <= 0) {
		return max
	}
	return delay
}

// Disconnect tears the session down and returns the machine to idle.
func (c *conn) Disconnect(graceful bool) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	c.wantConnected.Store(false)
	c.teardownSession(graceful)
	c.setState(StateDisconnected())
	c.logger.Info("Disconnected", zap.Bool("graceful", graceful))
	return nil
}

// teardownSession closes the live session, if any. Caller holds connMu.
func (c *conn) teardownSession(graceful bool) {
	c.stateMu.Lock()
	s := c.sess
	c.sess = nil
	c.info = nil
	c.stateMu.Unlock()

	if s != nil {
		s.cancel()
		if graceful {
			select {
			case <-s.done:
			case <-time.After(pumpDrainTimeout):
			}
		}
		s.link.Close()
		select {
		case <-s.done:
		case <-time.After(pumpExitTimeout):
			c.logger.Warn("Read pump did not exit in time")
		}
		c.stats.MarkDisconnected()
	}

	c.readMu.Lock()
	c.discardBuffersLocked(s)
	c.readMu.Unlock()
}

// Release permanently retires the connection. Idempotent: only the first
// call tears anything down.
func (c *conn) Release() error {
	if !c.released.CompareAndSwap(false, true) {
		return nil
	}

	c.connMu.Lock()
	defer c.connMu.Unlock()

	c.wantConnected.Store(false)
	c.teardownSession(false)

	c.stateMu.Lock()
	c.setStateLocked(StateDisconnected())
	for id, sub := range c.subs {
		delete(c.subs, id)
		close(sub)
	}
	c.stateMu.Unlock()

	c.logger.Info("Connection released")
	return nil
}

func (c *conn) currentSession() *session {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.sess
}

func (c *conn) currentConfig() ConnectionConfig {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.config
}

// Write sends raw bytes under the write lock, bounded by the write timeout.
func (c *conn) Write(ctx context.Context, data []byte) (int, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.writeLocked(ctx, data)
}

func (c *conn) writeLocked(ctx context.Context, data []byte) (int, error) {
	s := c.currentSession()
	if s == nil {
		return 0, &Error{Code: CodeCommunicationFailure, Message: "not connected", Address: c.LastAddress()}
	}

	cfg := c.currentConfig()
	timeout := cfg.WriteTimeout
	start := time.Now()

	type writeResult struct {
		n   int
		err error
	}
	done := make(chan writeResult, 1)
	go func() {
		n, err := s.link.Write(data)
		done <- writeResult{n, err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-done:
		if res.err != nil {
			c.stats.RecordError()
			return res.n, &Error{
				Code:        CodeCommunicationFailure,
				Message:     "write failed",
				Address:     c.LastAddress(),
				Elapsed:     time.Since(start),
				Recoverable: Categorize(res.err),
				Err:         res.err,
			}
		}
		if res.n != len(data) {
			c.stats.RecordError()
			return res.n, &Error{
				Code:    CodeCommunicationFailure,
				Message: fmt.Sprintf("incomplete write: wrote %d of %d bytes", res.n, len(data)),
				Address: c.LastAddress(),
			}
		}
		if cfg.FlushAfterWrite {
			if f, ok := s.link.(Flusher); ok {
				if err := f.Flush(); err != nil {
					c.logger.Debug("Flush after write failed", zap.Error(err))
				}
			}
		}
		c.stats.RecordSend(res.n)
		return res.n, nil
	case <-timer.C:
		c.stats.RecordError()
		return 0, timeoutError("write", c.LastAddress(), time.Since(start))
	case <-ctx.Done():
		c.stats.RecordError()
		return 0, &Error{
			Code:    CodeCommunicationFailure,
			Message: "write canceled",
			Address: c.LastAddress(),
			Elapsed: time.Since(start),
			Err:     ctx.Err(),
		}
	}
}

// Read returns the next buffered chunk, waiting up to timeout (the
// configured read timeout when zero).
func (c *conn) Read(ctx context.Context, timeout time.Duration) ([]byte, error) {
	c.readMu.Lock()
	defer c.readMu.Unlock()

	if len(c.carry) > 0 {
		data := c.carry
		c.carry = nil
		c.pending.Add(int64(-len(data)))
		c.stats.RecordReceive(len(data))
		return data, nil
	}

	s := c.currentSession()
	if s == nil {
		return nil, &Error{Code: CodeCommunicationFailure, Message: "not connected", Address: c.LastAddress()}
	}
	if timeout <= 0 {
		timeout = c.currentConfig().ReadTimeout
	}

	start := time.Now()
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case chunk, ok := <-s.inbound:
		if !ok {
			c.stats.RecordError()
			return nil, &Error{
				Code:        CodeCommunicationFailure,
				Message:     "connection lost during read",
				Address:     c.LastAddress(),
				Recoverable: true,
			}
		}
		c.pending.Add(int64(-len(chunk)))
		c.stats.RecordReceive(len(chunk))
		return chunk, nil
	case <-timer.C:
		c.stats.RecordError()
		return nil, timeoutError("read", c.LastAddress(), time.Since(start))
	case <-ctx.Done():
		return nil, &Error{
			Code:    CodeCommunicationFailure,
			Message: "read canceled",
			Address: c.LastAddress(),
			Elapsed: time.Since(start),
			Err:     ctx.Err(),
		}
	}
}

// ReadUntil accumulates bytes until the terminator substring appears or
// the deadline passes. Leftover bytes past the terminator are pushed back
// for the next read. On deadline, accumulated data is returned as a
// partial result rather than discarded.
func (c *conn) ReadUntil(ctx context.Context, terminator string, timeout time.Duration) (ReadResult, error) {
	if terminator == "" {
		return ReadResult{}, &Error{Code: CodeConfigurationInvalid, Message: "terminator must not be empty"}
	}

	c.readMu.Lock()
	defer c.readMu.Unlock()
	return c.readUntilLocked(ctx, terminator, timeout)
}

func (c *conn) readUntilLocked(ctx context.Context, terminator string, timeout time.Duration) (ReadResult, error) {
	if timeout <= 0 {
		timeout = c.currentConfig().ReadTimeout
	}
	term := []byte(terminator)
	deadline := time.Now().Add(timeout)
	start := time.Now()

	acc := c.carry
	c.carry = nil

	for {
		if idx := bytes.Index(acc, term); idx >= 0 {
			end := idx + len(term)
			if end < len(acc) {
				c.carry = append([]byte(nil), acc[end:]...)
			}
			data := acc[:end]
			c.pending.Add(int64(-len(data)))
			c.stats.RecordReceive(len(data))
			return ReadResult{Data: string(data)}, nil
		}

		s := c.currentSession()
		if s == nil {
			c.carry = acc
			return ReadResult{}, &Error{Code: CodeCommunicationFailure, Message: "not connected", Address: c.LastAddress()}
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return c.partialResult(acc, start)
		}

		timer := time.NewTimer(remaining)
		select {
		case chunk, ok := <-s.inbound:
			timer.Stop()
			if !ok {
				// Link died mid-read: whatever accumulated is still
				// delivered as a partial response.
				if len(acc) > 0 {
					return c.partialResult(acc, start)
				}
				c.stats.RecordError()
				return ReadResult{}, &Error{
					Code:        CodeCommunicationFailure,
					Message:     "connection lost during read",
					Address:     c.LastAddress(),
					Recoverable: true,
				}
			}
			acc = append(acc, chunk...)
		case <-timer.C:
			return c.partialResult(acc, start)
		case <-ctx.Done():
			timer.Stop()
			c.carry = acc
			return ReadResult{}, &Error{
				Code:    CodeCommunicationFailure,
				Message: "read canceled",
				Address: c.LastAddress(),
				Elapsed: time.Since(start),
				Err:     ctx.Err(),
			}
		}
	}
}

// partialResult resolves a deadline hit: data accumulated so far wins over
// a timeout error.
func (c *conn) partialResult(acc []byte, start time.Time) (ReadResult, error) {
	if len(acc) > 0 {
		c.pending.Add(int64(-len(acc)))
		c.stats.RecordReceive(len(acc))
		return ReadResult{Data: string(acc), Partial: true}, nil
	}
	c.stats.RecordError()
	return ReadResult{}, timeoutError("read", c.LastAddress(), time.Since(start))
}

// SendCommand frames the command with a carriage return, sends it, and
// reads the response up to the terminator, measuring the round trip.
func (c *conn) SendCommand(ctx context.Context, command string, timeout time.Duration, terminator string) (ReadResult, error) {
	if terminator == "" {
		return ReadResult{}, &Error{Code: CodeConfigurationInvalid, Message: "terminator must not be empty"}
	}

	// Stale bytes from a previous exchange would satisfy the terminator
	// search prematurely.
	c.ClearBuffers()

	framed := command
	if !strings.HasSuffix(framed, "\r") {
		framed += "\r"
	}

	c.stats.RecordCommand()
	start := time.Now()

	if _, err := c.Write(ctx, []byte(framed)); err != nil {
		return ReadResult{}, err
	}

	c.readMu.Lock()
	result, err := c.readUntilLocked(ctx, terminator, timeout)
	c.readMu.Unlock()
	if err != nil {
		return ReadResult{}, err
	}

	c.stats.RecordResponse(time.Since(start))
	c.logger.Debug("Command round trip",
		zap.String("command", command),
		zap.Duration("rtt", time.Since(start)),
		zap.Bool("partial", result.Partial))
	return result, nil
}

// ClearBuffers discards the carry-over buffer and any queued inbound
// chunks.
func (c *conn) ClearBuffers() {
	c.readMu.Lock()
	defer c.readMu.Unlock()
	c.discardBuffersLocked(c.currentSession())
}

func (c *conn) discardBuffersLocked(s *session) {
	if n := len(c.carry); n > 0 {
		c.pending.Add(int64(-n))
		c.carry = nil
	}
	if s == nil {
		return
	}
	for {
		select {
		case chunk, ok := <-s.inbound:
			if !ok {
				return
			}
			c.pending.Add(int64(-len(chunk)))
		default:
			return
		}
	}
}

// Available reports buffered inbound bytes not yet delivered to a caller.
func (c *conn) Available() int {
	n := c.pending.Load()
	if n < 0 {
		return 0
	}
	return int(n)
}

// keepAliveLoop shares the write lock with foreground commands so probe
// bytes never interleave with a command frame.
func (c *conn) keepAliveLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.writeMu.Lock()
			_, err := c.writeLocked(ctx, keepAliveProbe)
			c.writeMu.Unlock()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				c.logger.Debug("Keep-alive probe failed", zap.Error(err))
			}
		}
	}
}
