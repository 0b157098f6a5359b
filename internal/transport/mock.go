// internal/transport/mock.go
package transport

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"
)

// MockLink implements Link with configurable behaviour for testing.
// Reads block until data is queued or the link is closed, matching how a
// real socket or serial port behaves under the read pump.
type MockLink struct {
	mu sync.Mutex

	// ReadBuffer holds data to be returned by Read calls
	ReadBuffer *bytes.Buffer

	// WriteBuffer captures data written to the link
	WriteBuffer *bytes.Buffer

	// Responder, when set, is called with each written payload and its
	// return value (if non-nil) is queued for subsequent reads
	Responder func(written []byte) []byte

	// ReadError is returned by the next Read call if set
	ReadError error

	// WriteError is returned by the next Write call if set
	WriteError error

	// WriteLatency adds a delay to each Write call
	WriteLatency time.Duration

	// Closed indicates whether Close was called
	Closed bool

	// WriteCalls records the number of Write calls
	WriteCalls int

	readCond *sync.Cond
}

// NewMockLink creates a MockLink ready for use as a dialer's link.
func NewMockLink() *MockLink {
	l := &MockLink{
		ReadBuffer:  bytes.NewBuffer(nil),
		WriteBuffer: bytes.NewBuffer(nil),
	}
	l.readCond = sync.NewCond(&l.mu)
	return l
}

// Read blocks until data, an injected error, or Close.
func (l *MockLink) Read(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for {
		if l.ReadError != nil {
			err := l.ReadError
			l.ReadError = nil
			return 0, err
		}
		if l.ReadBuffer.Len() > 0 {
			return l.ReadBuffer.Read(p)
		}
		if l.Closed {
			return 0, io.EOF
		}
		l.readCond.Wait()
	}
}

// Write records the payload and feeds the responder, if any.
func (l *MockLink) Write(p []byte) (int, error) {
	l.mu.Lock()

	l.WriteCalls++
	if l.Closed {
		l.mu.Unlock()
		return 0, io.ErrClosedPipe
	}
	if l.WriteError != nil {
		err := l.WriteError
		l.WriteError = nil
		l.mu.Unlock()
		return 0, err
	}
	if l.WriteLatency > 0 {
		l.mu.Unlock()
		time.Sleep(l.WriteLatency)
		l.mu.Lock()
	}

	l.WriteBuffer.Write(p)
	responder := l.Responder
	l.mu.Unlock()

	if responder != nil {
		if resp := responder(append([]byte(nil), p...)); resp != nil {
			l.QueueRead(resp)
		}
	}
	return len(p), nil
}

// Close wakes any blocked reader, which then sees io.EOF.
func (l *MockLink) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.Closed = true
	l.readCond.Broadcast()
	return nil
}

// QueueRead adds data to be returned by subsequent Read calls.
func (l *MockLink) QueueRead(data []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.ReadBuffer.Write(data)
	l.readCond.Broadcast()
}

// FailNextRead injects an error into the next Read call and wakes a
// blocked reader so it is observed immediately.
func (l *MockLink) FailNextRead(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.ReadError = err
	l.readCond.Broadcast()
}

// WrittenData returns everything written to the link so far.
func (l *MockLink) WrittenData() []byte {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]byte, l.WriteBuffer.Len())
	copy(out, l.WriteBuffer.Bytes())
	return out
}

// IsClosed reports whether Close was called.
func (l *MockLink) IsClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.Closed
}

// MockDialCall records details of a Dial call.
type MockDialCall struct {
	Address string
	Config  ConnectionConfig
}

// MockDialer implements Dialer for testing.
type MockDialer struct {
	mu sync.Mutex

	// Transport is the transport type reported to the connection
	Transport TransportType

	// Link is returned from Dial; when nil a fresh MockLink is created
	// per call
	Link *MockLink

	// Error is returned by Dial if set
	Error error

	// FailTimes makes the first N dials fail with Error before the
	// dialer starts succeeding
	FailTimes int

	// DialDelay simulates connection latency; honours context deadlines
	DialDelay time.Duration

	// MTU, when non-zero, overrides the negotiated payload size
	MTU int

	// SignalStrength, when non-nil, is attached to the connection info
	SignalStrength *int

	// DialCalls records all Dial calls
	DialCalls []MockDialCall

	// LastLink is the link handed out by the most recent successful Dial
	LastLink *MockLink
}

// NewMockDialer creates a dialer that hands out the given link.
func NewMockDialer(t TransportType, link *MockLink) *MockDialer {
	return &MockDialer{Transport: t, Link: link}
}

func (d *MockDialer) TransportType() TransportType {
	if d.Transport == "" {
		return TransportSerial
	}
	return d.Transport
}

// Dial returns the configured link or error, simulating latency first.
func (d *MockDialer) Dial(ctx context.Context, address string, config ConnectionConfig) (Link, *ConnectionInfo, error) {
	d.mu.Lock()
	d.DialCalls = append(d.DialCalls, MockDialCall{Address: address, Config: config})
	delay := d.DialDelay
	d.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.FailTimes > 0 {
		d.FailTimes--
		err := d.Error
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		return nil, nil, err
	}
	if d.Error != nil {
		return nil, nil, d.Error
	}

	link := d.Link
	if link == nil || link.IsClosed() {
		link = NewMockLink()
	}
	d.LastLink = link

	mtu := d.MTU
	if mtu == 0 {
		mtu = config.BufferSize
	}
	info := &ConnectionInfo{
		RemoteAddress:  address,
		MTU:            mtu,
		SignalStrength: d.SignalStrength,
		TransportType:  d.TransportType(),
	}
	return link, info, nil
}

// DialCount returns how many times Dial was invoked.
func (d *MockDialer) DialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.DialCalls)
}
