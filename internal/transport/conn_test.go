// internal/transport/conn_test.go
package transport

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig() ConnectionConfig {
	return ConnectionConfig{
		ConnectTimeout:       200 * time.Millisecond,
		ReadTimeout:          200 * time.Millisecond,
		WriteTimeout:         200 * time.Millisecond,
		AutoReconnect:        false,
		MaxReconnectAttempts: 3,
		ReconnectBaseDelay:   20 * time.Millisecond,
		ReconnectMaxDelay:    80 * time.Millisecond,
		BufferSize:           256,
	}
}

func newTestConnection(t *testing.T, d *MockDialer) ScannerConnection {
	t.Helper()
	c := NewConnection(d, zap.NewNop())
	t.Cleanup(func() { _ = c.Release() })
	return c
}

// waitForKind drains the subscription until the wanted state kind shows up.
func waitForKind(t *testing.T, ch <-chan ConnectionState, kind StateKind) ConnectionState {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case s, ok := <-ch:
			require.True(t, ok, "state channel closed while waiting for %s", kind)
			if s.Kind == kind {
				return s
			}
		case <-deadline:
			t.Fatalf("timed out waiting for state %s", kind)
		}
	}
}

// TestConnectLifecycle covers the happy path through the state machine.
func TestConnectLifecycle(t *testing.T) {
	t.Parallel()

	t.Run("publishes connecting then connected", func(t *testing.T) {
		t.Parallel()
		d := NewMockDialer(TransportWiFi, NewMockLink())
		c := newTestConnection(t, d)
		states, unsub := c.States()
		defer unsub()

		info, err := c.Connect(context.Background(), "192.168.0.10:35000", testConfig())
		require.NoError(t, err)
		require.NotNil(t, info)

		waitForKind(t, states, KindConnecting)
		connected := waitForKind(t, states, KindConnected)
		require.NotNil(t, connected.Info)
		assert.Equal(t, "192.168.0.10:35000", connected.Info.RemoteAddress)

		assert.True(t, c.IsConnected())
		assert.Equal(t, KindConnected, c.State().Kind)
		assert.Equal(t, TransportWiFi, info.TransportType)
		assert.Equal(t, "192.168.0.10:35000", c.LastAddress())
		assert.False(t, info.ConnectedAt.IsZero())
	})

	t.Run("negotiates mtu from the buffer size", func(t *testing.T) {
		t.Parallel()
		d := NewMockDialer(TransportWiFi, NewMockLink())
		c := newTestConnection(t, d)

		cfg := testConfig()
		cfg.BufferSize = 512
		info, err := c.Connect(context.Background(), "192.168.0.10:35000", cfg)
		require.NoError(t, err)
		assert.Equal(t, 512, info.MTU)
	})

	t.Run("second connect is a no-op", func(t *testing.T) {
		t.Parallel()
		d := NewMockDialer(TransportSerial, NewMockLink())
		c := newTestConnection(t, d)

		first, err := c.Connect(context.Background(), "/dev/ttyUSB0", testConfig())
		require.NoError(t, err)
		second, err := c.Connect(context.Background(), "/dev/ttyUSB0", testConfig())
		require.NoError(t, err)

		assert.Equal(t, 1, d.DialCount())
		assert.Same(t, first, second)
	})

	t.Run("rejects invalid config without dialing", func(t *testing.T) {
		t.Parallel()
		d := NewMockDialer(TransportSerial, NewMockLink())
		c := newTestConnection(t, d)

		cfg := testConfig()
		cfg.ConnectTimeout = 0
		_, err := c.Connect(context.Background(), "/dev/ttyUSB0", cfg)
		require.Error(t, err)
		assert.True(t, IsCode(err, CodeConfigurationInvalid))
		assert.Equal(t, 0, d.DialCount())
		assert.Equal(t, KindDisconnected, c.State().Kind)
	})

	t.Run("disconnect returns to idle and closes the link", func(t *testing.T) {
		t.Parallel()
		d := NewMockDialer(TransportSerial, NewMockLink())
		c := newTestConnection(t, d)

		_, err := c.Connect(context.Background(), "/dev/ttyUSB0", testConfig())
		require.NoError(t, err)

		require.NoError(t, c.Disconnect(true))
		assert.False(t, c.IsConnected())
		assert.Equal(t, KindDisconnected, c.State().Kind)
		assert.True(t, d.LastLink.IsClosed())
	})
}

// TestConnectFailures covers the failure and cancellation exits from the
// connecting state.
func TestConnectFailures(t *testing.T) {
	t.Parallel()

	t.Run("dial timeout parks the machine in recoverable failed", func(t *testing.T) {
		t.Parallel()
		d := NewMockDialer(TransportWiFi, nil)
		d.DialDelay = 500 * time.Millisecond
		c := newTestConnection(t, d)

		cfg := testConfig()
		cfg.ConnectTimeout = 50 * time.Millisecond
		_, err := c.Connect(context.Background(), "192.168.0.10:35000", cfg)
		require.Error(t, err)
		assert.True(t, IsCode(err, CodeTimeoutFailure))
		assert.True(t, IsRecoverable(err))

		state := c.State()
		assert.Equal(t, KindFailed, state.Kind)
		assert.True(t, state.Recoverable)
	})

	t.Run("cancellation returns the machine to disconnected", func(t *testing.T) {
		t.Parallel()
		d := NewMockDialer(TransportWiFi, nil)
		d.DialDelay = 500 * time.Millisecond
		c := newTestConnection(t, d)

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(30 * time.Millisecond)
			cancel()
		}()

		_, err := c.Connect(ctx, "192.168.0.10:35000", testConfig())
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, KindDisconnected, c.State().Kind)
	})

	t.Run("permanent dial error is non-recoverable", func(t *testing.T) {
		t.Parallel()
		d := NewMockDialer(TransportSerial, nil)
		d.Error = errors.New("permission denied")
		c := newTestConnection(t, d)

		_, err := c.Connect(context.Background(), "/dev/ttyUSB0", testConfig())
		require.Error(t, err)
		assert.False(t, IsRecoverable(err))

		state := c.State()
		assert.Equal(t, KindFailed, state.Kind)
		assert.False(t, state.Recoverable)
	})

	t.Run("released connection refuses to connect", func(t *testing.T) {
		t.Parallel()
		c := newTestConnection(t, NewMockDialer(TransportSerial, NewMockLink()))
		require.NoError(t, c.Release())

		_, err := c.Connect(context.Background(), "/dev/ttyUSB0", testConfig())
		require.Error(t, err)
	})
}

// TestSendCommand exercises the framed write plus terminator read path.
func TestSendCommand(t *testing.T) {
	t.Parallel()

	t.Run("round trip with prompt terminator", func(t *testing.T) {
		t.Parallel()
		link := NewMockLink()
		link.Responder = func(written []byte) []byte {
			return []byte("41 00 BE 3F B8 13\r\n>")
		}
		c := newTestConnection(t, NewMockDialer(TransportWiFi, link))
		_, err := c.Connect(context.Background(), "192.168.0.10:35000", testConfig())
		require.NoError(t, err)

		res, err := c.SendCommand(context.Background(), "0100", 500*time.Millisecond, ">")
		require.NoError(t, err)
		assert.False(t, res.Partial)
		assert.Contains(t, res.Data, "41 00")
		assert.True(t, bytes.HasSuffix(link.WrittenData(), []byte("0100\r")))
	})

	t.Run("appends carriage return only when missing", func(t *testing.T) {
		t.Parallel()
		link := NewMockLink()
		link.Responder = func([]byte) []byte { return []byte("OK>") }
		c := newTestConnection(t, NewMockDialer(TransportSerial, link))
		_, err := c.Connect(context.Background(), "/dev/ttyUSB0", testConfig())
		require.NoError(t, err)

		_, err = c.SendCommand(context.Background(), "ATE0\r", 500*time.Millisecond, ">")
		require.NoError(t, err)
		written := link.WrittenData()
		assert.True(t, bytes.HasSuffix(written, []byte("ATE0\r")))
		assert.False(t, bytes.HasSuffix(written, []byte("\r\r")))
	})

	t.Run("discards stale bytes before writing", func(t *testing.T) {
		t.Parallel()
		link := NewMockLink()
		link.Responder = func([]byte) []byte { return []byte("FRESH>") }
		c := newTestConnection(t, NewMockDialer(TransportWiFi, link))
		_, err := c.Connect(context.Background(), "192.168.0.10:35000", testConfig())
		require.NoError(t, err)

		link.QueueRead([]byte("STALE>"))
		require.Eventually(t, func() bool { return c.Available() > 0 },
			time.Second, 5*time.Millisecond)

		res, err := c.SendCommand(context.Background(), "ATI", 500*time.Millisecond, ">")
		require.NoError(t, err)
		assert.Equal(t, "FRESH>", res.Data)
	})

	t.Run("updates the statistics counters", func(t *testing.T) {
		t.Parallel()
		link := NewMockLink()
		link.Responder = func([]byte) []byte { return []byte("OK>") }
		c := newTestConnection(t, NewMockDialer(TransportWiFi, link))
		_, err := c.Connect(context.Background(), "192.168.0.10:35000", testConfig())
		require.NoError(t, err)

		_, err = c.SendCommand(context.Background(), "ATI", 500*time.Millisecond, ">")
		require.NoError(t, err)

		snap := c.Statistics()
		assert.Equal(t, int64(1), snap.CommandsSent)
		assert.Equal(t, int64(1), snap.ResponsesReceived)
		assert.Equal(t, int64(4), snap.BytesSent) // "ATI\r"
		assert.Equal(t, int64(3), snap.BytesReceived)
		assert.Greater(t, snap.MaxResponseTime, time.Duration(0))
	})
}

// TestReadUntil exercises terminator scanning, carry-over, and the lenient
// partial-result behavior.
func TestReadUntil(t *testing.T) {
	t.Parallel()

	t.Run("keeps bytes past the terminator for the next read", func(t *testing.T) {
		t.Parallel()
		link := NewMockLink()
		c := newTestConnection(t, NewMockDialer(TransportWiFi, link))
		_, err := c.Connect(context.Background(), "192.168.0.10:35000", testConfig())
		require.NoError(t, err)

		link.QueueRead([]byte("41 00 AA>tail"))
		res, err := c.ReadUntil(context.Background(), ">", 500*time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, "41 00 AA>", res.Data)
		assert.False(t, res.Partial)

		link.QueueRead([]byte("more>"))
		res, err = c.ReadUntil(context.Background(), ">", 500*time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, "tailmore>", res.Data)
	})

	t.Run("returns partial data on deadline", func(t *testing.T) {
		t.Parallel()
		link := NewMockLink()
		c := newTestConnection(t, NewMockDialer(TransportWiFi, link))
		_, err := c.Connect(context.Background(), "192.168.0.10:35000", testConfig())
		require.NoError(t, err)

		link.QueueRead([]byte("41 0"))
		res, err := c.ReadUntil(context.Background(), ">", 100*time.Millisecond)
		require.NoError(t, err)
		assert.True(t, res.Partial)
		assert.Equal(t, "41 0", res.Data)
	})

	t.Run("times out when nothing arrives", func(t *testing.T) {
		t.Parallel()
		link := NewMockLink()
		c := newTestConnection(t, NewMockDialer(TransportWiFi, link))
		_, err := c.Connect(context.Background(), "192.168.0.10:35000", testConfig())
		require.NoError(t, err)

		_, err = c.ReadUntil(context.Background(), ">", 60*time.Millisecond)
		require.Error(t, err)
		assert.True(t, IsCode(err, CodeTimeoutFailure))
		assert.True(t, IsRecoverable(err))
	})

	t.Run("rejects an empty terminator", func(t *testing.T) {
		t.Parallel()
		c := newTestConnection(t, NewMockDialer(TransportWiFi, NewMockLink()))
		_, err := c.ReadUntil(context.Background(), "", time.Second)
		require.Error(t, err)
		assert.True(t, IsCode(err, CodeConfigurationInvalid))
	})

	t.Run("delivers buffered data after a link failure", func(t *testing.T) {
		t.Parallel()
		link := NewMockLink()
		c := newTestConnection(t, NewMockDialer(TransportWiFi, link))
		states, unsub := c.States()
		defer unsub()

		_, err := c.Connect(context.Background(), "192.168.0.10:35000", testConfig())
		require.NoError(t, err)
		waitForKind(t, states, KindConnected)

		link.QueueRead([]byte("half"))
		require.Eventually(t, func() bool { return c.Available() > 0 },
			time.Second, 5*time.Millisecond)
		link.FailNextRead(io.EOF)
		waitForKind(t, states, KindFailed)

		res, err := c.ReadUntil(context.Background(), ">", 100*time.Millisecond)
		require.NoError(t, err)
		assert.True(t, res.Partial)
		assert.Equal(t, "half", res.Data)
	})
}

// TestLinkFailure covers unexpected read-pump errors.
func TestLinkFailure(t *testing.T) {
	t.Parallel()

	t.Run("without auto reconnect parks in recoverable failed", func(t *testing.T) {
		t.Parallel()
		link := NewMockLink()
		c := newTestConnection(t, NewMockDialer(TransportWiFi, link))
		states, unsub := c.States()
		defer unsub()

		_, err := c.Connect(context.Background(), "192.168.0.10:35000", testConfig())
		require.NoError(t, err)
		waitForKind(t, states, KindConnected)

		link.FailNextRead(io.ErrUnexpectedEOF)
		failed := waitForKind(t, states, KindFailed)
		assert.True(t, failed.Recoverable)
		assert.False(t, c.IsConnected())
	})

	t.Run("with auto reconnect re-establishes the session", func(t *testing.T) {
		t.Parallel()
		link := NewMockLink()
		d := NewMockDialer(TransportWiFi, link)
		c := newTestConnection(t, d)
		states, unsub := c.States()
		defer unsub()

		cfg := testConfig()
		cfg.AutoReconnect = true
		_, err := c.Connect(context.Background(), "192.168.0.10:35000", cfg)
		require.NoError(t, err)
		waitForKind(t, states, KindConnected)

		link.FailNextRead(io.EOF)
		waitForKind(t, states, KindReconnecting)
		waitForKind(t, states, KindConnected)

		assert.True(t, c.IsConnected())
		assert.GreaterOrEqual(t, d.DialCount(), 2)
	})
}

// TestReconnect covers the backoff loop.
func TestReconnect(t *testing.T) {
	t.Parallel()

	t.Run("backs off exponentially between attempts", func(t *testing.T) {
		t.Parallel()
		d := NewMockDialer(TransportWiFi, NewMockLink())
		c := newTestConnection(t, d)
		_, err := c.Connect(context.Background(), "192.168.0.10:35000", testConfig())
		require.NoError(t, err)

		d.Error = errors.New("connection reset by peer")
		d.FailTimes = 2

		start := time.Now()
		info, err := c.Reconnect(context.Background())
		require.NoError(t, err)
		require.NotNil(t, info)

		// attempt 1 immediate, attempt 2 after 40ms, attempt 3 after 80ms
		assert.GreaterOrEqual(t, time.Since(start), 110*time.Millisecond)
		assert.Equal(t, 4, d.DialCount())
		assert.True(t, c.IsConnected())
	})

	t.Run("aborts immediately on a non-recoverable error", func(t *testing.T) {
		t.Parallel()
		d := NewMockDialer(TransportWiFi, NewMockLink())
		c := newTestConnection(t, d)
		_, err := c.Connect(context.Background(), "192.168.0.10:35000", testConfig())
		require.NoError(t, err)

		d.Error = errors.New("invalid address: adapter rejected route")
		d.FailTimes = 5

		_, err = c.Reconnect(context.Background())
		require.Error(t, err)
		assert.Equal(t, 2, d.DialCount())

		state := c.State()
		assert.Equal(t, KindFailed, state.Kind)
		assert.False(t, state.Recoverable)
		assert.Equal(t, 1, state.AttemptCount)
	})

	t.Run("exhausts attempts and reports the count", func(t *testing.T) {
		t.Parallel()
		d := NewMockDialer(TransportWiFi, NewMockLink())
		c := newTestConnection(t, d)
		_, err := c.Connect(context.Background(), "192.168.0.10:35000", testConfig())
		require.NoError(t, err)

		d.Error = errors.New("connection reset by peer")
		d.FailTimes = 99

		_, err = c.Reconnect(context.Background())
		require.Error(t, err)

		var ce *Error
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, 3, ce.Attempts)
		assert.False(t, ce.Recoverable)

		state := c.State()
		assert.Equal(t, KindFailed, state.Kind)
		assert.Equal(t, 3, state.AttemptCount)
		assert.False(t, state.Recoverable)
	})

	t.Run("cancels cleanly between attempts", func(t *testing.T) {
		t.Parallel()
		d := NewMockDialer(TransportWiFi, NewMockLink())
		c := newTestConnection(t, d)

		cfg := testConfig()
		cfg.ReconnectBaseDelay = 100 * time.Millisecond
		cfg.ReconnectMaxDelay = time.Second
		_, err := c.Connect(context.Background(), "192.168.0.10:35000", cfg)
		require.NoError(t, err)

		d.Error = errors.New("connection reset by peer")
		d.FailTimes = 99

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(50 * time.Millisecond)
			cancel()
		}()

		_, err = c.Reconnect(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, KindDisconnected, c.State().Kind)
	})

	t.Run("fails without a previous address", func(t *testing.T) {
		t.Parallel()
		c := newTestConnection(t, NewMockDialer(TransportWiFi, NewMockLink()))
		_, err := c.Reconnect(context.Background())
		require.Error(t, err)
	})
}

// TestBackoffDelay pins the backoff schedule.
func TestBackoffDelay(t *testing.T) {
	t.Parallel()

	base := 20 * time.Millisecond
	max := 80 * time.Millisecond

	tests := []struct {
		name    string
		attempt int
		want    time.Duration
	}{
		{"first attempt never sleeps", 1, 0},
		{"second attempt doubles once", 2, 40 * time.Millisecond},
		{"third attempt reaches the cap", 3, 80 * time.Millisecond},
		{"fourth attempt stays capped", 4, 80 * time.Millisecond},
		{"huge attempt stays capped", 40, 80 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, backoffDelay(tt.attempt, base, max))
		})
	}

	t.Run("zero base never sleeps", func(t *testing.T) {
		assert.Equal(t, time.Duration(0), backoffDelay(3, 0, max))
	})
}

// TestBufferAccounting covers Available, Read, and ClearBuffers.
func TestBufferAccounting(t *testing.T) {
	t.Parallel()

	t.Run("available tracks queued and consumed bytes", func(t *testing.T) {
		t.Parallel()
		link := NewMockLink()
		c := newTestConnection(t, NewMockDialer(TransportWiFi, link))
		_, err := c.Connect(context.Background(), "192.168.0.10:35000", testConfig())
		require.NoError(t, err)
		assert.Equal(t, 0, c.Available())

		link.QueueRead([]byte("12345"))
		require.Eventually(t, func() bool { return c.Available() == 5 },
			time.Second, 5*time.Millisecond)

		data, err := c.Read(context.Background(), 200*time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, "12345", string(data))
		assert.Equal(t, 0, c.Available())
	})

	t.Run("clear buffers drops queued data", func(t *testing.T) {
		t.Parallel()
		link := NewMockLink()
		c := newTestConnection(t, NewMockDialer(TransportWiFi, link))
		_, err := c.Connect(context.Background(), "192.168.0.10:35000", testConfig())
		require.NoError(t, err)

		link.QueueRead([]byte("0123456789"))
		require.Eventually(t, func() bool { return c.Available() == 10 },
			time.Second, 5*time.Millisecond)

		c.ClearBuffers()
		assert.Equal(t, 0, c.Available())

		_, err = c.Read(context.Background(), 50*time.Millisecond)
		require.Error(t, err)
		assert.True(t, IsCode(err, CodeTimeoutFailure))
	})

	t.Run("read without a session fails fast", func(t *testing.T) {
		t.Parallel()
		c := newTestConnection(t, NewMockDialer(TransportWiFi, NewMockLink()))
		_, err := c.Read(context.Background(), 50*time.Millisecond)
		require.Error(t, err)
		assert.True(t, IsCode(err, CodeCommunicationFailure))
	})
}

// TestWrite covers the bounded write path.
func TestWrite(t *testing.T) {
	t.Parallel()

	t.Run("write to a disconnected connection fails", func(t *testing.T) {
		t.Parallel()
		c := newTestConnection(t, NewMockDialer(TransportSerial, NewMockLink()))
		_, err := c.Write(context.Background(), []byte("ATZ\r"))
		require.Error(t, err)
		assert.True(t, IsCode(err, CodeCommunicationFailure))
	})

	t.Run("write errors surface with classification", func(t *testing.T) {
		t.Parallel()
		link := NewMockLink()
		c := newTestConnection(t, NewMockDialer(TransportSerial, link))
		_, err := c.Connect(context.Background(), "/dev/ttyUSB0", testConfig())
		require.NoError(t, err)

		link.WriteError = errors.New("broken pipe")
		_, err = c.Write(context.Background(), []byte("ATZ\r"))
		require.Error(t, err)
		assert.True(t, IsRecoverable(err))
	})

	t.Run("write counts sent bytes", func(t *testing.T) {
		t.Parallel()
		link := NewMockLink()
		c := newTestConnection(t, NewMockDialer(TransportSerial, link))
		_, err := c.Connect(context.Background(), "/dev/ttyUSB0", testConfig())
		require.NoError(t, err)

		n, err := c.Write(context.Background(), []byte("ABC"))
		require.NoError(t, err)
		assert.Equal(t, 3, n)
		assert.Equal(t, int64(3), c.Statistics().BytesSent)
	})
}

// TestKeepAlive verifies probe traffic shares the write path.
func TestKeepAlive(t *testing.T) {
	t.Parallel()

	link := NewMockLink()
	c := newTestConnection(t, NewMockDialer(TransportBluetooth, link))

	cfg := testConfig()
	cfg.KeepAliveInterval = 25 * time.Millisecond
	_, err := c.Connect(context.Background(), "AA:BB:CC:11:22:33", cfg)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return bytes.Count(link.WrittenData(), []byte("\r")) >= 2
	}, time.Second, 10*time.Millisecond)
}

// TestStates covers subscription mechanics.
func TestStates(t *testing.T) {
	t.Parallel()

	t.Run("slow subscribers never block transitions", func(t *testing.T) {
		t.Parallel()
		d := NewMockDialer(TransportWiFi, nil)
		c := newTestConnection(t, d)
		_, unsub := c.States() // never read
		defer unsub()

		for i := 0; i < 5; i++ {
			_, err := c.Connect(context.Background(), "192.168.0.10:35000", testConfig())
			require.NoError(t, err)
			require.NoError(t, c.Disconnect(false))
		}
		assert.Equal(t, KindDisconnected, c.State().Kind)
	})

	t.Run("unsubscribe closes the channel", func(t *testing.T) {
		t.Parallel()
		c := newTestConnection(t, NewMockDialer(TransportWiFi, NewMockLink()))
		ch, unsub := c.States()
		unsub()

		_, ok := <-ch
		assert.False(t, ok)
	})
}

// TestRelease pins the idempotent retirement contract.
func TestRelease(t *testing.T) {
	t.Parallel()

	t.Run("release is idempotent", func(t *testing.T) {
		t.Parallel()
		link := NewMockLink()
		c := NewConnection(NewMockDialer(TransportWiFi, link), zap.NewNop())

		_, err := c.Connect(context.Background(), "192.168.0.10:35000", testConfig())
		require.NoError(t, err)

		require.NoError(t, c.Release())
		require.NoError(t, c.Release())
		assert.True(t, link.IsClosed())
		assert.Equal(t, KindDisconnected, c.State().Kind)
	})

	t.Run("release closes subscriber channels", func(t *testing.T) {
		t.Parallel()
		c := NewConnection(NewMockDialer(TransportWiFi, NewMockLink()), zap.NewNop())
		ch, _ := c.States()
		require.NoError(t, c.Release())

		for {
			if _, ok := <-ch; !ok {
				return
			}
		}
	})
}
