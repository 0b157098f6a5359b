// internal/transport/errors_test.go
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCategorize pins the recoverable/non-recoverable classification.
func TestCategorize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"context deadline", context.DeadlineExceeded, true},
		{"io EOF", io.EOF, true},
		{"unexpected EOF", io.ErrUnexpectedEOF, true},
		{"closed network connection", net.ErrClosed, true},
		{"timeout text", errors.New("read timeout on port"), true},
		{"timed out text", errors.New("operation timed out"), true},
		{"connection lost", errors.New("connection lost: device gone"), true},
		{"network unreachable", errors.New("connect: network unreachable"), true},
		{"connection reset", errors.New("connection reset by peer"), true},
		{"broken pipe", errors.New("write: broken pipe"), true},
		{"invalid address", errors.New("invalid address supplied"), false},
		{"not found", errors.New("device not found"), false},
		{"no such file", errors.New("no such file or directory"), false},
		{"permission denied", errors.New("permission denied opening port"), false},
		{"authentication", errors.New("authentication failed"), false},
		{"permanent wins over transient", errors.New("device not found after timeout"), false},
		{"unknown fails closed", errors.New("some inscrutable failure"), false},
		{"refused is not classified transient", errors.New("dial tcp: connection refused"), false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Categorize(tt.err))
		})
	}
}

// TestErrorFormatting checks the diagnostic rendering and unwrapping.
func TestErrorFormatting(t *testing.T) {
	t.Parallel()

	t.Run("renders every populated field", func(t *testing.T) {
		t.Parallel()
		inner := errors.New("socket shut")
		err := &Error{
			Code:     CodeConnectionFailure,
			Message:  "connect failed",
			Address:  "192.168.0.10:35000",
			Elapsed:  1500 * time.Millisecond,
			Attempts: 3,
			Err:      inner,
		}
		msg := err.Error()
		assert.Contains(t, msg, "CONNECTION_FAILURE")
		assert.Contains(t, msg, "connect failed")
		assert.Contains(t, msg, "192.168.0.10:35000")
		assert.Contains(t, msg, "1.5s")
		assert.Contains(t, msg, "attempts=3")
		assert.Contains(t, msg, "socket shut")
		assert.ErrorIs(t, err, inner)
	})

	t.Run("omits empty context", func(t *testing.T) {
		t.Parallel()
		err := &Error{Code: CodeTimeoutFailure, Message: "read deadline exceeded"}
		assert.Equal(t, "TIMEOUT_FAILURE: read deadline exceeded", err.Error())
	})
}

// TestCodeExtraction covers CodeOf and IsCode through wrapping.
func TestCodeExtraction(t *testing.T) {
	t.Parallel()

	base := &Error{Code: CodeResourceExhausted, Message: "pool full"}
	wrapped := fmt.Errorf("checkout: %w", base)

	assert.Equal(t, CodeResourceExhausted, CodeOf(wrapped))
	assert.True(t, IsCode(wrapped, CodeResourceExhausted))
	assert.False(t, IsCode(wrapped, CodeTimeoutFailure))
	assert.Equal(t, FailureCode(""), CodeOf(errors.New("plain")))
}

// TestIsRecoverable verifies the explicit flag takes precedence over
// classification.
func TestIsRecoverable(t *testing.T) {
	t.Parallel()

	t.Run("core error flag wins", func(t *testing.T) {
		t.Parallel()
		flagged := &Error{Code: CodeConnectionFailure, Message: "invalid address", Recoverable: true}
		require.True(t, IsRecoverable(flagged))

		unflagged := &Error{Code: CodeTimeoutFailure, Message: "timeout", Recoverable: false}
		require.False(t, IsRecoverable(unflagged))
	})

	t.Run("plain errors are classified", func(t *testing.T) {
		t.Parallel()
		assert.True(t, IsRecoverable(errors.New("broken pipe")))
		assert.False(t, IsRecoverable(errors.New("permission denied")))
	})
}
