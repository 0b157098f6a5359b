// internal/transport/statistics_test.go
package transport

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestStatisticsAggregates checks counter and response-time math.
func TestStatisticsAggregates(t *testing.T) {
	t.Parallel()

	s := NewStatistics(nil)
	s.MarkConnected()
	s.RecordSend(5)
	s.RecordSend(3)
	s.RecordReceive(20)
	s.RecordCommand()
	s.RecordResponse(10 * time.Millisecond)
	s.RecordCommand()
	s.RecordResponse(30 * time.Millisecond)
	s.RecordError()

	snap := s.Snapshot()
	assert.Equal(t, int64(8), snap.BytesSent)
	assert.Equal(t, int64(20), snap.BytesReceived)
	assert.Equal(t, int64(2), snap.CommandsSent)
	assert.Equal(t, int64(2), snap.ResponsesReceived)
	assert.Equal(t, int64(1), snap.ErrorCount)
	assert.Equal(t, 10*time.Millisecond, snap.MinResponseTime)
	assert.Equal(t, 20*time.Millisecond, snap.AvgResponseTime)
	assert.Equal(t, 30*time.Millisecond, snap.MaxResponseTime)
	assert.False(t, snap.LastActivity.IsZero())
	assert.GreaterOrEqual(t, snap.Uptime, time.Duration(0))
}

// TestStatisticsDegradation pins the sliding-window quality check.
func TestStatisticsDegradation(t *testing.T) {
	t.Parallel()

	t.Run("fires when the error rate crosses the threshold", func(t *testing.T) {
		t.Parallel()
		var fired atomic.Int32
		s := NewStatistics(func(StatisticsSnapshot) { fired.Add(1) })

		for i := 0; i < 3; i++ {
			s.RecordError()
		}
		for i := 0; i < 10; i++ {
			s.RecordCommand()
		}
		assert.Equal(t, int32(1), fired.Load())
	})

	t.Run("fires when responses crawl", func(t *testing.T) {
		t.Parallel()
		var fired atomic.Int32
		s := NewStatistics(func(StatisticsSnapshot) { fired.Add(1) })

		for i := 0; i < 10; i++ {
			s.RecordCommand()
			s.RecordResponse(11 * time.Second)
		}
		assert.Equal(t, int32(1), fired.Load())
	})

	t.Run("stays quiet under both thresholds", func(t *testing.T) {
		t.Parallel()
		var fired atomic.Int32
		s := NewStatistics(func(StatisticsSnapshot) { fired.Add(1) })

		s.RecordError() // 10% of the window
		for i := 0; i < 20; i++ {
			s.RecordCommand()
			s.RecordResponse(50 * time.Millisecond)
		}
		assert.Equal(t, int32(0), fired.Load())
	})

	t.Run("only evaluates at window boundaries", func(t *testing.T) {
		t.Parallel()
		var fired atomic.Int32
		s := NewStatistics(func(StatisticsSnapshot) { fired.Add(1) })

		for i := 0; i < 5; i++ {
			s.RecordError()
		}
		for i := 0; i < 9; i++ {
			s.RecordCommand()
		}
		require.Equal(t, int32(0), fired.Load())
		s.RecordCommand()
		assert.Equal(t, int32(1), fired.Load())
	})
}
