// internal/transport/statistics.go
package transport

import (
	"sync/atomic"
	"time"
)

// Degradation thresholds, evaluated every degradationWindow commands.
const (
	degradationWindow      = 10
	degradationErrorRate   = 0.20
	degradationAvgResponse = 10 * time.Second
)

// Statistics accumulates per-connection I/O counters. All mutation is
// lock-free; Snapshot gives callers a consistent-enough read-only view.
type Statistics struct {
	bytesSent         atomic.Int64
	bytesReceived     atomic.Int64
	commandsSent      atomic.Int64
	responsesReceived atomic.Int64
	errorCount        atomic.Int64

	minResponseNs   atomic.Int64 // 0 until the first response
	maxResponseNs   atomic.Int64
	totalResponseNs atomic.Int64

	lastActivityNs atomic.Int64
	connectedAtNs  atomic.Int64

	// onDegraded fires when the sliding check trips; never fatal.
	onDegraded func(StatisticsSnapshot)
}

// StatisticsSnapshot is the read-only view handed to callers.
type StatisticsSnapshot struct {
	BytesSent         int64         `json:"bytes_sent"`
	BytesReceived     int64         `json:"bytes_received"`
	CommandsSent      int64         `json:"commands_sent"`
	ResponsesReceived int64         `json:"responses_received"`
	ErrorCount        int64         `json:"error_count"`
	MinResponseTime   time.Duration `json:"min_response_time"`
	AvgResponseTime   time.Duration `json:"avg_response_time"`
	MaxResponseTime   time.Duration `json:"max_response_time"`
	LastActivity      time.Time     `json:"last_activity"`
	Uptime            time.Duration `json:"uptime"`
}

// NewStatistics builds a counter set; onDegraded may be nil.
func NewStatistics(onDegraded func(StatisticsSnapshot)) *Statistics {
	return &Statistics{onDegraded: onDegraded}
}

func (s *Statistics) touch() {
	s.lastActivityNs.Store(time.Now().UnixNano())
}

// MarkConnected stamps the uptime baseline.
func (s *Statistics) MarkConnected() {
	s.connectedAtNs.Store(time.Now().UnixNano())
	s.touch()
}

// MarkDisconnected clears the uptime baseline.
func (s *Statistics) MarkDisconnected() {
	s.connectedAtNs.Store(0)
}

// RecordSend counts outbound payload bytes.
func (s *Statistics) RecordSend(n int) {
	s.bytesSent.Add(int64(n))
	s.touch()
}

// RecordReceive counts inbound payload bytes.
func (s *Statistics) RecordReceive(n int) {
	s.bytesReceived.Add(int64(n))
	s.touch()
}

// RecordCommand counts a command dispatch and runs the sliding
// degradation check every degradationWindow commands.
func (s *Statistics) RecordCommand() {
	count := s.commandsSent.Add(1)
	s.touch()
	if count%degradationWindow != 0 {
		return
	}
	snap := s.Snapshot()
	errorRate := float64(snap.ErrorCount) / float64(count)
	if errorRate > degradationErrorRate || snap.AvgResponseTime > degradationAvgResponse {
		if s.onDegraded != nil {
			s.onDegraded(snap)
		}
	}
}

// RecordResponse counts a completed round trip and folds its time into the
// min/avg/max aggregates.
func (s *Statistics) RecordResponse(rtt time.Duration) {
	s.responsesReceived.Add(1)
	s.totalResponseNs.Add(int64(rtt))
	s.touch()

	for {
		cur := s.minResponseNs.Load()
		if cur != 0 && cur <= int64(rtt) {
			break
		}
		if s.minResponseNs.CompareAndSwap(cur, int64(rtt)) {
			break
		}
	}
	for {
		cur := s.maxResponseNs.Load()
		if cur >= int64(rtt) {
			break
		}
		if s.maxResponseNs.CompareAndSwap(cur, int64(rtt)) {
			break
		}
	}
}

// RecordError counts a failed operation.
func (s *Statistics) RecordError() {
	s.errorCount.Add(1)
	s.touch()
}

// Snapshot materializes the counters.
func (s *Statistics) Snapshot() StatisticsSnapshot {
	snap := StatisticsSnapshot{
		BytesSent:         s.bytesSent.Load(),
		BytesReceived:     s.bytesReceived.Load(),
		CommandsSent:      s.commandsSent.Load(),
		ResponsesReceived: s.responsesReceived.Load(),
		ErrorCount:        s.errorCount.Load(),
		MinResponseTime:   time.Duration(s.minResponseNs.Load()),
		MaxResponseTime:   time.Duration(s.maxResponseNs.Load()),
	}
	if responses := snap.ResponsesReceived; responses > 0 {
		snap.AvgResponseTime = time.Duration(s.totalResponseNs.Load() / responses)
	}
	if last := s.lastActivityNs.Load(); last > 0 {
		snap.LastActivity = time.Unix(0, last)
	}
	if since := s.connectedAtNs.Load(); since > 0 {
		snap.Uptime = time.Since(time.Unix(0, since))
	}
	return snap
}
