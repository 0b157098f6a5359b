// internal/detect/engine_test.go
package detect

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sarapudheen-ops/spacetec-sub001/internal/transport"
	"github.com/sarapudheen-ops/spacetec-sub001/pkg/obd"
)

const probeReply = "41 00 BE 3F B8 13>"

var protocolsByCode = func() map[string]obd.Protocol {
	m := make(map[string]obd.Protocol)
	for _, p := range obd.AllProtocols() {
		m[p.Code()] = p
	}
	m[obd.ProtocolAuto.Code()] = obd.ProtocolAuto
	return m
}()

// scriptedPort plays an ELM327 adapter attached to a vehicle that answers
// only on the configured protocols.
type scriptedPort struct {
	alive        map[obd.Protocol]string
	latency      map[obd.Protocol]time.Duration
	rejectSelect map[obd.Protocol]bool
	flakes       map[obd.Protocol]int
	current      obd.Protocol
	commands     []string
}

func newScriptedPort() *scriptedPort {
	return &scriptedPort{
		alive:        make(map[obd.Protocol]string),
		latency:      make(map[obd.Protocol]time.Duration),
		rejectSelect: make(map[obd.Protocol]bool),
		flakes:       make(map[obd.Protocol]int),
	}
}

func (s *scriptedPort) SendCommand(ctx context.Context, command string, timeout time.Duration, terminator string) (transport.ReadResult, error) {
	if err := ctx.Err(); err != nil {
		return transport.ReadResult{}, err
	}
	s.commands = append(s.commands, command)

	if code, ok := strings.CutPrefix(command, "ATSP"); ok {
		p, known := protocolsByCode[code]
		if !known || s.rejectSelect[p] {
			return transport.ReadResult{Data: "?>"}, nil
		}
		s.current = p
		return transport.ReadResult{Data: "OK>"}, nil
	}

	if command == obd.ProbeCommand {
		if d := s.latency[s.current]; d > 0 {
			time.Sleep(d)
		}
		if s.flakes[s.current] > 0 {
			s.flakes[s.current]--
			return transport.ReadResult{Data: "NO DATA>"}, nil
		}
		if reply, ok := s.alive[s.current]; ok {
			return transport.ReadResult{Data: reply}, nil
		}
		return transport.ReadResult{Data: "UNABLE TO CONNECT>"}, nil
	}

	return transport.ReadResult{Data: "OK>"}, nil
}

func (s *scriptedPort) probeCount() int {
	n := 0
	for _, c := range s.commands {
		if c == obd.ProbeCommand {
			n++
		}
	}
	return n
}

func fastOptions() Options {
	opts := DefaultOptions()
	opts.RetryDelay = 5 * time.Millisecond
	opts.CommandTimeout = 100 * time.Millisecond
	opts.TotalTimeout = 2 * time.Second
	return opts
}

// eventLog collects progress events; delivery is synchronous so no lock is
// needed.
type eventLog struct {
	events []ProgressEvent
}

func (l *eventLog) record(ev ProgressEvent) {
	l.events = append(l.events, ev)
}

func (l *eventLog) stages() []Stage {
	out := make([]Stage, len(l.events))
	for i, ev := range l.events {
		out[i] = ev.Stage
	}
	return out
}

func TestDetectModernVehicle(t *testing.T) {
	t.Parallel()

	port := newScriptedPort()
	port.alive[obd.ProtocolISO15765CAN11Bit500K] = probeReply
	engine := NewEngine(port, zap.NewNop())

	var log eventLog
	opts := fastOptions()
	opts.OnProgress = log.record

	result, err := engine.Detect(context.Background(),
		&obd.VehicleInfo{Make: "Toyota", Year: 2015}, opts)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, obd.ProtocolISO15765CAN11Bit500K, result.Protocol)
	assert.InDelta(t, 1.0, result.Confidence, 1e-9, "fast CAN match on a modern vehicle maxes out")
	assert.Equal(t, []obd.Protocol{obd.ProtocolISO15765CAN11Bit500K}, result.ProtocolsTried)
	assert.False(t, result.FallbackUsed)
	assert.Equal(t,
		[]Stage{StageStarted, StageTestingProtocol, StageProtocolTested, StageDetected},
		log.stages())
}

func TestDetectPreferredProtocolFirst(t *testing.T) {
	t.Parallel()

	port := newScriptedPort()
	port.alive[obd.ProtocolISO9141_2] = probeReply
	engine := NewEngine(port, zap.NewNop())

	opts := fastOptions()
	opts.Preferred = obd.ProtocolISO9141_2

	result, err := engine.Detect(context.Background(), nil, opts)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, obd.ProtocolISO9141_2, result.Protocol)
	require.Len(t, result.ProtocolsTried, 1, "preferred protocol answers on the first try")
}

func TestDetectRetries(t *testing.T) {
	t.Parallel()

	t.Run("second attempt succeeds", func(t *testing.T) {
		t.Parallel()
		port := newScriptedPort()
		port.alive[obd.ProtocolISO15765CAN11Bit500K] = probeReply
		port.flakes[obd.ProtocolISO15765CAN11Bit500K] = 1
		engine := NewEngine(port, zap.NewNop())

		opts := fastOptions()
		opts.RetriesPerProtocol = 2

		result, err := engine.Detect(context.Background(),
			&obd.VehicleInfo{Year: 2016}, opts)
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, 2, port.probeCount())
	})

	t.Run("single attempt moves on after a flake", func(t *testing.T) {
		t.Parallel()
		port := newScriptedPort()
		port.alive[obd.ProtocolISO15765CAN11Bit500K] = probeReply
		port.flakes[obd.ProtocolISO15765CAN11Bit500K] = 1
		engine := NewEngine(port, zap.NewNop())

		opts := fastOptions()
		opts.RetriesPerProtocol = 1
		opts.EnableFallback = false

		result, err := engine.Detect(context.Background(),
			&obd.VehicleInfo{Year: 2016}, opts)
		require.Error(t, err)
		assert.False(t, result.Success)
		assert.True(t, transport.IsCode(err, transport.CodeProtocolFailure))
	})
}

func TestDetectFallback(t *testing.T) {
	t.Parallel()

	// A 2015 vehicle hint, but the car actually answers on ISO 9141-2.
	// The modern-focused primary pass must come up empty and the common
	// bundle must find it.
	port := newScriptedPort()
	port.alive[obd.ProtocolISO9141_2] = probeReply
	engine := NewEngine(port, zap.NewNop())

	var log eventLog
	opts := fastOptions()
	opts.RetriesPerProtocol = 1
	opts.OnProgress = log.record

	result, err := engine.Detect(context.Background(),
		&obd.VehicleInfo{Year: 2015}, opts)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.True(t, result.FallbackUsed)
	assert.Equal(t, obd.ProtocolISO9141_2, result.Protocol)
	assert.Len(t, result.ProtocolsTried, 5, "four modern candidates plus the fallback hit")

	var strategies []string
	for _, ev := range log.events {
		if ev.Stage == StageFallbackStrategy {
			strategies = append(strategies, ev.Strategy)
		}
	}
	assert.Equal(t, []string{string(FallbackCommonProtocols)}, strategies,
		"the exhausted modern bundle is skipped without an event")
}

func TestDetectSkipSet(t *testing.T) {
	t.Parallel()

	port := newScriptedPort()
	port.alive[obd.ProtocolISO15765CAN11Bit500K] = probeReply
	engine := NewEngine(port, zap.NewNop())

	opts := fastOptions()
	opts.RetriesPerProtocol = 1
	opts.Skip = []obd.Protocol{obd.ProtocolISO15765CAN11Bit500K}

	result, err := engine.Detect(context.Background(),
		&obd.VehicleInfo{Year: 2015}, opts)
	require.Error(t, err)

	assert.False(t, result.Success)
	assert.True(t, transport.IsCode(err, transport.CodeProtocolFailure))
	assert.NotContains(t, result.ProtocolsTried, obd.ProtocolISO15765CAN11Bit500K,
		"skip binds the fallback bundles too")
}

func TestDetectCancellation(t *testing.T) {
	t.Parallel()

	port := newScriptedPort()
	engine := NewEngine(port, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var log eventLog
	opts := fastOptions()
	opts.RetriesPerProtocol = 1
	opts.OnProgress = func(ev ProgressEvent) {
		log.record(ev)
		if ev.Stage == StageProtocolTested {
			cancel()
		}
	}

	result, err := engine.Detect(ctx, nil, opts)
	require.ErrorIs(t, err, context.Canceled)

	assert.False(t, result.Success)
	assert.Len(t, result.ProtocolsTried, 1, "cancellation is honored before the next candidate")
	stages := log.stages()
	assert.Equal(t, StageCancelled, stages[len(stages)-1])
}

func TestDetectTotalTimeout(t *testing.T) {
	t.Parallel()

	port := newScriptedPort()
	port.latency[obd.ProtocolISO15765CAN11Bit500K] = 80 * time.Millisecond
	engine := NewEngine(port, zap.NewNop())

	opts := fastOptions()
	opts.RetriesPerProtocol = 1
	opts.TotalTimeout = 50 * time.Millisecond

	result, err := engine.Detect(context.Background(), nil, opts)
	require.Error(t, err)

	assert.True(t, transport.IsCode(err, transport.CodeTimeoutFailure))
	assert.True(t, transport.IsRecoverable(err))
	assert.False(t, result.Success)
	require.NotEmpty(t, result.ProtocolsTried, "partial tried list survives the abort")
}

func TestConfidence(t *testing.T) {
	t.Parallel()

	modern := &obd.VehicleInfo{Year: 2018}
	truck := &obd.VehicleInfo{Make: "Kenworth"}
	european := &obd.VehicleInfo{Make: "BMW", Year: 1999}
	american := &obd.VehicleInfo{Make: "Ford", Year: 1998}

	tests := []struct {
		name     string
		protocol obd.Protocol
		latency  time.Duration
		vehicle  *obd.VehicleInfo
		want     float64
	}{
		{"fast CAN on modern vehicle clamps to one", obd.ProtocolISO15765CAN11Bit500K, 500 * time.Millisecond, modern, 1.0},
		{"fast J1939 on heavy duty clamps to one", obd.ProtocolSAEJ1939CAN29Bit250K, 500 * time.Millisecond, truck, 1.0},
		{"KWP on european legacy", obd.ProtocolISO14230KWPFast, 700 * time.Millisecond, european, 0.95},
		{"J1850 on american legacy, mid latency", obd.ProtocolSAEJ1850VPW, 1500 * time.Millisecond, american, 0.85},
		{"slow response, no hints", obd.ProtocolISO9141_2, 2500 * time.Millisecond, nil, 0.6},
		{"very slow response scores base only", obd.ProtocolISO9141_2, 4 * time.Second, nil, 0.5},
		{"legacy protocol on modern vehicle gets no affinity", obd.ProtocolISO9141_2, 500 * time.Millisecond, modern, 0.8},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, Confidence(tt.protocol, tt.latency, tt.vehicle), 1e-9)
		})
	}
}
