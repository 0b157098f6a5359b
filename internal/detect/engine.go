// internal/detect/engine.go

// Package detect probes an adapter for the OBD-II wire protocol the
// vehicle speaks. It drives the adapter through ATSP protocol selection
// and a mode 01 probe per candidate, ordering candidates by vehicle hints
// and falling back to curated protocol bundles when the optimized order
// finds nothing.
package detect

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sarapudheen-ops/spacetec-sub001/internal/transport"
	"github.com/sarapudheen-ops/spacetec-sub001/pkg/obd"
)

const (
	DefaultRetriesPerProtocol = 2
	DefaultRetryDelay         = 500 * time.Millisecond
	DefaultTotalTimeout       = 30 * time.Second
	DefaultCommandTimeout     = 5 * time.Second
)

// CommandPort is the slice of a scanner connection the engine drives.
type CommandPort interface {
	SendCommand(ctx context.Context, command string, timeout time.Duration, terminator string) (transport.ReadResult, error)
}

// Options tunes a detection run. Start from DefaultOptions; the zero
// value disables first-match stopping and fallback.
type Options struct {
	// Preferred is tested first. ProtocolAuto means no preference.
	Preferred obd.Protocol

	// Skip protocols are never tested, preferred or not.
	Skip []obd.Protocol

	// RetriesPerProtocol is the attempt count per candidate.
	RetriesPerProtocol int

	// RetryDelay separates attempts against the same candidate.
	RetryDelay time.Duration

	// StopOnFirstMatch ends the run at the first confirmed protocol.
	// When false every candidate is tested and the highest-confidence
	// match wins.
	StopOnFirstMatch bool

	// EnableFallback retries curated protocol bundles after the
	// optimized order found nothing.
	EnableFallback bool

	// TotalTimeout bounds the whole run.
	TotalTimeout time.Duration

	// CommandTimeout bounds each adapter command.
	CommandTimeout time.Duration

	// OnProgress receives every stage event, synchronously and in order.
	OnProgress func(ProgressEvent)
}

// DefaultOptions returns the production detection settings.
func DefaultOptions() Options {
	return Options{
		Preferred:          obd.ProtocolAuto,
		RetriesPerProtocol: DefaultRetriesPerProtocol,
		RetryDelay:         DefaultRetryDelay,
		StopOnFirstMatch:   true,
		EnableFallback:     true,
		TotalTimeout:       DefaultTotalTimeout,
		CommandTimeout:     DefaultCommandTimeout,
	}
}

func (o Options) withDefaults() Options {
	if o.RetriesPerProtocol <= 0 {
		o.RetriesPerProtocol = DefaultRetriesPerProtocol
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = DefaultRetryDelay
	}
	if o.TotalTimeout <= 0 {
		o.TotalTimeout = DefaultTotalTimeout
	}
	if o.CommandTimeout <= 0 {
		o.CommandTimeout = DefaultCommandTimeout
	}
	return o
}

// Result is the outcome of a detection run.
type Result struct {
	Success        bool           `json:"success"`
	Protocol       obd.Protocol   `json:"protocol"`
	Confidence     float64        `json:"confidence"`
	Elapsed        time.Duration  `json:"elapsed"`
	ProtocolsTried []obd.Protocol `json:"protocols_tried"`
	FallbackUsed   bool           `json:"fallback_used"`
}

// Engine runs protocol detection over a command port.
type Engine struct {
	port   CommandPort
	logger *zap.Logger
}

func NewEngine(port CommandPort, logger *zap.Logger) *Engine {
	return &Engine{
		port:   port,
		logger: logger.With(zap.String("component", "protocol_detection")),
	}
}

// run tracks the state of one detection pass.
type run struct {
	opts     Options
	vehicle  *obd.VehicleInfo
	tested   map[obd.Protocol]bool
	tried    []obd.Protocol
	fallback bool
}

// scored is a confirmed protocol with its confidence.
type scored struct {
	protocol   obd.Protocol
	confidence float64
	latency    time.Duration
}

// Detect probes candidates until a protocol is confirmed, the candidate
// space is exhausted, or the run times out. The returned Result always
// carries the protocols tried, success or not.
func (e *Engine) Detect(ctx context.Context, vehicle *obd.VehicleInfo, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, opts.TotalTimeout)
	defer cancel()

	st := &run{
		opts:    opts,
		vehicle: vehicle,
		tested:  make(map[obd.Protocol]bool),
	}
	// Skipped protocols are off limits for the fallback bundles too.
	for _, p := range opts.Skip {
		st.tested[p] = true
	}

	order := OptimizedOrder(vehicle, opts.Preferred, opts.Skip)
	e.logger.Info("Protocol detection started",
		zap.Int("candidates", len(order)),
		zap.String("preferred", opts.Preferred.String()))
	e.emit(opts, ProgressEvent{
		Stage:   StageStarted,
		Message: fmt.Sprintf("testing %d candidate protocols", len(order)),
	})

	best, runErr := e.sweep(ctx, st, order)

	if runErr == nil && best == nil && opts.EnableFallback {
		for _, strategy := range fallbackPlan(vehicle) {
			candidates := untested(strategy.Protocols(), st.tested)
			if len(candidates) == 0 {
				continue
			}
			st.fallback = true
			e.emit(opts, ProgressEvent{
				Stage:    StageFallbackStrategy,
				Strategy: string(strategy),
				Message:  fmt.Sprintf("retrying %d protocols", len(candidates)),
			})
			best, runErr = e.sweep(ctx, st, candidates)
			if runErr != nil || best != nil {
				break
			}
		}
	}

	result := &Result{
		Elapsed:        time.Since(start),
		ProtocolsTried: st.tried,
		FallbackUsed:   st.fallback,
	}

	switch {
	case runErr != nil && errors.Is(runErr, context.Canceled):
		e.emit(opts, ProgressEvent{Stage: StageCancelled, Message: "detection cancelled"})
		e.logger.Info("Protocol detection cancelled", zap.Int("tried", len(st.tried)))
		return result, runErr

	case runErr != nil:
		e.emit(opts, ProgressEvent{Stage: StageFailed, Message: "detection timed out"})
		e.logger.Warn("Protocol detection timed out",
			zap.Duration("elapsed", result.Elapsed),
			zap.Int("tried", len(st.tried)))
		return result, &transport.Error{
			Code:           transport.CodeTimeoutFailure,
			Message:        fmt.Sprintf("protocol detection timed out after %s", opts.TotalTimeout),
			Elapsed:        result.Elapsed,
			ProtocolsTried: protocolNames(st.tried),
			Recoverable:    true,
			Err:            runErr,
		}

	case best != nil:
		result.Success = true
		result.Protocol = best.protocol
		result.Confidence = best.confidence
		e.emit(opts, ProgressEvent{
			Stage:    StageDetected,
			Protocol: best.protocol,
			Success:  true,
			Message:  fmt.Sprintf("detected %s (confidence %.2f)", best.protocol, best.confidence),
		})
		e.logger.Info("Protocol detected",
			zap.String("protocol", best.protocol.String()),
			zap.Float64("confidence", best.confidence),
			zap.Duration("latency", best.latency),
			zap.Bool("fallback", st.fallback))
		return result, nil

	default:
		e.emit(opts, ProgressEvent{Stage: StageFailed, Message: "no protocol responded"})
		e.logger.Warn("Protocol detection failed",
			zap.Int("tried", len(st.tried)),
			zap.Duration("elapsed", result.Elapsed))
		return result, &transport.Error{
			Code:           transport.CodeProtocolFailure,
			Message:        fmt.Sprintf("no OBD protocol detected after %d candidates", len(st.tried)),
			Elapsed:        result.Elapsed,
			ProtocolsTried: protocolNames(st.tried),
			Recoverable:    false,
		}
	}
}

// sweep tests candidates in order. It returns the best confirmed protocol
// (the first one under StopOnFirstMatch) and a non-nil error only when the
// context ended the pass.
func (e *Engine) sweep(ctx context.Context, st *run, candidates []obd.Protocol) (*scored, error) {
	var best *scored
	for _, p := range candidates {
		if st.tested[p] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return best, err
		}

		st.tested[p] = true
		st.tried = append(st.tried, p)
		e.emit(st.opts, ProgressEvent{Stage: StageTestingProtocol, Protocol: p})

		latency, err := e.testWithRetries(ctx, p, st.opts)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return best, ctxErr
			}
			e.logger.Debug("Protocol rejected",
				zap.String("protocol", p.String()),
				zap.Error(err))
			e.emit(st.opts, ProgressEvent{
				Stage:    StageProtocolTested,
				Protocol: p,
				Message:  err.Error(),
			})
			continue
		}

		s := &scored{
			protocol:   p,
			confidence: Confidence(p, latency, st.vehicle),
			latency:    latency,
		}
		e.emit(st.opts, ProgressEvent{Stage: StageProtocolTested, Protocol: p, Success: true})

		if best == nil || s.confidence > best.confidence {
			best = s
		}
		if st.opts.StopOnFirstMatch {
			return best, nil
		}
	}
	return best, nil
}

// testWithRetries runs the candidate test up to the configured attempt
// count, sleeping RetryDelay between attempts.
func (e *Engine) testWithRetries(ctx context.Context, p obd.Protocol, opts Options) (time.Duration, error) {
	var lastErr error
	for attempt := 1; attempt <= opts.RetriesPerProtocol; attempt++ {
		if attempt > 1 {
			timer := time.NewTimer(opts.RetryDelay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return 0, ctx.Err()
			}
		}
		latency, err := e.testProtocol(ctx, p, opts)
		if err == nil {
			return latency, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
	}
	return 0, lastErr
}

// testProtocol selects the candidate with ATSP and confirms it with the
// mode 01 probe.
func (e *Engine) testProtocol(ctx context.Context, p obd.Protocol, opts Options) (time.Duration, error) {
	setCmd := obd.SetProtocolCommand(p)
	res, err := e.port.SendCommand(ctx, setCmd, opts.CommandTimeout, obd.PromptTerminator)
	if err != nil {
		return 0, fmt.Errorf("protocol select failed: %w", err)
	}
	if obd.IsErrorResponse(obd.CleanResponse(setCmd, res.Data)) {
		return 0, fmt.Errorf("adapter rejected %s: %q", setCmd, res.Data)
	}

	start := time.Now()
	probe, err := e.port.SendCommand(ctx, obd.ProbeCommand, opts.CommandTimeout, obd.PromptTerminator)
	latency := time.Since(start)
	if err != nil {
		return latency, fmt.Errorf("probe failed: %w", err)
	}
	if !obd.IsPositiveProbe(probe.Data) {
		return latency, fmt.Errorf("no ECU response on %s", p)
	}
	return latency, nil
}

// Confidence scores a confirmed protocol: 0.5 base, a latency tier bonus,
// and vehicle-affinity bonuses, clamped to [0, 1].
func Confidence(p obd.Protocol, latency time.Duration, vehicle *obd.VehicleInfo) float64 {
	score := 0.5

	switch {
	case latency < time.Second:
		score += 0.3
	case latency < 2*time.Second:
		score += 0.2
	case latency < 3*time.Second:
		score += 0.1
	}

	switch {
	case vehicle.IsHeavyDuty() && p.Is29Bit():
		score += 0.2
	case vehicle.IsModern() && p.IsCAN():
		score += 0.2
	}

	switch vehicle.DetectRegion() {
	case obd.RegionEuropean:
		if p.IsKWP() {
			score += 0.15
		}
	case obd.RegionAmerican:
		if p.IsJ1850() {
			score += 0.15
		}
	case obd.RegionAsian:
		if p == obd.ProtocolISO9141_2 {
			score += 0.15
		}
	}

	if score > 1 {
		return 1
	}
	if score < 0 {
		return 0
	}
	return score
}

// emit delivers one progress event.
func (e *Engine) emit(opts Options, ev ProgressEvent) {
	ev.Timestamp = time.Now()
	if opts.OnProgress != nil {
		opts.OnProgress(ev)
	}
}

// untested filters a bundle down to protocols not yet tried this run.
func untested(candidates []obd.Protocol, tested map[obd.Protocol]bool) []obd.Protocol {
	out := make([]obd.Protocol, 0, len(candidates))
	for _, p := range candidates {
		if !tested[p] {
			out = append(out, p)
		}
	}
	return out
}

func protocolNames(protocols []obd.Protocol) []string {
	names := make([]string, len(protocols))
	for i, p := range protocols {
		names[i] = p.String()
	}
	return names
}
