// internal/manager/manager.go

// Package manager orchestrates scanner sessions: it binds exactly one
// active adapter at a time, resolving transport and configuration from the
// address, checking connections out of the pool, running the ELM init
// handshake, and delegating protocol detection. All teardown paths are
// best-effort; secondary failures are logged, never returned.
package manager

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sarapudheen-ops/spacetec-sub001/internal/detect"
	"github.com/sarapudheen-ops/spacetec-sub001/internal/discovery"
	"github.com/sarapudheen-ops/spacetec-sub001/internal/model"
	"github.com/sarapudheen-ops/spacetec-sub001/internal/pool"
	"github.com/sarapudheen-ops/spacetec-sub001/internal/repository"
	"github.com/sarapudheen-ops/spacetec-sub001/internal/resource"
	"github.com/sarapudheen-ops/spacetec-sub001/internal/transport"
	"github.com/sarapudheen-ops/spacetec-sub001/pkg/obd"
)

// ErrDetectionRunning is returned when a detection start overlaps a run
// already in flight.
var ErrDetectionRunning = errors.New("protocol detection already running")

// Config tunes the manager.
type Config struct {
	// CommandTimeout bounds individual adapter commands issued by the
	// manager (init sequence, health checks, SendCommand default).
	CommandTimeout time.Duration

	// InitRetries is the number of extra attempts per init command after
	// the first one fails.
	InitRetries int

	// Detection is the options template for detection runs. Preferred and
	// OnProgress are filled per run.
	Detection detect.Options

	// Presets overrides the built-in per-transport connection presets.
	// Transports absent from the map fall back to transport.DefaultConfig.
	Presets map[transport.TransportType]transport.ConnectionConfig
}

// DefaultConfig returns the production manager settings.
func DefaultConfig() Config {
	return Config{
		CommandTimeout: 5 * time.Second,
		InitRetries:    2,
		Detection:      detect.DefaultOptions(),
	}
}

func (c Config) withDefaults() Config {
	if c.CommandTimeout <= 0 {
		c.CommandTimeout = 5 * time.Second
	}
	if c.InitRetries < 0 {
		c.InitRetries = 0
	}
	return c
}

// ConnectResult is the outcome of a connect operation. Detection carries
// the protocol detection outcome when auto-detect ran; a failed detection
// populates DetectionError and leaves the connection established.
type ConnectResult struct {
	Info           *transport.ConnectionInfo `json:"info"`
	TransportType  transport.TransportType   `json:"transport_type"`
	Address        string                    `json:"address"`
	Detection      *detect.Result            `json:"detection,omitempty"`
	DetectionError string                    `json:"detection_error,omitempty"`
}

// Status is the manager's point-in-time view for the status endpoint.
type Status struct {
	Connected     bool                      `json:"connected"`
	Address       string                    `json:"address,omitempty"`
	TransportType transport.TransportType   `json:"transport_type,omitempty"`
	State         transport.ConnectionState `json:"state"`
	Protocol      obd.Protocol              `json:"protocol"`
	ProtocolName  string                    `json:"protocol_name"`
	Info          *transport.ConnectionInfo `json:"info,omitempty"`
	Detecting     bool                      `json:"detecting"`
}

// ScannerManager binds at most one active scanner connection and routes
// every command through it.
type ScannerManager struct {
	config    Config
	logger    *zap.Logger
	pool      *pool.Pool
	resources *resource.Manager
	discovery *discovery.Service
	profiles  repository.ProfileRepository
	history   repository.DetectionRepository

	// opMu serializes connect/disconnect/reconnect so two connects cannot
	// race for the active slot. Commands only take mu.
	opMu sync.Mutex

	mu            sync.Mutex
	active        transport.ScannerConnection
	activeAddress string
	activeType    transport.TransportType
	activeConfig  transport.ConnectionConfig
	protocol      obd.Protocol
	stopForward   func()
	detecting     bool
	detectCancel  context.CancelFunc

	subMu sync.Mutex
	subs  map[string]chan Event

	releaseOnce sync.Once
}

// NewManager builds a scanner manager. The discovery service and both
// repositories are optional: a nil discovery disables ConnectAuto, nil
// repositories skip stored-config resolution and history recording.
func NewManager(
	config Config,
	connPool *pool.Pool,
	resources *resource.Manager,
	discoverySvc *discovery.Service,
	profiles repository.ProfileRepository,
	history repository.DetectionRepository,
	logger *zap.Logger,
) *ScannerManager {
	return &ScannerManager{
		config:    config.withDefaults(),
		logger:    logger.With(zap.String("component", "scanner_manager")),
		pool:      connPool,
		resources: resources,
		discovery: discoverySvc,
		profiles:  profiles,
		history:   history,
		protocol:  obd.ProtocolAuto,
		subs:      make(map[string]chan Event),
	}
}

// Connect establishes a session with the adapter at the given address.
// The transport is inferred from the address shape; the connection config
// resolves explicit > stored profile > transport preset. Any previously
// active adapter is disconnected first. With autoDetect the protocol
// detection engine runs after the init handshake; its failure does not
// fail the connect.
func (m *ScannerManager) Connect(ctx context.Context, address string, cfg *transport.ConnectionConfig, autoDetect bool) (*ConnectResult, error) {
	transportType, err := transport.InferTransportType(address)
	if err != nil {
		return nil, err
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()

	resolved, profile := m.resolveConfig(ctx, transportType, address, cfg)
	if err := resolved.Validate(); err != nil {
		return nil, err
	}

	m.disconnectActive(true)

	m.logger.Info("Connecting to scanner",
		zap.String("address", address),
		zap.String("transport_type", string(transportType)),
		zap.Bool("auto_detect", autoDetect))

	conn, err := m.pool.Get(ctx, transportType, address, resolved)
	if err != nil {
		return nil, err
	}

	if err := m.initializeAdapter(ctx, conn); err != nil {
		m.logger.Warn("Adapter init handshake failed",
			zap.String("address", address),
			zap.Error(err))
		m.pool.Remove(conn)
		return nil, err
	}

	info := connectionInfo(conn)

	m.mu.Lock()
	m.active = conn
	m.activeAddress = address
	m.activeType = transportType
	m.activeConfig = resolved
	m.protocol = obd.ProtocolAuto
	m.stopForward = m.forwardStates(conn, address, transportType)
	m.mu.Unlock()

	m.publish(Event{
		Type:          EventConnected,
		Address:       address,
		TransportType: transportType,
	})
	m.logger.Info("Scanner connected",
		zap.String("address", address),
		zap.String("transport_type", string(transportType)),
		zap.String("connection_id", conn.ID()))

	result := &ConnectResult{
		Info:          info,
		TransportType: transportType,
		Address:       address,
	}

	if autoDetect {
		var vehicle *obd.VehicleInfo
		if profile != nil {
			vehicle = profile.VehicleInfo()
		}
		detection, detErr := m.runDetection(ctx, conn, address, transportType, vehicle, m.seedPreference(ctx, address, profile))
		result.Detection = detection
		if detErr != nil {
			// A failed detection leaves the protocol unset and the
			// connection up.
			result.DetectionError = detErr.Error()
		}
	}

	return result, nil
}

// ConnectAuto scans for adapters transport by transport in the fixed
// preference order and connects to the first candidate that accepts a
// session.
func (m *ScannerManager) ConnectAuto(ctx context.Context, cfg *transport.ConnectionConfig, autoDetect bool) (*ConnectResult, error) {
	if m.discovery == nil {
		return nil, &transport.Error{
			Code:    transport.CodeConfigurationInvalid,
			Message: "automatic connection requires a discovery service",
		}
	}

	var lastErr error
	for _, transportType := range transport.SupportedTransports() {
		devices, err := m.discovery.ScanTransport(ctx, transportType)
		if err != nil {
			m.logger.Debug("Discovery skipped",
				zap.String("transport_type", string(transportType)),
				zap.Error(err))
			continue
		}

		for _, device := range devices {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			result, err := m.Connect(ctx, device.Address, cfg, autoDetect)
			if err == nil {
				return result, nil
			}
			lastErr = err
			m.logger.Info("Discovered adapter refused connection",
				zap.String("address", device.Address),
				zap.String("transport_type", string(transportType)),
				zap.Error(err))
		}
	}

	return nil, &transport.Error{
		Code:        transport.CodeConnectionFailure,
		Message:     "no discovered adapter accepted a connection",
		Recoverable: true,
		Err:         lastErr,
	}
}

// SendCommand sends a raw AT-style command through the active adapter.
// A non-positive timeout falls back to the configured command timeout.
func (m *ScannerManager) SendCommand(ctx context.Context, command string, timeout time.Duration) (transport.ReadResult, error) {
	conn := m.activeConn()
	if conn == nil {
		return transport.ReadResult{}, noActiveErr()
	}
	if timeout <= 0 {
		timeout = m.config.CommandTimeout
	}
	result, err := conn.SendCommand(ctx, command, timeout, obd.PromptTerminator)
	if err == nil && m.resources != nil {
		m.resources.UpdateUsage(conn.ID(), int64(len(command)+len(result.Data)), 1)
	}
	return result, err
}

// SendObdCommand validates the command as hex digit pairs, uppercases it,
// and sends it through the active adapter.
func (m *ScannerManager) SendObdCommand(ctx context.Context, command string, timeout time.Duration) (transport.ReadResult, error) {
	normalized, err := normalizeObdCommand(command)
	if err != nil {
		return transport.ReadResult{}, err
	}
	return m.SendCommand(ctx, normalized, timeout)
}

// DetectProtocol runs the detection engine over the active adapter. One
// run at a time; a second start returns ErrDetectionRunning. The run is
// cancellable through CancelDetection.
func (m *ScannerManager) DetectProtocol(ctx context.Context, vehicle *obd.VehicleInfo, preferred obd.Protocol) (*detect.Result, error) {
	m.mu.Lock()
	conn := m.active
	address := m.activeAddress
	transportType := m.activeType
	if conn == nil || !conn.IsConnected() {
		m.mu.Unlock()
		return nil, noActiveErr()
	}
	if m.detecting {
		m.mu.Unlock()
		return nil, ErrDetectionRunning
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.detecting = true
	m.detectCancel = cancel
	m.mu.Unlock()

	defer func() {
		cancel()
		m.mu.Lock()
		m.detecting = false
		m.detectCancel = nil
		m.mu.Unlock()
	}()

	if preferred == obd.ProtocolAuto {
		preferred = m.lastKnownProtocol(ctx, address)
	}
	return m.detect(runCtx, conn, address, transportType, vehicle, preferred)
}

// CancelDetection aborts an in-flight detection run. Returns false when no
// run is active.
func (m *ScannerManager) CancelDetection() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.detectCancel == nil {
		return false
	}
	m.detectCancel()
	return true
}

// Disconnect tears down the active session. Disconnecting with no active
// adapter is a no-op.
func (m *ScannerManager) Disconnect(graceful bool) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	return m.disconnectActive(graceful)
}

// Reconnect re-establishes the active adapter's link.
func (m *ScannerManager) Reconnect(ctx context.Context) (*transport.ConnectionInfo, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.Lock()
	conn := m.active
	address := m.activeAddress
	transportType := m.activeType
	m.mu.Unlock()

	if conn == nil {
		return nil, noActiveErr()
	}

	info, err := conn.Reconnect(ctx)
	if err != nil {
		return nil, err
	}

	m.publish(Event{
		Type:          EventReconnected,
		Address:       address,
		TransportType: transportType,
	})
	return info, nil
}

// Release tears the manager down: active adapter, pool, and resource
// supervision, in that order. Secondary errors are logged only. Repeated
// calls are no-ops.
func (m *ScannerManager) Release() error {
	m.releaseOnce.Do(func() {
		m.CancelDetection()

		m.opMu.Lock()
		if err := m.disconnectActive(false); err != nil {
			m.logger.Warn("Adapter disconnect failed during release", zap.Error(err))
		}
		m.opMu.Unlock()

		m.pool.Shutdown()
		if m.resources != nil {
			m.resources.Shutdown()
		}
		m.logger.Info("Scanner manager released")
	})
	return nil
}

// Status reports the current session.
func (m *ScannerManager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	status := Status{
		State:        transport.StateDisconnected(),
		Protocol:     m.protocol,
		ProtocolName: m.protocol.String(),
		Detecting:    m.detecting,
	}
	if m.active == nil {
		return status
	}

	state := m.active.State()
	status.Connected = m.active.IsConnected()
	status.Address = m.activeAddress
	status.TransportType = m.activeType
	status.State = state
	status.Info = state.Info
	return status
}

// Statistics returns the active connection's I/O counters.
func (m *ScannerManager) Statistics() (transport.StatisticsSnapshot, error) {
	conn := m.activeConn()
	if conn == nil {
		return transport.StatisticsSnapshot{}, noActiveErr()
	}
	return conn.Statistics(), nil
}

// IsConnected reports whether an adapter is bound and its link is up.
func (m *ScannerManager) IsConnected() bool {
	conn := m.activeConn()
	return conn != nil && conn.IsConnected()
}

// disconnectActive is the shared teardown path. Caller holds opMu.
func (m *ScannerManager) disconnectActive(graceful bool) error {
	m.mu.Lock()
	conn := m.active
	address := m.activeAddress
	transportType := m.activeType
	stopForward := m.stopForward
	cancelDetect := m.detectCancel
	m.active = nil
	m.activeAddress = ""
	m.activeType = ""
	m.protocol = obd.ProtocolAuto
	m.stopForward = nil
	m.mu.Unlock()

	if conn == nil {
		return nil
	}
	if cancelDetect != nil {
		cancelDetect()
	}

	err := conn.Disconnect(graceful)
	// Stop forwarding after the disconnect so subscribers observe the
	// final state transition.
	if stopForward != nil {
		stopForward()
	}
	// The pool retires disconnected connections on return.
	m.pool.Return(conn)

	m.publish(Event{
		Type:          EventDisconnected,
		Address:       address,
		TransportType: transportType,
	})
	m.logger.Info("Scanner disconnected",
		zap.String("address", address),
		zap.Bool("graceful", graceful))
	return err
}

// resolveConfig picks the connection config for a connect: an explicit
// config wins, then a stored profile's settings, then the transport
// preset. The profile is returned for detection seeding.
func (m *ScannerManager) resolveConfig(ctx context.Context, transportType transport.TransportType, address string, explicit *transport.ConnectionConfig) (transport.ConnectionConfig, *model.ScannerProfile) {
	var profile *model.ScannerProfile
	if m.profiles != nil {
		stored, err := m.profiles.GetByAddress(ctx, transportType, address)
		switch {
		case err == nil:
			profile = stored
		case errors.Is(err, repository.ErrNotFound):
		default:
			m.logger.Warn("Stored profile lookup failed",
				zap.String("address", address),
				zap.Error(err))
		}
	}

	if explicit != nil {
		return *explicit, profile
	}
	if profile != nil && profile.HasSettings() {
		return transport.ConnectionConfig(profile.Settings), profile
	}
	return m.preset(transportType), profile
}

func (m *ScannerManager) preset(transportType transport.TransportType) transport.ConnectionConfig {
	if cfg, ok := m.config.Presets[transportType]; ok {
		return cfg
	}
	return transport.DefaultConfig(transportType)
}

// seedPreference picks the protocol detection starts with: the profile's
// preferred protocol when set, otherwise the last successfully detected
// protocol for the address.
func (m *ScannerManager) seedPreference(ctx context.Context, address string, profile *model.ScannerProfile) obd.Protocol {
	if profile != nil && profile.PreferredProtocol != nil {
		return *profile.PreferredProtocol
	}
	return m.lastKnownProtocol(ctx, address)
}

func (m *ScannerManager) lastKnownProtocol(ctx context.Context, address string) obd.Protocol {
	if m.history == nil {
		return obd.ProtocolAuto
	}
	protocol, err := m.history.LastKnownProtocol(ctx, address)
	if err != nil {
		m.logger.Warn("Last-known protocol lookup failed",
			zap.String("address", address),
			zap.Error(err))
		return obd.ProtocolAuto
	}
	return protocol
}

// runDetection wraps detect for the connect path, where the detecting
// flag must also be held.
func (m *ScannerManager) runDetection(ctx context.Context, conn transport.ScannerConnection, address string, transportType transport.TransportType, vehicle *obd.VehicleInfo, preferred obd.Protocol) (*detect.Result, error) {
	m.mu.Lock()
	if m.detecting {
		m.mu.Unlock()
		return nil, ErrDetectionRunning
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.detecting = true
	m.detectCancel = cancel
	m.mu.Unlock()

	defer func() {
		cancel()
		m.mu.Lock()
		m.detecting = false
		m.detectCancel = nil
		m.mu.Unlock()
	}()

	return m.detect(runCtx, conn, address, transportType, vehicle, preferred)
}

// detect executes one detection run, publishes its progress, stores the
// outcome, and updates the manager's protocol on success.
func (m *ScannerManager) detect(ctx context.Context, conn transport.ScannerConnection, address string, transportType transport.TransportType, vehicle *obd.VehicleInfo, preferred obd.Protocol) (*detect.Result, error) {
	opts := m.config.Detection
	opts.Preferred = preferred
	opts.OnProgress = func(ev detect.ProgressEvent) {
		progress := ev
		m.publish(Event{
			Type:          EventDetectionProgress,
			Address:       address,
			TransportType: transportType,
			Detection:     &progress,
		})
	}

	engine := detect.NewEngine(conn, m.logger)
	result, err := engine.Detect(ctx, vehicle, opts)

	m.recordDetection(address, transportType, vehicle, result, err)

	if err == nil && result.Success {
		m.mu.Lock()
		if m.active == conn {
			m.protocol = result.Protocol
		}
		m.mu.Unlock()
	}

	data := map[string]interface{}{"success": result != nil && result.Success}
	if result != nil && result.Success {
		data["protocol"] = result.Protocol.String()
		data["confidence"] = result.Confidence
	}
	m.publish(Event{
		Type:          EventDetectionCompleted,
		Address:       address,
		TransportType: transportType,
		Data:          data,
	})

	return result, err
}

// recordDetection persists one detection outcome. Best-effort: recording
// runs on a fresh context so a cancelled run still leaves history.
func (m *ScannerManager) recordDetection(address string, transportType transport.TransportType, vehicle *obd.VehicleInfo, result *detect.Result, runErr error) {
	if m.history == nil || result == nil {
		return
	}

	record := &model.DetectionRecord{
		Address:        address,
		TransportType:  transportType,
		Protocol:       result.Protocol,
		Confidence:     result.Confidence,
		DurationMS:     result.Elapsed.Milliseconds(),
		Success:        result.Success,
		FallbackUsed:   result.FallbackUsed,
		ProtocolsTried: triedNames(result.ProtocolsTried),
	}
	if runErr != nil {
		message := runErr.Error()
		record.ErrorMessage = &message
	}
	if vehicle != nil {
		if vehicle.Make != "" {
			vehicleMake := vehicle.Make
			record.VehicleMake = &vehicleMake
		}
		if vehicle.Year > 0 {
			year := vehicle.Year
			record.VehicleYear = &year
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.history.Record(ctx, record); err != nil {
		m.logger.Warn("Failed to record detection history",
			zap.String("address", address),
			zap.Error(err))
	}
}

// initializeAdapter runs the ELM327 handshake: a reset, then the setup
// sequence with per-command retries. The reset's response window is
// doubled because the adapter reboots before answering.
func (m *ScannerManager) initializeAdapter(ctx context.Context, conn transport.ScannerConnection) error {
	if _, err := conn.SendCommand(ctx, obd.CmdReset, 2*m.config.CommandTimeout, obd.PromptTerminator); err != nil {
		return fmt.Errorf("adapter reset failed: %w", err)
	}

	for _, cmd := range obd.InitSequence() {
		if err := m.initCommand(ctx, conn, cmd); err != nil {
			return err
		}
	}
	return nil
}

func (m *ScannerManager) initCommand(ctx context.Context, conn transport.ScannerConnection, cmd string) error {
	var lastErr error
	for attempt := 0; attempt <= m.config.InitRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		res, err := conn.SendCommand(ctx, cmd, m.config.CommandTimeout, obd.PromptTerminator)
		if err != nil {
			lastErr = err
			continue
		}
		reply := obd.CleanResponse(cmd, res.Data)
		if !obd.IsErrorResponse(reply) {
			return nil
		}
		lastErr = &transport.Error{
			Code:    transport.CodeCommunicationFailure,
			Message: fmt.Sprintf("adapter rejected init command %s: %q", cmd, reply),
		}
	}
	return lastErr
}

// forwardStates re-publishes the connection's state transitions as manager
// events until the returned stop function is called.
func (m *ScannerManager) forwardStates(conn transport.ScannerConnection, address string, transportType transport.TransportType) func() {
	states, unsubscribe := conn.States()
	done := make(chan struct{})

	go func() {
		defer close(done)
		for state := range states {
			s := state
			m.publish(Event{
				Type:          EventStateChanged,
				Address:       address,
				TransportType: transportType,
				State:         &s,
			})
		}
	}()

	return func() {
		unsubscribe()
		<-done
	}
}

func (m *ScannerManager) activeConn() transport.ScannerConnection {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

func connectionInfo(conn transport.ScannerConnection) *transport.ConnectionInfo {
	state := conn.State()
	if state.Kind == transport.KindConnected {
		return state.Info
	}
	return nil
}

func noActiveErr() error {
	return &transport.Error{
		Code:    transport.CodeConnectionFailure,
		Message: "no active scanner connection",
	}
}

// normalizeObdCommand strips spaces, uppercases, and requires an even
// count of hex digits (mode byte plus optional PID bytes).
func normalizeObdCommand(command string) (string, error) {
	cleaned := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(command), " ", ""))
	if len(cleaned) == 0 || len(cleaned)%2 != 0 {
		return "", &transport.Error{
			Code:    transport.CodeConfigurationInvalid,
			Message: fmt.Sprintf("OBD command must be hex digit pairs, got %q", command),
		}
	}
	for _, r := range cleaned {
		if (r < '0' || r > '9') && (r < 'A' || r > 'F') {
			return "", &transport.Error{
				Code:    transport.CodeConfigurationInvalid,
				Message: fmt.Sprintf("OBD command contains non-hex character %q", r),
			}
		}
	}
	return cleaned, nil
}

func triedNames(protocols []obd.Protocol) model.StringList {
	if len(protocols) == 0 {
		return nil
	}
	names := make(model.StringList, len(protocols))
	for i, p := range protocols {
		names[i] = p.String()
	}
	return names
}
