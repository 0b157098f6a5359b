// internal/discovery/tcp/scanner.go
package tcp

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sarapudheen-ops/spacetec-sub001/internal/discovery"
	"github.com/sarapudheen-ops/spacetec-sub001/internal/transport"
)

// wellKnownHosts are the factory addresses WiFi ELM adapters ship with.
var wellKnownHosts = []string{
	"192.168.0.10:35000",
	"192.168.4.1:35000",
}

// Scanner probes the local network for WiFi ELM adapters
type Scanner struct {
	logger *zap.Logger
	config *Config
}

// Config for TCP scanner
type Config struct {
	Hosts         []string      `json:"hosts"`
	Subnet        string        `json:"subnet"`
	Ports         []int         `json:"ports"`
	ConnTimeout   time.Duration `json:"connection_timeout"`
	MaxConcurrent int           `json:"max_concurrent"`
	Identify      bool          `json:"identify"`
}

// NewScanner creates a new TCP scanner
func NewScanner(logger *zap.Logger, config *Config) *Scanner {
	if config == nil {
		config = &Config{Identify: true}
	}
	if len(config.Ports) == 0 {
		config.Ports = []int{35000, 23}
	}
	if config.ConnTimeout <= 0 {
		config.ConnTimeout = time.Second
	}
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 64
	}

	return &Scanner{
		logger: logger.With(zap.String("scanner", "tcp")),
		config: config,
	}
}

// TransportType returns the transport this scanner covers
func (s *Scanner) TransportType() transport.TransportType {
	return transport.TransportWiFi
}

// IsAvailable checks if TCP scanning is available
func (s *Scanner) IsAvailable() bool {
	return true
}

// Scan probes the candidate addresses for listening adapters. Explicit
// hosts are always reported when their port answers; swept subnet hosts
// must also identify as an ELM device so open telnet ports on routers do
// not show up as adapters.
func (s *Scanner) Scan(ctx context.Context) ([]*discovery.DiscoveredDevice, error) {
	explicit, swept := s.candidates()
	total := len(explicit) + len(swept)
	if total == 0 {
		return []*discovery.DiscoveredDevice{}, nil
	}

	s.logger.Info("Starting TCP network scan",
		zap.Int("explicit", len(explicit)),
		zap.Int("swept", len(swept)),
	)

	type job struct {
		address  string
		explicit bool
	}

	jobs := make(chan job, total)
	results := make(chan *discovery.DiscoveredDevice, total)

	workers := s.config.MaxConcurrent
	if workers > total {
		workers = total
	}
	for i := 0; i < workers; i++ {
		go func() {
			for j := range jobs {
				select {
				case <-ctx.Done():
					results <- nil
					continue
				default:
				}
				results <- s.probe(ctx, j.address, j.explicit)
			}
		}()
	}

	for _, address := range explicit {
		jobs <- job{address: address, explicit: true}
	}
	for _, address := range swept {
		jobs <- job{address: address}
	}
	close(jobs)

	var discovered []*discovery.DiscoveredDevice
	for i := 0; i < total; i++ {
		if device := <-results; device != nil {
			discovered = append(discovered, device)
		}
	}

	if err := ctx.Err(); err != nil {
		return discovered, err
	}

	s.logger.Info("TCP scan completed", zap.Int("devices_found", len(discovered)))
	return discovered, nil
}

// candidates builds the explicit and swept address lists, deduplicated
func (s *Scanner) candidates() (explicit, swept []string) {
	seen := make(map[string]bool)
	add := func(list *[]string, address string) {
		if !seen[address] {
			seen[address] = true
			*list = append(*list, address)
		}
	}

	for _, host := range s.config.Hosts {
		add(&explicit, host)
	}
	for _, host := range wellKnownHosts {
		add(&explicit, host)
	}

	if s.config.Subnet != "" {
		ips, err := expandSubnet(s.config.Subnet)
		if err != nil {
			s.logger.Warn("Invalid discovery subnet", zap.String("subnet", s.config.Subnet), zap.Error(err))
			return explicit, swept
		}
		for _, ip := range ips {
			for _, port := range s.config.Ports {
				add(&swept, fmt.Sprintf("%s:%d", ip, port))
			}
		}
	}

	return explicit, swept
}

// probe connects to one candidate and optionally identifies it
func (s *Scanner) probe(ctx context.Context, address string, explicit bool) *discovery.DiscoveredDevice {
	dialer := net.Dialer{Timeout: s.config.ConnTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil
	}
	defer conn.Close()

	device := &discovery.DiscoveredDevice{
		Address:       address,
		TransportType: transport.TransportWiFi,
		DisplayName:   "WiFi adapter " + address,
		Identifiers:   map[string]string{},
	}

	if !s.config.Identify {
		return device
	}

	ident := s.identify(conn)
	if ident == "" {
		if explicit {
			return device
		}
		return nil
	}

	device.DisplayName = ident + " (" + address + ")"
	device.Identifiers["version"] = ident
	return device
}

// identify sends ATI and returns the version banner for ELM-compatible
// endpoints, empty otherwise.
func (s *Scanner) identify(conn net.Conn) string {
	deadline := time.Now().Add(s.config.ConnTimeout)
	if err := conn.SetDeadline(deadline); err != nil {
		return ""
	}
	if _, err := conn.Write([]byte("ATI\r")); err != nil {
		return ""
	}

	buf := make([]byte, 256)
	var response strings.Builder
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			response.Write(buf[:n])
			if strings.Contains(response.String(), ">") {
				break
			}
		}
		if err != nil {
			break
		}
	}

	banner := strings.TrimSpace(strings.Trim(strings.TrimSpace(response.String()), ">"))
	if !strings.Contains(strings.ToUpper(banner), "ELM") {
		return ""
	}
	// Last non-empty line carries the version string
	lines := strings.Split(banner, "\r")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return banner
}

// expandSubnet lists the host addresses of a CIDR block, excluding network
// and broadcast addresses. Blocks larger than /16 are refused.
func expandSubnet(cidr string) ([]string, error) {
	ip, network, err := net.ParseCIDR(cidr)
	if err != nil {
		return nil, err
	}
	if ip.To4() == nil {
		return nil, fmt.Errorf("only IPv4 subnets are supported: %s", cidr)
	}
	ones, bits := network.Mask.Size()
	if bits-ones > 16 {
		return nil, fmt.Errorf("subnet %s too large to sweep", cidr)
	}

	var ips []string
	for addr := ip.Mask(network.Mask); network.Contains(addr); addr = nextIP(addr) {
		ips = append(ips, addr.String())
	}
	if len(ips) > 2 {
		ips = ips[1 : len(ips)-1]
	}
	return ips, nil
}

func nextIP(ip net.IP) net.IP {
	next := make(net.IP, len(ip))
	copy(next, ip)
	for i := len(next) - 1; i >= 0; i-- {
		next[i]++
		if next[i] != 0 {
			break
		}
	}
	return next
}
