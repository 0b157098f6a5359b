// internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Security  SecurityConfig  `mapstructure:"security"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Scanner   ScannerConfig   `mapstructure:"scanner"`
	Pool      PoolConfig      `mapstructure:"pool"`
	Resource  ResourceConfig  `mapstructure:"resource"`
	Detection DetectionConfig `mapstructure:"detection"`
	Discovery DiscoveryConfig `mapstructure:"discovery"`
	App       AppConfig       `mapstructure:"app"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host" validate:"required"`
	Port         string        `mapstructure:"port" validate:"required"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	TLS          TLSConfig     `mapstructure:"tls"`
}

// TLSConfig represents TLS configuration
type TLSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	CertFile string `mapstructure:"cert_file"`
	KeyFile  string `mapstructure:"key_file"`
}

// DatabaseConfig represents the embedded SQLite database configuration
type DatabaseConfig struct {
	Path             string        `mapstructure:"path" validate:"required"`
	MigrationsPath   string        `mapstructure:"migrations_path"`
	MaxOpenConns     int           `mapstructure:"max_open_conns"`
	MaxIdleConns     int           `mapstructure:"max_idle_conns"`
	MaxLifetime      time.Duration `mapstructure:"max_lifetime"`
	HistoryRetention time.Duration `mapstructure:"history_retention"`
}

// SecurityConfig represents security configuration
type SecurityConfig struct {
	AllowedOrigins    []string      `mapstructure:"allowed_origins"`
	RateLimitEnabled  bool          `mapstructure:"rate_limit_enabled"`
	RateLimitRequests int           `mapstructure:"rate_limit_requests"`
	RateLimitWindow   time.Duration `mapstructure:"rate_limit_window"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level" validate:"required"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// ScannerConfig represents scanner-manager configuration
type ScannerConfig struct {
	CommandTimeout      time.Duration   `mapstructure:"command_timeout"`
	InitRetries         int             `mapstructure:"init_retries"`
	HealthCheckInterval time.Duration   `mapstructure:"health_check_interval"`
	Transports          TransportConfig `mapstructure:"transports"`
}

// TransportConfig represents per-transport connection overrides
type TransportConfig struct {
	Bluetooth BluetoothTransportConfig `mapstructure:"bluetooth"`
	WiFi      WiFiTransportConfig      `mapstructure:"wifi"`
	Serial    SerialTransportConfig    `mapstructure:"serial"`
	J2534     J2534TransportConfig     `mapstructure:"j2534"`
}

// BluetoothTransportConfig represents Bluetooth transport configuration
type BluetoothTransportConfig struct {
	ConnectTimeout    time.Duration `mapstructure:"connect_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	KeepAliveInterval time.Duration `mapstructure:"keep_alive_interval"`
}

// WiFiTransportConfig represents WiFi transport configuration
type WiFiTransportConfig struct {
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
}

// SerialTransportConfig represents serial transport configuration
type SerialTransportConfig struct {
	BaudRate       int           `mapstructure:"baud_rate"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
}

// J2534TransportConfig represents J2534 pass-thru configuration
type J2534TransportConfig struct {
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
}

// PoolConfig represents connection pool configuration
type PoolConfig struct {
	MaxPerKey     int           `mapstructure:"max_per_key"`
	IdleTimeout   time.Duration `mapstructure:"idle_timeout"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// ResourceConfig represents resource supervision configuration
type ResourceConfig struct {
	MaxConnections   int           `mapstructure:"max_connections"`
	LeakThreshold    time.Duration `mapstructure:"leak_threshold"`
	AbandonThreshold time.Duration `mapstructure:"abandon_threshold"`
	MaxLifetime      time.Duration `mapstructure:"max_lifetime"`
	MonitorInterval  time.Duration `mapstructure:"monitor_interval"`
	MemoryDeltaLimit uint64        `mapstructure:"memory_delta_limit"`
	HistorySize      int           `mapstructure:"history_size"`
}

// DetectionConfig represents protocol detection configuration
type DetectionConfig struct {
	RetriesPerProtocol int           `mapstructure:"retries_per_protocol"`
	RetryDelay         time.Duration `mapstructure:"retry_delay"`
	TotalTimeout       time.Duration `mapstructure:"total_timeout"`
	CommandTimeout     time.Duration `mapstructure:"command_timeout"`
	StopOnFirstMatch   bool          `mapstructure:"stop_on_first_match"`
	EnableFallback     bool          `mapstructure:"enable_fallback"`
}

// DiscoveryConfig represents device discovery configuration
type DiscoveryConfig struct {
	ScanTimeout   time.Duration `mapstructure:"scan_timeout"`
	MaxConcurrent int           `mapstructure:"max_concurrent"`
	WiFiPorts     []int         `mapstructure:"wifi_ports"`
	WiFiSubnet    string        `mapstructure:"wifi_subnet"`
}

// AppConfig represents application metadata
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Version     string `mapstructure:"version" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required"`
	Debug       bool   `mapstructure:"debug"`
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Environment variable support
	viper.SetEnvPrefix("SCANNER_SERVICE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	// Read config file; defaults and environment cover a missing file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", "8095")
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")
	viper.SetDefault("server.tls.enabled", false)

	// Database defaults
	viper.SetDefault("database.path", "./data/scanner.db")
	viper.SetDefault("database.migrations_path", "migrations")
	viper.SetDefault("database.max_open_conns", 1)
	viper.SetDefault("database.max_idle_conns", 1)
	viper.SetDefault("database.max_lifetime", "1h")
	viper.SetDefault("database.history_retention", "2160h") // 90 days

	// Security defaults
	viper.SetDefault("security.allowed_origins", []string{"*"})
	viper.SetDefault("security.rate_limit_enabled", true)
	viper.SetDefault("security.rate_limit_requests", 100)
	viper.SetDefault("security.rate_limit_window", "1m")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output", "stdout")
	viper.SetDefault("logging.max_size", 100)
	viper.SetDefault("logging.max_backups", 3)
	viper.SetDefault("logging.max_age", 28)
	viper.SetDefault("logging.compress", true)

	// Scanner defaults
	viper.SetDefault("scanner.command_timeout", "5s")
	viper.SetDefault("scanner.init_retries", 2)
	viper.SetDefault("scanner.health_check_interval", "30s")

	// Transport defaults
	viper.SetDefault("scanner.transports.bluetooth.connect_timeout", "15s")
	viper.SetDefault("scanner.transports.bluetooth.read_timeout", "5s")
	viper.SetDefault("scanner.transports.bluetooth.write_timeout", "2s")
	viper.SetDefault("scanner.transports.bluetooth.keep_alive_interval", "30s")

	viper.SetDefault("scanner.transports.wifi.connect_timeout", "10s")
	viper.SetDefault("scanner.transports.wifi.read_timeout", "5s")
	viper.SetDefault("scanner.transports.wifi.write_timeout", "2s")

	viper.SetDefault("scanner.transports.serial.baud_rate", 38400)
	viper.SetDefault("scanner.transports.serial.connect_timeout", "5s")
	viper.SetDefault("scanner.transports.serial.read_timeout", "5s")
	viper.SetDefault("scanner.transports.serial.write_timeout", "2s")

	viper.SetDefault("scanner.transports.j2534.connect_timeout", "10s")
	viper.SetDefault("scanner.transports.j2534.read_timeout", "5s")
	viper.SetDefault("scanner.transports.j2534.write_timeout", "2s")

	// Pool defaults
	viper.SetDefault("pool.max_per_key", 5)
	viper.SetDefault("pool.idle_timeout", "5m")
	viper.SetDefault("pool.sweep_interval", "1m")

	// Resource defaults
	viper.SetDefault("resource.max_connections", 20)
	viper.SetDefault("resource.leak_threshold", "10m")
	viper.SetDefault("resource.abandon_threshold", "5m")
	viper.SetDefault("resource.max_lifetime", "1h")
	viper.SetDefault("resource.monitor_interval", "30s")
	viper.SetDefault("resource.memory_delta_limit", 50*1024*1024)
	viper.SetDefault("resource.history_size", 100)

	// Detection defaults
	viper.SetDefault("detection.retries_per_protocol", 2)
	viper.SetDefault("detection.retry_delay", "500ms")
	viper.SetDefault("detection.total_timeout", "30s")
	viper.SetDefault("detection.command_timeout", "5s")
	viper.SetDefault("detection.stop_on_first_match", true)
	viper.SetDefault("detection.enable_fallback", true)

	// Discovery defaults
	viper.SetDefault("discovery.scan_timeout", "30s")
	viper.SetDefault("discovery.max_concurrent", 4)
	viper.SetDefault("discovery.wifi_ports", []int{35000, 23})
	viper.SetDefault("discovery.wifi_subnet", "192.168.0.0/24")

	// App defaults
	viper.SetDefault("app.name", "scanner-service")
	viper.SetDefault("app.version", "1.0.0")
	viper.SetDefault("app.environment", "development")
	viper.SetDefault("app.debug", false)
}

// validate validates the configuration
func validate(config *Config) error {
	// Basic validation
	if config.Server.Host == "" {
		return fmt.Errorf("server.host is required")
	}
	if config.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	if config.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if config.Resource.MaxConnections <= 0 {
		return fmt.Errorf("resource.max_connections must be positive")
	}
	if config.Pool.MaxPerKey <= 0 {
		return fmt.Errorf("pool.max_per_key must be positive")
	}

	// Validate environment
	validEnvs := []string{"development", "staging", "production", "test"}
	isValidEnv := false
	for _, env := range validEnvs {
		if config.App.Environment == env {
			isValidEnv = true
			break
		}
	}
	if !isValidEnv {
		return fmt.Errorf("app.environment must be one of: %v", validEnvs)
	}

	// Validate logging level
	validLevels := []string{"debug", "info", "warn", "error", "fatal"}
	isValidLevel := false
	for _, level := range validLevels {
		if config.Logging.Level == level {
			isValidLevel = true
			break
		}
	}
	if !isValidLevel {
		return fmt.Errorf("logging.level must be one of: %v", validLevels)
	}

	return nil
}

// GetDatabaseDSN returns the SQLite connection string with the pragmas the
// service depends on (WAL for concurrent readers, busy timeout, enforced
// foreign keys).
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_time_format=sqlite",
		c.Database.Path)
}

// GetServerAddr returns the server address
func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// IsProduction checks if the environment is production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment checks if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsDebugEnabled checks if debug mode is enabled
func (c *Config) IsDebugEnabled() bool {
	return c.App.Debug || c.IsDevelopment()
}
