// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "github.com/sarapudheen-ops/spacetec-sub001/docs"
	"github.com/sarapudheen-ops/spacetec-sub001/internal/config"
	"github.com/sarapudheen-ops/spacetec-sub001/internal/database"
	"github.com/sarapudheen-ops/spacetec-sub001/internal/detect"
	"github.com/sarapudheen-ops/spacetec-sub001/internal/discovery"
	"github.com/sarapudheen-ops/spacetec-sub001/internal/discovery/bluetooth"
	discoveryserial "github.com/sarapudheen-ops/spacetec-sub001/internal/discovery/serial"
	"github.com/sarapudheen-ops/spacetec-sub001/internal/discovery/tcp"
	"github.com/sarapudheen-ops/spacetec-sub001/internal/discovery/usb"
	"github.com/sarapudheen-ops/spacetec-sub001/internal/manager"
	"github.com/sarapudheen-ops/spacetec-sub001/internal/pool"
	"github.com/sarapudheen-ops/spacetec-sub001/internal/repository"
	"github.com/sarapudheen-ops/spacetec-sub001/internal/resource"
	"github.com/sarapudheen-ops/spacetec-sub001/internal/routes"
	"github.com/sarapudheen-ops/spacetec-sub001/internal/transport"
	"github.com/sarapudheen-ops/spacetec-sub001/internal/utils"
)

// Application represents the main application
type Application struct {
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
	database *database.DB
	migrator *database.Migrator

	// Scanner stack
	resources *resource.Manager
	connPool  *pool.Pool
	discovery *discovery.Service
	scanner   *manager.ScannerManager

	// Repositories
	profileRepo   repository.ProfileRepository
	detectionRepo repository.DetectionRepository

	router *routes.Router
}

// @title Scanner Service API
// @version 1.0.0
// @description Vehicle diagnostics scanner gateway managing ELM327 and J2534 adapters over Bluetooth, WiFi, USB-serial, and J2534 pass-thru transports
// @termsOfService http://swagger.io/terms/

// @contact.name Scanner Service API Support
// @contact.email support@spacetec.dev

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8095
// @BasePath /api/v1
func main() {
	// Initialize application
	app, err := NewApplication()
	if err != nil {
		fmt.Printf("Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	// Start the application
	if err := app.Start(); err != nil {
		app.logger.Fatal("Failed to start application", zap.Error(err))
	}
}

// NewApplication creates a new application instance
func NewApplication() (*Application, error) {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger, err := utils.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Create service logger
	serviceLogger := utils.NewServiceLogger(logger, "scanner-service")
	serviceLogger.LogServiceStart(cfg.App.Version, cfg)

	app := &Application{
		config: cfg,
		logger: logger,
	}

	// Initialize components
	if err := app.initializeDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := app.initializeRepositories(); err != nil {
		return nil, fmt.Errorf("failed to initialize repositories: %w", err)
	}

	if err := app.initializeScannerStack(); err != nil {
		return nil, fmt.Errorf("failed to initialize scanner stack: %w", err)
	}

	if err := app.initializeServer(); err != nil {
		return nil, fmt.Errorf("failed to initialize server: %w", err)
	}

	return app, nil
}

// initializeDatabase sets up database connection and runs migrations
func (app *Application) initializeDatabase() error {
	db, err := database.NewConnection(&app.config.Database, app.logger)
	if err != nil {
		return fmt.Errorf("failed to create database connection: %w", err)
	}

	app.database = db
	app.migrator = database.NewMigrator(db, app.logger, &app.config.Database)

	if err := app.migrator.Up(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	app.logger.Info("Database initialized successfully")
	return nil
}

// initializeRepositories creates repository instances
func (app *Application) initializeRepositories() error {
	app.profileRepo = repository.NewProfileRepository(app.database, app.logger)
	app.detectionRepo = repository.NewDetectionRepository(app.database, app.logger)

	app.logger.Info("Repositories initialized successfully")
	return nil
}

// initializeScannerStack wires the resource supervisor, connection pool,
// discovery service, and scanner manager together.
func (app *Application) initializeScannerStack() error {
	// Resource supervisor watches every pooled connection for leaks
	app.resources = resource.NewManager(resource.Config{
		MaxConnections:   app.config.Resource.MaxConnections,
		LeakThreshold:    app.config.Resource.LeakThreshold,
		AbandonThreshold: app.config.Resource.AbandonThreshold,
		MaxLifetime:      app.config.Resource.MaxLifetime,
		MonitorInterval:  app.config.Resource.MonitorInterval,
		MemoryDeltaLimit: app.config.Resource.MemoryDeltaLimit,
		HistorySize:      app.config.Resource.HistorySize,
	}, app.logger)
	app.resources.Start()

	// Connection pool keyed by transport and address
	app.connPool = pool.New(pool.Config{
		MaxPerKey:     app.config.Pool.MaxPerKey,
		IdleTimeout:   app.config.Pool.IdleTimeout,
		SweepInterval: app.config.Pool.SweepInterval,
	}, app.resources, app.logger)
	app.connPool.SetFactory(func(t transport.TransportType) (transport.ScannerConnection, error) {
		return transport.NewForTransport(t, app.logger)
	})
	app.connPool.Start()

	// Discovery service with one scanner per transport
	app.discovery = discovery.NewService(discovery.Config{
		ScanTimeout:   app.config.Discovery.ScanTimeout,
		MaxConcurrent: app.config.Discovery.MaxConcurrent,
	}, app.logger)
	app.discovery.RegisterScanner(bluetooth.NewScanner(app.logger, nil))
	app.discovery.RegisterScanner(tcp.NewScanner(app.logger, &tcp.Config{
		Subnet: app.config.Discovery.WiFiSubnet,
		Ports:  app.config.Discovery.WiFiPorts,
	}))
	app.discovery.RegisterScanner(discoveryserial.NewScanner(app.logger, &discoveryserial.Config{
		BaudRate: app.config.Scanner.Transports.Serial.BaudRate,
	}))
	app.discovery.RegisterScanner(usb.NewScanner(app.logger, nil))

	// Scanner manager on top of the stack
	app.scanner = manager.NewManager(manager.Config{
		CommandTimeout: app.config.Scanner.CommandTimeout,
		InitRetries:    app.config.Scanner.InitRetries,
		Detection:      app.detectionOptions(),
		Presets:        app.transportPresets(),
	}, app.connPool, app.resources, app.discovery, app.profileRepo, app.detectionRepo, app.logger)

	app.logger.Info("Scanner stack initialized successfully",
		zap.Int("max_connections", app.config.Resource.MaxConnections),
		zap.Int("pool_max_per_key", app.config.Pool.MaxPerKey),
	)
	return nil
}

// detectionOptions builds the detection template from configuration.
func (app *Application) detectionOptions() detect.Options {
	opts := detect.DefaultOptions()
	opts.RetriesPerProtocol = app.config.Detection.RetriesPerProtocol
	opts.RetryDelay = app.config.Detection.RetryDelay
	opts.TotalTimeout = app.config.Detection.TotalTimeout
	opts.CommandTimeout = app.config.Detection.CommandTimeout
	opts.StopOnFirstMatch = app.config.Detection.StopOnFirstMatch
	opts.EnableFallback = app.config.Detection.EnableFallback
	return opts
}

// transportPresets overlays configured timeouts onto the built-in
// per-transport connection presets.
func (app *Application) transportPresets() map[transport.TransportType]transport.ConnectionConfig {
	transports := app.config.Scanner.Transports

	bt := transport.BluetoothConfig()
	overlayTimeouts(&bt, transports.Bluetooth.ConnectTimeout, transports.Bluetooth.ReadTimeout, transports.Bluetooth.WriteTimeout)
	if transports.Bluetooth.KeepAliveInterval > 0 {
		bt.KeepAliveInterval = transports.Bluetooth.KeepAliveInterval
	}

	wifi := transport.WiFiConfig()
	overlayTimeouts(&wifi, transports.WiFi.ConnectTimeout, transports.WiFi.ReadTimeout, transports.WiFi.WriteTimeout)

	serialCfg := transport.SerialConfig()
	overlayTimeouts(&serialCfg, transports.Serial.ConnectTimeout, transports.Serial.ReadTimeout, transports.Serial.WriteTimeout)

	j2534 := transport.J2534Config()
	overlayTimeouts(&j2534, transports.J2534.ConnectTimeout, transports.J2534.ReadTimeout, transports.J2534.WriteTimeout)

	return map[transport.TransportType]transport.ConnectionConfig{
		transport.TransportBluetooth: bt,
		transport.TransportWiFi:      wifi,
		transport.TransportSerial:    serialCfg,
		transport.TransportJ2534:     j2534,
	}
}

// overlayTimeouts applies configured timeouts where set, keeping the
// preset values elsewhere.
func overlayTimeouts(cfg *transport.ConnectionConfig, connect, read, write time.Duration) {
	if connect > 0 {
		cfg.ConnectTimeout = connect
	}
	if read > 0 {
		cfg.ReadTimeout = read
	}
	if write > 0 {
		cfg.WriteTimeout = write
	}
}

// initializeServer sets up HTTP server and routes
func (app *Application) initializeServer() error {
	app.router = routes.NewRouter(
		app.config,
		app.logger,
		app.database,
		app.scanner,
		app.discovery,
		app.profileRepo,
		app.detectionRepo,
		app.resources,
	)

	router := app.router.SetupRouter()

	app.server = &http.Server{
		Addr:         app.config.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  app.config.Server.ReadTimeout,
		WriteTimeout: app.config.Server.WriteTimeout,
		IdleTimeout:  app.config.Server.IdleTimeout,
	}

	app.logger.Info("HTTP server initialized",
		zap.String("address", app.config.GetServerAddr()),
		zap.Bool("tls_enabled", app.config.Server.TLS.Enabled),
	)

	return nil
}

// startBackgroundServices starts background services
func (app *Application) startBackgroundServices() {
	// Try saved auto-connect profiles once at startup
	go app.autoConnectSavedScanners()

	// Watch the active adapter link
	go app.startHealthMonitoring()

	// Prune old detection history
	go app.startCleanupService()

	app.logger.Info("Background services started")
}

// autoConnectSavedScanners walks the profiles flagged for automatic
// connection and stops at the first adapter that accepts a session.
func (app *Application) autoConnectSavedScanners() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	profiles, err := app.profileRepo.ListAutoConnect(ctx)
	if err != nil {
		app.logger.Error("Failed to load auto-connect profiles", zap.Error(err))
		return
	}
	if len(profiles) == 0 {
		return
	}

	for _, profile := range profiles {
		if app.scanner.IsConnected() {
			return
		}

		app.logger.Info("Trying auto-connect profile",
			zap.String("name", profile.Name),
			zap.String("address", profile.Address),
		)

		if _, err := app.scanner.Connect(ctx, profile.Address, nil, true); err != nil {
			app.logger.Warn("Auto-connect attempt failed",
				zap.String("name", profile.Name),
				zap.Error(err),
			)
			continue
		}

		app.logger.Info("Auto-connected to saved scanner",
			zap.String("name", profile.Name),
			zap.String("address", profile.Address),
		)
		return
	}
}

// startHealthMonitoring periodically grades the active adapter link
func (app *Application) startHealthMonitoring() {
	interval := app.config.Scanner.HealthCheckInterval
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	app.logger.Info("Scanner health monitoring started",
		zap.Duration("interval", interval),
	)

	for range ticker.C {
		if !app.scanner.IsConnected() {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		report, err := app.scanner.CheckHealth(ctx)
		cancel()

		if err != nil {
			app.logger.Warn("Scanner health check failed", zap.Error(err))
			continue
		}

		fields := []zap.Field{
			zap.String("quality", string(report.Quality)),
			zap.Duration("response_time", report.ResponseTime),
			zap.Bool("low_voltage", report.LowVoltage),
		}
		if report.Voltage != nil {
			fields = append(fields, zap.String("voltage", report.Voltage.String()))
		}

		if report.LowVoltage || report.Quality == manager.QualityPoor {
			app.logger.Warn("Scanner link degraded", fields...)
		} else {
			app.logger.Debug("Scanner health check completed", fields...)
		}
	}
}

// startCleanupService prunes detection history on the retention schedule
func (app *Application) startCleanupService() {
	if app.config.Database.HistoryRetention <= 0 {
		return
	}

	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	app.logger.Info("Cleanup service started",
		zap.Duration("retention", app.config.Database.HistoryRetention),
	)

	for range ticker.C {
		if err := app.migrator.RunCleanup(); err != nil {
			app.logger.Error("Failed to prune detection history", zap.Error(err))
		}
	}
}

// waitForShutdown waits for shutdown signal and performs graceful shutdown
func (app *Application) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	app.logger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	app.shutdown()
}

// shutdown performs graceful shutdown
func (app *Application) shutdown() {
	serviceLogger := utils.NewServiceLogger(app.logger, "scanner-service")
	serviceLogger.LogServiceStop("shutdown signal received")

	// Shutdown HTTP server
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		app.logger.Info("HTTP server stopped")
	}

	// Stop WebSocket event bridges
	if app.router != nil {
		app.router.Close()
	}

	// Release the scanner stack: active session, pool, resource supervisor
	if app.scanner != nil {
		if err := app.scanner.Release(); err != nil {
			app.logger.Error("Scanner stack release error", zap.Error(err))
		} else {
			app.logger.Info("Scanner stack released")
		}
	}

	// Close database connection
	if app.database != nil {
		if err := app.database.Close(); err != nil {
			app.logger.Error("Database close error", zap.Error(err))
		} else {
			app.logger.Info("Database connection closed")
		}
	}

	// Flush logger
	if err := utils.CloseLogger(app.logger); err != nil {
		fmt.Printf("Logger close error: %v\n", err)
	}
}

func (app *Application) Start() error {
	// Start server in goroutine
	go func() {
		app.logger.Info("Starting HTTP server",
			zap.String("address", app.server.Addr),
		)

		var err error
		if app.config.Server.TLS.Enabled {
			err = app.server.ListenAndServeTLS(
				app.config.Server.TLS.CertFile,
				app.config.Server.TLS.KeyFile,
			)
		} else {
			err = app.server.ListenAndServe()
		}

		if err != nil && err != http.ErrServerClosed {
			app.logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// Start background services
	app.startBackgroundServices()

	// Wait for interrupt signal
	app.waitForShutdown()

	return nil
}
