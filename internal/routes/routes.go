// internal/routes/routes.go
package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/sarapudheen-ops/spacetec-sub001/internal/config"
	"github.com/sarapudheen-ops/spacetec-sub001/internal/database"
	"github.com/sarapudheen-ops/spacetec-sub001/internal/discovery"
	"github.com/sarapudheen-ops/spacetec-sub001/internal/handler"
	"github.com/sarapudheen-ops/spacetec-sub001/internal/manager"
	"github.com/sarapudheen-ops/spacetec-sub001/internal/middleware"
	"github.com/sarapudheen-ops/spacetec-sub001/internal/repository"
	"github.com/sarapudheen-ops/spacetec-sub001/internal/resource"
	"github.com/sarapudheen-ops/spacetec-sub001/internal/utils"
)

// Router holds all dependencies for routing
type Router struct {
	config    *config.Config
	logger    *zap.Logger
	db        *database.DB
	scanner   *manager.ScannerManager
	discovery *discovery.Service
	profiles  repository.ProfileRepository
	history   repository.DetectionRepository
	resources *resource.Manager

	wsHandler *handler.WebSocketHandler
}

// NewRouter creates a new router instance
func NewRouter(
	config *config.Config,
	logger *zap.Logger,
	db *database.DB,
	scanner *manager.ScannerManager,
	discoveryService *discovery.Service,
	profiles repository.ProfileRepository,
	history repository.DetectionRepository,
	resources *resource.Manager,
) *Router {
	return &Router{
		config:    config,
		logger:    logger,
		db:        db,
		scanner:   scanner,
		discovery: discoveryService,
		profiles:  profiles,
		history:   history,
		resources: resources,
	}
}

// SetupRouter creates and configures the Gin router
func (r *Router) SetupRouter() *gin.Engine {
	if r.config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()

	r.addMiddleware(router)
	r.addRoutes(router)

	return router
}

// Close releases resources held by long-lived handlers.
func (r *Router) Close() {
	if r.wsHandler != nil {
		r.wsHandler.Close()
	}
}

// addMiddleware adds middleware to the router
func (r *Router) addMiddleware(router *gin.Engine) {
	router.Use(middleware.RecoveryMiddleware(r.logger))

	router.Use(middleware.RequestIDMiddleware())

	serviceLogger := utils.NewServiceLogger(r.logger, "http-server")
	router.Use(middleware.LoggingMiddleware(serviceLogger))

	router.Use(middleware.CORSMiddleware(&r.config.Security))

	router.Use(middleware.RateLimitMiddleware(&r.config.Security, r.logger))

	r.logger.Info("Middleware configured")
}

// addRoutes sets up all application routes
func (r *Router) addRoutes(router *gin.Engine) {
	healthHandler := handler.NewHealthHandler(r.db, r.scanner, r.resources, r.config, r.logger)
	scannerHandler := handler.NewScannerHandler(r.scanner, r.logger)
	discoveryHandler := handler.NewDiscoveryHandler(r.discovery, r.logger)
	profileHandler := handler.NewProfileHandler(r.profiles, r.logger)
	historyHandler := handler.NewHistoryHandler(r.history, r.logger)
	resourceHandler := handler.NewResourceHandler(r.resources, r.logger)
	r.wsHandler = handler.NewWebSocketHandler(r.scanner, r.resources, r.logger)

	// Health check routes at the root, probes hit these unauthenticated
	r.addHealthRoutes(router, healthHandler)

	// API v1 routes
	apiV1 := router.Group("/api/v1")
	scannerHandler.RegisterRoutes(apiV1)
	discoveryHandler.RegisterRoutes(apiV1)
	profileHandler.RegisterRoutes(apiV1)
	historyHandler.RegisterRoutes(apiV1)
	resourceHandler.RegisterRoutes(apiV1)

	// WebSocket routes
	r.addWebSocketRoutes(router, r.wsHandler)

	// Documentation routes
	r.addDocumentationRoutes(router)

	r.logger.Info("All routes configured successfully")
}

// addHealthRoutes sets up health check routes
func (r *Router) addHealthRoutes(router *gin.Engine, healthHandler *handler.HealthHandler) {
	health := router.Group("")
	healthHandler.RegisterRoutes(health)
}

// addWebSocketRoutes sets up WebSocket routes
func (r *Router) addWebSocketRoutes(router *gin.Engine, wsHandler *handler.WebSocketHandler) {
	ws := router.Group("/ws")
	wsHandler.RegisterRoutes(ws)
}

// addDocumentationRoutes sets up documentation routes
func (r *Router) addDocumentationRoutes(router *gin.Engine) {
	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))

	// Swagger redirect for convenience
	router.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})
}
