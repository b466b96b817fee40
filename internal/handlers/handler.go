package handlers

import (
	"ttlock-bridge/internal/logger"
	"ttlock-bridge/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires the HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
	logPath  string // rotating text log, tailed by /api/log
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger, logPath string) *Handler {
	return &Handler{services: services, log: log, logPath: logPath}
}

// InitRoutes builds and returns the Gin router with all routes registered.
// Every route is unauthenticated: the host integration polls with bare
// requests.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health endpoint
	router.GET("/health", h.health)

	api := router.Group("/api")
	{
		// Configuration and credential workflow
		api.GET("/config", h.getConfig)
		api.POST("/settings", h.saveSettings)
		api.POST("/password", h.hashPassword)
		api.POST("/register", h.registerUser)
		api.POST("/token", h.getToken)
		api.POST("/setup", h.quickSetup)

		// Lock surface consumed by the host integration
		api.GET("/locks", h.listLocks)
		api.POST("/locks/:lockId/:action", h.operateLock)

		// Operator diagnostics
		api.GET("/events", h.getEvents)
		api.GET("/log", h.getLogTail)
	}

	// Lock snapshot push over WebSocket — same port
	router.GET("/ws", h.wsConnect)

	return router
}
