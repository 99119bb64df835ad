package handlers

import (
	"controlling_motor/internal/logger"
	"controlling_motor/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	return &Handler{services: services, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", h.health)

	h.registerAuthRoutes(router)
	h.registerAPIRoutes(router)

	// panel stream for one session, same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.operatorMiddleware)
	{
		api.GET("/models", h.listModels)
		h.registerSessionRoutes(api)
		h.registerRampRoutes(api)
		h.registerLogRoutes(api)
	}
}

func (h *Handler) registerSessionRoutes(api *gin.RouterGroup) {
	sessions := api.Group("/sessions")
	{
		sessions.POST("", h.openSession)
		sessions.GET("/:id", h.getSession)
		sessions.DELETE("/:id", h.closeSession)

		// Body example: {"model":"SCK-300P"}
		sessions.POST("/:id/model", h.setModel)
		// Body example: {"value":"1500"} or {"value":1500}
		sessions.POST("/:id/speed", h.setSpeed)
		sessions.POST("/:id/acceleration", h.setAcceleration)
		// Body example: {"delta":100}
		sessions.POST("/:id/nudge", h.nudgeSpeed)
		sessions.POST("/:id/start", h.start)
		sessions.POST("/:id/stop", h.stop)
		// Body example: {"name":"warmup"}
		sessions.POST("/:id/ramp", h.runRamp)
	}
}

func (h *Handler) registerRampRoutes(api *gin.RouterGroup) {
	ramps := api.Group("/ramps")
	{
		ramps.GET("", h.listRamps)
		ramps.GET("/:name", h.getRamp)
		ramps.PUT("/:name", h.saveRamp)
	}
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs")
	{
		logs.GET("", h.getLogs)
	}
}
