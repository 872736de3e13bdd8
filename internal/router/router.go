package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "addrparser/docs"
	"addrparser/internal/handler"
	"addrparser/internal/middleware"
)

// Handlers groups the HTTP handlers served by the router.
type Handlers struct {
	Health  *handler.HealthHandler
	Lookup  *handler.LookupHandler
	Session *handler.SessionHandler
	Export  *handler.ExportHandler
}

// Setup configures the Gin engine with all routes and middleware.
func Setup(h Handlers, allowedOrigins []string) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(allowedOrigins))

	// Health checks
	r.GET("/healthz", h.Health.Liveness)
	r.GET("/readyz", h.Health.Readiness)

	// API docs
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")

	// Direct lookups
	v1.POST("/parse-address", h.Lookup.ParseAddress)
	v1.POST("/employees", h.Lookup.EmployeesByDate)
	v1.POST("/employee-search", h.Lookup.EmployeeByID)

	// Batch sessions
	sessions := v1.Group("/sessions")
	sessions.POST("", h.Session.Create)
	sessions.GET("/:id", h.Session.Get)
	sessions.DELETE("/:id", h.Session.Delete)
	sessions.POST("/:id/clear", h.Session.Clear)
	sessions.POST("/:id/reset-results", h.Session.ResetResults)
	sessions.POST("/:id/text", h.Session.LoadText)
	sessions.POST("/:id/file", h.Session.LoadFile)
	sessions.POST("/:id/employees", h.Session.LoadEmployees)
	sessions.POST("/:id/process", h.Session.ProcessAll)
	sessions.POST("/:id/items/:itemId/parse", h.Session.ProcessItem)
	sessions.GET("/:id/export", h.Export.ExportSession)

	// Export archive
	v1.GET("/exports", h.Export.List)

	return r
}
