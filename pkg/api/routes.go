package api

import (
	"tvfleet/pkg/database"
	"tvfleet/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterDeps bundles everything the HTTP surface needs.
type RouterDeps struct {
	Auth          *JwtAuth
	Dispatcher    BulkDispatcher
	TVs           TVDirectory
	Commands      CommandLister
	Status        StatusSource
	Probe         Pinger
	Remote        RemoteChecker
	HealthEvents  chan<- models.Event
	TVRepo        database.Repository[models.TV]
	KeyRepo       database.Repository[models.CommandKey]
	EncryptionKey string
}

// SetupRouter builds the gin engine. Login, liveness and metrics are
// public; the panel surface and management CRUD sit behind JWT.
func SetupRouter(deps RouterDeps) *gin.Engine {
	router := gin.Default()
	router.Use(SecurityHeaders())

	router.POST("/login", deps.Auth.LoginHandler)
	router.GET("/health", HealthHandler)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	protected := router.Group("/")
	protected.Use(deps.Auth.JWTMiddleware())
	{
		protected.POST("/bulk-command", BulkCommandHandler(deps.Dispatcher, deps.HealthEvents))
		protected.GET("/tvs", TVsHandler(deps.TVs))
		protected.GET("/commands", CommandsHandler(deps.Commands))
		protected.GET("/status", StatusHandler(deps.Status))
		protected.GET("/debug/:ip", DebugHandler(deps.TVs, deps.Probe, deps.Remote))

		apiGroup := protected.Group("/api/v1")
		{
			NewCrudHandler(deps.TVRepo, deps.EncryptionKey).RegisterRoutes(apiGroup, "/tvs")
			NewCrudHandler(deps.KeyRepo, deps.EncryptionKey).RegisterRoutes(apiGroup, "/commands")
		}
	}

	return router
}
