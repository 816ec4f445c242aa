package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/place-resolver/app/controllers"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Dependencies is everything the route table needs.
type Dependencies struct {
	Chat        *controllers.ChatController
	Admin       *controllers.AdminController
	Health      *controllers.HealthController
	Registry    *prometheus.Registry
	CORSOrigins []string
	Version     string
	Logger      *zap.Logger
}

// SetupAPIRoutes registers the /v1 routes.
func SetupAPIRoutes(router *gin.Engine, deps Dependencies) {
	v1 := router.Group("/v1")
	{
		v1.POST("/chat", deps.Chat.Chat)
		v1.POST("/chat/batch", deps.Chat.ChatBatch)
		v1.GET("/resolve", deps.Chat.Resolve)
		v1.GET("/suggest", deps.Chat.Suggest)

		linkGroup := v1.Group("/links")
		{
			linkGroup.GET("/directions", deps.Chat.Directions)
			linkGroup.GET("/search", deps.Chat.Search)
		}

		admin := v1.Group("/admin")
		{
			admin.POST("/pois/reload", deps.Admin.ReloadPOIs)
			admin.GET("/pois", deps.Admin.ExportPOIs)
			admin.POST("/cache/invalidate", deps.Admin.InvalidateCache)
			admin.POST("/search/synonyms/rebuild", deps.Admin.RebuildSynonyms)
			admin.GET("/stats", deps.Admin.GetStats)
		}

		v1.GET("/health", deps.Health.Health)
	}
}

// SetupHealthRoutes registers the probe routes.
func SetupHealthRoutes(router *gin.Engine, health *controllers.HealthController) {
	router.GET("/health", health.Health)
	router.GET("/ready", health.Ready)
	router.GET("/live", health.Live)
}

// SetupMetricsRoutes exposes registry for Prometheus scraping.
func SetupMetricsRoutes(router *gin.Engine, registry *prometheus.Registry) {
	if registry == nil {
		return
	}
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
}

// SetupAllRoutes installs middleware and every route group.
func SetupAllRoutes(router *gin.Engine, deps Dependencies) {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	setupMiddleware(router, deps)

	SetupWebRoutes(router, deps.Version)
	SetupHealthRoutes(router, deps.Health)
	SetupAPIRoutes(router, deps)
	SetupMetricsRoutes(router, deps.Registry)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":      controllers.CodeNotFound,
			"message":    "route not found",
			"path":       c.Request.URL.Path,
			"method":     c.Request.Method,
			"request_id": c.GetString(controllers.RequestIDKey),
		})
	})
}

func setupMiddleware(router *gin.Engine, deps Dependencies) {
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(loggingMiddleware(deps.Logger))
	router.Use(corsMiddleware(deps.CORSOrigins))
}
