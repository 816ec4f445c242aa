package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SetupWebRoutes registers the service index and endpoint listing.
func SetupWebRoutes(router *gin.Engine, version string) {
	web := router.Group("/")
	{
		web.GET("/", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"message": "Travel chat place resolver",
				"version": version,
				"docs":    "/docs",
			})
		})

		web.GET("/docs", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"api": "Place resolver API v1",
				"endpoints": map[string]string{
					"chat":            "POST /v1/chat",
					"chat_batch":      "POST /v1/chat/batch",
					"resolve":         "GET /v1/resolve?q=",
					"suggest":         "GET /v1/suggest?q=&country=&kind=&limit=",
					"directions":      "GET /v1/links/directions?origin=&destination=&mode=",
					"search":          "GET /v1/links/search?q=&images=",
					"reload":          "POST /v1/admin/pois/reload?dry_run=",
					"export":          "GET /v1/admin/pois?format=json|yaml",
					"cache":           "POST /v1/admin/cache/invalidate",
					"search_synonyms": "POST /v1/admin/search/synonyms/rebuild",
					"stats":           "GET /v1/admin/stats",
					"health":          "GET /health",
					"metrics":         "GET /metrics",
				},
			})
		})
	}
}
