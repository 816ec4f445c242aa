package controllers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/place-resolver/app/responses"
	"github.com/place-resolver/internal/resolver"
)

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// HealthController serves /health, /ready and /live.
type HealthController struct {
	source    resolver.SnapshotSource
	checks    map[string]HealthCheck
	version   string
	startTime time.Time
}

// NewHealthController creates a HealthController. checks maps a dependency
// name to its probe.
func NewHealthController(source resolver.SnapshotSource, checks map[string]HealthCheck, version string) *HealthController {
	if checks == nil {
		checks = map[string]HealthCheck{}
	}
	return &HealthController{
		source:    source,
		checks:    checks,
		version:   version,
		startTime: time.Now(),
	}
}

// Health reports the state of every dependency. Dependency failures degrade
// the status but never fail the request.
func (hc *HealthController) Health(c *gin.Context) {
	services, healthy := hc.probe(c.Request.Context())
	status := "healthy"
	if !healthy {
		status = "degraded"
	}
	c.JSON(http.StatusOK, hc.response(status, services))
}

// Ready answers 503 until the index has data and every dependency answers.
func (hc *HealthController) Ready(c *gin.Context) {
	services, healthy := hc.probe(c.Request.Context())
	if !healthy {
		c.JSON(http.StatusServiceUnavailable, hc.response("not_ready", services))
		return
	}
	c.JSON(http.StatusOK, hc.response("ready", services))
}

// Live answers as long as the process serves HTTP.
func (hc *HealthController) Live(c *gin.Context) {
	c.JSON(http.StatusOK, hc.response("alive", nil))
}

func (hc *HealthController) probe(ctx context.Context) (map[string]string, bool) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	healthy := true
	services := map[string]string{}

	if snap := hc.source.Snapshot(); snap.Len() > 0 {
		services["poi_index"] = "healthy"
	} else {
		services["poi_index"] = "empty"
		healthy = false
	}

	names := make([]string, 0, len(hc.checks))
	for name := range hc.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := hc.checks[name](ctx); err != nil {
			services[name] = "unhealthy: " + err.Error()
			healthy = false
			continue
		}
		services[name] = "healthy"
	}
	return services, healthy
}

func (hc *HealthController) response(status string, services map[string]string) responses.HealthCheckResponse {
	return responses.HealthCheckResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(hc.startTime).Round(time.Second).String(),
		Version:   hc.version,
		Services:  services,
	}
}
