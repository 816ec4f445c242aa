package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/place-resolver/app/requests"
	"github.com/place-resolver/app/responses"
	"github.com/place-resolver/app/services"
	"github.com/place-resolver/internal/poi"
	"go.uber.org/zap"
)

// AdminController serves dataset and cache administration.
type AdminController struct {
	adminService *services.AdminService
	chatService  *services.ChatService
	logger       *zap.Logger
}

// NewAdminController creates an AdminController.
func NewAdminController(adminService *services.AdminService, chatService *services.ChatService, logger *zap.Logger) *AdminController {
	return &AdminController{
		adminService: adminService,
		chatService:  chatService,
		logger:       logger,
	}
}

// ReloadPOIs rebuilds the POI index from the configured source, a source
// named in the body, or inline POIs. dry_run=true validates without swapping.
func (ac *AdminController) ReloadPOIs(c *gin.Context) {
	var req requests.ReloadRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, CodeInvalidRequest, "invalid reload request", err.Error())
			return
		}
	}

	result, err := ac.adminService.Reload(c.Request.Context(), services.ReloadOptions{
		Source:  req.Source,
		Records: req.POIs,
		DryRun:  c.Query("dry_run") == "true",
	})
	if err != nil {
		ac.handleReloadError(c, result, err)
		return
	}

	message := "POI index reloaded"
	if result.DryRun {
		message = "Dry run completed, index unchanged"
	}
	c.JSON(http.StatusOK, responses.ReloadResponse{ReloadResult: result, Message: message})
}

func (ac *AdminController) handleReloadError(c *gin.Context, result *services.ReloadResult, err error) {
	var details interface{}
	if result != nil {
		details = result.Report
	}

	switch {
	case errors.Is(err, services.ErrUnknownSource), errors.Is(err, services.ErrSourceDisabled):
		respondError(c, http.StatusBadRequest, CodeInvalidRequest, err.Error(), nil)
	case errors.Is(err, poi.ErrEmptyDataset), errors.Is(err, poi.ErrNoValidRecords):
		respondError(c, http.StatusUnprocessableEntity, CodeReloadFailed, err.Error(), details)
	case errors.Is(err, services.ErrDatasetUnreadable):
		respondError(c, http.StatusInternalServerError, CodeReloadFailed, services.ErrDatasetUnreadable.Error(), nil)
	default:
		ac.logger.Error("POI reload failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, CodeReloadFailed, "POI reload failed", nil)
	}
}

// ExportPOIs downloads the current snapshot as json or yaml.
func (ac *AdminController) ExportPOIs(c *gin.Context) {
	format := c.DefaultQuery("format", "json")

	data, err := ac.adminService.Export(format)
	if err != nil {
		if errors.Is(err, services.ErrUnsupportedFormat) {
			respondError(c, http.StatusBadRequest, CodeInvalidRequest, err.Error(), nil)
			return
		}
		respondError(c, http.StatusInternalServerError, CodeInternal, err.Error(), nil)
		return
	}

	contentType := "application/json"
	if format == "yaml" || format == "yml" {
		contentType = "application/yaml"
	}
	filename := fmt.Sprintf("pois_%s.%s", time.Now().Format("20060102_150405"), format)
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, contentType, data)
}

// InvalidateCache drops stale cached answers, or all of them with all=true.
func (ac *AdminController) InvalidateCache(c *gin.Context) {
	var req requests.InvalidateCacheRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, CodeInvalidRequest, "invalid invalidate request", err.Error())
			return
		}
	}
	if c.Query("all") == "true" {
		req.All = true
	}

	removed, err := ac.adminService.InvalidateCache(c.Request.Context(), req.All)
	if err != nil {
		ac.logger.Error("Cache invalidation failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, CodeInternal, "cache invalidation failed", err.Error())
		return
	}

	c.JSON(http.StatusOK, responses.InvalidateCacheResponse{
		Removed:        removed,
		All:            req.All,
		DatasetVersion: ac.chatService.DatasetVersion(),
	})
}

// RebuildSynonyms pushes the expander's synonym groups to the search index.
func (ac *AdminController) RebuildSynonyms(c *gin.Context) {
	groups, err := ac.adminService.RebuildSynonyms()
	if err != nil {
		if errors.Is(err, services.ErrSourceDisabled) {
			respondError(c, http.StatusServiceUnavailable, CodeUnavailable, "search index is not configured", nil)
			return
		}
		respondError(c, http.StatusInternalServerError, CodeInternal, err.Error(), nil)
		return
	}

	c.JSON(http.StatusOK, responses.SuccessResponse{
		Success:   true,
		Message:   "Search synonyms updated",
		Data:      gin.H{"synonym_groups": groups},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// GetStats reports index, cache and runtime figures.
func (ac *AdminController) GetStats(c *gin.Context) {
	stats, err := ac.adminService.GetSystemStats(c.Request.Context(), ac.chatService.GetStats())
	if err != nil {
		ac.logger.Error("Stats collection failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, CodeInternal, "could not collect stats", err.Error())
		return
	}
	c.JSON(http.StatusOK, stats)
}
