package controllers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/place-resolver/app/responses"
)

// RequestIDKey is the gin context key holding the request id.
const RequestIDKey = "request_id"

// Error codes
const (
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeNotFound       = "NOT_FOUND"
	CodeTimeout        = "TIMEOUT"
	CodeInternal       = "INTERNAL_ERROR"
	CodeReloadFailed   = "RELOAD_FAILED"
	CodeUnavailable    = "SERVICE_UNAVAILABLE"
)

func respondError(c *gin.Context, status int, code, message string, details interface{}) {
	c.AbortWithStatusJSON(status, responses.ErrorResponse{
		Error:     code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		RequestID: c.GetString(RequestIDKey),
	})
}
