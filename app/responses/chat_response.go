package responses

import (
	"github.com/place-resolver/app/models"
	"github.com/place-resolver/app/services"
	"github.com/place-resolver/internal/links"
	"github.com/place-resolver/internal/resolver"
)

// ChatResponse is the answer to one chat turn.
type ChatResponse struct {
	MessageID        string             `json:"message_id"`
	Result           *models.ChatResult `json:"result"`
	CacheHit         bool               `json:"cache_hit"`
	ProcessingTimeMs int64              `json:"processing_time_ms"`
}

// BatchChatLine is one NDJSON line of a batch answer.
type BatchChatLine struct {
	Index   int                `json:"index"`
	Message string             `json:"message"`
	Result  *models.ChatResult `json:"result,omitempty"`
	Error   string             `json:"error,omitempty"`
}

// ResolveResponse is the answer to GET /v1/resolve.
type ResolveResponse struct {
	Query          string      `json:"query"`
	Found          bool        `json:"found"`
	POI            *models.POI `json:"poi,omitempty"`
	Score          int         `json:"score,omitempty"`
	Suggestions    []string    `json:"suggestions,omitempty"`
	DatasetVersion string      `json:"dataset_version"`
}

// SuggestResponse is the answer to GET /v1/suggest.
type SuggestResponse struct {
	Query          string           `json:"query,omitempty"`
	Places         []resolver.Place `json:"places"`
	DatasetVersion string           `json:"dataset_version"`
}

// LinkResponse wraps a single generated link.
type LinkResponse struct {
	Link links.Link `json:"link"`
}

// ReloadResponse reports a POI reload.
type ReloadResponse struct {
	*services.ReloadResult
	Message string `json:"message"`
}

// InvalidateCacheResponse reports a cache invalidation.
type InvalidateCacheResponse struct {
	Removed        int64  `json:"removed"`
	All            bool   `json:"all"`
	DatasetVersion string `json:"dataset_version"`
}

// ErrorResponse is returned for every failed request.
type ErrorResponse struct {
	Error     string      `json:"error"`                // Machine readable code
	Message   string      `json:"message"`              // Human readable message
	Details   interface{} `json:"details,omitempty"`    // Extra context
	Timestamp string      `json:"timestamp"`            // RFC 3339
	RequestID string      `json:"request_id,omitempty"` // Echoed request id
}

// SuccessResponse is a generic acknowledgement.
type SuccessResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// HealthCheckResponse is returned by /health.
type HealthCheckResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Uptime    string            `json:"uptime"`
	Version   string            `json:"version"`
	Services  map[string]string `json:"services"`
}
