package requests

import "github.com/place-resolver/app/models"

// TripContext is what the client already knows about the user's trip.
type TripContext struct {
	Country     string `json:"country,omitempty"`     // Country name or ISO code
	Destination string `json:"destination,omitempty"` // City or port the user is heading to
}

// ChatRequest is one chat turn.
type ChatRequest struct {
	Message string       `json:"message" binding:"required,max=500"` // User utterance
	Mode    string       `json:"mode,omitempty"`                     // auto, go, show or general
	Trip    *TripContext `json:"trip,omitempty"`                     // Optional trip context
}

// BatchChatRequest answers several turns in one call.
type BatchChatRequest struct {
	Messages []string     `json:"messages" binding:"required,min=1,max=100,dive,required,max=500"`
	Mode     string       `json:"mode,omitempty"`
	Trip     *TripContext `json:"trip,omitempty"`
}

// ResolveQuery is the query string of GET /v1/resolve.
type ResolveQuery struct {
	Q string `form:"q" binding:"required,max=200"`
}

// SuggestQuery is the query string of GET /v1/suggest.
type SuggestQuery struct {
	Q string `form:"q" binding:"max=200"`
	// Country is a country name or ISO code.
	Country string `form:"country" binding:"max=60"`
	Kind    string `form:"kind" binding:"omitempty,oneof=airport cruise"`
	Limit   int    `form:"limit" binding:"omitempty,min=1,max=50"`
}

// DirectionsQuery is the query string of GET /v1/links/directions.
type DirectionsQuery struct {
	Origin      string `form:"origin"`
	Destination string `form:"destination" binding:"required"`
	Mode        string `form:"mode"`
}

// SearchQuery is the query string of GET /v1/links/search.
type SearchQuery struct {
	Q      string `form:"q" binding:"required"`
	Images bool   `form:"images"`
}

// ReloadRequest is the optional body of POST /v1/admin/pois/reload. Inline
// POIs take precedence over Source. The file source always reads the
// configured dataset.path.
type ReloadRequest struct {
	Source string       `json:"source,omitempty"` // embedded, file or mongo
	POIs   []models.POI `json:"pois,omitempty"`
}

// InvalidateCacheRequest is the optional body of POST /v1/admin/cache/invalidate.
type InvalidateCacheRequest struct {
	All bool `json:"all,omitempty"` // drop every entry, not only stale ones
}
