package controllers

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/place-resolver/app/requests"
	"github.com/place-resolver/app/responses"
	"github.com/place-resolver/app/services"
	"github.com/place-resolver/helpers/utils"
	"github.com/place-resolver/internal/chat"
	"github.com/place-resolver/internal/intent"
	"github.com/place-resolver/internal/links"
	"github.com/place-resolver/internal/resolver"
	"go.uber.org/zap"
)

// ChatController serves the chat, resolve and link endpoints.
type ChatController struct {
	chatService *services.ChatService
	logger      *zap.Logger
}

// NewChatController creates a ChatController.
func NewChatController(chatService *services.ChatService, logger *zap.Logger) *ChatController {
	return &ChatController{
		chatService: chatService,
		logger:      logger,
	}
}

// Chat answers one chat turn.
func (cc *ChatController) Chat(c *gin.Context) {
	var req requests.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, CodeInvalidRequest, "invalid chat request", err.Error())
		return
	}

	mode := intent.ParseMode(req.Mode)

	start := time.Now()
	result, cached, err := cc.chatService.Chat(c.Request.Context(), chat.Request{
		Text: req.Message,
		Mode: mode,
		Trip: toTrip(req.Trip),
	})
	if err != nil {
		cc.handleChatError(c, err)
		return
	}

	c.JSON(http.StatusOK, responses.ChatResponse{
		MessageID:        utils.GenerateUUID(),
		Result:           result,
		CacheHit:         cached,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	})
}

// ChatBatch answers several turns and streams one NDJSON line per message,
// gzip-compressed when the client accepts it.
func (cc *ChatController) ChatBatch(c *gin.Context) {
	var req requests.BatchChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, CodeInvalidRequest, "invalid batch request", err.Error())
		return
	}

	mode := intent.ParseMode(req.Mode)
	trip := toTrip(req.Trip)

	gzipEnabled := strings.Contains(c.GetHeader("Accept-Encoding"), "gzip")
	c.Header("Content-Type", "application/x-ndjson")
	if gzipEnabled {
		c.Header("Content-Encoding", "gzip")
	}
	c.Status(http.StatusOK)

	var writer gin.ResponseWriter = c.Writer
	if gzipEnabled {
		gzWriter := gzip.NewWriter(c.Writer)
		defer gzWriter.Close()
		writer = &gzipResponseWriter{ResponseWriter: c.Writer, gzWriter: gzWriter}
	}

	encoder := json.NewEncoder(writer)
	for i, msg := range req.Messages {
		line := responses.BatchChatLine{Index: i, Message: msg}
		result, _, err := cc.chatService.Chat(c.Request.Context(), chat.Request{Text: msg, Mode: mode, Trip: trip})
		if err != nil {
			line.Error = err.Error()
		} else {
			line.Result = result
		}

		if err := encoder.Encode(line); err != nil {
			cc.logger.Error("NDJSON encode failed", zap.Error(err))
			return
		}
		if flusher, ok := writer.(http.Flusher); ok {
			flusher.Flush()
		}
	}
}

// Resolve looks a phrase up in the POI index.
func (cc *ChatController) Resolve(c *gin.Context) {
	var q requests.ResolveQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, http.StatusBadRequest, CodeInvalidRequest, "query parameter q is required", err.Error())
		return
	}

	match, suggestions := cc.chatService.Resolve(c.Request.Context(), q.Q)
	resp := responses.ResolveResponse{
		Query:          q.Q,
		DatasetVersion: cc.chatService.DatasetVersion(),
	}
	if match == nil {
		resp.Suggestions = suggestions
		c.JSON(http.StatusNotFound, resp)
		return
	}

	p := match.POI
	resp.Found = true
	resp.POI = &p
	resp.Score = match.Score
	c.JSON(http.StatusOK, resp)
}

// Suggest lists airports and cruise terminals for a partial destination.
func (cc *ChatController) Suggest(c *gin.Context) {
	var q requests.SuggestQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, http.StatusBadRequest, CodeInvalidRequest, "invalid suggest query", err.Error())
		return
	}

	places, err := cc.chatService.Places(q.Q, q.Country, q.Kind, q.Limit)
	if err != nil {
		respondError(c, http.StatusBadRequest, CodeInvalidRequest, err.Error(), gin.H{"country": q.Country})
		return
	}
	if places == nil {
		places = []resolver.Place{}
	}
	c.JSON(http.StatusOK, responses.SuggestResponse{
		Query:          q.Q,
		Places:         places,
		DatasetVersion: cc.chatService.DatasetVersion(),
	})
}

// Directions builds a directions link.
func (cc *ChatController) Directions(c *gin.Context) {
	var q requests.DirectionsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, http.StatusBadRequest, CodeInvalidRequest, "query parameter destination is required", err.Error())
		return
	}

	mode := links.ParseMode(q.Mode)
	c.JSON(http.StatusOK, responses.LinkResponse{Link: links.Link{
		Label: q.Destination,
		URL:   links.DirectionsURL(q.Origin, q.Destination, mode),
		Mode:  mode,
	}})
}

// Search builds a map search link, or an image search link with images=true.
func (cc *ChatController) Search(c *gin.Context) {
	var q requests.SearchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, http.StatusBadRequest, CodeInvalidRequest, "query parameter q is required", err.Error())
		return
	}

	url := links.SearchURL(q.Q)
	if q.Images {
		url = links.ImageSearchURL(q.Q)
	}
	c.JSON(http.StatusOK, responses.LinkResponse{Link: links.Link{Label: q.Q, URL: url}})
}

func (cc *ChatController) handleChatError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrEmptyMessage):
		respondError(c, http.StatusBadRequest, CodeInvalidRequest, err.Error(), nil)
	case errors.Is(err, context.DeadlineExceeded):
		respondError(c, http.StatusGatewayTimeout, CodeTimeout, "chat request timed out", nil)
	default:
		cc.logger.Error("Chat failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, CodeInternal, "chat failed", nil)
	}
}

func toTrip(t *requests.TripContext) *chat.Trip {
	if t == nil {
		return nil
	}
	return &chat.Trip{Country: t.Country, Destination: t.Destination}
}

type gzipResponseWriter struct {
	gin.ResponseWriter
	gzWriter *gzip.Writer
}

func (w *gzipResponseWriter) Write(data []byte) (int, error) {
	return w.gzWriter.Write(data)
}

func (w *gzipResponseWriter) Flush() {
	w.gzWriter.Flush()
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
