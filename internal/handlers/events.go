package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/patmartin03-stack/shadowai-experiment/internal/models"
	"github.com/patmartin03-stack/shadowai-experiment/internal/services"
)

// EventsHandler serves the telemetry ingestion routes. These paths always
// acknowledge success: a lost event must never break the participant-facing
// experiment page.
type EventsHandler struct {
	log     *zap.Logger
	gateway *services.Gateway
}

func NewEventsHandler(log *zap.Logger, gateway *services.Gateway) *EventsHandler {
	return &EventsHandler{log: log, gateway: gateway}
}

// Log normalizes and enqueues one event.
func (h *EventsHandler) Log(c *gin.Context) {
	var req models.LogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Discarding malformed log request", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"ok": true, "queued": false})
		return
	}

	h.gateway.LogEvent(models.NewEvent(&req, time.Now()))
	c.JSON(http.StatusOK, gin.H{"ok": true, "queued": true})
}

// LogBatch accepts either a bare JSON array of events or {"events": [...]}
// and enqueues everything, then kicks off a flush.
func (h *EventsHandler) LogBatch(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.log.Warn("Failed to read batch body", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"ok": true, "queued": 0})
		return
	}

	var reqs []models.LogRequest
	if err := json.Unmarshal(body, &reqs); err != nil {
		var wrapped struct {
			Events []models.LogRequest `json:"events"`
		}
		if err := json.Unmarshal(body, &wrapped); err != nil {
			h.log.Warn("Discarding malformed batch request", zap.Error(err))
			c.JSON(http.StatusOK, gin.H{"ok": true, "queued": 0})
			return
		}
		reqs = wrapped.Events
	}

	now := time.Now()
	events := make([]models.Event, 0, len(reqs))
	for i := range reqs {
		if reqs[i].Event == "" {
			continue
		}
		events = append(events, models.NewEvent(&reqs[i], now))
	}

	h.gateway.LogEvents(events)
	h.gateway.FlushAsync()
	c.JSON(http.StatusOK, gin.H{"ok": true, "queued": len(events)})
}

// Flush forces a synchronous drain and bulk write.
func (h *EventsHandler) Flush(c *gin.Context) {
	n, err := h.gateway.FlushNow(c.Request.Context())
	if err != nil {
		h.log.Error("Forced flush failed", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"ok": false, "flushed": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "flushed": n > 0})
}
