package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/patmartin03-stack/shadowai-experiment/internal/models"
	"github.com/patmartin03-stack/shadowai-experiment/internal/services"
)

// AssistHandler proxies writing-assistance requests to the LLM.
type AssistHandler struct {
	log    *zap.Logger
	assist *services.Assist
}

func NewAssistHandler(log *zap.Logger, assist *services.Assist) *AssistHandler {
	return &AssistHandler{log: log, assist: assist}
}

func (h *AssistHandler) Suggest(c *gin.Context) {
	var req models.AssistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "text is required"})
		return
	}

	suggestions, err := h.assist.Suggest(c.Request.Context(), &req)
	if err != nil {
		h.log.Error("Assist request failed",
			zap.String("subject_id", req.SubjectID), zap.Error(err))
		c.JSON(assistStatus(err), gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":          true,
		"suggestion":  suggestions[0],
		"suggestions": suggestions,
	})
}

func assistStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrNoAPIKey):
		return http.StatusServiceUnavailable
	case errors.Is(err, services.ErrAssistTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, services.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusBadGateway
	}
}
