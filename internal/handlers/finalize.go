package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/patmartin03-stack/shadowai-experiment/internal/models"
	"github.com/patmartin03-stack/shadowai-experiment/internal/services"
	"github.com/patmartin03-stack/shadowai-experiment/internal/store"
)

// FinalizeHandler writes the one-shot session summary. Unlike the telemetry
// routes this path fails visibly: the summary is data the experimenter
// cannot reconstruct.
type FinalizeHandler struct {
	log     *zap.Logger
	gateway *services.Gateway
	store   store.Store
}

func NewFinalizeHandler(log *zap.Logger, gateway *services.Gateway, st store.Store) *FinalizeHandler {
	return &FinalizeHandler{log: log, gateway: gateway, store: st}
}

func (h *FinalizeHandler) Finalize(c *gin.Context) {
	var req models.FinalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "subject_id is required"})
		return
	}

	ctx := c.Request.Context()

	// Pending events go out first so the subject's interaction log lands
	// before their summary row. If the flush fails the events stay queued
	// for the scheduler; the summary write still proceeds.
	if _, err := h.gateway.FlushNow(ctx); err != nil {
		h.log.Warn("Pre-finalize flush failed, events remain queued",
			zap.String("subject_id", req.SubjectID), zap.Error(err))
	}

	result := models.NewResult(&req, time.Now())
	if err := h.store.WriteResult(ctx, result); err != nil {
		h.log.Error("Failed to write session result",
			zap.String("subject_id", req.SubjectID), zap.Error(err))
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrUnavailable) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"ok": false, "finalized": false, "error": "could not persist session result"})
		return
	}

	h.log.Info("Session finalized",
		zap.String("subject_id", req.SubjectID),
		zap.Int("words", result.Words),
		zap.Int("edit_count", result.EditCount))
	c.JSON(http.StatusOK, gin.H{"ok": true, "finalized": true})
}
