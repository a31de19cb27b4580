package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/patmartin03-stack/shadowai-experiment/internal/services"
	"github.com/patmartin03-stack/shadowai-experiment/internal/store"
)

// HealthHandler reports configuration and buffer state for the operator.
type HealthHandler struct {
	store   store.Store
	gateway *services.Gateway
	assist  *services.Assist
}

func NewHealthHandler(st store.Store, gateway *services.Gateway, assist *services.Assist) *HealthHandler {
	return &HealthHandler{store: st, gateway: gateway, assist: assist}
}

func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":                 "ok",
		"backend":                h.store.Name(),
		"persistence_configured": h.store.Configured(),
		"openai_configured":      h.assist.Configured(),
		"pending_events":         h.gateway.Pending(),
		"dropped_events":         h.gateway.Dropped(),
	})
}
