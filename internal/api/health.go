package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"socialsaver/internal/storage"
)

const (
	serviceName    = "Social Saver Bot Backend"
	serviceVersion = "1.0.0"
)

type HealthHandler struct {
	store storage.Repository
}

func NewHealthHandler(store storage.Repository) *HealthHandler {
	return &HealthHandler{store: store}
}

// Check reports healthy while the store answers a ping.
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"service": serviceName,
			"version": serviceVersion,
			"error":   "store unreachable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
		"version": serviceVersion,
	})
}

func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Social Saver Bot API",
		"version": serviceVersion,
		"docs":    "/docs",
	})
}
