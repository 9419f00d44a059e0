package http

import (
	"errors"
	"net/http"

	"github.com/YRUSONOZ/stable-ui/internal/registry/domain"
	"github.com/YRUSONOZ/stable-ui/internal/registry/service"
	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for the model registry
type Handler struct {
	registry *service.RegistryService
}

// New creates a new Handler
func New(registry *service.RegistryService) *Handler {
	return &Handler{registry: registry}
}

// Register registers the model routes
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/models", h.ListModels)
	rg.GET("/models/:name", h.GetModel)
}

// ListModels returns the merged model snapshot, busiest models first
func (h *Handler) ListModels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"models":       h.registry.List(),
		"refreshed_at": h.registry.RefreshedAt(),
	})
}

// GetModel returns one model by name
func (h *Handler) GetModel(c *gin.Context) {
	name := c.Param("name")

	model, err := h.registry.Get(name)
	if err != nil {
		if errors.Is(err, domain.ErrModelNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "model not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get model"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"model": model})
}
