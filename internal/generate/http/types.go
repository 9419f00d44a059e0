package http

import (
	"github.com/YRUSONOZ/stable-ui/internal/generate/service"
	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for generation jobs
type Handler struct {
	genService *service.GenerateService
}

// New creates a new Handler
func New(genService *service.GenerateService) *Handler {
	return &Handler{genService: genService}
}

// Register registers the generation routes
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/generate", h.SubmitJob)
	rg.GET("/generate", h.ListJobs)
	rg.GET("/generate/:id", h.GetJob)
	rg.GET("/generate/:id/stream", h.StreamJobEvents)
	rg.DELETE("/generate/:id", h.CancelJob)
	rg.DELETE("/generate/:id/local", h.ForgetJob)
}
