package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/YRUSONOZ/stable-ui/internal/generate/domain"
	"github.com/gin-gonic/gin"
)

// SubmitJob validates the parameters and submits a generation job to the
// horde, answering 202 with the queued job.
func (h *Handler) SubmitJob(c *gin.Context) {
	var body struct {
		domain.Params
		APIKey string `json:"apikey,omitempty"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	job, err := h.genService.Submit(c.Request.Context(), &domain.SubmitRequest{
		Params: body.Params,
		APIKey: body.APIKey,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidParams) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to submit generation"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"job": job})
}

// GetJob retrieves a generation job by ID
func (h *Handler) GetJob(c *gin.Context) {
	jobID := c.Param("id")
	if jobID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "job ID is required"})
		return
	}

	job, err := h.genService.Get(jobID)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get job"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"job": job})
}

// ListJobs lists recent jobs, newest first
func (h *Handler) ListJobs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	jobs, err := h.genService.List(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list jobs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

// CancelJob cancels a pending job upstream. Partial results that finished
// before the cancel land in the gallery.
func (h *Handler) CancelJob(c *gin.Context) {
	jobID := c.Param("id")
	if jobID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "job ID is required"})
		return
	}

	job, err := h.genService.Cancel(c.Request.Context(), jobID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrJobNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		case errors.Is(err, domain.ErrJobTerminal):
			c.JSON(http.StatusConflict, gin.H{"error": "job already finished"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to cancel job"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"job": job})
}

// ForgetJob drops local job state without touching the horde
func (h *Handler) ForgetJob(c *gin.Context) {
	jobID := c.Param("id")
	if jobID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "job ID is required"})
		return
	}

	if err := h.genService.Forget(jobID); err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to forget job"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "job forgotten"})
}
