package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/YRUSONOZ/stable-ui/internal/generate/domain"
	"github.com/gin-gonic/gin"
)

// StreamJobEvents streams job progress over Server-Sent Events until the
// job reaches a terminal state or the client disconnects.
func (h *Handler) StreamJobEvents(c *gin.Context) {
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

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // nginx: disable buffering

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
		return
	}

	// Send initial job state
	initialData, _ := json.Marshal(gin.H{"job": job})
	fmt.Fprintf(c.Writer, "event: initial\ndata: %s\n\n", string(initialData))
	flusher.Flush()

	if job.IsTerminal() {
		sendTerminal(c, flusher, job)
		return
	}

	ctx := c.Request.Context()

	keepAlive := time.NewTicker(15 * time.Second)
	defer keepAlive.Stop()

	pollTicker := time.NewTicker(1 * time.Second)
	defer pollTicker.Stop()

	lastUpdatedAt := job.UpdatedAt

	for {
		select {
		case <-ctx.Done():
			return

		case <-keepAlive.C:
			fmt.Fprint(c.Writer, ": keep-alive\n\n")
			flusher.Flush()

		case <-pollTicker.C:
			updated, err := h.genService.Get(jobID)
			if err != nil {
				if errors.Is(err, domain.ErrJobNotFound) {
					eventData, _ := json.Marshal(gin.H{"event": "forgotten", "job_id": jobID})
					fmt.Fprintf(c.Writer, "event: forgotten\ndata: %s\n\n", string(eventData))
					flusher.Flush()
					return
				}
				continue
			}

			if updated.UpdatedAt.After(lastUpdatedAt) {
				lastUpdatedAt = updated.UpdatedAt

				eventData, _ := json.Marshal(gin.H{"job": updated})
				fmt.Fprintf(c.Writer, "event: update\ndata: %s\n\n", string(eventData))
				flusher.Flush()
			}

			if updated.IsTerminal() {
				sendTerminal(c, flusher, updated)
				return
			}
		}
	}
}

func sendTerminal(c *gin.Context, flusher http.Flusher, job *domain.Job) {
	eventData, _ := json.Marshal(gin.H{"job": job})
	fmt.Fprintf(c.Writer, "event: terminal\ndata: %s\n\n", string(eventData))
	flusher.Flush()
}
