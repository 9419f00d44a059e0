package http

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strconv"

	"github.com/YRUSONOZ/stable-ui/internal/gallery/domain"
	"github.com/YRUSONOZ/stable-ui/internal/gallery/repository"
	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for the gallery
type Handler struct {
	imageRepo *repository.ImageRepository
}

// New creates a new Handler
func New(imageRepo *repository.ImageRepository) *Handler {
	return &Handler{imageRepo: imageRepo}
}

// Register registers the gallery routes
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/images", h.ListImages)
	rg.GET("/images/:id", h.GetImage)
	rg.GET("/images/:id/file", h.GetImageFile)
	rg.DELETE("/images/:id", h.DeleteImage)
	rg.PUT("/images/:id/favorite", h.SetFavorite)
}

// ListImages lists gallery images newest first. Payloads are omitted;
// clients fetch bytes via the file endpoint.
func (h *Handler) ListImages(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	favorites := c.Query("favorites") == "true"

	images, err := h.imageRepo.List(domain.ListFilter{
		Limit:         limit,
		Offset:        offset,
		FavoritesOnly: favorites,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list images"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"images": images})
}

// GetImage retrieves one image record including its payload
func (h *Handler) GetImage(c *gin.Context) {
	img, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"image": img})
}

// GetImageFile serves the decoded image bytes with the stored content type
func (h *Handler) GetImageFile(c *gin.Context) {
	img, ok := h.lookup(c)
	if !ok {
		return
	}

	raw, err := base64.StdEncoding.DecodeString(img.Payload)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stored payload is not decodable"})
		return
	}

	c.Header("Cache-Control", "public, max-age=31536000, immutable")
	c.Data(http.StatusOK, img.ContentType, raw)
}

// DeleteImage removes an image from the gallery
func (h *Handler) DeleteImage(c *gin.Context) {
	id := c.Param("id")
	if err := h.imageRepo.Delete(id); err != nil {
		if errors.Is(err, domain.ErrImageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "image not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete image"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "image deleted"})
}

// SetFavorite toggles the favorite flag
func (h *Handler) SetFavorite(c *gin.Context) {
	id := c.Param("id")

	var body struct {
		Favorite bool `json:"favorite"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.imageRepo.SetFavorite(id, body.Favorite); err != nil {
		if errors.Is(err, domain.ErrImageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "image not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update image"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorite": body.Favorite})
}

func (h *Handler) lookup(c *gin.Context) (*domain.Image, bool) {
	id := c.Param("id")
	img, err := h.imageRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, domain.ErrImageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "image not found"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get image"})
		return nil, false
	}
	return img, true
}
