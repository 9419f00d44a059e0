package routes

import (
	galleryhttp "github.com/YRUSONOZ/stable-ui/internal/gallery/http"
	"github.com/YRUSONOZ/stable-ui/internal/gallery/repository"
	genhttp "github.com/YRUSONOZ/stable-ui/internal/generate/http"
	genservice "github.com/YRUSONOZ/stable-ui/internal/generate/service"
	registryhttp "github.com/YRUSONOZ/stable-ui/internal/registry/http"
	registryservice "github.com/YRUSONOZ/stable-ui/internal/registry/service"
	"github.com/YRUSONOZ/stable-ui/internal/ws"

	"github.com/gin-gonic/gin"
)

type V1Deps struct {
	GenService *genservice.GenerateService
	ImageRepo  *repository.ImageRepository
	Registry   *registryservice.RegistryService
	Hub        *ws.Hub
}

func RegisterV1(r *gin.Engine, dep V1Deps) {
	api := r.Group("/api/v1")

	genhttp.New(dep.GenService).Register(api)
	galleryhttp.New(dep.ImageRepo).Register(api)
	registryhttp.New(dep.Registry).Register(api)

	if dep.Hub != nil {
		r.GET("/ws/updates", ws.Handler(dep.Hub))
	}
}
