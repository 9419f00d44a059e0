package bootstrap

import (
	"database/sql"
	"time"

	httpapi "github.com/YRUSONOZ/stable-ui/internal/api/http"
	"github.com/YRUSONOZ/stable-ui/internal/api/http/middleware"
	"github.com/YRUSONOZ/stable-ui/internal/api/http/routes"
	"github.com/YRUSONOZ/stable-ui/internal/gallery/repository"
	genservice "github.com/YRUSONOZ/stable-ui/internal/generate/service"
	"github.com/YRUSONOZ/stable-ui/internal/horde"
	registryservice "github.com/YRUSONOZ/stable-ui/internal/registry/service"
	"github.com/YRUSONOZ/stable-ui/internal/ws"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type RouterDeps struct {
	ServiceName string
	Version     string
	CORSOrigins []string

	DB          *sql.DB
	Redis       *redis.Client
	HordeClient *horde.Client

	GenService *genservice.GenerateService
	ImageRepo  *repository.ImageRepository
	Registry   *registryservice.RegistryService
	Hub        *ws.Hub
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(cors.New(corsConfig(dep.CORSOrigins)))

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.DB, dep.Redis, dep.HordeClient)
	healthHandler.RegisterRoutes(r)

	routes.RegisterV1(r, routes.V1Deps{
		GenService: dep.GenService,
		ImageRepo:  dep.ImageRepo,
		Registry:   dep.Registry,
		Hub:        dep.Hub,
	})

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "X-Request-Id"},
		ExposeHeaders:    []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 1 && origins[0] == "*" {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
