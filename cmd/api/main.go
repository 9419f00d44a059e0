package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/YRUSONOZ/stable-ui/config"
	"github.com/YRUSONOZ/stable-ui/internal/bootstrap"
	galleryrepo "github.com/YRUSONOZ/stable-ui/internal/gallery/repository"
	galleryservice "github.com/YRUSONOZ/stable-ui/internal/gallery/service"
	genrepo "github.com/YRUSONOZ/stable-ui/internal/generate/repository"
	genservice "github.com/YRUSONOZ/stable-ui/internal/generate/service"
	"github.com/YRUSONOZ/stable-ui/internal/horde"
	registryservice "github.com/YRUSONOZ/stable-ui/internal/registry/service"
	"github.com/YRUSONOZ/stable-ui/internal/ws"
)

const serviceName = "stable-ui-backend"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	bootstrap.SetGinMode(cfg.App.Environment)

	rdb, err := bootstrap.OpenRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer rdb.Close()

	db, err := bootstrap.OpenDB(&cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close()

	hordeClient := horde.NewClient(cfg.Horde.BaseURL, cfg.Horde.APIKey, cfg.Horde.ClientAgent, cfg.Horde.SubmitPerMinute)

	imageRepo := galleryrepo.NewImageRepository(db)
	materializer := galleryservice.NewMaterializer(imageRepo)
	jobRepo := genrepo.NewJobRepository(rdb, cfg.Poller.JobTTL)
	genSvc := genservice.NewGenerateService(hordeClient, jobRepo, materializer)
	poller := genservice.NewPoller(hordeClient, jobRepo, materializer, cfg.Poller.Interval, cfg.Poller.MaxJobAge)

	registry := registryservice.NewRegistryService(hordeClient, cfg.Registry.ReferenceURL)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initial model snapshot; not fatal, the cron will retry.
	if err := registry.Refresh(ctx); err != nil {
		log.Printf("[warn] request_id=internal operation=registry_refresh initial refresh failed: %v", err)
	}
	refreshCron, err := registry.StartRefreshSchedule(cfg.Registry.RefreshSpec)
	if err != nil {
		log.Fatalf("failed to schedule registry refresh: %v", err)
	}

	hub := ws.NewHub(rdb)
	go hub.Run(ctx)
	go poller.Run(ctx)

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName: serviceName,
		Version:     cfg.App.Version,
		CORSOrigins: cfg.Server.CORSOrigins,
		DB:          db,
		Redis:       rdb,
		HordeClient: hordeClient,
		GenService:  genSvc,
		ImageRepo:   imageRepo,
		Registry:    registry,
		Hub:         hub,
	})

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Printf("[info] request_id=internal operation=serve listening on :%s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("[info] request_id=internal operation=shutdown signal received")

	refreshCron.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[warn] request_id=internal operation=shutdown forced: %v", err)
	}

	log.Println("[info] request_id=internal operation=shutdown complete")
}
