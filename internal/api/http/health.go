package http

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/YRUSONOZ/stable-ui/internal/horde"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type HealthResponse struct {
	Status    string        `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	Service   string        `json:"service"`
	Version   string        `json:"version"`
	DB        string        `json:"db,omitempty"`
	Redis     string        `json:"redis,omitempty"`
	Horde     string        `json:"horde,omitempty"`
	Upstream  HordeCallInfo `json:"upstream"`
}

// HordeCallInfo summarizes horde client metrics for operators.
type HordeCallInfo struct {
	Calls        int64   `json:"calls"`
	Errors       int64   `json:"errors"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
	ErrorRatePct float64 `json:"error_rate_pct"`
}

type HealthHandler struct {
	serviceName string
	version     string
	db          *sql.DB
	redis       *redis.Client
	hordeClient *horde.Client
}

func NewHealthHandler(serviceName, version string, db *sql.DB, rdb *redis.Client, hordeClient *horde.Client) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		db:          db,
		redis:       rdb,
		hordeClient: hordeClient,
	}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	dbStatus := "disabled"
	if h.db != nil {
		if err := h.db.PingContext(pingCtx); err != nil {
			dbStatus = "down"
		} else {
			dbStatus = "up"
		}
	}

	redisStatus := "disabled"
	if h.redis != nil {
		if err := h.redis.Ping(pingCtx).Err(); err != nil {
			redisStatus = "down"
		} else {
			redisStatus = "up"
		}
	}

	hordeStatus := "disabled"
	if h.hordeClient != nil {
		if err := h.hordeClient.Heartbeat(pingCtx); err != nil {
			hordeStatus = "down"
		} else {
			hordeStatus = "up"
		}
	}

	metrics := horde.GetMetrics()
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Service:   h.serviceName,
		Version:   h.version,
		DB:        dbStatus,
		Redis:     redisStatus,
		Horde:     hordeStatus,
		Upstream: HordeCallInfo{
			Calls:        metrics.Calls(),
			Errors:       metrics.Errors(),
			AvgLatencyMs: metrics.AverageLatency(),
			ErrorRatePct: metrics.ErrorRate(),
		},
	})
}

func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.HealthCheck)
	r.GET("/healthz", h.HealthCheck)
}
