package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/jmoris/STPark-sub000/internal/infra"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// HealthHandler reports process and dependency health.
type HealthHandler struct {
	db  *gorm.DB
	rdb *redis.Client
	pay *infra.PayProviderClient
}

func NewHealthHandler(db *gorm.DB, rdb *redis.Client, pay *infra.PayProviderClient) *HealthHandler {
	return &HealthHandler{db: db, rdb: rdb, pay: pay}
}

// Live godoc
// @Summary      Liveness probe
// @Tags         health
// @Success      200 {object} map[string]string
// @Router       /healthz [get]
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready godoc
// @Summary      Readiness probe with dependency checks
// @Tags         health
// @Success      200 {object} map[string]string
// @Failure      503 {object} map[string]string
// @Router       /readyz [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := gin.H{}

	if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		checks["database"] = "down"
		status = http.StatusServiceUnavailable
	} else {
		checks["database"] = "up"
	}

	if err := h.rdb.Ping(ctx).Err(); err != nil {
		checks["redis"] = "down"
		status = http.StatusServiceUnavailable
	} else {
		checks["redis"] = "up"
	}

	checks["payment_gateway_breaker"] = h.pay.BreakerState()
	c.JSON(status, checks)
}
