package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
)

// HealthController serves liveness and readiness probes.
type HealthController struct {
	pool  *pgxpool.Pool
	redis *goredis.Client
}

// NewHealthController creates a health controller.
func NewHealthController(pool *pgxpool.Pool, redis *goredis.Client) *HealthController {
	return &HealthController{pool: pool, redis: redis}
}

// Live reports that the process is up.
func (c *HealthController) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready reports whether dependencies are reachable.
func (c *HealthController) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{"database": "ok", "redis": "ok"}
	healthy := true

	if err := c.pool.Ping(ctx); err != nil {
		checks["database"] = err.Error()
		healthy = false
	}
	if err := c.redis.Ping(ctx).Err(); err != nil {
		checks["redis"] = err.Error()
		healthy = false
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, checks)
}
