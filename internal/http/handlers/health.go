package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Check pings one dependency. Readyz reports 503 when any check fails.
type Check func(ctx context.Context) error

type HealthHandler struct {
	checks map[string]Check
	stats  func() any
}

func NewHealthHandler(checks map[string]Check, stats func() any) *HealthHandler {
	if checks == nil {
		checks = map[string]Check{}
	}
	return &HealthHandler{checks: checks, stats: stats}
}

func (h *HealthHandler) Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HealthHandler) Readyz(ctx *gin.Context) {
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 1*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))

	for name, check := range h.checks {
		if err := check(cctx); err != nil {
			// dependency errors can carry hosts and credentials; keep them in the logs
			slog.Default().WarnContext(cctx, "readyz.check_failed", "check", name, "err", err)
			results[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "up"
	}

	body := gin.H{"status": "ready", "checks": results}
	if status != http.StatusOK {
		body["status"] = "not_ready"
	}
	if h.stats != nil {
		body["notifications"] = h.stats()
	}

	ctx.JSON(status, body)
}

// RegistrationsHealth is the plain-text health check under the resource prefix.
func (h *HealthHandler) RegistrationsHealth(ctx *gin.Context) {
	ctx.String(http.StatusOK, "OK")
}
