package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/notesphere/notesphere/internal/health"
)

// HealthController serves liveness and readiness probes
type HealthController struct {
	readiness *health.Readiness
}

// NewHealthController creates a new HealthController
func NewHealthController(readiness *health.Readiness) *HealthController {
	return &HealthController{readiness: readiness}
}

// Live godoc
// @Summary Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} health.Result
// @Router /health/live [get]
func (c *HealthController) Live(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, health.Result{Status: health.StatusOK, Checks: map[string]string{}})
}

// Ready godoc
// @Summary Readiness probe
// @Description Fails with 503 while PostgreSQL or Redis is unreachable
// @Tags health
// @Produce json
// @Success 200 {object} health.Result
// @Failure 503 {object} health.Result
// @Router /health/ready [get]
func (c *HealthController) Ready(ctx *gin.Context) {
	res := c.readiness.Check(ctx.Request.Context())
	status := http.StatusOK
	if res.Status != health.StatusOK {
		status = http.StatusServiceUnavailable
	}
	ctx.JSON(status, res)
}
