package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Manas2412/8Byte/pkg/models"
)

// PortfolioService is the serving-path entry point.
type PortfolioService interface {
	GetOrBuild(ctx context.Context, userID string) (*models.PortfolioSnapshot, error)
}

// HealthCheck probes one dependency; the name keys the health report.
type HealthCheck func(ctx context.Context) error

// Handler translates HTTP requests into serving-path calls. Transport
// concerns stop here; everything below it speaks snapshots and errors.
type Handler struct {
	svc     PortfolioService
	logger  *zap.Logger
	timeout time.Duration
	checks  map[string]HealthCheck
}

func NewHandler(svc PortfolioService, logger *zap.Logger, timeout time.Duration, checks map[string]HealthCheck) *Handler {
	return &Handler{svc: svc, logger: logger, timeout: timeout, checks: checks}
}

// Router builds the gin engine. Release mode unless overridden by env.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", h.health)
	api := r.Group("/api")
	api.GET("/portfolio/:userID", h.getPortfolio)

	return r
}

func (h *Handler) getPortfolio(c *gin.Context) {
	userID := c.Param("userID")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userID is required"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	snap, err := h.svc.GetOrBuild(ctx, userID)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			// The synchronous rebuild could not finish in time; the queued
			// refresh will complete it in the background.
			c.JSON(http.StatusAccepted, gin.H{"status": "building"})
			return
		}
		h.logger.Error("portfolio request failed", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "portfolio temporarily unavailable"})
		return
	}

	c.JSON(http.StatusOK, snap)
}

func (h *Handler) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	report := gin.H{}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			report[name] = err.Error()
			status = http.StatusServiceUnavailable
		} else {
			report[name] = "ok"
		}
	}
	c.JSON(status, report)
}
