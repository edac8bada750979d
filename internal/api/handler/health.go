package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/trueque/marketplace/internal/core/service"
)

// HealthHandler handles GET /health — liveness probe.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// ReadinessHandler handles GET /health/ready — readiness probe. Checks
// MongoDB and Redis connectivity and whether the reference collections
// settled before declaring the service ready.
type ReadinessHandler struct {
	mongo   *mongo.Database
	redis   *redis.Client
	refdata *service.RefDataStore
}

func NewReadinessHandler(db *mongo.Database, rdb *redis.Client, refdata *service.RefDataStore) *ReadinessHandler {
	return &ReadinessHandler{
		mongo:   db,
		redis:   rdb,
		refdata: refdata,
	}
}

type dependencyStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type readinessResponse struct {
	Status       string                      `json:"status"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
}

func (h *ReadinessHandler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	deps := make(map[string]dependencyStatus)
	healthy := true

	if err := h.mongo.Client().Ping(ctx, nil); err != nil {
		deps["mongodb"] = dependencyStatus{Status: "unhealthy", Error: err.Error()}
		healthy = false
	} else {
		deps["mongodb"] = dependencyStatus{Status: "ok"}
	}

	if _, err := h.redis.Ping(ctx).Result(); err != nil {
		deps["redis"] = dependencyStatus{Status: "unhealthy", Error: err.Error()}
		healthy = false
	} else {
		deps["redis"] = dependencyStatus{Status: "ok"}
	}

	// Reference data is degraded, not down: a failed collection keeps its
	// last-good items, so it flags without flipping readiness.
	refdata := dependencyStatus{Status: "ok"}
	if cats := h.refdata.Categories(); cats.Err != "" {
		refdata = dependencyStatus{Status: "degraded", Error: cats.Err}
	} else if provs := h.refdata.Provinces(); provs.Err != "" {
		refdata = dependencyStatus{Status: "degraded", Error: provs.Err}
	}
	deps["refdata"] = refdata

	status := "ok"
	httpStatus := http.StatusOK
	if !healthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	return c.JSON(httpStatus, readinessResponse{
		Status:       status,
		Dependencies: deps,
	})
}
