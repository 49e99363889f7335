package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/upb/portal-gateway/utils"
	"go.uber.org/zap"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// DatabaseChecker verifies database connectivity
type DatabaseChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	db                 DatabaseChecker
	supabaseConfigured bool
	logger             *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. A nil db skips the database check.
func NewHealthHandler(db DatabaseChecker, supabaseConfigured bool, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		db:                 db,
		supabaseConfigured: supabaseConfigured,
		logger:             logger,
	}
}

// HandleHealth handles GET /healthz
// Liveness check, always 200 while the process serves requests
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	_ = utils.WriteOK(w, response)
}

// HandleReadiness handles GET /readyz
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	allHealthy := true

	if h.db != nil {
		if err := h.db.HealthCheck(ctx); err != nil {
			h.logger.Warn("database health check failed", zap.Error(err))
			checks["database"] = "unhealthy"
			allHealthy = false
		} else {
			checks["database"] = "healthy"
		}
	}

	// Without a JWT secret every session check fails closed
	if h.supabaseConfigured {
		checks["auth"] = "configured"
	} else {
		checks["auth"] = "not_configured"
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if !allHealthy {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}

	if err := utils.WriteJSON(w, httpStatus, utils.SuccessResponse{Data: response}); err != nil {
		h.logger.Error("failed to write readiness response", zap.Error(err))
	}
}
