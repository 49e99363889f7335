package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/upb/portal-gateway/middleware"
	"github.com/upb/portal-gateway/models"
	"github.com/upb/portal-gateway/navigation"
	"github.com/upb/portal-gateway/services"
	"github.com/upb/portal-gateway/utils"
	"go.uber.org/zap"
)

// PageResponse describes the page a navigation landed on
type PageResponse struct {
	Page      string           `json:"page"`
	Path      string           `json:"path"`
	Component string           `json:"component,omitempty"`
	User      *SessionUser     `json:"user,omitempty"`
	Meta      models.RouteMeta `json:"meta"`
}

// SessionUser is the public view of a session
type SessionUser struct {
	ID       uuid.UUID              `json:"id"`
	Email    string                 `json:"email"`
	Name     string                 `json:"name"`
	Metadata map[string]interface{} `json:"user_metadata,omitempty"`
}

func sessionUser(s *models.Session) *SessionUser {
	if s == nil {
		return nil
	}
	return &SessionUser{
		ID:       s.UserID,
		Email:    s.Email,
		Name:     models.DisplayName(s.Metadata, s.Email),
		Metadata: s.Metadata,
	}
}

// PageHandler renders the page a guarded navigation proceeded to
type PageHandler struct {
	logger *zap.Logger
}

// NewPageHandler creates a new PageHandler
func NewPageHandler(logger *zap.Logger) *PageHandler {
	return &PageHandler{logger: logger}
}

// HandlePage answers with the route stored by the navigation guard
func (h *PageHandler) HandlePage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	route, ok := navigation.RouteFromContext(ctx)
	if !ok {
		h.logger.Error("page rendered without guard",
			zap.String("request_id", middleware.GetRequestIDFromContext(ctx)),
			zap.String("path", r.URL.Path))
		_ = utils.WriteServiceError(w, r, services.ErrInternal)
		return
	}

	response := PageResponse{
		Page:      route.Name,
		Path:      r.URL.Path,
		Component: route.Component,
		Meta:      route.Meta,
	}
	if oracle := middleware.GetOracleFromContext(ctx); oracle != nil {
		response.User = sessionUser(oracle.Session())
	}

	status := http.StatusOK
	if route.IsCatchAll() {
		status = http.StatusNotFound
	}
	_ = utils.WriteJSON(w, status, utils.SuccessResponse{Data: response})
}
