package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/upb/portal-gateway/middleware"
	"github.com/upb/portal-gateway/services"
	"github.com/upb/portal-gateway/utils"
	"go.uber.org/zap"
)

// UpdateProfileRequest carries metadata merged over the current user's
type UpdateProfileRequest struct {
	Metadata map[string]interface{} `json:"user_metadata" validate:"required,min=1"`
}

// SetAdminRequest grants or revokes admin
type SetAdminRequest struct {
	IsAdmin *bool `json:"is_admin" validate:"required"`
}

// UserHandler serves the profile endpoints through the request's profile store
type UserHandler struct {
	logger *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(logger *zap.Logger) *UserHandler {
	return &UserHandler{logger: logger}
}

// HandleListUsers handles GET /api/v1/users
func (h *UserHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	store := middleware.GetProfileStoreFromContext(ctx)
	if store == nil {
		HandleServiceError(w, r, services.ErrUnauthorized, h.logger)
		return
	}

	users, err := store.FetchUsers(ctx)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}

	h.logger.Debug("listed users",
		zap.String("request_id", middleware.GetRequestIDFromContext(ctx)),
		zap.Int("count", len(users)))

	_ = utils.WriteOK(w, users)
}

// HandleGetMe handles GET /api/v1/users/me
func (h *UserHandler) HandleGetMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	store := middleware.GetProfileStoreFromContext(ctx)
	if store == nil {
		HandleServiceError(w, r, services.ErrUnauthorized, h.logger)
		return
	}

	profile, err := store.FetchCurrentUser(ctx)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, profile)
}

// HandleUpdateMe handles PUT /api/v1/users/me
func (h *UserHandler) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	store := middleware.GetProfileStoreFromContext(ctx)
	if store == nil {
		HandleServiceError(w, r, services.ErrUnauthorized, h.logger)
		return
	}

	var req UpdateProfileRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		HandleValidationError(w, r, err, h.logger)
		return
	}

	profile, err := store.UpdateUser(ctx, req.Metadata)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}

	h.logger.Info("profile updated",
		zap.String("request_id", middleware.GetRequestIDFromContext(ctx)),
		zap.String("user_id", profile.ID.String()))

	_ = utils.WriteOK(w, profile)
}

// HandleSetAdmin handles PUT /api/v1/users/{id}/admin
func (h *UserHandler) HandleSetAdmin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	store := middleware.GetProfileStoreFromContext(ctx)
	if store == nil {
		HandleServiceError(w, r, services.ErrUnauthorized, h.logger)
		return
	}

	userID, err := utils.ParseUUID(chi.URLParam(r, "id"))
	if err != nil {
		HandleServiceError(w, r, services.ErrInvalidInput.Wrap(err).WithDetail("id", "id must be a valid UUID"), h.logger)
		return
	}

	var req SetAdminRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		HandleValidationError(w, r, err, h.logger)
		return
	}

	if err := store.SetAdminStatus(ctx, userID, *req.IsAdmin); err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}

	actor := ""
	if s := middleware.GetSessionFromContext(ctx); s != nil {
		actor = s.UserID.String()
	}
	h.logger.Info("admin status changed",
		zap.String("request_id", requestID),
		zap.String("actor_id", actor),
		zap.String("user_id", userID.String()),
		zap.Bool("is_admin", *req.IsAdmin))

	_ = utils.WriteOK(w, store.Users())
}
