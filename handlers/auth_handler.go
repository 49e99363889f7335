package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/upb/portal-gateway/config"
	"github.com/upb/portal-gateway/middleware"
	"github.com/upb/portal-gateway/models"
	"github.com/upb/portal-gateway/navigation"
	"github.com/upb/portal-gateway/repositories"
	"github.com/upb/portal-gateway/services"
	"github.com/upb/portal-gateway/supabase"
	"github.com/upb/portal-gateway/utils"
	"go.uber.org/zap"
)

// LoginRequest represents a password sign-in
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest represents a sign-up
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Name     string `json:"name,omitempty" validate:"omitempty,max=100"`
}

// AuthResponse is returned by the auth actions
type AuthResponse struct {
	User                 *SessionUser `json:"user,omitempty"`
	ExpiresAt            int64        `json:"expires_at,omitempty"`
	ConfirmationRequired bool         `json:"confirmation_required,omitempty"`
	Redirect             string       `json:"redirect"`
}

// AuthBackend is the part of the GoTrue API used by the auth actions
type AuthBackend interface {
	SignInWithPassword(ctx context.Context, email, password string) (*supabase.TokenResponse, error)
	SignUp(ctx context.Context, email, password string, metadata map[string]interface{}) (*supabase.TokenResponse, error)
}

// AuthHandler handles sign-in, sign-up and sign-out
type AuthHandler struct {
	backend  AuthBackend
	profiles repositories.ProfileRepository
	table    *navigation.Table
	cookie   config.GuardConfig
	logger   *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(backend AuthBackend, profiles repositories.ProfileRepository, table *navigation.Table, cookie config.GuardConfig, logger *zap.Logger) *AuthHandler {
	if cookie.CookieName == "" {
		cookie.CookieName = middleware.DefaultCookieName
	}
	return &AuthHandler{
		backend:  backend,
		profiles: profiles,
		table:    table,
		cookie:   cookie,
		logger:   logger,
	}
}

// HandleLogin handles POST /auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	var req LoginRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("invalid login request",
			zap.String("request_id", requestID),
			zap.Error(err))
		HandleValidationError(w, r, err, h.logger)
		return
	}

	token, err := h.backend.SignInWithPassword(ctx, req.Email, req.Password)
	if err != nil {
		h.logger.Warn("sign in failed",
			zap.String("request_id", requestID),
			zap.Error(err))
		HandleServiceError(w, r, signInError(err), h.logger)
		return
	}

	h.setSessionCookie(w, token)

	response := AuthResponse{
		ExpiresAt: token.ExpiresAt,
		Redirect:  h.pathFor(models.RouteDashboard),
	}
	if token.User != nil {
		response.User = sessionUser(token.User.ToSession())
		h.logger.Info("user signed in",
			zap.String("request_id", requestID),
			zap.String("user_id", token.User.ID.String()))
	}

	_ = utils.WriteOK(w, response)
}

// HandleRegister handles POST /auth/register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	var req RegisterRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("invalid register request",
			zap.String("request_id", requestID),
			zap.Error(err))
		HandleValidationError(w, r, err, h.logger)
		return
	}

	var metadata map[string]interface{}
	if req.Name != "" {
		metadata = map[string]interface{}{"name": req.Name}
	}

	token, err := h.backend.SignUp(ctx, req.Email, req.Password, metadata)
	if err != nil {
		h.logger.Warn("sign up failed",
			zap.String("request_id", requestID),
			zap.Error(err))
		HandleServiceError(w, r, signUpError(err), h.logger)
		return
	}
	if token.User == nil || token.User.ID == uuid.Nil {
		HandleServiceError(w, r, services.ErrBackendError.Wrap(errors.New("sign up returned no user")), h.logger)
		return
	}

	profile := models.NewProfile(token.User.ID, req.Email, metadata)
	if err := h.profiles.Create(ctx, profile); err != nil {
		if !errors.Is(err, repositories.ErrDuplicate) {
			h.logger.Error("failed to create profile",
				zap.String("request_id", requestID),
				zap.String("user_id", profile.ID.String()),
				zap.Error(err))
			HandleServiceError(w, r, services.ErrDatabaseError.Wrap(err), h.logger)
			return
		}
		h.logger.Debug("profile row already exists",
			zap.String("user_id", profile.ID.String()))
	}

	response := AuthResponse{
		User:     sessionUser(token.User.ToSession()),
		Redirect: h.pathFor(models.RouteLogin),
	}
	if token.AccessToken != "" {
		h.setSessionCookie(w, token)
		response.ExpiresAt = token.ExpiresAt
		response.Redirect = h.pathFor(models.RouteDashboard)
	} else {
		response.ConfirmationRequired = true
	}

	h.logger.Info("user registered",
		zap.String("request_id", requestID),
		zap.String("user_id", profile.ID.String()),
		zap.Bool("confirmation_required", response.ConfirmationRequired))

	_ = utils.WriteCreated(w, response)
}

// HandleLogout handles POST /auth/logout
// The session cookie and the cached records are cleared even when the
// backend sign-out fails.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var err error
	if oracle := middleware.GetOracleFromContext(ctx); oracle != nil {
		err = oracle.SignOut(ctx)
	}
	middleware.EnvFromContext(ctx).Reset()
	h.clearSessionCookie(w)

	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, AuthResponse{Redirect: h.pathFor(models.RouteLogin)})
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token *supabase.TokenResponse) {
	maxAge := h.cookie.CookieMaxAge
	if maxAge <= 0 {
		maxAge = token.ExpiresIn
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.CookieName,
		Value:    token.AccessToken,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookie.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) pathFor(name string) string {
	if h.table != nil {
		if path, ok := h.table.PathFor(name); ok {
			return path
		}
	}
	return "/"
}

// signInError maps a GoTrue sign-in failure to a domain error. Any 4xx is
// a credentials problem; a transport failure means the backend is down.
func signInError(err error) error {
	var apiErr *supabase.APIError
	if !errors.As(err, &apiErr) {
		return services.ErrBackendUnavailable.Wrap(err)
	}
	if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
		return services.ErrInvalidCredentials.Wrap(err)
	}
	return services.ErrBackendError.Wrap(err)
}

// signUpError maps a GoTrue sign-up failure to a domain error
func signUpError(err error) error {
	var apiErr *supabase.APIError
	if !errors.As(err, &apiErr) {
		return services.ErrBackendUnavailable.Wrap(err)
	}
	switch {
	case apiErr.StatusCode == http.StatusUnprocessableEntity, apiErr.Code == "user_already_exists":
		return services.ErrDuplicateEmail.Wrap(err)
	case apiErr.StatusCode >= 400 && apiErr.StatusCode < 500:
		return services.ErrInvalidInput.Wrap(err).WithDetail("reason", apiErr.Message)
	}
	return services.ErrBackendError.Wrap(err)
}
