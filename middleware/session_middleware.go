package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/upb/portal-gateway/navigation"
	"github.com/upb/portal-gateway/services"
	"github.com/upb/portal-gateway/services/profile"
	"github.com/upb/portal-gateway/services/session"
	"github.com/upb/portal-gateway/utils"
	"go.uber.org/zap"
)

// DefaultCookieName is the cookie holding the backend access token
const DefaultCookieName = "sb-access-token"

// SessionMiddleware attaches per-request session and profile state and
// guards API routes
type SessionMiddleware struct {
	sessions   *session.Provider
	profiles   *profile.Provider
	cookieName string
	logger     *zap.Logger
}

// NewSessionMiddleware creates a new SessionMiddleware
func NewSessionMiddleware(sessions *session.Provider, profiles *profile.Provider, cookieName string, logger *zap.Logger) *SessionMiddleware {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	return &SessionMiddleware{
		sessions:   sessions,
		profiles:   profiles,
		cookieName: cookieName,
		logger:     logger,
	}
}

// CookieName returns the name of the access token cookie
func (m *SessionMiddleware) CookieName() string {
	return m.cookieName
}

// Attach binds a fresh session oracle and profile store to the request.
// It never rejects a request.
func (m *SessionMiddleware) Attach(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		oracle := m.sessions.ForToken(m.extractToken(r))
		store := m.profiles.ForSession(oracle)

		ctx := WithOracle(r.Context(), oracle)
		ctx = WithProfileStore(ctx, store)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Env returns the navigation env of a request prepared by Attach
func (m *SessionMiddleware) Env(r *http.Request) navigation.Env {
	return EnvFromContext(r.Context())
}

// EnvFromContext returns the navigation env of the oracle and store stored
// in ctx. Missing parts are left nil.
func EnvFromContext(ctx context.Context) navigation.Env {
	var env navigation.Env
	if oracle := GetOracleFromContext(ctx); oracle != nil {
		env.Session = oracle
	}
	if store := GetProfileStoreFromContext(ctx); store != nil {
		env.Roles = store
	}
	return env
}

// RequireSession rejects requests without a valid session with 401
func (m *SessionMiddleware) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		oracle := GetOracleFromContext(ctx)
		if oracle == nil || oracle.Token() == "" {
			m.logger.Debug("missing token",
				zap.String("request_id", requestID))
			_ = utils.WriteServiceError(w, r, services.ErrUnauthorized)
			return
		}

		if err := oracle.Authenticate(ctx); err != nil {
			m.logger.Debug("token rejected",
				zap.String("request_id", requestID),
				zap.Error(err))
			_ = utils.WriteServiceError(w, r, err)
			return
		}

		s := oracle.Session()
		m.logger.Debug("authentication successful",
			zap.String("request_id", requestID),
			zap.String("user_id", s.UserID.String()))

		next.ServeHTTP(w, r.WithContext(WithSession(ctx, s)))
	})
}

// RequireAdmin rejects non-admin users with 403. It must run after
// RequireSession. The admin flag is read fresh from the profiles table.
func (m *SessionMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		s := GetSessionFromContext(ctx)
		store := GetProfileStoreFromContext(ctx)
		if s == nil || store == nil {
			m.logger.Error("session not found in context",
				zap.String("request_id", requestID))
			_ = utils.WriteServiceError(w, r, services.ErrUnauthorized)
			return
		}

		isAdmin, err := store.FetchAdminFlag(ctx, s.UserID)
		if err != nil {
			_ = utils.WriteServiceError(w, r, err)
			return
		}
		if !isAdmin {
			m.logger.Warn("insufficient permissions",
				zap.String("request_id", requestID),
				zap.String("user_id", s.UserID.String()))
			_ = utils.WriteServiceError(w, r, services.ErrNotAdmin)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// extractToken reads the access token from the Authorization header, falling
// back to the session cookie
func (m *SessionMiddleware) extractToken(r *http.Request) string {
	if token := extractBearerToken(r); token != "" {
		return token
	}
	if cookie, err := r.Cookie(m.cookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return ""
}

// extractBearerToken extracts the Bearer token from the Authorization header
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
