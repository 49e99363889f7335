package middleware

import (
	"context"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/upb/portal-gateway/models"
	"github.com/upb/portal-gateway/services/profile"
	"github.com/upb/portal-gateway/services/session"
)

// Context key type to avoid collisions
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"

	// OracleKey is the context key for the request's session oracle
	OracleKey contextKey = "session_oracle"

	// ProfileStoreKey is the context key for the request's profile store
	ProfileStoreKey contextKey = "profile_store"

	// SessionKey is the context key for the verified session
	SessionKey contextKey = "session"
)

// GetRequestIDFromContext retrieves the request ID from context, preferring
// the id assigned by chi's RequestID middleware
func GetRequestIDFromContext(ctx context.Context) string {
	if reqID := chimiddleware.GetReqID(ctx); reqID != "" {
		return reqID
	}
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetOracleFromContext retrieves the session oracle from context
func GetOracleFromContext(ctx context.Context) *session.Oracle {
	oracle, _ := ctx.Value(OracleKey).(*session.Oracle)
	return oracle
}

// WithOracle adds a session oracle to the context
func WithOracle(ctx context.Context, oracle *session.Oracle) context.Context {
	return context.WithValue(ctx, OracleKey, oracle)
}

// GetProfileStoreFromContext retrieves the profile store from context
func GetProfileStoreFromContext(ctx context.Context) *profile.Store {
	store, _ := ctx.Value(ProfileStoreKey).(*profile.Store)
	return store
}

// WithProfileStore adds a profile store to the context
func WithProfileStore(ctx context.Context, store *profile.Store) context.Context {
	return context.WithValue(ctx, ProfileStoreKey, store)
}

// GetSessionFromContext retrieves the verified session from context
func GetSessionFromContext(ctx context.Context) *models.Session {
	s, _ := ctx.Value(SessionKey).(*models.Session)
	return s
}

// WithSession adds a verified session to the context
func WithSession(ctx context.Context, s *models.Session) context.Context {
	return context.WithValue(ctx, SessionKey, s)
}
