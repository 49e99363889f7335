// Package session answers whether a request carries a valid backend session
// and who its user is.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/upb/portal-gateway/models"
	"github.com/upb/portal-gateway/services"
	"github.com/upb/portal-gateway/supabase"
	"go.uber.org/zap"
)

// Backend is the part of the GoTrue API the oracle depends on
type Backend interface {
	GetUser(ctx context.Context, accessToken string) (*supabase.User, error)
	SignOut(ctx context.Context, accessToken string) error
}

// TokenValidator verifies access tokens locally
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*supabase.ParsedClaims, error)
}

// Provider hands out request-scoped oracles sharing one backend client
type Provider struct {
	backend   Backend
	validator TokenValidator
	logger    *zap.Logger
}

// NewProvider creates a new oracle provider
func NewProvider(backend Backend, validator TokenValidator, logger *zap.Logger) *Provider {
	return &Provider{
		backend:   backend,
		validator: validator,
		logger:    logger,
	}
}

// ForToken returns an oracle bound to one access token. An empty token
// produces an oracle that reports no session.
func (p *Provider) ForToken(accessToken string) *Oracle {
	return &Oracle{
		token:     accessToken,
		backend:   p.backend,
		validator: p.validator,
		logger:    p.logger,
	}
}

// Oracle caches the session of a single request. Safe for concurrent use.
type Oracle struct {
	token     string
	backend   Backend
	validator TokenValidator
	logger    *zap.Logger

	mu      sync.RWMutex
	session *models.Session
}

// Token returns the access token the oracle is bound to
func (o *Oracle) Token() string {
	return o.token
}

// IsAuthenticated validates the access token and refreshes the cached session.
// Any failure is logged and reported as not authenticated.
func (o *Oracle) IsAuthenticated(ctx context.Context) bool {
	err := o.Authenticate(ctx)
	if err != nil && o.token != "" {
		o.logger.Warn("session check failed",
			zap.Error(services.ErrAuthCheckFailed.Wrap(err)))
	}
	return err == nil
}

// Authenticate is IsAuthenticated with the reason. It returns
// ErrNoAuthenticatedUser without a token, ErrTokenExpired for an expired one
// and ErrInvalidToken for any other rejection.
func (o *Oracle) Authenticate(ctx context.Context) error {
	if o.token == "" {
		o.setSession(nil)
		return services.ErrNoAuthenticatedUser
	}

	claims, err := o.validator.ValidateToken(ctx, o.token)
	if err != nil {
		o.setSession(nil)
		if errors.Is(err, supabase.ErrTokenExpired) {
			return services.ErrTokenExpired.Wrap(err)
		}
		return services.ErrInvalidToken.Wrap(err)
	}

	o.setSession(claims.ToSession())
	return nil
}

// CurrentUser asks the backend who owns the token. The cached session is
// replaced with the backend's view of the user.
func (o *Oracle) CurrentUser(ctx context.Context) (*models.Session, error) {
	if o.token == "" {
		return nil, services.ErrNoAuthenticatedUser
	}

	user, err := o.backend.GetUser(ctx, o.token)
	if err != nil {
		o.logger.Error("failed to get current user", zap.Error(err))
		if supabase.IsUnauthorizedError(err) {
			o.setSession(nil)
			return nil, services.ErrNoAuthenticatedUser.Wrap(err)
		}
		return nil, services.ErrBackendError.Wrap(err)
	}
	if user == nil {
		o.setSession(nil)
		return nil, services.ErrNoAuthenticatedUser
	}

	session := user.ToSession()
	if cached := o.Session(); cached != nil && cached.UserID == session.UserID {
		session.ExpiresAt = cached.ExpiresAt
	}
	o.setSession(session)
	return session, nil
}

// Session returns the cached session, nil when none is known
func (o *Oracle) Session() *models.Session {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.session
}

// Reset drops the cached session
func (o *Oracle) Reset() {
	o.setSession(nil)
}

// SignOut revokes the session at the backend. The cache is cleared even
// when the backend call fails.
func (o *Oracle) SignOut(ctx context.Context) error {
	defer o.Reset()

	if o.token == "" {
		return nil
	}
	if err := o.backend.SignOut(ctx, o.token); err != nil {
		if supabase.IsUnauthorizedError(err) {
			return nil
		}
		o.logger.Error("sign out failed", zap.Error(err))
		return services.ErrBackendError.Wrap(err)
	}
	return nil
}

func (o *Oracle) setSession(s *models.Session) {
	o.mu.Lock()
	o.session = s
	o.mu.Unlock()
}

// IsNoUser reports whether err means there is no authenticated user
func IsNoUser(err error) bool {
	return errors.Is(err, services.ErrNoAuthenticatedUser)
}
