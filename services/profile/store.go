// Package profile caches profile rows for one request and answers admin checks.
package profile

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/upb/portal-gateway/models"
	"github.com/upb/portal-gateway/repositories"
	"github.com/upb/portal-gateway/services"
	"github.com/upb/portal-gateway/supabase"
	"go.uber.org/zap"
)

// UserUpdater pushes user metadata to the auth backend
type UserUpdater interface {
	UpdateUser(ctx context.Context, accessToken string, metadata map[string]interface{}) (*supabase.User, error)
}

// SessionSource identifies the user the store works for
type SessionSource interface {
	Token() string
	CurrentUser(ctx context.Context) (*models.Session, error)
}

// Provider hands out request-scoped stores sharing the repository
type Provider struct {
	profiles  repositories.ProfileRepository
	txManager repositories.TransactionManager
	backend   UserUpdater
	logger    *zap.Logger
}

// NewProvider creates a new store provider
func NewProvider(profiles repositories.ProfileRepository, txManager repositories.TransactionManager, backend UserUpdater, logger *zap.Logger) *Provider {
	return &Provider{
		profiles:  profiles,
		txManager: txManager,
		backend:   backend,
		logger:    logger,
	}
}

// ForSession returns a store working on behalf of sessions
func (p *Provider) ForSession(sessions SessionSource) *Store {
	return &Store{
		profiles:  p.profiles,
		txManager: p.txManager,
		backend:   p.backend,
		sessions:  sessions,
		logger:    p.logger,
	}
}

// Store caches the current user's profile and the users list.
// Safe for concurrent use.
type Store struct {
	profiles  repositories.ProfileRepository
	txManager repositories.TransactionManager
	backend   UserUpdater
	sessions  SessionSource
	logger    *zap.Logger

	mu          sync.RWMutex
	currentUser *models.Profile
	users       []*models.Profile
}

// FetchAdminFlag reads the admin flag of userID from the database.
// The answer is never served from cache. Any failure, including a missing
// row, is reported as ErrAdminCheckFailed so callers can tell it apart from
// a confirmed false.
func (s *Store) FetchAdminFlag(ctx context.Context, userID uuid.UUID) (bool, error) {
	isAdmin, err := s.profiles.GetAdminFlag(ctx, userID)
	if err != nil {
		s.logger.Error("admin check failed",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return false, services.ErrAdminCheckFailed.Wrap(err)
	}
	return isAdmin, nil
}

// FetchUsers loads every profile, most recently updated first
func (s *Store) FetchUsers(ctx context.Context) ([]*models.Profile, error) {
	users, err := s.profiles.List(ctx)
	if err != nil {
		s.logger.Error("failed to fetch users", zap.Error(err))
		return nil, services.ErrDatabaseError.Wrap(err)
	}

	s.mu.Lock()
	s.users = users
	s.mu.Unlock()
	return users, nil
}

// FetchCurrentUser resolves the session user and loads their profile
func (s *Store) FetchCurrentUser(ctx context.Context) (*models.Profile, error) {
	session, err := s.sessions.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	profile, err := s.profiles.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrProfileNotFound.Wrap(err).
				WithDetail("user_id", session.UserID.String())
		}
		s.logger.Error("failed to fetch current user", zap.Error(err))
		return nil, services.ErrDatabaseError.Wrap(err)
	}
	if profile.Email == "" {
		profile.Email = session.Email
		profile.Hydrate()
	}

	s.mu.Lock()
	s.currentUser = profile
	s.mu.Unlock()
	return profile, nil
}

// UpdateUser merges metadata over the current user's metadata, pushes it to
// the auth backend, mirrors it into the profiles table and refreshes the
// cached current user.
func (s *Store) UpdateUser(ctx context.Context, metadata map[string]interface{}) (*models.Profile, error) {
	if len(metadata) == 0 {
		return nil, services.ErrInvalidInput.Wrap(nil).WithDetail("field", "metadata")
	}

	current := s.CurrentUser()
	if current == nil {
		var err error
		if current, err = s.FetchCurrentUser(ctx); err != nil {
			return nil, err
		}
	}

	merged := make(map[string]interface{}, len(current.RawMetadata)+len(metadata))
	for k, v := range current.RawMetadata {
		merged[k] = v
	}
	for k, v := range metadata {
		merged[k] = v
	}

	user, err := s.backend.UpdateUser(ctx, s.sessions.Token(), merged)
	if err != nil {
		s.logger.Error("failed to update user at backend", zap.Error(err))
		return nil, services.ErrBackendError.Wrap(err)
	}
	if user != nil && user.UserMetadata != nil {
		merged = user.UserMetadata
	}

	err = s.txManager.InTransaction(ctx, func(ctx context.Context, tx repositories.Transaction) error {
		return s.profiles.WithTx(tx).UpdateMetadata(ctx, current.ID, merged)
	})
	if err != nil {
		// The backend already holds merged; the profile row still holds the old metadata
		s.logger.Error("profile metadata diverged from auth backend",
			zap.String("user_id", current.ID.String()),
			zap.Any("backend_metadata", merged),
			zap.Any("profile_metadata", current.RawMetadata),
			zap.Error(err))
		return nil, services.ErrTransactionFailed.Wrap(err)
	}

	return s.FetchCurrentUser(ctx)
}

// SetAdminStatus grants or revokes admin for userID and refreshes the users list
func (s *Store) SetAdminStatus(ctx context.Context, userID uuid.UUID, isAdmin bool) error {
	if err := s.profiles.SetAdmin(ctx, userID, isAdmin); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return services.ErrProfileNotFound.Wrap(err).WithDetail("user_id", userID.String())
		}
		s.logger.Error("failed to set admin status", zap.String("user_id", userID.String()), zap.Error(err))
		return services.ErrDatabaseError.Wrap(err)
	}

	s.mu.Lock()
	if s.currentUser != nil && s.currentUser.ID == userID {
		patched := *s.currentUser
		patched.IsAdmin = isAdmin
		s.currentUser = &patched
	}
	s.mu.Unlock()

	_, err := s.FetchUsers(ctx)
	return err
}

// CurrentUser returns the cached current user profile
func (s *Store) CurrentUser() *models.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentUser
}

// Users returns the cached users list
func (s *Store) Users() []*models.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.users
}

// Reset drops every cached record
func (s *Store) Reset() {
	s.mu.Lock()
	s.currentUser = nil
	s.users = nil
	s.mu.Unlock()
}
