package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/upb/portal-gateway/models"
)

// ErrNotFound is returned when no row matches the lookup
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when an insert violates a unique constraint
var ErrDuplicate = errors.New("duplicate record")

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction
	// Automatically commits if function succeeds, rolls back on error
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns the transaction context
	Context() context.Context
}

// ProfileRepository handles profile data operations
type ProfileRepository interface {
	// Create inserts a new profile row
	Create(ctx context.Context, profile *models.Profile) error

	// GetByID retrieves a profile by user ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)

	// GetAdminFlag reads only the is_admin column of a profile
	GetAdminFlag(ctx context.Context, id uuid.UUID) (bool, error)

	// List retrieves all profiles, most recently updated first
	List(ctx context.Context) ([]*models.Profile, error)

	// UpdateMetadata replaces the raw user metadata of a profile
	UpdateMetadata(ctx context.Context, id uuid.UUID, metadata map[string]interface{}) error

	// SetAdmin updates the is_admin flag of a profile
	SetAdmin(ctx context.Context, id uuid.UUID, isAdmin bool) error

	// Delete deletes a profile
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new repository instance bound to the transaction
	WithTx(tx Transaction) ProfileRepository
}

// Repositories holds all repository instances
type Repositories struct {
	Profiles ProfileRepository
}
