package navigation

import (
	"context"

	"github.com/google/uuid"
	"github.com/upb/portal-gateway/models"
)

// SessionChecker answers whether a navigation carries a valid session
type SessionChecker interface {
	IsAuthenticated(ctx context.Context) bool
	Session() *models.Session
}

// RoleLookup reads a user's admin flag
type RoleLookup interface {
	FetchAdminFlag(ctx context.Context, userID uuid.UUID) (bool, error)
}

type resetter interface {
	Reset()
}

// Env is the state a guard evaluates a navigation against
type Env struct {
	Session SessionChecker
	Roles   RoleLookup
}

// Reset invalidates the session and the cached profile together
func (e Env) Reset() {
	if r, ok := e.Session.(resetter); ok {
		r.Reset()
	}
	if r, ok := e.Roles.(resetter); ok {
		r.Reset()
	}
}
