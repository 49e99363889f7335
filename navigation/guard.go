package navigation

import (
	"context"

	"github.com/upb/portal-gateway/config"
	"github.com/upb/portal-gateway/models"
	"github.com/upb/portal-gateway/services"
	"go.uber.org/zap"
)

// Guard decides every page navigation. It holds no per-request state and is
// safe for concurrent use.
type Guard struct {
	table  *Table
	policy config.AdminFailurePolicy
	logger *zap.Logger
}

// NewGuard creates a guard over table. An empty policy means lenient.
func NewGuard(table *Table, policy config.AdminFailurePolicy, logger *zap.Logger) *Guard {
	if policy == "" {
		policy = config.AdminFailureLenient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{
		table:  table,
		policy: policy,
		logger: logger,
	}
}

// Table returns the route table the guard redirects within
func (g *Guard) Table() *Table {
	return g.table
}

// Evaluate applies the navigation rules to target, first match wins:
//
//  1. home redirects to dashboard when authenticated, else to login
//  2. an authenticated user asking for login or register goes to dashboard
//  3. an anonymous user asking for an authenticated route goes to login
//  4. an admin route needs a confirmed admin flag; a confirmed non-admin
//     goes to forbidden, a failed lookup follows the failure policy
//  5. everything else proceeds
func (g *Guard) Evaluate(ctx context.Context, env Env, target models.Route) Decision {
	authenticated := env.Session != nil && env.Session.IsAuthenticated(ctx)
	requiresAuth := target.Meta.RequiresAuth || target.Meta.RequiresAdmin

	switch {
	case target.Name == models.RouteHome:
		if authenticated {
			return RedirectTo(models.RouteDashboard)
		}
		return RedirectTo(models.RouteLogin)

	case authenticated && target.IsAuthPage():
		return RedirectTo(models.RouteDashboard)

	case !authenticated && requiresAuth:
		return RedirectTo(models.RouteLogin)

	case target.Meta.RequiresAdmin:
		return g.checkAdmin(ctx, env, target)
	}

	return Proceed()
}

func (g *Guard) checkAdmin(ctx context.Context, env Env, target models.Route) Decision {
	session := env.Session.Session()
	if session == nil || env.Roles == nil {
		return g.adminLookupFailed(target, services.ErrAdminCheckFailed)
	}

	isAdmin, err := env.Roles.FetchAdminFlag(ctx, session.UserID)
	if err != nil {
		return g.adminLookupFailed(target, err)
	}
	if !isAdmin {
		g.logger.Info("navigation forbidden",
			zap.String("route", target.Name),
			zap.String("user_id", session.UserID.String()))
		return RedirectTo(models.RouteForbidden)
	}
	return Proceed()
}

// adminLookupFailed never lets the admin page render. Lenient sends the user
// to the unprivileged landing page, strict to forbidden.
func (g *Guard) adminLookupFailed(target models.Route, err error) Decision {
	fallback := models.RouteDashboard
	if g.policy == config.AdminFailureStrict {
		fallback = models.RouteForbidden
	}
	g.logger.Warn("admin lookup failed",
		zap.String("route", target.Name),
		zap.String("fallback", fallback),
		zap.String("policy", string(g.policy)),
		zap.Error(err))
	return RedirectTo(fallback)
}
