package navigation

import (
	"context"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/upb/portal-gateway/models"
	"github.com/upb/portal-gateway/services"
	"github.com/upb/portal-gateway/utils"
	"go.uber.org/zap"
)

type routeContextKey struct{}

// EnvFunc builds the navigation env of a request
type EnvFunc func(r *http.Request) Env

// WithRoute stores the route being rendered in ctx
func WithRoute(ctx context.Context, route models.Route) context.Context {
	return context.WithValue(ctx, routeContextKey{}, route)
}

// RouteFromContext returns the route stored by the guard middleware
func RouteFromContext(ctx context.Context) (models.Route, bool) {
	route, ok := ctx.Value(routeContextKey{}).(models.Route)
	return route, ok
}

// Middleware gates a page handler behind the guard. A redirect decision is
// answered with 302 to the target route's path; proceed passes the request
// on with the route stored in its context.
func (g *Guard) Middleware(route models.Route, envFor EnvFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := g.Evaluate(r.Context(), envFor(r), route)

			if decision.IsProceed() {
				next.ServeHTTP(w, r.WithContext(WithRoute(r.Context(), route)))
				return
			}

			location, ok := g.table.PathFor(decision.Target())
			if !ok {
				g.logger.Error("redirect target missing from route table",
					zap.String("request_id", chimiddleware.GetReqID(r.Context())),
					zap.String("from", route.Name),
					zap.String("to", decision.Target()))
				_ = utils.WriteServiceError(w, r, services.ErrInternal)
				return
			}

			g.logger.Debug("navigation redirected",
				zap.String("request_id", chimiddleware.GetReqID(r.Context())),
				zap.String("from", route.Name),
				zap.String("to", decision.Target()))
			http.Redirect(w, r, location, http.StatusFound)
		})
	}
}
