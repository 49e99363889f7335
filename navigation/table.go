// Package navigation holds the portal's route table and the guard that
// gates every page navigation on session state and route metadata.
package navigation

import (
	"fmt"
	"strings"

	"github.com/upb/portal-gateway/models"
	"github.com/upb/portal-gateway/utils"
)

// Page components rendered by the route table
const (
	ComponentLogin     = "LoginView"
	ComponentRegister  = "RegisterView"
	ComponentDashboard = "DashboardView"
	ComponentAdmin     = "AdminView"
	ComponentProfile   = "ProfileView"
	ComponentForbidden = "ForbiddenView"
	ComponentNotFound  = "NotFoundView"
)

// Table is an immutable, validated list of route descriptors.
// Safe for concurrent use.
type Table struct {
	routes   []models.Route
	byName   map[string]int
	byPath   map[string]int
	catchAll int
}

// NewTable validates routes and builds a table. A route requiring admin is
// normalised to also require authentication. Names must be unique; the
// first route declared for a path wins matching.
func NewTable(routes []models.Route) (*Table, error) {
	t := &Table{
		routes:   make([]models.Route, 0, len(routes)),
		byName:   make(map[string]int, len(routes)),
		byPath:   make(map[string]int, len(routes)),
		catchAll: -1,
	}

	for _, route := range routes {
		if err := utils.ValidateStruct(route); err != nil {
			return nil, fmt.Errorf("route %q: %w", route.Name, err)
		}
		if _, dup := t.byName[route.Name]; dup {
			return nil, fmt.Errorf("duplicate route name %q", route.Name)
		}
		if route.Meta.RequiresAdmin {
			route.Meta.RequiresAuth = true
		}

		idx := len(t.routes)
		t.routes = append(t.routes, route)
		t.byName[route.Name] = idx

		if route.IsCatchAll() {
			if t.catchAll < 0 {
				t.catchAll = idx
			}
			continue
		}
		path := normalizePath(route.Path)
		if _, taken := t.byPath[path]; !taken {
			t.byPath[path] = idx
		}
	}

	return t, nil
}

// MustTable is NewTable that panics on an invalid declaration
func MustTable(routes []models.Route) *Table {
	t, err := NewTable(routes)
	if err != nil {
		panic(err)
	}
	return t
}

// DefaultRoutes returns the portal's regular route declarations
func DefaultRoutes() []models.Route {
	return []models.Route{
		// Auth pages
		{Path: "/", Name: models.RouteHome},
		{Path: "/login", Name: models.RouteLogin, Component: ComponentLogin},
		{Path: "/register", Name: models.RouteRegister, Component: ComponentRegister},

		// Default pages
		{Path: "/dashboard", Name: models.RouteDashboard, Component: ComponentDashboard,
			Meta: models.RouteMeta{RequiresAuth: true, IsDefault: true}},
		{Path: "/profile", Name: models.RouteProfile, Component: ComponentProfile,
			Meta: models.RouteMeta{RequiresAuth: true}},
		{Path: "/admin", Name: models.RouteAdmin, Component: ComponentAdmin,
			Meta: models.RouteMeta{RequiresAdmin: true}},

		// Error pages
		{Path: "/forbidden", Name: models.RouteForbidden, Component: ComponentForbidden,
			Meta: models.RouteMeta{IsDefault: true}},
		{Path: "/*", Name: models.RouteNotFound, Component: ComponentNotFound,
			Meta: models.RouteMeta{IsDefault: true}},
	}
}

// DefacedRoutes returns the maintenance declarations. Every page renders
// the forbidden component.
func DefacedRoutes() []models.Route {
	return []models.Route{
		{Path: "/", Name: models.RouteHome},
		{Path: "/login", Name: models.RouteLogin, Component: ComponentForbidden},
		{Path: "/dashboard", Name: models.RouteDashboard, Component: ComponentForbidden,
			Meta: models.RouteMeta{RequiresAuth: true, IsDefault: true}},
		{Path: "/forbidden", Name: models.RouteForbidden, Component: ComponentForbidden,
			Meta: models.RouteMeta{IsDefault: true}},
		{Path: "/*", Name: models.RouteNotFound, Component: ComponentForbidden,
			Meta: models.RouteMeta{IsDefault: true}},
	}
}

// DefaultTable returns the regular route table
func DefaultTable() *Table {
	return MustTable(DefaultRoutes())
}

// DefacedTable returns the maintenance route table
func DefacedTable() *Table {
	return MustTable(DefacedRoutes())
}

// TableFor selects the maintenance table when defaced is set
func TableFor(defaced bool) *Table {
	if defaced {
		return DefacedTable()
	}
	return DefaultTable()
}

// Lookup finds a route by name
func (t *Table) Lookup(name string) (models.Route, bool) {
	idx, ok := t.byName[name]
	if !ok {
		return models.Route{}, false
	}
	return t.routes[idx], true
}

// Match resolves a request path to a route, falling back to the catch-all
func (t *Table) Match(path string) (models.Route, bool) {
	if idx, ok := t.byPath[normalizePath(path)]; ok {
		return t.routes[idx], true
	}
	if t.catchAll >= 0 {
		return t.routes[t.catchAll], true
	}
	return models.Route{}, false
}

// PathFor returns the path a redirect to name should point at
func (t *Table) PathFor(name string) (string, bool) {
	route, ok := t.Lookup(name)
	if !ok || route.IsCatchAll() {
		return "", false
	}
	return route.Path, true
}

// Routes returns a copy of the declarations in order
func (t *Table) Routes() []models.Route {
	out := make([]models.Route, len(t.routes))
	copy(out, t.routes)
	return out
}

func normalizePath(path string) string {
	if path == "" {
		return "/"
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			return "/"
		}
	}
	return path
}
