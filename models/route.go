package models

// RouteMeta carries the per-route flags consumed by the navigation guard
type RouteMeta struct {
	RequiresAuth  bool `json:"requiresAuth" yaml:"requiresAuth"`
	RequiresAdmin bool `json:"requiresAdmin" yaml:"requiresAdmin"`
	IsDefault     bool `json:"isDefault" yaml:"isDefault"`
}

// Route describes one navigable page. Routes are defined at startup and
// never mutated afterwards.
type Route struct {
	Path      string    `json:"path" yaml:"path" validate:"required,startswith=/"`
	Name      string    `json:"name" yaml:"name" validate:"required"`
	Component string    `json:"component,omitempty" yaml:"component,omitempty"`
	Meta      RouteMeta `json:"meta" yaml:"meta"`
}

// Well-known route names the guard redirects to
const (
	RouteHome      = "home"
	RouteLogin     = "login"
	RouteRegister  = "register"
	RouteDashboard = "dashboard"
	RouteAdmin     = "admin"
	RouteProfile   = "profile"
	RouteForbidden = "forbidden"
	RouteNotFound  = "not-found"
)

// IsAuthPage reports whether the route is one of the sign-in pages
func (r Route) IsAuthPage() bool {
	return r.Name == RouteLogin || r.Name == RouteRegister
}

// IsCatchAll reports whether the route matches any unclaimed path
func (r Route) IsCatchAll() bool {
	return r.Path == "/*"
}
