package navigation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/portal-gateway/models"
)

func TestNewTable_NormalisesAdminRoutes(t *testing.T) {
	table, err := NewTable([]models.Route{
		{Path: "/admin", Name: "admin", Meta: models.RouteMeta{RequiresAdmin: true}},
	})
	require.NoError(t, err)

	route, ok := table.Lookup("admin")
	require.True(t, ok)
	assert.True(t, route.Meta.RequiresAuth)
}

func TestNewTable_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		routes []models.Route
		errMsg string
	}{
		{"missing name", []models.Route{{Path: "/x"}}, "Validation failed"},
		{"missing path", []models.Route{{Name: "x"}}, "Validation failed"},
		{"relative path", []models.Route{{Path: "x", Name: "x"}}, "Validation failed"},
		{"duplicate name", []models.Route{{Path: "/a", Name: "a"}, {Path: "/b", Name: "a"}}, "duplicate route name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTable(tt.routes)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestMustTable_Panics(t *testing.T) {
	assert.Panics(t, func() {
		MustTable([]models.Route{{Path: "/a"}})
	})
}

func TestDefaultTable(t *testing.T) {
	table := DefaultTable()

	for _, route := range table.Routes() {
		if route.Meta.RequiresAdmin {
			assert.True(t, route.Meta.RequiresAuth, "admin route %s must require auth", route.Name)
		}
	}

	dashboard, ok := table.Lookup(models.RouteDashboard)
	require.True(t, ok)
	assert.True(t, dashboard.Meta.RequiresAuth)
	assert.True(t, dashboard.Meta.IsDefault)

	for _, name := range []string{
		models.RouteHome, models.RouteLogin, models.RouteRegister, models.RouteDashboard,
		models.RouteAdmin, models.RouteProfile, models.RouteForbidden, models.RouteNotFound,
	} {
		_, ok := table.Lookup(name)
		assert.True(t, ok, "missing route %s", name)
	}
}

func TestDefacedTable(t *testing.T) {
	table := DefacedTable()

	for _, route := range table.Routes() {
		if route.Name == models.RouteHome {
			continue
		}
		assert.Equal(t, ComponentForbidden, route.Component, "route %s", route.Name)
	}

	_, ok := table.Lookup(models.RouteAdmin)
	assert.False(t, ok)
	_, ok = table.Lookup(models.RouteDashboard)
	assert.True(t, ok)
}

func TestTableFor(t *testing.T) {
	assert.Len(t, TableFor(false).Routes(), len(DefaultRoutes()))
	assert.Len(t, TableFor(true).Routes(), len(DefacedRoutes()))
}

func TestTable_Match(t *testing.T) {
	table := DefaultTable()

	tests := []struct {
		path string
		want string
	}{
		{"/", models.RouteHome},
		{"", models.RouteHome},
		{"/login", models.RouteLogin},
		{"/login/", models.RouteLogin},
		{"/dashboard", models.RouteDashboard},
		{"/admin", models.RouteAdmin},
		{"/nope", models.RouteNotFound},
		{"/admin/users", models.RouteNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			route, ok := table.Match(tt.path)
			require.True(t, ok)
			assert.Equal(t, tt.want, route.Name)
		})
	}
}

func TestTable_Match_NoCatchAll(t *testing.T) {
	table := MustTable([]models.Route{{Path: "/a", Name: "a"}})

	_, ok := table.Match("/b")
	assert.False(t, ok)
}

func TestTable_PathFor(t *testing.T) {
	table := DefaultTable()

	path, ok := table.PathFor(models.RouteForbidden)
	require.True(t, ok)
	assert.Equal(t, "/forbidden", path)

	_, ok = table.PathFor(models.RouteNotFound)
	assert.False(t, ok, "catch-all is not a redirect target")

	_, ok = table.PathFor("unknown")
	assert.False(t, ok)
}

func TestTable_RoutesIsCopy(t *testing.T) {
	table := DefaultTable()
	routes := table.Routes()
	routes[0].Name = "mutated"

	_, ok := table.Lookup(models.RouteHome)
	assert.True(t, ok)
	assert.Equal(t, models.RouteHome, table.Routes()[0].Name)
}

func TestDecision(t *testing.T) {
	assert.True(t, Proceed().IsProceed())
	assert.Equal(t, "proceed", Proceed().String())

	d := RedirectTo(models.RouteLogin)
	assert.False(t, d.IsProceed())
	assert.Equal(t, models.RouteLogin, d.Target())
	assert.Equal(t, "redirect:login", d.String())
}
