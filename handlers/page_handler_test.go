package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/portal-gateway/models"
	"github.com/upb/portal-gateway/navigation"
	"github.com/upb/portal-gateway/supabase"
	"go.uber.org/zap"
)

func TestHandlePage(t *testing.T) {
	handler := NewPageHandler(zap.NewNop())
	table := navigation.DefaultTable()

	t.Run("renders guarded route with user", func(t *testing.T) {
		env := newRequestEnv(t, "tok")
		userID := uuid.New()
		env.validator.On("ValidateToken", mock.Anything, "tok").Return(&supabase.ParsedClaims{
			Sub:          userID,
			Email:        "ada@example.com",
			UserMetadata: map[string]interface{}{"full_name": "Ada Lovelace"},
		}, nil)
		require.True(t, env.oracle.IsAuthenticated(context.Background()))

		route, ok := table.Lookup(models.RouteDashboard)
		require.True(t, ok)

		req := env.attach(httptest.NewRequest(http.MethodGet, "/dashboard", nil))
		req = req.WithContext(navigation.WithRoute(req.Context(), route))
		w := httptest.NewRecorder()
		handler.HandlePage(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		data := decodeData(t, w)
		assert.Equal(t, "dashboard", data["page"])
		assert.Equal(t, "/dashboard", data["path"])
		assert.Equal(t, navigation.ComponentDashboard, data["component"])

		user := data["user"].(map[string]interface{})
		assert.Equal(t, userID.String(), user["id"])
		assert.Equal(t, "Ada Lovelace", user["name"])
	})

	t.Run("anonymous page has no user", func(t *testing.T) {
		route, _ := table.Lookup(models.RouteLogin)

		req := httptest.NewRequest(http.MethodGet, "/login", nil)
		req = req.WithContext(navigation.WithRoute(req.Context(), route))
		w := httptest.NewRecorder()
		handler.HandlePage(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		data := decodeData(t, w)
		assert.Equal(t, "login", data["page"])
		assert.NotContains(t, data, "user")
	})

	t.Run("catch-all answers 404", func(t *testing.T) {
		route, _ := table.Lookup(models.RouteNotFound)

		req := httptest.NewRequest(http.MethodGet, "/no/such/page", nil)
		req = req.WithContext(navigation.WithRoute(req.Context(), route))
		w := httptest.NewRecorder()
		handler.HandlePage(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		data := decodeData(t, w)
		assert.Equal(t, "not-found", data["page"])
		assert.Equal(t, "/no/such/page", data["path"])
	})

	t.Run("unguarded request fails", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.HandlePage(w, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
