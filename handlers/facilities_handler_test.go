package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/portal-gateway/services"
	"github.com/upb/portal-gateway/services/facilities"
	"go.uber.org/zap"
)

type stubCatalog struct {
	items []facilities.Facility
	err   error
}

func (s stubCatalog) List(context.Context) ([]facilities.Facility, error) {
	return s.items, s.err
}

func TestHandleListFacilities(t *testing.T) {
	t.Run("passes entries through", func(t *testing.T) {
		catalog := stubCatalog{items: []facilities.Facility{
			json.RawMessage(`{"id":1,"name":"Library","open":true}`),
			json.RawMessage(`{"id":2,"name":"Gym"}`),
		}}
		handler := NewFacilitiesHandler(catalog, zap.NewNop())

		w := httptest.NewRecorder()
		handler.HandleList(w, httptest.NewRequest(http.MethodGet, "/api/v1/facilities", nil))

		assert.Equal(t, http.StatusOK, w.Code)

		var response struct {
			Data []map[string]interface{} `json:"data"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		require.Len(t, response.Data, 2)
		assert.Equal(t, "Library", response.Data[0]["name"])
		assert.Equal(t, true, response.Data[0]["open"])
	})

	t.Run("upstream failure", func(t *testing.T) {
		handler := NewFacilitiesHandler(stubCatalog{err: services.ErrUpstreamError.Wrap(errors.New("status 500"))}, zap.NewNop())

		w := httptest.NewRecorder()
		handler.HandleList(w, httptest.NewRequest(http.MethodGet, "/api/v1/facilities", nil))

		assert.Equal(t, http.StatusBadGateway, w.Code)
	})
}
