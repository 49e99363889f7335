package handlers

import (
	"context"
	"net/http"

	"github.com/upb/portal-gateway/services/facilities"
	"github.com/upb/portal-gateway/utils"
	"go.uber.org/zap"
)

// FacilitiesLister reads the facilities catalog
type FacilitiesLister interface {
	List(ctx context.Context) ([]facilities.Facility, error)
}

// FacilitiesHandler serves the facilities catalog
type FacilitiesHandler struct {
	catalog FacilitiesLister
	logger  *zap.Logger
}

// NewFacilitiesHandler creates a new FacilitiesHandler
func NewFacilitiesHandler(catalog FacilitiesLister, logger *zap.Logger) *FacilitiesHandler {
	return &FacilitiesHandler{
		catalog: catalog,
		logger:  logger,
	}
}

// HandleList handles GET /api/v1/facilities
func (h *FacilitiesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalog.List(r.Context())
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, items)
}
