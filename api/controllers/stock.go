package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/stantonsupply/backoffice/api/responses"
	"github.com/stantonsupply/backoffice/api/validators"
	"github.com/stantonsupply/backoffice/internal/stock"
	"github.com/stantonsupply/backoffice/pkg/db/models"
	pkgerrors "github.com/stantonsupply/backoffice/pkg/errors"
	"github.com/stantonsupply/backoffice/pkg/logger"
)

type stockProvisionRequest struct {
	ProductID   string `json:"product_id" validate:"required,uuid"`
	WarehouseID string `json:"warehouse_id" validate:"required,uuid"`
	Quantity    int    `json:"quantity" validate:"min=0"`
}

// StockProvision sets the absolute on-hand quantity for a product at a
// warehouse.
func StockProvision(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload stockProvisionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := uuid.Parse(payload.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product_id"))
			return
		}
		warehouseID, err := uuid.Parse(payload.WarehouseID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid warehouse_id"))
			return
		}

		updated, err := svc.Provision(r.Context(), stock.ProvisionInput{
			ProductID:   productID,
			WarehouseID: warehouseID,
			Quantity:    payload.Quantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, stockResponseFromModel(updated))
	}
}

// StockDetail returns the on-hand quantity of one product at one warehouse.
func StockDetail(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.PathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		warehouseID, err := validators.PathUUID(r, "warehouseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		row, err := svc.GetStock(r.Context(), productID, warehouseID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, stockResponseFromModel(row))
	}
}

// StockByProduct lists a product's stock rows across warehouses.
func StockByProduct(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.PathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListByProduct(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]stockResponse, 0, len(rows))
		for i := range rows {
			items = append(items, stockResponseFromModel(&rows[i]))
		}
		responses.WriteSuccess(w, map[string]any{"stocks": items})
	}
}

type stockResponse struct {
	ProductID   uuid.UUID `json:"product_id"`
	WarehouseID uuid.UUID `json:"warehouse_id"`
	Quantity    int       `json:"quantity"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func stockResponseFromModel(m *models.WarehouseStock) stockResponse {
	return stockResponse{
		ProductID:   m.ProductID,
		WarehouseID: m.WarehouseID,
		Quantity:    m.Quantity,
		UpdatedAt:   m.UpdatedAt,
	}
}
