package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stantonsupply/backoffice/api/responses"
	"github.com/stantonsupply/backoffice/api/validators"
	"github.com/stantonsupply/backoffice/internal/orders"
	"github.com/stantonsupply/backoffice/pkg/db/models"
	"github.com/stantonsupply/backoffice/pkg/enums"
	pkgerrors "github.com/stantonsupply/backoffice/pkg/errors"
	"github.com/stantonsupply/backoffice/pkg/logger"
	"github.com/stantonsupply/backoffice/pkg/pagination"
)

type orderItemRequest struct {
	ProductID      string `json:"product_id" validate:"required,uuid"`
	WarehouseID    string `json:"warehouse_id" validate:"required,uuid"`
	Quantity       int    `json:"quantity" validate:"required,gt=0"`
	UnitPriceCents *int   `json:"unit_price_cents"`
}

func (r orderItemRequest) toInput() (orders.ItemInput, error) {
	productID, err := uuid.Parse(r.ProductID)
	if err != nil {
		return orders.ItemInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product_id")
	}
	warehouseID, err := uuid.Parse(r.WarehouseID)
	if err != nil {
		return orders.ItemInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid warehouse_id")
	}
	return orders.ItemInput{
		ProductID:      productID,
		WarehouseID:    warehouseID,
		Quantity:       r.Quantity,
		UnitPriceCents: r.UnitPriceCents,
	}, nil
}

type orderPaymentRequest struct {
	Mode        string  `json:"mode" validate:"required"`
	AmountCents int     `json:"amount_cents" validate:"required,gt=0"`
	Reference   *string `json:"reference"`
}

type orderCreateRequest struct {
	ClientID       string                `json:"client_id" validate:"required,uuid"`
	DeliveryUserID *string               `json:"delivery_user_id"`
	DiscountCents  int                   `json:"discount_cents" validate:"min=0"`
	Notes          *string               `json:"notes"`
	Items          []orderItemRequest    `json:"items" validate:"required,min=1,dive"`
	Payments       []orderPaymentRequest `json:"payments" validate:"dive"`
}

// OrderCreate places a new order, reserving stock and pricing it in one
// transaction.
func OrderCreate(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload orderCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		clientID, err := uuid.Parse(payload.ClientID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid client_id"))
			return
		}

		input := orders.CreateOrderInput{
			Actor:         actor,
			ClientID:      clientID,
			DiscountCents: payload.DiscountCents,
			Notes:         payload.Notes,
		}

		if payload.DeliveryUserID != nil {
			deliveryID, err := uuid.Parse(strings.TrimSpace(*payload.DeliveryUserID))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery_user_id"))
				return
			}
			input.DeliveryUserID = &deliveryID
		}

		for _, item := range payload.Items {
			itemInput, err := item.toInput()
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.Items = append(input.Items, itemInput)
		}

		for _, payment := range payload.Payments {
			mode, err := enums.ParsePaymentMode(payment.Mode)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment mode"))
				return
			}
			input.Payments = append(input.Payments, orders.PaymentInput{
				Mode:        mode,
				AmountCents: payment.AmountCents,
				Reference:   payment.Reference,
			})
		}

		created, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, orderResponseFromModel(created))
	}
}

// OrderList returns orders filtered by client, status, and payment status.
func OrderList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var filter orders.ListFilter

		clientID, err := validators.QueryUUID(r, "client_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter.ClientID = clientID

		if raw := validators.QueryString(r, "status"); raw != "" {
			status, err := enums.ParseOrderStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter"))
				return
			}
			filter.Status = &status
		}

		if raw := validators.QueryString(r, "payment_status"); raw != "" {
			paymentStatus, err := enums.ParsePaymentStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment_status filter"))
				return
			}
			filter.PaymentStatus = &paymentStatus
		}

		results, meta, err := svc.List(r.Context(), filter, pagination.FromQuery(r.URL.Query()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]orderResponse, 0, len(results))
		for i := range results {
			items = append(items, orderResponseFromModel(&results[i]))
		}
		responses.WriteSuccess(w, map[string]any{"orders": items, "pagination": meta})
	}
}

// OrderDetail returns one order with items and payments.
func OrderDetail(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.PathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, orderResponseFromModel(order))
	}
}

type orderItemsUpdateRequest struct {
	DiscountCents *int               `json:"discount_cents"`
	Items         []orderItemRequest `json:"items" validate:"required,min=1,dive"`
}

// OrderUpdateItems replaces the item set of a pending order.
func OrderUpdateItems(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := validators.PathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload orderItemsUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := orders.UpdateItemsInput{
			Actor:         actor,
			OrderID:       orderID,
			DiscountCents: payload.DiscountCents,
		}
		for _, item := range payload.Items {
			itemInput, err := item.toInput()
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.Items = append(input.Items, itemInput)
		}

		updated, err := svc.UpdateItems(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, orderResponseFromModel(updated))
	}
}

type orderStatusRequest struct {
	Status         string  `json:"status" validate:"required"`
	DeliveryUserID *string `json:"delivery_user_id"`
}

// OrderUpdateStatus moves an order through the state machine. Role
// checks happen in the service, so both admin and delivery users reach
// this handler.
func OrderUpdateStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := validators.PathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload orderStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseOrderStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid target status"))
			return
		}

		input := orders.UpdateStatusInput{
			Actor:   actor,
			OrderID: orderID,
			Status:  status,
		}
		if payload.DeliveryUserID != nil {
			deliveryID, err := uuid.Parse(strings.TrimSpace(*payload.DeliveryUserID))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery_user_id"))
				return
			}
			input.DeliveryUserID = &deliveryID
		}

		updated, err := svc.UpdateStatus(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, orderResponseFromModel(updated))
	}
}

type collectItemRequest struct {
	Collected bool `json:"collected"`
}

// OrderCollectItem marks one line as collected by the courier.
func OrderCollectItem(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := validators.PathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := validators.PathUUID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload collectItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.CollectItem(r.Context(), orders.CollectItemInput{
			Actor:     actor,
			OrderID:   orderID,
			ItemID:    itemID,
			Collected: payload.Collected,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, orderResponseFromModel(updated))
	}
}

// OrderDelete removes an order and releases its stock reservation.
func OrderDelete(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := validators.PathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), actor, orderID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

type orderItemResponse struct {
	ID             uuid.UUID `json:"id"`
	ProductID      uuid.UUID `json:"product_id"`
	WarehouseID    uuid.UUID `json:"warehouse_id"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int       `json:"unit_price_cents"`
	SubtotalCents  int       `json:"subtotal_cents"`
	Collected      bool      `json:"collected"`
}

type orderPaymentResponse struct {
	ID          uuid.UUID         `json:"id"`
	Mode        enums.PaymentMode `json:"mode"`
	AmountCents int               `json:"amount_cents"`
	Reference   *string           `json:"reference,omitempty"`
	RecordedBy  *uuid.UUID        `json:"recorded_by,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

type orderResponse struct {
	ID             uuid.UUID              `json:"id"`
	Code           string                 `json:"code"`
	ClientID       uuid.UUID              `json:"client_id"`
	DeliveryUserID *uuid.UUID             `json:"delivery_user_id,omitempty"`
	Status         enums.OrderStatus      `json:"status"`
	PaymentStatus  enums.PaymentStatus    `json:"payment_status"`
	TotalCents     int                    `json:"total_cents"`
	DiscountCents  int                    `json:"discount_cents"`
	PayableCents   int                    `json:"payable_cents"`
	PaidCents      int                    `json:"paid_cents"`
	BalanceCents   int                    `json:"balance_cents"`
	Notes          *string                `json:"notes,omitempty"`
	Items          []orderItemResponse    `json:"items"`
	Payments       []orderPaymentResponse `json:"payments"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

func orderResponseFromModel(m *models.Order) orderResponse {
	resp := orderResponse{
		ID:             m.ID,
		Code:           m.Code,
		ClientID:       m.ClientID,
		DeliveryUserID: m.DeliveryUserID,
		Status:         m.Status,
		PaymentStatus:  m.PaymentStatus,
		TotalCents:     m.TotalCents,
		DiscountCents:  m.DiscountCents,
		PayableCents:   m.PayableCents(),
		PaidCents:      m.PaidCents,
		BalanceCents:   m.BalanceCents(),
		Notes:          m.Notes,
		Items:          make([]orderItemResponse, 0, len(m.Items)),
		Payments:       make([]orderPaymentResponse, 0, len(m.Payments)),
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
	for _, item := range m.Items {
		resp.Items = append(resp.Items, orderItemResponse{
			ID:             item.ID,
			ProductID:      item.ProductID,
			WarehouseID:    item.WarehouseID,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			SubtotalCents:  item.SubtotalCents(),
			Collected:      item.Collected,
		})
	}
	for _, payment := range m.Payments {
		resp.Payments = append(resp.Payments, orderPaymentResponse{
			ID:          payment.ID,
			Mode:        payment.Mode,
			AmountCents: payment.AmountCents,
			Reference:   payment.Reference,
			RecordedBy:  payment.RecordedBy,
			CreatedAt:   payment.CreatedAt,
		})
	}
	return resp
}
