package orders

import (
	"github.com/google/uuid"

	"github.com/stantonsupply/backoffice/pkg/enums"
)

// Actor identifies the authenticated user performing an operation.
type Actor struct {
	UserID uuid.UUID
	Role   enums.ActorRole
}

// ItemInput is one requested order line. UnitPriceCents overrides the
// catalog price when set; otherwise the product's current price is
// frozen onto the line.
type ItemInput struct {
	ProductID      uuid.UUID
	WarehouseID    uuid.UUID
	Quantity       int
	UnitPriceCents *int
}

// PaymentInput is a payment recorded directly against an order.
type PaymentInput struct {
	Mode        enums.PaymentMode
	AmountCents int
	Reference   *string
}

// CreateOrderInput captures everything needed to place an order.
type CreateOrderInput struct {
	Actor          Actor
	ClientID       uuid.UUID
	DeliveryUserID *uuid.UUID
	DiscountCents  int
	Notes          *string
	Items          []ItemInput
	Payments       []PaymentInput
}

// UpdateItemsInput replaces the full item set of a pending order.
type UpdateItemsInput struct {
	Actor         Actor
	OrderID       uuid.UUID
	DiscountCents *int
	Items         []ItemInput
}

// UpdateStatusInput moves an order through the state machine.
type UpdateStatusInput struct {
	Actor          Actor
	OrderID        uuid.UUID
	Status         enums.OrderStatus
	DeliveryUserID *uuid.UUID
}

// CollectItemInput marks one order line as physically collected.
type CollectItemInput struct {
	Actor     Actor
	OrderID   uuid.UUID
	ItemID    uuid.UUID
	Collected bool
}

// ListFilter narrows order listings.
type ListFilter struct {
	ClientID      *uuid.UUID
	Status        *enums.OrderStatus
	PaymentStatus *enums.PaymentStatus
}
