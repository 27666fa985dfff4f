package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/stantonsupply/backoffice/pkg/enums"
)

// Order is a client order moving through the delivery lifecycle. Money
// fields are integer cents; TotalCents and PaidCents are derived from
// items and payments and kept in sync on every mutation.
type Order struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Code           string              `gorm:"column:code;not null;uniqueIndex"`
	ClientID       uuid.UUID           `gorm:"column:client_id;type:uuid;not null;index"`
	DeliveryUserID *uuid.UUID          `gorm:"column:delivery_user_id;type:uuid"`
	AssignedByID   *uuid.UUID          `gorm:"column:assigned_by_id;type:uuid"`
	Status         enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'pending'"`
	PaymentStatus  enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'unpaid'"`
	TotalCents     int                 `gorm:"column:total_cents;not null;default:0"`
	DiscountCents  int                 `gorm:"column:discount_cents;not null;default:0"`
	PaidCents      int                 `gorm:"column:paid_cents;not null;default:0"`
	Notes          *string             `gorm:"column:notes"`
	Items          []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payments       []OrderPayment      `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// PayableCents is the total after discount, floored at zero.
func (o Order) PayableCents() int {
	payable := o.TotalCents - o.DiscountCents
	if payable < 0 {
		return 0
	}
	return payable
}

// BalanceCents returns the unpaid remainder of the order, floored at zero.
func (o Order) BalanceCents() int {
	balance := o.PayableCents() - o.PaidCents
	if balance < 0 {
		return 0
	}
	return balance
}
