package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderItem is a single product line on an order. UnitPriceCents is
// frozen at order time; Collected marks per-line delivery confirmation.
type OrderItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderID        uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID      uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	WarehouseID    uuid.UUID `gorm:"column:warehouse_id;type:uuid;not null"`
	Quantity       int       `gorm:"column:quantity;not null"`
	UnitPriceCents int       `gorm:"column:unit_price_cents;not null"`
	Collected      bool      `gorm:"column:collected;not null;default:false"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// SubtotalCents is quantity times frozen unit price.
func (i OrderItem) SubtotalCents() int {
	return i.Quantity * i.UnitPriceCents
}
