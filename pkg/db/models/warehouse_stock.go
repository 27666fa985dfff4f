package models

import (
	"time"

	"github.com/google/uuid"
)

// WarehouseStock tracks on-hand quantity for a product at a warehouse.
// Quantity must never go negative; reservations decrement it with a
// conditional update.
type WarehouseStock struct {
	ProductID   uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey"`
	WarehouseID uuid.UUID `gorm:"column:warehouse_id;type:uuid;primaryKey"`
	Quantity    int       `gorm:"column:quantity;not null;default:0"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides GORM's pluralization.
func (WarehouseStock) TableName() string {
	return "warehouse_stocks"
}
