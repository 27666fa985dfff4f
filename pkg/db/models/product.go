package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is a sellable catalog item. Prices are stored in integer cents.
type Product struct {
	ID             uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Name           string           `gorm:"column:name;not null"`
	SKU            string           `gorm:"column:sku;not null;uniqueIndex"`
	UnitPriceCents int              `gorm:"column:unit_price_cents;not null"`
	Active         bool             `gorm:"column:active;not null;default:true"`
	Stocks         []WarehouseStock `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
