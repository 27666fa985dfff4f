package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/stantonsupply/backoffice/pkg/enums"
)

// OrderPayment records money applied against a single order, either
// directly or by the client-level payment allocator.
type OrderPayment struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OrderID     uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index"`
	Mode        enums.PaymentMode `gorm:"column:mode;type:text;not null"`
	AmountCents int               `gorm:"column:amount_cents;not null"`
	Reference   *string           `gorm:"column:reference"`
	RecordedBy  *uuid.UUID        `gorm:"column:recorded_by;type:uuid"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
}
