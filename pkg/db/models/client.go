package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/stantonsupply/backoffice/pkg/enums"
)

// Client is a buying party with a financial ledger. BalanceCents caches
// the signed running balance of the ledger (positive means the client
// owes the business).
type Client struct {
	ID                  uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	Name                string            `gorm:"column:name;not null"`
	Phone               *string           `gorm:"column:phone"`
	Address             *string           `gorm:"column:address"`
	OpeningBalanceCents int               `gorm:"column:opening_balance_cents;not null;default:0"`
	OpeningBalanceType  enums.BalanceType `gorm:"column:opening_balance_type;type:text;not null;default:'debit'"`
	BalanceCents        int               `gorm:"column:balance_cents;not null;default:0"`
	CreatedAt           time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
