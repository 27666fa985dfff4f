package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/stantonsupply/backoffice/pkg/enums"
)

// LedgerEntry is one row in a client's append-only financial ledger.
// The integer primary key gives a strict append order; BalanceAfterCents
// snapshots the signed running balance as of this entry.
type LedgerEntry struct {
	ID                int64                 `gorm:"column:id;primaryKey;autoIncrement"`
	ClientID          uuid.UUID             `gorm:"column:client_id;type:uuid;not null;index"`
	Type              enums.LedgerEntryType `gorm:"column:type;type:text;not null"`
	ReferenceID       *uuid.UUID            `gorm:"column:reference_id;type:uuid"`
	DebitCents        int                   `gorm:"column:debit_cents;not null;default:0"`
	CreditCents       int                   `gorm:"column:credit_cents;not null;default:0"`
	BalanceAfterCents int                   `gorm:"column:balance_after_cents;not null"`
	Description       string                `gorm:"column:description;not null"`
	CreatedAt         time.Time             `gorm:"column:created_at;autoCreateTime"`
}

// TableName overrides GORM's pluralization.
func (LedgerEntry) TableName() string {
	return "ledger_entries"
}

// DeltaCents is the signed effect of the entry on the running balance.
func (e LedgerEntry) DeltaCents() int {
	return e.DebitCents - e.CreditCents
}
