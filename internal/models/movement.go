package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Movement is a single recorded cash event.
//
// Exactly one side of the direction-dependent columns is populated: Category
// and CostType for expenses, IncomeCategory for incomes. Values are only ever
// assigned through the classification package, which enforces that shape.
type Movement struct {
	Base
	OwnerID        string            `gorm:"size:191;not null;index:idx_movements_owner_date,priority:1;uniqueIndex:idx_movements_owner_idempotency,priority:1" json:"owner_id"`
	Date           time.Time         `gorm:"not null;index:idx_movements_owner_date,priority:2" json:"date"`
	Amount         decimal.Decimal   `gorm:"type:numeric(14,2);not null" json:"amount"`
	Direction      Direction         `gorm:"size:16;not null;index" json:"direction"`
	Description    string            `gorm:"size:200;not null" json:"description"`
	PaymentMethod  PaymentMethod     `gorm:"size:32;not null" json:"payment_method"`
	Category       *MovementCategory `gorm:"size:32;index" json:"category,omitempty"`
	CostType       *CostType         `gorm:"size:32;index" json:"cost_type,omitempty"`
	IncomeCategory *IncomeCategory   `gorm:"size:32" json:"income_category,omitempty"`
	Voucher        string            `gorm:"size:50" json:"voucher,omitempty"`
	Notes          string            `gorm:"size:500" json:"notes,omitempty"`
	CatalogEntryID *string           `gorm:"type:uuid;index" json:"catalog_entry_id,omitempty"`
	IdempotencyKey *string           `gorm:"size:100;uniqueIndex:idx_movements_owner_idempotency,priority:2" json:"-"`

	// Relationships
	Owner *User `gorm:"foreignKey:OwnerID;references:ExternalID" json:"owner,omitempty"`
}
