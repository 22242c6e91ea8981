package models

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// CatalogStatus is the lifecycle state of a catalog entry.
type CatalogStatus string

const (
	CatalogStatusActive   CatalogStatus = "active"
	CatalogStatusInactive CatalogStatus = "inactive"
	CatalogStatusArchived CatalogStatus = "archived"
)

// CanTransitionTo reports whether the status machine allows moving to next.
// Active and inactive toggle freely; archived is terminal. Staying in the
// same state is always allowed.
func (s CatalogStatus) CanTransitionTo(next CatalogStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case CatalogStatusActive:
		return next == CatalogStatusInactive || next == CatalogStatusArchived
	case CatalogStatusInactive:
		return next == CatalogStatusActive || next == CatalogStatusArchived
	}
	return false
}

// TagSeparator delimits tags in their stored form.
const TagSeparator = "\n"

// TagSet is an ordered list of tags persisted as "\ntag1\ntag2\n" so that
// substring and exact-tag predicates can run inside the store.
type TagSet []string

// Value implements driver.Valuer.
func (t TagSet) Value() (driver.Value, error) {
	if len(t) == 0 {
		return "", nil
	}
	return TagSeparator + strings.Join(t, TagSeparator) + TagSeparator, nil
}

// Scan implements sql.Scanner.
func (t *TagSet) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case nil:
		*t = TagSet{}
		return nil
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("cannot scan %T into TagSet", src)
	}
	tags := TagSet{}
	for _, tag := range strings.Split(raw, TagSeparator) {
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	*t = tags
	return nil
}

// CatalogEntry is a reusable, named kind of expense.
type CatalogEntry struct {
	Base
	Name            string           `gorm:"size:100;not null;uniqueIndex:idx_catalog_entries_name_creator,priority:1" json:"name"`
	Description     string           `gorm:"size:500" json:"description,omitempty"`
	Category        CatalogCategory  `gorm:"size:32;not null;index" json:"category"`
	ExpenseType     ExpenseType      `gorm:"size:32;not null" json:"expense_type"`
	EstimatedAmount *decimal.Decimal `gorm:"type:numeric(14,2)" json:"estimated_amount,omitempty"`
	Status          CatalogStatus    `gorm:"size:16;not null;default:active;index" json:"status"`
	Notes           string           `gorm:"size:1000" json:"notes,omitempty"`
	Tags            TagSet           `gorm:"type:text;not null;default:''" json:"tags"`
	CreatedBy       string           `gorm:"size:191;not null;uniqueIndex:idx_catalog_entries_name_creator,priority:2" json:"created_by"`
}
