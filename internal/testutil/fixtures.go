package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"cashbook/internal/models"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a unique identity subject and email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	n := nextID()
	user := &models.User{
		ExternalID: fmt.Sprintf("auth0|user%d", n),
		Name:       fmt.Sprintf("Test User %d", n),
		Email:      fmt.Sprintf("user%d@test.com", n),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestExpense stores an administrative, other-expense movement dated
// today for ownerID.
func CreateTestExpense(t *testing.T, db *gorm.DB, ownerID string, amount string) *models.Movement {
	t.Helper()

	category := models.MovementCategoryAdministrative
	costType := models.CostTypeOtherExpense
	return CreateTestMovement(t, db, &models.Movement{
		OwnerID:       ownerID,
		Date:          Today(),
		Amount:        decimal.RequireFromString(amount),
		Direction:     models.DirectionExpense,
		Description:   fmt.Sprintf("Test expense %d", nextID()),
		PaymentMethod: models.PaymentMethodCash,
		Category:      &category,
		CostType:      &costType,
	})
}

// CreateTestIncome stores a direct-sale income dated today for ownerID.
func CreateTestIncome(t *testing.T, db *gorm.DB, ownerID string, amount string) *models.Movement {
	t.Helper()

	incomeCategory := models.IncomeCategoryDirectSale
	return CreateTestMovement(t, db, &models.Movement{
		OwnerID:        ownerID,
		Date:           Today(),
		Amount:         decimal.RequireFromString(amount),
		Direction:      models.DirectionIncome,
		Description:    fmt.Sprintf("Test income %d", nextID()),
		PaymentMethod:  models.PaymentMethodTransfer,
		IncomeCategory: &incomeCategory,
	})
}

// CreateTestMovement stores m as given.
func CreateTestMovement(t *testing.T, db *gorm.DB, m *models.Movement) *models.Movement {
	t.Helper()

	if err := db.Create(m).Error; err != nil {
		t.Fatalf("failed to create test movement: %v", err)
	}
	return m
}

// CreateTestCatalogEntry stores an active, fixed entry in category with the
// given tags.
func CreateTestCatalogEntry(t *testing.T, db *gorm.DB, creatorID string, name string, category models.CatalogCategory, tags ...string) *models.CatalogEntry {
	t.Helper()

	entry := &models.CatalogEntry{
		Name:        name,
		Category:    category,
		ExpenseType: models.ExpenseTypeFixed,
		Status:      models.CatalogStatusActive,
		Tags:        models.TagSet(tags),
		CreatedBy:   creatorID,
	}
	if err := db.Create(entry).Error; err != nil {
		t.Fatalf("failed to create test catalog entry: %v", err)
	}
	return entry
}

// Today returns the current UTC date at midnight.
func Today() time.Time {
	return time.Now().UTC().Truncate(24 * time.Hour)
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
