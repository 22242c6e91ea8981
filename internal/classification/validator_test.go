package classification

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "cashbook/internal/errors"
	"cashbook/internal/models"
)

var fixedNow = time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)

func newTestValidator() *Validator {
	return NewValidator(WithClock(func() time.Time { return fixedNow }))
}

func ptr[T any](v T) *T { return &v }

func expenseInput() Input {
	return Input{
		Date:          time.Date(2024, 9, 15, 0, 0, 0, 0, time.UTC),
		Amount:        decimal.RequireFromString("100.00"),
		Direction:     models.DirectionExpense,
		Description:   "office paper",
		PaymentMethod: models.PaymentMethodCash,
		Category:      ptr(models.MovementCategoryAdministrative),
		CostType:      ptr(models.CostTypeOtherExpense),
	}
}

func incomeInput() Input {
	return Input{
		Date:           time.Date(2024, 9, 20, 0, 0, 0, 0, time.UTC),
		Amount:         decimal.NewFromInt(500),
		Direction:      models.DirectionIncome,
		Description:    "Weekly sales",
		PaymentMethod:  models.PaymentMethodYape,
		IncomeCategory: ptr(models.IncomeCategoryDirectSale),
	}
}

func violationFields(t *testing.T, err error) []string {
	t.Helper()
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr), "expected *AppError, got %T", err)
	require.Equal(t, "VALIDATION_FAILED", appErr.Code)
	fields := make([]string, 0, len(appErr.Violations()))
	for _, v := range appErr.Violations() {
		fields = append(fields, v.Field)
	}
	return fields
}

func TestValidate_Expense(t *testing.T) {
	t.Run("accepts_and_normalizes", func(t *testing.T) {
		m, err := newTestValidator().Validate(expenseInput())
		require.NoError(t, err)

		assert.Equal(t, "Office paper", m.Description)
		assert.Equal(t, models.DirectionExpense, m.Direction)
		require.NotNil(t, m.Category)
		require.NotNil(t, m.CostType)
		assert.Equal(t, models.MovementCategoryAdministrative, *m.Category)
		assert.Equal(t, models.CostTypeOtherExpense, *m.CostType)
		assert.Nil(t, m.IncomeCategory)
		assert.True(t, m.Amount.Equal(decimal.NewFromInt(100)))
	})

	t.Run("clears_supplied_income_category", func(t *testing.T) {
		in := expenseInput()
		in.IncomeCategory = ptr(models.IncomeCategoryOtherIncome)

		m, err := newTestValidator().Validate(in)
		require.NoError(t, err)
		assert.Nil(t, m.IncomeCategory)
	})

	t.Run("income_category_instead_of_expense_fields", func(t *testing.T) {
		in := expenseInput()
		in.Category = nil
		in.CostType = nil
		in.IncomeCategory = ptr(models.IncomeCategoryDirectSale)

		_, err := newTestValidator().Validate(in)
		fields := violationFields(t, err)
		assert.Contains(t, fields, "category")
		assert.Contains(t, fields, "cost_type")
	})

	t.Run("empty_enum_strings_count_as_missing", func(t *testing.T) {
		in := expenseInput()
		in.Category = ptr(models.MovementCategory(""))

		_, err := newTestValidator().Validate(in)
		assert.Equal(t, []string{"category"}, violationFields(t, err))
	})
}

func TestValidate_Income(t *testing.T) {
	t.Run("clears_expense_fields", func(t *testing.T) {
		in := incomeInput()
		in.Category = ptr(models.MovementCategorySales)
		in.CostType = ptr(models.CostTypeLabor)

		m, err := newTestValidator().Validate(in)
		require.NoError(t, err)
		assert.Nil(t, m.Category)
		assert.Nil(t, m.CostType)
		require.NotNil(t, m.IncomeCategory)
		assert.Equal(t, models.IncomeCategoryDirectSale, *m.IncomeCategory)
	})

	t.Run("requires_income_category", func(t *testing.T) {
		in := incomeInput()
		in.IncomeCategory = nil

		_, err := newTestValidator().Validate(in)
		assert.Equal(t, []string{"income_category"}, violationFields(t, err))
	})
}

func TestValidate_CollectsEveryViolation(t *testing.T) {
	in := Input{
		Date:          fixedNow.AddDate(-3, 0, 0),
		Amount:        decimal.Zero,
		Direction:     models.DirectionExpense,
		Description:   "abc",
		PaymentMethod: models.PaymentMethod("barter"),
		Voucher:       string(make([]byte, 51)),
	}

	_, err := newTestValidator().Validate(in)
	fields := violationFields(t, err)

	assert.ElementsMatch(t,
		[]string{"date", "amount", "description", "payment_method", "category", "cost_type", "voucher"},
		fields)
}

func TestValidate_RejectedFields(t *testing.T) {
	t.Run("reported_with_rule_violations", func(t *testing.T) {
		in := Input{
			Amount:        decimal.Zero,
			Direction:     models.DirectionExpense,
			Description:   "ab",
			PaymentMethod: models.PaymentMethodCash,
			Rejected:      []apperrors.Violation{{Field: "date", Message: "date must be YYYY-MM-DD or RFC 3339"}},
		}

		_, err := newTestValidator().Validate(in)

		var appErr *apperrors.AppError
		require.True(t, errors.As(err, &appErr))
		violations := appErr.Violations()
		assert.Equal(t, apperrors.Violation{Field: "date", Message: "date must be YYYY-MM-DD or RFC 3339"}, violations[0])
		assert.ElementsMatch(t,
			[]string{"date", "amount", "description", "category", "cost_type"},
			violationFields(t, err))
	})

	t.Run("fail_an_otherwise_valid_input", func(t *testing.T) {
		in := expenseInput()
		in.Rejected = []apperrors.Violation{{Field: "amount", Message: "amount must be a number"}}

		_, err := newTestValidator().Validate(in)
		assert.Equal(t, []string{"amount"}, violationFields(t, err))
	})
}

func TestValidate_AmountBounds(t *testing.T) {
	tests := []struct {
		amount string
		valid  bool
	}{
		{"0.01", true},
		{"1", true},
		{"999999999", true},
		{"0", false},
		{"-5", false},
		{"0.001", false},
		{"999999999.01", false},
		{"1000000000", false},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			in := expenseInput()
			in.Amount = decimal.RequireFromString(tt.amount)

			_, err := newTestValidator().Validate(in)
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, []string{"amount"}, violationFields(t, err))
		})
	}
}

func TestValidate_DateWindow(t *testing.T) {
	tests := []struct {
		name  string
		date  time.Time
		valid bool
	}{
		{"inside_past_edge", fixedNow.AddDate(-2, 0, 1), true},
		{"inside_future_edge", fixedNow.AddDate(1, 0, -1), true},
		{"too_old", fixedNow.AddDate(-2, 0, -1), false},
		{"too_far_ahead", fixedNow.AddDate(1, 0, 1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := expenseInput()
			in.Date = tt.date

			_, err := newTestValidator().Validate(in)
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, []string{"date"}, violationFields(t, err))
		})
	}
}

func TestValidate_RejectsUnknownEnums(t *testing.T) {
	in := expenseInput()
	in.Direction = models.Direction("transfer")

	_, err := newTestValidator().Validate(in)
	assert.Equal(t, []string{"direction"}, violationFields(t, err))

	in = expenseInput()
	in.CostType = ptr(models.CostType("travel"))
	_, err = newTestValidator().Validate(in)
	assert.Equal(t, []string{"cost_type"}, violationFields(t, err))
}

func TestNormalizeText(t *testing.T) {
	tests := map[string]string{
		"office paper":     "Office paper",
		"  OFFICE Paper  ": "Office paper",
		"Office paper":     "Office paper",
		"ñandú feathers":   "Ñandú feathers",
		"":                 "",
	}

	for in, want := range tests {
		got := NormalizeText(in)
		assert.Equal(t, want, got, "NormalizeText(%q)", in)
		assert.Equal(t, got, NormalizeText(got), "normalization must be idempotent for %q", in)
	}
}

func TestPatch_Merge(t *testing.T) {
	t.Run("switching_to_income_requires_income_category", func(t *testing.T) {
		v := newTestValidator()
		stored, err := v.Validate(expenseInput())
		require.NoError(t, err)

		merged := Patch{Direction: ptr(models.DirectionIncome)}.Merge(FromMovement(stored))
		_, err = v.Validate(merged)
		assert.Equal(t, []string{"income_category"}, violationFields(t, err))
	})

	t.Run("switching_to_income_clears_expense_side", func(t *testing.T) {
		v := newTestValidator()
		stored, err := v.Validate(expenseInput())
		require.NoError(t, err)

		merged := Patch{
			Direction:      ptr(models.DirectionIncome),
			IncomeCategory: ptr(models.IncomeCategoryOtherIncome),
		}.Merge(FromMovement(stored))
		m, err := v.Validate(merged)
		require.NoError(t, err)
		assert.Nil(t, m.Category)
		assert.Nil(t, m.CostType)
		assert.Equal(t, models.IncomeCategoryOtherIncome, *m.IncomeCategory)
	})

	t.Run("untouched_fields_survive", func(t *testing.T) {
		v := newTestValidator()
		stored, err := v.Validate(expenseInput())
		require.NoError(t, err)

		m, err := v.Validate(Patch{Notes: ptr("paid late")}.Merge(FromMovement(stored)))
		require.NoError(t, err)
		assert.Equal(t, "Office paper", m.Description)
		assert.Equal(t, "paid late", m.Notes)
		assert.Equal(t, models.CostTypeOtherExpense, *m.CostType)
	})
}

func TestOf(t *testing.T) {
	t.Run("round_trips_expense", func(t *testing.T) {
		m := &models.Movement{}
		Apply(m, Expense{Category: models.MovementCategorySales, CostType: models.CostTypeLabor})

		c, err := Of(m)
		require.NoError(t, err)
		assert.Equal(t, Expense{Category: models.MovementCategorySales, CostType: models.CostTypeLabor}, c)
	})

	t.Run("apply_is_idempotent", func(t *testing.T) {
		m := &models.Movement{}
		c := Income{Category: models.IncomeCategoryOpeningBalance}
		Apply(m, c)
		Apply(m, c)

		got, err := Of(m)
		require.NoError(t, err)
		assert.Equal(t, c, got)
	})

	t.Run("rejects_mixed_shape", func(t *testing.T) {
		m := &models.Movement{
			Direction:      models.DirectionIncome,
			IncomeCategory: ptr(models.IncomeCategoryOtherIncome),
			CostType:       ptr(models.CostTypeLabor),
		}
		_, err := Of(m)
		assert.Error(t, err)
	})
}

func TestRevalidate(t *testing.T) {
	stored, err := newTestValidator().Validate(expenseInput())
	require.NoError(t, err)
	later := NewValidator(WithClock(func() time.Time { return fixedNow.AddDate(3, 0, 0) }))

	t.Run("unchanged_date_skips_window", func(t *testing.T) {
		m, err := later.Revalidate(FromMovement(stored), Patch{Notes: ptr("receipt scanned")})
		require.NoError(t, err)
		assert.Equal(t, "receipt scanned", m.Notes)
		assert.True(t, m.Date.Equal(stored.Date))
	})

	t.Run("changed_date_is_checked", func(t *testing.T) {
		_, err := later.Revalidate(FromMovement(stored), Patch{Date: ptr(stored.Date.AddDate(0, 0, 1))})
		assert.Equal(t, []string{"date"}, violationFields(t, err))
	})

	t.Run("other_rules_still_apply", func(t *testing.T) {
		_, err := later.Revalidate(FromMovement(stored), Patch{Description: ptr("ab")})
		assert.Equal(t, []string{"description"}, violationFields(t, err))
	})

	t.Run("patch_rejections_are_reported", func(t *testing.T) {
		_, err := later.Revalidate(FromMovement(stored), Patch{
			Rejected: []apperrors.Violation{{Field: "amount", Message: "amount must be a number"}},
		})
		assert.Equal(t, []string{"amount"}, violationFields(t, err))
	})
}
