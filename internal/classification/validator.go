package classification

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	apperrors "cashbook/internal/errors"
	"cashbook/internal/models"
	domainvalidator "cashbook/internal/validator"
)

// Plausibility window for event dates, relative to processing time.
const (
	pastYears   = 2
	futureYears = 1
)

// Input is a candidate movement payload.
type Input struct {
	Date           time.Time                `json:"date" validate:"required"`
	Amount         decimal.Decimal          `json:"amount" validate:"movement_amount"`
	Direction      models.Direction         `json:"direction" validate:"required,direction"`
	Description    string                   `json:"description" validate:"required,min=5,max=200"`
	PaymentMethod  models.PaymentMethod     `json:"payment_method" validate:"required,payment_method"`
	Category       *models.MovementCategory `json:"category" validate:"omitempty,movement_category"`
	CostType       *models.CostType         `json:"cost_type" validate:"omitempty,cost_type"`
	IncomeCategory *models.IncomeCategory   `json:"income_category" validate:"omitempty,income_category"`
	Voucher        string                   `json:"voucher" validate:"max=50"`
	Notes          string                   `json:"notes" validate:"max=500"`
	CatalogEntryID *string                  `json:"catalog_entry_id" validate:"omitempty,uuid"`

	// Rejected carries fields the caller could not decode. They are reported
	// alongside every other violation and replace the rule failures of the
	// same field.
	Rejected []apperrors.Violation `json:"-"`

	keepDate bool
}

// Patch is a partial update. Nil fields keep the stored value.
type Patch struct {
	Date           *time.Time               `json:"date"`
	Amount         *decimal.Decimal         `json:"amount"`
	Direction      *models.Direction        `json:"direction"`
	Description    *string                  `json:"description"`
	PaymentMethod  *models.PaymentMethod    `json:"payment_method"`
	Category       *models.MovementCategory `json:"category"`
	CostType       *models.CostType         `json:"cost_type"`
	IncomeCategory *models.IncomeCategory   `json:"income_category"`
	Voucher        *string                  `json:"voucher"`
	Notes          *string                  `json:"notes"`

	Rejected []apperrors.Violation `json:"-"`
}

// Validator turns candidate payloads into normalized movements, collecting
// every violated constraint before failing.
type Validator struct {
	validate *validator.Validate
	now      func() time.Time
}

// Option configures a Validator.
type Option func(*Validator)

// WithClock overrides the source of the current processing time.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) { v.now = now }
}

// NewValidator creates a Validator using the shared domain validation tags.
func NewValidator(opts ...Option) *Validator {
	v := &Validator{validate: domainvalidator.New(), now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	v.validate.RegisterStructValidation(v.validateShape, Input{})
	return v
}

// Validate checks in and returns the normalized movement it describes. The
// returned movement has no identity or owner yet. On failure the error is a
// VALIDATION_FAILED AppError listing every violation.
func (v *Validator) Validate(in Input) (*models.Movement, error) {
	in = clean(in)

	var violations []apperrors.Violation
	if err := v.validate.Struct(in); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		violations = toViolations(fieldErrs)
	}
	if len(in.Rejected) > 0 || len(violations) > 0 {
		return nil, apperrors.NewValidationError(mergeViolations(in.Rejected, violations))
	}

	m := &models.Movement{
		Date:           in.Date.UTC(),
		Amount:         in.Amount.Round(2),
		Description:    NormalizeText(in.Description),
		PaymentMethod:  in.PaymentMethod,
		Voucher:        in.Voucher,
		Notes:          in.Notes,
		CatalogEntryID: in.CatalogEntryID,
	}
	if in.Direction == models.DirectionExpense {
		Apply(m, Expense{Category: *in.Category, CostType: *in.CostType})
	} else {
		Apply(m, Income{Category: *in.IncomeCategory})
	}
	return m, nil
}

// Revalidate checks stored overlaid with patch. The event date window is only
// enforced when patch changes the date, so old movements stay editable.
func (v *Validator) Revalidate(stored Input, patch Patch) (*models.Movement, error) {
	in := patch.Merge(stored)
	in.keepDate = patch.Date == nil
	return v.Validate(in)
}

// validateShape holds the cross-field rules: the event date window and the
// fields each direction requires.
func (v *Validator) validateShape(sl validator.StructLevel) {
	in := sl.Current().Interface().(Input)

	if !in.Date.IsZero() && !in.keepDate {
		now := v.now()
		if in.Date.Before(now.AddDate(-pastYears, 0, 0)) || in.Date.After(now.AddDate(futureYears, 0, 0)) {
			sl.ReportError(in.Date, "date", "Date", "date_window", "")
		}
	}

	switch in.Direction {
	case models.DirectionExpense:
		if in.Category == nil {
			sl.ReportError(in.Category, "category", "Category", "required", "")
		}
		if in.CostType == nil {
			sl.ReportError(in.CostType, "cost_type", "CostType", "required", "")
		}
	case models.DirectionIncome:
		if in.IncomeCategory == nil {
			sl.ReportError(in.IncomeCategory, "income_category", "IncomeCategory", "required", "")
		}
	}
}

// FromMovement rebuilds the payload a stored movement was created from.
func FromMovement(m *models.Movement) Input {
	return Input{
		Date:           m.Date,
		Amount:         m.Amount,
		Direction:      m.Direction,
		Description:    m.Description,
		PaymentMethod:  m.PaymentMethod,
		Category:       m.Category,
		CostType:       m.CostType,
		IncomeCategory: m.IncomeCategory,
		Voucher:        m.Voucher,
		Notes:          m.Notes,
		CatalogEntryID: m.CatalogEntryID,
	}
}

// Merge overlays the non-nil fields of p onto in.
func (p Patch) Merge(in Input) Input {
	if p.Date != nil {
		in.Date = *p.Date
	}
	if p.Amount != nil {
		in.Amount = *p.Amount
	}
	if p.Direction != nil {
		in.Direction = *p.Direction
	}
	if p.Description != nil {
		in.Description = *p.Description
	}
	if p.PaymentMethod != nil {
		in.PaymentMethod = *p.PaymentMethod
	}
	if p.Category != nil {
		in.Category = p.Category
	}
	if p.CostType != nil {
		in.CostType = p.CostType
	}
	if p.IncomeCategory != nil {
		in.IncomeCategory = p.IncomeCategory
	}
	if p.Voucher != nil {
		in.Voucher = *p.Voucher
	}
	if p.Notes != nil {
		in.Notes = *p.Notes
	}
	in.Rejected = append(in.Rejected, p.Rejected...)
	return in
}

// NormalizeText trims s and rewrites it with a leading capital and the rest
// lower-cased. NormalizeText(NormalizeText(s)) == NormalizeText(s).
func NormalizeText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

// clean trims free text and treats empty enum values as absent.
func clean(in Input) Input {
	in.Description = strings.TrimSpace(in.Description)
	in.Voucher = strings.TrimSpace(in.Voucher)
	in.Notes = strings.TrimSpace(in.Notes)
	if in.Category != nil && *in.Category == "" {
		in.Category = nil
	}
	if in.CostType != nil && *in.CostType == "" {
		in.CostType = nil
	}
	if in.IncomeCategory != nil && *in.IncomeCategory == "" {
		in.IncomeCategory = nil
	}
	if in.CatalogEntryID != nil && strings.TrimSpace(*in.CatalogEntryID) == "" {
		in.CatalogEntryID = nil
	}
	return in
}

func toViolations(errs validator.ValidationErrors) []apperrors.Violation {
	violations := make([]apperrors.Violation, 0, len(errs))
	for _, fe := range errs {
		violations = append(violations, apperrors.Violation{
			Field:   fe.Field(),
			Message: violationMessage(fe),
		})
	}
	return violations
}

// mergeViolations lists rejected first and drops rule failures on a field
// that was already rejected.
func mergeViolations(rejected, violations []apperrors.Violation) []apperrors.Violation {
	seen := make(map[string]bool, len(rejected))
	merged := make([]apperrors.Violation, 0, len(rejected)+len(violations))
	for _, r := range rejected {
		seen[r.Field] = true
		merged = append(merged, r)
	}
	for _, v := range violations {
		if !seen[v.Field] {
			merged = append(merged, v)
		}
	}
	return merged
}

func violationMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "movement_amount":
		return field + " must be between 0.01 and 999,999,999"
	case "date_window":
		return fmt.Sprintf("%s must be within the last %d years and at most %d year ahead", field, pastYears, futureYears)
	case "direction":
		return oneOf(field, models.Directions)
	case "movement_category":
		return oneOf(field, models.MovementCategories)
	case "cost_type":
		return oneOf(field, models.CostTypes)
	case "income_category":
		return oneOf(field, models.IncomeCategories)
	case "payment_method":
		return oneOf(field, models.PaymentMethods)
	case "uuid":
		return field + " must be a valid identifier"
	}
	return field + " is invalid"
}

func oneOf[T ~string](field string, values []T) string {
	names := make([]string, len(values))
	for i, v := range values {
		names[i] = string(v)
	}
	return fmt.Sprintf("%s must be one of %s", field, strings.Join(names, ", "))
}
