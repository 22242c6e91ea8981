// Package validator registers the domain validation tags shared by Gin's
// binding engine and the movement classification validator.
package validator

import (
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"cashbook/internal/models"
)

// Amount bounds shared by movement amounts and catalog estimates.
var (
	MinMovementAmount = decimal.RequireFromString("0.01")
	MaxAmount         = decimal.RequireFromString("999999999")
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		RegisterAll(v)
	}
}

// New returns a standalone validator using the "validate" struct tag with every
// domain rule registered.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	RegisterAll(v)
	return v
}

// RegisterAll installs the domain tags, the decimal type adapter and
// JSON-name field reporting on v.
func RegisterAll(v *validator.Validate) {
	v.RegisterTagNameFunc(jsonFieldName)
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})

	_ = v.RegisterValidation("direction", enumOf(models.Direction.IsValid))
	_ = v.RegisterValidation("movement_category", enumOf(models.MovementCategory.IsValid))
	_ = v.RegisterValidation("cost_type", enumOf(models.CostType.IsValid))
	_ = v.RegisterValidation("income_category", enumOf(models.IncomeCategory.IsValid))
	_ = v.RegisterValidation("payment_method", enumOf(models.PaymentMethod.IsValid))
	_ = v.RegisterValidation("catalog_category", enumOf(models.CatalogCategory.IsValid))
	_ = v.RegisterValidation("expense_type", enumOf(models.ExpenseType.IsValid))
	_ = v.RegisterValidation("catalog_status", enumOf(models.CatalogStatus.IsValid))
	_ = v.RegisterValidation("movement_amount", validateMovementAmount)
	_ = v.RegisterValidation("estimated_amount", validateEstimatedAmount)
	_ = v.RegisterValidation("single_line", validateSingleLine)
}

func jsonFieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}

// decimalValue exposes decimals to the validator as float64 so the standard
// numeric tags keep working on them.
func decimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		f, _ := d.Float64()
		return f
	}
	return nil
}

func enumOf[T ~string](valid func(T) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return valid(T(fl.Field().String()))
	}
}

func floatField(fl validator.FieldLevel) (decimal.Decimal, bool) {
	switch fl.Field().Kind() {
	case reflect.Float32, reflect.Float64:
		return decimal.NewFromFloat(fl.Field().Float()), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return decimal.NewFromInt(fl.Field().Int()), true
	}
	return decimal.Zero, false
}

func validateMovementAmount(fl validator.FieldLevel) bool {
	d, ok := floatField(fl)
	return ok && d.GreaterThanOrEqual(MinMovementAmount) && d.LessThanOrEqual(MaxAmount)
}

func validateEstimatedAmount(fl validator.FieldLevel) bool {
	d, ok := floatField(fl)
	return ok && !d.IsNegative() && d.LessThanOrEqual(MaxAmount)
}

func validateSingleLine(fl validator.FieldLevel) bool {
	return !strings.ContainsAny(fl.Field().String(), "\r\n")
}
