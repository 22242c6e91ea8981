package models

// Direction tells whether a movement brings money in or takes it out.
type Direction string

const (
	DirectionIncome  Direction = "income"
	DirectionExpense Direction = "expense"
)

// MovementCategory is the business area an expense belongs to.
type MovementCategory string

const (
	MovementCategoryFinance        MovementCategory = "finance"
	MovementCategoryOperations     MovementCategory = "operations"
	MovementCategorySales          MovementCategory = "sales"
	MovementCategoryAdministrative MovementCategory = "administrative"
)

// CostType is the three-way expense classification carried by a movement.
type CostType string

const (
	CostTypeLabor        CostType = "labor"
	CostTypeRawMaterial  CostType = "raw_material"
	CostTypeOtherExpense CostType = "other_expense"
)

// IncomeCategory classifies the origin of an income movement.
type IncomeCategory string

const (
	IncomeCategoryOpeningBalance  IncomeCategory = "opening_balance"
	IncomeCategoryDirectSale      IncomeCategory = "direct_sale"
	IncomeCategoryOperationsSale  IncomeCategory = "operations_sale"
	IncomeCategoryFinancialIncome IncomeCategory = "financial_income"
	IncomeCategoryOtherIncome     IncomeCategory = "other_income"
)

// PaymentMethod is how the money changed hands. Yape and Plin are mobile wallets.
type PaymentMethod string

const (
	PaymentMethodCash        PaymentMethod = "cash"
	PaymentMethodTransfer    PaymentMethod = "transfer"
	PaymentMethodYape        PaymentMethod = "yape"
	PaymentMethodPlin        PaymentMethod = "plin"
	PaymentMethodBankDeposit PaymentMethod = "bank_deposit"
	PaymentMethodCheck       PaymentMethod = "check"
	PaymentMethodCard        PaymentMethod = "card"
)

// CatalogCategory is the catalog-side expense classification. It mirrors
// CostType one to one.
type CatalogCategory string

const (
	CatalogCategoryLabor        CatalogCategory = "labor"
	CatalogCategoryRawMaterial  CatalogCategory = "raw_material"
	CatalogCategoryOtherExpense CatalogCategory = "other_expense"
)

// ExpenseType describes how often a catalog expense recurs.
type ExpenseType string

const (
	ExpenseTypeFixed      ExpenseType = "fixed"
	ExpenseTypeVariable   ExpenseType = "variable"
	ExpenseTypeOccasional ExpenseType = "occasional"
)

// Enumerations in display order.
var (
	Directions         = []Direction{DirectionIncome, DirectionExpense}
	MovementCategories = []MovementCategory{MovementCategoryFinance, MovementCategoryOperations, MovementCategorySales, MovementCategoryAdministrative}
	CostTypes          = []CostType{CostTypeLabor, CostTypeRawMaterial, CostTypeOtherExpense}
	IncomeCategories   = []IncomeCategory{
		IncomeCategoryOpeningBalance, IncomeCategoryDirectSale, IncomeCategoryOperationsSale,
		IncomeCategoryFinancialIncome, IncomeCategoryOtherIncome,
	}
	PaymentMethods = []PaymentMethod{
		PaymentMethodCash, PaymentMethodTransfer, PaymentMethodYape, PaymentMethodPlin,
		PaymentMethodBankDeposit, PaymentMethodCheck, PaymentMethodCard,
	}
	CatalogCategories = []CatalogCategory{CatalogCategoryLabor, CatalogCategoryRawMaterial, CatalogCategoryOtherExpense}
	ExpenseTypes      = []ExpenseType{ExpenseTypeFixed, ExpenseTypeVariable, ExpenseTypeOccasional}
	CatalogStatuses   = []CatalogStatus{CatalogStatusActive, CatalogStatusInactive, CatalogStatusArchived}
)

func contains[T comparable](list []T, v T) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func (d Direction) IsValid() bool        { return contains(Directions, d) }
func (c MovementCategory) IsValid() bool { return contains(MovementCategories, c) }
func (c CostType) IsValid() bool         { return contains(CostTypes, c) }
func (c IncomeCategory) IsValid() bool   { return contains(IncomeCategories, c) }
func (p PaymentMethod) IsValid() bool    { return contains(PaymentMethods, p) }
func (c CatalogCategory) IsValid() bool  { return contains(CatalogCategories, c) }
func (e ExpenseType) IsValid() bool      { return contains(ExpenseTypes, e) }
func (s CatalogStatus) IsValid() bool    { return contains(CatalogStatuses, s) }
