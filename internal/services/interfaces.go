package services

import (
	"context"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"cashbook/internal/classification"
	apperrors "cashbook/internal/errors"
	"cashbook/internal/models"
	"cashbook/internal/pagination"
	"cashbook/internal/suggestion"
)

// UserServicer defines the contract for mirroring external identities.
type UserServicer interface {
	SyncUser(ctx context.Context, externalID, name, email string) (*models.User, error)
	GetUserByExternalID(ctx context.Context, externalID string) (*models.User, error)
}

// MovementFilter holds optional filter parameters shared by listing and reporting.
type MovementFilter struct {
	DateFrom       *time.Time
	DateTo         *time.Time
	Category       *models.MovementCategory
	CostType       *models.CostType
	IncomeCategory *models.IncomeCategory
	PaymentMethod  *models.PaymentMethod
	Direction      *models.Direction
	Search         string
}

// MovementSummary holds totals over every movement matching a filter.
type MovementSummary struct {
	TotalIncome  decimal.Decimal `json:"total_income"`
	TotalExpense decimal.Decimal `json:"total_expense"`
	Balance      decimal.Decimal `json:"balance"`
	TotalCount   int64           `json:"total_count"`
}

// BreakdownRow aggregates the movements sharing one grouping key. Key is nil
// for movements that carry no value for the grouped column (incomes).
type BreakdownRow struct {
	Key     *string         `json:"key"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Count   int64           `json:"count"`
}

// Breakdowns groups filtered movements by category and by cost type.
type Breakdowns struct {
	ByCategory []BreakdownRow `json:"by_category"`
	ByCostType []BreakdownRow `json:"by_cost_type"`
}

// MovementList is one page of movements plus totals over the whole filtered set.
type MovementList struct {
	pagination.PageResponse[models.Movement]
	Summary    MovementSummary `json:"summary"`
	Breakdowns Breakdowns      `json:"breakdowns"`
}

// AssistedMovementInput carries the fields a caller supplies when recording an
// expense from a catalog entry. Missing description and amount are taken from
// the entry.
type AssistedMovementInput struct {
	Date          time.Time
	Amount        *decimal.Decimal
	PaymentMethod models.PaymentMethod
	Category      *models.MovementCategory
	Description   string
	Voucher       string
	Notes         string
	Rejected      []apperrors.Violation
}

// MovementServicer defines the contract for movement-related business logic.
type MovementServicer interface {
	ValidateMovement(input classification.Input) (*models.Movement, error)
	CreateMovement(ctx context.Context, ownerID string, input classification.Input, idempotencyKey string) (*models.Movement, error)
	CreateMovementFromCatalogEntry(ctx context.Context, ownerID, entryID string, input AssistedMovementInput) (*models.Movement, error)
	GetMovementByID(ctx context.Context, ownerID, movementID string) (*models.Movement, error)
	ListMovements(ctx context.Context, ownerID string, filter MovementFilter, page pagination.PageRequest) (*MovementList, error)
	UpdateMovement(ctx context.Context, ownerID, movementID string, patch classification.Patch) (*models.Movement, error)
	DeleteMovement(ctx context.Context, ownerID, movementID string) error
}

// ReportServicer defines the contract for store-side aggregation over movements.
type ReportServicer interface {
	Summarize(ctx context.Context, ownerID string, filter MovementFilter) (*MovementSummary, error)
	CategoryBreakdown(ctx context.Context, ownerID string, filter MovementFilter) ([]BreakdownRow, error)
	CostTypeBreakdown(ctx context.Context, ownerID string, filter MovementFilter) ([]BreakdownRow, error)
	ExportWorkbook(ctx context.Context, ownerID string, filter MovementFilter, w io.Writer) error
}

// CatalogEntryInput is the payload for creating a catalog entry.
type CatalogEntryInput struct {
	Name            string                 `json:"name" validate:"required,min=3,max=100"`
	Description     string                 `json:"description" validate:"max=500"`
	Category        models.CatalogCategory `json:"category" validate:"required,catalog_category"`
	ExpenseType     models.ExpenseType     `json:"expense_type" validate:"required,expense_type"`
	EstimatedAmount *decimal.Decimal       `json:"estimated_amount" validate:"omitempty,estimated_amount"`
	Status          models.CatalogStatus   `json:"status" validate:"omitempty,catalog_status"`
	Notes           string                 `json:"notes" validate:"max=1000"`
	Tags            []string               `json:"tags" validate:"max=10,dive,max=50,single_line"`
}

// CatalogEntryPatch is a partial catalog entry update. Nil fields are kept.
type CatalogEntryPatch struct {
	Name            *string                 `json:"name"`
	Description     *string                 `json:"description"`
	Category        *models.CatalogCategory `json:"category"`
	ExpenseType     *models.ExpenseType     `json:"expense_type"`
	EstimatedAmount *decimal.Decimal        `json:"estimated_amount"`
	Status          *models.CatalogStatus   `json:"status"`
	Notes           *string                 `json:"notes"`
	Tags            []string                `json:"tags"`
}

// CatalogFilter holds optional filter parameters for listing catalog entries.
// A nil Status lists active entries; AllStatuses disables the status filter.
type CatalogFilter struct {
	Category    *models.CatalogCategory
	ExpenseType *models.ExpenseType
	Status      *models.CatalogStatus
	AllStatuses bool
	Search      string
	Tag         string
	MinAmount   *decimal.Decimal
	MaxAmount   *decimal.Decimal
	CreatedBy   string
}

// CatalogGroupTotal counts active entries sharing a category or expense type.
type CatalogGroupTotal struct {
	Key            string          `json:"key"`
	Count          int64           `json:"count"`
	EstimatedTotal decimal.Decimal `json:"estimated_total"`
}

// CatalogSummary describes the active part of the catalog.
type CatalogSummary struct {
	ActiveCount   int64               `json:"active_count"`
	ByCategory    []CatalogGroupTotal `json:"by_category"`
	ByExpenseType []CatalogGroupTotal `json:"by_expense_type"`
}

// CatalogServicer defines the contract for the catalog entry lifecycle.
type CatalogServicer interface {
	CreateEntry(ctx context.Context, creatorID string, input CatalogEntryInput) (*models.CatalogEntry, error)
	GetEntryByID(ctx context.Context, entryID string) (*models.CatalogEntry, error)
	ListEntries(ctx context.Context, filter CatalogFilter, page pagination.PageRequest) (*pagination.PageResponse[models.CatalogEntry], error)
	UpdateEntry(ctx context.Context, entryID string, patch CatalogEntryPatch) (*models.CatalogEntry, error)
	ChangeStatus(ctx context.Context, entryID string, status models.CatalogStatus) (*models.CatalogEntry, error)
	ArchiveEntry(ctx context.Context, entryID string) (*models.CatalogEntry, error)
	Summary(ctx context.Context) (*CatalogSummary, error)
}

// SuggestOptions tunes SuggestEntriesForCostType. The zero value lists active
// entries only, with no amount requirement, up to the default limit.
type SuggestOptions struct {
	IncludeNonActive       bool
	RequireEstimatedAmount bool
	Limit                  int
}

// EntrySuggestion is the cost type inferred for one catalog entry.
type EntrySuggestion struct {
	Entry      models.CatalogEntry           `json:"entry"`
	Suggestion suggestion.CostTypeSuggestion `json:"suggestion"`
}

// SyncStatistics reports how the catalog covers the cost types.
type SyncStatistics struct {
	TotalEntries     int64                                      `json:"total_entries"`
	ActiveEntries    int64                                      `json:"active_entries"`
	ActiveByCostType map[models.CostType]int64                  `json:"active_by_cost_type"`
	OrphanCategories []models.CatalogCategory                   `json:"orphan_categories"`
	Mapping          map[models.CatalogCategory]models.CostType `json:"mapping"`
}

// CostTypeMapping exposes the category correspondence and every enumeration
// clients need to build forms.
type CostTypeMapping struct {
	CategoryToCostType map[models.CatalogCategory]models.CostType `json:"category_to_cost_type"`
	ReferenceTags      map[models.CostType][]string               `json:"reference_tags"`
	CostTypes          []models.CostType                          `json:"cost_types"`
	CatalogCategories  []models.CatalogCategory                   `json:"catalog_categories"`
	MovementCategories []models.MovementCategory                  `json:"movement_categories"`
	IncomeCategories   []models.IncomeCategory                    `json:"income_categories"`
	PaymentMethods     []models.PaymentMethod                     `json:"payment_methods"`
	ExpenseTypes       []models.ExpenseType                       `json:"expense_types"`
	CatalogStatuses    []models.CatalogStatus                     `json:"catalog_statuses"`
}

// SyncServicer defines the contract for the catalog to cost type bridge.
type SyncServicer interface {
	SuggestEntriesForCostType(ctx context.Context, costType models.CostType, opts SuggestOptions) ([]suggestion.EntryMatch, error)
	SuggestCostTypeForEntry(ctx context.Context, entryID string) (*EntrySuggestion, error)
	SearchEntriesByText(ctx context.Context, text string, costType *models.CostType) ([]suggestion.SearchResult, error)
	ComputeStatistics(ctx context.Context) (*SyncStatistics, error)
	Mapping() *CostTypeMapping
}

// DuplicateGroup lists movements identical in owner, date, amount and
// description, oldest first.
type DuplicateGroup struct {
	OwnerID     string          `json:"owner_id"`
	Date        time.Time       `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	MovementIDs []string        `json:"movement_ids"`
}

// DedupeServicer defines the contract for post-hoc duplicate cleanup.
type DedupeServicer interface {
	FindDuplicateMovements(ctx context.Context) ([]DuplicateGroup, error)
	RemoveDuplicateMovements(ctx context.Context) (int64, error)
}

// AuditEvent describes one mutating operation.
type AuditEvent struct {
	UserID       string
	Action       string
	ResourceType string
	ResourceID   string
	IPAddress    string
	Changes      map[string]any
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(ctx context.Context, event AuditEvent)
}
