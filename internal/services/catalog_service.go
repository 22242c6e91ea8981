package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"cashbook/internal/classification"
	apperrors "cashbook/internal/errors"
	"cashbook/internal/models"
	"cashbook/internal/pagination"
	domainvalidator "cashbook/internal/validator"
)

// catalogService implements CatalogServicer.
type catalogService struct {
	db       *gorm.DB
	validate *validator.Validate
}

// NewCatalogService creates a new CatalogServicer.
func NewCatalogService(db *gorm.DB) CatalogServicer {
	return &catalogService{db: db, validate: domainvalidator.New()}
}

// CreateEntry validates and stores a new catalog entry for creatorID. A name
// the creator already uses fails with DUPLICATE_CATALOG_ENTRY carrying the
// existing entry's id.
func (s *catalogService) CreateEntry(ctx context.Context, creatorID string, input CatalogEntryInput) (*models.CatalogEntry, error) {
	input = normalizeCatalogInput(input)
	if input.Status == "" {
		input.Status = models.CatalogStatusActive
	}
	if err := s.validateInput(input); err != nil {
		return nil, err
	}

	if err := s.ensureNameAvailable(ctx, input.Name, creatorID, ""); err != nil {
		return nil, err
	}

	entry := &models.CatalogEntry{CreatedBy: creatorID}
	applyCatalogInput(entry, input)

	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, s.translateWriteError(ctx, err, input.Name, creatorID)
	}
	return entry, nil
}

// GetEntryByID retrieves a catalog entry in any status.
func (s *catalogService) GetEntryByID(ctx context.Context, entryID string) (*models.CatalogEntry, error) {
	if _, err := uuid.Parse(entryID); err != nil {
		return nil, apperrors.ErrCatalogEntryNotFound
	}

	var entry models.CatalogEntry
	if err := s.db.WithContext(ctx).Where("id = ?", entryID).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCatalogEntryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &entry, nil
}

// ListEntries returns catalog entries matching filter, ordered by name.
func (s *catalogService) ListEntries(ctx context.Context, filter CatalogFilter, page pagination.PageRequest) (*pagination.PageResponse[models.CatalogEntry], error) {
	page.Defaults()

	query := applyCatalogFilters(s.db.WithContext(ctx).Model(&models.CatalogEntry{}), filter)

	var totalCount int64
	if err := query.Count(&totalCount).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var entries []models.CatalogEntry
	if err := query.Order("name ASC, id ASC").Scopes(pagination.Paginate(page)).Find(&entries).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp := pagination.NewPageResponse(entries, page.Page, page.Limit, totalCount)
	return &resp, nil
}

func applyCatalogFilters(q *gorm.DB, f CatalogFilter) *gorm.DB {
	switch {
	case f.AllStatuses:
	case f.Status != nil:
		q = q.Where("status = ?", *f.Status)
	default:
		q = q.Where("status = ?", models.CatalogStatusActive)
	}
	if f.Category != nil {
		q = q.Where("category = ?", *f.Category)
	}
	if f.ExpenseType != nil {
		q = q.Where("expense_type = ?", *f.ExpenseType)
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		pattern := containsPattern(search)
		q = q.Where(`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\' OR LOWER(tags) LIKE ? ESCAPE '\')`,
			pattern, pattern, pattern)
	}
	if tag := strings.TrimSpace(f.Tag); tag != "" {
		q = q.Where(`LOWER(tags) LIKE ? ESCAPE '\'`, tagPattern(tag))
	}
	if f.MinAmount != nil {
		q = q.Where("estimated_amount >= ?", *f.MinAmount)
	}
	if f.MaxAmount != nil {
		q = q.Where("estimated_amount <= ?", *f.MaxAmount)
	}
	if f.CreatedBy != "" {
		q = q.Where("created_by = ?", f.CreatedBy)
	}
	return q
}

// tagPattern matches one whole stored tag, ignoring case.
func tagPattern(tag string) string {
	return "%" + models.TagSeparator + escapeLike(strings.ToLower(tag)) + models.TagSeparator + "%"
}

// UpdateEntry applies a partial update and re-validates the merged entry. Tags,
// when supplied, replace the stored list after normalization.
func (s *catalogService) UpdateEntry(ctx context.Context, entryID string, patch CatalogEntryPatch) (*models.CatalogEntry, error) {
	entry, err := s.GetEntryByID(ctx, entryID)
	if err != nil {
		return nil, err
	}

	input := normalizeCatalogInput(patch.merge(inputFromEntry(entry)))
	if err := s.validateInput(input); err != nil {
		return nil, err
	}
	if !entry.Status.CanTransitionTo(input.Status) {
		return nil, statusTransitionError(entry.Status, input.Status)
	}
	if input.Name != entry.Name {
		if err := s.ensureNameAvailable(ctx, input.Name, entry.CreatedBy, entry.ID); err != nil {
			return nil, err
		}
	}

	applyCatalogInput(entry, input)
	if err := s.db.WithContext(ctx).Save(entry).Error; err != nil {
		return nil, s.translateWriteError(ctx, err, input.Name, entry.CreatedBy)
	}
	return entry, nil
}

// ChangeStatus moves an entry through the status machine.
func (s *catalogService) ChangeStatus(ctx context.Context, entryID string, status models.CatalogStatus) (*models.CatalogEntry, error) {
	if !status.IsValid() {
		return nil, apperrors.NewValidationError([]apperrors.Violation{{
			Field:   "status",
			Message: oneOfMessage("status", models.CatalogStatuses),
		}})
	}

	entry, err := s.GetEntryByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.Status == status {
		return entry, nil
	}
	if !entry.Status.CanTransitionTo(status) {
		return nil, statusTransitionError(entry.Status, status)
	}

	if err := s.db.WithContext(ctx).Model(entry).Update("status", status).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	entry.Status = status
	return entry, nil
}

// ArchiveEntry retires an entry. Archived entries stay readable by id but
// leave default listings and suggestions. Archiving twice is a no-op.
func (s *catalogService) ArchiveEntry(ctx context.Context, entryID string) (*models.CatalogEntry, error) {
	return s.ChangeStatus(ctx, entryID, models.CatalogStatusArchived)
}

// Summary groups the active catalog by category and by expense type.
func (s *catalogService) Summary(ctx context.Context) (*CatalogSummary, error) {
	active := func() *gorm.DB {
		return s.db.WithContext(ctx).Model(&models.CatalogEntry{}).Where("status = ?", models.CatalogStatusActive)
	}

	var count int64
	if err := active().Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	byCategory, err := groupCatalog(active(), "category")
	if err != nil {
		return nil, err
	}
	byExpenseType, err := groupCatalog(active(), "expense_type")
	if err != nil {
		return nil, err
	}

	return &CatalogSummary{
		ActiveCount:   count,
		ByCategory:    byCategory,
		ByExpenseType: byExpenseType,
	}, nil
}

func groupCatalog(q *gorm.DB, column string) ([]CatalogGroupTotal, error) {
	var rows []struct {
		GroupKey       string
		EntryCount     int64
		EstimatedTotal decimal.Decimal
	}
	err := q.Select(column + " AS group_key, COUNT(*) AS entry_count, COALESCE(SUM(estimated_amount), 0) AS estimated_total").
		Group(column).
		Order(column).
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	totals := make([]CatalogGroupTotal, 0, len(rows))
	for _, r := range rows {
		totals = append(totals, CatalogGroupTotal{
			Key:            r.GroupKey,
			Count:          r.EntryCount,
			EstimatedTotal: r.EstimatedTotal.Round(2),
		})
	}
	return totals, nil
}

// ensureNameAvailable fails with DUPLICATE_CATALOG_ENTRY when creatorID already
// has an entry called name other than exceptID.
func (s *catalogService) ensureNameAvailable(ctx context.Context, name, creatorID, exceptID string) error {
	q := s.db.WithContext(ctx).Where("name = ? AND created_by = ?", name, creatorID)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}

	var existing models.CatalogEntry
	err := q.Select("id").First(&existing).Error
	switch {
	case err == nil:
		return duplicateEntryError(existing.ID)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil
	default:
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
}

// translateWriteError maps a unique-index collision from a concurrent writer to
// the same failure the pre-check produces.
func (s *catalogService) translateWriteError(ctx context.Context, err error, name, creatorID string) error {
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	var existing models.CatalogEntry
	if findErr := s.db.WithContext(ctx).Select("id").
		Where("name = ? AND created_by = ?", name, creatorID).
		First(&existing).Error; findErr != nil {
		return apperrors.ErrDuplicateCatalogEntry
	}
	return duplicateEntryError(existing.ID)
}

func duplicateEntryError(existingID string) error {
	return apperrors.WithDetails(apperrors.ErrDuplicateCatalogEntry,
		apperrors.ErrDuplicateCatalogEntry.Message,
		map[string]string{"existing_id": existingID})
}

func statusTransitionError(from, to models.CatalogStatus) error {
	return apperrors.WithMessage(apperrors.ErrInvalidStatusTransition,
		fmt.Sprintf("cannot change status from %s to %s", from, to))
}

func (s *catalogService) validateInput(input CatalogEntryInput) error {
	err := s.validate.Struct(input)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	violations := make([]apperrors.Violation, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		violations = append(violations, apperrors.Violation{Field: fe.Field(), Message: catalogViolationMessage(fe)})
	}
	return apperrors.NewValidationError(violations)
}

func catalogViolationMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must have at most %s items", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "estimated_amount":
		return field + " must be between 0 and 999,999,999"
	case "single_line":
		return field + " must not contain line breaks"
	case "catalog_category":
		return oneOfMessage(field, models.CatalogCategories)
	case "expense_type":
		return oneOfMessage(field, models.ExpenseTypes)
	case "catalog_status":
		return oneOfMessage(field, models.CatalogStatuses)
	}
	return field + " is invalid"
}

func oneOfMessage[T ~string](field string, values []T) string {
	names := make([]string, len(values))
	for i, v := range values {
		names[i] = string(v)
	}
	return fmt.Sprintf("%s must be one of %s", field, strings.Join(names, ", "))
}

// normalizeCatalogInput trims free text, capitalizes the name and
// deduplicates tags, dropping blank ones.
func normalizeCatalogInput(in CatalogEntryInput) CatalogEntryInput {
	in.Name = classification.NormalizeText(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Notes = strings.TrimSpace(in.Notes)
	in.Tags = normalizeTags(in.Tags)
	if in.EstimatedAmount != nil {
		rounded := in.EstimatedAmount.Round(2)
		in.EstimatedAmount = &rounded
	}
	return in
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func inputFromEntry(e *models.CatalogEntry) CatalogEntryInput {
	return CatalogEntryInput{
		Name:            e.Name,
		Description:     e.Description,
		Category:        e.Category,
		ExpenseType:     e.ExpenseType,
		EstimatedAmount: e.EstimatedAmount,
		Status:          e.Status,
		Notes:           e.Notes,
		Tags:            e.Tags,
	}
}

func applyCatalogInput(e *models.CatalogEntry, in CatalogEntryInput) {
	e.Name = in.Name
	e.Description = in.Description
	e.Category = in.Category
	e.ExpenseType = in.ExpenseType
	e.EstimatedAmount = in.EstimatedAmount
	e.Status = in.Status
	e.Notes = in.Notes
	e.Tags = models.TagSet(in.Tags)
}

func (p CatalogEntryPatch) merge(in CatalogEntryInput) CatalogEntryInput {
	if p.Name != nil {
		in.Name = *p.Name
	}
	if p.Description != nil {
		in.Description = *p.Description
	}
	if p.Category != nil {
		in.Category = *p.Category
	}
	if p.ExpenseType != nil {
		in.ExpenseType = *p.ExpenseType
	}
	if p.EstimatedAmount != nil {
		in.EstimatedAmount = p.EstimatedAmount
	}
	if p.Status != nil {
		in.Status = *p.Status
	}
	if p.Notes != nil {
		in.Notes = *p.Notes
	}
	if p.Tags != nil {
		in.Tags = p.Tags
	}
	return in
}
