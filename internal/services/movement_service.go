package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"cashbook/internal/classification"
	apperrors "cashbook/internal/errors"
	"cashbook/internal/models"
	"cashbook/internal/pagination"
	"cashbook/internal/suggestion"
)

// movementService implements MovementServicer.
type movementService struct {
	db        *gorm.DB
	validator *classification.Validator
	catalog   CatalogServicer
	reports   ReportServicer
}

// NewMovementService creates a new MovementServicer.
func NewMovementService(db *gorm.DB, validator *classification.Validator, catalog CatalogServicer, reports ReportServicer) MovementServicer {
	return &movementService{
		db:        db,
		validator: validator,
		catalog:   catalog,
		reports:   reports,
	}
}

// ValidateMovement checks a payload without persisting it.
func (s *movementService) ValidateMovement(input classification.Input) (*models.Movement, error) {
	return s.validator.Validate(input)
}

// CreateMovement validates and records a movement for ownerID. A non-empty
// idempotencyKey makes the call safe to retry: a repeated key returns the
// movement recorded by the first call.
func (s *movementService) CreateMovement(ctx context.Context, ownerID string, input classification.Input, idempotencyKey string) (*models.Movement, error) {
	movement, err := s.validator.Validate(input)
	if err != nil {
		return nil, err
	}
	if movement.CatalogEntryID != nil {
		if _, err := s.usableEntry(ctx, *movement.CatalogEntryID); err != nil {
			return nil, err
		}
	}
	return s.insert(ctx, ownerID, movement, strings.TrimSpace(idempotencyKey))
}

// CreateMovementFromCatalogEntry records an expense described by a catalog
// entry. The cost type is inferred from the entry; description and amount
// default to the entry's name and estimated amount.
func (s *movementService) CreateMovementFromCatalogEntry(ctx context.Context, ownerID, entryID string, input AssistedMovementInput) (*models.Movement, error) {
	entry, err := s.usableEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}

	inferred, err := suggestion.SuggestCostType(entry)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	candidate := classification.Input{
		Date:           input.Date,
		Direction:      models.DirectionExpense,
		Description:    input.Description,
		PaymentMethod:  input.PaymentMethod,
		Category:       input.Category,
		CostType:       &inferred.CostType,
		Voucher:        input.Voucher,
		Notes:          input.Notes,
		CatalogEntryID: &entry.ID,
		Rejected:       input.Rejected,
	}
	if strings.TrimSpace(candidate.Description) == "" {
		candidate.Description = entry.Name
	}
	switch {
	case input.Amount != nil:
		candidate.Amount = *input.Amount
	case entry.EstimatedAmount != nil && entry.EstimatedAmount.IsPositive():
		candidate.Amount = *entry.EstimatedAmount
	}

	movement, err := s.validator.Validate(candidate)
	if err != nil {
		return nil, err
	}
	return s.insert(ctx, ownerID, movement, "")
}

func (s *movementService) insert(ctx context.Context, ownerID string, movement *models.Movement, idempotencyKey string) (*models.Movement, error) {
	movement.OwnerID = ownerID

	if idempotencyKey != "" {
		if existing, err := s.findByIdempotencyKey(ctx, ownerID, idempotencyKey); err == nil {
			return existing, nil
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		movement.IdempotencyKey = &idempotencyKey
	}

	if err := s.db.WithContext(ctx).Create(movement).Error; err != nil {
		// A concurrent retry with the same key won the insert.
		if idempotencyKey != "" && errors.Is(err, gorm.ErrDuplicatedKey) {
			if existing, findErr := s.findByIdempotencyKey(ctx, ownerID, idempotencyKey); findErr == nil {
				return existing, nil
			}
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return movement, nil
}

func (s *movementService) findByIdempotencyKey(ctx context.Context, ownerID, key string) (*models.Movement, error) {
	var m models.Movement
	err := s.db.WithContext(ctx).
		Where("owner_id = ? AND idempotency_key = ?", ownerID, key).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// usableEntry fails with INVALID_REFERENCE unless entryID names a catalog
// entry that is not archived.
func (s *movementService) usableEntry(ctx context.Context, entryID string) (*models.CatalogEntry, error) {
	entry, err := s.catalog.GetEntryByID(ctx, entryID)
	if err != nil {
		if apperrors.HasCode(err, apperrors.ErrCatalogEntryNotFound) {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidReference, "catalog entry does not exist")
		}
		return nil, err
	}
	if entry.Status == models.CatalogStatusArchived {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidReference, "catalog entry is archived")
	}
	return entry, nil
}

// GetMovementByID retrieves one of the owner's movements.
func (s *movementService) GetMovementByID(ctx context.Context, ownerID, movementID string) (*models.Movement, error) {
	if _, err := uuid.Parse(movementID); err != nil {
		return nil, apperrors.ErrMovementNotFound
	}

	var movement models.Movement
	err := s.db.WithContext(ctx).
		Preload("Owner").
		Where("id = ? AND owner_id = ?", movementID, ownerID).
		First(&movement).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrMovementNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &movement, nil
}

// ListMovements returns one page of the owner's movements, newest first, with
// totals and breakdowns computed over every movement matching filter. The
// page, the summary and the breakdowns are queried concurrently.
func (s *movementService) ListMovements(ctx context.Context, ownerID string, filter MovementFilter, page pagination.PageRequest) (*MovementList, error) {
	page.Defaults()

	var (
		movements  []models.Movement
		summary    *MovementSummary
		byCategory []BreakdownRow
		byCostType []BreakdownRow
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := scopedMovements(gctx, s.db, ownerID, filter).
			Preload("Owner").
			Order("date DESC, created_at DESC, id DESC").
			Scopes(pagination.Paginate(page)).
			Find(&movements).Error
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		summary, err = s.reports.Summarize(gctx, ownerID, filter)
		return err
	})
	g.Go(func() error {
		var err error
		byCategory, err = s.reports.CategoryBreakdown(gctx, ownerID, filter)
		return err
	})
	g.Go(func() error {
		var err error
		byCostType, err = s.reports.CostTypeBreakdown(gctx, ownerID, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &MovementList{
		PageResponse: pagination.NewPageResponse(movements, page.Page, page.Limit, summary.TotalCount),
		Summary:      *summary,
		Breakdowns: Breakdowns{
			ByCategory: byCategory,
			ByCostType: byCostType,
		},
	}, nil
}

// UpdateMovement overlays patch onto a stored movement and re-validates the
// result. The date window is only checked when the date changes. Switching
// direction clears the fields of the other side.
func (s *movementService) UpdateMovement(ctx context.Context, ownerID, movementID string, patch classification.Patch) (*models.Movement, error) {
	existing, err := s.GetMovementByID(ctx, ownerID, movementID)
	if err != nil {
		return nil, err
	}

	updated, err := s.validator.Revalidate(classification.FromMovement(existing), patch)
	if err != nil {
		return nil, err
	}

	updated.ID = existing.ID
	updated.CreatedAt = existing.CreatedAt
	updated.OwnerID = existing.OwnerID
	updated.IdempotencyKey = existing.IdempotencyKey
	updated.UpdatedAt = s.db.NowFunc()

	result := s.db.WithContext(ctx).
		Model(existing).
		Select("*").
		Omit("Owner", "ID", "CreatedAt").
		Where("owner_id = ?", ownerID).
		Updates(updated)
	if result.Error != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	// Deleted since it was read.
	if result.RowsAffected == 0 {
		return nil, apperrors.ErrMovementNotFound
	}
	updated.Owner = existing.Owner
	return updated, nil
}

// DeleteMovement permanently removes one of the owner's movements.
func (s *movementService) DeleteMovement(ctx context.Context, ownerID, movementID string) error {
	if _, err := uuid.Parse(movementID); err != nil {
		return apperrors.ErrMovementNotFound
	}

	result := s.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", movementID, ownerID).
		Delete(&models.Movement{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrMovementNotFound
	}
	return nil
}
