package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "cashbook/internal/errors"
	"cashbook/internal/logger"
	"cashbook/internal/models"
)

// dedupeService finds and removes movements recorded more than once.
type dedupeService struct {
	db *gorm.DB
}

// NewDedupeService creates a new DedupeServicer.
func NewDedupeService(db *gorm.DB) DedupeServicer {
	return &dedupeService{db: db}
}

// FindDuplicateMovements groups movements identical in owner, date, amount and
// description. Groups with a single movement are omitted.
func (s *dedupeService) FindDuplicateMovements(ctx context.Context) ([]DuplicateGroup, error) {
	return findDuplicates(ctx, s.db)
}

// RemoveDuplicateMovements deletes every duplicate except the oldest movement
// of each group, in a single transaction, and returns how many were removed.
func (s *dedupeService) RemoveDuplicateMovements(ctx context.Context) (int64, error) {
	var removed int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		groups, err := findDuplicates(ctx, tx)
		if err != nil {
			return err
		}
		var doomed []string
		for _, g := range groups {
			doomed = append(doomed, g.MovementIDs[1:]...)
		}
		if len(doomed) == 0 {
			return nil
		}
		result := tx.Where("id IN ?", doomed).Delete(&models.Movement{})
		if result.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
		}
		removed = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}

	if removed > 0 {
		logger.Get().Infow("removed duplicate movements", "count", removed)
	}
	return removed, nil
}

func findDuplicates(ctx context.Context, db *gorm.DB) ([]DuplicateGroup, error) {
	var keys []struct {
		OwnerID     string
		Date        time.Time
		Amount      decimal.Decimal
		Description string
	}
	err := db.WithContext(ctx).Model(&models.Movement{}).
		Select("owner_id, date, amount, description").
		Group("owner_id, date, amount, description").
		Having("COUNT(*) > 1").
		Order("owner_id, date").
		Scan(&keys).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	groups := make([]DuplicateGroup, 0, len(keys))
	for _, k := range keys {
		var ids []string
		err := db.WithContext(ctx).Model(&models.Movement{}).
			Where("owner_id = ? AND date = ? AND amount = ? AND description = ?", k.OwnerID, k.Date, k.Amount, k.Description).
			Order("created_at ASC, id ASC").
			Pluck("id", &ids).Error
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if len(ids) < 2 {
			continue
		}
		groups = append(groups, DuplicateGroup{
			OwnerID:     k.OwnerID,
			Date:        k.Date,
			Amount:      k.Amount,
			Description: k.Description,
			MovementIDs: ids,
		})
	}
	return groups, nil
}
