package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	apperrors "cashbook/internal/errors"
	"cashbook/internal/models"
	"cashbook/internal/suggestion"
)

// Bounds of the suggestion endpoints.
const (
	DefaultSuggestLimit = 10
	MaxSuggestLimit     = 100
	SearchResultLimit   = 10

	minSearchLength = 2
	maxSearchLength = 100
)

// syncService implements SyncServicer over the stored catalog.
type syncService struct {
	db      *gorm.DB
	catalog CatalogServicer
}

// NewSyncService creates a new SyncServicer.
func NewSyncService(db *gorm.DB, catalog CatalogServicer) SyncServicer {
	return &syncService{db: db, catalog: catalog}
}

// SuggestEntriesForCostType ranks the catalog entries whose category maps to
// costType. Only active entries are considered unless opts.IncludeNonActive.
func (s *syncService) SuggestEntriesForCostType(ctx context.Context, costType models.CostType, opts SuggestOptions) ([]suggestion.EntryMatch, error) {
	category, err := categoryForCostType(costType)
	if err != nil {
		return nil, err
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultSuggestLimit
	}
	limit = min(limit, MaxSuggestLimit)

	q := s.db.WithContext(ctx).Where("category = ?", category)
	if !opts.IncludeNonActive {
		q = q.Where("status = ?", models.CatalogStatusActive)
	}
	if opts.RequireEstimatedAmount {
		q = q.Where("estimated_amount > 0")
	}

	var entries []models.CatalogEntry
	if err := q.Find(&entries).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	ranked := suggestion.RankForCostType(entries, costType)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// SuggestCostTypeForEntry infers the cost type of a stored entry.
func (s *syncService) SuggestCostTypeForEntry(ctx context.Context, entryID string) (*EntrySuggestion, error) {
	entry, err := s.catalog.GetEntryByID(ctx, entryID)
	if err != nil {
		return nil, err
	}

	result, err := suggestion.SuggestCostType(entry)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &EntrySuggestion{Entry: *entry, Suggestion: result}, nil
}

// SearchEntriesByText matches text against the name, description and tags of
// active entries, ignoring case, and ranks the hits by inferred confidence.
func (s *syncService) SearchEntriesByText(ctx context.Context, text string, costType *models.CostType) ([]suggestion.SearchResult, error) {
	text = strings.TrimSpace(text)
	if n := utf8.RuneCountInString(text); n < minSearchLength || n > maxSearchLength || strings.ContainsAny(text, "\r\n") {
		return nil, apperrors.NewValidationError([]apperrors.Violation{{
			Field:   "q",
			Message: "q must be a single line of 2 to 100 characters",
		}})
	}

	q := s.db.WithContext(ctx).Where("status = ?", models.CatalogStatusActive)
	if costType != nil {
		category, err := categoryForCostType(*costType)
		if err != nil {
			return nil, err
		}
		q = q.Where("category = ?", category)
	}
	q = applyCatalogFilters(q, CatalogFilter{AllStatuses: true, Search: text})

	var entries []models.CatalogEntry
	if err := q.Find(&entries).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	results := suggestion.RankSearchResults(entries)
	if len(results) > SearchResultLimit {
		results = results[:SearchResultLimit]
	}
	return results, nil
}

// ComputeStatistics reports catalog size and active coverage per cost type.
func (s *syncService) ComputeStatistics(ctx context.Context) (*SyncStatistics, error) {
	stats := &SyncStatistics{
		ActiveByCostType: make(map[models.CostType]int64, len(models.CostTypes)),
		OrphanCategories: suggestion.OrphanCategories(),
		Mapping:          suggestion.Mapping(),
	}
	for _, ct := range models.CostTypes {
		stats.ActiveByCostType[ct] = 0
	}

	if err := s.db.WithContext(ctx).Model(&models.CatalogEntry{}).Count(&stats.TotalEntries).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var rows []struct {
		Category   models.CatalogCategory
		EntryCount int64
	}
	err := s.db.WithContext(ctx).Model(&models.CatalogEntry{}).
		Select("category, COUNT(*) AS entry_count").
		Where("status = ?", models.CatalogStatusActive).
		Group("category").
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	for _, r := range rows {
		stats.ActiveEntries += r.EntryCount
		if ct, ok := suggestion.CostTypeFor(r.Category); ok {
			stats.ActiveByCostType[ct] += r.EntryCount
		}
	}
	return stats, nil
}

// Mapping describes the category correspondence and the enumerations.
func (s *syncService) Mapping() *CostTypeMapping {
	refs := make(map[models.CostType][]string, len(models.CostTypes))
	for _, ct := range models.CostTypes {
		refs[ct] = suggestion.ReferenceTags(ct)
	}
	return &CostTypeMapping{
		CategoryToCostType: suggestion.Mapping(),
		ReferenceTags:      refs,
		CostTypes:          models.CostTypes,
		CatalogCategories:  models.CatalogCategories,
		MovementCategories: models.MovementCategories,
		IncomeCategories:   models.IncomeCategories,
		PaymentMethods:     models.PaymentMethods,
		ExpenseTypes:       models.ExpenseTypes,
		CatalogStatuses:    models.CatalogStatuses,
	}
}

func categoryForCostType(costType models.CostType) (models.CatalogCategory, error) {
	category, ok := suggestion.CategoryFor(costType)
	if !ok {
		return "", apperrors.NewValidationError([]apperrors.Violation{{
			Field:   "cost_type",
			Message: oneOfMessage("cost_type", models.CostTypes),
		}})
	}
	return category, nil
}
