package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "cashbook/internal/errors"
	"cashbook/internal/models"
	"cashbook/internal/services"
	"cashbook/internal/suggestion"
)

// --- mock sync service ---

type mockSyncService struct {
	suggestEntriesFn  func(ctx context.Context, costType models.CostType, opts services.SuggestOptions) ([]suggestion.EntryMatch, error)
	suggestCostTypeFn func(ctx context.Context, entryID string) (*services.EntrySuggestion, error)
	searchFn          func(ctx context.Context, text string, costType *models.CostType) ([]suggestion.SearchResult, error)
}

func (m *mockSyncService) SuggestEntriesForCostType(ctx context.Context, costType models.CostType, opts services.SuggestOptions) ([]suggestion.EntryMatch, error) {
	if m.suggestEntriesFn != nil {
		return m.suggestEntriesFn(ctx, costType, opts)
	}
	return []suggestion.EntryMatch{}, nil
}

func (m *mockSyncService) SuggestCostTypeForEntry(ctx context.Context, entryID string) (*services.EntrySuggestion, error) {
	if m.suggestCostTypeFn != nil {
		return m.suggestCostTypeFn(ctx, entryID)
	}
	return &services.EntrySuggestion{}, nil
}

func (m *mockSyncService) SearchEntriesByText(ctx context.Context, text string, costType *models.CostType) ([]suggestion.SearchResult, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, text, costType)
	}
	return []suggestion.SearchResult{}, nil
}

func (m *mockSyncService) ComputeStatistics(_ context.Context) (*services.SyncStatistics, error) {
	return &services.SyncStatistics{TotalEntries: 4, ActiveEntries: 3}, nil
}

func (m *mockSyncService) Mapping() *services.CostTypeMapping {
	return &services.CostTypeMapping{
		CategoryToCostType: suggestion.Mapping(),
		CostTypes:          models.CostTypes,
	}
}

var _ services.SyncServicer = (*mockSyncService)(nil)

func setupSyncRouter(handler *SyncHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.GET("/sync/mapping", handler.GetMapping)
	auth.GET("/sync/cost-types/:costType/entries", handler.SuggestEntries)
	auth.GET("/sync/entries/:id/cost-type", handler.SuggestCostType)
	auth.GET("/sync/search", handler.Search)
	auth.GET("/sync/statistics", handler.GetStatistics)
	return r
}

func TestSyncHandler_SuggestEntries(t *testing.T) {
	t.Run("parses options", func(t *testing.T) {
		var gotType models.CostType
		var gotOpts services.SuggestOptions
		svc := &mockSyncService{
			suggestEntriesFn: func(_ context.Context, costType models.CostType, opts services.SuggestOptions) ([]suggestion.EntryMatch, error) {
				gotType, gotOpts = costType, opts
				return []suggestion.EntryMatch{{Entry: models.CatalogEntry{Name: "Payroll"}, Score: 100}}, nil
			},
		}
		r := setupSyncRouter(NewSyncHandler(svc))

		rec := doRequest(r, "GET", "/sync/cost-types/LABOR/entries?include_inactive=true&require_amount=1&limit=3", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotType != models.CostTypeLabor {
			t.Errorf("expected labor, got %q", gotType)
		}
		if !gotOpts.IncludeNonActive || !gotOpts.RequireEstimatedAmount || gotOpts.Limit != 3 {
			t.Errorf("unexpected options %+v", gotOpts)
		}
		data := parseJSON(t, rec)["data"].([]interface{})
		if len(data) != 1 || data[0].(map[string]interface{})["score"] != float64(100) {
			t.Errorf("unexpected data %v", data)
		}
	})

	t.Run("rejects a bad limit", func(t *testing.T) {
		r := setupSyncRouter(NewSyncHandler(&mockSyncService{}))

		rec := doRequest(r, "GET", "/sync/cost-types/labor/entries?limit=0", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("rejects a bad flag", func(t *testing.T) {
		r := setupSyncRouter(NewSyncHandler(&mockSyncService{}))

		rec := doRequest(r, "GET", "/sync/cost-types/labor/entries?include_inactive=maybe", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("surfaces unknown cost type", func(t *testing.T) {
		svc := &mockSyncService{
			suggestEntriesFn: func(context.Context, models.CostType, services.SuggestOptions) ([]suggestion.EntryMatch, error) {
				return nil, apperrors.NewValidationError([]apperrors.Violation{{Field: "cost_type", Message: "unknown"}})
			},
		}
		r := setupSyncRouter(NewSyncHandler(svc))

		rec := doRequest(r, "GET", "/sync/cost-types/travel/entries", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "VALIDATION_FAILED")
	})
}

func TestSyncHandler_Search(t *testing.T) {
	t.Run("passes text and cost type", func(t *testing.T) {
		var gotText string
		var gotType *models.CostType
		svc := &mockSyncService{
			searchFn: func(_ context.Context, text string, costType *models.CostType) ([]suggestion.SearchResult, error) {
				gotText, gotType = text, costType
				return []suggestion.SearchResult{}, nil
			},
		}
		r := setupSyncRouter(NewSyncHandler(svc))

		rec := doRequest(r, "GET", "/sync/search?q=fuel&cost_type=other_expense", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if gotText != "fuel" || gotType == nil || *gotType != models.CostTypeOtherExpense {
			t.Errorf("unexpected arguments %q / %v", gotText, gotType)
		}
		if data, ok := parseJSON(t, rec)["data"].([]interface{}); !ok || len(data) != 0 {
			t.Errorf("expected empty data list, got %v", data)
		}
	})

	t.Run("omitted cost type stays nil", func(t *testing.T) {
		called := false
		svc := &mockSyncService{
			searchFn: func(_ context.Context, _ string, costType *models.CostType) ([]suggestion.SearchResult, error) {
				called = true
				if costType != nil {
					t.Errorf("expected nil cost type, got %v", *costType)
				}
				return nil, nil
			},
		}
		r := setupSyncRouter(NewSyncHandler(svc))

		doRequest(r, "GET", "/sync/search?q=fuel", "")

		if !called {
			t.Error("expected the service to be called")
		}
	})
}

func TestSyncHandler_Other(t *testing.T) {
	t.Run("suggest cost type returns 404 when missing", func(t *testing.T) {
		svc := &mockSyncService{
			suggestCostTypeFn: func(context.Context, string) (*services.EntrySuggestion, error) {
				return nil, apperrors.ErrCatalogEntryNotFound
			},
		}
		r := setupSyncRouter(NewSyncHandler(svc))

		rec := doRequest(r, "GET", "/sync/entries/nope/cost-type", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("mapping", func(t *testing.T) {
		r := setupSyncRouter(NewSyncHandler(&mockSyncService{}))

		rec := doRequest(r, "GET", "/sync/mapping", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		mapping := parseJSON(t, rec)["category_to_cost_type"].(map[string]interface{})
		if mapping["raw_material"] != "raw_material" {
			t.Errorf("unexpected mapping %v", mapping)
		}
	})

	t.Run("statistics", func(t *testing.T) {
		r := setupSyncRouter(NewSyncHandler(&mockSyncService{}))

		rec := doRequest(r, "GET", "/sync/statistics", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if total := parseJSON(t, rec)["total_entries"]; total != float64(4) {
			t.Errorf("expected 4 entries, got %v", total)
		}
	})
}
