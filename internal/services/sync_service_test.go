package services

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"cashbook/internal/models"
	"cashbook/internal/suggestion"
	"cashbook/internal/testutil"
)

func TestSuggestEntriesForCostType(t *testing.T) {
	ctx := context.Background()

	t.Run("labor_only_ranked_by_score_then_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewSyncService(db, NewCatalogService(db))
		testutil.CreateTestCatalogEntry(t, db, "auth0|alice", "Zeta crew", models.CatalogCategoryLabor)
		testutil.CreateTestCatalogEntry(t, db, "auth0|alice", "Alpha crew", models.CatalogCategoryLabor)
		testutil.CreateTestCatalogEntry(t, db, "auth0|alice", "Payroll", models.CatalogCategoryLabor, "salaries", "bonuses", "overtime", "wages", "commissions")
		testutil.CreateTestCatalogEntry(t, db, "auth0|alice", "Cement", models.CatalogCategoryRawMaterial, "materials")

		matches, err := svc.SuggestEntriesForCostType(ctx, models.CostTypeLabor, SuggestOptions{})
		testutil.AssertNoError(t, err)

		if len(matches) != 3 {
			t.Fatalf("expected 3 labor entries, got %d", len(matches))
		}
		for i, m := range matches {
			if m.Entry.Category != models.CatalogCategoryLabor {
				t.Errorf("expected only labor entries, got %s", m.Entry.Category)
			}
			if m.Score < suggestion.BaseScore || m.Score > suggestion.LookupCap {
				t.Errorf("score %d out of range", m.Score)
			}
			if i > 0 && m.Score > matches[i-1].Score {
				t.Errorf("scores increase at position %d", i)
			}
		}
		if matches[0].Entry.Name != "Payroll" || matches[0].Score != 100 {
			t.Errorf("expected Payroll first with score 100, got %s/%d", matches[0].Entry.Name, matches[0].Score)
		}
		if matches[1].Entry.Name != "Alpha crew" || matches[2].Entry.Name != "Zeta crew" {
			t.Errorf("expected ties broken by name, got %s, %s", matches[1].Entry.Name, matches[2].Entry.Name)
		}
	})

	t.Run("excludes_non_active_unless_asked", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewSyncService(db, NewCatalogService(db))
		testutil.CreateTestCatalogEntry(t, db, "auth0|alice", "Active crew", models.CatalogCategoryLabor)
		archived := testutil.CreateTestCatalogEntry(t, db, "auth0|alice", "Archived crew", models.CatalogCategoryLabor)
		db.Model(archived).Update("status", models.CatalogStatusArchived)

		matches, err := svc.SuggestEntriesForCostType(ctx, models.CostTypeLabor, SuggestOptions{})
		testutil.AssertNoError(t, err)
		if len(matches) != 1 {
			t.Errorf("expected only the active entry, got %d", len(matches))
		}

		matches, err = svc.SuggestEntriesForCostType(ctx, models.CostTypeLabor, SuggestOptions{IncludeNonActive: true})
		testutil.AssertNoError(t, err)
		if len(matches) != 2 {
			t.Errorf("expected both entries, got %d", len(matches))
		}
	})

	t.Run("require_estimated_amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewSyncService(db, NewCatalogService(db))
		priced := testutil.CreateTestCatalogEntry(t, db, "auth0|alice", "Priced", models.CatalogCategoryRawMaterial)
		db.Model(priced).Update("estimated_amount", decimal.NewFromInt(80))
		zero := testutil.CreateTestCatalogEntry(t, db, "auth0|alice", "Zero", models.CatalogCategoryRawMaterial)
		db.Model(zero).Update("estimated_amount", decimal.Zero)
		testutil.CreateTestCatalogEntry(t, db, "auth0|alice", "Unpriced", models.CatalogCategoryRawMaterial)

		matches, err := svc.SuggestEntriesForCostType(ctx, models.CostTypeRawMaterial, SuggestOptions{RequireEstimatedAmount: true})
		testutil.AssertNoError(t, err)
		if len(matches) != 1 || matches[0].Entry.Name != "Priced" {
			t.Errorf("expected only the priced entry, got %+v", matches)
		}
	})

	t.Run("limit", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewSyncService(db, NewCatalogService(db))
		for _, name := range []string{"Crew a", "Crew b", "Crew c"} {
			testutil.CreateTestCatalogEntry(t, db, "auth0|alice", name, models.CatalogCategoryLabor)
		}
		testutil.CreateTestCatalogEntry(t, db, "auth0|alice", "Crew z", models.CatalogCategoryLabor, "wages")

		matches, err := svc.SuggestEntriesForCostType(ctx, models.CostTypeLabor, SuggestOptions{Limit: 2})
		testutil.AssertNoError(t, err)
		if len(matches) != 2 {
			t.Fatalf("expected 2 matches, got %d", len(matches))
		}
		if matches[0].Entry.Name != "Crew z" {
			t.Errorf("expected best match kept after truncation, got %s", matches[0].Entry.Name)
		}
	})

	t.Run("unknown_cost_type", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewSyncService(db, NewCatalogService(db))

		_, err := svc.SuggestEntriesForCostType(ctx, "marketing", SuggestOptions{})
		testutil.AssertViolation(t, err, "cost_type")
	})
}

func TestSuggestCostTypeForEntry(t *testing.T) {
	ctx := context.Background()

	t.Run("raw_material", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewSyncService(db, NewCatalogService(db))
		entry := testutil.CreateTestCatalogEntry(t, db, "auth0|alice", "Cement", models.CatalogCategoryRawMaterial,
			"materials", "construction", "tools", "supplies", "packaging")

		result, err := svc.SuggestCostTypeForEntry(ctx, entry.ID)
		testutil.AssertNoError(t, err)

		if result.Suggestion.CostType != models.CostTypeRawMaterial {
			t.Errorf("expected raw_material, got %s", result.Suggestion.CostType)
		}
		if result.Suggestion.Confidence != suggestion.InferenceCap {
			t.Errorf("expected confidence capped at %d, got %d", suggestion.InferenceCap, result.Suggestion.Confidence)
		}
		if !strings.Contains(result.Suggestion.Reason, "raw_material") || !strings.Contains(result.Suggestion.Reason, "materials") {
			t.Errorf("expected reason to name the mapping and tags, got %q", result.Suggestion.Reason)
		}
	})

	t.Run("archived_entry_still_resolves", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewSyncService(db, NewCatalogService(db))
		entry := testutil.CreateTestCatalogEntry(t, db, "auth0|alice", "Old crew", models.CatalogCategoryLabor)
		db.Model(entry).Update("status", models.CatalogStatusArchived)

		result, err := svc.SuggestCostTypeForEntry(ctx, entry.ID)
		testutil.AssertNoError(t, err)
		if result.Suggestion.Confidence != suggestion.BaseScore {
			t.Errorf("expected base confidence, got %d", result.Suggestion.Confidence)
		}
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewSyncService(db, NewCatalogService(db))

		_, err := svc.SuggestCostTypeForEntry(ctx, "0192f1d8-7d1a-7c3e-9a43-3f1b6c2d8e11")
		testutil.AssertAppError(t, err, "CATALOG_ENTRY_NOT_FOUND")
	})
}

func TestSearchEntriesByText(t *testing.T) {
	ctx := context.Background()

	t.Run("matches_tags", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewSyncService(db, NewCatalogService(db))
		diesel := testutil.CreateTestCatalogEntry(t, db, "auth0|alice", "Diesel", models.CatalogCategoryOtherExpense, "fuel", "transport")
		testutil.CreateTestCatalogEntry(t, db, "auth0|alice", "Cement", models.CatalogCategoryRawMaterial, "materials")

		results, err := svc.SearchEntriesByText(ctx, "fuel", nil)
		testutil.AssertNoError(t, err)

		if len(results) != 1 || results[0].Entry.ID != diesel.ID {
			t.Fatalf("expected only the diesel entry, got %+v", results)
		}
		if results[0].Suggestion.CostType != models.CostTypeOtherExpense {
			t.Errorf("expected other_expense, got %s", results[0].Suggestion.CostType)
		}
		if results[0].Suggestion.Confidence < 85 {
			t.Errorf("expected confidence of at least 85, got %d", results[0].Suggestion.Confidence)
		}
	})

	t.Run("matches_name_and_description_ignoring_case", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewSyncService(db, NewCatalogService(db))
		testutil.CreateTestCatalogEntry(t, db, "auth0|alice", "Truck rental", models.CatalogCategoryOtherExpense)
		described := testutil.CreateTestCatalogEntry(t, db, "auth0|alice", "Hauling", models.CatalogCategoryOtherExpense)
		db.Model(described).Update("description", "Weekly TRUCK trips")

		results, err := svc.SearchEntriesByText(ctx, "truck", nil)
		testutil.AssertNoError(t, err)
		if len(results) != 2 {
			t.Errorf("expected 2 results, got %d", len(results))
		}
	})

	t.Run("cost_type_filter", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewSyncService(db, NewCatalogService(db))
		testutil.CreateTestCatalogEntry(t, db, "auth0|alice", "Supply run", models.CatalogCategoryOtherExpense)
		testutil.CreateTestCatalogEntry(t, db, "auth0|alice", "Supply crate", models.CatalogCategoryRawMaterial)

		results, err := svc.SearchEntriesByText(ctx, "supply", testutil.Ptr(models.CostTypeRawMaterial))
		testutil.AssertNoError(t, err)
		if len(results) != 1 || results[0].Entry.Name != "Supply crate" {
			t.Errorf("expected only the raw material entry, got %+v", results)
		}
	})

	t.Run("caps_results", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewSyncService(db, NewCatalogService(db))
		for i := 0; i < SearchResultLimit+3; i++ {
			testutil.CreateTestCatalogEntry(t, db, "auth0|alice", "Item "+string(rune('a'+i)), models.CatalogCategoryOtherExpense)
		}

		results, err := svc.SearchEntriesByText(ctx, "item", nil)
		testutil.AssertNoError(t, err)
		if len(results) != SearchResultLimit {
			t.Errorf("expected %d results, got %d", SearchResultLimit, len(results))
		}
	})

	t.Run("malformed_text", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewSyncService(db, NewCatalogService(db))

		for _, text := range []string{"", " a ", "two\nlines", strings.Repeat("x", 101)} {
			_, err := svc.SearchEntriesByText(ctx, text, nil)
			testutil.AssertViolation(t, err, "q")
		}
	})

	t.Run("unknown_cost_type", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewSyncService(db, NewCatalogService(db))

		_, err := svc.SearchEntriesByText(ctx, "fuel", testutil.Ptr(models.CostType("marketing")))
		testutil.AssertViolation(t, err, "cost_type")
	})
}

func TestComputeStatistics(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewSyncService(db, NewCatalogService(db))
	testutil.CreateTestCatalogEntry(t, db, "auth0|alice", "Crew", models.CatalogCategoryLabor)
	testutil.CreateTestCatalogEntry(t, db, "auth0|alice", "Diesel", models.CatalogCategoryOtherExpense)
	inactive := testutil.CreateTestCatalogEntry(t, db, "auth0|alice", "Gasoline", models.CatalogCategoryOtherExpense)
	db.Model(inactive).Update("status", models.CatalogStatusInactive)

	stats, err := svc.ComputeStatistics(ctx)
	testutil.AssertNoError(t, err)

	if stats.TotalEntries != 3 || stats.ActiveEntries != 2 {
		t.Errorf("expected 3 total and 2 active, got %d and %d", stats.TotalEntries, stats.ActiveEntries)
	}
	if stats.ActiveByCostType[models.CostTypeLabor] != 1 || stats.ActiveByCostType[models.CostTypeOtherExpense] != 1 {
		t.Errorf("unexpected per cost type counts: %v", stats.ActiveByCostType)
	}
	if count, ok := stats.ActiveByCostType[models.CostTypeRawMaterial]; !ok || count != 0 {
		t.Errorf("expected raw_material reported as 0, got %v", stats.ActiveByCostType)
	}
	if stats.OrphanCategories == nil || len(stats.OrphanCategories) != 0 {
		t.Errorf("expected an empty orphan list, got %#v", stats.OrphanCategories)
	}
}

func TestMapping(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewSyncService(db, NewCatalogService(db))

	mapping := svc.Mapping()
	for _, c := range models.CatalogCategories {
		ct, ok := mapping.CategoryToCostType[c]
		if !ok || string(ct) != string(c) {
			t.Errorf("expected %s to map to its namesake, got %s", c, ct)
		}
	}
	if len(mapping.ReferenceTags[models.CostTypeOtherExpense]) == 0 {
		t.Error("expected reference tags for other_expense")
	}
	if len(mapping.PaymentMethods) != 7 {
		t.Errorf("expected 7 payment methods, got %d", len(mapping.PaymentMethods))
	}
}
