package suggestion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cashbook/internal/models"
)

func entry(name string, category models.CatalogCategory, tags ...string) models.CatalogEntry {
	return models.CatalogEntry{Name: name, Category: category, Tags: tags}
}

func TestMapping_IsOneToOne(t *testing.T) {
	for _, category := range models.CatalogCategories {
		ct, ok := CostTypeFor(category)
		require.True(t, ok, "category %s must map", category)
		back, ok := CategoryFor(ct)
		require.True(t, ok)
		assert.Equal(t, category, back)
	}
	assert.Len(t, Mapping(), len(models.CostTypes))
	assert.Empty(t, OrphanCategories())
	assert.NotNil(t, OrphanCategories())
}

func TestMatchingTags(t *testing.T) {
	tests := []struct {
		name     string
		tags     []string
		costType models.CostType
		want     []string
	}{
		{"exact", []string{"fuel"}, models.CostTypeOtherExpense, []string{"fuel"}},
		{"case_insensitive", []string{"FUEL"}, models.CostTypeOtherExpense, []string{"FUEL"}},
		{"entry_tag_contains_reference", []string{"diesel_fuel"}, models.CostTypeOtherExpense, []string{"diesel_fuel"}},
		{"reference_contains_entry_tag", []string{"salar"}, models.CostTypeLabor, []string{"salar"}},
		{"other_cost_type_vocabulary", []string{"materials"}, models.CostTypeLabor, nil},
		{"blank_tags_never_match", []string{"  "}, models.CostTypeLabor, nil},
		{"counts_entry_tags_not_references", []string{"gas", "water", "poetry"}, models.CostTypeOtherExpense, []string{"gas", "water"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchingTags(tt.tags, tt.costType))
		})
	}
}

func TestScore(t *testing.T) {
	assert.Equal(t, 80, Score(0, LookupCap))
	assert.Equal(t, 95, Score(3, LookupCap))
	assert.Equal(t, 100, Score(10, LookupCap))
	assert.Equal(t, 95, Score(10, InferenceCap))
}

func TestSuggestCostType(t *testing.T) {
	t.Run("raw_material_entry", func(t *testing.T) {
		e := entry("Cement", models.CatalogCategoryRawMaterial, "materials", "construction", "tools", "bulk")

		s, err := SuggestCostType(&e)
		require.NoError(t, err)

		assert.Equal(t, models.CostTypeRawMaterial, s.CostType)
		assert.Equal(t, 95, s.Confidence)
		assert.Equal(t, []string{"materials", "construction", "tools"}, s.MatchedTags)
		assert.Equal(t,
			"Category 'raw_material' maps directly to cost type 'raw_material' and relevant tags: materials, construction, tools",
			s.Reason)
	})

	t.Run("no_tags", func(t *testing.T) {
		e := entry("Cleaning crew", models.CatalogCategoryLabor)

		s, err := SuggestCostType(&e)
		require.NoError(t, err)

		assert.Equal(t, 80, s.Confidence)
		assert.Equal(t, "Category 'labor' maps directly to cost type 'labor'", s.Reason)
		assert.Empty(t, s.MatchedTags)
	})

	t.Run("confidence_stays_in_range", func(t *testing.T) {
		for n := 0; n < 12; n++ {
			tags := make([]string, n)
			for i := range tags {
				tags[i] = "materials"
			}
			e := entry("Bulk", models.CatalogCategoryRawMaterial, tags...)
			s, err := SuggestCostType(&e)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, s.Confidence, 80)
			assert.LessOrEqual(t, s.Confidence, 95)
		}
	})

	t.Run("unknown_category", func(t *testing.T) {
		e := entry("Mystery", models.CatalogCategory("travel"))
		_, err := SuggestCostType(&e)
		assert.Error(t, err)
	})
}

func TestRankForCostType(t *testing.T) {
	entries := []models.CatalogEntry{
		entry("Payroll", models.CatalogCategoryLabor, "salaries"),
		entry("Cement", models.CatalogCategoryRawMaterial, "materials"),
		entry("Bonus pool", models.CatalogCategoryLabor, "bonuses", "incentives", "commissions", "overtime", "personnel"),
		entry("Advisors", models.CatalogCategoryLabor, "salaries"),
		entry("Interns", models.CatalogCategoryLabor),
	}

	ranked := RankForCostType(entries, models.CostTypeLabor)

	names := make([]string, len(ranked))
	for i, m := range ranked {
		names[i] = m.Entry.Name
		assert.Equal(t, models.CatalogCategoryLabor, m.Entry.Category)
		assert.GreaterOrEqual(t, m.Score, 80)
		assert.LessOrEqual(t, m.Score, 100)
		if i > 0 {
			assert.LessOrEqual(t, m.Score, ranked[i-1].Score)
		}
	}
	assert.Equal(t, []string{"Bonus pool", "Advisors", "Payroll", "Interns"}, names)
	assert.Equal(t, 100, ranked[0].Score)
}

func TestRankSearchResults(t *testing.T) {
	entries := []models.CatalogEntry{
		entry("Truck diesel", models.CatalogCategoryOtherExpense, "fuel", "transport"),
		entry("Generator fuel", models.CatalogCategoryOtherExpense, "fuel"),
		entry("Fuel handling staff", models.CatalogCategoryLabor),
	}

	results := RankSearchResults(entries)

	require.Len(t, results, 3)
	assert.Equal(t, "Truck diesel", results[0].Entry.Name)
	assert.Equal(t, 90, results[0].Suggestion.Confidence)
	assert.Equal(t, models.CostTypeOtherExpense, results[0].Suggestion.CostType)
	assert.Equal(t, "Generator fuel", results[1].Entry.Name)
	assert.Equal(t, "Fuel handling staff", results[2].Entry.Name)
}
