// Package suggestion bridges the catalog's expense categories and the
// movement cost types, and ranks catalog entries by how well their tags
// support a cost type.
package suggestion

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"cashbook/internal/models"
)

// Scoring constants. Every catalog category maps to exactly one cost type,
// so a mapped entry starts at BaseScore and earns TagBonus per matching tag.
const (
	BaseScore = 80
	TagBonus  = 5

	// LookupCap bounds scores when ranking entries for a requested cost type.
	LookupCap = 100
	// InferenceCap bounds confidence when inferring a cost type for an entry.
	InferenceCap = 95
)

var categoryToCostType = map[models.CatalogCategory]models.CostType{
	models.CatalogCategoryLabor:        models.CostTypeLabor,
	models.CatalogCategoryRawMaterial:  models.CostTypeRawMaterial,
	models.CatalogCategoryOtherExpense: models.CostTypeOtherExpense,
}

var costTypeToCategory = map[models.CostType]models.CatalogCategory{
	models.CostTypeLabor:        models.CatalogCategoryLabor,
	models.CostTypeRawMaterial:  models.CatalogCategoryRawMaterial,
	models.CostTypeOtherExpense: models.CatalogCategoryOtherExpense,
}

// referenceTags is the keyword vocabulary judged typical for each cost type.
var referenceTags = map[models.CostType][]string{
	models.CostTypeLabor: {
		"personnel", "salaries", "wages", "bonuses", "overtime", "consulting",
		"external_services", "specialists", "incentives", "commissions",
	},
	models.CostTypeRawMaterial: {
		"materials", "construction", "supplies", "chemicals", "tools", "spare_parts",
		"machinery", "equipment", "basic_materials", "packaging", "wrapping",
	},
	models.CostTypeOtherExpense: {
		"fuel", "transport", "utilities", "electricity", "water", "gas", "internet",
		"telephony", "maintenance", "repairs", "office", "stationery", "insurance",
		"training", "coaching",
	},
}

// CostTypeFor resolves a catalog category to its cost type.
func CostTypeFor(category models.CatalogCategory) (models.CostType, bool) {
	ct, ok := categoryToCostType[category]
	return ct, ok
}

// CategoryFor resolves a cost type to its catalog category.
func CategoryFor(costType models.CostType) (models.CatalogCategory, bool) {
	c, ok := costTypeToCategory[costType]
	return c, ok
}

// Mapping returns a copy of the category to cost type correspondence.
func Mapping() map[models.CatalogCategory]models.CostType {
	out := make(map[models.CatalogCategory]models.CostType, len(categoryToCostType))
	for k, v := range categoryToCostType {
		out[k] = v
	}
	return out
}

// OrphanCategories lists catalog categories with no cost type. It is empty
// while the two enumerations stay in one-to-one correspondence.
func OrphanCategories() []models.CatalogCategory {
	orphans := []models.CatalogCategory{}
	for _, c := range models.CatalogCategories {
		if _, ok := categoryToCostType[c]; !ok {
			orphans = append(orphans, c)
		}
	}
	return orphans
}

// ReferenceTags returns the reference vocabulary of a cost type.
func ReferenceTags(costType models.CostType) []string {
	return slices.Clone(referenceTags[costType])
}

// MatchingTags returns the entry tags that relate to at least one reference
// tag of costType. A tag relates when either string contains the other,
// ignoring case.
func MatchingTags(tags []string, costType models.CostType) []string {
	refs := referenceTags[costType]
	var matched []string
	for _, tag := range tags {
		lower := strings.ToLower(strings.TrimSpace(tag))
		if lower == "" {
			continue
		}
		for _, ref := range refs {
			if strings.Contains(lower, ref) || strings.Contains(ref, lower) {
				matched = append(matched, tag)
				break
			}
		}
	}
	return matched
}

// Score returns BaseScore plus TagBonus per match, bounded by limit.
func Score(matches, limit int) int {
	return min(limit, BaseScore+TagBonus*matches)
}

// CostTypeSuggestion is an inferred cost type for a catalog entry.
type CostTypeSuggestion struct {
	CostType    models.CostType `json:"cost_type"`
	Confidence  int             `json:"confidence"`
	Reason      string          `json:"reason"`
	MatchedTags []string        `json:"matched_tags"`
}

// SuggestCostType infers the cost type of entry from its category and tags.
func SuggestCostType(entry *models.CatalogEntry) (CostTypeSuggestion, error) {
	costType, ok := CostTypeFor(entry.Category)
	if !ok {
		return CostTypeSuggestion{}, fmt.Errorf("catalog category %q has no cost type", entry.Category)
	}
	matched := MatchingTags(entry.Tags, costType)
	if matched == nil {
		matched = []string{}
	}
	return CostTypeSuggestion{
		CostType:    costType,
		Confidence:  Score(len(matched), InferenceCap),
		Reason:      reason(entry.Category, costType, matched),
		MatchedTags: matched,
	}, nil
}

func reason(category models.CatalogCategory, costType models.CostType, matched []string) string {
	r := fmt.Sprintf("Category '%s' maps directly to cost type '%s'", category, costType)
	if len(matched) > 0 {
		r += " and relevant tags: " + strings.Join(matched, ", ")
	}
	return r
}

// EntryMatch is a catalog entry ranked for a requested cost type.
type EntryMatch struct {
	Entry       models.CatalogEntry `json:"entry"`
	Score       int                 `json:"score"`
	MatchedTags []string            `json:"matched_tags"`
}

// RankForCostType scores entries against costType and orders them by
// descending score, then ascending name. Entries whose category does not map
// to costType are dropped.
func RankForCostType(entries []models.CatalogEntry, costType models.CostType) []EntryMatch {
	ranked := make([]EntryMatch, 0, len(entries))
	for _, e := range entries {
		if ct, ok := CostTypeFor(e.Category); !ok || ct != costType {
			continue
		}
		matched := MatchingTags(e.Tags, costType)
		if matched == nil {
			matched = []string{}
		}
		ranked = append(ranked, EntryMatch{
			Entry:       e,
			Score:       Score(len(matched), LookupCap),
			MatchedTags: matched,
		})
	}
	SortByScore(ranked, func(m EntryMatch) (int, string) { return m.Score, m.Entry.Name })
	return ranked
}

// SearchResult is a text-search hit with the cost type inferred for it.
type SearchResult struct {
	Entry      models.CatalogEntry `json:"entry"`
	Suggestion CostTypeSuggestion  `json:"suggestion"`
}

// RankSearchResults attaches a cost type suggestion to every entry and orders
// the results by descending confidence, then ascending name.
func RankSearchResults(entries []models.CatalogEntry) []SearchResult {
	results := make([]SearchResult, 0, len(entries))
	for i := range entries {
		s, err := SuggestCostType(&entries[i])
		if err != nil {
			continue
		}
		results = append(results, SearchResult{Entry: entries[i], Suggestion: s})
	}
	SortByScore(results, func(r SearchResult) (int, string) { return r.Suggestion.Confidence, r.Entry.Name })
	return results
}

// SortByScore orders items by descending score, breaking ties by ascending name.
func SortByScore[T any](items []T, key func(T) (int, string)) {
	slices.SortStableFunc(items, func(a, b T) int {
		sa, na := key(a)
		sb, nb := key(b)
		if c := cmp.Compare(sb, sa); c != 0 {
			return c
		}
		return strings.Compare(na, nb)
	})
}
