package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"cashbook/internal/models"
	"cashbook/internal/services"
)

// SyncHandler exposes the catalog to cost type bridge.
type SyncHandler struct {
	syncService services.SyncServicer
}

// NewSyncHandler creates a new SyncHandler.
func NewSyncHandler(syncService services.SyncServicer) *SyncHandler {
	return &SyncHandler{syncService: syncService}
}

// GetMapping returns the category to cost type map and every enumeration
// @Summary     Cost type mapping
// @Tags        sync
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.CostTypeMapping "Mapping"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /sync/mapping [get]
func (h *SyncHandler) GetMapping(c *gin.Context) {
	c.JSON(http.StatusOK, h.syncService.Mapping())
}

// SuggestEntries ranks catalog entries for a cost type
// @Summary     Suggest catalog entries for a cost type
// @Tags        sync
// @Produce     json
// @Security    BearerAuth
// @Param       costType         path  string true  "labor, raw_material or other_expense"
// @Param       include_inactive query bool   false "Also rank inactive and archived entries"
// @Param       require_amount   query bool   false "Only entries with a positive estimated amount"
// @Param       limit            query int    false "Maximum results (default 10, max 100)"
// @Success     200 {array}  suggestion.EntryMatch "Ranked entries"
// @Failure     400 {object} ErrorResponse "Unknown cost type"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /sync/cost-types/{costType}/entries [get]
func (h *SyncHandler) SuggestEntries(c *gin.Context) {
	var opts services.SuggestOptions
	var err error

	if opts.IncludeNonActive, err = boolQuery(c, "include_inactive"); err != nil {
		respondWithError(c, err)
		return
	}
	if opts.RequireEstimatedAmount, err = boolQuery(c, "require_amount"); err != nil {
		respondWithError(c, err)
		return
	}
	if v := c.Query("limit"); v != "" {
		limit, convErr := strconv.Atoi(v)
		if convErr != nil || limit < 1 {
			respondWithError(c, invalidField("limit", "limit must be a positive integer"))
			return
		}
		opts.Limit = limit
	}

	costType := models.CostType(strings.ToLower(c.Param("costType")))
	matches, err := h.syncService.SuggestEntriesForCostType(c.Request.Context(), costType, opts)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": matches})
}

// SuggestCostType infers the cost type of a catalog entry
// @Summary     Suggest a cost type for a catalog entry
// @Tags        sync
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Catalog entry ID"
// @Success     200 {object} services.EntrySuggestion "Suggestion"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Catalog entry not found"
// @Router      /sync/entries/{id}/cost-type [get]
func (h *SyncHandler) SuggestCostType(c *gin.Context) {
	result, err := h.syncService.SuggestCostTypeForEntry(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Search finds active catalog entries by text
// @Summary     Search catalog entries
// @Description Case-insensitive match on name, description and tags, ranked by inferred confidence, at most 10 results
// @Tags        sync
// @Produce     json
// @Security    BearerAuth
// @Param       q         query string true  "Search text, 2 to 100 characters"
// @Param       cost_type query string false "Restrict to one cost type"
// @Success     200 {array}  suggestion.SearchResult "Results"
// @Failure     400 {object} ErrorResponse "Invalid search text"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /sync/search [get]
func (h *SyncHandler) Search(c *gin.Context) {
	var costType *models.CostType
	if v := strings.TrimSpace(c.Query("cost_type")); v != "" {
		ct := models.CostType(strings.ToLower(v))
		costType = &ct
	}

	results, err := h.syncService.SearchEntriesByText(c.Request.Context(), c.Query("q"), costType)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": results})
}

// GetStatistics reports catalog coverage per cost type
// @Summary     Synchronization statistics
// @Tags        sync
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.SyncStatistics "Statistics"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /sync/statistics [get]
func (h *SyncHandler) GetStatistics(c *gin.Context) {
	stats, err := h.syncService.ComputeStatistics(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
