package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"cashbook/internal/models"
	"cashbook/internal/pagination"
	"cashbook/internal/services"
)

// CatalogHandler handles catalog entry requests.
type CatalogHandler struct {
	catalogService services.CatalogServicer
	auditService   services.AuditServicer
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalogService services.CatalogServicer, auditService services.AuditServicer) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService, auditService: auditService}
}

// ChangeStatusRequest represents the request payload for a status change
type ChangeStatusRequest struct {
	Status models.CatalogStatus `json:"status" binding:"required" example:"inactive"`
}

// CatalogEntryResponse wraps a single catalog entry
type CatalogEntryResponse struct {
	Entry models.CatalogEntry `json:"entry"`
}

// CreateEntry creates a catalog entry
// @Summary     Create a catalog entry
// @Description Names are normalized to a leading capital and must be unique per creator
// @Tags        catalog
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body services.CatalogEntryInput true "Entry details"
// @Success     201 {object} CatalogEntryResponse "Entry created"
// @Failure     400 {object} ErrorResponse "Validation failed"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     409 {object} ErrorResponse "Duplicate name"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /catalog [post]
func (h *CatalogHandler) CreateEntry(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req services.CatalogEntryInput
	if err := bindJSON(c, &req); err != nil {
		respondWithError(c, err)
		return
	}

	entry, err := h.catalogService.CreateEntry(c.Request.Context(), userID, req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), auditEvent(c, userID, "CREATE_CATALOG_ENTRY", "catalog_entry", entry.ID,
		map[string]any{"name": entry.Name, "category": entry.Category}))

	c.JSON(http.StatusCreated, gin.H{"entry": entry})
}

// ListEntries lists catalog entries
// @Summary     List catalog entries
// @Description Sorted by name. Only active entries unless status is given; status=all lists every entry.
// @Tags        catalog
// @Produce     json
// @Security    BearerAuth
// @Param       page         query int    false "Page number (default 1)"
// @Param       limit        query int    false "Items per page (default 10, max 100)"
// @Param       category     query string false "Catalog category"
// @Param       expense_type query string false "Expense type"
// @Param       status       query string false "active, inactive, archived or all"
// @Param       search       query string false "Text in name, description or tags"
// @Param       tag          query string false "Exact tag, case-insensitive"
// @Param       min_amount   query string false "Minimum estimated amount"
// @Param       max_amount   query string false "Maximum estimated amount"
// @Param       created_by   query string false "Creator identity"
// @Success     200 {object} pagination.PageResponse[models.CatalogEntry] "Entries"
// @Failure     400 {object} ErrorResponse "Invalid filter"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /catalog [get]
func (h *CatalogHandler) ListEntries(c *gin.Context) {
	var page pagination.PageRequest
	if err := bindQuery(c, &page); err != nil {
		respondWithError(c, err)
		return
	}

	filter, err := parseCatalogFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.catalogService.ListEntries(c.Request.Context(), filter, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetSummary describes the active catalog
// @Summary     Catalog summary
// @Tags        catalog
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.CatalogSummary "Summary"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /catalog/summary [get]
func (h *CatalogHandler) GetSummary(c *gin.Context) {
	summary, err := h.catalogService.Summary(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetEntry returns a catalog entry in any status
// @Summary     Get a catalog entry
// @Tags        catalog
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Catalog entry ID"
// @Success     200 {object} CatalogEntryResponse "Entry"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Catalog entry not found"
// @Router      /catalog/{id} [get]
func (h *CatalogHandler) GetEntry(c *gin.Context) {
	entry, err := h.catalogService.GetEntryByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entry": entry})
}

// UpdateEntry applies a partial update to a catalog entry
// @Summary     Update a catalog entry
// @Tags        catalog
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                    true "Catalog entry ID"
// @Param       request body services.CatalogEntryPatch true "Fields to change"
// @Success     200 {object} CatalogEntryResponse "Entry updated"
// @Failure     400 {object} ErrorResponse "Validation failed"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Catalog entry not found"
// @Failure     409 {object} ErrorResponse "Duplicate name or invalid status transition"
// @Router      /catalog/{id} [patch]
func (h *CatalogHandler) UpdateEntry(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req services.CatalogEntryPatch
	if err := bindJSON(c, &req); err != nil {
		respondWithError(c, err)
		return
	}

	entryID := c.Param("id")
	entry, err := h.catalogService.UpdateEntry(c.Request.Context(), entryID, req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), auditEvent(c, userID, "UPDATE_CATALOG_ENTRY", "catalog_entry", entryID, nil))

	c.JSON(http.StatusOK, gin.H{"entry": entry})
}

// ChangeStatus moves a catalog entry through its lifecycle
// @Summary     Change catalog entry status
// @Description active and inactive toggle; archived is terminal
// @Tags        catalog
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string              true "Catalog entry ID"
// @Param       request body ChangeStatusRequest true "Target status"
// @Success     200 {object} CatalogEntryResponse "Entry updated"
// @Failure     400 {object} ErrorResponse "Unknown status"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Catalog entry not found"
// @Failure     409 {object} ErrorResponse "Invalid status transition"
// @Router      /catalog/{id}/status [patch]
func (h *CatalogHandler) ChangeStatus(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ChangeStatusRequest
	if err := bindJSON(c, &req); err != nil {
		respondWithError(c, err)
		return
	}

	entryID := c.Param("id")
	status := models.CatalogStatus(strings.ToLower(strings.TrimSpace(string(req.Status))))
	entry, err := h.catalogService.ChangeStatus(c.Request.Context(), entryID, status)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), auditEvent(c, userID, "CHANGE_CATALOG_ENTRY_STATUS", "catalog_entry", entryID,
		map[string]any{"status": entry.Status}))

	c.JSON(http.StatusOK, gin.H{"entry": entry})
}

// ArchiveEntry archives a catalog entry
// @Summary     Archive a catalog entry
// @Description Archived entries stay readable but are never suggested again. Archiving twice is a no-op.
// @Tags        catalog
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Catalog entry ID"
// @Success     200 {object} CatalogEntryResponse "Entry archived"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Catalog entry not found"
// @Router      /catalog/{id}/archive [post]
func (h *CatalogHandler) ArchiveEntry(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	entryID := c.Param("id")
	entry, err := h.catalogService.ArchiveEntry(c.Request.Context(), entryID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), auditEvent(c, userID, "ARCHIVE_CATALOG_ENTRY", "catalog_entry", entryID, nil))

	c.JSON(http.StatusOK, gin.H{"entry": entry})
}

func parseCatalogFilter(c *gin.Context) (services.CatalogFilter, error) {
	var filter services.CatalogFilter
	var err error

	if filter.Category, err = enumQuery(c, "category", models.CatalogCategory.IsValid); err != nil {
		return filter, err
	}
	if filter.ExpenseType, err = enumQuery(c, "expense_type", models.ExpenseType.IsValid); err != nil {
		return filter, err
	}
	if strings.EqualFold(strings.TrimSpace(c.Query("status")), "all") {
		filter.AllStatuses = true
	} else if filter.Status, err = enumQuery(c, "status", models.CatalogStatus.IsValid); err != nil {
		return filter, err
	}
	if filter.MinAmount, err = decimalQuery(c, "min_amount"); err != nil {
		return filter, err
	}
	if filter.MaxAmount, err = decimalQuery(c, "max_amount"); err != nil {
		return filter, err
	}
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.Tag = strings.TrimSpace(c.Query("tag"))
	filter.CreatedBy = strings.TrimSpace(c.Query("created_by"))

	return filter, nil
}
