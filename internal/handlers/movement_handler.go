package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"cashbook/internal/classification"
	"cashbook/internal/models"
	"cashbook/internal/pagination"
	"cashbook/internal/services"
)

const (
	idempotencyHeader = "Idempotency-Key"
	maxIdempotencyKey = 100
	xlsxContentType   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// MovementHandler handles movement-related requests.
type MovementHandler struct {
	movementService services.MovementServicer
	reportService   services.ReportServicer
	auditService    services.AuditServicer
	location        *time.Location
}

// NewMovementHandler creates a new MovementHandler. Date-only inputs are
// interpreted in loc.
func NewMovementHandler(movementService services.MovementServicer, reportService services.ReportServicer, auditService services.AuditServicer, loc *time.Location) *MovementHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &MovementHandler{
		movementService: movementService,
		reportService:   reportService,
		auditService:    auditService,
		location:        loc,
	}
}

// MovementRequest represents the request payload for creating or validating a movement
type MovementRequest struct {
	Date           string                   `json:"date" example:"2024-10-01"`
	Amount         json.RawMessage          `json:"amount" swaggertype:"string" example:"150.50"`
	Direction      models.Direction         `json:"direction" example:"expense"`
	Description    string                   `json:"description" example:"Fuel for the delivery van"`
	PaymentMethod  models.PaymentMethod     `json:"payment_method" example:"cash"`
	Category       *models.MovementCategory `json:"category,omitempty" example:"operations"`
	CostType       *models.CostType         `json:"cost_type,omitempty" example:"other_expense"`
	IncomeCategory *models.IncomeCategory   `json:"income_category,omitempty"`
	Voucher        string                   `json:"voucher,omitempty"`
	Notes          string                   `json:"notes,omitempty"`
	CatalogEntryID *string                  `json:"catalog_entry_id,omitempty"`
}

// UpdateMovementRequest represents a partial movement update. Omitted fields are kept.
type UpdateMovementRequest struct {
	Date           *string                  `json:"date"`
	Amount         json.RawMessage          `json:"amount" swaggertype:"string"`
	Direction      *models.Direction        `json:"direction"`
	Description    *string                  `json:"description"`
	PaymentMethod  *models.PaymentMethod    `json:"payment_method"`
	Category       *models.MovementCategory `json:"category"`
	CostType       *models.CostType         `json:"cost_type"`
	IncomeCategory *models.IncomeCategory   `json:"income_category"`
	Voucher        *string                  `json:"voucher"`
	Notes          *string                  `json:"notes"`
}

// CatalogMovementRequest represents the request payload for recording an
// expense from a catalog entry
type CatalogMovementRequest struct {
	Date          string                   `json:"date" example:"2024-10-01"`
	Amount        json.RawMessage          `json:"amount,omitempty" swaggertype:"string"`
	PaymentMethod models.PaymentMethod     `json:"payment_method" example:"transfer"`
	Category      *models.MovementCategory `json:"category" example:"operations"`
	Description   string                   `json:"description,omitempty"`
	Voucher       string                   `json:"voucher,omitempty"`
	Notes         string                   `json:"notes,omitempty"`
}

// MovementResponse wraps a single movement
type MovementResponse struct {
	Movement models.Movement `json:"movement"`
}

// toInput maps req onto a classification input. Undecodable fields travel in
// Rejected so the validator reports them with every other violation.
func (h *MovementHandler) toInput(req MovementRequest) classification.Input {
	var rejected fieldErrors
	in := classification.Input{
		Date:           rejected.date("date", req.Date, h.location),
		Direction:      models.Direction(strings.ToLower(string(req.Direction))),
		Description:    req.Description,
		PaymentMethod:  req.PaymentMethod,
		Category:       req.Category,
		CostType:       req.CostType,
		IncomeCategory: req.IncomeCategory,
		Voucher:        req.Voucher,
		Notes:          req.Notes,
		CatalogEntryID: req.CatalogEntryID,
	}
	if amount := rejected.decimal("amount", req.Amount); amount != nil {
		in.Amount = *amount
	}
	in.Rejected = rejected
	return in
}

// CreateMovement records a new movement
// @Summary     Create a movement
// @Description Validate, normalize and store an income or expense. A repeated Idempotency-Key returns the stored movement.
// @Tags        movements
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       Idempotency-Key header string          false "Caller-supplied key, unique per owner"
// @Param       request         body   MovementRequest true  "Movement details"
// @Success     201 {object} MovementResponse "Movement created"
// @Failure     400 {object} ErrorResponse "Validation failed"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     422 {object} ErrorResponse "Catalog entry does not exist"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /movements [post]
func (h *MovementHandler) CreateMovement(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req MovementRequest
	if err := bindJSON(c, &req); err != nil {
		respondWithError(c, err)
		return
	}

	key := strings.TrimSpace(c.GetHeader(idempotencyHeader))
	if len(key) > maxIdempotencyKey {
		respondWithError(c, invalidField(idempotencyHeader, "Idempotency-Key must be at most 100 characters"))
		return
	}

	movement, err := h.movementService.CreateMovement(c.Request.Context(), userID, h.toInput(req), key)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), auditEvent(c, userID, "CREATE_MOVEMENT", "movement", movement.ID,
		map[string]any{"direction": movement.Direction, "amount": movement.Amount.String()}))

	c.JSON(http.StatusCreated, gin.H{"movement": movement})
}

// ValidateMovement normalizes a movement without storing it
// @Summary     Validate a movement
// @Description Run every movement rule and return the normalized movement, or all violations
// @Tags        movements
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body MovementRequest true "Movement details"
// @Success     200 {object} MovementResponse "Normalized movement"
// @Failure     400 {object} ErrorResponse "Validation failed"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /movements/validate [post]
func (h *MovementHandler) ValidateMovement(c *gin.Context) {
	if _, err := getUserID(c); err != nil {
		respondWithError(c, err)
		return
	}

	var req MovementRequest
	if err := bindJSON(c, &req); err != nil {
		respondWithError(c, err)
		return
	}

	movement, err := h.movementService.ValidateMovement(h.toInput(req))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"movement": movement})
}

// CreateMovementFromCatalogEntry records an expense from a catalog entry
// @Summary     Create a movement from a catalog entry
// @Description Record an expense whose cost type is inferred from the entry. Description and amount default to the entry's.
// @Tags        movements,catalog
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       entryId path string                 true "Catalog entry ID"
// @Param       request body CatalogMovementRequest true "Movement details"
// @Success     201 {object} MovementResponse "Movement created"
// @Failure     400 {object} ErrorResponse "Validation failed"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     422 {object} ErrorResponse "Catalog entry missing or archived"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /movements/from-catalog/{entryId} [post]
func (h *MovementHandler) CreateMovementFromCatalogEntry(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CatalogMovementRequest
	if err := bindJSON(c, &req); err != nil {
		respondWithError(c, err)
		return
	}

	var rejected fieldErrors
	input := services.AssistedMovementInput{
		Date:          rejected.date("date", req.Date, h.location),
		Amount:        rejected.decimal("amount", req.Amount),
		PaymentMethod: req.PaymentMethod,
		Category:      req.Category,
		Description:   req.Description,
		Voucher:       req.Voucher,
		Notes:         req.Notes,
	}
	input.Rejected = rejected

	entryID := c.Param("entryId")
	movement, err := h.movementService.CreateMovementFromCatalogEntry(c.Request.Context(), userID, entryID, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), auditEvent(c, userID, "CREATE_MOVEMENT", "movement", movement.ID,
		map[string]any{"catalog_entry_id": entryID, "amount": movement.Amount.String()}))

	c.JSON(http.StatusCreated, gin.H{"movement": movement})
}

// GetMovement returns one movement of the caller
// @Summary     Get a movement
// @Tags        movements
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Movement ID"
// @Success     200 {object} MovementResponse "Movement"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Movement not found"
// @Router      /movements/{id} [get]
func (h *MovementHandler) GetMovement(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	movement, err := h.movementService.GetMovementByID(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"movement": movement})
}

// ListMovements lists the caller's movements
// @Summary     List movements
// @Description Paginated movements, newest first, with totals and breakdowns over the whole filtered set
// @Tags        movements
// @Produce     json
// @Security    BearerAuth
// @Param       page            query int    false "Page number (default 1)"
// @Param       limit           query int    false "Items per page (default 10, max 100)"
// @Param       date_from       query string false "Start date (YYYY-MM-DD or RFC 3339)"
// @Param       date_to         query string false "End date, inclusive (YYYY-MM-DD or RFC 3339)"
// @Param       direction       query string false "income or expense"
// @Param       category        query string false "Movement category"
// @Param       cost_type       query string false "Cost type"
// @Param       income_category query string false "Income category"
// @Param       payment_method  query string false "Payment method"
// @Param       search          query string false "Case-insensitive text in the description"
// @Success     200 {object} services.MovementList "Movements"
// @Failure     400 {object} ErrorResponse "Invalid filter"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /movements [get]
func (h *MovementHandler) ListMovements(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := bindQuery(c, &page); err != nil {
		respondWithError(c, err)
		return
	}

	filter, err := h.parseMovementFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.movementService.ListMovements(c.Request.Context(), userID, filter, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetSummary returns totals over the caller's filtered movements
// @Summary     Movement summary
// @Tags        movements,reports
// @Produce     json
// @Security    BearerAuth
// @Param       date_from query string false "Start date"
// @Param       date_to   query string false "End date, inclusive"
// @Param       direction query string false "income or expense"
// @Param       category  query string false "Movement category"
// @Param       cost_type query string false "Cost type"
// @Success     200 {object} services.MovementSummary "Summary"
// @Failure     400 {object} ErrorResponse "Invalid filter"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /movements/summary [get]
func (h *MovementHandler) GetSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	filter, err := h.parseMovementFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.reportService.Summarize(c.Request.Context(), userID, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetBreakdowns groups the caller's filtered movements by category and cost type
// @Summary     Movement breakdowns
// @Tags        movements,reports
// @Produce     json
// @Security    BearerAuth
// @Param       date_from query string false "Start date"
// @Param       date_to   query string false "End date, inclusive"
// @Success     200 {object} services.Breakdowns "Breakdowns"
// @Failure     400 {object} ErrorResponse "Invalid filter"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /movements/breakdown [get]
func (h *MovementHandler) GetBreakdowns(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	filter, err := h.parseMovementFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	byCategory, err := h.reportService.CategoryBreakdown(c.Request.Context(), userID, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}
	byCostType, err := h.reportService.CostTypeBreakdown(c.Request.Context(), userID, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, services.Breakdowns{ByCategory: byCategory, ByCostType: byCostType})
}

// ExportMovements streams an XLSX report of the caller's filtered movements
// @Summary     Export movements
// @Description XLSX workbook with the movements, a summary and both breakdowns
// @Tags        movements,reports
// @Produce     application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security    BearerAuth
// @Param       date_from query string false "Start date"
// @Param       date_to   query string false "End date, inclusive"
// @Success     200 {file} file "Workbook"
// @Failure     400 {object} ErrorResponse "Invalid filter"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /movements/export [get]
func (h *MovementHandler) ExportMovements(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	filter, err := h.parseMovementFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := h.reportService.ExportWorkbook(c.Request.Context(), userID, filter, &buf); err != nil {
		respondWithError(c, err)
		return
	}

	filename := fmt.Sprintf("movements-%s.xlsx", time.Now().In(h.location).Format("20060102"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// UpdateMovement applies a partial update to one of the caller's movements
// @Summary     Update a movement
// @Description Merge the given fields and re-validate the movement. The date window is only checked when the date changes. Changing direction clears the other side's fields.
// @Tags        movements
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                true "Movement ID"
// @Param       request body UpdateMovementRequest true "Fields to change"
// @Success     200 {object} MovementResponse "Movement updated"
// @Failure     400 {object} ErrorResponse "Validation failed"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Movement not found"
// @Router      /movements/{id} [patch]
func (h *MovementHandler) UpdateMovement(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateMovementRequest
	if err := bindJSON(c, &req); err != nil {
		respondWithError(c, err)
		return
	}

	var rejected fieldErrors
	patch := classification.Patch{
		Amount:         rejected.decimal("amount", req.Amount),
		Direction:      req.Direction,
		Description:    req.Description,
		PaymentMethod:  req.PaymentMethod,
		Category:       req.Category,
		CostType:       req.CostType,
		IncomeCategory: req.IncomeCategory,
		Voucher:        req.Voucher,
		Notes:          req.Notes,
	}
	if req.Date != nil {
		if strings.TrimSpace(*req.Date) == "" {
			rejected.add("date", "date is required")
		} else if date := rejected.date("date", *req.Date, h.location); !date.IsZero() {
			patch.Date = &date
		}
	}
	patch.Rejected = rejected

	movementID := c.Param("id")
	movement, err := h.movementService.UpdateMovement(c.Request.Context(), userID, movementID, patch)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), auditEvent(c, userID, "UPDATE_MOVEMENT", "movement", movementID, nil))

	c.JSON(http.StatusOK, gin.H{"movement": movement})
}

// DeleteMovement removes one of the caller's movements
// @Summary     Delete a movement
// @Tags        movements
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Movement ID"
// @Success     200 {object} MessageResponse "Movement deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Movement not found"
// @Router      /movements/{id} [delete]
func (h *MovementHandler) DeleteMovement(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	movementID := c.Param("id")
	if err := h.movementService.DeleteMovement(c.Request.Context(), userID, movementID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), auditEvent(c, userID, "DELETE_MOVEMENT", "movement", movementID, nil))

	c.JSON(http.StatusOK, gin.H{"message": "Movement deleted successfully"})
}

func (h *MovementHandler) parseMovementFilter(c *gin.Context) (services.MovementFilter, error) {
	var filter services.MovementFilter
	var err error

	if v := c.Query("date_from"); v != "" {
		t, parseErr := parseDate(v, h.location, false)
		if parseErr != nil {
			return filter, invalidField("date_from", "date_from must be YYYY-MM-DD or RFC 3339")
		}
		filter.DateFrom = &t
	}
	if v := c.Query("date_to"); v != "" {
		t, parseErr := parseDate(v, h.location, true)
		if parseErr != nil {
			return filter, invalidField("date_to", "date_to must be YYYY-MM-DD or RFC 3339")
		}
		filter.DateTo = &t
	}
	if filter.DateFrom != nil && filter.DateTo != nil && filter.DateFrom.After(*filter.DateTo) {
		return filter, invalidField("date_from", "date_from must not be after date_to")
	}

	if filter.Direction, err = enumQuery(c, "direction", models.Direction.IsValid); err != nil {
		return filter, err
	}
	if filter.Category, err = enumQuery(c, "category", models.MovementCategory.IsValid); err != nil {
		return filter, err
	}
	if filter.CostType, err = enumQuery(c, "cost_type", models.CostType.IsValid); err != nil {
		return filter, err
	}
	if filter.IncomeCategory, err = enumQuery(c, "income_category", models.IncomeCategory.IsValid); err != nil {
		return filter, err
	}
	if filter.PaymentMethod, err = enumQuery(c, "payment_method", models.PaymentMethod.IsValid); err != nil {
		return filter, err
	}
	filter.Search = strings.TrimSpace(c.Query("search"))

	return filter, nil
}
