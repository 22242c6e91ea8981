package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cashbook/internal/services"
)

// MaintenanceHandler exposes operator-only reports.
type MaintenanceHandler struct {
	dedupeService services.DedupeServicer
}

// NewMaintenanceHandler creates a new MaintenanceHandler.
func NewMaintenanceHandler(dedupeService services.DedupeServicer) *MaintenanceHandler {
	return &MaintenanceHandler{dedupeService: dedupeService}
}

// DuplicatesResponse lists groups of identical movements
type DuplicatesResponse struct {
	Groups    []services.DuplicateGroup `json:"groups"`
	Redundant int                       `json:"redundant"`
}

// ListDuplicates reports movements recorded more than once
// @Summary     Duplicate movement report
// @Description Groups of movements identical in owner, date, amount and description, oldest first. Read-only; use cashctl dedupe --apply to remove them.
// @Tags        maintenance
// @Produce     json
// @Security    ApiKeyAuth
// @Success     200 {object} DuplicatesResponse "Duplicate groups"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     503 {object} ErrorResponse "Not configured"
// @Router      /maintenance/duplicates [get]
func (h *MaintenanceHandler) ListDuplicates(c *gin.Context) {
	groups, err := h.dedupeService.FindDuplicateMovements(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}

	redundant := 0
	for _, g := range groups {
		redundant += len(g.MovementIDs) - 1
	}
	if groups == nil {
		groups = []services.DuplicateGroup{}
	}

	c.JSON(http.StatusOK, DuplicatesResponse{Groups: groups, Redundant: redundant})
}
