package handlers

import (
	"errors"

	"award-portal/internal/core/domain"
	"award-portal/internal/core/services"
	"award-portal/internal/pkg/pagination"
	"award-portal/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ReconciliationHandler handles the admin reconciliation queue
type ReconciliationHandler struct {
	reconService *services.ReconciliationService
}

// NewReconciliationHandler creates a new reconciliation handler
func NewReconciliationHandler(reconService *services.ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{reconService: reconService}
}

// ResolveRequest represents reconciliation resolution request body
type ResolveRequest struct {
	Note string `json:"note"`
}

// ListEntries lists reconciliation entries (admin)
// @Summary List reconciliation entries
// @Description List payments that succeeded without a committed vote
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param unresolved query bool false "Only unresolved entries" default(true)
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /admin/reconciliation [get]
func (h *ReconciliationHandler) ListEntries(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	onlyUnresolved := c.QueryBool("unresolved", true)

	entries, total, err := h.reconService.ListEntries(c.Context(), onlyUnresolved, params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list reconciliation entries")
	}

	return response.Success(c, "Reconciliation entries retrieved successfully",
		pagination.NewResponse(entries, params, total))
}

// ResolveEntry marks a reconciliation entry handled (admin)
// @Summary Resolve reconciliation entry
// @Description Mark a reconciliation entry as manually handled
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Entry ID"
// @Param body body ResolveRequest true "Resolution note"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/reconciliation/{id}/resolve [post]
func (h *ReconciliationHandler) ResolveEntry(c *fiber.Ctx) error {
	adminID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid entry ID")
	}

	var req ResolveRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.reconService.ResolveEntry(c.Context(), id, adminID, req.Note); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return response.NotFound(c, "Reconciliation entry not found")
		}
		return response.InternalServerError(c, "Failed to resolve entry")
	}

	return response.Success(c, "Reconciliation entry resolved", nil)
}
