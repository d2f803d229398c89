package handlers

import (
	"errors"
	"strings"

	"award-portal/internal/adapters/persistence/models"
	"award-portal/internal/core/domain"
	"award-portal/internal/core/services"
	"award-portal/internal/pkg/pagination"
	"award-portal/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// NomineeHandler handles nomination endpoints
type NomineeHandler struct {
	nomineeService *services.NomineeService
}

// NewNomineeHandler creates a new nominee handler
func NewNomineeHandler(nomineeService *services.NomineeService) *NomineeHandler {
	return &NomineeHandler{nomineeService: nomineeService}
}

// NominateRequest represents nomination request body
type NominateRequest struct {
	CategoryID   uint   `json:"category_id"`
	StudentID    *uint  `json:"student_id"`
	DisplayName  string `json:"display_name"`
	ImageURL     string `json:"image_url"`
	Reason       string `json:"reason"`
	Achievements string `json:"achievements"`
}

// ReviewRequest represents nomination review request body
type ReviewRequest struct {
	Approve bool   `json:"approve"`
	Note    string `json:"note"`
}

// Nominate submits a nomination into a category
// @Summary Submit nomination
// @Description Submit a nomination into an award category
// @Tags Nominees
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body NominateRequest true "Nomination data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /nominees [post]
func (h *NomineeHandler) Nominate(c *fiber.Ctx) error {
	var req NominateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.CategoryID == 0 {
		return response.BadRequest(c, "Category ID is required")
	}
	if strings.TrimSpace(req.DisplayName) == "" {
		return response.BadRequest(c, "Display name is required")
	}

	input := &services.NominateInput{
		CategoryID:   req.CategoryID,
		StudentID:    req.StudentID,
		DisplayName:  strings.TrimSpace(req.DisplayName),
		ImageURL:     strings.TrimSpace(req.ImageURL),
		Reason:       req.Reason,
		Achievements: req.Achievements,
	}

	nominee, err := h.nomineeService.Nominate(c.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrCategoryNotFound):
			return response.NotFound(c, "Category not found")
		case errors.Is(err, domain.ErrNotFound):
			return response.NotFound(c, "Student not found")
		case errors.Is(err, domain.ErrUserInactive):
			return response.BadRequest(c, "Student account is inactive")
		case errors.Is(err, services.ErrCategoryFull):
			return response.Conflict(c, "Category has reached its nominee limit")
		case errors.Is(err, services.ErrCannotBeNominated):
			return response.BadRequest(c, "User role cannot be nominated")
		case errors.Is(err, services.ErrAlreadyNominated):
			return response.Conflict(c, "Student already nominated in this category")
		default:
			return response.InternalServerError(c, "Failed to submit nomination")
		}
	}

	return response.Created(c, "Nomination submitted successfully", nominee)
}

// GetNominee returns a nominee with its vote count
// @Summary Get nominee
// @Description Get a nominee by ID with its committed vote count
// @Tags Nominees
// @Produce json
// @Param id path int true "Nominee ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /nominees/{id} [get]
func (h *NomineeHandler) GetNominee(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid nominee ID")
	}

	nominee, count, err := h.nomineeService.GetNominee(c.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNomineeNotFound) {
			return response.NotFound(c, "Nominee not found")
		}
		return response.InternalServerError(c, "Failed to get nominee")
	}

	return response.Success(c, "Nominee retrieved successfully", fiber.Map{
		"nominee":    nominee,
		"vote_count": count,
	})
}

// ListByCategory lists approved nominees for a category
// @Summary List nominees
// @Description List approved nominees for a category
// @Tags Nominees
// @Produce json
// @Param categoryId path int true "Category ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /nominees/category/{categoryId} [get]
func (h *NomineeHandler) ListByCategory(c *fiber.Ctx) error {
	categoryID, err := parseIDParam(c, "categoryId")
	if err != nil {
		return response.BadRequest(c, "Invalid category ID")
	}

	nominees, err := h.nomineeService.ListByCategory(c.Context(), categoryID)
	if err != nil {
		if errors.Is(err, domain.ErrCategoryNotFound) {
			return response.NotFound(c, "Category not found")
		}
		return response.InternalServerError(c, "Failed to list nominees")
	}

	return response.Success(c, "Nominees retrieved successfully", nominees)
}

// ListByStatus lists nominations by review status (admin queue)
// @Summary List nominations by status
// @Description List nominations in the review queue by status
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param status query string false "PENDING, APPROVED or REJECTED" default(PENDING)
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /admin/nominees [get]
func (h *NomineeHandler) ListByStatus(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	status := strings.ToUpper(strings.TrimSpace(c.Query("status", models.NomineeStatusPending)))

	nominees, total, err := h.nomineeService.ListByStatus(c.Context(), status, params.Offset, params.Limit)
	if err != nil {
		if errors.Is(err, services.ErrInvalidStatus) {
			return response.BadRequest(c, "Invalid status filter")
		}
		return response.InternalServerError(c, "Failed to list nominations")
	}

	return response.Success(c, "Nominations retrieved successfully", pagination.NewResponse(nominees, params, total))
}

// Review approves or rejects a pending nomination (admin)
// @Summary Review nomination
// @Description Approve or reject a pending nomination
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Nominee ID"
// @Param body body ReviewRequest true "Review decision"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /admin/nominees/{id}/review [post]
func (h *NomineeHandler) Review(c *fiber.Ctx) error {
	reviewerID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid nominee ID")
	}

	var req ReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	input := &services.ReviewInput{
		Approve: req.Approve,
		Note:    req.Note,
	}

	nominee, err := h.nomineeService.Review(c.Context(), reviewerID, id, input)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNomineeNotFound):
			return response.NotFound(c, "Nominee not found")
		case errors.Is(err, services.ErrAlreadyReviewed):
			return response.Conflict(c, "Nomination has already been reviewed")
		default:
			return response.InternalServerError(c, "Failed to review nomination")
		}
	}

	return response.Success(c, "Nomination reviewed successfully", nominee)
}

// DeleteNominee removes a nomination without votes (admin)
// @Summary Delete nominee
// @Description Remove a nomination that has no recorded votes
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Nominee ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /admin/nominees/{id} [delete]
func (h *NomineeHandler) DeleteNominee(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid nominee ID")
	}

	if err := h.nomineeService.DeleteNominee(c.Context(), id); err != nil {
		switch {
		case errors.Is(err, domain.ErrNomineeNotFound):
			return response.NotFound(c, "Nominee not found")
		case errors.Is(err, services.ErrNomineeHasVotes):
			return response.Conflict(c, "Nominee has recorded votes and cannot be deleted")
		default:
			return response.InternalServerError(c, "Failed to delete nominee")
		}
	}

	return response.Success(c, "Nominee deleted successfully", nil)
}
