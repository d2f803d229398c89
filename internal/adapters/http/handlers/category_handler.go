package handlers

import (
	"errors"
	"strings"
	"time"

	"award-portal/internal/core/domain"
	"award-portal/internal/core/services"
	"award-portal/internal/pkg/pagination"
	"award-portal/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// CategoryHandler handles award category endpoints
type CategoryHandler struct {
	categoryService *services.CategoryService
	tallyService    *services.TallyService
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(categoryService *services.CategoryService, tallyService *services.TallyService) *CategoryHandler {
	return &CategoryHandler{
		categoryService: categoryService,
		tallyService:    tallyService,
	}
}

// CreateCategoryRequest represents category creation request body
type CreateCategoryRequest struct {
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	VotePrice       float64    `json:"vote_price"`
	MaxNominees     int        `json:"max_nominees"`
	VotingStartDate *time.Time `json:"voting_start_date"`
	VotingEndDate   *time.Time `json:"voting_end_date"`
}

// UpdateCategoryRequest represents category update request body
type UpdateCategoryRequest struct {
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	VotePrice       *float64   `json:"vote_price"`
	MaxNominees     *int       `json:"max_nominees"`
	VotingStartDate *time.Time `json:"voting_start_date"`
	VotingEndDate   *time.Time `json:"voting_end_date"`
}

// ListCategories lists award categories
// @Summary List categories
// @Description List visible award categories
// @Tags Categories
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /categories [get]
func (h *CategoryHandler) ListCategories(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	includeArchived := c.Locals("role") == domain.RoleAdmin && c.QueryBool("all")

	categories, total, err := h.categoryService.ListCategories(c.Context(), includeArchived, params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list categories")
	}

	return response.Success(c, "Categories retrieved successfully", pagination.NewResponse(categories, params, total))
}

// GetCategory returns a category with its approved nominees
// @Summary Get category
// @Description Get a category by ID with its approved nominees
// @Tags Categories
// @Produce json
// @Param id path int true "Category ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /categories/{id} [get]
func (h *CategoryHandler) GetCategory(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid category ID")
	}

	category, nominees, err := h.categoryService.GetCategory(c.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrCategoryNotFound) {
			return response.NotFound(c, "Category not found")
		}
		return response.InternalServerError(c, "Failed to get category")
	}

	return response.Success(c, "Category retrieved successfully", fiber.Map{
		"category": category,
		"nominees": nominees,
	})
}

// GetCounts returns the live tally for a category
// @Summary Get category tally
// @Description Get per-nominee vote counts and percentages for a category
// @Tags Categories
// @Produce json
// @Param id path int true "Category ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /categories/{id}/counts [get]
func (h *CategoryHandler) GetCounts(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid category ID")
	}

	// Existence check so unknown categories 404 instead of an empty tally
	if _, _, err := h.categoryService.GetCategory(c.Context(), id); err != nil {
		if errors.Is(err, domain.ErrCategoryNotFound) {
			return response.NotFound(c, "Category not found")
		}
		return response.InternalServerError(c, "Failed to get tally")
	}

	counts, err := h.tallyService.GetCounts(c.Context(), id)
	if err != nil {
		return response.InternalServerError(c, "Failed to get tally")
	}

	return response.Success(c, "Tally retrieved successfully", counts)
}

// CreateCategory creates a category (admin)
// @Summary Create category
// @Description Create a new award category
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateCategoryRequest true "Category data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /admin/categories [post]
func (h *CategoryHandler) CreateCategory(c *fiber.Ctx) error {
	var req CreateCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if strings.TrimSpace(req.Name) == "" {
		return response.BadRequest(c, "Category name is required")
	}
	if req.VotePrice <= 0 {
		return response.BadRequest(c, "Vote price must be greater than zero")
	}

	input := &services.CreateCategoryInput{
		Name:            strings.TrimSpace(req.Name),
		Description:     req.Description,
		VotePrice:       req.VotePrice,
		MaxNominees:     req.MaxNominees,
		VotingStartDate: req.VotingStartDate,
		VotingEndDate:   req.VotingEndDate,
	}

	category, err := h.categoryService.CreateCategory(c.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidVotePrice):
			return response.BadRequest(c, "Vote price must be greater than zero")
		case errors.Is(err, services.ErrInvalidVoteWindow):
			return response.BadRequest(c, "Voting start date must be before end date")
		case errors.Is(err, services.ErrCategoryNameTaken):
			return response.Conflict(c, "Category name already exists")
		default:
			return response.InternalServerError(c, "Failed to create category")
		}
	}

	return response.Created(c, "Category created successfully", category)
}

// UpdateCategory updates a category (admin)
// @Summary Update category
// @Description Update award category fields
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Param body body UpdateCategoryRequest true "Category data"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/categories/{id} [put]
func (h *CategoryHandler) UpdateCategory(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid category ID")
	}

	var req UpdateCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	input := &services.UpdateCategoryInput{
		Name:            strings.TrimSpace(req.Name),
		Description:     req.Description,
		VotePrice:       req.VotePrice,
		MaxNominees:     req.MaxNominees,
		VotingStartDate: req.VotingStartDate,
		VotingEndDate:   req.VotingEndDate,
	}

	category, err := h.categoryService.UpdateCategory(c.Context(), id, input)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrCategoryNotFound):
			return response.NotFound(c, "Category not found")
		case errors.Is(err, services.ErrInvalidVotePrice):
			return response.BadRequest(c, "Vote price must be greater than zero")
		case errors.Is(err, services.ErrInvalidVoteWindow):
			return response.BadRequest(c, "Voting start date must be before end date")
		case errors.Is(err, services.ErrCategoryNameTaken):
			return response.Conflict(c, "Category name already exists")
		default:
			return response.InternalServerError(c, "Failed to update category")
		}
	}

	return response.Success(c, "Category updated successfully", category)
}

// OpenVoting opens a category for voting (admin)
// @Summary Open voting
// @Description Open a category for voting
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/categories/{id}/open [post]
func (h *CategoryHandler) OpenVoting(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid category ID")
	}

	category, err := h.categoryService.OpenVoting(c.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrCategoryNotFound) {
			return response.NotFound(c, "Category not found")
		}
		return response.InternalServerError(c, "Failed to open voting")
	}

	return response.Success(c, "Voting opened successfully", category)
}

// CloseVoting closes a category for voting (admin)
// @Summary Close voting
// @Description Close a category for voting
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/categories/{id}/close [post]
func (h *CategoryHandler) CloseVoting(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid category ID")
	}

	category, err := h.categoryService.CloseVoting(c.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrCategoryNotFound) {
			return response.NotFound(c, "Category not found")
		}
		return response.InternalServerError(c, "Failed to close voting")
	}

	return response.Success(c, "Voting closed successfully", category)
}

// DeleteCategory archives a category (admin)
// @Summary Delete category
// @Description Archive an award category without recorded votes
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /admin/categories/{id} [delete]
func (h *CategoryHandler) DeleteCategory(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid category ID")
	}

	if err := h.categoryService.DeleteCategory(c.Context(), id); err != nil {
		switch {
		case errors.Is(err, domain.ErrCategoryNotFound):
			return response.NotFound(c, "Category not found")
		case errors.Is(err, services.ErrCategoryHasVotes):
			return response.Conflict(c, "Category has recorded votes and cannot be deleted")
		default:
			return response.InternalServerError(c, "Failed to delete category")
		}
	}

	return response.Success(c, "Category deleted successfully", nil)
}
