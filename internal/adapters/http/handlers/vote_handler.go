package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"strings"

	"award-portal/internal/core/domain"
	"award-portal/internal/core/services"
	"award-portal/internal/pkg/paystack"
	"award-portal/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// VoteHandler handles the paid-voting endpoints
type VoteHandler struct {
	voteService *services.VoteService
	gateway     *paystack.Client
}

// NewVoteHandler creates a new vote handler
func NewVoteHandler(voteService *services.VoteService, gateway *paystack.Client) *VoteHandler {
	return &VoteHandler{
		voteService: voteService,
		gateway:     gateway,
	}
}

// CastVoteRequest represents vote initiation request body
type CastVoteRequest struct {
	CategoryID uint `json:"category_id"`
	NomineeID  uint `json:"nominee_id"`
}

// webhookEvent is the envelope Paystack posts to the webhook endpoint
type webhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
	} `json:"data"`
}

// CastVote initiates a paid vote
// @Summary Cast a vote
// @Description Check eligibility and initialize payment for a vote
// @Tags Votes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CastVoteRequest true "Vote intent"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 402 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /votes [post]
func (h *VoteHandler) CastVote(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req CastVoteRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.CategoryID == 0 {
		return response.BadRequest(c, "Category ID is required")
	}
	if req.NomineeID == 0 {
		return response.BadRequest(c, "Nominee ID is required")
	}

	input := &services.InitiateVoteInput{
		CategoryID: req.CategoryID,
		NomineeID:  req.NomineeID,
	}

	result, err := h.voteService.InitiateVote(c.Context(), userID, input)
	if err != nil {
		return h.voteError(c, err)
	}

	return response.Created(c, "Vote payment initialized", result)
}

// VerifyVote confirms a vote by payment reference (client poll)
// @Summary Verify a vote payment
// @Description Verify the payment for a reference and commit the vote
// @Tags Votes
// @Produce json
// @Security BearerAuth
// @Param reference path string true "Payment reference"
// @Success 200 {object} response.Response
// @Failure 402 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /votes/verify/{reference} [get]
func (h *VoteHandler) VerifyVote(c *fiber.Ctx) error {
	reference := strings.TrimSpace(c.Params("reference"))
	if reference == "" {
		return response.BadRequest(c, "Payment reference is required")
	}

	record, err := h.voteService.ConfirmVote(c.Context(), reference)
	if err != nil {
		return h.voteError(c, err)
	}

	return response.Success(c, "Vote committed successfully", record)
}

// Webhook receives Paystack charge events. The signature is validated against
// the raw body before anything is parsed; confirmation itself re-verifies the
// transaction server-side, so a spoofed event can never mint a vote.
// @Summary Paystack webhook
// @Description Receive charge events from the payment gateway
// @Tags Votes
// @Accept json
// @Produce json
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /votes/webhook [post]
func (h *VoteHandler) Webhook(c *fiber.Ctx) error {
	signature := c.Get("x-paystack-signature")
	body := c.Body()

	if signature == "" || !h.gateway.ValidateSignature(body, signature) {
		log.Printf("⚠️ Webhook rejected: bad signature from %s", c.IP())
		return response.Unauthorized(c, "Invalid signature")
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return response.BadRequest(c, "Invalid event payload")
	}

	if event.Event != "charge.success" {
		// Acknowledge everything else so the gateway stops redelivering.
		return response.Success(c, "Event ignored", nil)
	}
	if event.Data.Reference == "" {
		return response.BadRequest(c, "Event missing reference")
	}

	if _, err := h.voteService.ConfirmVote(c.Context(), event.Data.Reference); err != nil {
		switch {
		case errors.Is(err, domain.ErrGatewayUnavailable),
			errors.Is(err, domain.ErrPaymentNotConfirmed):
			// Transient: a non-2xx makes Paystack redeliver the event.
			return response.Error(c, fiber.StatusServiceUnavailable, "Verification unavailable, retry")
		default:
			// Settled one way or the other; acknowledge to stop redelivery.
			log.Printf("⚠️ Webhook confirm for %s settled with: %v", event.Data.Reference, err)
			return response.Success(c, "Event processed", nil)
		}
	}

	return response.Success(c, "Vote committed", nil)
}

// GetMyVote returns the caller's vote in a category
// @Summary Get own vote in category
// @Description Get the caller's committed vote for a category, if any
// @Tags Votes
// @Produce json
// @Security BearerAuth
// @Param categoryId path int true "Category ID"
// @Success 200 {object} response.Response
// @Router /votes/category/{categoryId}/mine [get]
func (h *VoteHandler) GetMyVote(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	categoryID, err := parseIDParam(c, "categoryId")
	if err != nil {
		return response.BadRequest(c, "Invalid category ID")
	}

	record, err := h.voteService.GetMyVote(c.Context(), userID, categoryID)
	if err != nil {
		return response.InternalServerError(c, "Failed to get vote")
	}

	return response.Success(c, "Vote retrieved successfully", fiber.Map{
		"voted": record != nil,
		"vote":  record,
	})
}

// GetMyVotes returns all of the caller's votes
// @Summary List own votes
// @Description List all of the caller's committed votes
// @Tags Votes
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /votes/my-votes [get]
func (h *VoteHandler) GetMyVotes(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	records, err := h.voteService.GetMyVotes(c.Context(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to list votes")
	}

	return response.Success(c, "Votes retrieved successfully", records)
}

// voteError maps voting flow errors onto HTTP responses
func (h *VoteHandler) voteError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrCategoryNotFound):
		return response.NotFound(c, "Category not found")
	case errors.Is(err, domain.ErrNomineeNotFound):
		return response.NotFound(c, "Nominee not found")
	case errors.Is(err, domain.ErrReferenceNotFound):
		return response.NotFound(c, "Payment reference not found")
	case errors.Is(err, domain.ErrNomineeNotApproved):
		return response.BadRequest(c, "Nominee is not approved for voting")
	case errors.Is(err, domain.ErrNomineeWrongCategory):
		return response.BadRequest(c, "Nominee does not belong to this category")
	case errors.Is(err, domain.ErrVotingNotStarted):
		return response.BadRequest(c, "Voting has not started for this category")
	case errors.Is(err, domain.ErrVotingEnded):
		return response.BadRequest(c, "Voting has ended for this category")
	case errors.Is(err, domain.ErrVotingNotActive):
		return response.BadRequest(c, "Voting is not open for this category")
	case errors.Is(err, domain.ErrAlreadyVoted):
		return response.Conflict(c, "You have already voted in this category")
	case errors.Is(err, domain.ErrDuplicateVote):
		return response.Conflict(c, "You have already voted in this category")
	case errors.Is(err, domain.ErrUserInactive):
		return response.Forbidden(c, "User account is inactive")
	case errors.Is(err, domain.ErrRoleCannotVote):
		return response.Forbidden(c, "User role cannot vote")
	case errors.Is(err, domain.ErrInvalidAmount):
		return response.BadRequest(c, "Invalid vote amount")
	case errors.Is(err, domain.ErrPaymentNotConfirmed):
		return response.Error(c, fiber.StatusPaymentRequired, "Payment not yet confirmed")
	case errors.Is(err, domain.ErrPaymentFailed):
		return response.Error(c, fiber.StatusPaymentRequired, "Payment failed")
	case errors.Is(err, domain.ErrPaymentExpired):
		return response.Error(c, fiber.StatusGone, "Payment expired, please vote again")
	case errors.Is(err, domain.ErrGatewayUnavailable):
		return response.Error(c, fiber.StatusServiceUnavailable, "Payment gateway unavailable, try again shortly")
	case errors.Is(err, domain.ErrCommitRejected):
		return response.Error(c, fiber.StatusUnprocessableEntity,
			"Payment received but vote could not be recorded; support has been notified")
	default:
		return response.InternalServerError(c, "Failed to process vote")
	}
}
