package handler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/roots-api/internal/service"
	"github.com/noah-isme/roots-api/internal/utils"
)

// SolutionHandler accepts participant submissions and serves their evaluation.
type SolutionHandler struct {
	solutions service.SolutionService
	users     service.UserService
	logger    zerolog.Logger
}

// NewSolutionHandler constructs a solution handler.
func NewSolutionHandler(solutions service.SolutionService, users service.UserService, logger zerolog.Logger) *SolutionHandler {
	return &SolutionHandler{
		solutions: solutions,
		users:     users,
		logger:    logger.With().Str("component", "solution_handler").Logger(),
	}
}

// Register wires the routes below /api/v1/solutions. Extra handlers run before
// submission, which is where the router installs the rate limiter.
func (h *SolutionHandler) Register(router fiber.Router, submitGuards ...fiber.Handler) {
	router.Post("", append(submitGuards, h.submit)...)
	router.Get("/:id", h.get)
}

func (h *SolutionHandler) submit(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return utils.SendErrorWithNotices(c, fiber.StatusBadRequest, "invalid form",
			utils.Notices(utils.NoticeError, "The request must be multipart/form-data."))
	}

	problemID, err := strconv.ParseUint(strings.TrimSpace(firstValue(form.Value["problem"])), 10, 64)
	if err != nil || problemID == 0 {
		return utils.SendErrorWithNotices(c, fiber.StatusBadRequest, "invalid form",
			utils.Notices(utils.NoticeError, "problem: a valid problem identifier is required"))
	}

	ctx := withRequestContext(c)
	user, err := h.users.Get(ctx, userIDFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	result, err := h.solutions.Submit(ctx, user, uint(problemID), form.File["solution"])
	if err != nil {
		return respondError(c, h.logger, err)
	}

	notices := utils.Notices(utils.NoticeSuccess, fmt.Sprintf("Solution for problem #%d saved.", problemID))
	notices = append(notices, utils.Notices(utils.NoticeWarning, result.Warnings...)...)

	return utils.SendSuccessWithNotices(c, fiber.StatusOK, "solution saved", result, notices)
}

func (h *SolutionHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	ctx := withRequestContext(c)
	viewer, err := h.users.Get(ctx, userIDFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	solution, err := h.solutions.Get(ctx, viewer, id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "solution retrieved", solution)
}

func firstValue(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
