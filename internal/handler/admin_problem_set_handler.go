package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/roots-api/internal/dto"
	"github.com/noah-isme/roots-api/internal/service"
	"github.com/noah-isme/roots-api/internal/utils"
)

// problemSetFilterParams are the admin list filters accepted as query parameters.
var problemSetFilterParams = []string{"difficulty_above"}

// AdminProblemSetHandler exposes problem set administration.
type AdminProblemSetHandler struct {
	service service.ProblemSetService
	logger  zerolog.Logger
}

// NewAdminProblemSetHandler constructs the handler.
func NewAdminProblemSetHandler(service service.ProblemSetService, logger zerolog.Logger) *AdminProblemSetHandler {
	return &AdminProblemSetHandler{
		service: service,
		logger:  logger.With().Str("component", "admin_problem_set_handler").Logger(),
	}
}

// Register wires the routes below /api/admin/problemsets.
func (h *AdminProblemSetHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/filters", h.filters)
	router.Post("", h.create)
	router.Get("/:id", h.get)
	router.Put("/:id/problems", h.replaceProblems)
}

func (h *AdminProblemSetHandler) list(c *fiber.Ctx) error {
	competitionID, err := parseQueryUint(c, "competition")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid competition")
	}

	sets, err := h.service.List(withRequestContext(c), dto.ProblemSetListRequest{
		CompetitionID: competitionID,
		Search:        c.Query("q"),
		Filters:       queryFilters(c, problemSetFilterParams...),
	})
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "problem sets retrieved", sets)
}

func (h *AdminProblemSetHandler) filters(c *fiber.Ctx) error {
	filters, err := h.service.Filters(withRequestContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "filters retrieved", filters)
}

func (h *AdminProblemSetHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	set, err := h.service.Get(withRequestContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "problem set retrieved", set)
}

func (h *AdminProblemSetHandler) create(c *fiber.Ctx) error {
	var payload dto.ProblemSetCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	set, err := h.service.Create(withRequestContext(c), activityActorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "problem set created", set)
}

func (h *AdminProblemSetHandler) replaceProblems(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ProblemSetMembersRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	set, err := h.service.ReplaceProblems(withRequestContext(c), activityActorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "problem set updated", set)
}
