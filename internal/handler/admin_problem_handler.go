package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/roots-api/internal/dto"
	"github.com/noah-isme/roots-api/internal/service"
	"github.com/noah-isme/roots-api/internal/utils"
)

// AdminProblemHandler exposes problem administration to organizers.
type AdminProblemHandler struct {
	problems     service.ProblemService
	orgSolutions service.OrgSolutionService
	logger       zerolog.Logger
}

// NewAdminProblemHandler constructs the handler.
func NewAdminProblemHandler(problems service.ProblemService, orgSolutions service.OrgSolutionService, logger zerolog.Logger) *AdminProblemHandler {
	return &AdminProblemHandler{
		problems:     problems,
		orgSolutions: orgSolutions,
		logger:       logger.With().Str("component", "admin_problem_handler").Logger(),
	}
}

// Register wires the routes below /api/admin/problems.
func (h *AdminProblemHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Get("/:id", h.get)
	router.Put("/:id", h.update)
	router.Get("/:id/org-solutions", h.listOrgSolutions)
	router.Post("/:id/org-solutions", h.uploadOrgSolution)
}

func (h *AdminProblemHandler) list(c *fiber.Ctx) error {
	req, err := problemListRequest(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	problems, err := h.problems.List(withRequestContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "problems retrieved", problems)
}

func (h *AdminProblemHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	problem, err := h.problems.Get(withRequestContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "problem retrieved", problem)
}

func (h *AdminProblemHandler) create(c *fiber.Ctx) error {
	var payload dto.ProblemCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	problem, err := h.problems.Create(withRequestContext(c), activityActorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "problem created", problem)
}

func (h *AdminProblemHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ProblemUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	problem, err := h.problems.Update(withRequestContext(c), activityActorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "problem updated", problem)
}

func (h *AdminProblemHandler) listOrgSolutions(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	solutions, err := h.orgSolutions.List(withRequestContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "organizer solutions retrieved", solutions)
}

func (h *AdminProblemHandler) uploadOrgSolution(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	file, err := c.FormFile("solution")
	if err != nil {
		return utils.SendErrorWithNotices(c, fiber.StatusBadRequest, "invalid form",
			utils.Notices(utils.NoticeError, "solution: a PDF file is required"))
	}

	solution, err := h.orgSolutions.Upload(withRequestContext(c), activityActorFromContext(c), id, file)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "organizer solution uploaded", solution)
}
