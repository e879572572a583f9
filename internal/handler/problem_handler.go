package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/roots-api/internal/dto"
	"github.com/noah-isme/roots-api/internal/service"
	"github.com/noah-isme/roots-api/internal/utils"
)

// ProblemHandler serves problems to participants.
type ProblemHandler struct {
	service service.ProblemService
	logger  zerolog.Logger
}

// NewProblemHandler constructs a problem handler.
func NewProblemHandler(service service.ProblemService, logger zerolog.Logger) *ProblemHandler {
	return &ProblemHandler{
		service: service,
		logger:  logger.With().Str("component", "problem_handler").Logger(),
	}
}

// Register wires the routes below /api/v1/problems.
func (h *ProblemHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/:id", h.get)
}

func (h *ProblemHandler) list(c *fiber.Ctx) error {
	req, err := problemListRequest(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	problems, err := h.service.List(withRequestContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "problems retrieved", problems)
}

func (h *ProblemHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	problem, err := h.service.Get(withRequestContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "problem retrieved", problem)
}

func problemListRequest(c *fiber.Ctx) (dto.ProblemListRequest, error) {
	competitionID, err := parseQueryUint(c, "competition")
	if err != nil {
		return dto.ProblemListRequest{}, errors.New("invalid competition")
	}
	severityID, err := parseQueryUint(c, "severity")
	if err != nil {
		return dto.ProblemListRequest{}, errors.New("invalid severity")
	}
	categoryID, err := parseQueryUint(c, "category")
	if err != nil {
		return dto.ProblemListRequest{}, errors.New("invalid category")
	}

	return dto.ProblemListRequest{
		CompetitionID: competitionID,
		SeverityID:    severityID,
		CategoryID:    categoryID,
		Search:        c.Query("q"),
	}, nil
}
