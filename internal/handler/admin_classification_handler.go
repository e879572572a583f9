package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/roots-api/internal/dto"
	"github.com/noah-isme/roots-api/internal/service"
	"github.com/noah-isme/roots-api/internal/utils"
)

// AdminClassificationHandler exposes severity and category administration.
type AdminClassificationHandler struct {
	service service.ClassificationService
	logger  zerolog.Logger
}

// NewAdminClassificationHandler constructs the handler.
func NewAdminClassificationHandler(service service.ClassificationService, logger zerolog.Logger) *AdminClassificationHandler {
	return &AdminClassificationHandler{
		service: service,
		logger:  logger.With().Str("component", "admin_classification_handler").Logger(),
	}
}

// Register wires /severities and /categories below the admin group.
func (h *AdminClassificationHandler) Register(router fiber.Router) {
	severities := router.Group("/severities")
	severities.Get("", h.listSeverities)
	severities.Post("", h.createSeverity)
	severities.Put("/:id", h.updateSeverity)
	severities.Delete("/:id", h.deleteSeverity)

	categories := router.Group("/categories")
	categories.Get("", h.listCategories)
	categories.Post("", h.createCategory)
	categories.Put("/:id", h.updateCategory)
	categories.Delete("/:id", h.deleteCategory)
}

func (h *AdminClassificationHandler) listSeverities(c *fiber.Ctx) error {
	competitionID, err := parseQueryUint(c, "competition")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid competition")
	}

	severities, err := h.service.ListSeverities(withRequestContext(c), competitionID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "severities retrieved", severities)
}

func (h *AdminClassificationHandler) createSeverity(c *fiber.Ctx) error {
	var payload dto.SeverityCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	severity, err := h.service.CreateSeverity(withRequestContext(c), activityActorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "severity created", severity)
}

func (h *AdminClassificationHandler) updateSeverity(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.SeverityUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	severity, err := h.service.UpdateSeverity(withRequestContext(c), activityActorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "severity updated", severity)
}

func (h *AdminClassificationHandler) deleteSeverity(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.DeleteSeverity(withRequestContext(c), activityActorFromContext(c), id); err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "severity deleted", nil)
}

func (h *AdminClassificationHandler) listCategories(c *fiber.Ctx) error {
	competitionID, err := parseQueryUint(c, "competition")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid competition")
	}

	categories, err := h.service.ListCategories(withRequestContext(c), competitionID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "categories retrieved", categories)
}

func (h *AdminClassificationHandler) createCategory(c *fiber.Ctx) error {
	var payload dto.CategoryCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	category, err := h.service.CreateCategory(withRequestContext(c), activityActorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "category created", category)
}

func (h *AdminClassificationHandler) updateCategory(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.CategoryUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	category, err := h.service.UpdateCategory(withRequestContext(c), activityActorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "category updated", category)
}

func (h *AdminClassificationHandler) deleteCategory(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.DeleteCategory(withRequestContext(c), activityActorFromContext(c), id); err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "category deleted", nil)
}
