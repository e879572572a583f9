package handler

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/roots-api/internal/document"
	"github.com/noah-isme/roots-api/internal/middleware"
	"github.com/noah-isme/roots-api/internal/service"
	"github.com/noah-isme/roots-api/internal/utils"
)

const incompleteProfileMessage = "User profile does not contain all required fields. Please update your profile."

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	parsed, err := strconv.ParseUint(strings.TrimSpace(c.Params(name)), 10, 64)
	if err != nil || parsed == 0 {
		return 0, errors.New("invalid identifier")
	}
	return uint(parsed), nil
}

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}

func parseQueryUint(c *fiber.Ctx, key string) (uint, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(parsed), nil
}

// queryFilters collects the non-empty values of the given query parameters.
func queryFilters(c *fiber.Ctx, params ...string) map[string]string {
	filters := make(map[string]string, len(params))
	for _, param := range params {
		if value := strings.TrimSpace(c.Query(param)); value != "" {
			filters[param] = value
		}
	}
	return filters
}

func userIDFromContext(c *fiber.Ctx) uint {
	switch id := c.Locals("user_id").(type) {
	case uint:
		return id
	case int:
		if id > 0 {
			return uint(id)
		}
	}
	return 0
}

func userRoleFromContext(c *fiber.Ctx) string {
	if role, ok := c.Locals("user_role").(string); ok {
		return role
	}
	return ""
}

func activityActorFromContext(c *fiber.Ctx) service.ActivityActor {
	return service.ActivityActor{
		ID:   userIDFromContext(c),
		Role: userRoleFromContext(c),
	}
}

func withRequestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
}

// respondError maps service failures onto HTTP statuses and notices.
func respondError(c *fiber.Ctx, logger zerolog.Logger, err error) error {
	var (
		validationErrors validator.ValidationErrors
		invalid          *service.ValidationError
		incomplete       *service.IncompleteProfileError
		conversion       *document.ConversionError
		corrupt          *service.CorruptArchiveError
	)

	switch {
	case errors.Is(err, service.ErrProblemNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "problem not found")
	case errors.Is(err, service.ErrProblemSetNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "problem set not found")
	case errors.Is(err, service.ErrSolutionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "solution not found")
	case errors.Is(err, service.ErrUserNotFound):
		return utils.SendError(c, fiber.StatusUnauthorized, "user not found")
	case errors.Is(err, service.ErrSeverityNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "severity not found")
	case errors.Is(err, service.ErrCategoryNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "category not found")
	case errors.Is(err, service.ErrPostNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "post not found")
	case errors.Is(err, service.ErrGalleryNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "gallery not found")
	case errors.Is(err, service.ErrEventNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "event not found")
	case errors.Is(err, service.ErrCompetitionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "competition not found")
	case errors.Is(err, service.ErrForbidden):
		return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
	case errors.Is(err, service.ErrNoFiles):
		return utils.SendErrorWithNotices(c, fiber.StatusBadRequest, "no files uploaded",
			utils.Notices(utils.NoticeError, "At least one solution file is required."))
	case errors.Is(err, service.ErrUploadTooLarge):
		return utils.SendError(c, fiber.StatusRequestEntityTooLarge, "upload exceeds the size limit")
	case errors.Is(err, service.ErrArchiveTooLarge):
		return utils.SendErrorWithNotices(c, fiber.StatusRequestEntityTooLarge, "archive too large",
			utils.Notices(utils.NoticeError, err.Error()))
	case errors.Is(err, service.ErrLockNotAcquired):
		return utils.SendError(c, fiber.StatusConflict, "solution is being updated, try again")
	case errors.As(err, &incomplete):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(utils.APIResponse{
			Success: false,
			Message: "profile incomplete",
			Data:    fiber.Map{"missing_fields": incomplete.Missing},
			Notices: utils.Notices(utils.NoticeError, incompleteProfileMessage),
		})
	case errors.As(err, &conversion):
		return utils.SendErrorWithNotices(c, fiber.StatusUnprocessableEntity, "document conversion failed",
			utils.Notices(utils.NoticeError, "Could not convert "+conversion.File+" to PDF."))
	case errors.As(err, &corrupt):
		return utils.SendErrorWithNotices(c, fiber.StatusBadRequest, "corrupt archive",
			utils.Notices(utils.NoticeError, err.Error()))
	case errors.As(err, &invalid):
		return utils.SendErrorWithNotices(c, fiber.StatusBadRequest, "validation failed",
			utils.Notices(utils.NoticeError, invalid.Messages...))
	case errors.As(err, &validationErrors):
		return utils.SendErrorWithNotices(c, fiber.StatusBadRequest, "validation failed",
			validationNotices(validationErrors))
	default:
		requestLogger := middleware.RequestLogger(logger, c)
		requestLogger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}

func validationNotices(errs validator.ValidationErrors) []utils.Notice {
	notices := make([]utils.Notice, 0, len(errs))
	for _, fieldErr := range errs {
		notices = append(notices, utils.Notice{
			Level:   utils.NoticeError,
			Message: strings.ToLower(fieldErr.Field()) + ": failed " + fieldErr.Tag(),
		})
	}
	return notices
}
