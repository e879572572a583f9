package handler

import (
	"io"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/roots-api/internal/dto"
	"github.com/noah-isme/roots-api/internal/service"
	"github.com/noah-isme/roots-api/internal/utils"
)

// solutionFilterParams are the admin list filters accepted as query parameters.
var solutionFilterParams = []string{"current_season_user", "user", "current_season_problem", "problem"}

// AdminSolutionHandler exposes solution review, manual correction and archive import.
type AdminSolutionHandler struct {
	solutions service.AdminSolutionService
	importer  service.CorrectionImportService
	maxBytes  int64
	logger    zerolog.Logger
}

// NewAdminSolutionHandler constructs the handler. maxArchiveBytes caps uploaded correction archives.
func NewAdminSolutionHandler(solutions service.AdminSolutionService, importer service.CorrectionImportService, maxArchiveBytes int64, logger zerolog.Logger) *AdminSolutionHandler {
	return &AdminSolutionHandler{
		solutions: solutions,
		importer:  importer,
		maxBytes:  maxArchiveBytes,
		logger:    logger.With().Str("component", "admin_solution_handler").Logger(),
	}
}

// Register wires the routes below /api/admin/solutions.
func (h *AdminSolutionHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/filters", h.filters)
	router.Post("/import", h.importCorrections)
	router.Patch("/:id/correction", h.correct)
}

func (h *AdminSolutionHandler) list(c *fiber.Ctx) error {
	solutions, err := h.solutions.List(withRequestContext(c), dto.AdminSolutionListRequest{
		Search:  c.Query("q"),
		Filters: queryFilters(c, solutionFilterParams...),
	})
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "solutions retrieved", solutions)
}

func (h *AdminSolutionHandler) filters(c *fiber.Ctx) error {
	filters, err := h.solutions.Filters(withRequestContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "filters retrieved", filters)
}

func (h *AdminSolutionHandler) correct(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.CorrectionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	solution, err := h.solutions.Correct(withRequestContext(c), activityActorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "solution corrected", solution)
}

func (h *AdminSolutionHandler) importCorrections(c *fiber.Ctx) error {
	header, err := c.FormFile("zipfile")
	if err != nil {
		return utils.SendErrorWithNotices(c, fiber.StatusBadRequest, "invalid form",
			utils.Notices(utils.NoticeError, "zipfile: This field is required."))
	}
	if h.maxBytes > 0 && header.Size > h.maxBytes {
		return utils.SendError(c, fiber.StatusRequestEntityTooLarge, "archive exceeds the size limit")
	}

	file, err := header.Open()
	if err != nil {
		return respondError(c, h.logger, err)
	}
	defer file.Close()

	archive, err := io.ReadAll(file)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	if !isZipArchive(archive) {
		return utils.SendErrorWithNotices(c, fiber.StatusBadRequest, "invalid form",
			utils.Notices(utils.NoticeError, "zipfile: The uploaded file is not a zip archive."))
	}

	report, err := h.importer.Import(withRequestContext(c), activityActorFromContext(c), archive)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	response := service.NewImportReportResponse(report)
	return utils.SendSuccessWithNotices(c, fiber.StatusOK, "corrections imported", response, importNotices(response))
}

func isZipArchive(data []byte) bool {
	for detected := mimetype.Detect(data); detected != nil; detected = detected.Parent() {
		if detected.Is("application/zip") {
			return true
		}
	}
	return false
}

func importNotices(report dto.ImportReportResponse) []utils.Notice {
	notices := make([]utils.Notice, 0, len(report.Successes)+len(report.Errors)+1)
	notices = append(notices, utils.Notices(utils.NoticeSuccess, report.Successes...)...)
	for _, entryErr := range report.Errors {
		notices = append(notices, utils.Notice{Level: utils.NoticeError, Message: entryErr.Reason})
	}
	if report.Aborted != "" {
		notices = append(notices, utils.Notice{Level: utils.NoticeError, Message: report.Aborted})
	}
	return notices
}
