package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/roots-api/internal/dto"
	"github.com/noah-isme/roots-api/internal/service"
	"github.com/noah-isme/roots-api/internal/utils"
)

// ContentHandler serves wall posts and event galleries to participants.
type ContentHandler struct {
	posts     service.PostService
	galleries service.GalleryService
	logger    zerolog.Logger
}

// NewContentHandler constructs the handler.
func NewContentHandler(posts service.PostService, galleries service.GalleryService, logger zerolog.Logger) *ContentHandler {
	return &ContentHandler{
		posts:     posts,
		galleries: galleries,
		logger:    logger.With().Str("component", "content_handler").Logger(),
	}
}

// RegisterPosts wires the routes below /api/v1/posts.
func (h *ContentHandler) RegisterPosts(router fiber.Router) {
	router.Get("", h.listPosts)
	router.Get("/:id", h.getPost)
}

// RegisterGalleries wires the routes below /api/v1/galleries.
func (h *ContentHandler) RegisterGalleries(router fiber.Router) {
	router.Get("", h.listGalleries)
	router.Get("/:id", h.getGallery)
}

func (h *ContentHandler) listPosts(c *fiber.Ctx) error {
	req, err := contentListRequest(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	// Participants see general posts alongside those of the selected competition.
	req.IncludeGeneral = true

	page, err := h.posts.List(withRequestContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "posts retrieved", page)
}

func (h *ContentHandler) getPost(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	post, err := h.posts.Get(withRequestContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "post retrieved", post)
}

func (h *ContentHandler) listGalleries(c *fiber.Ctx) error {
	req, err := contentListRequest(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	page, err := h.galleries.List(withRequestContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "galleries retrieved", page)
}

func (h *ContentHandler) getGallery(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	gallery, err := h.galleries.Get(withRequestContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "gallery retrieved", gallery)
}

// AdminContentHandler exposes post and gallery administration to staff.
type AdminContentHandler struct {
	posts     service.PostService
	galleries service.GalleryService
	logger    zerolog.Logger
}

// NewAdminContentHandler constructs the handler.
func NewAdminContentHandler(posts service.PostService, galleries service.GalleryService, logger zerolog.Logger) *AdminContentHandler {
	return &AdminContentHandler{
		posts:     posts,
		galleries: galleries,
		logger:    logger.With().Str("component", "admin_content_handler").Logger(),
	}
}

// Register wires /posts and /galleries below the admin group.
func (h *AdminContentHandler) Register(router fiber.Router) {
	posts := router.Group("/posts")
	posts.Get("", h.listPosts)
	posts.Post("", h.createPost)
	posts.Put("/:id", h.updatePost)
	posts.Delete("/:id", h.deletePost)

	galleries := router.Group("/galleries")
	galleries.Get("", h.listGalleries)
	galleries.Post("", h.createGallery)
	galleries.Put("/:id", h.updateGallery)
	galleries.Delete("/:id", h.deleteGallery)
}

func (h *AdminContentHandler) listPosts(c *fiber.Ctx) error {
	req, err := contentListRequest(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	page, err := h.posts.List(withRequestContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "posts retrieved", page)
}

func (h *AdminContentHandler) createPost(c *fiber.Ctx) error {
	var payload dto.PostRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	post, err := h.posts.Create(withRequestContext(c), activityActorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "post created", post)
}

func (h *AdminContentHandler) updatePost(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.PostRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	post, err := h.posts.Update(withRequestContext(c), activityActorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "post updated", post)
}

func (h *AdminContentHandler) deletePost(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.posts.Delete(withRequestContext(c), activityActorFromContext(c), id); err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "post deleted", nil)
}

func (h *AdminContentHandler) listGalleries(c *fiber.Ctx) error {
	req, err := contentListRequest(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	page, err := h.galleries.List(withRequestContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "galleries retrieved", page)
}

func (h *AdminContentHandler) createGallery(c *fiber.Ctx) error {
	var payload dto.GalleryRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	gallery, err := h.galleries.Create(withRequestContext(c), activityActorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "gallery created", gallery)
}

func (h *AdminContentHandler) updateGallery(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.GalleryRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	gallery, err := h.galleries.Update(withRequestContext(c), activityActorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "gallery updated", gallery)
}

func (h *AdminContentHandler) deleteGallery(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.galleries.Delete(withRequestContext(c), activityActorFromContext(c), id); err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "gallery deleted", nil)
}

func contentListRequest(c *fiber.Ctx) (dto.ContentListRequest, error) {
	competitionID, err := parseQueryUint(c, "competition")
	if err != nil {
		return dto.ContentListRequest{}, errors.New("invalid competition")
	}
	eventID, err := parseQueryUint(c, "event")
	if err != nil {
		return dto.ContentListRequest{}, errors.New("invalid event")
	}
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return dto.ContentListRequest{}, errors.New("invalid page")
	}
	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return dto.ContentListRequest{}, errors.New("invalid page_size")
	}

	return dto.ContentListRequest{
		CompetitionID: competitionID,
		EventID:       eventID,
		Search:        c.Query("q"),
		Page:          page,
		PageSize:      pageSize,
	}, nil
}
