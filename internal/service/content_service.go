package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/roots-api/internal/dto"
	"github.com/noah-isme/roots-api/internal/models"
	"github.com/noah-isme/roots-api/internal/repository"
)

const defaultContentPageSize = 20

// PostService manages wall posts.
type PostService interface {
	List(ctx context.Context, req dto.ContentListRequest) (dto.PageResponse[dto.PostResponse], error)
	Get(ctx context.Context, id uint) (dto.PostResponse, error)
	Create(ctx context.Context, actor ActivityActor, req dto.PostRequest) (dto.PostResponse, error)
	Update(ctx context.Context, actor ActivityActor, id uint, req dto.PostRequest) (dto.PostResponse, error)
	Delete(ctx context.Context, actor ActivityActor, id uint) error
}

// GalleryService manages event galleries.
type GalleryService interface {
	List(ctx context.Context, req dto.ContentListRequest) (dto.PageResponse[dto.GalleryResponse], error)
	Get(ctx context.Context, id uint) (dto.GalleryResponse, error)
	Create(ctx context.Context, actor ActivityActor, req dto.GalleryRequest) (dto.GalleryResponse, error)
	Update(ctx context.Context, actor ActivityActor, id uint, req dto.GalleryRequest) (dto.GalleryResponse, error)
	Delete(ctx context.Context, actor ActivityActor, id uint) error
}

type postService struct {
	posts        repository.PostRepository
	competitions repository.CompetitionRepository
	validator    *validator.Validate
	sanitizer    *bluemonday.Policy
	activity     ActivityRecorder
	logger       zerolog.Logger
}

// NewPostService constructs the post service.
func NewPostService(
	posts repository.PostRepository,
	competitions repository.CompetitionRepository,
	validate *validator.Validate,
	activity ActivityRecorder,
	logger zerolog.Logger,
) PostService {
	return &postService{
		posts:        posts,
		competitions: competitions,
		validator:    validate,
		sanitizer:    bluemonday.UGCPolicy(),
		activity:     activity,
		logger:       logger.With().Str("component", "post_service").Logger(),
	}
}

func (s *postService) List(ctx context.Context, req dto.ContentListRequest) (dto.PageResponse[dto.PostResponse], error) {
	page, pageSize := normalizePage(req.Page, req.PageSize)
	posts, total, err := s.posts.List(ctx, repository.PostFilter{
		CompetitionID:  optionalID(req.CompetitionID),
		IncludeGeneral: req.IncludeGeneral,
		Search:         req.Search,
		Page:           page,
		PageSize:       pageSize,
	})
	if err != nil {
		return dto.PageResponse[dto.PostResponse]{}, err
	}

	items := make([]dto.PostResponse, 0, len(posts))
	for _, post := range posts {
		items = append(items, dto.NewPostResponse(post))
	}
	return dto.PageResponse[dto.PostResponse]{Items: items, Page: page, PageSize: pageSize, Total: total}, nil
}

func (s *postService) Get(ctx context.Context, id uint) (dto.PostResponse, error) {
	post, err := s.load(ctx, id)
	if err != nil {
		return dto.PostResponse{}, err
	}
	return dto.NewPostResponse(post), nil
}

func (s *postService) Create(ctx context.Context, actor ActivityActor, req dto.PostRequest) (dto.PostResponse, error) {
	if err := s.prepare(ctx, &req); err != nil {
		return dto.PostResponse{}, err
	}

	post := models.Post{
		Slug:          contentSlug(req.Title),
		Title:         req.Title,
		Body:          req.Body,
		CompetitionID: req.CompetitionID,
		IsPinned:      req.IsPinned,
		AddedByID:     optionalID(actor.ID),
		ModifiedByID:  optionalID(actor.ID),
	}
	if err := s.posts.Create(ctx, &post); err != nil {
		return dto.PostResponse{}, err
	}

	s.record(ctx, actor, ActionPostSaved, post.ID)
	return dto.NewPostResponse(post), nil
}

func (s *postService) Update(ctx context.Context, actor ActivityActor, id uint, req dto.PostRequest) (dto.PostResponse, error) {
	post, err := s.load(ctx, id)
	if err != nil {
		return dto.PostResponse{}, err
	}
	if err := s.prepare(ctx, &req); err != nil {
		return dto.PostResponse{}, err
	}

	post.Title = req.Title
	post.Body = req.Body
	post.CompetitionID = req.CompetitionID
	post.IsPinned = req.IsPinned
	post.ModifiedByID = optionalID(actor.ID)
	if err := s.posts.Update(ctx, &post); err != nil {
		return dto.PostResponse{}, err
	}

	s.record(ctx, actor, ActionPostSaved, post.ID)
	return dto.NewPostResponse(post), nil
}

func (s *postService) Delete(ctx context.Context, actor ActivityActor, id uint) error {
	if err := s.posts.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPostNotFound
		}
		return err
	}
	s.record(ctx, actor, ActionPostDeleted, id)
	return nil
}

func (s *postService) load(ctx context.Context, id uint) (models.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Post{}, ErrPostNotFound
		}
		return models.Post{}, err
	}
	return post, nil
}

// prepare validates the request, sanitizes its text and checks the competition.
func (s *postService) prepare(ctx context.Context, req *dto.PostRequest) error {
	req.Title = strings.TrimSpace(req.Title)
	if err := s.validator.Struct(req); err != nil {
		return err
	}
	req.Title = strictPolicy.Sanitize(req.Title)
	req.Body = s.sanitizer.Sanitize(req.Body)
	if req.Title == "" {
		return &ValidationError{Messages: []string{"Post title must not be empty."}}
	}
	if req.CompetitionID != nil {
		return requireCompetition(ctx, s.competitions, *req.CompetitionID)
	}
	return nil
}

func (s *postService) record(ctx context.Context, actor ActivityActor, action string, id uint) {
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: "post",
		EntityID:   &id,
	})
}

type galleryService struct {
	galleries    repository.GalleryRepository
	competitions repository.CompetitionRepository
	validator    *validator.Validate
	activity     ActivityRecorder
	logger       zerolog.Logger
}

// NewGalleryService constructs the gallery service.
func NewGalleryService(
	galleries repository.GalleryRepository,
	competitions repository.CompetitionRepository,
	validate *validator.Validate,
	activity ActivityRecorder,
	logger zerolog.Logger,
) GalleryService {
	return &galleryService{
		galleries:    galleries,
		competitions: competitions,
		validator:    validate,
		activity:     activity,
		logger:       logger.With().Str("component", "gallery_service").Logger(),
	}
}

func (s *galleryService) List(ctx context.Context, req dto.ContentListRequest) (dto.PageResponse[dto.GalleryResponse], error) {
	page, pageSize := normalizePage(req.Page, req.PageSize)
	galleries, total, err := s.galleries.List(ctx, repository.GalleryFilter{
		CompetitionID: optionalID(req.CompetitionID),
		EventID:       optionalID(req.EventID),
		Search:        req.Search,
		Page:          page,
		PageSize:      pageSize,
	})
	if err != nil {
		return dto.PageResponse[dto.GalleryResponse]{}, err
	}

	items := make([]dto.GalleryResponse, 0, len(galleries))
	for _, gallery := range galleries {
		items = append(items, dto.NewGalleryResponse(gallery))
	}
	return dto.PageResponse[dto.GalleryResponse]{Items: items, Page: page, PageSize: pageSize, Total: total}, nil
}

func (s *galleryService) Get(ctx context.Context, id uint) (dto.GalleryResponse, error) {
	gallery, err := s.load(ctx, id)
	if err != nil {
		return dto.GalleryResponse{}, err
	}
	return dto.NewGalleryResponse(gallery), nil
}

func (s *galleryService) Create(ctx context.Context, actor ActivityActor, req dto.GalleryRequest) (dto.GalleryResponse, error) {
	if err := s.prepare(ctx, &req); err != nil {
		return dto.GalleryResponse{}, err
	}

	gallery := models.Gallery{
		Slug:         contentSlug(req.Name),
		AddedByID:    optionalID(actor.ID),
		ModifiedByID: optionalID(actor.ID),
	}
	applyGalleryRequest(&gallery, req)
	if err := s.galleries.Create(ctx, &gallery); err != nil {
		return dto.GalleryResponse{}, err
	}

	s.record(ctx, actor, ActionGallerySaved, gallery.ID)
	return dto.NewGalleryResponse(gallery), nil
}

func (s *galleryService) Update(ctx context.Context, actor ActivityActor, id uint, req dto.GalleryRequest) (dto.GalleryResponse, error) {
	gallery, err := s.load(ctx, id)
	if err != nil {
		return dto.GalleryResponse{}, err
	}
	if err := s.prepare(ctx, &req); err != nil {
		return dto.GalleryResponse{}, err
	}

	applyGalleryRequest(&gallery, req)
	gallery.ModifiedByID = optionalID(actor.ID)
	if err := s.galleries.Update(ctx, &gallery); err != nil {
		return dto.GalleryResponse{}, err
	}

	s.record(ctx, actor, ActionGallerySaved, gallery.ID)
	return dto.NewGalleryResponse(gallery), nil
}

func (s *galleryService) Delete(ctx context.Context, actor ActivityActor, id uint) error {
	if err := s.galleries.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGalleryNotFound
		}
		return err
	}
	s.record(ctx, actor, ActionGalleryDeleted, id)
	return nil
}

func (s *galleryService) load(ctx context.Context, id uint) (models.Gallery, error) {
	gallery, err := s.galleries.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Gallery{}, ErrGalleryNotFound
		}
		return models.Gallery{}, err
	}
	return gallery, nil
}

// prepare validates the request and checks that its event belongs to its competition.
func (s *galleryService) prepare(ctx context.Context, req *dto.GalleryRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return err
	}
	req.Name = strictPolicy.Sanitize(req.Name)
	req.Caption = strictPolicy.Sanitize(req.Caption)
	req.CoverImage = strings.TrimSpace(req.CoverImage)
	if req.Name == "" {
		return &ValidationError{Messages: []string{"Gallery name must not be empty."}}
	}

	if err := requireCompetition(ctx, s.competitions, req.CompetitionID); err != nil {
		return err
	}
	event, err := s.competitions.GetEvent(ctx, req.EventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEventNotFound
		}
		return err
	}
	if event.CompetitionID != req.CompetitionID {
		return &ValidationError{Messages: []string{"The event does not belong to the selected competition."}}
	}
	return nil
}

func (s *galleryService) record(ctx context.Context, actor ActivityActor, action string, id uint) {
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: "gallery",
		EntityID:   &id,
	})
}

func applyGalleryRequest(gallery *models.Gallery, req dto.GalleryRequest) {
	gallery.Name = req.Name
	gallery.Caption = req.Caption
	gallery.CoverImage = req.CoverImage
	gallery.CompetitionID = req.CompetitionID
	gallery.EventID = req.EventID
	gallery.Date = req.Date
}

func requireCompetition(ctx context.Context, competitions repository.CompetitionRepository, id uint) error {
	if _, err := competitions.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCompetitionNotFound
		}
		return err
	}
	return nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = defaultContentPageSize
	}
	return page, pageSize
}

// contentSlug derives a unique URL slug from a title.
func contentSlug(title string) string {
	base := slug.Make(title)
	if base == "" {
		base = "content"
	}
	if len(base) > 100 {
		base = strings.Trim(base[:100], "-")
	}
	return base + "-" + uuid.NewString()[:8]
}
