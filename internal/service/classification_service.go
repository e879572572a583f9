package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/roots-api/internal/dto"
	"github.com/noah-isme/roots-api/internal/models"
	"github.com/noah-isme/roots-api/internal/repository"
)

// ClassificationService manages the severities and categories problems are filed under.
// Both belong to exactly one competition, which cannot change after creation.
type ClassificationService interface {
	ListSeverities(ctx context.Context, competitionID uint) ([]dto.SeverityResponse, error)
	CreateSeverity(ctx context.Context, actor ActivityActor, req dto.SeverityCreateRequest) (dto.SeverityResponse, error)
	UpdateSeverity(ctx context.Context, actor ActivityActor, id uint, req dto.SeverityUpdateRequest) (dto.SeverityResponse, error)
	DeleteSeverity(ctx context.Context, actor ActivityActor, id uint) error
	ListCategories(ctx context.Context, competitionID uint) ([]dto.CategoryResponse, error)
	CreateCategory(ctx context.Context, actor ActivityActor, req dto.CategoryCreateRequest) (dto.CategoryResponse, error)
	UpdateCategory(ctx context.Context, actor ActivityActor, id uint, req dto.CategoryUpdateRequest) (dto.CategoryResponse, error)
	DeleteCategory(ctx context.Context, actor ActivityActor, id uint) error
}

type classificationService struct {
	problems     repository.ProblemRepository
	competitions repository.CompetitionRepository
	validator    *validator.Validate
	activity     ActivityRecorder
	logger       zerolog.Logger
}

// NewClassificationService constructs the classification service.
func NewClassificationService(
	problems repository.ProblemRepository,
	competitions repository.CompetitionRepository,
	validate *validator.Validate,
	activity ActivityRecorder,
	logger zerolog.Logger,
) ClassificationService {
	return &classificationService{
		problems:     problems,
		competitions: competitions,
		validator:    validate,
		activity:     activity,
		logger:       logger.With().Str("component", "classification_service").Logger(),
	}
}

func (s *classificationService) ListSeverities(ctx context.Context, competitionID uint) ([]dto.SeverityResponse, error) {
	severities, err := s.problems.ListSeverities(ctx, optionalID(competitionID))
	if err != nil {
		return nil, err
	}

	responses := make([]dto.SeverityResponse, 0, len(severities))
	for _, severity := range severities {
		responses = append(responses, dto.NewSeverityResponse(severity))
	}
	return responses, nil
}

func (s *classificationService) CreateSeverity(ctx context.Context, actor ActivityActor, req dto.SeverityCreateRequest) (dto.SeverityResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.SeverityResponse{}, err
	}
	if err := requireCompetition(ctx, s.competitions, req.CompetitionID); err != nil {
		return dto.SeverityResponse{}, err
	}

	severity := models.ProblemSeverity{
		Name:          strings.TrimSpace(req.Name),
		Level:         *req.Level,
		CompetitionID: req.CompetitionID,
	}
	if err := s.problems.CreateSeverity(ctx, &severity); err != nil {
		return dto.SeverityResponse{}, err
	}

	s.record(ctx, actor, ActionSeveritySaved, "problem_severity", severity.ID)
	return dto.NewSeverityResponse(severity), nil
}

func (s *classificationService) UpdateSeverity(ctx context.Context, actor ActivityActor, id uint, req dto.SeverityUpdateRequest) (dto.SeverityResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.SeverityResponse{}, err
	}

	severity, err := s.problems.GetSeverity(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SeverityResponse{}, ErrSeverityNotFound
		}
		return dto.SeverityResponse{}, err
	}

	if req.Name != nil {
		severity.Name = strings.TrimSpace(*req.Name)
	}
	if req.Level != nil {
		severity.Level = *req.Level
	}
	if severity.Name == "" {
		return dto.SeverityResponse{}, &ValidationError{Messages: []string{"Severity name must not be empty."}}
	}

	if err := s.problems.UpdateSeverity(ctx, &severity); err != nil {
		return dto.SeverityResponse{}, err
	}

	s.record(ctx, actor, ActionSeveritySaved, "problem_severity", severity.ID)
	return dto.NewSeverityResponse(severity), nil
}

// DeleteSeverity removes a severity; problems filed under it become unclassified.
func (s *classificationService) DeleteSeverity(ctx context.Context, actor ActivityActor, id uint) error {
	if err := s.problems.DeleteSeverity(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSeverityNotFound
		}
		return err
	}
	s.record(ctx, actor, ActionSeverityDeleted, "problem_severity", id)
	return nil
}

func (s *classificationService) ListCategories(ctx context.Context, competitionID uint) ([]dto.CategoryResponse, error) {
	categories, err := s.problems.ListCategories(ctx, optionalID(competitionID))
	if err != nil {
		return nil, err
	}

	responses := make([]dto.CategoryResponse, 0, len(categories))
	for _, category := range categories {
		responses = append(responses, dto.NewCategoryResponse(category))
	}
	return responses, nil
}

func (s *classificationService) CreateCategory(ctx context.Context, actor ActivityActor, req dto.CategoryCreateRequest) (dto.CategoryResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.CategoryResponse{}, err
	}
	if err := requireCompetition(ctx, s.competitions, req.CompetitionID); err != nil {
		return dto.CategoryResponse{}, err
	}

	category := models.ProblemCategory{Name: strings.TrimSpace(req.Name), CompetitionID: req.CompetitionID}
	if err := s.problems.CreateCategory(ctx, &category); err != nil {
		return dto.CategoryResponse{}, err
	}

	s.record(ctx, actor, ActionCategorySaved, "problem_category", category.ID)
	return dto.NewCategoryResponse(category), nil
}

func (s *classificationService) UpdateCategory(ctx context.Context, actor ActivityActor, id uint, req dto.CategoryUpdateRequest) (dto.CategoryResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.CategoryResponse{}, err
	}

	category, err := s.problems.GetCategory(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CategoryResponse{}, ErrCategoryNotFound
		}
		return dto.CategoryResponse{}, err
	}

	if req.Name != nil {
		category.Name = strings.TrimSpace(*req.Name)
	}
	if category.Name == "" {
		return dto.CategoryResponse{}, &ValidationError{Messages: []string{"Category name must not be empty."}}
	}

	if err := s.problems.UpdateCategory(ctx, &category); err != nil {
		return dto.CategoryResponse{}, err
	}

	s.record(ctx, actor, ActionCategorySaved, "problem_category", category.ID)
	return dto.NewCategoryResponse(category), nil
}

// DeleteCategory removes a category; problems filed under it become uncategorised.
func (s *classificationService) DeleteCategory(ctx context.Context, actor ActivityActor, id uint) error {
	if err := s.problems.DeleteCategory(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCategoryNotFound
		}
		return err
	}
	s.record(ctx, actor, ActionCategoryDeleted, "problem_category", id)
	return nil
}

func (s *classificationService) record(ctx context.Context, actor ActivityActor, action, entityType string, id uint) {
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: entityType,
		EntityID:   &id,
	})
}

func optionalID(id uint) *uint {
	if id == 0 {
		return nil
	}
	return &id
}
