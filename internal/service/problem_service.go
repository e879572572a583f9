package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/roots-api/internal/dto"
	"github.com/noah-isme/roots-api/internal/models"
	"github.com/noah-isme/roots-api/internal/repository"
)

var strictPolicy = bluemonday.StrictPolicy()

// ProblemService manages the problem bank.
type ProblemService interface {
	List(ctx context.Context, req dto.ProblemListRequest) ([]dto.ProblemResponse, error)
	Get(ctx context.Context, id uint) (dto.ProblemResponse, error)
	Create(ctx context.Context, actor ActivityActor, req dto.ProblemCreateRequest) (dto.ProblemResponse, error)
	Update(ctx context.Context, actor ActivityActor, id uint, req dto.ProblemUpdateRequest) (dto.ProblemResponse, error)
}

type problemService struct {
	problems     repository.ProblemRepository
	competitions repository.CompetitionRepository
	validator    *validator.Validate
	sanitizer    *bluemonday.Policy
	activity     ActivityRecorder
	logger       zerolog.Logger
}

// NewProblemService constructs the problem service.
func NewProblemService(
	problems repository.ProblemRepository,
	competitions repository.CompetitionRepository,
	validate *validator.Validate,
	activity ActivityRecorder,
	logger zerolog.Logger,
) ProblemService {
	return &problemService{
		problems:     problems,
		competitions: competitions,
		validator:    validate,
		sanitizer:    bluemonday.UGCPolicy(),
		activity:     activity,
		logger:       logger.With().Str("component", "problem_service").Logger(),
	}
}

func (s *problemService) List(ctx context.Context, req dto.ProblemListRequest) ([]dto.ProblemResponse, error) {
	filter := repository.ProblemFilter{Search: req.Search}
	if req.CompetitionID > 0 {
		filter.CompetitionID = &req.CompetitionID
	}
	if req.SeverityID > 0 {
		filter.SeverityID = &req.SeverityID
	}
	if req.CategoryID > 0 {
		filter.CategoryID = &req.CategoryID
	}

	problems, err := s.problems.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return dto.NewProblemResponseSlice(problems), nil
}

func (s *problemService) Get(ctx context.Context, id uint) (dto.ProblemResponse, error) {
	problem, err := s.load(ctx, id)
	if err != nil {
		return dto.ProblemResponse{}, err
	}
	return dto.NewProblemResponse(problem), nil
}

func (s *problemService) Create(ctx context.Context, actor ActivityActor, req dto.ProblemCreateRequest) (dto.ProblemResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ProblemResponse{}, err
	}

	if _, err := s.competitions.GetByID(ctx, req.CompetitionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProblemResponse{}, ErrCompetitionNotFound
		}
		return dto.ProblemResponse{}, err
	}

	problem := models.Problem{
		Text:            s.sanitizer.Sanitize(req.Text),
		Result:          s.sanitizer.Sanitize(req.Result),
		Source:          strings.TrimSpace(req.Source),
		Image:           strings.TrimSpace(req.Image),
		AdditionalFiles: strings.TrimSpace(req.AdditionalFiles),
		CompetitionID:   req.CompetitionID,
		SeverityID:      req.SeverityID,
		CategoryID:      req.CategoryID,
	}
	if actor.ID != 0 {
		problem.AddedByID = &actor.ID
		problem.ModifiedByID = &actor.ID
	}

	if err := s.checkClassification(ctx, problem); err != nil {
		return dto.ProblemResponse{}, err
	}

	if err := s.problems.Create(ctx, &problem); err != nil {
		return dto.ProblemResponse{}, err
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     ActionProblemCreated,
		EntityType: "problem",
		EntityID:   &problem.ID,
	})

	return s.Get(ctx, problem.ID)
}

func (s *problemService) Update(ctx context.Context, actor ActivityActor, id uint, req dto.ProblemUpdateRequest) (dto.ProblemResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ProblemResponse{}, err
	}

	problem, err := s.load(ctx, id)
	if err != nil {
		return dto.ProblemResponse{}, err
	}

	if req.Text != nil {
		problem.Text = s.sanitizer.Sanitize(*req.Text)
	}
	if req.Result != nil {
		problem.Result = s.sanitizer.Sanitize(*req.Result)
	}
	if req.Source != nil {
		problem.Source = strings.TrimSpace(*req.Source)
	}
	if req.Image != nil {
		problem.Image = strings.TrimSpace(*req.Image)
	}
	if req.AdditionalFiles != nil {
		problem.AdditionalFiles = strings.TrimSpace(*req.AdditionalFiles)
	}
	if req.SeverityID != nil {
		problem.SeverityID = req.SeverityID
		problem.Severity = nil
	}
	if req.CategoryID != nil {
		problem.CategoryID = req.CategoryID
		problem.Category = nil
	}
	if actor.ID != 0 {
		problem.ModifiedByID = &actor.ID
	}

	if err := s.checkClassification(ctx, problem); err != nil {
		return dto.ProblemResponse{}, err
	}

	if err := s.problems.Update(ctx, &problem); err != nil {
		return dto.ProblemResponse{}, err
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     ActionProblemUpdated,
		EntityType: "problem",
		EntityID:   &problem.ID,
	})

	return s.Get(ctx, problem.ID)
}

func (s *problemService) load(ctx context.Context, id uint) (models.Problem, error) {
	problem, err := s.problems.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Problem{}, ErrProblemNotFound
		}
		return models.Problem{}, err
	}
	return problem, nil
}

// checkClassification enforces that severity and category belong to the problem's competition.
func (s *problemService) checkClassification(ctx context.Context, problem models.Problem) error {
	var messages []string

	if strings.TrimSpace(strictPolicy.Sanitize(problem.Text)) == "" && !strings.Contains(problem.Text, "<img") {
		messages = append(messages, "Problem text must not be empty.")
	}

	if problem.SeverityID != nil {
		severity, err := s.problems.GetSeverity(ctx, *problem.SeverityID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			messages = append(messages, "Selected severity does not exist.")
		case err != nil:
			return err
		case severity.CompetitionID != problem.CompetitionID:
			messages = append(messages, "Severity of the problem must belong to the problem's competition.")
		}
	}

	if problem.CategoryID != nil {
		category, err := s.problems.GetCategory(ctx, *problem.CategoryID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			messages = append(messages, "Selected category does not exist.")
		case err != nil:
			return err
		case category.CompetitionID != problem.CompetitionID:
			messages = append(messages, "Category of the problem must belong to the problem's competition.")
		}
	}

	if len(messages) > 0 {
		return &ValidationError{Messages: messages}
	}
	return nil
}
