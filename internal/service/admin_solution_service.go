package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/roots-api/internal/dto"
	"github.com/noah-isme/roots-api/internal/models"
	"github.com/noah-isme/roots-api/internal/repository"
)

// AdminSolutionService gives staff access to submitted solutions.
type AdminSolutionService interface {
	List(ctx context.Context, req dto.AdminSolutionListRequest) ([]dto.SolutionResponse, error)
	Filters(ctx context.Context) ([]dto.FilterResponse, error)
	Correct(ctx context.Context, actor ActivityActor, id uint, req dto.CorrectionRequest) (dto.SolutionResponse, error)
}

type adminSolutionService struct {
	solutions repository.SolutionRepository
	locker    SolutionLocker
	events    EventPublisher
	filters   []ListFilter[models.UserSolution]
	validator *validator.Validate
	activity  ActivityRecorder
	logger    zerolog.Logger
}

// NewAdminSolutionService constructs the staff solution service.
func NewAdminSolutionService(
	solutions repository.SolutionRepository,
	seasons SeasonService,
	locker SolutionLocker,
	events EventPublisher,
	validate *validator.Validate,
	activity ActivityRecorder,
	logger zerolog.Logger,
) AdminSolutionService {
	if locker == nil {
		locker = NewLocalSolutionLocker()
	}
	if events == nil {
		events = NewEventPublisher(nil, nil, "", logger)
	}

	return &adminSolutionService{
		solutions: solutions,
		locker:    locker,
		events:    events,
		filters: []ListFilter[models.UserSolution]{
			CurrentSeasonUser{Seasons: seasons},
			CurrentSeasonProblem{Seasons: seasons},
		},
		validator: validate,
		activity:  activity,
		logger:    logger.With().Str("component", "admin_solution_service").Logger(),
	}
}

func (s *adminSolutionService) List(ctx context.Context, req dto.AdminSolutionListRequest) ([]dto.SolutionResponse, error) {
	filter := repository.SolutionFilter{Search: req.Search}
	if value := strings.TrimSpace(req.Filters["user"]); value != "" {
		id, err := parseFilterID("user", value)
		if err != nil {
			return nil, err
		}
		filter.UserID = &id
	}
	if value := strings.TrimSpace(req.Filters["problem"]); value != "" {
		id, err := parseFilterID("problem", value)
		if err != nil {
			return nil, err
		}
		filter.ProblemID = &id
	}

	solutions, err := s.solutions.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	solutions, err = applyFilters(ctx, solutions, s.filters, req.Filters)
	if err != nil {
		return nil, err
	}

	return dto.NewSolutionResponseSlice(solutions), nil
}

func (s *adminSolutionService) Filters(ctx context.Context) ([]dto.FilterResponse, error) {
	return describeFilters(ctx, s.filters)
}

// Correct scores a solution by hand. The corrected document, if any, is left untouched.
func (s *adminSolutionService) Correct(ctx context.Context, actor ActivityActor, id uint, req dto.CorrectionRequest) (dto.SolutionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.SolutionResponse{}, err
	}

	solution, err := s.solutions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SolutionResponse{}, ErrSolutionNotFound
		}
		return dto.SolutionResponse{}, err
	}

	unlock, err := s.locker.Lock(ctx, solution.UserID, solution.ProblemID)
	if err != nil {
		return dto.SolutionResponse{}, err
	}
	defer unlock()

	previous := solution.Score
	score := *req.Score
	solution.Score = &score
	solution.Note = strings.TrimSpace(strictPolicy.Sanitize(req.Note))
	if actor.ID != 0 {
		solution.CorrectedByID = &actor.ID
		solution.ModifiedByID = &actor.ID
	}

	if err := s.solutions.Save(ctx, &solution); err != nil {
		return dto.SolutionResponse{}, err
	}

	metadata := map[string]interface{}{"score": score}
	if previous != nil {
		metadata["previous_score"] = *previous
	}
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     ActionSolutionCorrected,
		EntityType: "solution",
		EntityID:   &solution.ID,
		Metadata:   metadata,
	})

	s.events.Publish(ctx, SolutionEvent{
		Type:       EventSolutionCorrected,
		SolutionID: solution.ID,
		UserID:     solution.UserID,
		ProblemID:  solution.ProblemID,
		Score:      &score,
		OccurredAt: time.Now().UTC(),
	})

	s.logger.Info().
		Uint("solution_id", solution.ID).
		Uint("corrected_by", actor.ID).
		Int("score", score).
		Msg("solution corrected")

	return dto.NewSolutionResponse(solution), nil
}
