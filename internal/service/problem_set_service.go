package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/roots-api/internal/dto"
	"github.com/noah-isme/roots-api/internal/models"
	"github.com/noah-isme/roots-api/internal/repository"
)

// ProblemSetService manages problem sets and their ordered members.
type ProblemSetService interface {
	List(ctx context.Context, req dto.ProblemSetListRequest) ([]dto.ProblemSetResponse, error)
	Filters(ctx context.Context) ([]dto.FilterResponse, error)
	Get(ctx context.Context, id uint) (dto.ProblemSetResponse, error)
	Create(ctx context.Context, actor ActivityActor, req dto.ProblemSetCreateRequest) (dto.ProblemSetResponse, error)
	ReplaceProblems(ctx context.Context, actor ActivityActor, id uint, req dto.ProblemSetMembersRequest) (dto.ProblemSetResponse, error)
	MarkUsed(ctx context.Context, id uint) error
}

type problemSetService struct {
	sets         repository.ProblemSetRepository
	problems     repository.ProblemRepository
	competitions repository.CompetitionRepository
	filters      []ListFilter[models.ProblemSet]
	validator    *validator.Validate
	activity     ActivityRecorder
	logger       zerolog.Logger
	now          func() time.Time
}

// NewProblemSetService constructs the problem set service.
func NewProblemSetService(
	sets repository.ProblemSetRepository,
	problems repository.ProblemRepository,
	competitions repository.CompetitionRepository,
	validate *validator.Validate,
	activity ActivityRecorder,
	logger zerolog.Logger,
) ProblemSetService {
	return &problemSetService{
		sets:         sets,
		problems:     problems,
		competitions: competitions,
		filters: []ListFilter[models.ProblemSet]{
			AverageSeverityAbove{Problems: problems},
		},
		validator: validate,
		activity:  activity,
		logger:    logger.With().Str("component", "problem_set_service").Logger(),
		now:       time.Now,
	}
}

func (s *problemSetService) List(ctx context.Context, req dto.ProblemSetListRequest) ([]dto.ProblemSetResponse, error) {
	filter := repository.ProblemSetFilter{Search: req.Search}
	if req.CompetitionID > 0 {
		filter.CompetitionID = &req.CompetitionID
	}

	sets, err := s.sets.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	sets, err = applyFilters(ctx, sets, s.filters, req.Filters)
	if err != nil {
		return nil, err
	}

	return dto.NewProblemSetResponseSlice(sets), nil
}

func (s *problemSetService) Filters(ctx context.Context) ([]dto.FilterResponse, error) {
	return describeFilters(ctx, s.filters)
}

func (s *problemSetService) Get(ctx context.Context, id uint) (dto.ProblemSetResponse, error) {
	set, err := s.load(ctx, id)
	if err != nil {
		return dto.ProblemSetResponse{}, err
	}
	return dto.NewProblemSetResponse(set), nil
}

func (s *problemSetService) Create(ctx context.Context, actor ActivityActor, req dto.ProblemSetCreateRequest) (dto.ProblemSetResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ProblemSetResponse{}, err
	}

	if _, err := s.competitions.GetByID(ctx, req.CompetitionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProblemSetResponse{}, ErrCompetitionNotFound
		}
		return dto.ProblemSetResponse{}, err
	}

	if err := s.checkMembers(ctx, req.CompetitionID, req.ProblemIDs); err != nil {
		return dto.ProblemSetResponse{}, err
	}

	set := models.ProblemSet{
		Name:          strings.TrimSpace(req.Name),
		CompetitionID: req.CompetitionID,
		EventID:       req.EventID,
		Leaflet:       strings.TrimSpace(req.Leaflet),
	}
	if actor.ID != 0 {
		set.AddedByID = &actor.ID
		set.ModifiedByID = &actor.ID
	}

	if err := s.sets.Create(ctx, &set); err != nil {
		return dto.ProblemSetResponse{}, err
	}

	if len(req.ProblemIDs) > 0 {
		if err := s.sets.ReplaceMembers(ctx, set.ID, req.ProblemIDs, set.ModifiedByID); err != nil {
			return dto.ProblemSetResponse{}, err
		}
	}

	return s.Get(ctx, set.ID)
}

// ReplaceProblems sets the ordered member list; positions follow the request order.
func (s *problemSetService) ReplaceProblems(ctx context.Context, actor ActivityActor, id uint, req dto.ProblemSetMembersRequest) (dto.ProblemSetResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ProblemSetResponse{}, err
	}

	set, err := s.load(ctx, id)
	if err != nil {
		return dto.ProblemSetResponse{}, err
	}

	if err := s.checkMembers(ctx, set.CompetitionID, req.ProblemIDs); err != nil {
		return dto.ProblemSetResponse{}, err
	}

	var modifiedBy *uint
	if actor.ID != 0 {
		modifiedBy = &actor.ID
	}
	if err := s.sets.ReplaceMembers(ctx, set.ID, req.ProblemIDs, modifiedBy); err != nil {
		return dto.ProblemSetResponse{}, err
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     ActionProblemSetChanged,
		EntityType: "problemset",
		EntityID:   &set.ID,
		Metadata:   map[string]interface{}{"problem_ids": req.ProblemIDs},
	})

	return s.Get(ctx, set.ID)
}

// MarkUsed records that the set was handed out, e.g. when a series is attached to it.
func (s *problemSetService) MarkUsed(ctx context.Context, id uint) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	if err := s.sets.MarkUsed(ctx, id, s.now()); err != nil {
		return err
	}
	s.logger.Info().Uint("problemset_id", id).Msg("problem set marked as used")
	return nil
}

func (s *problemSetService) load(ctx context.Context, id uint) (models.ProblemSet, error) {
	set, err := s.sets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ProblemSet{}, ErrProblemSetNotFound
		}
		return models.ProblemSet{}, err
	}
	return set, nil
}

// checkMembers enforces that every member exists and shares the set's competition.
func (s *problemSetService) checkMembers(ctx context.Context, competitionID uint, problemIDs []uint) error {
	var messages []string
	for _, problemID := range problemIDs {
		problem, err := s.problems.GetByID(ctx, problemID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			messages = append(messages, fmt.Sprintf("Problem #%d does not exist.", problemID))
		case err != nil:
			return err
		case problem.CompetitionID != competitionID:
			messages = append(messages, fmt.Sprintf("Problem #%d does not belong to the problem set's competition.", problemID))
		}
	}
	if len(messages) > 0 {
		return &ValidationError{Messages: messages}
	}
	return nil
}
