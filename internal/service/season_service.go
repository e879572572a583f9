package service

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/roots-api/internal/models"
	"github.com/noah-isme/roots-api/internal/repository"
)

// ErrNoActiveSeason indicates that no season of the competition is running.
var ErrNoActiveSeason = errors.New("no active season")

// SeasonService resolves the running season of the deployment's competition.
type SeasonService interface {
	ActiveSeason(ctx context.Context) (models.Season, error)
	ActiveSeasonProblemIDs(ctx context.Context) ([]uint, error)
	Competitors(ctx context.Context) ([]models.User, error)
}

type seasonService struct {
	competitions    repository.CompetitionRepository
	solutions       repository.SolutionRepository
	users           repository.UserRepository
	competitionSlug string
	now             func() time.Time
}

// NewSeasonService constructs a season service for the competition with the given slug.
func NewSeasonService(
	competitions repository.CompetitionRepository,
	solutions repository.SolutionRepository,
	users repository.UserRepository,
	competitionSlug string,
) SeasonService {
	return &seasonService{
		competitions:    competitions,
		solutions:       solutions,
		users:           users,
		competitionSlug: competitionSlug,
		now:             time.Now,
	}
}

func (s *seasonService) ActiveSeason(ctx context.Context) (models.Season, error) {
	competition, err := s.competitions.GetBySlug(ctx, s.competitionSlug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Season{}, ErrCompetitionNotFound
		}
		return models.Season{}, err
	}

	season, err := s.competitions.ActiveSeason(ctx, competition.ID, s.now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Season{}, ErrNoActiveSeason
		}
		return models.Season{}, err
	}
	return season, nil
}

// ActiveSeasonProblemIDs lists the problems of every series of the active season.
func (s *seasonService) ActiveSeasonProblemIDs(ctx context.Context) ([]uint, error) {
	season, err := s.ActiveSeason(ctx)
	if err != nil {
		return nil, err
	}

	members := seasonMembers(season)
	ids := make([]uint, 0, len(members))
	for _, member := range members {
		ids = append(ids, member.ProblemID)
	}
	return ids, nil
}

// Competitors lists users who submitted a solution to a problem of the active season.
func (s *seasonService) Competitors(ctx context.Context) ([]models.User, error) {
	problemIDs, err := s.ActiveSeasonProblemIDs(ctx)
	if err != nil {
		return nil, err
	}

	userIDs, err := s.solutions.CompetitorIDsForProblems(ctx, problemIDs)
	if err != nil {
		return nil, err
	}
	return s.users.ListByIDs(ctx, userIDs)
}

// seasonMembers returns the problem slots of every series, in series then
// position order, keeping the first occurrence of a problem.
func seasonMembers(season models.Season) []models.ProblemInSet {
	seen := make(map[uint]struct{})
	members := make([]models.ProblemInSet, 0)
	for _, series := range season.Series {
		for _, member := range series.ProblemSet.Members {
			if _, ok := seen[member.ProblemID]; ok {
				continue
			}
			seen[member.ProblemID] = struct{}{}
			members = append(members, member)
		}
	}
	return members
}
