package service

import (
	"context"
	"errors"
	"time"

	"github.com/gosimple/slug"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/roots-api/internal/models"
	"github.com/noah-isme/roots-api/internal/repository"
)

const (
	bootstrapAdminUsername = "rootsadmin"
	bootstrapAdminEmail    = "rootsadmin@example.com"
	bootstrapSeasonLength  = 30 * 24 * time.Hour
)

// BootstrapResult lists the records a bootstrap run created or found.
type BootstrapResult struct {
	AdminID       uint
	CompetitionID uint
	SeasonID      uint
	ProblemSetID  uint
	SeriesID      uint
	AdminCreated  bool
}

// BootstrapService seeds a fresh deployment with the objects it needs to accept submissions.
type BootstrapService interface {
	Run(ctx context.Context, competitionName string) (BootstrapResult, error)
}

type bootstrapService struct {
	users        repository.UserRepository
	competitions repository.CompetitionRepository
	sets         repository.ProblemSetRepository
	logger       zerolog.Logger
	now          func() time.Time
}

// NewBootstrapService constructs the bootstrap service.
func NewBootstrapService(users repository.UserRepository, competitions repository.CompetitionRepository, sets repository.ProblemSetRepository, logger zerolog.Logger) BootstrapService {
	return &bootstrapService{
		users:        users,
		competitions: competitions,
		sets:         sets,
		logger:       logger.With().Str("component", "bootstrap_service").Logger(),
		now:          time.Now,
	}
}

// Run creates the admin user and competition when missing, then opens a 30 day
// first season with one series backed by an empty problem set.
func (s *bootstrapService) Run(ctx context.Context, competitionName string) (BootstrapResult, error) {
	var result BootstrapResult

	admin, err := s.users.GetByUsername(ctx, bootstrapAdminUsername)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		admin = models.User{Username: bootstrapAdminUsername, Email: bootstrapAdminEmail, IsStaff: true}
		if err := s.users.Create(ctx, &admin); err != nil {
			return result, err
		}
		result.AdminCreated = true
	case err != nil:
		return result, err
	}
	result.AdminID = admin.ID

	competitionSlug := slug.Make(competitionName)
	competition, err := s.competitions.GetBySlug(ctx, competitionSlug)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		competition = models.Competition{Name: competitionName, Slug: competitionSlug}
		if err := s.competitions.Create(ctx, &competition); err != nil {
			return result, err
		}
	case err != nil:
		return result, err
	}
	result.CompetitionID = competition.ID

	now := s.now()
	season := models.Season{
		CompetitionID: competition.ID,
		Name:          "First season",
		Year:          now.Year(),
		Number:        1,
		Start:         now,
		End:           now.Add(bootstrapSeasonLength),
	}
	if err := s.competitions.CreateSeason(ctx, &season); err != nil {
		return result, err
	}
	result.SeasonID = season.ID

	set := models.ProblemSet{
		Name:          "Problems in the first series",
		CompetitionID: competition.ID,
		AddedByID:     &admin.ID,
		ModifiedByID:  &admin.ID,
	}
	if err := s.sets.Create(ctx, &set); err != nil {
		return result, err
	}
	result.ProblemSetID = set.ID

	series := models.Series{
		SeasonID:           season.ID,
		Name:               "First series",
		Number:             1,
		SubmissionDeadline: now.Add(bootstrapSeasonLength),
		ProblemSetID:       set.ID,
	}
	if err := s.competitions.CreateSeries(ctx, &series); err != nil {
		return result, err
	}
	result.SeriesID = series.ID

	if err := s.sets.MarkUsed(ctx, set.ID, now); err != nil {
		return result, err
	}

	s.logger.Info().
		Uint("competition_id", competition.ID).
		Uint("season_id", season.ID).
		Uint("series_id", series.ID).
		Bool("admin_created", result.AdminCreated).
		Msg("bootstrap completed")

	return result, nil
}
