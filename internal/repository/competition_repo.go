package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/roots-api/internal/models"
)

// CompetitionRepository exposes competitions, seasons and series.
type CompetitionRepository interface {
	List(ctx context.Context) ([]models.Competition, error)
	GetByID(ctx context.Context, id uint) (models.Competition, error)
	GetBySlug(ctx context.Context, slug string) (models.Competition, error)
	Create(ctx context.Context, competition *models.Competition) error
	ActiveSeason(ctx context.Context, competitionID uint, at time.Time) (models.Season, error)
	CreateSeason(ctx context.Context, season *models.Season) error
	CreateSeries(ctx context.Context, series *models.Series) error
	GetEvent(ctx context.Context, id uint) (models.Event, error)
	CreateEvent(ctx context.Context, event *models.Event) error
}

type competitionRepository struct {
	db *gorm.DB
}

// NewCompetitionRepository constructs the repository.
func NewCompetitionRepository(db *gorm.DB) CompetitionRepository {
	return &competitionRepository{db: db}
}

func (r *competitionRepository) List(ctx context.Context) ([]models.Competition, error) {
	var competitions []models.Competition
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&competitions).Error; err != nil {
		return nil, err
	}
	return competitions, nil
}

func (r *competitionRepository) GetByID(ctx context.Context, id uint) (models.Competition, error) {
	var competition models.Competition
	if err := r.db.WithContext(ctx).First(&competition, id).Error; err != nil {
		return models.Competition{}, err
	}
	return competition, nil
}

func (r *competitionRepository) GetBySlug(ctx context.Context, slug string) (models.Competition, error) {
	var competition models.Competition
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&competition).Error; err != nil {
		return models.Competition{}, err
	}
	return competition, nil
}

func (r *competitionRepository) Create(ctx context.Context, competition *models.Competition) error {
	return r.db.WithContext(ctx).Create(competition).Error
}

// ActiveSeason returns the season running at the given time, latest start first,
// with its series and their problem sets loaded in order.
func (r *competitionRepository) ActiveSeason(ctx context.Context, competitionID uint, at time.Time) (models.Season, error) {
	var season models.Season
	if err := r.db.WithContext(ctx).
		Preload("Series", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("number ASC")
		}).
		Preload("Series.ProblemSet").
		Preload("Series.ProblemSet.Members", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("position ASC")
		}).
		Preload("Series.ProblemSet.Members.Problem").
		Where("competition_id = ?", competitionID).
		Where("starts_at <= ? AND ends_at >= ?", at, at).
		Order("starts_at DESC").
		First(&season).Error; err != nil {
		return models.Season{}, err
	}
	return season, nil
}

func (r *competitionRepository) CreateSeason(ctx context.Context, season *models.Season) error {
	return r.db.WithContext(ctx).Omit("Competition", "Series").Create(season).Error
}

func (r *competitionRepository) CreateSeries(ctx context.Context, series *models.Series) error {
	return r.db.WithContext(ctx).Omit("Season", "ProblemSet").Create(series).Error
}

func (r *competitionRepository) GetEvent(ctx context.Context, id uint) (models.Event, error) {
	var event models.Event
	if err := r.db.WithContext(ctx).First(&event, id).Error; err != nil {
		return models.Event{}, err
	}
	return event, nil
}

func (r *competitionRepository) CreateEvent(ctx context.Context, event *models.Event) error {
	return r.db.WithContext(ctx).Omit("Competition").Create(event).Error
}
