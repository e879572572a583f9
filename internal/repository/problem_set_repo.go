package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/roots-api/internal/models"
)

// ProblemSetFilter narrows problem set listings.
type ProblemSetFilter struct {
	CompetitionID *uint
	EventID       *uint
	Search        string
}

// ProblemSetRepository persists problem sets and their ordered members.
type ProblemSetRepository interface {
	GetByID(ctx context.Context, id uint) (models.ProblemSet, error)
	List(ctx context.Context, filter ProblemSetFilter) ([]models.ProblemSet, error)
	Create(ctx context.Context, set *models.ProblemSet) error
	ReplaceMembers(ctx context.Context, setID uint, problemIDs []uint, modifiedBy *uint) error
	MarkUsed(ctx context.Context, setID uint, at time.Time) error
}

type problemSetRepository struct {
	db *gorm.DB
}

// NewProblemSetRepository instantiates the repository.
func NewProblemSetRepository(db *gorm.DB) ProblemSetRepository {
	return &problemSetRepository{db: db}
}

func (r *problemSetRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.ProblemSet{}).
		Preload("Members", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("position ASC")
		}).
		Preload("Members.Problem").
		Preload("Members.Problem.Severity").
		Preload("Members.Problem.Category")
}

func (r *problemSetRepository) GetByID(ctx context.Context, id uint) (models.ProblemSet, error) {
	var set models.ProblemSet
	if err := r.baseQuery(ctx).First(&set, id).Error; err != nil {
		return models.ProblemSet{}, err
	}
	return set, nil
}

func (r *problemSetRepository) List(ctx context.Context, filter ProblemSetFilter) ([]models.ProblemSet, error) {
	query := r.baseQuery(ctx)

	if filter.CompetitionID != nil {
		query = query.Where("problem_sets.competition_id = ?", *filter.CompetitionID)
	}

	if filter.EventID != nil {
		query = query.Where("problem_sets.event_id = ?", *filter.EventID)
	}

	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		like := "%" + search + "%"
		query = query.Joins("LEFT JOIN events ON events.id = problem_sets.event_id").
			Where("LOWER(problem_sets.name) LIKE ? OR LOWER(events.name) LIKE ?", like, like)
	}

	var sets []models.ProblemSet
	if err := query.Order("problem_sets.modified_at ASC").Find(&sets).Error; err != nil {
		return nil, err
	}
	return sets, nil
}

func (r *problemSetRepository) Create(ctx context.Context, set *models.ProblemSet) error {
	return r.db.WithContext(ctx).Omit("Competition", "Event", "Members").Create(set).Error
}

// ReplaceMembers swaps the ordered member list; positions follow slice order starting at 1.
// Usage statistics of problems that stay in the set are preserved.
func (r *problemSetRepository) ReplaceMembers(ctx context.Context, setID uint, problemIDs []uint, modifiedBy *uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []models.ProblemInSet
		if err := tx.Where("problem_set_id = ?", setID).Find(&existing).Error; err != nil {
			return err
		}
		previous := make(map[uint]models.ProblemInSet, len(existing))
		for _, member := range existing {
			previous[member.ProblemID] = member
		}

		if err := tx.Where("problem_set_id = ?", setID).Delete(&models.ProblemInSet{}).Error; err != nil {
			return err
		}

		for i, problemID := range problemIDs {
			member := models.ProblemInSet{
				ProblemSetID: setID,
				ProblemID:    problemID,
				Position:     i + 1,
			}
			if old, ok := previous[problemID]; ok {
				member.TimesUsed = old.TimesUsed
				member.LastUsedAt = old.LastUsedAt
			}
			if err := tx.Omit("Problem").Create(&member).Error; err != nil {
				return err
			}
		}

		return tx.Model(&models.ProblemSet{}).Where("id = ?", setID).Updates(map[string]interface{}{
			"modified_by_id": modifiedBy,
			"modified_at":    time.Now(),
		}).Error
	})
}

// MarkUsed records one usage of the set on every slot and every member problem.
func (r *problemSetRepository) MarkUsed(ctx context.Context, setID uint, at time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var problemIDs []uint
		if err := tx.Model(&models.ProblemInSet{}).
			Where("problem_set_id = ?", setID).
			Pluck("problem_id", &problemIDs).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.ProblemInSet{}).
			Where("problem_set_id = ?", setID).
			Updates(map[string]interface{}{
				"times_used":   gorm.Expr("times_used + 1"),
				"last_used_at": at,
			}).Error; err != nil {
			return err
		}

		return markProblemsUsed(tx, problemIDs, at)
	})
}
