package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/roots-api/internal/models"
)

// ProblemFilter narrows problem listings.
type ProblemFilter struct {
	CompetitionID *uint
	SeverityID    *uint
	CategoryID    *uint
	Search        string
}

// ProblemRepository defines data operations for problems and their classifiers.
type ProblemRepository interface {
	GetByID(ctx context.Context, id uint) (models.Problem, error)
	List(ctx context.Context, filter ProblemFilter) ([]models.Problem, error)
	Create(ctx context.Context, problem *models.Problem) error
	Update(ctx context.Context, problem *models.Problem) error
	GetSeverity(ctx context.Context, id uint) (models.ProblemSeverity, error)
	GetCategory(ctx context.Context, id uint) (models.ProblemCategory, error)
	ListSeverities(ctx context.Context, competitionID *uint) ([]models.ProblemSeverity, error)
	CreateSeverity(ctx context.Context, severity *models.ProblemSeverity) error
	UpdateSeverity(ctx context.Context, severity *models.ProblemSeverity) error
	DeleteSeverity(ctx context.Context, id uint) error
	ListCategories(ctx context.Context, competitionID *uint) ([]models.ProblemCategory, error)
	CreateCategory(ctx context.Context, category *models.ProblemCategory) error
	UpdateCategory(ctx context.Context, category *models.ProblemCategory) error
	DeleteCategory(ctx context.Context, id uint) error
	CreateOrgSolution(ctx context.Context, solution *models.OrgSolution) error
	ListOrgSolutions(ctx context.Context, problemID uint) ([]models.OrgSolution, error)
}

type problemRepository struct {
	db *gorm.DB
}

// NewProblemRepository instantiates the repository.
func NewProblemRepository(db *gorm.DB) ProblemRepository {
	return &problemRepository{db: db}
}

func (r *problemRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Problem{}).
		Preload("Severity").
		Preload("Category")
}

func (r *problemRepository) GetByID(ctx context.Context, id uint) (models.Problem, error) {
	var problem models.Problem
	if err := r.baseQuery(ctx).First(&problem, id).Error; err != nil {
		return models.Problem{}, err
	}
	return problem, nil
}

func (r *problemRepository) List(ctx context.Context, filter ProblemFilter) ([]models.Problem, error) {
	query := r.baseQuery(ctx)

	if filter.CompetitionID != nil {
		query = query.Where("competition_id = ?", *filter.CompetitionID)
	}

	if filter.SeverityID != nil {
		query = query.Where("severity_id = ?", *filter.SeverityID)
	}

	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}

	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		query = query.Where("LOWER(text) LIKE ?", "%"+search+"%")
	}

	var problems []models.Problem
	if err := query.Order("id ASC").Find(&problems).Error; err != nil {
		return nil, err
	}
	return problems, nil
}

func (r *problemRepository) Create(ctx context.Context, problem *models.Problem) error {
	return r.db.WithContext(ctx).Omit("Severity", "Category", "Competition").Create(problem).Error
}

func (r *problemRepository) Update(ctx context.Context, problem *models.Problem) error {
	return r.db.WithContext(ctx).Omit("Severity", "Category", "Competition").Save(problem).Error
}

func (r *problemRepository) GetSeverity(ctx context.Context, id uint) (models.ProblemSeverity, error) {
	var severity models.ProblemSeverity
	if err := r.db.WithContext(ctx).First(&severity, id).Error; err != nil {
		return models.ProblemSeverity{}, err
	}
	return severity, nil
}

func (r *problemRepository) GetCategory(ctx context.Context, id uint) (models.ProblemCategory, error) {
	var category models.ProblemCategory
	if err := r.db.WithContext(ctx).First(&category, id).Error; err != nil {
		return models.ProblemCategory{}, err
	}
	return category, nil
}

func (r *problemRepository) ListSeverities(ctx context.Context, competitionID *uint) ([]models.ProblemSeverity, error) {
	query := r.db.WithContext(ctx)
	if competitionID != nil {
		query = query.Where("competition_id = ?", *competitionID)
	}

	var severities []models.ProblemSeverity
	if err := query.Order("level ASC").Order("id ASC").Find(&severities).Error; err != nil {
		return nil, err
	}
	return severities, nil
}

func (r *problemRepository) CreateSeverity(ctx context.Context, severity *models.ProblemSeverity) error {
	return r.db.WithContext(ctx).Omit("Competition").Create(severity).Error
}

func (r *problemRepository) UpdateSeverity(ctx context.Context, severity *models.ProblemSeverity) error {
	return r.db.WithContext(ctx).Omit("Competition").Save(severity).Error
}

// DeleteSeverity removes the severity and detaches it from every problem using it.
func (r *problemRepository) DeleteSeverity(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Problem{}).Where("severity_id = ?", id).Update("severity_id", nil).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.ProblemSeverity{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *problemRepository) ListCategories(ctx context.Context, competitionID *uint) ([]models.ProblemCategory, error) {
	query := r.db.WithContext(ctx)
	if competitionID != nil {
		query = query.Where("competition_id = ?", *competitionID)
	}

	var categories []models.ProblemCategory
	if err := query.Order("name ASC").Order("id ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *problemRepository) CreateCategory(ctx context.Context, category *models.ProblemCategory) error {
	return r.db.WithContext(ctx).Omit("Competition").Create(category).Error
}

func (r *problemRepository) UpdateCategory(ctx context.Context, category *models.ProblemCategory) error {
	return r.db.WithContext(ctx).Omit("Competition").Save(category).Error
}

// DeleteCategory removes the category and detaches it from every problem using it.
func (r *problemRepository) DeleteCategory(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Problem{}).Where("category_id = ?", id).Update("category_id", nil).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.ProblemCategory{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *problemRepository) CreateOrgSolution(ctx context.Context, solution *models.OrgSolution) error {
	return r.db.WithContext(ctx).Omit("Problem", "Organizer").Create(solution).Error
}

func (r *problemRepository) ListOrgSolutions(ctx context.Context, problemID uint) ([]models.OrgSolution, error) {
	var solutions []models.OrgSolution
	if err := r.db.WithContext(ctx).Where("problem_id = ?", problemID).Order("added_at DESC").Find(&solutions).Error; err != nil {
		return nil, err
	}
	return solutions, nil
}

// markProblemsUsed bumps usage counters for the given problems inside tx.
func markProblemsUsed(tx *gorm.DB, problemIDs []uint, at time.Time) error {
	if len(problemIDs) == 0 {
		return nil
	}
	return tx.Model(&models.Problem{}).
		Where("id IN ?", problemIDs).
		Updates(map[string]interface{}{
			"times_used":   gorm.Expr("times_used + 1"),
			"last_used_at": at,
		}).Error
}
