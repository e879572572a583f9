package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/roots-api/internal/models"
)

// ErrDuplicate indicates a unique constraint rejected the write.
var ErrDuplicate = errors.New("record already exists")

// SolutionFilter narrows solution listings.
type SolutionFilter struct {
	UserID     *uint
	ProblemID  *uint
	UserIDs    []uint
	ProblemIDs []uint
	Search     string
}

// SolutionRepository persists participant solutions.
type SolutionRepository interface {
	GetByID(ctx context.Context, id uint) (models.UserSolution, error)
	GetByUserAndProblem(ctx context.Context, userID, problemID uint) (models.UserSolution, error)
	List(ctx context.Context, filter SolutionFilter) ([]models.UserSolution, error)
	Save(ctx context.Context, solution *models.UserSolution) error
	CompetitorIDsForProblems(ctx context.Context, problemIDs []uint) ([]uint, error)
}

type solutionRepository struct {
	db *gorm.DB
}

// NewSolutionRepository instantiates the repository.
func NewSolutionRepository(db *gorm.DB) SolutionRepository {
	return &solutionRepository{db: db}
}

func (r *solutionRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.UserSolution{}).
		Preload("User").
		Preload("Problem")
}

func (r *solutionRepository) GetByID(ctx context.Context, id uint) (models.UserSolution, error) {
	var solution models.UserSolution
	if err := r.baseQuery(ctx).First(&solution, id).Error; err != nil {
		return models.UserSolution{}, err
	}

	return solution, nil
}

func (r *solutionRepository) GetByUserAndProblem(ctx context.Context, userID, problemID uint) (models.UserSolution, error) {
	var solution models.UserSolution
	if err := r.baseQuery(ctx).
		Where("user_solutions.user_id = ?", userID).
		Where("user_solutions.problem_id = ?", problemID).
		First(&solution).Error; err != nil {
		return models.UserSolution{}, err
	}

	return solution, nil
}

func (r *solutionRepository) List(ctx context.Context, filter SolutionFilter) ([]models.UserSolution, error) {
	query := r.baseQuery(ctx)

	if filter.UserID != nil {
		query = query.Where("user_solutions.user_id = ?", *filter.UserID)
	}

	if filter.ProblemID != nil {
		query = query.Where("user_solutions.problem_id = ?", *filter.ProblemID)
	}

	if filter.UserIDs != nil {
		query = query.Where("user_solutions.user_id IN ?", nonEmptyIDs(filter.UserIDs))
	}

	if filter.ProblemIDs != nil {
		query = query.Where("user_solutions.problem_id IN ?", nonEmptyIDs(filter.ProblemIDs))
	}

	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		like := "%" + search + "%"
		query = query.Joins("JOIN users ON users.id = user_solutions.user_id").
			Where("LOWER(users.first_name) LIKE ? OR LOWER(users.last_name) LIKE ? OR LOWER(users.username) LIKE ?", like, like, like)
	}

	var solutions []models.UserSolution
	if err := query.Order("user_solutions.submitted_at DESC").Find(&solutions).Error; err != nil {
		return nil, err
	}

	return solutions, nil
}

// Save inserts new solutions and updates existing ones. The (user, problem)
// unique index turns a concurrent duplicate insert into ErrDuplicate.
func (r *solutionRepository) Save(ctx context.Context, solution *models.UserSolution) error {
	db := r.db.WithContext(ctx).Omit("User", "Problem", "CorrectedBy", "School")

	var err error
	if solution.IsNew() {
		err = db.Create(solution).Error
	} else {
		err = db.Save(solution).Error
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}

func (r *solutionRepository) CompetitorIDsForProblems(ctx context.Context, problemIDs []uint) ([]uint, error) {
	var ids []uint
	if len(problemIDs) == 0 {
		return ids, nil
	}
	if err := r.db.WithContext(ctx).Model(&models.UserSolution{}).
		Where("problem_id IN ?", problemIDs).
		Distinct("user_id").
		Order("user_id").
		Pluck("user_id", &ids).Error; err != nil {
		return nil, err
	}

	return ids, nil
}

// nonEmptyIDs keeps "IN ?" valid for an explicitly empty filter, which must match nothing.
func nonEmptyIDs(ids []uint) []uint {
	if len(ids) == 0 {
		return []uint{0}
	}
	return ids
}
