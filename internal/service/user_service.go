package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/noah-isme/roots-api/internal/models"
	"github.com/noah-isme/roots-api/internal/repository"
)

// UserService resolves the account behind an authenticated request.
type UserService interface {
	Get(ctx context.Context, id uint) (models.User, error)
}

type userService struct {
	users repository.UserRepository
}

// NewUserService constructs the user service.
func NewUserService(users repository.UserRepository) UserService {
	return &userService{users: users}
}

func (s *userService) Get(ctx context.Context, id uint) (models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}
