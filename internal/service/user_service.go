package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/vedran77/relay/internal/domain"
	"github.com/vedran77/relay/internal/repository"
)

var ErrUserNotFound = errors.New("user not found")

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 50
)

type UserService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) GetMe(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// Search matches usernames by prefix. Queries shorter than 2
// characters return nothing rather than erroring.
func (s *UserService) Search(ctx context.Context, query string, limit int) ([]domain.User, error) {
	query = strings.TrimSpace(query)
	if len(query) < 2 {
		return []domain.User{}, nil
	}

	if limit <= 0 {
		limit = defaultSearchLimit
	} else {
		limit = min(limit, maxSearchLimit)
	}

	users, err := s.userRepo.SearchByUsername(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}
