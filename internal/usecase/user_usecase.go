package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/OEduardoGL/lps-ecommerce/internal/domain"
)

var _ domain.UserUseCase = (*userUseCase)(nil)

type userUseCase struct {
	userRepo domain.UserRepository
	log      *logrus.Logger
}

func NewUserUseCase(repo domain.UserRepository, logger *logrus.Logger) domain.UserUseCase {
	return &userUseCase{
		userRepo: repo,
		log:      logger,
	}
}

// UpsertUser updates the user found by id (or by email when no id is given) and creates one otherwise.
// The email of an existing user is never changed.
func (uc *userUseCase) UpsertUser(ctx context.Context, input domain.UpsertUserInput) (*domain.User, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if name == "" || email == "" {
		uc.log.Warn("Use Case: Upsert failed - name and email are required")
		return nil, fmt.Errorf("name and email are required: %w", domain.ErrValidation)
	}

	var id string
	if input.ID != nil {
		id = strings.TrimSpace(*input.ID)
	}

	existing, err := uc.locate(ctx, id, email)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		existing.Name = name
		if input.FavoriteCategories != nil {
			existing.FavoriteCategories = append([]string{}, (*input.FavoriteCategories)...)
		}
		uc.log.Infof("Use Case: Updating user %s", existing.ID)
		return uc.userRepo.Save(ctx, existing)
	}

	if id == "" {
		id = uuid.NewString()
	}
	user := &domain.User{
		ID:                 id,
		Name:               name,
		Email:              email,
		FavoriteCategories: []string{},
	}
	if input.FavoriteCategories != nil {
		user.FavoriteCategories = append(user.FavoriteCategories, (*input.FavoriteCategories)...)
	}

	uc.log.Infof("Use Case: Creating user %s (%s)", user.ID, user.Email)
	saved, err := uc.userRepo.Save(ctx, user)
	if err != nil {
		uc.log.Warnf("Use Case: Repository failed to create user %s: %v", user.ID, err)
		return nil, err
	}
	return saved, nil
}

func (uc *userUseCase) locate(ctx context.Context, id, email string) (*domain.User, error) {
	if id != "" {
		user, err := uc.userRepo.GetUserByID(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return user, err
	}
	user, err := uc.userRepo.GetUserByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return user, err
}

func (uc *userUseCase) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	return uc.userRepo.GetUserByID(ctx, strings.TrimSpace(id))
}

func (uc *userUseCase) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return uc.userRepo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

func (uc *userUseCase) ListUsers(ctx context.Context) ([]domain.User, error) {
	return uc.userRepo.ListUsers(ctx)
}
