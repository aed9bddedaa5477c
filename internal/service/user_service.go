package service

import (
	"context"
	stderrors "errors"
	"strings"

	"gorm.io/gorm"

	"usermgmt/internal/errors"
	"usermgmt/internal/logger"
	"usermgmt/internal/model"
	"usermgmt/internal/repository"
)

// UserService exposes CRUD operations over user records.
type UserService interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	GetUser(ctx context.Context, id uint) (*model.User, error)
	CreateUser(ctx context.Context, name, email string, role model.Role) (*model.User, error)
	UpdateUser(ctx context.Context, id uint, name, email string, role model.Role) (*model.User, error)
	DeleteUser(ctx context.Context, id uint) error
}

type userService struct {
	repo repository.UserRepository
}

// NewUserService builds a UserService backed by the repository.
func NewUserService(repo repository.UserRepository) UserService {
	return &userService{repo: repo}
}

func validateFields(name, email string, role model.Role) error {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" {
		return errors.ErrEmptyField
	}
	if !role.Valid() {
		return errors.ErrInvalidRole
	}
	return nil
}

func (s *userService) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		logger.L.WithError(err).Error("list users: store query failed")
		return nil, err
	}
	if users == nil {
		users = []model.User{}
	}
	return users, nil
}

func (s *userService) GetUser(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrUserNotFound
		}
		logger.L.WithError(err).Error("get user: store query failed")
		return nil, err
	}
	return user, nil
}

func (s *userService) CreateUser(ctx context.Context, name, email string, role model.Role) (*model.User, error) {
	if err := validateFields(name, email, role); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil && !stderrors.Is(err, gorm.ErrRecordNotFound) {
		logger.L.WithError(err).Error("create user: store query failed")
		return nil, err
	}
	if existing != nil {
		return nil, errors.ErrEmailTaken
	}

	user := &model.User{Name: name, Email: email, Role: role}
	if err := s.repo.Create(ctx, user); err != nil {
		// Racing creates with the same email lose at the unique index.
		if stderrors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errors.ErrEmailTaken
		}
		logger.L.WithError(err).Error("create user: store insert failed")
		return nil, err
	}
	return user, nil
}

func (s *userService) UpdateUser(ctx context.Context, id uint, name, email string, role model.Role) (*model.User, error) {
	if err := validateFields(name, email, role); err != nil {
		return nil, err
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrUserNotFound
		}
		logger.L.WithError(err).Error("update user: store query failed")
		return nil, err
	}

	if email != user.Email {
		other, err := s.repo.FindByEmail(ctx, email)
		if err != nil && !stderrors.Is(err, gorm.ErrRecordNotFound) {
			logger.L.WithError(err).Error("update user: store query failed")
			return nil, err
		}
		if other != nil && other.ID != id {
			return nil, errors.ErrEmailTaken
		}
	}

	user.Name = name
	user.Email = email
	user.Role = role
	if err := s.repo.Update(ctx, user); err != nil {
		if stderrors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errors.ErrEmailTaken
		}
		logger.L.WithError(err).Error("update user: store update failed")
		return nil, err
	}
	return user, nil
}

func (s *userService) DeleteUser(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return errors.ErrUserNotFound
		}
		logger.L.WithError(err).Error("delete user: store delete failed")
		return err
	}
	return nil
}
