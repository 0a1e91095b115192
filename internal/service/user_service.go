package service

import (
	"context"
	"errors"

	"shopadmin/internal/model"
	"shopadmin/internal/repository"
	appErr "shopadmin/pkg/errors"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UpdateUserRequest struct {
	Username string `json:"username" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
}

// UserService is the admin view over accounts. Passwords and roles are not
// editable through it.
type UserService interface {
	ListUsers(ctx context.Context) ([]UserResponse, error)
	UpdateUser(ctx context.Context, id uint, req UpdateUserRequest) (*UserResponse, error)
	DeleteUser(ctx context.Context, id uint) error
}

type userService struct {
	repo repository.UserRepository
}

func NewUserService(repo repository.UserRepository) UserService {
	return &userService{repo: repo}
}

func (s *userService) ListUsers(ctx context.Context) ([]UserResponse, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErr.Internal(err, msgInternal)
	}

	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, *mapToResponse(&users[i]))
	}
	return responses, nil
}

func (s *userService) UpdateUser(ctx context.Context, id uint, req UpdateUserRequest) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, appErr.NotFound(msgUserNotFound)
	}
	if err != nil {
		return nil, appErr.Internal(err, msgInternal)
	}

	if fields := validateStruct(req); fields != nil {
		return nil, appErr.Validation(fields)
	}

	user.Username = req.Username
	user.Email = req.Email
	if err := s.repo.Update(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, appErr.Validation(map[string]string{"email": msgEmailTaken})
		}
		return nil, appErr.Internal(err, msgInternal)
	}
	return mapToResponse(user), nil
}

func (s *userService) DeleteUser(ctx context.Context, id uint) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return appErr.NotFound(msgUserNotFound)
	}
	if err != nil {
		return appErr.Internal(err, msgInternal)
	}
	return nil
}

// EnsureAdmin promotes the account with email to admin, creating it with
// password when it does not exist yet. It reports whether a new account
// was created.
func EnsureAdmin(ctx context.Context, repo repository.UserRepository, username, email, password string) (bool, error) {
	user, err := repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if user.IsAdmin() {
			return false, nil
		}
		return false, repo.UpdateRole(ctx, user.ID, model.RoleAdmin)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return false, err
	}

	req := RegisterRequest{Username: username, Email: email, Password: password}
	if fields := validateStruct(req); fields != nil {
		return false, appErr.Validation(fields)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, err
	}
	admin := &model.User{Username: username, Email: email, Password: string(hashed), Role: model.RoleAdmin}
	if err := repo.Create(ctx, admin); err != nil {
		return false, err
	}
	return true, nil
}
