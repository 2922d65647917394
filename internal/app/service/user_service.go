package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/doublegate/WebScrape-TUI-sub001/internal/app/authz"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/app/token"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/common"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/common/security"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/domain/model"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/domain/repository"
)

type UserService struct {
	userRepo repository.UserRepository
	tokens   *token.Service
}

func NewUserService(userRepo repository.UserRepository, tokens *token.Service) *UserService {
	return &UserService{userRepo: userRepo, tokens: tokens}
}

type CreateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type UpdateUserRequest struct {
	Email    *string `json:"email,omitempty"`
	Role     *string `json:"role,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

func (s *UserService) List(ctx context.Context, caller authz.Caller) ([]model.User, error) {
	if !caller.IsAdmin() {
		return nil, common.ErrForbidden
	}
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}

func (s *UserService) Create(ctx context.Context, caller authz.Caller, req CreateUserRequest) (*model.User, error) {
	if !caller.IsAdmin() {
		return nil, common.ErrForbidden
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return nil, fmt.Errorf("username, email and password are required: %w", common.ErrValidation)
	}
	if req.Role == "" {
		req.Role = model.RoleUser
	}
	if !model.ValidRole(req.Role) {
		return nil, fmt.Errorf("unknown role %q: %w", req.Role, common.ErrValidation)
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
		IsActive:     true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *UserService) Update(ctx context.Context, caller authz.Caller, targetID string, req UpdateUserRequest) (*model.User, error) {
	if !caller.IsAdmin() {
		return nil, common.ErrForbidden
	}

	user, err := s.userRepo.FindByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Role != nil {
		if !model.ValidRole(*req.Role) {
			return nil, fmt.Errorf("unknown role %q: %w", *req.Role, common.ErrValidation)
		}
		user.Role = *req.Role
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}

	// Deactivation cuts the session lifeline too: no refresh from a disabled
	// account.
	if req.IsActive != nil && !*req.IsActive {
		if err := s.tokens.RevokeAllForUser(ctx, targetID); err != nil {
			return nil, err
		}
	}

	user.PasswordHash = ""
	return user, nil
}

// Delete removes a user account. Self-deletion is refused before the role
// check, so even an admin deleting itself gets the self-delete error rather
// than a forbidden.
func (s *UserService) Delete(ctx context.Context, caller authz.Caller, targetID string) error {
	if caller.ID == targetID {
		return common.ErrSelfDelete
	}
	if !caller.IsAdmin() {
		return common.ErrForbidden
	}
	if err := s.userRepo.Delete(ctx, targetID); err != nil {
		return err
	}
	return s.tokens.RevokeAllForUser(ctx, targetID)
}
