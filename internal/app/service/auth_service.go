package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/doublegate/WebScrape-TUI-sub001/internal/app/authz"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/app/token"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/common"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/common/security"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/domain/model"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/domain/repository"
)

type AuthService struct {
	userRepo repository.UserRepository
	tokens   *token.Service
}

func NewAuthService(userRepo repository.UserRepository, tokens *token.Service) *AuthService {
	return &AuthService{userRepo: userRepo, tokens: tokens}
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login verifies credentials and issues a token pair. Unknown username,
// wrong password, and deactivated account all fail with the same error so
// the response gives nothing away.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*token.Pair, error) {
	if req.Username == "" || req.Password == "" {
		return nil, common.ErrBadRequest
	}

	user, err := s.userRepo.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !security.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, common.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, common.ErrInvalidCredentials
	}

	pair, err := s.tokens.Issue(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue tokens: %w", err)
	}
	return pair, nil
}

// Refresh rotates a refresh token into a new pair. The presented token is
// consumed; using it again fails.
func (s *AuthService) Refresh(ctx context.Context, rawRefresh string) (*token.Pair, error) {
	if rawRefresh == "" {
		return nil, common.ErrInvalidToken
	}

	userID, err := s.tokens.ConsumeRefresh(ctx, rawRefresh)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if !user.IsActive {
		return nil, common.ErrInvalidToken
	}

	pair, err := s.tokens.Issue(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue tokens: %w", err)
	}
	return pair, nil
}

// Logout revokes the presented access token, and the refresh token too when
// the client hands it back.
func (s *AuthService) Logout(ctx context.Context, rawAccess, rawRefresh string) error {
	claims, err := s.tokens.VerifyAccess(ctx, rawAccess)
	if err != nil {
		return err
	}
	if err := s.tokens.RevokeAccess(ctx, claims); err != nil {
		return err
	}
	if rawRefresh != "" {
		return s.tokens.RevokeRefresh(ctx, rawRefresh)
	}
	return nil
}

// Me returns the caller's own account record.
func (s *AuthService) Me(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

// ChangePassword handles both the self-service path (old password required)
// and the admin reset path (no old password). Every outstanding refresh
// token for the target is revoked afterwards, so sessions minted under the
// old credential cannot renew themselves.
func (s *AuthService) ChangePassword(ctx context.Context, caller authz.Caller, targetID, oldPassword, newPassword string) error {
	if newPassword == "" {
		return fmt.Errorf("new password must not be empty: %w", common.ErrValidation)
	}

	if caller.ID != targetID {
		if !caller.IsAdmin() {
			return common.ErrForbidden
		}
		return s.resetPassword(ctx, targetID, newPassword)
	}

	user, err := s.userRepo.FindByID(ctx, targetID)
	if err != nil {
		return err
	}
	if !security.CheckPasswordHash(oldPassword, user.PasswordHash) {
		return fmt.Errorf("old password is incorrect: %w", common.ErrBadRequest)
	}

	newHash, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	// Compare-and-set against the hash we just verified; a concurrent change
	// surfaces as a conflict instead of a lost update.
	if err := s.userRepo.UpdatePassword(ctx, targetID, user.PasswordHash, newHash); err != nil {
		return err
	}

	return s.tokens.RevokeAllForUser(ctx, targetID)
}

func (s *AuthService) resetPassword(ctx context.Context, targetID, newPassword string) error {
	newHash, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.userRepo.ResetPassword(ctx, targetID, newHash); err != nil {
		return err
	}
	return s.tokens.RevokeAllForUser(ctx, targetID)
}

func (s *AuthService) Tokens() *token.Service {
	return s.tokens
}
