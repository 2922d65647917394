package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doublegate/WebScrape-TUI-sub001/internal/common"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/domain/model"
)

func TestUserList_AdminOnly(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(repo, newTokenService(t))
	seedUser(t, repo, "u1", "alice", "pw", model.RoleUser, true)
	ctx := context.Background()

	_, err := svc.List(ctx, aliceCaller)
	assert.ErrorIs(t, err, common.ErrForbidden)

	users, err := svc.List(ctx, adminCaller)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Empty(t, users[0].PasswordHash)
}

func TestUserCreate(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(repo, newTokenService(t))
	ctx := context.Background()

	_, err := svc.Create(ctx, aliceCaller, CreateUserRequest{Username: "x", Email: "x@example.com", Password: "pw"})
	assert.ErrorIs(t, err, common.ErrForbidden)

	_, err = svc.Create(ctx, adminCaller, CreateUserRequest{Username: "x", Email: "x@example.com", Password: "pw", Role: "superuser"})
	assert.ErrorIs(t, err, common.ErrValidation)

	user, err := svc.Create(ctx, adminCaller, CreateUserRequest{Username: "x", Email: "x@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, user.Role)
	assert.True(t, user.IsActive)
	assert.Empty(t, user.PasswordHash)

	// Duplicate username.
	_, err = svc.Create(ctx, adminCaller, CreateUserRequest{Username: "x", Email: "y@example.com", Password: "pw"})
	assert.ErrorIs(t, err, common.ErrConflict)
}

func TestUserUpdate_RoleAndValidation(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(repo, newTokenService(t))
	seedUser(t, repo, "u1", "alice", "pw", model.RoleUser, true)
	ctx := context.Background()

	bad := "root"
	_, err := svc.Update(ctx, adminCaller, "u1", UpdateUserRequest{Role: &bad})
	assert.ErrorIs(t, err, common.ErrValidation)

	viewer := model.RoleViewer
	user, err := svc.Update(ctx, adminCaller, "u1", UpdateUserRequest{Role: &viewer})
	require.NoError(t, err)
	assert.Equal(t, model.RoleViewer, user.Role)
}

func TestUserUpdate_DeactivationRevokesRefreshTokens(t *testing.T) {
	repo := newFakeUserRepo()
	tokens := newTokenService(t)
	userSvc := NewUserService(repo, tokens)
	authSvc := NewAuthService(repo, tokens)
	seedUser(t, repo, "u1", "alice", "pw", model.RoleUser, true)
	ctx := context.Background()

	pair, err := authSvc.Login(ctx, LoginRequest{Username: "alice", Password: "pw"})
	require.NoError(t, err)

	inactive := false
	_, err = userSvc.Update(ctx, adminCaller, "u1", UpdateUserRequest{IsActive: &inactive})
	require.NoError(t, err)

	_, err = authSvc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestUserDelete_SelfDeleteRefused(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(repo, newTokenService(t))
	seedUser(t, repo, "admin-1", "root", "pw", model.RoleAdmin, true)
	seedUser(t, repo, "alice", "alice", "pw", model.RoleUser, true)
	ctx := context.Background()

	// Self-deletion is refused for every role, admins included.
	assert.ErrorIs(t, svc.Delete(ctx, adminCaller, adminCaller.ID), common.ErrSelfDelete)
	assert.ErrorIs(t, svc.Delete(ctx, aliceCaller, aliceCaller.ID), common.ErrSelfDelete)

	// A non-admin deleting someone else is forbidden.
	assert.ErrorIs(t, svc.Delete(ctx, aliceCaller, "admin-1"), common.ErrForbidden)
}

func TestUserDelete_AdminDeletesOther(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(repo, newTokenService(t))
	seedUser(t, repo, "alice", "alice", "pw", model.RoleUser, true)
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, adminCaller, "alice"))
	err := svc.Delete(ctx, adminCaller, "alice")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
