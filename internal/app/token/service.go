// Package token implements the token lifecycle: issuing access/refresh
// pairs, verifying access tokens against the revocation ledger, and the
// single-use rotation of refresh tokens.
//
// Access tokens are stateless signed JWTs; a pure signed token cannot be
// revoked before expiry, so logout writes the token id to a redis denylist
// whose TTL matches the token's remaining lifetime. Refresh tokens are
// allowlisted: the ledger entry is consumed atomically on rotation, which
// makes a second use of the same refresh token fail.
package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/doublegate/WebScrape-TUI-sub001/internal/common"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/common/security"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/domain/model"
)

const (
	refreshKeyPrefix = "tokens:refresh:"
	revokedKeyPrefix = "tokens:revoked:"
	userSetKeyPrefix = "tokens:user:"
)

type Service struct {
	rdb        *redis.Client
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewService(rdb *redis.Client, secret []byte, accessTTL, refreshTTL time.Duration) *Service {
	return &Service{
		rdb:        rdb,
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// Pair is an access/refresh token pair as returned to clients.
type Pair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// Issue creates a fresh token pair for the user and records the refresh
// token in the rotation ledger.
func (s *Service) Issue(ctx context.Context, user *model.User) (*Pair, error) {
	now := time.Now()

	access, err := security.SignToken(s.secret, security.TokenClaims{
		UserID:    user.ID,
		Role:      user.Role,
		TokenType: security.TokenTypeAccess,
		TokenID:   uuid.NewString(),
		ExpiresAt: now.Add(s.accessTTL),
	})
	if err != nil {
		return nil, fmt.Errorf("signing access token: %w", err)
	}

	refreshID := uuid.NewString()
	refresh, err := security.SignToken(s.secret, security.TokenClaims{
		UserID:    user.ID,
		TokenType: security.TokenTypeRefresh,
		TokenID:   refreshID,
		ExpiresAt: now.Add(s.refreshTTL),
	})
	if err != nil {
		return nil, fmt.Errorf("signing refresh token: %w", err)
	}

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, refreshKeyPrefix+refreshID, user.ID, s.refreshTTL)
	pipe.SAdd(ctx, userSetKeyPrefix+user.ID, refreshID)
	pipe.Expire(ctx, userSetKeyPrefix+user.ID, s.refreshTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("recording refresh token: %w", err)
	}

	return &Pair{AccessToken: access, RefreshToken: refresh, TokenType: "bearer"}, nil
}

// VerifyAccess checks signature, expiry, token type, and the revocation
// denylist for a raw access token.
func (s *Service) VerifyAccess(ctx context.Context, raw string) (security.TokenClaims, error) {
	claims, err := security.ParseToken(s.secret, raw)
	if err != nil {
		return security.TokenClaims{}, err
	}
	if claims.TokenType != security.TokenTypeAccess {
		return security.TokenClaims{}, common.ErrInvalidToken
	}

	revoked, err := s.IsRevoked(ctx, claims.TokenID)
	if err != nil {
		return security.TokenClaims{}, err
	}
	if revoked {
		return security.TokenClaims{}, common.ErrInvalidToken
	}
	return claims, nil
}

// IsRevoked reports whether an access token id is on the denylist.
func (s *Service) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.rdb.Exists(ctx, revokedKeyPrefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("checking revocation ledger: %w", err)
	}
	return n > 0, nil
}

// ConsumeRefresh validates a raw refresh token and atomically consumes its
// ledger entry, returning the subject user id. A consumed, revoked, or
// unknown token fails with ErrInvalidToken; the caller issues the
// replacement pair.
func (s *Service) ConsumeRefresh(ctx context.Context, raw string) (string, error) {
	claims, err := security.ParseToken(s.secret, raw)
	if err != nil {
		return "", err
	}
	if claims.TokenType != security.TokenTypeRefresh {
		return "", common.ErrInvalidToken
	}

	// GETDEL makes rotation atomic: exactly one concurrent refresh wins.
	userID, err := s.rdb.GetDel(ctx, refreshKeyPrefix+claims.TokenID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", common.ErrInvalidToken
		}
		return "", fmt.Errorf("consuming refresh token: %w", err)
	}
	if userID != claims.UserID {
		return "", common.ErrInvalidToken
	}

	s.rdb.SRem(ctx, userSetKeyPrefix+userID, claims.TokenID)
	return userID, nil
}

// RevokeAccess denylists the presented access token for the remainder of its
// validity. Expired tokens need no ledger entry.
func (s *Service) RevokeAccess(ctx context.Context, claims security.TokenClaims) error {
	ttl := time.Until(claims.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := s.rdb.Set(ctx, revokedKeyPrefix+claims.TokenID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("writing revocation ledger: %w", err)
	}
	return nil
}

// RevokeRefresh removes a raw refresh token from the ledger if present.
// Used on logout when the client hands its refresh token back.
func (s *Service) RevokeRefresh(ctx context.Context, raw string) error {
	claims, err := security.ParseToken(s.secret, raw)
	if err != nil {
		// An expired or garbled refresh token is already unusable.
		return nil
	}
	if claims.TokenType != security.TokenTypeRefresh {
		return nil
	}
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, refreshKeyPrefix+claims.TokenID)
	pipe.SRem(ctx, userSetKeyPrefix+claims.UserID, claims.TokenID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("revoking refresh token: %w", err)
	}
	return nil
}

// RevokeAllForUser drops every outstanding refresh token for the user. Runs
// after a password change so tokens derived from the old credential cannot
// mint new access tokens.
func (s *Service) RevokeAllForUser(ctx context.Context, userID string) error {
	setKey := userSetKeyPrefix + userID
	ids, err := s.rdb.SMembers(ctx, setKey).Result()
	if err != nil {
		return fmt.Errorf("listing user refresh tokens: %w", err)
	}

	pipe := s.rdb.TxPipeline()
	for _, id := range ids {
		pipe.Del(ctx, refreshKeyPrefix+id)
	}
	pipe.Del(ctx, setKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("revoking user refresh tokens: %w", err)
	}
	return nil
}
