package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/doublegate/WebScrape-TUI-sub001/internal/common"
)

// Token type claim values. A refresh token presented where an access token
// is expected must be rejected, so the type travels inside the token itself.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// TokenClaims is the typed view of the claims this system puts in its JWTs.
type TokenClaims struct {
	UserID    string
	Role      string
	TokenType string
	TokenID   string // jti, keyed into the revocation ledger
	ExpiresAt time.Time
}

// NewTokenAuth builds the jwtauth verifier used by the HTTP middleware.
// The same HMAC key signs and verifies both token types.
func NewTokenAuth(secret []byte) *jwtauth.JWTAuth {
	return jwtauth.New("HS256", secret, nil)
}

// SignToken encodes and signs the claims with HS256.
func SignToken(secret []byte, c TokenClaims) (string, error) {
	claims := jwt.MapClaims{
		"user_id": c.UserID,
		"typ":     c.TokenType,
		"jti":     c.TokenID,
		"exp":     c.ExpiresAt.Unix(),
		"iat":     time.Now().Unix(),
	}
	if c.Role != "" {
		claims["role"] = c.Role
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseToken verifies the signature and expiry of a raw token string and
// returns its typed claims. Expired tokens surface as common.ErrExpiredToken,
// everything else wrong with the token as common.ErrInvalidToken.
func ParseToken(secret []byte, raw string) (TokenClaims, error) {
	parsed, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return TokenClaims{}, common.ErrExpiredToken
		}
		return TokenClaims{}, common.ErrInvalidToken
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return TokenClaims{}, common.ErrInvalidToken
	}

	out := TokenClaims{}
	if out.UserID, ok = mapClaims["user_id"].(string); !ok {
		return TokenClaims{}, common.ErrInvalidToken
	}
	if out.TokenType, ok = mapClaims["typ"].(string); !ok {
		return TokenClaims{}, common.ErrInvalidToken
	}
	if out.TokenID, ok = mapClaims["jti"].(string); !ok {
		return TokenClaims{}, common.ErrInvalidToken
	}
	out.Role, _ = mapClaims["role"].(string)
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}

// Claim getters used by the middleware, which receives claims as a plain map
// from jwtauth rather than a parsed TokenClaims.

func GetStringClaim(claims map[string]interface{}, key string) (string, error) {
	v, ok := claims[key].(string)
	if !ok {
		return "", fmt.Errorf("%s claim is missing or not a string", key)
	}
	return v, nil
}

func GetUserIDFromClaims(claims map[string]interface{}) (string, error) {
	return GetStringClaim(claims, "user_id")
}

func GetUserRoleFromClaims(claims map[string]interface{}) (string, error) {
	return GetStringClaim(claims, "role")
}
