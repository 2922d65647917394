package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/jwtauth/v5"

	"github.com/doublegate/WebScrape-TUI-sub001/internal/app/authz"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/app/token"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/common"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/common/security"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/domain/model"
)

type contextKey string

const (
	UserIDCtxKey   contextKey = "userID"
	UserRoleCtxKey contextKey = "userRole"
	TokenIDCtxKey  contextKey = "tokenID"
)

// Authenticator validates the bearer token placed in the request context by
// jwtauth.Verifier and loads the caller identity into the context.
//
// A missing Authorization header answers 403, a present-but-bad token (wrong
// signature, expired, wrong type, revoked) answers 401.
func Authenticator(tokens *token.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			jwtToken, claims, err := jwtauth.FromContext(r.Context())

			if err != nil {
				if errors.Is(err, jwtauth.ErrNoTokenFound) {
					common.RespondWithError(w, http.StatusForbidden, "Authorization token required")
					return
				}
				common.RespondWithError(w, http.StatusUnauthorized, "Invalid token")
				return
			}
			if jwtToken == nil {
				common.RespondWithError(w, http.StatusForbidden, "Authorization token required")
				return
			}

			typ, err := security.GetStringClaim(claims, "typ")
			if err != nil || typ != security.TokenTypeAccess {
				common.RespondWithError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			userID, err := security.GetUserIDFromClaims(claims)
			if err != nil {
				common.RespondWithError(w, http.StatusUnauthorized, "Invalid token claims: "+err.Error())
				return
			}
			userRole, err := security.GetUserRoleFromClaims(claims)
			if err != nil {
				common.RespondWithError(w, http.StatusUnauthorized, "Invalid token claims: "+err.Error())
				return
			}
			tokenID, err := security.GetStringClaim(claims, "jti")
			if err != nil {
				common.RespondWithError(w, http.StatusUnauthorized, "Invalid token claims: "+err.Error())
				return
			}

			// A logged-out token is still well-signed; the ledger is what
			// rejects it.
			revoked, err := tokens.IsRevoked(r.Context(), tokenID)
			if err != nil {
				common.RespondWithError(w, http.StatusInternalServerError, "Failed to check token state")
				return
			}
			if revoked {
				common.RespondWithError(w, http.StatusUnauthorized, "Token has been revoked")
				return
			}

			ctx := context.WithValue(r.Context(), UserIDCtxKey, userID)
			ctx = context.WithValue(ctx, UserRoleCtxKey, userRole)
			ctx = context.WithValue(ctx, TokenIDCtxKey, tokenID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminOnly gates a route to admin callers. It runs after Authenticator.
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, ok := r.Context().Value(UserRoleCtxKey).(string)
		if !ok || role != model.RoleAdmin {
			common.RespondWithError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CallerFromContext rebuilds the authz caller from the request context.
func CallerFromContext(ctx context.Context) (authz.Caller, bool) {
	userID, ok := ctx.Value(UserIDCtxKey).(string)
	if !ok {
		return authz.Caller{}, false
	}
	role, ok := ctx.Value(UserRoleCtxKey).(string)
	if !ok {
		return authz.Caller{}, false
	}
	return authz.Caller{ID: userID, Role: role}, true
}

// TokenIDFromContext returns the jti of the presented access token.
func TokenIDFromContext(ctx context.Context) (string, bool) {
	tokenID, ok := ctx.Value(TokenIDCtxKey).(string)
	return tokenID, ok
}
