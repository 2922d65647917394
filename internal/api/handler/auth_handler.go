package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"

	"github.com/doublegate/WebScrape-TUI-sub001/internal/api/middleware"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/app/service"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/common"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterPublicRoutes registers the routes reachable without a token.
func (h *AuthHandler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/login", h.login)
	r.Post("/refresh", h.refresh)
}

// RegisterProtectedRoutes registers the routes behind the Authenticator.
func (h *AuthHandler) RegisterProtectedRoutes(r chi.Router) {
	r.Post("/logout", h.logout)
	r.Get("/me", h.me)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	pair, err := h.authService.Login(r.Context(), req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, pair)
}

func (h *AuthHandler) refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	pair, err := h.authService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, pair)
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	rawAccess := jwtauth.TokenFromHeader(r)

	// The refresh token is optional in the logout body; clients that send it
	// get it revoked in the same call.
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	if err := h.authService.Logout(r.Context(), rawAccess, req.RefreshToken); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (h *AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing caller identity")
		return
	}

	user, err := h.authService.Me(r.Context(), caller.ID)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"id":        user.ID,
		"username":  user.Username,
		"role":      user.Role,
		"is_active": user.IsActive,
	})
}
