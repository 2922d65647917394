package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doublegate/WebScrape-TUI-sub001/internal/api/middleware"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/app/service"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/app/token"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/common"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/common/security"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/domain/model"
)

var routerTestSecret = []byte("router-test-secret")

type stubPresetRepo struct{}

func (stubPresetRepo) Upsert(ctx context.Context, p *model.FilterPreset) error { return nil }

func (stubPresetRepo) FindByName(ctx context.Context, ownerID, name string) (*model.FilterPreset, error) {
	return nil, common.ErrNotFound
}

func (stubPresetRepo) ListNames(ctx context.Context, ownerID string) ([]string, error) {
	return nil, nil
}

func (stubPresetRepo) Delete(ctx context.Context, ownerID, name string) error { return nil }

// newTestRouter wires the real route tree with only the pieces these tests
// touch; handlers whose routes are never hit get nil services.
func newTestRouter(t *testing.T) (http.Handler, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	h := NewRouter(Deps{
		TokenAuth:     security.NewTokenAuth(routerTestSecret),
		Tokens:        token.NewService(rdb, routerTestSecret, 15*time.Minute, time.Hour),
		RateLimiter:   middleware.NewRateLimiter(rdb, 100, time.Minute),
		PresetService: service.NewPresetService(stubPresetRepo{}),
	})
	return h, mr
}

func routerSignAccess(t *testing.T, userID string) string {
	t.Helper()
	raw, err := security.SignToken(routerTestSecret, security.TokenClaims{
		UserID:    userID,
		Role:      model.RoleUser,
		TokenType: security.TokenTypeAccess,
		TokenID:   "jti-" + userID,
		ExpiresAt: time.Now().Add(time.Minute),
	})
	require.NoError(t, err)
	return raw
}

func TestRouter_RateLimitKeyedByUserOnProtectedRoutes(t *testing.T) {
	h, mr := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/presets/", nil)
	req.RemoteAddr = "203.0.113.9:4455"
	req.Header.Set("Authorization", "Bearer "+routerSignAccess(t, "u1"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, mr.Exists("ratelimit:user:u1"))
	assert.False(t, mr.Exists("ratelimit:ip:203.0.113.9"))
}

func TestRouter_RateLimitKeyedByIPOnPublicAuthRoutes(t *testing.T) {
	h, mr := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader("{"))
	req.RemoteAddr = "203.0.113.9:4455"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.True(t, mr.Exists("ratelimit:ip:203.0.113.9"))
}
