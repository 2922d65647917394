package common

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRespondWithDomainError(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("profile 42: %w", ErrForbidden), http.StatusForbidden},
		{ErrSelfDelete, http.StatusBadRequest},
		{ErrConflict, http.StatusConflict},
		{ErrRateLimited, http.StatusTooManyRequests},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		RespondWithDomainError(rec, tc.err)

		assert.Equal(t, tc.code, rec.Code, tc.err.Error())
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.JSONEq(t, fmt.Sprintf(`{"error": %q}`, tc.err.Error()), rec.Body.String())
	}
}
