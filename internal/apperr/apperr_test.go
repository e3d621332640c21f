package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKind_Status(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindValidation, http.StatusBadRequest},
		{KindAuthentication, http.StatusUnauthorized},
		{KindAuthorization, http.StatusForbidden},
		{KindNotFound, http.StatusNotFound},
		{KindConflict, http.StatusConflict},
		{KindRateLimited, http.StatusTooManyRequests},
		{KindInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.kind.Status())
	}
}

func TestKindOf_Wrapped(t *testing.T) {
	base := errors.New("user not found")
	err := fmt.Errorf("lookup: %w", NotFound("User not found", base))

	assert.Equal(t, KindNotFound, KindOf(err))
	assert.ErrorIs(t, err, base)

	e, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, "User not found", e.Error())
}

func TestKindOf_Unclassified(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestInternal_Message(t *testing.T) {
	err := Internal(errors.New("disk full"))
	assert.Equal(t, "disk full", err.Error())
}

func TestRateLimited(t *testing.T) {
	err := RateLimited("slow down", time.Minute)
	assert.Equal(t, KindRateLimited, err.Kind)
	assert.Equal(t, time.Minute, err.RetryAfter)
}

func TestWrite(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		redact bool
		status int
		body   string
	}{
		{"validation", Validation("Username is required", nil), true, http.StatusBadRequest, `{"error":"Username is required"}`},
		{"internal redacted", errors.New("open /data/users.json: permission denied"), true, http.StatusInternalServerError, `{"error":"internal server error"}`},
		{"internal raw", errors.New("open /data/users.json: permission denied"), false, http.StatusInternalServerError, `{"error":"open /data/users.json: permission denied"}`},
		{"wrapped not found", fmt.Errorf("get: %w", NotFound("Project not found", nil)), true, http.StatusNotFound, `{"error":"Project not found"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Write(rec, tt.err, tt.redact)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.JSONEq(t, tt.body, rec.Body.String())
		})
	}
}

func TestWrite_RetryAfter(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(rec, RateLimited("Too many login attempts, please try again after 15 minutes.", 90500*time.Millisecond), true)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "91", rec.Header().Get("Retry-After"))
}
