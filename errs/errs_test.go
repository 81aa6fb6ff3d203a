package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestNewDatabaseError(t *testing.T) {
	tests := []struct {
		name   string
		cause  error
		status int
	}{
		{"record not found", fmt.Errorf("lookup: %w", gorm.ErrRecordNotFound), http.StatusNotFound},
		{"postgres duplicate", errors.New(`ERROR: duplicate key value violates unique constraint "idx_projects_slug"`), http.StatusConflict},
		{"sqlite duplicate", errors.New("UNIQUE constraint failed: projects.slug"), http.StatusConflict},
		{"foreign key", errors.New("violates foreign key constraint"), http.StatusBadRequest},
		{"connection", errors.New("dial tcp: connection refused"), http.StatusServiceUnavailable},
		{"anything else", errors.New("syntax error"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewDatabaseError("fetch", "project", tt.cause)
			assert.Equal(t, tt.status, err.StatusCode)
			assert.ErrorIs(t, err.Cause, tt.cause)
		})
	}
}

func TestSentinelUnwrap(t *testing.T) {
	assert.True(t, IsNotFound(NewDatabaseError("fetch", "comment", gorm.ErrRecordNotFound)))
	assert.True(t, IsNotFound(NewNotFound("image")))
	assert.True(t, IsConflict(NewDatabaseError("create", "project", errors.New("UNIQUE constraint failed: projects.slug"))))
	assert.ErrorIs(t, NewInsufficientRoleError("admin"), ErrInsufficientRole)
	assert.ErrorIs(t, NewRateLimitError("/api/chat", 30*time.Second), ErrRateLimitExceeded)
	assert.False(t, IsNotFound(NewBadRequestError("nope")))
}

func TestGetFullError(t *testing.T) {
	inner := NewInvalidJSONError(errors.New("unexpected EOF"))
	outer := NewInternalErrorWithCause("could not decode", inner)

	assert.Equal(t, "could not decode -> invalid JSON: Invalid JSON format -> unexpected EOF", outer.GetFullError())
}

func TestRateLimitDetailsRoundUp(t *testing.T) {
	err := NewRateLimitError("/api/contact", 1500*time.Millisecond)
	assert.Contains(t, err.Details, "retry in 2 seconds")
}
