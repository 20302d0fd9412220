package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetCode(t *testing.T) {
	tests := []struct {
		name       string
		code       int
		wantStatus int
	}{
		{"content not found", ErrContentNotFound, http.StatusNotFound},
		{"name conflict", ErrContentNameConflict, http.StatusConflict},
		{"rating range is a bad request", ErrPerspectiveRange, http.StatusBadRequest},
		{"duplicate claim is a conflict", ErrPerspectiveDuplicate, http.StatusConflict},
		{"sentinel user", ErrUserProtected, http.StatusForbidden},
		{"upstream failure", ErrYouTubeAPI, http.StatusBadGateway},
		{"unknown falls back to internal", 999999, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, GetHTTPStatus(tt.code))
		})
	}
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrInternalServer))

	cause := errors.New("dial tcp: refused")
	wrapped := Wrap(cause, ErrServiceUnavail, "database")
	assert.Equal(t, ErrServiceUnavail, wrapped.Code)
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, "database", GetDetails(wrapped))

	rewrapped := Wrap(fmt.Errorf("outer: %w", wrapped), ErrInternalServer, "other")
	assert.Equal(t, ErrServiceUnavail, rewrapped.Code)
	assert.Equal(t, "other", rewrapped.Details)
	assert.Equal(t, "database", wrapped.Details)
}

func TestExtractCode(t *testing.T) {
	err := fmt.Errorf("ctx: %w", New(ErrUserExists, "alice"))

	assert.Equal(t, ErrUserExists, ExtractCode(err))
	assert.Equal(t, ErrInternalServer, ExtractCode(errors.New("plain")))
	assert.Equal(t, "plain", GetDetails(errors.New("plain")))
}

func TestFormatError(t *testing.T) {
	assert.Equal(t, "Content not found", FormatError(ErrContentNotFound))
	assert.Equal(t, "Content not found: abc", FormatError(ErrContentNotFound, "abc"))
	assert.True(t, IsClientError(ErrInvalidParams))
	assert.False(t, IsClientError(ErrInternalServer))
}
