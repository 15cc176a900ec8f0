package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorMessageAndUnwrap(t *testing.T) {
	err := Conflict("already following this user")

	assert.Equal(t, "already following this user", err.Error())
	assert.True(t, errors.Is(err, ErrConflict))
	assert.Equal(t, http.StatusConflict, MapErrorToStatus(err))

	wrapped := fmt.Errorf("follow: %w", err)
	assert.True(t, errors.Is(wrapped, ErrConflict))
	assert.Equal(t, http.StatusConflict, MapErrorToStatus(wrapped))
}

func TestMapErrorToStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ErrNotFound, http.StatusNotFound},
		{ErrUnauthorized, http.StatusUnauthorized},
		{ErrForbidden, http.StatusForbidden},
		{ErrConflict, http.StatusConflict},
		{ErrInvalidOperation, http.StatusBadRequest},
		{ErrInvalidInput, http.StatusBadRequest},
		{ErrRateLimitExceeded, http.StatusTooManyRequests},
		{errors.New("boom"), http.StatusInternalServerError},
		{InvalidOperation("cannot follow yourself"), http.StatusBadRequest},
		{Forbidden("not yours"), http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, MapErrorToStatus(tt.err))
		})
	}
}

func TestAppErrorFallsBackToWrappedMessage(t *testing.T) {
	err := New(http.StatusNotFound, "", ErrNotFound)
	assert.Equal(t, ErrNotFound.Error(), err.Error())
}
