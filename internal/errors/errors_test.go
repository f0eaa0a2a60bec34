package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapErrorToHTTP(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"validation", ErrValidation, http.StatusBadRequest, "Please enter all fields"},
		{"wrapped validation keeps detail", fmt.Errorf("%w: amount must be positive", ErrValidation), http.StatusBadRequest, "Please enter all fields: amount must be positive"},
		{"invalid sweet", ErrInvalidSweet, http.StatusBadRequest, "Please provide all fields"},
		{"wrapped invalid sweet keeps detail", fmt.Errorf("%w: invalid query parameter", ErrInvalidSweet), http.StatusBadRequest, "Please provide all fields: invalid query parameter"},
		{"conflict", ErrConflict, http.StatusBadRequest, "User already exists"},
		{"invalid credentials", ErrInvalidCredentials, http.StatusBadRequest, "Invalid Credentials"},
		{"out of stock", ErrOutOfStock, http.StatusBadRequest, "Sweet is out of stock"},
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized, "No token, authorization denied"},
		{"invalid token", ErrInvalidToken, http.StatusUnauthorized, "Token is not valid"},
		{"forbidden", ErrForbidden, http.StatusForbidden, "Access denied. Admin role required."},
		{"not found", fmt.Errorf("purchase: %w", ErrNotFound), http.StatusNotFound, "purchase: Sweet not found"},
		{"user not found", ErrUserNotFound, http.StatusNotFound, "User not found"},
		{"internal", errors.New("connection refused"), http.StatusInternalServerError, "Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpErr := MapErrorToHTTP(tt.err)
			assert.Equal(t, tt.wantStatus, httpErr.StatusCode)
			assert.Equal(t, tt.wantMsg, httpErr.ToErrorResponse().Msg)
			assert.Equal(t, tt.wantStatus == http.StatusInternalServerError, httpErr.IsInternal())
		})
	}
}
