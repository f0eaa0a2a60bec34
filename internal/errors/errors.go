package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrValidation is returned when a required field is missing or malformed.
	ErrValidation = errors.New("Please enter all fields")
	// ErrInvalidSweet is returned when a sweet is missing a field or carries a bad value.
	ErrInvalidSweet = errors.New("Please provide all fields")
	// ErrConflict is returned when a unique field is already taken.
	ErrConflict = errors.New("User already exists")
	// ErrInvalidCredentials is returned when email or password do not match.
	ErrInvalidCredentials = errors.New("Invalid Credentials")
	// ErrUnauthorized is returned when no usable token accompanies the request.
	ErrUnauthorized = errors.New("No token, authorization denied")
	// ErrInvalidToken is returned when a token fails signature or expiry checks.
	ErrInvalidToken = errors.New("Token is not valid")
	// ErrForbidden is returned when the caller's role is insufficient.
	ErrForbidden = errors.New("Access denied. Admin role required.")
	// ErrNotFound is returned when no sweet matches the given id.
	ErrNotFound = errors.New("Sweet not found")
	// ErrUserNotFound is returned when a token refers to a user that no longer exists.
	ErrUserNotFound = errors.New("User not found")
	// ErrOutOfStock is returned when a purchase would drive quantity below zero.
	ErrOutOfStock = errors.New("Sweet is out of stock")
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Msg string `json:"msg"`
}

// HTTPError pairs a status code with the client-facing message.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message string) *HTTPError {
	return &HTTPError{StatusCode: statusCode, Message: message}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{Msg: e.Message}
}

// IsInternal reports whether the error would be rendered as a 500.
func (e *HTTPError) IsInternal() bool {
	return e.StatusCode >= http.StatusInternalServerError
}

// MapErrorToHTTP maps domain errors to HTTP errors. Wrapped detail is kept in the
// message for client errors; anything unrecognised becomes a generic 500.
func MapErrorToHTTP(err error) *HTTPError {
	switch {
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrInvalidSweet),
		errors.Is(err, ErrConflict),
		errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrOutOfStock):
		return NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrInvalidToken):
		return NewHTTPError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrForbidden):
		return NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrUserNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error())
	default:
		return NewHTTPError(http.StatusInternalServerError, "Server Error")
	}
}
