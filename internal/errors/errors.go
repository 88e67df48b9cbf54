package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrDuplicateUser is returned when registration collides with an existing
	// username or email.
	ErrDuplicateUser = errors.New("user already exists")
	// ErrInvalidCredentials is returned on login failure. The same error is
	// used for an unknown email and a wrong password so responses cannot be
	// used to enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTaskNotFound is returned when no task matches the requested id.
	ErrTaskNotFound = errors.New("task not found")
	// ErrUserNotFound is returned when no user matches the requested id.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidStatus is returned when a task status is not one of the enum values.
	ErrInvalidStatus = errors.New("invalid task status")
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors. Unrecognized errors are
// treated as unexpected store failures and surface as 500 with the underlying
// message kept for diagnostics.
func MapErrorToHTTP(err error) *HTTPError {
	switch {
	case errors.Is(err, ErrDuplicateUser):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "USER_ALREADY_EXISTS")
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "INVALID_CREDENTIALS")
	case errors.Is(err, ErrTaskNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "TASK_NOT_FOUND")
	case errors.Is(err, ErrUserNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "USER_NOT_FOUND")
	case errors.Is(err, ErrInvalidStatus):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_STATUS")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error: "+err.Error(), "INTERNAL_ERROR")
	}
}
