package dto

import (
	"net/http"

	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/shared"
)

// Codes produced by the HTTP layer itself. Domain codes come from the
// shared package and are passed through unchanged.
const (
	ErrCodeInternal        = "INTERNAL_ERROR"
	ErrCodeRateLimited     = "RATE_LIMIT_EXCEEDED"
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
	ErrCodeTokenExpired    = "TOKEN_EXPIRED"
	ErrCodeTokenInvalid    = "INVALID_TOKEN"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	shared.CodeInvalidArgument:   http.StatusBadRequest,
	shared.CodeNotFound:          http.StatusNotFound,
	shared.CodeInvalidTransition: http.StatusConflict,
	shared.CodePropertyNotFound:  http.StatusUnprocessableEntity,
	shared.CodeStorageFailure:    http.StatusInternalServerError,
	shared.CodeUnauthorized:      http.StatusUnauthorized,
	shared.CodeForbidden:         http.StatusForbidden,

	ErrCodeInternal:        http.StatusInternalServerError,
	ErrCodeRateLimited:     http.StatusTooManyRequests,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeTokenExpired:    http.StatusUnauthorized,
	ErrCodeTokenInvalid:    http.StatusUnauthorized,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
