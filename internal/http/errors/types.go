// Package errors defines the HTTP error surface: a single AppError shape
// serialized on every failure, plus the catalog of errors the API can
// return.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is the standard application error carried up to the HTTP edge.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	HTTPStatus int    `json:"-"`
	// Err is the original cause, logged but never sent to the client.
	Err error `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// New creates an AppError.
func New(status int, code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

// Wrap creates an AppError around an existing cause.
func Wrap(err error, status int, code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// WithDetail returns a copy carrying extra client-visible detail.
func (e *AppError) WithDetail(detail string) *AppError {
	cp := *e
	cp.Detail = detail
	return &cp
}

// WithErr returns a copy carrying the original cause for logging.
func (e *AppError) WithErr(err error) *AppError {
	cp := *e
	cp.Err = err
	return &cp
}

// FromError normalizes any error into an AppError. Unknown errors become
// internal server errors with the cause attached.
func FromError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return ErrInternal.WithErr(err)
}

// 400s

var (
	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "The request has invalid syntax or missing parameters.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrInvalidJSON = &AppError{
		Code:       "INVALID_JSON",
		Message:    "The request body is not valid JSON.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrMissingFields = &AppError{
		Code:       "MISSING_FIELDS",
		Message:    "Required fields are missing or blank.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrInvalidParameter = &AppError{
		Code:       "INVALID_PARAMETER",
		Message:    "A URL or query string parameter is invalid.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrNoPendingRegistration = &AppError{
		Code:       "NO_PENDING_REGISTRATION",
		Message:    "Sign-in account information invalid or not found on the server.",
		HTTPStatus: http.StatusBadRequest,
	}
)

// 401

var (
	ErrSignInRequired = &AppError{
		Code:       "SIGN_IN_REQUIRED",
		Message:    "This request requires a signed-in player.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrAuthFailed = &AppError{
		Code:       "AUTH_FAILED",
		Message:    "Authentication with the external site failed.",
		HTTPStatus: http.StatusUnauthorized,
	}
)

// 404

var (
	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "The requested resource does not exist.",
		HTTPStatus: http.StatusNotFound,
	}

	ErrUnknownSite = &AppError{
		Code:       "UNKNOWN_SITE",
		Message:    "The sign-in site is not configured. Check auth/list for valid site IDs.",
		HTTPStatus: http.StatusNotFound,
	}
)

// 409

var (
	ErrConflict = &AppError{
		Code:       "CONFLICT",
		Message:    "The request conflicts with existing data.",
		HTTPStatus: http.StatusConflict,
	}

	ErrAccountLinkedElsewhere = &AppError{
		Code:       "ACCOUNT_LINKED_ELSEWHERE",
		Message:    "Unable to link account because it is already linked to another player.",
		HTTPStatus: http.StatusConflict,
	}

	ErrLastSignIn = &AppError{
		Code:       "LAST_SIGN_IN",
		Message:    "Cannot unlink the only remaining sign-in account.",
		HTTPStatus: http.StatusConflict,
	}
)

// 422

var ErrInvalidUsername = &AppError{
	Code:       "INVALID_USERNAME",
	Message:    "Username must be 4 to 20 characters without '/', '#', '?' or spaces.",
	HTTPStatus: http.StatusUnprocessableEntity,
}

// 500s

var (
	ErrInternal = &AppError{
		Code:       "INTERNAL",
		Message:    "Something went wrong on our side.",
		HTTPStatus: http.StatusInternalServerError,
	}

	ErrStorageUnavailable = &AppError{
		Code:       "STORAGE_UNAVAILABLE",
		Message:    "The data store is not reachable.",
		HTTPStatus: http.StatusServiceUnavailable,
	}
)
