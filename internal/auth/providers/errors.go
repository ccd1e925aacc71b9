package providers

import (
	"errors"
	"fmt"
)

// AuthError marks a failed authentication attempt. It is distinct from "the
// user is not signed in": callers treat it as a reportable failure, never as
// an empty result.
type AuthError struct {
	msg   string
	cause error
}

func (e *AuthError) Error() string {
	if e.cause != nil {
		return e.msg + ": " + e.cause.Error()
	}
	return e.msg
}

func (e *AuthError) Unwrap() error { return e.cause }

// NewAuthError creates an AuthError with a plain message.
func NewAuthError(msg string) *AuthError {
	return &AuthError{msg: msg}
}

// WrapAuthError creates an AuthError carrying an underlying cause.
func WrapAuthError(err error, format string, args ...any) *AuthError {
	return &AuthError{msg: fmt.Sprintf(format, args...), cause: err}
}

// IsAuthError reports whether err is (or wraps) an AuthError.
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}
